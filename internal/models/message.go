package models

type MessageKind string

const (
	MessageBoostProgress MessageKind = "boost_progress"
	MessageBoostFinished MessageKind = "boost_finished"
	MessageBoostStopped  MessageKind = "boost_stopped"
	MessageBoostStarted  MessageKind = "boost_started"
	MessagePaidBoost     MessageKind = "boost_paid_quote"
)

// Button is an inline keyboard button. Unique marks a callback button, URL a link button.
type Button struct {
	Text   string
	Unique string
	URL    string
}

// Photo is either a previously uploaded file id or a local file path.
type Photo struct {
	FileID string
	Path   string
}

const (
	ButtonStopBoost      = "stop_boost"
	ButtonCurrentBalance = "current_balance"
	ButtonStartPaidBoost = "start_paid_boost"
	ButtonMenu           = "choose_platform"
)
