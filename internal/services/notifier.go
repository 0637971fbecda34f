package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/do"

	"boostbot/internal/interfaces"
	"boostbot/internal/models"
	"boostbot/internal/pkg"
)

var buttonLabels = map[string]map[string]string{
	models.LanguageEnglish: {
		models.ButtonStopBoost:      "⛔ Stop Boost",
		models.ButtonCurrentBalance: "💰 Current Balance",
		models.ButtonStartPaidBoost: "🚀 Start paid boost",
		models.ButtonMenu:           "📋 Menu",
	},
	models.LanguageUkrainian: {
		models.ButtonStopBoost:      "⛔ Зупинити буст",
		models.ButtonCurrentBalance: "💰 Поточний баланс",
		models.ButtonStartPaidBoost: "🚀 Платний буст",
		models.ButtonMenu:           "📋 Меню",
	},
}

type ServiceNotifier struct {
	container *do.Injector
	gateway   interfaces.Gateway
	templates interfaces.TemplateProvider
	media     interfaces.MediaResolver
	profiles  interfaces.ProfileStore
	logger    zerolog.Logger
	now       func() time.Time
}

func NewServiceNotifier(container *do.Injector) (*ServiceNotifier, error) {
	gateway, err := do.Invoke[interfaces.Gateway](container)
	if err != nil {
		return nil, err
	}

	templates, err := do.Invoke[interfaces.TemplateProvider](container)
	if err != nil {
		return nil, err
	}

	media, err := do.Invoke[interfaces.MediaResolver](container)
	if err != nil {
		return nil, err
	}

	profiles, err := do.Invoke[interfaces.ProfileStore](container)
	if err != nil {
		return nil, err
	}

	logger, err := do.Invoke[zerolog.Logger](container)
	if err != nil {
		return nil, err
	}

	return &ServiceNotifier{
		container: container,
		gateway:   gateway,
		templates: templates,
		media:     media,
		profiles:  profiles,
		logger:    logger.With().Str("service", "notifier").Logger(),
		now:       time.Now,
	}, nil
}

func (service *ServiceNotifier) NotifyProgress(ctx context.Context, session *models.BoostSession) error {
	fields := map[string]string{
		"current_balance": pkg.FormatMoney(session.CurrentBalance),
		"remaining_time":  pkg.RemainingTimeString(session.Remaining(service.now())),
		"platform":        session.Platform.String(),
	}
	return service.send(ctx, session.UserID, models.MessageBoostProgress, fields, func(lang string) [][]models.Button {
		return [][]models.Button{
			{button(lang, models.ButtonStopBoost)},
			{button(lang, models.ButtonCurrentBalance)},
		}
	})
}

func (service *ServiceNotifier) NotifyFinished(ctx context.Context, session *models.BoostSession) error {
	return service.send(ctx, session.UserID, models.MessageBoostFinished, terminalFields(session), terminalButtons)
}

// NotifyStopped confirms a manual stop.
func (service *ServiceNotifier) NotifyStopped(ctx context.Context, session *models.BoostSession) error {
	return service.send(ctx, session.UserID, models.MessageBoostStopped, terminalFields(session), terminalButtons)
}

func (service *ServiceNotifier) NotifyStarted(ctx context.Context, session *models.BoostSession) error {
	fields := map[string]string{
		"start_balance":  pkg.FormatMoney(session.StartBalance),
		"remaining_time": pkg.RemainingTimeString(session.Remaining(service.now())),
		"platform":       session.Platform.String(),
	}
	return service.send(ctx, session.UserID, models.MessageBoostStarted, fields, func(lang string) [][]models.Button {
		return [][]models.Button{{button(lang, models.ButtonCurrentBalance)}}
	})
}

func (service *ServiceNotifier) NotifyQuote(ctx context.Context, userID int64, quote *models.BoostQuote) error {
	fields := map[string]string{
		"last_final_balance": pkg.FormatMoney(quote.LastFinalBalance),
		"amount_to_pay":      pkg.FormatMoney(quote.AmountToPay),
	}
	return service.send(ctx, userID, models.MessagePaidBoost, fields, func(lang string) [][]models.Button {
		return [][]models.Button{{button(lang, models.ButtonMenu)}}
	})
}

func terminalFields(session *models.BoostSession) map[string]string {
	final := session.CurrentBalance
	if session.FinalBalance != nil {
		final = *session.FinalBalance
	}
	return map[string]string{
		"start_balance": pkg.FormatMoney(session.StartBalance),
		"final_balance": pkg.FormatMoney(final),
		"platform":      session.Platform.String(),
	}
}

func terminalButtons(lang string) [][]models.Button {
	return [][]models.Button{
		{button(lang, models.ButtonStartPaidBoost)},
		{button(lang, models.ButtonMenu)},
	}
}

func button(lang, unique string) models.Button {
	labels, ok := buttonLabels[lang]
	if !ok {
		labels = buttonLabels[models.LanguageEnglish]
	}
	return models.Button{Text: labels[unique], Unique: unique}
}

func (service *ServiceNotifier) language(ctx context.Context, userID int64) string {
	profile, err := service.profiles.GetProfile(ctx, userID)
	if err != nil || profile == nil {
		return models.LanguageEnglish
	}
	return NormalizeLanguage(profile.Language)
}

func (service *ServiceNotifier) send(ctx context.Context, userID int64, kind models.MessageKind, fields map[string]string, buttons func(lang string) [][]models.Button) error {
	lang := service.language(ctx, userID)

	text, err := service.templates.Render(ctx, kind, lang, fields)
	if err != nil {
		return err
	}

	photo, err := service.media.Resolve(ctx, kind)
	if err != nil {
		service.logger.Warn().Err(err).Str("kind", string(kind)).Msg("resolve media")
		photo = nil
	}

	if photo != nil {
		var fileID string
		fileID, err = service.gateway.SendPhoto(ctx, userID, *photo, text, buttons(lang))
		if err == nil && photo.FileID == "" && fileID != "" {
			if rerr := service.media.Remember(ctx, kind, fileID); rerr != nil {
				service.logger.Warn().Err(rerr).Str("kind", string(kind)).Msg("remember media file id")
			}
		}
	} else {
		err = service.gateway.SendText(ctx, userID, text, buttons(lang))
	}
	if err == nil {
		return nil
	}

	var de *DeliveryError
	if errors.As(err, &de) && de.Kind == DeliveryUnreachable && de.Status != "" {
		if serr := service.profiles.SetChatStatus(ctx, userID, de.Status); serr != nil {
			service.logger.Error().Err(serr).Int64("user_id", userID).Msg("record chat status")
		}
	}
	return err
}
