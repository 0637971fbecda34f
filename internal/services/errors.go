package services

import (
	"errors"
	"fmt"

	"boostbot/internal/models"
)

var (
	ErrUserBoostLock      = errors.New("user boost locked")
	ErrBoostNotFound      = errors.New("boost session not found")
	ErrInvalidBoostInput  = errors.New("invalid boost input")
	ErrStorage            = errors.New("storage failure")
	ErrInvariantViolation = models.ErrInvalidBoostSession

	ErrRecipientUnreachable = errors.New("recipient unreachable")
	ErrDeliveryTransient    = errors.New("transient delivery failure")
)

type DeliveryKind int

const (
	DeliveryTransient DeliveryKind = iota
	DeliveryUnreachable
)

// DeliveryError is returned by gateways. Status carries the chat status to record
// for unreachable recipients.
type DeliveryError struct {
	Kind   DeliveryKind
	Status string
	Err    error
}

func NewUnreachableError(status string, err error) *DeliveryError {
	return &DeliveryError{Kind: DeliveryUnreachable, Status: status, Err: err}
}

func NewTransientError(err error) *DeliveryError {
	return &DeliveryError{Kind: DeliveryTransient, Err: err}
}

func (e *DeliveryError) Error() string {
	if e.Kind == DeliveryUnreachable {
		return fmt.Sprintf("recipient unreachable (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("delivery failed: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

func (e *DeliveryError) Is(target error) bool {
	switch target {
	case ErrRecipientUnreachable:
		return e.Kind == DeliveryUnreachable
	case ErrDeliveryTransient:
		return e.Kind == DeliveryTransient
	}
	return false
}

// IsUnreachable reports whether err means the recipient can no longer be messaged.
func IsUnreachable(err error) bool {
	return errors.Is(err, ErrRecipientUnreachable)
}
