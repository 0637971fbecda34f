package services

import (
	"context"
	"errors"

	"github.com/go-redis/redis_rate/v10"
	"github.com/samber/do"
	tele "gopkg.in/telebot.v3"

	"boostbot/internal/interfaces"
	"boostbot/internal/models"
)

// TelegramGateway sends messages through the bot API, throttled by a shared redis limiter.
type TelegramGateway struct {
	bot     *tele.Bot
	limiter interfaces.Limiter
	limit   redis_rate.Limit
}

func NewTelegramGateway(container *do.Injector) (*TelegramGateway, error) {
	bot, err := do.Invoke[*tele.Bot](container)
	if err != nil {
		return nil, err
	}

	limiter, err := do.Invoke[interfaces.Limiter](container)
	if err != nil {
		return nil, err
	}

	settings, err := do.Invoke[models.BoostSettings](container)
	if err != nil {
		return nil, err
	}

	return &TelegramGateway{bot, limiter, redis_rate.PerSecond(settings.NotifyRatePerSecond)}, nil
}

func (gateway *TelegramGateway) SendText(ctx context.Context, userID int64, text string, buttons [][]models.Button) error {
	if err := gateway.limiter.Wait(ctx, LIMIT_KEY_GATEWAY, gateway.limit); err != nil {
		return NewTransientError(err)
	}

	_, err := gateway.bot.Send(tele.ChatID(userID), text, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: Markup(buttons),
	})
	return ClassifySendError(err)
}

func (gateway *TelegramGateway) SendPhoto(ctx context.Context, userID int64, photo models.Photo, caption string, buttons [][]models.Button) (string, error) {
	if err := gateway.limiter.Wait(ctx, LIMIT_KEY_GATEWAY, gateway.limit); err != nil {
		return "", NewTransientError(err)
	}

	p := &tele.Photo{Caption: caption}
	if photo.FileID != "" {
		p.File = tele.File{FileID: photo.FileID}
	} else {
		p.File = tele.FromDisk(photo.Path)
	}

	msg, err := gateway.bot.Send(tele.ChatID(userID), p, &tele.SendOptions{
		ParseMode:   tele.ModeHTML,
		ReplyMarkup: Markup(buttons),
	})
	if err != nil {
		return "", ClassifySendError(err)
	}
	if msg == nil || msg.Photo == nil {
		return "", nil
	}
	return msg.Photo.FileID, nil
}

// Markup builds an inline keyboard, nil for no buttons.
func Markup(buttons [][]models.Button) *tele.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}

	rm := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(buttons))
	for _, row := range buttons {
		btns := make([]tele.Btn, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				btns = append(btns, rm.URL(b.Text, b.URL))
				continue
			}
			btns = append(btns, rm.Data(b.Text, b.Unique))
		}
		rows = append(rows, rm.Row(btns...))
	}
	rm.Inline(rows...)
	return rm
}

// ClassifySendError turns a bot API error into a DeliveryError.
func ClassifySendError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, tele.ErrBlockedByUser):
		return NewUnreachableError(models.ChatStatusBlocked, err)
	case errors.Is(err, tele.ErrChatNotFound):
		return NewUnreachableError(models.ChatStatusChatNotFound, err)
	case errors.Is(err, tele.ErrUserIsDeactivated):
		return NewUnreachableError(models.ChatStatusDeactivated, err)
	}
	return NewTransientError(err)
}
