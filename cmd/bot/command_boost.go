package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	tele "gopkg.in/telebot.v3"

	"boostbot/internal/models"
	"boostbot/internal/services"
)

const (
	textStart = `🚀 Welcome to Boost Bot!

Start a boost and watch your balance grow for 24 hours.

/balance - current boost balance
/stop - stop the running boost
/quote - price of your next boost
/lang en|uk - change language`
	textNoBoost     = "You have no active boost."
	textFreeBoost   = "🎁 Your free boost is still available!"
	textLanguageSet = "✅ Language updated."
	textTryLater    = "Something went wrong, please try again later."
	commandTimeout  = 10 * time.Second
)

func commandStart(c tele.Context) error {
	return c.Send(textStart, &tele.SendOptions{ParseMode: tele.ModeHTML})
}

func commandLanguage(c tele.Context) error {
	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /lang en|uk")
	}

	profiles, err := getContextService[*services.ServiceProfile](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := profiles.SetLanguage(ctx, c.Sender().ID, args[0]); err != nil {
		return c.Send(textTryLater)
	}
	return c.Send(textLanguageSet)
}

func commandBalance(c tele.Context) error {
	serviceBoost, err := getContextService[*services.ServiceBoost](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	notifier, err := getContextService[*services.ServiceNotifier](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	session, err := serviceBoost.UpdateBalanceOnDemand(ctx, c.Sender().ID)
	if errors.Is(err, services.ErrBoostNotFound) {
		return c.Send(textNoBoost)
	}
	if err != nil {
		return c.Send(textTryLater)
	}

	if !session.IsActive {
		return c.Send(fmt.Sprintf("%s\n🏁 Final balance: %.2f", textNoBoost, session.CurrentBalance))
	}
	return notifier.NotifyProgress(ctx, session)
}

func commandStop(c tele.Context) error {
	serviceBoost, err := getContextService[*services.ServiceBoost](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	notifier, err := getContextService[*services.ServiceNotifier](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	session, stopped, err := serviceBoost.StopBoost(ctx, c.Sender().ID)
	if err != nil {
		return c.Send(textTryLater)
	}
	if !stopped {
		return c.Send(textNoBoost)
	}
	return notifier.NotifyStopped(ctx, session)
}

func commandQuote(c tele.Context) error {
	serviceBoost, err := getContextService[*services.ServiceBoost](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	notifier, err := getContextService[*services.ServiceNotifier](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	userID := c.Sender().ID
	quote, err := serviceBoost.QuoteBoost(ctx, userID)
	if err != nil {
		return c.Send(textTryLater)
	}
	if quote.FreeAvailable {
		return c.Send(textFreeBoost, services.Markup([][]models.Button{{{Text: "📋 Menu", Unique: models.ButtonMenu}}}))
	}
	return notifier.NotifyQuote(ctx, userID, quote)
}
