package main

import (
	"context"
	"fmt"
	"strconv"

	tele "gopkg.in/telebot.v3"

	"boostbot/internal/models"
	"boostbot/internal/services"
)

func AuthRequire(ctx tele.Context, chatIDs []int64) bool {
	authorized := false
	for _, id := range chatIDs {
		if ctx.Chat() != nil && ctx.Chat().ID == id {
			authorized = true
			break
		}
	}

	if !authorized {
		//nolint:errcheck
		ctx.Send("You are not authorized to use this bot here.")
	}

	return authorized
}

func handleAdminCommands(b *tele.Bot) {
	b.Handle("/list", commandList)
	b.Handle("/boost_start", commandBoostStart)
	b.Handle("/boost_finalize", commandBoostFinalize)
	b.Handle("/sweep", commandSweep)
}

func commandList(c tele.Context) error {
	if !AuthRequire(c, getContextAdminChatIDs(c)) {
		return nil
	}

	return c.Send(`List of commands:
/boost_start <user_id> <balance> <platform> - Start a boost for a user
/boost_finalize <user_id> - Finalize an expired boost
/sweep <fine|coarse> - Run one reconciliation pass
`)
}

func commandBoostStart(c tele.Context) error {
	if !AuthRequire(c, getContextAdminChatIDs(c)) {
		return nil
	}

	args := c.Args()
	if len(args) != 3 {
		return c.Send("Usage: /boost_start <user_id> <balance> <platform>")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Invalid user id")
	}
	balance, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return c.Send("Invalid balance")
	}

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

	session, err := serviceBoost.StartBoost(ctx, userID, balance, models.Platform(args[2]))
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	if err := notifier.NotifyStarted(ctx, session); err != nil {
		//nolint:errcheck
		c.Send(fmt.Sprintf("boost started, user not notified: %s", err.Error()))
	}
	return c.Send(fmt.Sprintf("Boost %s started for %d, ends at %s", session.ID, userID, session.EndTime.Format("2006-01-02 15:04:05")))
}

func commandBoostFinalize(c tele.Context) error {
	if !AuthRequire(c, getContextAdminChatIDs(c)) {
		return nil
	}

	args := c.Args()
	if len(args) != 1 {
		return c.Send("Usage: /boost_finalize <user_id>")
	}

	userID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return c.Send("Invalid user id")
	}

	serviceBoost, err := getContextService[*services.ServiceBoost](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	sent, err := serviceBoost.FinalizeBoostAndNotify(ctx, userID)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}
	return c.Send(fmt.Sprintf("Finalized %d, notified: %t", userID, sent))
}

func commandSweep(c tele.Context) error {
	if !AuthRequire(c, getContextAdminChatIDs(c)) {
		return nil
	}

	args := c.Args()
	if len(args) != 1 || (args[0] != string(services.SweepFine) && args[0] != string(services.SweepCoarse)) {
		return c.Send("Usage: /sweep <fine|coarse>")
	}

	scheduler, err := getContextService[*services.ServiceScheduler](c)
	if err != nil {
		return c.Send(fmt.Sprintf("error %s", err.Error()))
	}

	report := scheduler.Run(context.Background(), services.SweepKind(args[0]))
	return c.Send(fmt.Sprintf("Sweep %s: scanned %d, reconciled %d, notified %d, finalized %d, failed %d",
		args[0], report.Scanned, report.Reconciled, report.Notified, report.Finalized, report.Failed))
}
