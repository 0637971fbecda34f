package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"
	tele "gopkg.in/telebot.v3"

	"boostbot/internal/container"
	"boostbot/internal/models"
	"boostbot/internal/services"
)

func init() {
	// for development
	//nolint:errcheck
	godotenv.Load("../../.env")

	// for production
	//nolint:errcheck
	godotenv.Load("./.env")
}

const (
	textCommandStart  = "/start"
	textCommandHelp   = "/help"
	textCommandLang   = "/lang"
	textCommandStop   = "/stop"
	textCommandQuote  = "/quote"
	textCommandBal    = "/balance"
	configAdminChatID = "ADMIN_CHAT_ID"
)

func main() {
	app := &cli.App{
		Name: "bot-telegram",
		Commands: []*cli.Command{
			commandBot(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandBot() *cli.Command {
	return &cli.Command{
		Name:   "server",
		Usage:  "start the telegram bot",
		Action: action,
	}
}

func action(c *cli.Context) error {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"JWT_SECRET",
		"DB_DSN",
	)
	if err != nil {
		return err
	}

	injector := container.NewContainer(vs)
	logger := do.MustInvoke[zerolog.Logger](injector)

	b, err := do.Invoke[*tele.Bot](injector)
	if err != nil {
		return err
	}

	configs, err := do.Invoke[*services.ServiceConfig](injector)
	if err != nil {
		return err
	}

	var adminChatIDs []int64
	raw, err := configs.GetStringConfig(c.Context, configAdminChatID, "")
	if err != nil {
		logger.Warn().Err(err).Msg("load admin chat ids")
	}
	for _, v := range strings.Split(raw, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			adminChatIDs = append(adminChatIDs, id)
		}
	}

	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Callback() != nil {
				//nolint:errcheck
				defer c.Respond()
			}

			c.Set(contextContainer, injector)
			c.Set(contextAdminChatIDs, adminChatIDs)
			return next(c)
		}
	})

	b.Handle(textCommandStart, commandStart)
	b.Handle(textCommandHelp, commandStart)
	b.Handle(textCommandLang, commandLanguage)

	b.Handle(textCommandBal, commandBalance)
	b.Handle(textCommandStop, commandStop)
	b.Handle(textCommandQuote, commandQuote)
	b.Handle(&tele.Btn{Unique: models.ButtonCurrentBalance}, commandBalance)
	b.Handle(&tele.Btn{Unique: models.ButtonStopBoost}, commandStop)
	b.Handle(&tele.Btn{Unique: models.ButtonStartPaidBoost}, commandQuote)
	b.Handle(&tele.Btn{Unique: models.ButtonMenu}, commandStart)

	handleAdminCommands(b)

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		b.Stop()
	}()

	logger.Info().Str("bot", b.Me.Username).Msg("bot started")
	b.Start()
	return nil
}
