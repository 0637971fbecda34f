package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/samber/do"
	"github.com/urfave/cli/v2"

	"boostbot/internal/container"
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

func main() {
	vs, err := env.EnvsRequired(
		"BOT_TOKEN",
		"JWT_SECRET",
		"DB_DSN",
	)
	if err != nil {
		log.Fatal(err)
	}

	injector := container.NewContainer(vs)

	app := &cli.App{
		Name: "cronjob",
		Commands: []*cli.Command{
			commandCronjob(injector),
			commandSweep(injector),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandCronjob(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "run the fine and coarse sweeps on their schedules",
		Action: func(c *cli.Context) error {
			logger := do.MustInvoke[zerolog.Logger](injector)
			scheduler, err := do.Invoke[*services.ServiceScheduler](injector)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cronRunner := cron.New(cron.WithLogger(cron.PrintfLogger(&logger)))
			if err := scheduler.Register(ctx, cronRunner); err != nil {
				return err
			}

			logger.Info().Msg("start cronjob")
			cronRunner.Start()

			<-ctx.Done()
			logger.Info().Msg("stopping cronjob")
			<-cronRunner.Stop().Done()
			return nil
		},
	}
}

func commandSweep(injector *do.Injector) *cli.Command {
	return &cli.Command{
		Name:  "sweep",
		Usage: "run a single sweep pass",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "kind",
				Value: string(services.SweepFine),
				Usage: "fine or coarse",
			},
		},
		Action: func(c *cli.Context) error {
			kind := services.SweepKind(c.String("kind"))
			if kind != services.SweepFine && kind != services.SweepCoarse {
				return fmt.Errorf("unknown sweep %q", kind)
			}

			scheduler, err := do.Invoke[*services.ServiceScheduler](injector)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report := scheduler.Run(ctx, kind)
			fmt.Printf("scanned=%d reconciled=%d notified=%d finalized=%d failed=%d\n",
				report.Scanned, report.Reconciled, report.Notified, report.Finalized, report.Failed)
			return nil
		},
	}
}
