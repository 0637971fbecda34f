package main

import (
	"database/sql"
	"log"
	"os"

	"github.com/hiendaovinh/toolkit/pkg/env"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/urfave/cli/v2"

	"boostbot/internal/datastore"
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

func main() {
	app := &cli.App{
		Name: "migrate",
		Commands: []*cli.Command{
			commandMigration(),
			commandTemplateMigration(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func commandMigration() *cli.Command {
	return &cli.Command{
		Name:  "up",
		Usage: "create the profile and config tables",
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := datastore.CreateTableUserProfile(c.Context, db); err != nil {
				return err
			}
			if err := datastore.CreateTableConfig(c.Context, db); err != nil {
				return err
			}

			log.Println("migrate up done")
			return nil
		},
	}
}

// commandTemplateMigration stores a message template override, e.g.
// migrate template --kind boost_progress --lang uk --text "..."
func commandTemplateMigration() *cli.Command {
	return &cli.Command{
		Name:  "template",
		Usage: "override a message template",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Required: true},
			&cli.StringFlag{Name: "lang", Value: models.LanguageEnglish},
			&cli.StringFlag{Name: "text", Required: true},
		},
		Action: func(c *cli.Context) error {
			db, err := getDb()
			if err != nil {
				return err
			}
			defer db.Close()

			key := services.TemplateConfigKey(models.MessageKind(c.String("kind")), services.NormalizeLanguage(c.String("lang")))
			if err := datastore.UpsertConfig(c.Context, db, &models.Config{Key: key, Value: c.String("text")}); err != nil {
				return err
			}

			log.Printf("template %s stored\n", key)
			return nil
		},
	}
}

func getDb() (*bun.DB, error) {
	vs, err := env.EnvsRequired("DB_DSN")
	if err != nil {
		return nil, err
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(vs["DB_DSN"]),
		pgdriver.WithPassword(os.Getenv("DB_PASSWORD")),
	))

	return bun.NewDB(sqldb, pgdialect.New()), nil
}
