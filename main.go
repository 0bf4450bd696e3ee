package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/jankuo/personmap/bootstrap"
	"github.com/jankuo/personmap/config"
	"github.com/jankuo/personmap/internal/logging"
	"github.com/jankuo/personmap/mapper"
	"github.com/jankuo/personmap/orm"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("personmap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a TOML config file (optional; in-memory SQLite if omitted)")
	scriptPath := fs.String("script", "", "bootstrap script (optional; overrides the config, embedded seed if both empty)")
	id := fs.Int("id", 1, "id of the person to select")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck // flag already reported it
	}

	if *showVersion {
		_, err := fmt.Fprintln(stdout, "personmap", version)
		return err //nolint:wrapcheck // pass through
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err //nolint:wrapcheck // already prefixed
	}
	if *scriptPath != "" {
		cfg.Script = *scriptPath
	}

	logger := logging.New(cfg.Log, stderr)
	cli := logging.WithComponent(logger, "cli")
	cli.Debug().Str("driver", cfg.Database.Driver).Msg("opening database")

	db, err := orm.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open %s: %w", cfg.Database.Driver, err)
	}
	defer func() { _ = db.Close() }()
	db = db.Debug(orm.NewZerologLogger(logger))

	runner := bootstrap.New(logger)
	if cfg.Script != "" {
		err = runner.RunFile(ctx, db, cfg.Script)
	} else {
		err = runner.Run(ctx, db, bootstrap.SimpleDB())
	}
	if err != nil {
		return err //nolint:wrapcheck // already prefixed
	}

	person, err := mapper.NewPersonMapper(db).SelectPersonByID(ctx, *id)
	if err != nil {
		return err //nolint:wrapcheck // already prefixed
	}
	cli.Info().Int("id", person.ID).Str("name", person.FullName()).Msg("person selected")

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(person) //nolint:wrapcheck // pass through
}
