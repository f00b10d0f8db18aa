/*
main.go - Application entry point

PURPOSE:
  Starts the tailoring shop back office server and exposes the operator
  commands that share its wiring (reconcile, rebuild, mode, seed).

COMMANDS:
  serve              Run the HTTP API (default when no command is given)
  stock reconcile    Print the consistency report; exit 2 on prod divergence
  stock rebuild      Rebuild StockLevel from the ledger
  mode get           Print the inventory mode
  mode set dev|prod  Switch the inventory mode
  seed               Load a demo scenario (dev mode only)

CONFIGURATION:
  Environment variables prefixed TAILOR_ (see config/config.go), optionally
  read from the file named by --env-file. Flags override the environment.

STARTUP SEQUENCE (serve):
  1. Load configuration
  2. Initialize SQLite store (migrations run on open)
  3. Build services and API handler
  4. Start the stock audit scheduler
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler
  4. Close database connection

EXAMPLES:
  # Run with file database
  ./server serve --db ./data/shop.db

  # Run with in-memory database
  ./server serve --db :memory:

  # Check stock from cron
  ./server stock reconcile

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Environment variables
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/VincentYu328/luckystar-sub000/api"
	"github.com/VincentYu328/luckystar-sub000/config"
	"github.com/VincentYu328/luckystar-sub000/core"
	"github.com/VincentYu328/luckystar-sub000/inventory"
	"github.com/VincentYu328/luckystar-sub000/orders"
	"github.com/VincentYu328/luckystar-sub000/store/sqlite"
)

const shutdownTimeout = 30 * time.Second

func main() {
	app := &cli.App{
		Name:  "tailorshop",
		Usage: "inventory ledger and order settlement for a tailoring shop",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "dotenv file read before the environment"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path (overrides TAILOR_DB_PATH)"},
			&cli.StringFlag{Name: "actor", Value: "cli", Usage: "actor id recorded for operator commands"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "addr", Usage: "listen address (overrides TAILOR_HTTP_ADDR)"},
				},
				Action: serve,
			},
			{
				Name:  "stock",
				Usage: "stock consistency tools",
				Subcommands: []*cli.Command{
					{Name: "reconcile", Usage: "compare StockLevel with the ledger", Action: reconcile},
					{Name: "rebuild", Usage: "rebuild StockLevel from the ledger", Action: rebuild},
				},
			},
			{
				Name:  "mode",
				Usage: "read or switch the inventory mode",
				Subcommands: []*cli.Command{
					{Name: "get", Usage: "print the current mode", Action: modeGet},
					{Name: "set", Usage: "switch to dev or prod", ArgsUsage: "dev|prod", Action: modeSet},
				},
			},
			{
				Name:  "seed",
				Usage: "load a demo scenario (dev mode only)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "scenario", Value: api.ScenarioStarterCatalog, Usage: "scenario id"},
				},
				Action: seed,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// =============================================================================
// WIRING
// =============================================================================

type application struct {
	cfg       *config.Config
	log       zerolog.Logger
	store     *sqlite.Store
	inventory *inventory.Service
	orders    *orders.Service
	handler   *api.Handler
}

func bootstrap(c *cli.Context) (*application, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.DBPath = db
	}
	logger := newLogger(cfg)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	audit := core.NewAuditRecorder(store, logger)
	inv := inventory.NewService(store.Inventory(), inventory.Options{
		DefaultMode:   cfg.Mode(),
		AllowNegative: cfg.AllowNegativeStock,
		Audit:         audit,
		Logger:        logger,
	})
	ord := orders.NewService(store.Orders(), orders.Options{
		NumberAttempts: cfg.OrderNumberAttempts,
		Audit:          audit,
		Logger:         logger,
	})

	return &application{
		cfg:       cfg,
		log:       logger,
		store:     store,
		inventory: inv,
		orders:    ord,
		handler:   api.NewHandler(store, inv, ord, audit, logger),
	}, nil
}

func (a *application) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("failed to close database")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.LogFormat == "json" {
		logger = zerolog.New(os.Stderr)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Str("service", "tailorshop").Logger()
}

func actor(c *cli.Context) core.ActorID {
	return core.ActorID(c.String("actor"))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// COMMANDS
// =============================================================================

func serve(c *cli.Context) error {
	app, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer app.Close()

	addr := app.cfg.HTTPAddr
	if a := c.String("addr"); a != "" {
		addr = a
	}

	mode, err := app.inventory.Mode(c.Context)
	if err != nil {
		return err
	}

	scheduler := api.NewStockAuditScheduler(app.inventory, app.cfg.StockAuditInterval, app.log)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(app.handler, app.cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		app.log.Info().
			Str("addr", addr).
			Str("db", app.cfg.DBPath).
			Str("mode", string(mode)).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	app.log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	app.log.Info().Msg("server stopped")
	return nil
}

func reconcile(c *cli.Context) error {
	app, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer app.Close()

	report, err := app.inventory.ReconcileStock(c.Context)
	if err != nil {
		return err
	}
	if err := printJSON(report); err != nil {
		return err
	}
	if cerr := report.Err(); cerr != nil {
		return cli.Exit(cerr.Error(), 2)
	}
	return nil
}

func rebuild(c *cli.Context) error {
	app, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer app.Close()

	n, err := app.inventory.RebuildStock(c.Context, actor(c))
	if err != nil {
		return err
	}
	fmt.Printf("rebuilt stock levels for %d products\n", n)
	return nil
}

func modeGet(c *cli.Context) error {
	app, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer app.Close()

	mode, err := app.inventory.Mode(c.Context)
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", mode, mode.Guarantee())
	return nil
}

func modeSet(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: mode set dev|prod", 1)
	}
	mode, err := inventory.ParseMode(c.Args().First())
	if err != nil {
		return err
	}

	app, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.inventory.SetMode(c.Context, mode, actor(c)); err != nil {
		return err
	}
	fmt.Printf("inventory mode set to %s\n", mode)
	return nil
}

func seed(c *cli.Context) error {
	app, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer app.Close()

	result, err := app.handler.Seed(c.Context, c.String("scenario"), actor(c))
	if err != nil {
		return err
	}
	return printJSON(result)
}
