// Command casa is a single-user terminal front end over the embedded SQLite
// store. It signs in a fixed local owner, loads a session and runs one
// command against it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dafibh/casa/casa-backend/internal/repository/sqlite"
	"github.com/dafibh/casa/casa-backend/internal/service"
	"github.com/dafibh/casa/casa-backend/internal/session"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// localSubject identifies the owner of every row written by the CLI
const localSubject = "local|cli"

func main() {
	_ = godotenv.Load()

	var (
		dbPath   string
		logLevel string
	)
	flag.StringVar(&dbPath, "db", envOr("SQLITE_PATH", "casa.db"), "Path to the SQLite database")
	flag.StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		level = zerolog.WarnLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("Failed to open database")
	}
	defer db.Close()

	settingsService := service.NewSettingsService(
		sqlite.NewSettingsRepository(db),
		sqlite.NewPersonRepository(db),
		sqlite.NewCategoryRepository(db),
	)
	authService := service.NewAuthService(sqlite.NewUserRepository(db), settingsService, nil)
	people := sqlite.NewPersonRepository(db)

	ownerID, err := authService.EnsureOwner(ctx, localSubject, "")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to provision local owner")
	}

	sess := session.New(ownerID, session.Services{
		Expenses:    service.NewExpenseService(sqlite.NewExpenseRepository(db), people),
		Receivables: service.NewReceivableService(sqlite.NewReceivableRepository(db), people),
		Settings:    settingsService,
	})
	if err := sess.Load(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to load data")
	}

	log.Debug().Str("command", args[0]).Str("owner_id", ownerID.String()).Msg("Running command")

	if err := run(ctx, sess, args, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "casa %s: %v\n", args[0], err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: casa [-db path] [-log-level level] <command> [options]

Commands:
  summary          [-month YYYY-MM]          Dashboard for a month
  expenses         [-month YYYY-MM]          List expenses
  receivables      [-month YYYY-MM]          List receivables
  add-expense      -desc -amount -category [-kind] [-due] [-split] [-essential] [-installment n/m]
  pay              [-by person-id] <id>      Mark an expense paid
  delete-expense   <id>
  add-receivable   -desc -amount -category [-due] [-split]
  receive          [-by person-id] <id>      Mark a receivable received
  delete-receivable <id>
  settings                                   Show income, people and categories
  income           <amount>                  Set the monthly income
  add-person       <name>
  remove-person    <id>
  add-category     -name -kind expense|income
  remove-category  <id>
`)
}
