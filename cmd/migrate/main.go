package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"blooddonation/internal/db"
	"blooddonation/internal/infra"
)

func main() {
	var (
		dryRun  bool
		timeout time.Duration
	)
	flag.BoolVar(&dryRun, "dry-run", false, "list embedded migrations without applying them")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	flag.Parse()

	_ = godotenv.Load()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	logger := infra.NewLogger(os.Getenv("APP_ENV")).With().Str("cmd", "migrate").Logger()

	conn, err := sql.Open("postgres", dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("open database: %w", err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		exitWithError(fmt.Errorf("ping database: %w", err))
	}

	migrations, err := db.Migrations()
	if err != nil {
		exitWithError(err)
	}
	if dryRun {
		for _, m := range migrations {
			fmt.Println(m.Version)
		}
		return
	}

	applied, err := db.Migrate(ctx, conn, migrations, logger)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			logger.Error().Str("code", string(pqErr.Code)).Str("detail", pqErr.Detail).Msg("postgres rejected migration")
		}
		exitWithError(err)
	}
	if len(applied) == 0 {
		logger.Info().Msg("schema up to date")
		return
	}
	logger.Info().Strs("applied", applied).Msg("migrations complete")
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
	os.Exit(1)
}
