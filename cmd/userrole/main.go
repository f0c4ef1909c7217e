// Command userrole changes a user's role or status directly in the database.
// It is how the first admin is bootstrapped.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"blooddonation/internal/adapter/repo"
	"blooddonation/internal/domain"
	"blooddonation/internal/identity"
	"blooddonation/internal/infra"
)

func main() {
	var (
		uidFlag    string
		roleFlag   string
		statusFlag string
	)
	flag.StringVar(&uidFlag, "uid", "", "external uid of the user to update")
	flag.StringVar(&roleFlag, "role", "", "role to assign (donor, volunteer, admin)")
	flag.StringVar(&statusFlag, "status", "", "status to assign (active, blocked)")
	flag.Parse()

	uid := strings.TrimSpace(uidFlag)
	if uid == "" {
		exitWithError(errors.New("-uid is required"))
	}
	if roleFlag == "" && statusFlag == "" {
		exitWithError(errors.New("at least one of -role or -status is required"))
	}

	_ = godotenv.Load()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userrole").Logger()
	runner := infra.NewSQLRunner(pool, logger, nil)
	users := identity.NewService(repo.NewUserRepository(runner), logger, nil)

	if roleFlag != "" {
		if err := users.SetRole(ctx, uid, domain.UserRole(roleFlag)); err != nil {
			exitWithError(fmt.Errorf("failed to set role: %w", err))
		}
	}
	if statusFlag != "" {
		if err := users.SetStatus(ctx, uid, domain.UserStatus(statusFlag)); err != nil {
			exitWithError(fmt.Errorf("failed to set status: %w", err))
		}
	}

	u, err := users.FindByExternalID(ctx, uid)
	if err != nil {
		exitWithError(fmt.Errorf("failed to reload user: %w", err))
	}
	fmt.Printf("User %s (%s) role=%s status=%s\n", u.ExternalID, u.Email, u.Role, u.Status)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
