// Command plancheck reports what the console would see for a plan id: whether
// the plan exists and which client name notifications will carry.
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

	"chefconsole/internal/adapter/repo"
	"chefconsole/internal/domain"
	"chefconsole/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var planFlag int64
	flag.Int64Var(&planFlag, "plan", 0, "plan id to look up")
	flag.Parse()

	if planFlag <= 0 {
		exitWithError(errors.New("-plan must be a positive id"))
	}

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

	logger := infra.NewLogger("cli").With().Str("cmd", "plancheck").Logger()
	directory := repo.NewPlanDirectory(infra.NewSQLRunner(pool, logger))

	exists, err := directory.PlanExists(ctx, planFlag)
	if err != nil {
		exitWithError(fmt.Errorf("failed to look up plan: %w", err))
	}
	if !exists {
		fmt.Printf("plan %d not found\n", planFlag)
		os.Exit(2)
	}

	name, err := directory.ClientNameForPlan(ctx, planFlag)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		fmt.Printf("plan %d exists, no client attached\n", planFlag)
	case err != nil:
		exitWithError(fmt.Errorf("failed to load client name: %w", err))
	default:
		fmt.Printf("plan %d exists, client %q\n", planFlag, name)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
