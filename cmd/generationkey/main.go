// Command generationkey manages the generation service credentials kept in
// integration_tokens, so cmd/api can start without GENERATION_API_KEY.
//
//	generationkey -key sk-... [-base-url http://stubgen:8090]
//	generationkey -show
//	generationkey -revoke
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"chefconsole/internal/infra"
	"chefconsole/internal/infra/credentials"
)

func main() {
	_ = godotenv.Load()

	var (
		keyFlag    string
		baseFlag   string
		showFlag   bool
		revokeFlag bool
	)
	flag.StringVar(&keyFlag, "key", "", "generation service API key (falls back to GENERATION_API_KEY)")
	flag.StringVar(&baseFlag, "base-url", "", "optional override for GENERATION_BASE_URL")
	flag.BoolVar(&showFlag, "show", false, "print the stored credentials with the key masked")
	flag.BoolVar(&revokeFlag, "revoke", false, "revoke the stored credentials")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitf("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitf("failed to create pool: %v", err)
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "generationkey").Logger()
	store := credentials.NewStore(infra.NewSQLRunner(pool, logger))

	switch {
	case revokeFlag:
		revoked, err := store.RevokeGeneration(ctx)
		if err != nil {
			exitf("%v", err)
		}
		if !revoked {
			fmt.Println("no active generation credentials to revoke")
			return
		}
		fmt.Println("generation credentials revoked")
	case showFlag:
		creds, ok, err := store.Generation(ctx)
		if err != nil {
			exitf("%v", err)
		}
		if !ok {
			fmt.Println("no generation credentials stored")
			return
		}
		base := creds.BaseURL
		if base == "" {
			base = "(GENERATION_BASE_URL)"
		}
		fmt.Printf("key %s, base url %s\n", mask(creds.APIKey), base)
	default:
		key := strings.TrimSpace(keyFlag)
		if key == "" {
			key = strings.TrimSpace(os.Getenv("GENERATION_API_KEY"))
		}
		if key == "" {
			exitf("generation API key is required via -key or GENERATION_API_KEY")
		}
		if err := store.SaveGeneration(ctx, credentials.Generation{APIKey: key, BaseURL: baseFlag}); err != nil {
			exitf("%v", err)
		}
		fmt.Println("generation credentials stored")
	}
}

func mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

func exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
