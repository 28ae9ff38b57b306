// Package credentials keeps the generation service credentials in the CRUD
// database so operators can rotate them without redeploying the console.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"chefconsole/internal/infra"
	"chefconsole/internal/sqlinline"
)

// ProviderGeneration is the integration_tokens provider for the meal generation service.
const ProviderGeneration = "meal_generation"

// ErrMissingKey is returned when saving credentials without an API key.
var ErrMissingKey = errors.New("credentials: api key is required")

// Generation holds what the console needs to reach the generation service.
// An empty BaseURL means the configured GENERATION_BASE_URL applies.
type Generation struct {
	APIKey  string
	BaseURL string
}

// Store reads and writes credentials through the marked SQL runner.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Generation returns the active credentials. ok is false when none are stored
// or the last one was revoked.
func (s *Store) Generation(ctx context.Context) (creds Generation, ok bool, err error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationCredential, ProviderGeneration)
	if err := row.Scan(&creds.APIKey, &creds.BaseURL); err != nil {
		if infra.IsNoRows(err) {
			return Generation{}, false, nil
		}
		return Generation{}, false, fmt.Errorf("credentials: load %s: %w", ProviderGeneration, err)
	}
	creds.APIKey = strings.TrimSpace(creds.APIKey)
	creds.BaseURL = strings.TrimRight(strings.TrimSpace(creds.BaseURL), "/")
	return creds, creds.APIKey != "", nil
}

// SaveGeneration stores or replaces the credentials and clears any revocation.
func (s *Store) SaveGeneration(ctx context.Context, creds Generation) error {
	key := strings.TrimSpace(creds.APIKey)
	if key == "" {
		return ErrMissingKey
	}
	base := strings.TrimRight(strings.TrimSpace(creds.BaseURL), "/")
	if base != "" {
		if u, err := url.Parse(base); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("credentials: invalid base url %q", creds.BaseURL)
		}
	}
	if _, err := s.sql.Exec(ctx, sqlinline.QUpsertIntegrationCredential, ProviderGeneration, key, base); err != nil {
		return fmt.Errorf("credentials: save %s: %w", ProviderGeneration, err)
	}
	return nil
}

// RevokeGeneration marks the stored credentials unusable. It reports whether
// an active row was revoked.
func (s *Store) RevokeGeneration(ctx context.Context) (bool, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QRevokeIntegrationCredential, ProviderGeneration)
	if err != nil {
		return false, fmt.Errorf("credentials: revoke %s: %w", ProviderGeneration, err)
	}
	return tag.RowsAffected() > 0, nil
}
