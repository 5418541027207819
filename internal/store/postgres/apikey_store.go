package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mvolkov/spreadbot/internal/domain"
)

// APIKeyStore implements domain.CredentialStore using PostgreSQL.
type APIKeyStore struct {
	pool *pgxpool.Pool
}

var _ domain.CredentialStore = (*APIKeyStore)(nil)

// NewAPIKeyStore creates a new APIKeyStore backed by the given pool.
func NewAPIKeyStore(pool *pgxpool.Pool) *APIKeyStore {
	return &APIKeyStore{pool: pool}
}

// Credentials returns the API credentials a user stored for an exchange,
// or domain.ErrNotFound if none exist.
func (s *APIKeyStore) Credentials(ctx context.Context, userID int64, exchange string) (domain.Credentials, error) {
	var creds domain.Credentials
	err := s.pool.QueryRow(ctx,
		`SELECT api_key, api_secret, COALESCE(passphrase, '')
		 FROM exchange_api_keys
		 WHERE user_id = $1 AND exchange = $2`,
		userID, exchange,
	).Scan(&creds.Key, &creds.Secret, &creds.Passphrase)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Credentials{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Credentials{}, fmt.Errorf("postgres: credentials for user %d on %s: %w", userID, exchange, err)
	}
	return creds, nil
}

// Upsert stores or replaces a user's API credentials for an exchange.
func (s *APIKeyStore) Upsert(ctx context.Context, userID int64, exchange string, creds domain.Credentials) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exchange_api_keys (user_id, exchange, api_key, api_secret, passphrase)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, exchange) DO UPDATE SET
			api_key = EXCLUDED.api_key,
			api_secret = EXCLUDED.api_secret,
			passphrase = EXCLUDED.passphrase`,
		userID, exchange, creds.Key, creds.Secret, creds.Passphrase,
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert credentials for user %d on %s: %w", userID, exchange, err)
	}
	return nil
}
