package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HammerMeetNail/fanbase/internal/models"
)

// PGConn is the subset of *pgxpool.Pool used by PostgresTokenStore.
type PGConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresTokenStore keeps one row per profile in client_sessions.
type PostgresTokenStore struct {
	db      PGConn
	profile string
}

func NewPostgresTokenStore(db PGConn, profile string) *PostgresTokenStore {
	return &PostgresTokenStore{db: db, profile: profile}
}

func (p *PostgresTokenStore) Load(ctx context.Context) (*models.StoredToken, error) {
	var token models.StoredToken
	var expiresAt *time.Time
	err := p.db.QueryRow(ctx,
		`SELECT token, expires_at, updated_at FROM client_sessions WHERE profile = $1`,
		p.profile,
	).Scan(&token.Token, &expiresAt, &token.SavedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoStoredToken
	}
	if err != nil {
		return nil, fmt.Errorf("reading session row: %w", err)
	}
	token.ExpiresAt = expiresAt
	return &token, nil
}

func (p *PostgresTokenStore) Save(ctx context.Context, token models.StoredToken) error {
	_, err := p.db.Exec(ctx,
		`INSERT INTO client_sessions (profile, token, expires_at, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (profile) DO UPDATE
		 SET token = EXCLUDED.token, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`,
		p.profile, token.Token, token.ExpiresAt, token.SavedAt,
	)
	if err != nil {
		return fmt.Errorf("writing session row: %w", err)
	}
	return nil
}

func (p *PostgresTokenStore) Clear(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, `DELETE FROM client_sessions WHERE profile = $1`, p.profile); err != nil {
		return fmt.Errorf("deleting session row: %w", err)
	}
	return nil
}
