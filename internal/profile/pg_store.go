package profile

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PGStore keeps profile records in Postgres via the pgx stdlib driver.
type PGStore struct {
	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error
}

// NewPGStore opens the database and verifies connectivity.
func NewPGStore(dsn string) (*PGStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PGStore{db: db}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS profiles (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL DEFAULT '',
    name            TEXT NOT NULL DEFAULT '',
    credits         INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
    plan            TEXT NOT NULL DEFAULT 'free',
    admin           BOOLEAN NOT NULL DEFAULT FALSE,
    last_free_reset TIMESTAMPTZ
)`)
	})
	return s.schemaErr
}

func (s *PGStore) Get(ctx context.Context, id string) (Profile, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Profile{}, err
	}
	var p Profile
	var resetAt sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, credits, plan, admin, last_free_reset FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Email, &p.Name, &p.Credits, &p.Plan, &p.Admin, &resetAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, err
	}
	if resetAt.Valid {
		p.LastFreeReset = resetAt.Time
	}
	return p, nil
}

// Debit performs the subtraction on the server side in one statement,
// so two concurrent generations cannot both observe a stale balance
// and over-spend it.
func (s *PGStore) Debit(ctx context.Context, id string, cost int) (int, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return 0, err
	}
	var remaining int
	err := s.db.QueryRowContext(ctx,
		`UPDATE profiles SET credits = credits - $2 WHERE id = $1 AND credits >= $2 RETURNING credits`,
		id, cost,
	).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing record from an uncovered balance.
		var exists bool
		if qerr := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM profiles WHERE id = $1)`, id,
		).Scan(&exists); qerr != nil {
			return 0, qerr
		}
		if !exists {
			return 0, ErrNotFound
		}
		return 0, ErrInsufficientCredits
	}
	if err != nil {
		return 0, err
	}
	return remaining, nil
}

func (s *PGStore) SetCredits(ctx context.Context, id string, credits int, resetAt time.Time) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET credits = $2, last_free_reset = $3 WHERE id = $1`,
		id, credits, resetAt,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Upsert(ctx context.Context, p Profile) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	var resetAt any
	if !p.LastFreeReset.IsZero() {
		resetAt = p.LastFreeReset
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO profiles (id, email, name, credits, plan, admin, last_free_reset)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
    email = EXCLUDED.email,
    name = EXCLUDED.name,
    credits = EXCLUDED.credits,
    plan = EXCLUDED.plan,
    admin = EXCLUDED.admin,
    last_free_reset = EXCLUDED.last_free_reset`,
		p.ID, p.Email, p.Name, p.Credits, string(p.Plan), p.Admin, resetAt,
	)
	return err
}
