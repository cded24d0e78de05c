package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"autocontent/internal/template"
)

// inlineLimit is the largest payload kept inline in the row. Bigger
// content (generated HTML documents, embedded data URIs) goes to the
// object store with the row keeping the key.
const inlineLimit = 32 << 10

// PGStore persists artifact rows in Postgres, optionally offloading
// large payloads to an ObjectStore.
type PGStore struct {
	db      *sql.DB
	objects *ObjectStore

	schemaOnce sync.Once
	schemaErr  error
}

// NewPGStore opens the database. objects may be nil, in which case all
// content stays inline.
func NewPGStore(dsn string, objects *ObjectStore) (*PGStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PGStore{db: db, objects: objects}, nil
}

func (s *PGStore) Close() error { return s.db.Close() }

func (s *PGStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS artifacts (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL,
    template_id     TEXT NOT NULL,
    title           TEXT NOT NULL DEFAULT '',
    kind            TEXT NOT NULL,
    content         TEXT NOT NULL DEFAULT '',
    content_key     TEXT NOT NULL DEFAULT '',
    preview_snippet TEXT NOT NULL DEFAULT '',
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS artifacts_user_created ON artifacts (user_id, created_at DESC)`)
	})
	return s.schemaErr
}

func (s *PGStore) Insert(ctx context.Context, a *Artifact) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	if a.PreviewSnippet == "" {
		a.PreviewSnippet = Preview(a.Kind, a.Content)
	}
	inline, key, err := s.placeContent(ctx, a.UserID, a.ID, a.Content)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO artifacts (id, user_id, template_id, title, kind, content, content_key, preview_snippet, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.UserID, a.TemplateID, a.Title, string(a.Kind), inline, key, a.PreviewSnippet, a.CreatedAt,
	)
	return err
}

func (s *PGStore) UpdateContent(ctx context.Context, id, content string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	var userID, oldKey string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, content_key FROM artifacts WHERE id = $1`, id,
	).Scan(&userID, &oldKey)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	inline, key, err := s.placeContent(ctx, userID, id, content)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE artifacts SET content = $2, content_key = $3 WHERE id = $1`,
		id, inline, key,
	); err != nil {
		return err
	}
	if oldKey != "" && oldKey != key && s.objects != nil {
		if derr := s.objects.Delete(ctx, oldKey); derr != nil {
			log.Printf("artifact: drop stale object %s: %v", oldKey, derr)
		}
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, id string) (Artifact, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Artifact{}, err
	}
	a, key, err := s.scanOne(s.db.QueryRowContext(ctx,
		`SELECT id, user_id, template_id, title, kind, content, content_key, preview_snippet, created_at
		 FROM artifacts WHERE id = $1`, id))
	if err != nil {
		return Artifact{}, err
	}
	if key != "" {
		if s.objects == nil {
			return Artifact{}, fmt.Errorf("artifact %s: content offloaded but no object store configured", id)
		}
		data, err := s.objects.Get(ctx, key)
		if err != nil {
			return Artifact{}, err
		}
		a.Content = string(data)
	}
	return a, nil
}

func (s *PGStore) ListByUser(ctx context.Context, userID string) ([]Artifact, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, template_id, title, kind, content, content_key, preview_snippet, created_at
FROM artifacts WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Artifact
	for rows.Next() {
		var a Artifact
		var kind, key string
		if err := rows.Scan(&a.ID, &a.UserID, &a.TemplateID, &a.Title, &kind, &a.Content, &key, &a.PreviewSnippet, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = template.OutputType(kind)
		// Listings only need metadata; offloaded content is resolved
		// by Get.
		if key != "" {
			a.Content = ""
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	var key string
	err := s.db.QueryRowContext(ctx, `DELETE FROM artifacts WHERE id = $1 RETURNING content_key`, id).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if key != "" && s.objects != nil {
		if derr := s.objects.Delete(ctx, key); derr != nil {
			log.Printf("artifact: drop object %s: %v", key, derr)
		}
	}
	return nil
}

func (s *PGStore) placeContent(ctx context.Context, userID, id, content string) (inline, key string, err error) {
	if s.objects == nil || len(content) <= inlineLimit {
		return content, "", nil
	}
	key = fmt.Sprintf("%s/%s", userID, id)
	if err := s.objects.Put(ctx, key, []byte(content)); err != nil {
		return "", "", fmt.Errorf("offload content: %w", err)
	}
	return "", key, nil
}

func (s *PGStore) scanOne(row *sql.Row) (Artifact, string, error) {
	var a Artifact
	var kind, key string
	err := row.Scan(&a.ID, &a.UserID, &a.TemplateID, &a.Title, &kind, &a.Content, &key, &a.PreviewSnippet, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, "", ErrNotFound
	}
	if err != nil {
		return Artifact{}, "", err
	}
	a.Kind = template.OutputType(kind)
	return a, key, nil
}
