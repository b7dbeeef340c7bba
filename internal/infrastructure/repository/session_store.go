package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domain "github.com/habitforge/bulk-user-import/internal/domain/imports"
)

// SessionStore keeps one snapshot row per session key. The snapshot is
// written whole on every checkpoint, so a single upsert is the entire
// durability story.
type SessionStore struct {
	pool *pgxpool.Pool
}

func NewSessionStore(pool *pgxpool.Pool) *SessionStore {
	return &SessionStore{pool: pool}
}

func (s *SessionStore) Load(ctx context.Context, key string) (*domain.SessionSnapshot, error) {
	var payload []byte

	err := s.pool.QueryRow(ctx,
		"SELECT snapshot FROM import_sessions WHERE session_key = $1", key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session snapshot: %w", err)
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		// A snapshot that no longer deserializes cannot be resumed; drop it
		// so the admin starts from idle instead of seeing an error.
		log.Printf("discarding malformed snapshot for session %s: %v", key, err)
		if clearErr := s.Clear(ctx, key); clearErr != nil {
			return nil, clearErr
		}
		return nil, nil
	}

	return &snapshot, nil
}

func (s *SessionStore) Save(ctx context.Context, key string, snapshot domain.SessionSnapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode session snapshot: %w", err)
	}

	if _, err := s.pool.Exec(ctx, `
INSERT INTO import_sessions (session_key, snapshot, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (session_key) DO UPDATE
  SET snapshot = EXCLUDED.snapshot,
      updated_at = NOW()
`, key, payload); err != nil {
		return fmt.Errorf("save session snapshot: %w", err)
	}

	return nil
}

func (s *SessionStore) Clear(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx,
		"DELETE FROM import_sessions WHERE session_key = $1", key,
	); err != nil {
		return fmt.Errorf("clear session snapshot: %w", err)
	}
	return nil
}
