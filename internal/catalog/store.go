// Package catalog persists what survives a restart: known model sources,
// API keys and admin users. Loaded models themselves stay in memory only.
package catalog

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS model_sources (
  model_id TEXT PRIMARY KEY,
  path TEXT NOT NULL DEFAULT '',
  preload INTEGER NOT NULL DEFAULT 0,
  added_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS api_keys (
  key_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  prefix TEXT NOT NULL,
  hashed_key TEXT NOT NULL,
  created_at DATETIME NOT NULL,
  last_used_at DATETIME
);

CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  password_hash TEXT NOT NULL
);
`)
	return err
}

// ModelSource names where a model comes from: a built-in id when Path is
// empty, otherwise a JSON document on disk. Preload marks sources the
// preloader warms up at start.
type ModelSource struct {
	ModelID string    `json:"model_id"`
	Path    string    `json:"path,omitempty"`
	Preload bool      `json:"preload"`
	AddedAt time.Time `json:"added_at"`
}

func (s *Store) UpsertSource(ctx context.Context, src ModelSource) error {
	if src.AddedAt.IsZero() {
		src.AddedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO model_sources(model_id, path, preload, added_at)
VALUES(?, ?, ?, ?)
ON CONFLICT(model_id) DO UPDATE SET
  path=excluded.path,
  preload=excluded.preload;
`, src.ModelID, src.Path, boolToInt(src.Preload), src.AddedAt)
	return err
}

func (s *Store) GetSource(ctx context.Context, modelID string) (ModelSource, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT model_id, path, preload, added_at FROM model_sources WHERE model_id=?;
`, modelID)
	var src ModelSource
	var preload int
	err := row.Scan(&src.ModelID, &src.Path, &preload, &src.AddedAt)
	if err == sql.ErrNoRows {
		return ModelSource{}, false, nil
	}
	if err != nil {
		return ModelSource{}, false, err
	}
	src.Preload = preload != 0
	return src, true, nil
}

func (s *Store) ListSources(ctx context.Context) ([]ModelSource, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT model_id, path, preload, added_at FROM model_sources ORDER BY model_id ASC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ModelSource
	for rows.Next() {
		var src ModelSource
		var preload int
		if err := rows.Scan(&src.ModelID, &src.Path, &preload, &src.AddedAt); err != nil {
			return nil, err
		}
		src.Preload = preload != 0
		out = append(out, src)
	}
	return out, rows.Err()
}

func (s *Store) DeleteSource(ctx context.Context, modelID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM model_sources WHERE model_id=?;", modelID)
	return err
}

type APIKeyRecord struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"`
	HashedKey  string     `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

func (s *Store) CreateAPIKey(ctx context.Context, record APIKeyRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO api_keys(key_id, name, prefix, hashed_key, created_at)
VALUES(?, ?, ?, ?, ?);
`, record.ID, record.Name, record.Prefix, record.HashedKey, record.CreatedAt)
	return err
}

func (s *Store) ListAPIKeys(ctx context.Context) ([]APIKeyRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT key_id, name, prefix, hashed_key, created_at, last_used_at
FROM api_keys ORDER BY created_at DESC;
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []APIKeyRecord
	for rows.Next() {
		var r APIKeyRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.Prefix, &r.HashedKey, &r.CreatedAt, &r.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAPIKey(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE key_id=?;", id)
	return err
}

func (s *Store) UpdateAPIKeyLastUsed(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE api_keys SET last_used_at=? WHERE key_id=?;", time.Now(), id)
	return err
}

type UserRecord struct {
	Username     string
	PasswordHash string
}

func (s *Store) CreateUser(ctx context.Context, u UserRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users(username, password_hash) VALUES(?, ?);
`, u.Username, u.PasswordHash)
	return err
}

func (s *Store) GetUser(ctx context.Context, username string) (UserRecord, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT username, password_hash FROM users WHERE username=?;", username)
	var u UserRecord
	err := row.Scan(&u.Username, &u.PasswordHash)
	if err == sql.ErrNoRows {
		return UserRecord{}, false, nil
	}
	if err != nil {
		return UserRecord{}, false, err
	}
	return u, true, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash=? WHERE username=?;", passwordHash, username)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
