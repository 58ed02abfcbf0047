// Package file guarda la sesión en un archivo JSON local. Cada Save escribe
// un archivo temporal y lo renombra, así nunca queda identidad sin token.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pet-vaccine-tracker/internal/session"
)

const DefaultFileName = "session.json"

type Store struct {
	path string
	mu   sync.Mutex
}

var _ session.Storage = (*Store)(nil)

// New usa dir/session.json. El directorio se crea en el primer Save.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, DefaultFileName)}
}

func (s *Store) Path() string { return s.path }

// En disco las claves son las mismas que en redis.
type document struct {
	User    *session.Identity `json:"session:user"`
	Token   string            `json:"session:token,omitempty"`
	SavedAt time.Time         `json:"session:saved_at"`
}

func (s *Store) Load(ctx context.Context) (session.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return session.Record{}, false, nil
	}
	if err != nil {
		return session.Record{}, false, fmt.Errorf("read session file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return session.Record{}, false, fmt.Errorf("decode session file: %w", err)
	}
	if doc.User == nil {
		return session.Record{}, false, nil
	}
	return session.Record{User: *doc.User, Token: doc.Token, SavedAt: doc.SavedAt}, true, nil
}

func (s *Store) Save(ctx context.Context, rec session.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := rec.User
	raw, err := json.MarshalIndent(document{User: &user, Token: rec.Token, SavedAt: rec.SavedAt}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Si el rename no ocurrió, no dejamos basura.
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close session file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod session file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}

// Clear es idempotente.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
