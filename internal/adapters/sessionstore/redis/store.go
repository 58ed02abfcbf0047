// Package redis guarda la sesión en redis bajo session:user / session:token.
// Save y Clear van en una transacción MULTI/EXEC.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-vaccine-tracker/internal/session"

	goredis "github.com/redis/go-redis/v9"
)

type Options struct {
	// Prefix separa sesiones de distintos perfiles en el mismo redis ("petctl:").
	Prefix string
	// TTL 0 = sin vencimiento.
	TTL time.Duration
}

type Store struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ session.Storage = (*Store)(nil)

func New(client goredis.UniversalClient, opts Options) *Store {
	return &Store{client: client, prefix: opts.Prefix, ttl: opts.TTL}
}

// NewFromURL parsea redis://... y verifica la conexión.
func NewFromURL(ctx context.Context, rawURL string, opts Options) (*Store, error) {
	o, err := goredis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(o)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return New(client, opts), nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) userKey() string  { return s.prefix + session.KeyUser }
func (s *Store) tokenKey() string { return s.prefix + session.KeyToken }

type storedUser struct {
	session.Identity
	SavedAt time.Time `json:"saved_at"`
}

func (s *Store) Load(ctx context.Context) (session.Record, bool, error) {
	vals, err := s.client.MGet(ctx, s.userKey(), s.tokenKey()).Result()
	if err != nil {
		return session.Record{}, false, fmt.Errorf("redis mget session: %w", err)
	}

	rawUser, ok := vals[0].(string)
	if !ok || rawUser == "" {
		return session.Record{}, false, nil
	}

	var u storedUser
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return session.Record{}, false, fmt.Errorf("decode session user: %w", err)
	}

	token, _ := vals[1].(string)
	return session.Record{User: u.Identity, Token: token, SavedAt: u.SavedAt}, true, nil
}

func (s *Store) Save(ctx context.Context, rec session.Record) error {
	raw, err := json.Marshal(storedUser{Identity: rec.User, SavedAt: rec.SavedAt})
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, s.userKey(), raw, s.ttl)
		if rec.Token == "" {
			p.Del(ctx, s.tokenKey())
		} else {
			p.Set(ctx, s.tokenKey(), rec.Token, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	err := s.client.Del(ctx, s.userKey(), s.tokenKey()).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}
