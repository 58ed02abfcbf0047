package jwtauth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrNotConfigured = errors.New("jwt signing key not configured")
)

const (
	DefaultTTL    = 24 * time.Hour
	DefaultIssuer = "pet-vaccine-tracker"
)

// Config del emisor/verificador. SigningKey normalmente viene de JWT_SIGNING_KEY.
type Config struct {
	SigningKey string
	Issuer     string
	TTL        time.Duration
}

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service emite tokens HS256 en el login y los verifica en AuthContext.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func New(cfg Config) *Service {
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = DefaultIssuer
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		key:    []byte(cfg.SigningKey),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *Service) IsConfigured() bool {
	return s != nil && len(s.key) > 0
}

func (s *Service) Issue(userID, email string) (string, error) {
	if !s.IsConfigured() {
		return "", ErrNotConfigured
	}
	now := s.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: strings.TrimSpace(email),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strings.TrimSpace(userID),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	})
	return tok.SignedString(s.key)
}
