package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-vaccine-tracker/internal/domain/validation"
	"pet-vaccine-tracker/internal/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrCPFTaken           = errors.New("cpf already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// DependentCleaner borra lo que cuelga de un usuario (mascotas y sus vacunas).
type DependentCleaner interface {
	DeleteByOwner(ctx context.Context, ownerUserID string) error
}

type Service struct {
	repo     Repository
	now      func() time.Time
	log      logger.Logger
	hashCost int
	cleaners []DependentCleaner
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo:     repo,
		now:      time.Now,
		log:      log.With(map[string]any{"module": "users"}),
		hashCost: bcrypt.DefaultCost,
	}
}

// WithHashCost permite bajar el costo de bcrypt en tests.
func (s *Service) WithHashCost(cost int) *Service {
	s.hashCost = cost
	return s
}

func (s *Service) OnDelete(c DependentCleaner) {
	s.cleaners = append(s.cleaners, c)
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	CPF      string
	Password string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	name, err := validation.RequireText("name", in.Name)
	if err != nil {
		return User{}, err
	}
	email, err := validation.RequireText("email", in.Email)
	if err != nil {
		return User{}, err
	}
	email = normalizeEmail(email)
	if in.Password == "" {
		return User{}, validation.Missing("password")
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return User{}, ErrEmailTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	cpf := strings.TrimSpace(in.CPF)
	if cpf != "" {
		if _, err := s.repo.GetByCPF(ctx, cpf); err == nil {
			return User{}, ErrCPFTaken
		} else if !errors.Is(err, ErrNotFound) {
			return User{}, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, &validation.Error{Kind: validation.KindInvalidFormat, Field: "password"}
		}
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u := User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		CPF:          cpf,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user registered", map[string]any{"user_id": u.ID})
	return u, nil
}

// Authenticate distingue cuenta inexistente (ErrNotFound) de clave incorrecta
// (ErrInvalidCredentials); el gateway los expone como 404 y 401.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		s.log.Warn("login rejected", map[string]any{"user_id": u.ID})
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ProfilePatch: nil = no tocar.
type ProfilePatch struct {
	Name     *string
	Email    *string
	Phone    *string
	PhotoURL *string
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.PhotoURL == nil
}

func (s *Service) UpdateProfile(ctx context.Context, id string, patch ProfilePatch) (User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if patch.Name != nil {
		v, err := validation.RequireText("name", *patch.Name)
		if err != nil {
			return User{}, err
		}
		u.Name = v
	}
	if patch.Email != nil {
		v, err := validation.RequireText("email", *patch.Email)
		if err != nil {
			return User{}, err
		}
		v = normalizeEmail(v)
		if v != u.Email {
			other, err := s.repo.GetByEmail(ctx, v)
			if err == nil && other.ID != u.ID {
				return User{}, ErrEmailTaken
			}
			if err != nil && !errors.Is(err, ErrNotFound) {
				return User{}, err
			}
		}
		u.Email = v
	}
	if patch.Phone != nil {
		u.Phone = strings.TrimSpace(*patch.Phone)
	}
	if patch.PhotoURL != nil {
		u.PhotoURL = strings.TrimSpace(*patch.PhotoURL)
	}
	u.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, u); err != nil {
		return User{}, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Delete borra al usuario con cascada a mascotas y vacunas.
func (s *Service) Delete(ctx context.Context, id string) error {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	for _, c := range s.cleaners {
		if err := c.DeleteByOwner(ctx, u.ID); err != nil {
			return fmt.Errorf("delete user dependents: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info("user deleted", map[string]any{"user_id": u.ID})
	return nil
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
