package pets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pet-vaccine-tracker/internal/domain/validation"
	"pet-vaccine-tracker/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("pet not found")
)

// DependentCleaner borra lo que cuelga de una mascota (vacunas).
// Evita que pets importe vaccines.
type DependentCleaner interface {
	DeleteByPet(ctx context.Context, petID string) error
}

type Service struct {
	repo     Repository
	now      func() time.Time
	log      logger.Logger
	cleaners []DependentCleaner
}

func NewService(repo Repository, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		now:  time.Now,
		log:  log.With(map[string]any{"module": "pets"}),
	}
}

// OnDelete registra cascadas que corren antes de borrar la mascota.
func (s *Service) OnDelete(c DependentCleaner) {
	s.cleaners = append(s.cleaners, c)
}

type CreateInput struct {
	Name     string
	Species  string
	Sex      string
	Weight   *float64
	PhotoURL string
}

func (s *Service) Create(ctx context.Context, ownerUserID string, in CreateInput) (Pet, error) {
	if strings.TrimSpace(ownerUserID) == "" {
		return Pet{}, ErrInvalidInput
	}
	name, err := validation.RequireText("name", in.Name)
	if err != nil {
		return Pet{}, err
	}
	species, err := validation.RequireText("species", in.Species)
	if err != nil {
		return Pet{}, err
	}
	if err := validation.CheckWeight("weight", in.Weight); err != nil {
		return Pet{}, err
	}

	now := s.now()
	p := Pet{
		ID:          uuid.NewString(),
		OwnerUserID: strings.TrimSpace(ownerUserID),
		Name:        name,
		Species:     species,
		Sex:         strings.TrimSpace(in.Sex),
		Weight:      in.Weight,
		PhotoURL:    strings.TrimSpace(in.PhotoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return Pet{}, fmt.Errorf("create pet: %w", err)
	}
	s.log.Info("pet created", map[string]any{"pet_id": p.ID, "owner_user_id": p.OwnerUserID})
	return p, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Pet{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

// OwnerOf expone el ownerUserID de una mascota sin exponer el Service completo.
func (s *Service) OwnerOf(ctx context.Context, petID string) (string, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return "", err
	}
	return p.OwnerUserID, nil
}

// UpdateInput: nil = no tocar. ClearWeight distingue "weight": null de "no enviado".
type UpdateInput struct {
	Name        *string
	Species     *string
	Sex         *string
	Weight      *float64
	ClearWeight bool
	PhotoURL    *string
}

func (s *Service) Update(ctx context.Context, petID string, in UpdateInput) (Pet, error) {
	p, err := s.GetByID(ctx, petID)
	if err != nil {
		return Pet{}, err
	}

	if in.Name != nil {
		v, err := validation.RequireText("name", *in.Name)
		if err != nil {
			return Pet{}, err
		}
		p.Name = v
	}
	if in.Species != nil {
		v, err := validation.RequireText("species", *in.Species)
		if err != nil {
			return Pet{}, err
		}
		p.Species = v
	}
	if in.Sex != nil {
		p.Sex = strings.TrimSpace(*in.Sex)
	}
	switch {
	case in.ClearWeight:
		p.Weight = nil
	case in.Weight != nil:
		if err := validation.CheckWeight("weight", in.Weight); err != nil {
			return Pet{}, err
		}
		w := *in.Weight
		p.Weight = &w
	}
	if in.PhotoURL != nil {
		p.PhotoURL = strings.TrimSpace(*in.PhotoURL)
	}
	p.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, p); err != nil {
		return Pet{}, fmt.Errorf("update pet: %w", err)
	}
	return p, nil
}

// Delete borra la mascota y, antes, sus dependientes.
func (s *Service) Delete(ctx context.Context, petID string) error {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return ErrNotFound
	}
	if _, err := s.repo.GetByID(ctx, petID); err != nil {
		return err
	}
	for _, c := range s.cleaners {
		if err := c.DeleteByPet(ctx, petID); err != nil {
			return fmt.Errorf("delete pet dependents: %w", err)
		}
	}
	if err := s.repo.Delete(ctx, petID); err != nil {
		return fmt.Errorf("delete pet: %w", err)
	}
	s.log.Info("pet deleted", map[string]any{"pet_id": petID})
	return nil
}

// DeleteByOwner se usa como cascada al borrar un usuario.
func (s *Service) DeleteByOwner(ctx context.Context, ownerUserID string) error {
	items, err := s.repo.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return err
	}
	for _, p := range items {
		if err := s.Delete(ctx, p.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}
