package vaccines

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/validation"
	"pet-vaccine-tracker/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("vaccine not found")
)

// PetDirectory es lo mínimo que vaccines necesita de pets.
type PetDirectory interface {
	GetByID(ctx context.Context, id string) (pets.Pet, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error)
}

type Service struct {
	repo Repository
	pets PetDirectory
	now  func() time.Time
	log  logger.Logger
}

func NewService(repo Repository, petDir PetDirectory, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		repo: repo,
		pets: petDir,
		now:  time.Now,
		log:  log.With(map[string]any{"module": "vaccines"}),
	}
}

type CreateInput struct {
	Name         string
	AppliedOn    Date
	NextDoseOn   Date
	Veterinarian string
}

func (s *Service) Create(ctx context.Context, petID string, in CreateInput) (Vaccine, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return Vaccine{}, ErrInvalidInput
	}
	name, err := validation.RequireText("name", in.Name)
	if err != nil {
		return Vaccine{}, err
	}
	if _, err := s.pets.GetByID(ctx, petID); err != nil {
		return Vaccine{}, err
	}

	v := Vaccine{
		ID:           uuid.NewString(),
		PetID:        petID,
		Name:         name,
		AppliedOn:    in.AppliedOn,
		NextDoseOn:   in.NextDoseOn,
		Veterinarian: strings.TrimSpace(in.Veterinarian),
		CreatedAt:    s.now(),
	}

	if w := v.Warnings(); len(w) > 0 {
		s.log.Warn("vaccine dates out of order", map[string]any{"pet_id": petID, "warnings": w})
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return Vaccine{}, fmt.Errorf("create vaccine: %w", err)
	}
	return v, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Vaccine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Vaccine{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPet(ctx context.Context, petID string) ([]Vaccine, error) {
	return s.repo.ListByPet(ctx, petID)
}

// Listed es una vacuna junto al nombre de su mascota (vista del owner).
type Listed struct {
	Vaccine
	PetName string
}

// ListByOwner devuelve las vacunas de todas las mascotas del usuario,
// ordenadas por próximo refuerzo (las sin fecha al final).
func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Listed, error) {
	owned, err := s.pets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return nil, err
	}
	if len(owned) == 0 {
		return []Listed{}, nil
	}

	names := make(map[string]string, len(owned))
	ids := make([]string, 0, len(owned))
	for _, p := range owned {
		names[p.ID] = p.Name
		ids = append(ids, p.ID)
	}

	items, err := s.repo.ListByPets(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Listed, 0, len(items))
	for _, v := range items {
		out = append(out, Listed{Vaccine: v, PetName: names[v.PetID]})
	}
	SortByNextDose(out)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

// DeleteByPet implementa pets.DependentCleaner.
func (s *Service) DeleteByPet(ctx context.Context, petID string) error {
	return s.repo.DeleteByPet(ctx, petID)
}

func SortByNextDose(items []Listed) {
	sort.SliceStable(items, func(i, j int) bool {
		a, okA := items[i].NextDoseOn.Get()
		b, okB := items[j].NextDoseOn.Get()
		switch {
		case okA && okB:
			return a.Before(b)
		case okA != okB:
			return okA
		default:
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
	})
}
