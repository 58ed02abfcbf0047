package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-vaccine-tracker/internal/domain/vaccines"
)

type vaccineRepo struct {
	mu   sync.RWMutex
	byID map[string]vaccines.Vaccine
}

func NewVaccineRepo() vaccines.Repository {
	return &vaccineRepo{
		byID: make(map[string]vaccines.Vaccine),
	}
}

func (r *vaccineRepo) Create(ctx context.Context, v vaccines.Vaccine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(v.ID) == "" {
		return errors.New("vaccine id required")
	}
	if _, exists := r.byID[v.ID]; exists {
		return errors.New("vaccine already exists")
	}
	r.byID[v.ID] = v
	return nil
}

func (r *vaccineRepo) GetByID(ctx context.Context, id string) (vaccines.Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.byID[id]
	if !ok {
		return vaccines.Vaccine{}, vaccines.ErrNotFound
	}
	return v, nil
}

func (r *vaccineRepo) ListByPet(ctx context.Context, petID string) ([]vaccines.Vaccine, error) {
	return r.ListByPets(ctx, []string{petID})
}

func (r *vaccineRepo) ListByPets(ctx context.Context, petIDs []string) ([]vaccines.Vaccine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	want := make(map[string]struct{}, len(petIDs))
	for _, id := range petIDs {
		want[id] = struct{}{}
	}

	out := make([]vaccines.Vaccine, 0)
	for _, v := range r.byID {
		if _, ok := want[v.PetID]; ok {
			out = append(out, v)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *vaccineRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return vaccines.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *vaccineRepo) DeleteByPet(ctx context.Context, petID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range r.byID {
		if v.PetID == petID {
			delete(r.byID, id)
		}
	}
	return nil
}
