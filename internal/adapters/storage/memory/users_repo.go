package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pet-vaccine-tracker/internal/domain/users"
)

type userRepo struct {
	mu   sync.RWMutex
	byID map[string]users.User
}

func NewUserRepo() users.Repository {
	return &userRepo{
		byID: make(map[string]users.User),
	}
}

func (r *userRepo) Create(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id required")
	}
	if _, exists := r.byID[u.ID]; exists {
		return errors.New("user already exists")
	}
	// Índice único de email (y cpf si viene), como en postgres.
	for _, other := range r.byID {
		if other.Email == u.Email {
			return users.ErrEmailTaken
		}
		if u.CPF != "" && other.CPF == u.CPF {
			return users.ErrCPFTaken
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) Update(ctx context.Context, u users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[u.ID]; !exists {
		return users.ErrNotFound
	}
	for id, other := range r.byID {
		if id != u.ID && other.Email == u.Email {
			return users.ErrEmailTaken
		}
	}
	r.byID[u.ID] = u
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.find(func(u users.User) bool { return u.Email == email })
}

func (r *userRepo) GetByCPF(ctx context.Context, cpf string) (users.User, error) {
	if strings.TrimSpace(cpf) == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.find(func(u users.User) bool { return u.CPF == cpf })
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return users.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *userRepo) find(match func(users.User) bool) (users.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if match(u) {
			return u, nil
		}
	}
	return users.User{}, users.ErrNotFound
}
