package vaccines

import "context"

type Repository interface {
	Create(ctx context.Context, v Vaccine) error
	GetByID(ctx context.Context, id string) (Vaccine, error)
	ListByPet(ctx context.Context, petID string) ([]Vaccine, error)
	ListByPets(ctx context.Context, petIDs []string) ([]Vaccine, error)
	Delete(ctx context.Context, id string) error
	DeleteByPet(ctx context.Context, petID string) error
}
