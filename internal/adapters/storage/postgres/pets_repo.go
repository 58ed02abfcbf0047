package postgres

import (
	"context"
	"errors"
	"strings"

	"pet-vaccine-tracker/internal/domain/pets"

	"github.com/jackc/pgx/v5"
)

type PetsRepo struct {
	db DB
}

var _ pets.Repository = (*PetsRepo)(nil)

func NewPetsRepo(db DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_user_id,
	name, species, sex,
	weight, photo_url,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO pets (`+petColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		p.ID,
		p.OwnerUserID,
		p.Name,
		p.Species,
		p.Sex,
		p.Weight,
		p.PhotoURL,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

// Update nunca toca owner_user_id ni created_at.
func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			sex = $4,
			weight = $5,
			photo_url = $6,
			updated_at = $7
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Sex,
		p.Weight,
		p.PhotoURL,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return pets.Pet{}, pets.ErrNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return pets.Pet{}, pets.ErrNotFound
	}
	return p, err
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error) {
	ownerUserID = strings.TrimSpace(ownerUserID)
	if ownerUserID == "" {
		return []pets.Pet{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_user_id = $1
		ORDER BY created_at ASC, id ASC
	`, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete: las vacunas caen por ON DELETE CASCADE.
func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func scanPet(row pgx.Row) (pets.Pet, error) {
	var p pets.Pet
	err := row.Scan(
		&p.ID,
		&p.OwnerUserID,
		&p.Name,
		&p.Species,
		&p.Sex,
		&p.Weight,
		&p.PhotoURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
