package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-vaccine-tracker/internal/domain/vaccines"

	"github.com/jackc/pgx/v5"
)

type VaccinesRepo struct {
	db DB
}

var _ vaccines.Repository = (*VaccinesRepo)(nil)

func NewVaccinesRepo(db DB) *VaccinesRepo {
	return &VaccinesRepo{db: db}
}

const vaccineColumns = `
	id, pet_id, name,
	applied_on, next_dose_on,
	veterinarian, created_at`

func (r *VaccinesRepo) Create(ctx context.Context, v vaccines.Vaccine) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vaccines (`+vaccineColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		v.ID,
		v.PetID,
		v.Name,
		v.AppliedOn.Ptr(),
		v.NextDoseOn.Ptr(),
		v.Veterinarian,
		v.CreatedAt,
	)
	return err
}

func (r *VaccinesRepo) GetByID(ctx context.Context, id string) (vaccines.Vaccine, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return vaccines.Vaccine{}, vaccines.ErrNotFound
	}

	row := r.db.QueryRow(ctx, `SELECT `+vaccineColumns+` FROM vaccines WHERE id = $1`, id)
	v, err := scanVaccine(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return vaccines.Vaccine{}, vaccines.ErrNotFound
	}
	return v, err
}

func (r *VaccinesRepo) ListByPet(ctx context.Context, petID string) ([]vaccines.Vaccine, error) {
	return r.ListByPets(ctx, []string{petID})
}

func (r *VaccinesRepo) ListByPets(ctx context.Context, petIDs []string) ([]vaccines.Vaccine, error) {
	if len(petIDs) == 0 {
		return []vaccines.Vaccine{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+vaccineColumns+`
		FROM vaccines
		WHERE pet_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, petIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]vaccines.Vaccine, 0)
	for rows.Next() {
		v, err := scanVaccine(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VaccinesRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM vaccines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return vaccines.ErrNotFound
	}
	return nil
}

func (r *VaccinesRepo) DeleteByPet(ctx context.Context, petID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM vaccines WHERE pet_id = $1`, petID)
	return err
}

func scanVaccine(row pgx.Row) (vaccines.Vaccine, error) {
	var v vaccines.Vaccine
	var applied, next *time.Time
	if err := row.Scan(
		&v.ID,
		&v.PetID,
		&v.Name,
		&applied,
		&next,
		&v.Veterinarian,
		&v.CreatedAt,
	); err != nil {
		return vaccines.Vaccine{}, err
	}
	v.AppliedOn = vaccines.DateFromPtr(applied)
	v.NextDoseOn = vaccines.DateFromPtr(next)
	return v, nil
}
