package postgres

import (
	"context"
	"errors"
	"strings"

	"pet-vaccine-tracker/internal/domain/users"

	"github.com/jackc/pgx/v5"
)

type UsersRepo struct {
	db DB
}

var _ users.Repository = (*UsersRepo)(nil)

func NewUsersRepo(db DB) *UsersRepo {
	return &UsersRepo{db: db}
}

const userColumns = `
	id, name, email,
	phone, cpf, photo_url,
	password_hash,
	created_at, updated_at`

func (r *UsersRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.CPF,
		u.PhotoURL,
		u.PasswordHash,
		u.CreatedAt,
		u.UpdatedAt,
	)
	return mapUniqueErr(err)
}

func (r *UsersRepo) Update(ctx context.Context, u users.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET
			name = $2,
			email = $3,
			phone = $4,
			photo_url = $5,
			updated_at = $6
		WHERE id = $1
	`,
		u.ID,
		u.Name,
		u.Email,
		u.Phone,
		u.PhotoURL,
		u.UpdatedAt,
	)
	if err != nil {
		return mapUniqueErr(err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	return r.getOne(ctx, `id = $1`, strings.TrimSpace(id))
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *UsersRepo) GetByCPF(ctx context.Context, cpf string) (users.User, error) {
	cpf = strings.TrimSpace(cpf)
	if cpf == "" {
		return users.User{}, users.ErrNotFound
	}
	return r.getOne(ctx, `cpf = $1`, cpf)
}

// Delete: mascotas y vacunas caen por ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UsersRepo) getOne(ctx context.Context, where string, arg string) (users.User, error) {
	if arg == "" {
		return users.User{}, users.ErrNotFound
	}

	var u users.User
	err := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.Phone,
		&u.CPF,
		&u.PhotoURL,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, err
	}
	return u, nil
}

func mapUniqueErr(err error) error {
	switch uniqueConstraint(err) {
	case "":
		return err
	case "users_cpf_key":
		return users.ErrCPFTaken
	default:
		return users.ErrEmailTaken
	}
}
