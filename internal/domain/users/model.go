package users

import "time"

// User es el dueño de las mascotas. Email es único.
type User struct {
	ID    string
	Name  string
	Email string

	Phone    string // opcional
	CPF      string // opcional, único si viene
	PhotoURL string // opcional

	PasswordHash []byte

	CreatedAt time.Time
	UpdatedAt time.Time
}
