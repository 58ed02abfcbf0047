package pets

import "time"

// Pet representa el perfil básico de una mascota. El owner no cambia después de creada.
type Pet struct {
	ID          string
	OwnerUserID string

	Name    string
	Species string // etiqueta libre: "Cachorro", "Gato", "dog"...
	Sex     string // opcional

	Weight   *float64 // kg, opcional, nunca negativo
	PhotoURL string

	CreatedAt time.Time
	UpdatedAt time.Time
}
