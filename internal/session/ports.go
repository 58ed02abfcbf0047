package session

import (
	"context"
	"time"
)

// Identity es la copia local del usuario autenticado. Puede quedar vieja
// respecto del backend hasta que LoadPersisted la revalida.
type Identity struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// ProfilePatch: nil = no tocar.
type ProfilePatch struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.Phone == nil && p.PhotoURL == nil
}

// Record es lo que se persiste. Identidad y token van juntos: se escriben
// en una sola operación o no se escriben.
type Record struct {
	User    Identity  `json:"user"`
	Token   string    `json:"token,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

// Claves del almacenamiento durable.
const (
	KeyUser  = "session:user"
	KeyToken = "session:token"
)

// Gateway es el contrato remoto que consume la sesión. Los errores de
// credenciales o cuenta inexistente deben venir como *AuthError; cualquier
// otro error se trata como NetworkFailure.
type Gateway interface {
	Login(ctx context.Context, email, password string) (Identity, string, error)
	LookupIdentity(ctx context.Context, id, token string) (Identity, error)
	UpdateProfile(ctx context.Context, id, token string, patch ProfilePatch) (Identity, error)
}

// Storage es el almacenamiento durable local. Load devuelve ok=false si no
// hay sesión guardada.
type Storage interface {
	Load(ctx context.Context) (rec Record, ok bool, err error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// Manager es lo que ven los llamadores (CLI, tests).
type Manager interface {
	Get() Snapshot
	SignIn(ctx context.Context, email, password string) (Snapshot, error)
	SignOut(ctx context.Context) error
	LoadPersisted(ctx context.Context) Snapshot
	UpdateProfile(ctx context.Context, patch ProfilePatch) (Snapshot, error)
}
