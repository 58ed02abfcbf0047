// Package httpapi es el cliente del API REST (el Remote Gateway de la sesión
// y del CLI). Traduce los status HTTP a los errores tipados de session.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/vaccines"
	"pet-vaccine-tracker/internal/platform/httpclient"
	"pet-vaccine-tracker/internal/session"
)

type Client struct {
	http *httpclient.Client
}

var _ session.Gateway = (*Client)(nil)

func New(baseURL string, timeout time.Duration) (*Client, error) {
	hc, err := httpclient.New(httpclient.Options{
		BaseURL:   baseURL,
		Timeout:   timeout,
		UserAgent: "petctl",
	})
	if err != nil {
		return nil, err
	}
	if hc.BaseURL == "" {
		return nil, errors.New("httpapi: base url required")
	}
	return &Client{http: hc}, nil
}

type userDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

func (u userDTO) identity() session.Identity {
	return session.Identity{ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone, PhotoURL: u.PhotoURL}
}

type loginDTO struct {
	User  userDTO `json:"user"`
	Token string  `json:"token"`
}

type petDTO struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Sex         string    `json:"sex"`
	Weight      *float64  `json:"weight"`
	PhotoURL    string    `json:"photo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type vaccineDTO struct {
	ID           string        `json:"id"`
	PetID        string        `json:"pet_id"`
	PetName      string        `json:"pet_name"`
	Name         string        `json:"name"`
	AppliedOn    vaccines.Date `json:"applied_on"`
	NextDoseOn   vaccines.Date `json:"next_dose_on"`
	Veterinarian string        `json:"veterinarian"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Login: 401 clave incorrecta, 404 cuenta inexistente.
func (c *Client) Login(ctx context.Context, email, password string) (session.Identity, string, error) {
	var out loginDTO
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/login",
		In:     map[string]string{"email": email, "password": password},
		Out:    &out,
	})
	if err != nil {
		return session.Identity{}, "", mapError(err)
	}
	return out.User.identity(), out.Token, nil
}

func (c *Client) LookupIdentity(ctx context.Context, id, token string) (session.Identity, error) {
	var out userDTO
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/users/" + url.PathEscape(id),
		Bearer: token,
		Header: identityHeader(token, id),
		Out:    &out,
	})
	if err != nil {
		return session.Identity{}, mapError(err)
	}
	return out.identity(), nil
}

func (c *Client) UpdateProfile(ctx context.Context, id, token string, patch session.ProfilePatch) (session.Identity, error) {
	var out userDTO
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPatch,
		Path:   "/users/" + url.PathEscape(id),
		Bearer: token,
		Header: identityHeader(token, id),
		In:     patch,
		Out:    &out,
	})
	if err != nil {
		return session.Identity{}, mapError(err)
	}
	return out.identity(), nil
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	CPF      string `json:"cpf,omitempty"`
	Password string `json:"password"`
}

// Register crea la cuenta. No inicia sesión.
func (c *Client) Register(ctx context.Context, in RegisterInput) (session.Identity, error) {
	var out userDTO
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodPost,
		Path:   "/users",
		In:     in,
		Out:    &out,
	})
	if err != nil {
		return session.Identity{}, err
	}
	return out.identity(), nil
}

func (c *Client) ListPets(ctx context.Context, ownerID, token string) ([]pets.Pet, error) {
	var out []petDTO
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/users/" + url.PathEscape(ownerID) + "/pets",
		Bearer: token,
		Header: identityHeader(token, ownerID),
		Out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list pets: %w", mapError(err))
	}

	items := make([]pets.Pet, 0, len(out))
	for _, p := range out {
		items = append(items, pets.Pet{
			ID:          p.ID,
			OwnerUserID: p.OwnerUserID,
			Name:        p.Name,
			Species:     p.Species,
			Sex:         p.Sex,
			Weight:      p.Weight,
			PhotoURL:    p.PhotoURL,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return items, nil
}

// ListVaccines trae las vacunas de todas las mascotas del usuario.
func (c *Client) ListVaccines(ctx context.Context, ownerID, token string) ([]vaccines.Listed, error) {
	var out []vaccineDTO
	err := c.http.DoJSON(ctx, httpclient.Request{
		Method: http.MethodGet,
		Path:   "/users/" + url.PathEscape(ownerID) + "/vaccines",
		Bearer: token,
		Header: identityHeader(token, ownerID),
		Out:    &out,
	})
	if err != nil {
		return nil, fmt.Errorf("list vaccines: %w", mapError(err))
	}

	items := make([]vaccines.Listed, 0, len(out))
	for _, v := range out {
		items = append(items, vaccines.Listed{
			Vaccine: vaccines.Vaccine{
				ID:           v.ID,
				PetID:        v.PetID,
				Name:         v.Name,
				AppliedOn:    v.AppliedOn,
				NextDoseOn:   v.NextDoseOn,
				Veterinarian: v.Veterinarian,
				CreatedAt:    v.CreatedAt,
			},
			PetName: v.PetName,
		})
	}
	return items, nil
}

// DebugUserHeader es el header que AuthContext acepta cuando el API corre sin
// clave JWT (AUTH_DEBUG_USERS). Sin token, las llamadas de un usuario lo usan.
const DebugUserHeader = "X-Debug-User-ID"

func identityHeader(token, userID string) map[string]string {
	if token != "" || userID == "" {
		return nil
	}
	return map[string]string{DebugUserHeader: userID}
}

// mapError: 401/403 => InvalidCredentials, 404 => UnknownAccount, el resto
// (transporte, timeout, 5xx) => NetworkFailure.
func mapError(err error) error {
	switch httpclient.StatusCode(err) {
	case http.StatusUnauthorized, http.StatusForbidden:
		return &session.AuthError{Kind: session.KindInvalidCredentials, Err: err}
	case http.StatusNotFound:
		return &session.AuthError{Kind: session.KindUnknownAccount, Err: err}
	default:
		return &session.AuthError{Kind: session.KindNetworkFailure, Err: err}
	}
}
