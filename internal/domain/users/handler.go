package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-vaccine-tracker/internal/domain/validation"
	"pet-vaccine-tracker/internal/middleware"
	"pet-vaccine-tracker/internal/platform/metrics"
	"pet-vaccine-tracker/internal/platform/validate"
	"pet-vaccine-tracker/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, tokens auth.TokenIssuer, m *metrics.Metrics) {
	v := validate.New()

	r.Post("/users", registerHandler(svc, v))
	r.Post("/login", loginHandler(svc, tokens, v, m))

	// Solo el propio usuario (no hay delegación).
	r.Get("/users/{userID}", getUserHandler(svc))
	r.Patch("/users/{userID}", updateUserHandler(svc))
	r.Delete("/users/{userID}", deleteUserHandler(svc))
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	CPF      string `json:"cpf"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	PhotoURL *string `json:"photo_url"`
}

// userResponse nunca incluye el hash de la clave.
type userResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	PhotoURL  string    `json:"photo_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type loginResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token,omitempty"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos de registro"
// @Success 201 {object} userResponse
// @Failure 400 {string} string "invalid json / campo requerido"
// @Failure 409 {string} string "email o cpf ya registrado"
// @Router /users [post]
func registerHandler(svc *Service, v *validate.Validator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := v.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		u, err := svc.Register(r.Context(), RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			CPF:      req.CPF,
			Password: req.Password,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toUserResponse(u))
	}
}

// loginHandler godoc
// @Summary Login
// @Description Devuelve el usuario y un token Bearer. 401 si la clave no coincide, 404 si la cuenta no existe.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body loginRequest true "Credenciales"
// @Success 200 {object} loginResponse
// @Failure 401 {string} string "invalid credentials"
// @Failure 404 {string} string "user not found"
// @Router /login [post]
func loginHandler(svc *Service, tokens auth.TokenIssuer, v *validate.Validator, m *metrics.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := v.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		u, err := svc.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidCredentials):
				m.LoginAttempt("invalid_credentials")
			case errors.Is(err, ErrNotFound):
				m.LoginAttempt("unknown_account")
			default:
				m.LoginAttempt("error")
			}
			writeError(w, err)
			return
		}

		resp := loginResponse{User: toUserResponse(u)}
		if tokens != nil {
			tok, err := tokens.Issue(u.ID, u.Email)
			if err != nil {
				m.LoginAttempt("error")
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			resp.Token = tok
		}

		m.LoginAttempt("ok")
		writeJSON(w, http.StatusOK, resp)
	}
}

// getUserHandler godoc
// @Summary Buscar usuario por ID
// @Description Lookup de identidad usado para revalidar la sesión guardada.
// @Tags users
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param userID path string true "ID del usuario"
// @Success 200 {object} userResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "user not found"
// @Router /users/{userID} [get]
func getUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeSelf(w, r)
		if !ok {
			return
		}

		u, err := svc.GetByID(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// updateUserHandler godoc
// @Summary Editar perfil
// @Tags users
// @Accept json
// @Produce json
// @Param userID path string true "ID del usuario"
// @Param payload body updateUserRequest true "Campos a modificar (omitidos = sin cambio)"
// @Success 200 {object} userResponse
// @Router /users/{userID} [patch]
func updateUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeSelf(w, r)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updateUserRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		u, err := svc.UpdateProfile(r.Context(), userID, ProfilePatch{
			Name:     req.Name,
			Email:    req.Email,
			Phone:    req.Phone,
			PhotoURL: req.PhotoURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	}
}

// deleteUserHandler godoc
// @Summary Borrar cuenta (cascada a mascotas y vacunas)
// @Tags users
// @Param userID path string true "ID del usuario"
// @Success 204
// @Router /users/{userID} [delete]
func deleteUserHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := authorizeSelf(w, r)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), userID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func authorizeSelf(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := middleware.UserID(r.Context())
	if caller == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return "", false
	}
	userID := chi.URLParam(r, "userID")
	if userID != caller {
		http.Error(w, "forbidden", http.StatusForbidden)
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrCPFTaken):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		PhotoURL:  u.PhotoURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos
// para evitar crear paquetes/helpers compartidos demasiado pronto.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
