package pets

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-vaccine-tracker/internal/domain/validation"
	"pet-vaccine-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listMyPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})

	// Listado por owner (el que consume el dashboard).
	r.Get("/users/{userID}/pets", listOwnerPetsHandler(svc))
}

type createPetRequest struct {
	Name     string          `json:"name"`
	Species  string          `json:"species"`
	Sex      string          `json:"sex"`
	Weight   json.RawMessage `json:"weight"` // número, string numérico o null
	PhotoURL string          `json:"photo_url"`
}

type updatePetRequest struct {
	// Punteros para PATCH real: nil = no tocar.
	Name     *string         `json:"name"`
	Species  *string         `json:"species"`
	Sex      *string         `json:"sex"`
	Weight   json.RawMessage `json:"weight"` // null = limpiar
	PhotoURL *string         `json:"photo_url"`
}

type petResponse struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Name        string    `json:"name"`
	Species     string    `json:"species"`
	Sex         string    `json:"sex,omitempty"`
	Weight      *float64  `json:"weight"`
	PhotoURL    string    `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// createPetHandler godoc
// @Summary Crear mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param Authorization header string false "Bearer token"
// @Param payload body createPetRequest true "Datos de la mascota; weight acepta número o string"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid json / campo requerido / peso inválido"
// @Failure 401 {string} string "unauthorized"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		weight, _, err := decodeWeight(req.Weight)
		if err != nil {
			writeError(w, err)
			return
		}

		p, err := svc.Create(r.Context(), userID, CreateInput{
			Name:     req.Name,
			Species:  req.Species,
			Sex:      req.Sex,
			Weight:   weight,
			PhotoURL: req.PhotoURL,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

func listMyPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writePetList(w, r, svc, userID)
	}
}

// listOwnerPetsHandler godoc
// @Summary Listar mascotas de un usuario
// @Tags pets
// @Produce json
// @Param userID path string true "ID del usuario (debe ser el autenticado)"
// @Success 200 {array} petResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/pets [get]
func listOwnerPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserID(r.Context())
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if chi.URLParam(r, "userID") != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writePetList(w, r, svc, userID)
	}
}

func writePetList(w http.ResponseWriter, r *http.Request, svc *Service, ownerID string) {
	items, err := svc.ListByOwner(r.Context(), ownerID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	out := make([]petResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toPetResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadOwnedPet(w, r, svc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota
// @Tags pets
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar; weight null limpia el peso"
// @Success 200 {object} petResponse
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		current, ok := loadOwnedPet(w, r, svc)
		if !ok {
			return
		}

		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		var req updatePetRequest
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:     req.Name,
			Species:  req.Species,
			Sex:      req.Sex,
			PhotoURL: req.PhotoURL,
		}
		// weight: ausente = no tocar, null = limpiar.
		if req.Weight != nil {
			weight, isNull, err := decodeWeight(req.Weight)
			if err != nil {
				writeError(w, err)
				return
			}
			in.Weight = weight
			in.ClearWeight = isNull
		}

		updated, err := svc.Update(r.Context(), current.ID, in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// deletePetHandler godoc
// @Summary Borrar mascota (cascada a vacunas)
// @Tags pets
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadOwnedPet(w, r, svc)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), p.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// loadOwnedPet resuelve {petID} y exige que el caller sea el owner.
func loadOwnedPet(w http.ResponseWriter, r *http.Request, svc *Service) (Pet, bool) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Pet{}, false
	}

	p, err := svc.GetByID(r.Context(), chi.URLParam(r, "petID"))
	if err != nil {
		writeError(w, err)
		return Pet{}, false
	}
	if p.OwnerUserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return Pet{}, false
	}
	return p, true
}

// decodeWeight acepta 4.5, "4.5", "4,5" o null. isNull indica null explícito.
func decodeWeight(raw json.RawMessage) (weight *float64, isNull bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, false, nil
	}
	if string(raw) == "null" {
		return nil, true, nil
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false, &validation.Error{Kind: validation.KindInvalidNumber, Field: "weight", Value: string(raw)}
		}
	} else {
		s = string(raw)
	}

	weight, err = validation.ParseWeight("weight", strings.TrimSpace(s))
	if err != nil {
		return nil, false, err
	}
	return weight, weight == nil, nil
}

func writeError(w http.ResponseWriter, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	return petResponse{
		ID:          p.ID,
		OwnerUserID: p.OwnerUserID,
		Name:        p.Name,
		Species:     p.Species,
		Sex:         p.Sex,
		Weight:      p.Weight,
		PhotoURL:    p.PhotoURL,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// writeJSON está duplicado intencionalmente en handlers de distintos módulos (pets/vaccines)
// para evitar crear paquetes/helpers compartidos demasiado pronto.
// Si más adelante se repite en más módulos, recién conviene extraerlo a un helper común.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
