package vaccines

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/validation"
	"pet-vaccine-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, petsSvc *pets.Service) {
	r.Route("/pets/{petID}/vaccines", func(vr chi.Router) {
		vr.Post("/", createVaccineHandler(svc, petsSvc))
		vr.Get("/", listPetVaccinesHandler(svc, petsSvc))
	})

	r.Get("/users/{userID}/vaccines", listOwnerVaccinesHandler(svc))

	r.Get("/vaccines/{vaccineID}", getVaccineHandler(svc, petsSvc))
	r.Delete("/vaccines/{vaccineID}", deleteVaccineHandler(svc, petsSvc))
}

// createVaccineRequest: fechas YYYY-MM-DD o RFC3339; vacío/null = sin fecha.
type createVaccineRequest struct {
	Name         string `json:"name"`
	AppliedOn    Date   `json:"applied_on"`
	NextDoseOn   Date   `json:"next_dose_on"`
	Veterinarian string `json:"veterinarian"`
}

type vaccineResponse struct {
	ID           string    `json:"id"`
	PetID        string    `json:"pet_id"`
	PetName      string    `json:"pet_name,omitempty"`
	Name         string    `json:"name"`
	AppliedOn    Date      `json:"applied_on"`
	NextDoseOn   Date      `json:"next_dose_on"`
	Veterinarian string    `json:"veterinarian,omitempty"`
	Status       Status    `json:"status"`
	Warnings     []string  `json:"warnings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// createVaccineHandler godoc
// @Summary Registrar vacuna
// @Description Fechas fuera de orden (refuerzo antes de aplicación) se aceptan y devuelven un warning.
// @Tags vaccines
// @Accept json
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Param payload body createVaccineRequest true "Datos de la vacuna"
// @Success 201 {object} vaccineResponse
// @Failure 400 {string} string "invalid json / fecha inválida / nombre requerido"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/vaccines [post]
func createVaccineHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadOwnedPet(w, r, petsSvc, chi.URLParam(r, "petID"))
		if !ok {
			return
		}

		var req createVaccineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var ve *validation.Error
			if errors.As(err, &ve) {
				http.Error(w, ve.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		v, err := svc.Create(r.Context(), p.ID, CreateInput{
			Name:         req.Name,
			AppliedOn:    req.AppliedOn,
			NextDoseOn:   req.NextDoseOn,
			Veterinarian: req.Veterinarian,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toVaccineResponse(v, p.Name, svc.now()))
	}
}

func listPetVaccinesHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := loadOwnedPet(w, r, petsSvc, chi.URLParam(r, "petID"))
		if !ok {
			return
		}

		items, err := svc.ListByPet(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.now()
		out := make([]vaccineResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toVaccineResponse(v, p.Name, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// listOwnerVaccinesHandler godoc
// @Summary Listar vacunas de todas las mascotas del usuario
// @Description Incluye el nombre de la mascota y el estado calculado (overdue/upcoming/current).
// @Tags vaccines
// @Produce json
// @Param userID path string true "ID del usuario (debe ser el autenticado)"
// @Success 200 {array} vaccineResponse
// @Router /users/{userID}/vaccines [get]
func listOwnerVaccinesHandler(svc *Service) http.HandlerFunc {
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

		items, err := svc.ListByOwner(r.Context(), userID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := svc.now()
		out := make([]vaccineResponse, 0, len(items))
		for _, it := range items {
			out = append(out, toVaccineResponse(it.Vaccine, it.PetName, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func getVaccineHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, p, ok := loadOwnedVaccine(w, r, svc, petsSvc)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, toVaccineResponse(v, p.Name, svc.now()))
	}
}

// deleteVaccineHandler godoc
// @Summary Borrar vacuna
// @Tags vaccines
// @Param vaccineID path string true "ID de la vacuna"
// @Success 204
// @Router /vaccines/{vaccineID} [delete]
func deleteVaccineHandler(svc *Service, petsSvc *pets.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, _, ok := loadOwnedVaccine(w, r, svc, petsSvc)
		if !ok {
			return
		}
		if err := svc.Delete(r.Context(), v.ID); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func loadOwnedVaccine(w http.ResponseWriter, r *http.Request, svc *Service, petsSvc *pets.Service) (Vaccine, pets.Pet, bool) {
	if middleware.UserID(r.Context()) == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return Vaccine{}, pets.Pet{}, false
	}

	v, err := svc.GetByID(r.Context(), chi.URLParam(r, "vaccineID"))
	if err != nil {
		writeError(w, err)
		return Vaccine{}, pets.Pet{}, false
	}
	p, ok := loadOwnedPet(w, r, petsSvc, v.PetID)
	if !ok {
		return Vaccine{}, pets.Pet{}, false
	}
	return v, p, true
}

func loadOwnedPet(w http.ResponseWriter, r *http.Request, petsSvc *pets.Service, petID string) (pets.Pet, bool) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return pets.Pet{}, false
	}

	p, err := petsSvc.GetByID(r.Context(), petID)
	if err != nil {
		writeError(w, err)
		return pets.Pet{}, false
	}
	if p.OwnerUserID != userID {
		http.Error(w, "forbidden", http.StatusForbidden)
		return pets.Pet{}, false
	}
	return p, true
}

func writeError(w http.ResponseWriter, err error) {
	var ve *validation.Error
	switch {
	case errors.As(err, &ve):
		http.Error(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, pets.ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "vaccine not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toVaccineResponse(v Vaccine, petName string, now time.Time) vaccineResponse {
	return vaccineResponse{
		ID:           v.ID,
		PetID:        v.PetID,
		PetName:      petName,
		Name:         v.Name,
		AppliedOn:    v.AppliedOn,
		NextDoseOn:   v.NextDoseOn,
		Veterinarian: v.Veterinarian,
		Status:       v.StatusAt(now),
		Warnings:     v.Warnings(),
		CreatedAt:    v.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
