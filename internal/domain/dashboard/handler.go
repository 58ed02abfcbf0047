package dashboard

import (
	"encoding/json"
	"net/http"
	"time"

	"pet-vaccine-tracker/internal/domain/vaccines"
	"pet-vaccine-tracker/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Get("/users/{userID}/dashboard", dashboardHandler(svc))
}

type recentPetResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Species   string    `json:"species"`
	CreatedAt time.Time `json:"created_at"`
}

type dueVaccineResponse struct {
	ID         string          `json:"id"`
	PetID      string          `json:"pet_id"`
	PetName    string          `json:"pet_name"`
	Name       string          `json:"name"`
	NextDoseOn vaccines.Date   `json:"next_dose_on"`
	Status     vaccines.Status `json:"status"`
}

type dashboardResponse struct {
	Stats       Stats                `json:"stats"`
	RecentPets  []recentPetResponse  `json:"recent_pets"`
	DueVaccines []dueVaccineResponse `json:"due_vaccines"`
	At          time.Time            `json:"at"`
}

// dashboardHandler godoc
// @Summary Resumen del dashboard
// @Description totalPets, totalVaccines, upcomingVaccines (refuerzo en [now, now+30d)) y overdueVaccines (refuerzo < now).
// @Tags dashboard
// @Produce json
// @Param userID path string true "ID del usuario (debe ser el autenticado)"
// @Success 200 {object} dashboardResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /users/{userID}/dashboard [get]
func dashboardHandler(svc *Service) http.HandlerFunc {
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

		sum, err := svc.Summary(r.Context(), userID)
		if err != nil {
			svc.log.Error("dashboard failed", map[string]any{"owner_user_id": userID, "err": err})
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		resp := dashboardResponse{
			Stats:       sum.Stats,
			RecentPets:  make([]recentPetResponse, 0, len(sum.RecentPets)),
			DueVaccines: make([]dueVaccineResponse, 0, len(sum.DueVaccines)),
			At:          sum.At,
		}
		for _, p := range sum.RecentPets {
			resp.RecentPets = append(resp.RecentPets, recentPetResponse{
				ID:        p.ID,
				Name:      p.Name,
				Species:   p.Species,
				CreatedAt: p.CreatedAt,
			})
		}
		for _, v := range sum.DueVaccines {
			resp.DueVaccines = append(resp.DueVaccines, dueVaccineResponse{
				ID:         v.ID,
				PetID:      v.PetID,
				PetName:    v.PetName,
				Name:       v.Name,
				NextDoseOn: v.NextDoseOn,
				Status:     v.StatusAt(sum.At),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
