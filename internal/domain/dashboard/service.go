package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/vaccines"
	"pet-vaccine-tracker/internal/platform/logger"
	"pet-vaccine-tracker/internal/platform/metrics"
)

// RecentPetsLimit: cuántas mascotas recientes muestra el resumen.
const RecentPetsLimit = 3

type PetLister interface {
	ListByOwner(ctx context.Context, ownerUserID string) ([]pets.Pet, error)
}

type VaccineLister interface {
	ListByOwner(ctx context.Context, ownerUserID string) ([]vaccines.Listed, error)
}

// Summary es lo que devuelve GET /users/{id}/dashboard.
type Summary struct {
	Stats       Stats
	RecentPets  []pets.Pet
	// Vencidas y próximas, ordenadas por fecha de refuerzo.
	DueVaccines []vaccines.Listed
	At          time.Time
}

type Service struct {
	pets     PetLister
	vaccines VaccineLister
	now      func() time.Time
	log      logger.Logger
	metrics  *metrics.Metrics
}

func NewService(p PetLister, v VaccineLister, log logger.Logger, m *metrics.Metrics) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		pets:     p,
		vaccines: v,
		now:      time.Now,
		log:      log.With(map[string]any{"module": "dashboard"}),
		metrics:  m,
	}
}

func (s *Service) Summary(ctx context.Context, ownerUserID string) (Summary, error) {
	ps, err := s.pets.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return Summary{}, fmt.Errorf("list pets: %w", err)
	}
	listed, err := s.vaccines.ListByOwner(ctx, ownerUserID)
	if err != nil {
		return Summary{}, fmt.Errorf("list vaccines: %w", err)
	}

	now := s.now()
	vs := make([]vaccines.Vaccine, 0, len(listed))
	due := make([]vaccines.Listed, 0)
	for _, l := range listed {
		vs = append(vs, l.Vaccine)
		if st := l.StatusAt(now); st == vaccines.StatusOverdue || st == vaccines.StatusUpcoming {
			due = append(due, l)
		}
	}
	vaccines.SortByNextDose(due)

	st := Aggregate(ps, vs, now)
	s.metrics.VaccinesClassified(string(vaccines.StatusOverdue), st.OverdueVaccines)
	s.metrics.VaccinesClassified(string(vaccines.StatusUpcoming), st.UpcomingVaccines)
	s.metrics.VaccinesClassified(string(vaccines.StatusCurrent), st.CurrentVaccines())
	s.metrics.DashboardServed()

	s.log.Debug("dashboard computed", map[string]any{
		"owner_user_id": ownerUserID,
		"pets":          st.TotalPets,
		"vaccines":      st.TotalVaccines,
		"overdue":       st.OverdueVaccines,
		"upcoming":      st.UpcomingVaccines,
	})

	return Summary{
		Stats:       st,
		RecentPets:  RecentPets(ps, RecentPetsLimit),
		DueVaccines: due,
		At:          now,
	}, nil
}

// RecentPets devuelve las n mascotas creadas más recientemente, sin tocar ps.
func RecentPets(ps []pets.Pet, n int) []pets.Pet {
	out := make([]pets.Pet, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
