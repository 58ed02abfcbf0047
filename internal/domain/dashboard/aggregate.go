// Package dashboard resume mascotas y vacunas en los contadores que ve el usuario.
package dashboard

import (
	"time"

	"pet-vaccine-tracker/internal/domain/pets"
	"pet-vaccine-tracker/internal/domain/vaccines"
)

type Stats struct {
	TotalPets        int `json:"totalPets"`
	TotalVaccines    int `json:"totalVaccines"`
	UpcomingVaccines int `json:"upcomingVaccines"`
	OverdueVaccines  int `json:"overdueVaccines"`
}

// Aggregate es puro: no muta las entradas y es lineal en la cantidad de vacunas.
// Colecciones vacías (o nil) dan todo en cero.
func Aggregate(ps []pets.Pet, vs []vaccines.Vaccine, now time.Time) Stats {
	st := Stats{
		TotalPets:     len(ps),
		TotalVaccines: len(vs),
	}
	for _, v := range vs {
		switch v.StatusAt(now) {
		case vaccines.StatusOverdue:
			st.OverdueVaccines++
		case vaccines.StatusUpcoming:
			st.UpcomingVaccines++
		}
	}
	return st
}

// CurrentVaccines es el resto: ni vencidas ni próximas.
func (s Stats) CurrentVaccines() int {
	return s.TotalVaccines - s.UpcomingVaccines - s.OverdueVaccines
}
