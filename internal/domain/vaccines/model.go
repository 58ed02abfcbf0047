package vaccines

import "time"

// Vaccine es una dosis registrada (o planificada) para una mascota.
type Vaccine struct {
	ID    string
	PetID string

	Name string

	AppliedOn  Date // sin fecha = todavía no aplicada
	NextDoseOn Date // sin fecha = sin refuerzo programado

	Veterinarian string

	CreatedAt time.Time
}

// WarningNextDoseBeforeApplied: el refuerzo es anterior a la aplicación.
// Los formularios no lo impiden, así que solo se avisa.
const WarningNextDoseBeforeApplied = "next_dose_before_application"

func (v Vaccine) Warnings() []string {
	applied, okA := v.AppliedOn.Get()
	next, okN := v.NextDoseOn.Get()
	if okA && okN && next.Before(applied) {
		return []string{WarningNextDoseBeforeApplied}
	}
	return nil
}
