package vaccines

import "time"

type Status string

const (
	StatusOverdue  Status = "overdue"
	StatusUpcoming Status = "upcoming"
	StatusCurrent  Status = "current"
)

// Horizon es la ventana hacia adelante en la que un refuerzo cuenta como próximo.
const Horizon = 30 * 24 * time.Hour

// Classify decide el estado de un refuerzo respecto de now.
//
//	next < now                 => overdue
//	now <= next < now+Horizon  => upcoming
//	sin fecha o >= now+Horizon => current
//
// Un refuerzo exactamente en now es upcoming, no overdue.
func Classify(next Date, now time.Time) Status {
	t, ok := next.Get()
	if !ok {
		return StatusCurrent
	}
	if t.Before(now) {
		return StatusOverdue
	}
	if t.Before(now.Add(Horizon)) {
		return StatusUpcoming
	}
	return StatusCurrent
}

func (v Vaccine) StatusAt(now time.Time) Status {
	return Classify(v.NextDoseOn, now)
}
