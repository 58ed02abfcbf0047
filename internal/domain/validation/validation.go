// Package validation agrupa los chequeos mínimos de forma que comparten
// usuarios, mascotas y vacunas. Nunca coerciona: si el dato no sirve, falla
// con un *Error que indica el campo y el tipo de problema.
package validation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type Kind string

const (
	KindMissingField  Kind = "missing_field"
	KindInvalidNumber Kind = "invalid_number"
	KindInvalidDate   Kind = "invalid_date"
	KindInvalidFormat Kind = "invalid_format"
)

// Error es el ValidationError del dominio.
type Error struct {
	Kind  Kind
	Field string
	Value string
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingField:
		return fmt.Sprintf("%s is required", e.Field)
	case KindInvalidNumber:
		return fmt.Sprintf("%s must be a non-negative number (got %q)", e.Field, e.Value)
	case KindInvalidDate:
		return fmt.Sprintf("%s must be YYYY-MM-DD or RFC3339 (got %q)", e.Field, e.Value)
	default:
		return fmt.Sprintf("%s has an invalid format", e.Field)
	}
}

func Missing(field string) *Error {
	return &Error{Kind: KindMissingField, Field: field}
}

// Is indica si err (o algo que envuelve) es un *Error del kind dado.
func Is(err error, kind Kind) bool {
	var ve *Error
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Kind == kind
}

// RequireText devuelve el valor sin espacios o MissingField si queda vacío.
func RequireText(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", Missing(field)
	}
	return v, nil
}

// ParseWeight interpreta un peso en kg. Vacío => nil (campo opcional).
// Acepta coma decimal ("4,5") porque así llega desde los formularios.
func ParseWeight(field, raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil, &Error{Kind: KindInvalidNumber, Field: field, Value: raw}
	}
	return &f, nil
}

// CheckWeight valida un peso ya numérico.
func CheckWeight(field string, w *float64) error {
	if w == nil {
		return nil
	}
	if math.IsNaN(*w) || math.IsInf(*w, 0) || *w < 0 {
		return &Error{Kind: KindInvalidNumber, Field: field, Value: strconv.FormatFloat(*w, 'f', -1, 64)}
	}
	return nil
}

const dateLayout = "2006-01-02"

// ParseDate acepta YYYY-MM-DD (medianoche UTC) o RFC3339. El vacío es error:
// la ausencia de fecha se representa aparte, no con un string vacío.
func ParseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, Missing(field)
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, &Error{Kind: KindInvalidDate, Field: field, Value: raw}
}
