package cli

import (
	"errors"
	"fmt"

	"pet-vaccine-tracker/internal/platform/httpclient"
	"pet-vaccine-tracker/internal/session"
)

var errNotSignedIn = errors.New("no hay sesión activa; usá `petctl login`")

// describe traduce los errores tipados a un mensaje para la terminal.
func describe(op string, err error) error {
	var se *session.StorageError
	switch {
	case errors.Is(err, session.ErrInvalidCredentials):
		return fmt.Errorf("%s: email o clave incorrectos", op)
	case errors.Is(err, session.ErrUnknownAccount):
		return fmt.Errorf("%s: la cuenta no existe", op)
	case errors.Is(err, session.ErrNetworkFailure):
		return fmt.Errorf("%s: no se pudo contactar el API: %w", op, err)
	case errors.Is(err, session.ErrNotAuthenticated):
		return errNotSignedIn
	case errors.As(err, &se):
		return fmt.Errorf("%s: no se pudo guardar la sesión: %w", op, err)
	}
	if code := httpclient.StatusCode(err); code != 0 {
		return fmt.Errorf("%s: el API respondió %d: %w", op, code, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
