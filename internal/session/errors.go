package session

import (
	"context"
	"errors"
	"fmt"
)

type AuthKind string

const (
	KindInvalidCredentials AuthKind = "invalid_credentials"
	KindNetworkFailure     AuthKind = "network_failure"
	KindUnknownAccount     AuthKind = "unknown_account"
)

// AuthError es el error tipado de login y lookup de identidad. Nunca se reintenta solo.
type AuthError struct {
	Kind AuthKind
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + string(e.Kind)
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is compara por Kind, así errors.Is(err, ErrUnknownAccount) funciona con cualquier causa.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidCredentials = &AuthError{Kind: KindInvalidCredentials}
	ErrNetworkFailure     = &AuthError{Kind: KindNetworkFailure}
	ErrUnknownAccount     = &AuthError{Kind: KindUnknownAccount}

	// ErrNotAuthenticated: la operación exige una sesión Authenticated.
	ErrNotAuthenticated = errors.New("session: not authenticated")
)

// StorageError envuelve fallas de I/O del almacenamiento local.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// asAuthError normaliza un error del gateway: lo que no es *AuthError
// (timeouts, transporte, 5xx) es NetworkFailure.
func asAuthError(err error) *AuthError {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &AuthError{Kind: KindNetworkFailure, Err: fmt.Errorf("gateway timeout: %w", err)}
	}
	return &AuthError{Kind: KindNetworkFailure, Err: err}
}
