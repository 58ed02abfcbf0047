package auth

import "context"

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// TokenIssuer emite el token que devuelve POST /login.
type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}
