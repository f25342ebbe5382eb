package jwt

import "errors"

var (
	errMissingHeader = errors.New("missing Authorization header")
	errEmptyToken    = errors.New("empty token")
	errInvalidToken  = errors.New("invalid or expired token")
	errInvalidIssuer = errors.New("invalid token issuer")
)
