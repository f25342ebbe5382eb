package jwt

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const userIDKey = "userId"

// NewAuthMiddleware returns a Fiber middleware that validates Bearer JWT (HS256).
// On success sets user id (subject) into c.Locals("userId").
func NewAuthMiddleware(secret, expectedIssuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, err := subjectFromHeader(c.Get("Authorization"), []byte(secret), expectedIssuer)
		if err != nil {
			return c.Status(http.StatusUnauthorized).JSON(fiber.Map{"message": err.Error()})
		}
		c.Locals(userIDKey, subject)
		return c.Next()
	}
}

// NewOptionalAuthMiddleware parses the Authorization header when present but
// never rejects the request. Handlers that must run their own checks before
// the auth decision (e.g. "missing id beats missing session") use this and
// read the identity via UserID.
func NewOptionalAuthMiddleware(secret, expectedIssuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if subject, err := subjectFromHeader(c.Get("Authorization"), []byte(secret), expectedIssuer); err == nil {
			c.Locals(userIDKey, subject)
		}
		return c.Next()
	}
}

// UserID reads the authenticated user id set by the middleware.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	subject, _ := c.Locals(userIDKey).(string)
	if subject == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(subject)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func subjectFromHeader(authHeader string, secret []byte, expectedIssuer string) (string, error) {
	if authHeader == "" {
		return "", errMissingHeader
	}
	// Support both "Bearer <token>" and "<token>" (no prefix).
	var tokenStr string
	if strings.Contains(authHeader, " ") {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			tokenStr = strings.TrimSpace(parts[1])
		} else {
			// Fallback: treat entire header as token (for non-standard clients)
			tokenStr = strings.TrimSpace(authHeader)
		}
	} else {
		tokenStr = strings.TrimSpace(authHeader)
	}
	if tokenStr == "" {
		return "", errEmptyToken
	}
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.ErrUnauthorized
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return "", errInvalidToken
	}
	if expectedIssuer != "" && claims.RegisteredClaims.Issuer != expectedIssuer {
		return "", errInvalidIssuer
	}
	return claims.RegisteredClaims.Subject, nil
}
