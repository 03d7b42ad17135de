package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	PrincipalKey contextKey = "principal"
)

const (
	RolePatient = "patient"
	RoleDoctor  = "doctor"
)

// ErrUnknownPrincipal is returned by a PrincipalLookup when the token subject
// no longer resolves to a user.
var ErrUnknownPrincipal = errors.New("unknown principal")

// Principal is the authenticated caller attached to the request context.
type Principal struct {
	ID    string
	Name  string
	Email string
	Role  string
}

func (p Principal) IsPatient() bool { return p.Role == RolePatient }
func (p Principal) IsDoctor() bool  { return p.Role == RoleDoctor }

// PrincipalLookup re-resolves the subject of a verified token.
type PrincipalLookup interface {
	LookupPrincipal(ctx context.Context, id string) (*Principal, error)
}

func JWTMiddleware(tokens *TokenIssuer, users PrincipalLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims, err := tokens.Parse(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := c.Request().Context()
			p, err := users.LookupPrincipal(ctx, claims.Subject)
			if errors.Is(err, ErrUnknownPrincipal) {
				return echo.NewHTTPError(http.StatusUnauthorized, "user no longer exists")
			}
			if err != nil {
				return err
			}

			c.SetRequest(c.Request().WithContext(WithPrincipal(ctx, *p)))
			return next(c)
		}
	}
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(Principal)
	return p, ok
}

func UserIDFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.ID
}

func RoleFromContext(ctx context.Context) string {
	p, _ := PrincipalFromContext(ctx)
	return p.Role
}
