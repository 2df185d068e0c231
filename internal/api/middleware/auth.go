package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

const tokenKey = "access_token"

// Auth validates the bearer token and injects the verified *domain.AccessToken into
// the echo context. Handlers read it back with Token.
func Auth(tokens ports.TokenValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			tok, err := tokens.Validate(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(tokenKey, tok)
			return next(c)
		}
	}
}

// Token returns the access token injected by Auth, or nil when the request is anonymous.
func Token(c echo.Context) *domain.AccessToken {
	tok, _ := c.Get(tokenKey).(*domain.AccessToken)
	return tok
}

// WithToken stores tok in the context as Auth would.
func WithToken(c echo.Context, tok *domain.AccessToken) {
	c.Set(tokenKey, tok)
}
