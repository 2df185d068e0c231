package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/metrics"
	"github.com/99minutos/library-system/internal/core/policy"
)

// Authorize enforces rule against the token placed in the context by Auth.
// It must run after Auth; a request without a token is rejected with 401.
func Authorize(rule policy.Rule) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tok := Token(c)
			if tok == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
			}

			decision := rule.EvaluateToken(tok)
			metrics.AuthzDecisionsTotal.WithLabelValues(rule.Name, decision.String()).Inc()
			if decision != policy.Allow {
				return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
			}
			return next(c)
		}
	}
}
