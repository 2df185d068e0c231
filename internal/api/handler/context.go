package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/middleware"
	"github.com/99minutos/library-system/internal/core/domain"
)

// callerToken returns the verified token injected by the Auth middleware. A token
// without a user id is structurally valid but cannot be attributed to anyone, so it
// is rejected with 401 before any service call.
func callerToken(c echo.Context) (*domain.AccessToken, error) {
	tok := middleware.Token(c)
	if tok == nil || tok.UserID <= 0 {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return tok, nil
}

// parseID reads a positive int64 from a path or query value.
func parseID(raw, name string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return id, nil
}

// bindAndValidate decodes the request body into req and runs the echo validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
