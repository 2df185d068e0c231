package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/api/metrics"
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
	maxIdempotencyKeyLen = 128
)

// PurchaseHandler handles POST /api/books/purchase.
type PurchaseHandler struct {
	service ports.PurchaseService
}

// NewPurchaseHandler accepts either the purchase service itself or the per-book
// dispatcher in front of it.
func NewPurchaseHandler(service ports.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{service: service}
}

// Purchase buys quantity units of the named book for the authenticated caller.
// The buyer id comes from the verified token, never from the body.
func (h *PurchaseHandler) Purchase(c echo.Context) error {
	caller, err := callerToken(c)
	if err != nil {
		return err
	}

	var req purchaseRequest
	if err := bindAndValidate(c, &req); err != nil {
		metrics.PurchasesTotal.WithLabelValues("invalid").Inc()
		return err
	}

	key := strings.TrimSpace(c.Request().Header.Get(headerIdempotencyKey))
	if len(key) > maxIdempotencyKeyLen {
		metrics.PurchasesTotal.WithLabelValues("invalid").Inc()
		return echo.NewHTTPError(http.StatusBadRequest, "Idempotency-Key is too long")
	}

	start := time.Now()
	res, err := h.service.Purchase(c.Request().Context(), toPurchaseInput(req, caller, key))
	metrics.PurchaseDuration.Observe(time.Since(start).Seconds())
	metrics.PurchasesTotal.WithLabelValues(purchaseOutcome(res, err)).Inc()
	if err != nil {
		return err
	}

	if res.Replayed {
		c.Response().Header().Set(headerReplayed, "true")
	} else {
		metrics.PurchasedUnitsTotal.Add(float64(res.Purchase.Quantity))
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(res))
}

func purchaseOutcome(res *ports.PurchaseResult, err error) string {
	switch {
	case err == nil && res.Replayed:
		return "replayed"
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrBookNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrConcurrencyConflict), errors.Is(err, domain.ErrPurchaseInProgress):
		return "conflict"
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
