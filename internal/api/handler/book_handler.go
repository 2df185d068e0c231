package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// BookHandler handles HTTP requests for the catalog.
type BookHandler struct {
	service ports.BookService
}

func NewBookHandler(service ports.BookService) *BookHandler {
	return &BookHandler{service: service}
}

// List handles GET /api/books.
func (h *BookHandler) List(c echo.Context) error {
	books, err := h.service.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// UserBooks handles GET /api/books/user-books: name, price and author only.
func (h *BookHandler) UserBooks(c echo.Context) error {
	books, err := h.service.ListSummaries(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// Get handles GET /api/books/:id.
func (h *BookHandler) Get(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	book, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, book)
}

// Search handles GET /api/books/search/:name (case-insensitive substring match).
func (h *BookHandler) Search(c echo.Context) error {
	books, err := h.service.Search(c.Request().Context(), c.Param("name"))
	if errors.Is(err, domain.ErrBookNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "no books found with the specified name")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, books)
}

// Create handles POST /api/books. Responds 201 with the stored book and its Location.
func (h *BookHandler) Create(c echo.Context) error {
	var req bookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	book, err := h.service.Create(c.Request().Context(), toBookInput(req))
	if err != nil {
		return err
	}

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/books/%d", book.ID))
	return c.JSON(http.StatusCreated, book)
}

// Update handles PUT /api/books/:id. The body id must equal the path id.
func (h *BookHandler) Update(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	var req bookRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.service.Update(c.Request().Context(), id, req.ID, toBookInput(req)); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Delete handles DELETE /api/books/:id.
func (h *BookHandler) Delete(c echo.Context) error {
	id, err := parseID(c.Param("id"), "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
