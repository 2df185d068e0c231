package handler

import "github.com/99minutos/library-system/internal/core/domain"

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type credentialsRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	Token   string `json:"token"`
	IsAdmin bool   `json:"isAdmin"`
}

// --- Books ---

type bookRequest struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"   validate:"required,max=200"`
	Price  float64 `json:"price"  validate:"gte=0"`
	Author string  `json:"author" validate:"max=200"`
	Count  int     `json:"count"  validate:"gte=0"`
}

// --- Purchase ---

type purchaseRequest struct {
	BookName string `json:"bookName" validate:"required"`
	Quantity int    `json:"quantity" validate:"gt=0"`
}

type purchaseResponse struct {
	Message   string                   `json:"message"`
	Purchase  *domain.ArchivedPurchase `json:"purchase"`
	Remaining int                      `json:"remaining"`
}
