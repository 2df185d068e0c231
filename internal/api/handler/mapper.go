package handler

import (
	"github.com/99minutos/library-system/internal/core/domain"
	"github.com/99minutos/library-system/internal/core/ports"
)

// --- Request → Service input ---

func toBookInput(req bookRequest) ports.BookInput {
	return ports.BookInput{
		Name:   req.Name,
		Price:  req.Price,
		Author: req.Author,
		Count:  req.Count,
	}
}

func toPurchaseInput(req purchaseRequest, caller *domain.AccessToken, idempotencyKey string) ports.PurchaseInput {
	return ports.PurchaseInput{
		BookName:       req.BookName,
		Quantity:       req.Quantity,
		Caller:         caller,
		IdempotencyKey: idempotencyKey,
	}
}

// --- Service output → Response ---

func toPurchaseResponse(res *ports.PurchaseResult) purchaseResponse {
	return purchaseResponse{
		Message:   "Purchase successful",
		Purchase:  res.Purchase,
		Remaining: res.Remaining,
	}
}
