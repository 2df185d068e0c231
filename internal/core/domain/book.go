package domain

import "time"

// Book is a catalog item. Name is unique across the catalog and Count never drops below zero.
type Book struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Author string  `json:"author"`
	Count  int     `json:"count"`
}

// BookSummary is the public projection served to ordinary users.
type BookSummary struct {
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Author string  `json:"author"`
}

func (b *Book) Summary() BookSummary {
	return BookSummary{Name: b.Name, Price: b.Price, Author: b.Author}
}

// ArchivedPurchase is an append-only snapshot of a completed sale. It is not linked to
// the catalog item; Name, Price and Author are copied at the time of sale.
type ArchivedPurchase struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Author       string    `json:"author"`
	Quantity     int       `json:"quantity"`
	ArchivedDate time.Time `json:"archived_date"`
	UserID       string    `json:"user_id"`
}
