package models

import "time"

// BookStatus is derived from the available copy count and never stored.
type BookStatus string

const (
	BookStatusAvailable BookStatus = "available"
	BookStatusBorrowed  BookStatus = "borrowed"
)

func BookStatusFor(availableCopies int) BookStatus {
	if availableCopies > 0 {
		return BookStatusAvailable
	}
	return BookStatusBorrowed
}

// CreateBookRequest represents the request to add a title to the catalog
type CreateBookRequest struct {
	Title       string `json:"title" binding:"required,min=1,max=255"`
	Author      string `json:"author" binding:"required,min=1,max=255"`
	ISBN        string `json:"isbn" binding:"omitempty,min=10,max=20"`
	Genre       string `json:"genre" binding:"omitempty,max=100"`
	Location    string `json:"location" binding:"omitempty,max=50"`
	TotalCopies int    `json:"totalCopies" binding:"required,min=1"`
}

// UpdateBookRequest represents a partial update of a catalog entry
type UpdateBookRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=255"`
	Author      *string `json:"author" binding:"omitempty,min=1,max=255"`
	ISBN        *string `json:"isbn" binding:"omitempty,min=10,max=20"`
	Genre       *string `json:"genre" binding:"omitempty,max=100"`
	Location    *string `json:"location" binding:"omitempty,max=50"`
	TotalCopies *int    `json:"totalCopies" binding:"omitempty,min=0"`
}

// BookSearchRequest represents catalog search filters
type BookSearchRequest struct {
	Query         string `form:"query"`
	Genre         string `form:"genre"`
	AvailableOnly bool   `form:"availableOnly"`
	Page          int    `form:"page,default=1" binding:"min=1"`
	Limit         int    `form:"limit,default=20" binding:"min=1,max=100"`
}

func (r BookSearchRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

type BookResponse struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            string     `json:"isbn"`
	Genre           string     `json:"genre"`
	Location        string     `json:"location"`
	TotalCopies     int        `json:"totalCopies"`
	AvailableCopies int        `json:"availableCopies"`
	Status          BookStatus `json:"status"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
