package http

import (
	"time"

	"github.com/carhive/carhive-backend/internal/car"
	"github.com/carhive/carhive-backend/internal/pkg/request"
)

// ListCarsRequest defines query parameters for browsing listings.
type ListCarsRequest struct {
	request.ListParams
	SellerID          string `form:"seller_id" binding:"omitempty,uuid"`
	ListingType       string `form:"listing_type" binding:"omitempty,oneof=rent sale"`
	Make              string `form:"make"`
	MaxDailyRateCents int64  `form:"max_daily_rate_cents" binding:"omitempty,min=1"`
	SortBy            string `form:"sort_by" binding:"omitempty,oneof=created_at daily_rate_cents price_cents year"`
}

type CreateCarRequest struct {
	Title          string `json:"title" binding:"required,max=200"`
	Make           string `json:"make" binding:"omitempty,max=100"`
	Model          string `json:"model" binding:"omitempty,max=100"`
	Year           int    `json:"year" binding:"omitempty,min=1900,max=2100"`
	Mileage        int    `json:"mileage" binding:"omitempty,min=0"`
	Location       string `json:"location" binding:"omitempty,max=200"`
	ListingType    string `json:"listing_type" binding:"required,oneof=rent sale"`
	DailyRateCents int64  `json:"daily_rate_cents" binding:"omitempty,min=0"`
	PriceCents     int64  `json:"price_cents" binding:"omitempty,min=0"`
	Currency       string `json:"currency" binding:"omitempty,len=3"`
	Description    string `json:"description"`
}

type UpdateCarRequest struct {
	Title          *string `json:"title"`
	Make           *string `json:"make"`
	Model          *string `json:"model"`
	Year           *int    `json:"year"`
	Mileage        *int    `json:"mileage"`
	Location       *string `json:"location"`
	DailyRateCents *int64  `json:"daily_rate_cents"`
	PriceCents     *int64  `json:"price_cents"`
	Description    *string `json:"description"`
	IsActive       *bool   `json:"is_active"`
}

type CarResponse struct {
	ID             string    `json:"id"`
	SellerID       string    `json:"seller_id"`
	Title          string    `json:"title"`
	Make           string    `json:"make"`
	Model          string    `json:"model"`
	Year           int       `json:"year"`
	Mileage        int       `json:"mileage"`
	Location       string    `json:"location"`
	ListingType    string    `json:"listing_type"`
	DailyRateCents int64     `json:"daily_rate_cents"`
	PriceCents     int64     `json:"price_cents"`
	Currency       string    `json:"currency"`
	Description    string    `json:"description"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CarTag is a brief representation of a car for embedding in other responses.
type CarTag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

func NewCarResponse(c *car.Car) CarResponse {
	return CarResponse{
		ID:             c.ID,
		SellerID:       c.SellerID,
		Title:          c.Title,
		Make:           c.Make,
		Model:          c.Model,
		Year:           c.Year,
		Mileage:        c.Mileage,
		Location:       c.Location,
		ListingType:    string(c.ListingType),
		DailyRateCents: c.DailyRateCents,
		PriceCents:     c.PriceCents,
		Currency:       c.Currency,
		Description:    c.Description,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}
