package http

import (
	"time"

	"github.com/carhive/carhive-backend/internal/booking"
	carHttp "github.com/carhive/carhive-backend/internal/car/http"
	"github.com/carhive/carhive-backend/internal/pkg/request"
	userHttp "github.com/carhive/carhive-backend/internal/user/http"
)

type AvailabilityRequest struct {
	request.DateRangeParams
}

type CreateBookingRequest struct {
	CarID     string `json:"car_id" binding:"required,uuid"`
	StartDate string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Notes     string `json:"notes" binding:"omitempty,max=1000"`
}

type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending confirmed rejected cancelled"`
}

type ListBookingsRequest struct {
	CarID string `form:"car_id" binding:"omitempty,uuid"`
}

type BookingResponse struct {
	ID          string           `json:"id"`
	Car         carHttp.CarTag   `json:"car"`
	Renter      userHttp.UserTag `json:"renter"`
	RenterEmail string           `json:"renter_email"`
	RenterPhone string           `json:"renter_phone"`
	StartDate   string           `json:"start_date"`
	EndDate     string           `json:"end_date"`
	Status      string           `json:"status"`
	Notes       string           `json:"notes"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:          b.ID,
		Car:         carHttp.CarTag{ID: b.CarID, Title: b.CarTitle},
		Renter:      userHttp.UserTag{ID: b.RenterID, Name: b.RenterName},
		RenterEmail: b.RenterEmail,
		RenterPhone: b.RenterPhone,
		StartDate:   b.StartDate.Format(booking.DateLayout),
		EndDate:     b.EndDate.Format(booking.DateLayout),
		Status:      string(b.Status),
		Notes:       b.Notes,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// ConflictResponse is the public view of a blocking booking. Renter identity
// and contact details are deliberately not exposed on the availability
// endpoint.
type ConflictResponse struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

type AvailabilityResponse struct {
	Available bool               `json:"available"`
	Conflicts []ConflictResponse `json:"conflicts"`
}

func NewAvailabilityResponse(a *booking.Availability) AvailabilityResponse {
	conflicts := make([]ConflictResponse, len(a.Conflicts))
	for i, b := range a.Conflicts {
		conflicts[i] = ConflictResponse{
			StartDate: b.StartDate.Format(booking.DateLayout),
			EndDate:   b.EndDate.Format(booking.DateLayout),
			Status:    string(b.Status),
		}
	}
	return AvailabilityResponse{
		Available: a.Available,
		Conflicts: conflicts,
	}
}

type QuoteResponse struct {
	Days           int    `json:"days"`
	DailyRateCents int64  `json:"daily_rate_cents"`
	SubtotalCents  int64  `json:"subtotal_cents"`
	DepositCents   int64  `json:"deposit_cents"`
	TotalCents     int64  `json:"total_cents"`
	Currency       string `json:"currency"`
}

func NewQuoteResponse(q *booking.Quote) QuoteResponse {
	return QuoteResponse{
		Days:           q.Days,
		DailyRateCents: q.DailyRateCents,
		SubtotalCents:  q.SubtotalCents,
		DepositCents:   q.DepositCents,
		TotalCents:     q.TotalCents,
		Currency:       q.Currency,
	}
}
