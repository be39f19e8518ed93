package car

import (
	"net/http"
	"time"

	"github.com/carhive/carhive-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "car not found")
	ErrEmptyTitle         = apperror.New(http.StatusBadRequest, "title cannot be empty")
	ErrInvalidListingType = apperror.New(http.StatusBadRequest, "listing type must be rent or sale")
	ErrInvalidDailyRate   = apperror.New(http.StatusBadRequest, "rent listings require a positive daily rate")
	ErrInvalidPrice       = apperror.New(http.StatusBadRequest, "sale listings require a positive price")
	ErrPermissionDenied   = apperror.New(http.StatusForbidden, "permission denied")
)

// ListingType distinguishes rentable cars from cars offered for sale.
type ListingType string

const (
	ListingRent ListingType = "rent"
	ListingSale ListingType = "sale"
)

// Car represents a marketplace listing. Rent listings are priced per day and
// are eligible for bookings; sale listings carry a one-off price and go
// through the offer flow instead.
type Car struct {
	ID             string
	SellerID       string
	Title          string
	Make           string
	Model          string
	Year           int
	Mileage        int
	Location       string
	ListingType    ListingType
	DailyRateCents int64 // per-day rental price, 0 for sale listings
	PriceCents     int64 // sale price, 0 for rent listings
	Currency       string
	Description    string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Rentable reports whether the listing accepts bookings.
func (c *Car) Rentable() bool {
	return c.IsActive && c.ListingType == ListingRent
}

// Filter defines parameters for listing cars.
type Filter struct {
	SellerID          string
	ListingType       string
	Make              string
	MaxDailyRateCents int64
	IncludeInactive   bool

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
