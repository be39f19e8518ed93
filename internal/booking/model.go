package booking

import (
	"net/http"
	"time"

	"github.com/carhive/carhive-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrCarNotFound       = apperror.New(http.StatusNotFound, "car not found")
	ErrNotRentable       = apperror.New(http.StatusBadRequest, "car is not listed for rent")
	ErrInvalidRange      = apperror.New(http.StatusBadRequest, "start date must be before end date")
	ErrStartDatePast     = apperror.New(http.StatusBadRequest, "cannot create booking starting in the past")
	ErrUnavailable       = apperror.New(http.StatusConflict, "requested dates are unavailable")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "status transition not allowed")
	ErrInvalidStatus     = apperror.New(http.StatusBadRequest, "invalid booking status")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
)

// Status is the lifecycle state of a booking request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the booking blocks other requests for its dates.
// Rejected and cancelled bookings are kept as history but never conflict.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Booking is a rental request for a car over an inclusive range of calendar
// days. Bookings are never deleted; terminal states are kept as an audit
// record. CarTitle and the renter contact fields are denormalized display
// copies captured at creation time; CarID and RenterID are the authoritative
// references.
type Booking struct {
	ID          string
	CarID       string
	CarTitle    string
	RenterID    string
	RenterName  string
	RenterEmail string
	RenterPhone string
	StartDate   time.Time // date-only, UTC midnight
	EndDate     time.Time // date-only, UTC midnight, inclusive
	Status      Status
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Range returns the booking's inclusive date range.
func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// Availability is the result of a conflict check for a candidate range.
type Availability struct {
	Available bool
	Conflicts []*Booking
}
