package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carhive/carhive-backend/internal/car"
)

// activeBookingsTTL bounds staleness if an invalidation is ever missed; every
// booking write deletes the key explicitly.
const activeBookingsTTL = 5 * time.Minute

type CreateRequest struct {
	CarID       string
	RenterID    string
	RenterName  string
	RenterEmail string
	RenterPhone string
	Range       DateRange
	Notes       string
}

type Service interface {
	// CheckAvailability reports whether the car can be booked for the range
	// and returns the pending/confirmed bookings that conflict. Read-only.
	CheckAvailability(ctx context.Context, carID string, rng DateRange) (*Availability, error)

	// Quote prices the range at the car's daily rate. Pure computation over
	// catalog data; nothing is persisted.
	Quote(ctx context.Context, carID string, rng DateRange) (*Quote, error)

	// Create validates and persists a new pending booking.
	Create(ctx context.Context, req CreateRequest) (*Booking, error)

	GetByID(ctx context.Context, id string, actorID string, isSysAdmin bool) (*Booking, error)

	// UpdateStatus drives the booking lifecycle. The actor's role (renter vs
	// car owner) is derived from the booking and the car listing; system
	// admins act as owners.
	UpdateStatus(ctx context.Context, id string, newStatus Status, actorID string, isSysAdmin bool) (*Booking, error)

	ListForCar(ctx context.Context, carID string, actorID string, isSysAdmin bool) ([]*Booking, error)
	ListForRenter(ctx context.Context, renterID string) ([]*Booking, error)
}

type service struct {
	repo       Repository
	carService car.Service
	rdb        *redis.Client // nil disables the availability cache
}

func NewService(repo Repository, carService car.Service, rdb *redis.Client) Service {
	return &service{
		repo:       repo,
		carService: carService,
		rdb:        rdb,
	}
}

// rentableCar fetches the car and verifies it accepts bookings.
func (s *service) rentableCar(ctx context.Context, carID string) (*car.Car, error) {
	c, err := s.carService.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, car.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}
	if !c.Rentable() {
		return nil, ErrNotRentable
	}
	return c, nil
}

func (s *service) CheckAvailability(ctx context.Context, carID string, rng DateRange) (*Availability, error) {
	if _, err := s.rentableCar(ctx, carID); err != nil {
		return nil, err
	}

	conflicts, err := s.findConflicts(ctx, carID, rng)
	if err != nil {
		return nil, err
	}

	return &Availability{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}, nil
}

func (s *service) Quote(ctx context.Context, carID string, rng DateRange) (*Quote, error) {
	c, err := s.rentableCar(ctx, carID)
	if err != nil {
		return nil, err
	}

	q := NewQuote(rng, c.DailyRateCents, c.Currency)
	return &q, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	if req.Range.Start.IsZero() || req.Range.End.IsZero() {
		return nil, ErrInvalidRange
	}
	if req.Range.Start.Before(today()) {
		return nil, ErrStartDatePast
	}

	c, err := s.rentableCar(ctx, req.CarID)
	if err != nil {
		return nil, err
	}

	// Fast feedback before entering the transaction. The repository repeats
	// this check under the car row lock, so racing requests cannot both pass.
	conflicts, err := s.findConflicts(ctx, req.CarID, req.Range)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, ErrUnavailable
	}

	b := &Booking{
		CarID:       req.CarID,
		CarTitle:    c.Title,
		RenterID:    req.RenterID,
		RenterName:  req.RenterName,
		RenterEmail: req.RenterEmail,
		RenterPhone: req.RenterPhone,
		StartDate:   req.Range.Start,
		EndDate:     req.Range.End,
		Status:      StatusPending,
		Notes:       req.Notes,
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.invalidateCache(ctx, req.CarID)

	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string, actorID string, isSysAdmin bool) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, _, err := s.actorRoles(ctx, b, actorID, isSysAdmin); err != nil {
		return nil, err
	}

	return b, nil
}

func (s *service) UpdateStatus(ctx context.Context, id string, newStatus Status, actorID string, isSysAdmin bool) (*Booking, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	isRenter, isOwner, err := s.actorRoles(ctx, b, actorID, isSysAdmin)
	if err != nil {
		return nil, err
	}

	switch {
	case b.Status == StatusPending && newStatus == StatusConfirmed:
		if !isOwner {
			return nil, ErrPermissionDenied
		}
		// Approval re-validates: another overlapping request may have been
		// confirmed since this one was created.
		if err := s.repo.Confirm(ctx, b); err != nil {
			return nil, err
		}

	case b.Status == StatusPending && newStatus == StatusRejected:
		if !isOwner {
			return nil, ErrPermissionDenied
		}
		b.Status = StatusRejected
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return nil, err
		}

	case b.Status == StatusPending && newStatus == StatusCancelled:
		if !isRenter {
			return nil, ErrPermissionDenied
		}
		b.Status = StatusCancelled
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return nil, err
		}

	case b.Status == StatusConfirmed && newStatus == StatusCancelled:
		if !isRenter {
			return nil, ErrPermissionDenied
		}
		// Renters cannot walk away from a rental that has already begun.
		if !time.Now().UTC().Before(b.StartDate) {
			return nil, ErrInvalidTransition
		}
		b.Status = StatusCancelled
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return nil, err
		}

	case b.Status == StatusConfirmed && newStatus == StatusRejected:
		// Administrative retraction of a confirmation by the owner.
		if !isOwner {
			return nil, ErrPermissionDenied
		}
		b.Status = StatusRejected
		if err := s.repo.UpdateStatus(ctx, b); err != nil {
			return nil, err
		}

	default:
		return nil, ErrInvalidTransition
	}

	s.invalidateCache(ctx, b.CarID)

	return b, nil
}

func (s *service) ListForCar(ctx context.Context, carID string, actorID string, isSysAdmin bool) ([]*Booking, error) {
	c, err := s.carService.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, car.ErrNotFound) {
			return nil, ErrCarNotFound
		}
		return nil, err
	}

	// The full request list for a car is visible to its seller only.
	if c.SellerID != actorID && !isSysAdmin {
		return nil, ErrPermissionDenied
	}

	return s.repo.ListByCar(ctx, carID)
}

func (s *service) ListForRenter(ctx context.Context, renterID string) ([]*Booking, error) {
	return s.repo.ListByRenter(ctx, renterID)
}

// actorRoles resolves the caller's relation to the booking. Callers with no
// relation at all are rejected with ErrPermissionDenied.
func (s *service) actorRoles(ctx context.Context, b *Booking, actorID string, isSysAdmin bool) (isRenter, isOwner bool, err error) {
	isRenter = actorID == b.RenterID
	isOwner = isSysAdmin

	if !isOwner {
		c, err := s.carService.GetByID(ctx, b.CarID)
		if err != nil {
			if errors.Is(err, car.ErrNotFound) {
				return false, false, ErrCarNotFound
			}
			return false, false, err
		}
		isOwner = actorID == c.SellerID
	}

	if !isRenter && !isOwner {
		return false, false, ErrPermissionDenied
	}
	return isRenter, isOwner, nil
}

// findConflicts loads the car's active bookings and intersects them with the
// candidate range in memory.
func (s *service) findConflicts(ctx context.Context, carID string, rng DateRange) ([]*Booking, error) {
	active, err := s.activeBookings(ctx, carID)
	if err != nil {
		return nil, err
	}

	var conflicts []*Booking
	for _, b := range active {
		if rng.Overlaps(b.Range()) {
			conflicts = append(conflicts, b)
		}
	}
	return conflicts, nil
}

func activeBookingsKey(carID string) string {
	return fmt.Sprintf("bookings:active:%s", carID)
}

// activeBookings is a read-through cache over Repository.ListActive.
func (s *service) activeBookings(ctx context.Context, carID string) ([]*Booking, error) {
	if s.rdb == nil {
		return s.repo.ListActive(ctx, carID)
	}

	key := activeBookingsKey(carID)

	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []*Booking
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
	}

	active, err := s.repo.ListActive(ctx, carID)
	if err != nil {
		return nil, err
	}

	// Best effort: a failed cache write only costs the next read a DB trip.
	if data, err := json.Marshal(active); err == nil {
		_ = s.rdb.Set(ctx, key, data, activeBookingsTTL).Err()
	}

	return active, nil
}

func (s *service) invalidateCache(ctx context.Context, carID string) {
	if s.rdb == nil {
		return
	}
	_ = s.rdb.Del(ctx, activeBookingsKey(carID)).Err()
}

// today returns the current calendar day at UTC midnight.
func today() time.Time {
	return truncateToDay(time.Now())
}
