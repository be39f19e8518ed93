package booking

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carhive/carhive-backend/internal/car"
)

// fakeRepo is an in-memory Repository that mirrors the semantics of the
// Postgres implementation: Create screens against pending and confirmed
// bookings, Confirm re-screens against confirmed ones only, and the list
// methods return the same ordering as the SQL queries.
type fakeRepo struct {
	bookings map[string]*Booking
	nextID   int
	clock    time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		bookings: make(map[string]*Booking),
		clock:    time.Now().UTC(),
	}
}

// tick returns a strictly increasing timestamp so creation order is
// unambiguous.
func (r *fakeRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func newestFirst(bookings []*Booking) {
	sort.Slice(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})
}

func (r *fakeRepo) overlapping(carID string, rng DateRange, statuses map[Status]bool, excludeID string) bool {
	for _, b := range r.bookings {
		if b.CarID != carID || b.ID == excludeID || !statuses[b.Status] {
			continue
		}
		if rng.Overlaps(b.Range()) {
			return true
		}
	}
	return false
}

func (r *fakeRepo) Create(_ context.Context, b *Booking) error {
	if r.overlapping(b.CarID, b.Range(), map[Status]bool{StatusPending: true, StatusConfirmed: true}, "") {
		return ErrUnavailable
	}
	r.nextID++
	b.ID = fmt.Sprintf("booking-%d", r.nextID)
	b.CreatedAt = r.tick()
	b.UpdatedAt = b.CreatedAt
	copied := *b
	r.bookings[b.ID] = &copied
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*Booking, error) {
	b, ok := r.bookings[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *fakeRepo) ListByCar(_ context.Context, carID string) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.bookings {
		if b.CarID == carID {
			copied := *b
			out = append(out, &copied)
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *fakeRepo) ListByRenter(_ context.Context, renterID string) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.bookings {
		if b.RenterID == renterID {
			copied := *b
			out = append(out, &copied)
		}
	}
	newestFirst(out)
	return out, nil
}

func (r *fakeRepo) ListActive(_ context.Context, carID string) ([]*Booking, error) {
	var out []*Booking
	for _, b := range r.bookings {
		if b.CarID == carID && b.Status.Active() {
			copied := *b
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartDate.Before(out[j].StartDate)
	})
	return out, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, b *Booking) error {
	stored, ok := r.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = b.Status
	stored.UpdatedAt = r.tick()
	b.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeRepo) Confirm(_ context.Context, b *Booking) error {
	stored, ok := r.bookings[b.ID]
	if !ok {
		return ErrNotFound
	}
	if r.overlapping(b.CarID, b.Range(), map[Status]bool{StatusConfirmed: true}, b.ID) {
		return ErrUnavailable
	}
	stored.Status = StatusConfirmed
	stored.UpdatedAt = r.tick()
	b.Status = StatusConfirmed
	b.UpdatedAt = stored.UpdatedAt
	return nil
}

// seed inserts a booking directly, bypassing service validation. Used to set
// up states the public API would refuse, like a confirmed rental that has
// already started.
func (r *fakeRepo) seed(b *Booking) *Booking {
	r.nextID++
	b.ID = fmt.Sprintf("booking-%d", r.nextID)
	b.CreatedAt = r.tick()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = b
	return b
}

type stubCarService struct {
	cars map[string]*car.Car
}

func (s *stubCarService) GetByID(_ context.Context, id string) (*car.Car, error) {
	c, ok := s.cars[id]
	if !ok {
		return nil, car.ErrNotFound
	}
	return c, nil
}

func (s *stubCarService) Create(context.Context, car.CreateRequest) (*car.Car, error) {
	panic("not used")
}

func (s *stubCarService) List(context.Context, car.Filter) ([]*car.Car, int, error) {
	panic("not used")
}

func (s *stubCarService) Update(context.Context, string, car.UpdateRequest, string, bool) (*car.Car, error) {
	panic("not used")
}

func (s *stubCarService) Deactivate(context.Context, string, string, bool) error {
	panic("not used")
}

const (
	testCarID    = "car-1"
	testSaleCar  = "car-sale"
	testSellerID = "seller-1"
	testRenterID = "renter-1"
)

func newTestService(t *testing.T) (Service, *fakeRepo) {
	t.Helper()

	repo := newFakeRepo()
	cars := &stubCarService{cars: map[string]*car.Car{
		testCarID: {
			ID:             testCarID,
			SellerID:       testSellerID,
			Title:          "2019 Honda Civic",
			ListingType:    car.ListingRent,
			DailyRateCents: 5000,
			Currency:       "USD",
			IsActive:       true,
		},
		testSaleCar: {
			ID:          testSaleCar,
			SellerID:    testSellerID,
			Title:       "1998 Toyota Supra",
			ListingType: car.ListingSale,
			PriceCents:  4_500_000,
			Currency:    "USD",
			IsActive:    true,
		},
	}}

	return NewService(repo, cars, nil), repo
}

// futureRange builds a range starting daysAhead days from now, lasting the
// given number of nights. Keeps tests independent of the wall clock.
func futureRange(t *testing.T, daysAhead, nights int) DateRange {
	t.Helper()
	start := today().AddDate(0, 0, daysAhead)
	rng, err := NewDateRange(start, start.AddDate(0, 0, nights))
	require.NoError(t, err)
	return rng
}

func createBooking(t *testing.T, svc Service, rng DateRange) *Booking {
	t.Helper()
	b, err := svc.Create(context.Background(), CreateRequest{
		CarID:       testCarID,
		RenterID:    testRenterID,
		RenterName:  "Alex Renter",
		RenterEmail: "alex@example.com",
		Range:       rng,
	})
	require.NoError(t, err)
	return b
}

func TestCreateBooking(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path creates pending booking", func(t *testing.T) {
		svc, _ := newTestService(t)
		rng := futureRange(t, 10, 3)

		b := createBooking(t, svc, rng)

		assert.NotEmpty(t, b.ID)
		assert.Equal(t, StatusPending, b.Status)
		assert.Equal(t, rng.Start, b.StartDate)
		assert.Equal(t, rng.End, b.EndDate)
		// The listing title is snapshotted onto the booking.
		assert.Equal(t, "2019 Honda Civic", b.CarTitle)
	})

	t.Run("unknown car", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, CreateRequest{
			CarID:    "car-missing",
			RenterID: testRenterID,
			Range:    futureRange(t, 10, 3),
		})
		assert.ErrorIs(t, err, ErrCarNotFound)
	})

	t.Run("sale listing is not bookable", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, CreateRequest{
			CarID:    testSaleCar,
			RenterID: testRenterID,
			Range:    futureRange(t, 10, 3),
		})
		assert.ErrorIs(t, err, ErrNotRentable)
	})

	t.Run("start date in the past", func(t *testing.T) {
		svc, _ := newTestService(t)
		start := today().AddDate(0, 0, -5)
		rng, err := NewDateRange(start, start.AddDate(0, 0, 3))
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateRequest{
			CarID:    testCarID,
			RenterID: testRenterID,
			Range:    rng,
		})
		assert.ErrorIs(t, err, ErrStartDatePast)
	})

	t.Run("zero range", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, CreateRequest{
			CarID:    testCarID,
			RenterID: testRenterID,
		})
		assert.ErrorIs(t, err, ErrInvalidRange)
	})

	t.Run("overlapping pending booking blocks", func(t *testing.T) {
		svc, _ := newTestService(t)
		createBooking(t, svc, futureRange(t, 10, 3))

		_, err := svc.Create(ctx, CreateRequest{
			CarID:    testCarID,
			RenterID: "renter-2",
			Range:    futureRange(t, 12, 3),
		})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("touching end day blocks", func(t *testing.T) {
		svc, _ := newTestService(t)
		createBooking(t, svc, futureRange(t, 10, 3)) // days 10..13

		_, err := svc.Create(ctx, CreateRequest{
			CarID:    testCarID,
			RenterID: "renter-2",
			Range:    futureRange(t, 13, 3), // starts on the return day
		})
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("day after return is free", func(t *testing.T) {
		svc, _ := newTestService(t)
		createBooking(t, svc, futureRange(t, 10, 3)) // days 10..13

		_, err := svc.Create(ctx, CreateRequest{
			CarID:    testCarID,
			RenterID: "renter-2",
			Range:    futureRange(t, 14, 3),
		})
		assert.NoError(t, err)
	})

	t.Run("rejected booking frees the dates", func(t *testing.T) {
		svc, _ := newTestService(t)
		rng := futureRange(t, 10, 3)
		b := createBooking(t, svc, rng)

		_, err := svc.UpdateStatus(ctx, b.ID, StatusRejected, testSellerID, false)
		require.NoError(t, err)

		_, err = svc.Create(ctx, CreateRequest{
			CarID:    testCarID,
			RenterID: "renter-2",
			Range:    rng,
		})
		assert.NoError(t, err)
	})
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	rng := futureRange(t, 10, 3)

	a, err := svc.CheckAvailability(ctx, testCarID, rng)
	require.NoError(t, err)
	assert.True(t, a.Available)
	assert.Empty(t, a.Conflicts)

	b := createBooking(t, svc, rng)

	a, err = svc.CheckAvailability(ctx, testCarID, futureRange(t, 12, 3))
	require.NoError(t, err)
	assert.False(t, a.Available)
	require.Len(t, a.Conflicts, 1)
	assert.Equal(t, b.ID, a.Conflicts[0].ID)

	a, err = svc.CheckAvailability(ctx, testCarID, futureRange(t, 20, 3))
	require.NoError(t, err)
	assert.True(t, a.Available)

	_, err = svc.CheckAvailability(ctx, "car-missing", rng)
	assert.ErrorIs(t, err, ErrCarNotFound)

	_, err = svc.CheckAvailability(ctx, testSaleCar, rng)
	assert.ErrorIs(t, err, ErrNotRentable)
}

func TestQuote(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	q, err := svc.Quote(ctx, testCarID, futureRange(t, 10, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, q.Days)
	assert.Equal(t, int64(5000), q.DailyRateCents)
	assert.Equal(t, int64(15000), q.SubtotalCents)
	assert.Equal(t, int64(3000), q.DepositCents)
	assert.Equal(t, int64(18000), q.TotalCents)
	assert.Equal(t, "USD", q.Currency)

	_, err = svc.Quote(ctx, testSaleCar, futureRange(t, 10, 3))
	assert.ErrorIs(t, err, ErrNotRentable)
}

func TestUpdateStatusTransitions(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		from       Status
		to         Status
		actorID    string
		isSysAdmin bool
		wantErr    error
	}{
		{name: "owner confirms pending", from: StatusPending, to: StatusConfirmed, actorID: testSellerID},
		{name: "sysadmin confirms pending", from: StatusPending, to: StatusConfirmed, actorID: "admin-1", isSysAdmin: true},
		{name: "renter cannot confirm", from: StatusPending, to: StatusConfirmed, actorID: testRenterID, wantErr: ErrPermissionDenied},
		{name: "owner rejects pending", from: StatusPending, to: StatusRejected, actorID: testSellerID},
		{name: "renter cannot reject", from: StatusPending, to: StatusRejected, actorID: testRenterID, wantErr: ErrPermissionDenied},
		{name: "renter cancels pending", from: StatusPending, to: StatusCancelled, actorID: testRenterID},
		{name: "owner cannot cancel pending", from: StatusPending, to: StatusCancelled, actorID: testSellerID, wantErr: ErrPermissionDenied},
		{name: "renter cancels confirmed before start", from: StatusConfirmed, to: StatusCancelled, actorID: testRenterID},
		{name: "owner retracts confirmed", from: StatusConfirmed, to: StatusRejected, actorID: testSellerID},
		{name: "confirmed cannot go back to pending", from: StatusConfirmed, to: StatusPending, actorID: testSellerID, wantErr: ErrInvalidTransition},
		{name: "rejected is terminal", from: StatusRejected, to: StatusConfirmed, actorID: testSellerID, wantErr: ErrInvalidTransition},
		{name: "cancelled is terminal", from: StatusCancelled, to: StatusPending, actorID: testRenterID, wantErr: ErrInvalidTransition},
		{name: "stranger is denied", from: StatusPending, to: StatusConfirmed, actorID: "stranger-1", wantErr: ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestService(t)
			rng := futureRange(t, 10, 3)
			b := repo.seed(&Booking{
				CarID:     testCarID,
				RenterID:  testRenterID,
				StartDate: rng.Start,
				EndDate:   rng.End,
				Status:    tt.from,
			})

			updated, err := svc.UpdateStatus(ctx, b.ID, tt.to, tt.actorID, tt.isSysAdmin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
		})
	}

	t.Run("invalid status value", func(t *testing.T) {
		svc, repo := newTestService(t)
		rng := futureRange(t, 10, 3)
		b := repo.seed(&Booking{
			CarID:     testCarID,
			RenterID:  testRenterID,
			StartDate: rng.Start,
			EndDate:   rng.End,
			Status:    StatusPending,
		})

		_, err := svc.UpdateStatus(ctx, b.ID, Status("archived"), testSellerID, false)
		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("unknown booking", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.UpdateStatus(ctx, "booking-404", StatusConfirmed, testSellerID, false)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("renter cannot cancel after rental start", func(t *testing.T) {
		svc, repo := newTestService(t)
		start := today().AddDate(0, 0, -2)
		b := repo.seed(&Booking{
			CarID:     testCarID,
			RenterID:  testRenterID,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 5),
			Status:    StatusConfirmed,
		})

		_, err := svc.UpdateStatus(ctx, b.ID, StatusCancelled, testRenterID, false)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestConfirmReValidates(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)
	rng := futureRange(t, 10, 3)

	first := repo.seed(&Booking{
		CarID:     testCarID,
		RenterID:  testRenterID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Status:    StatusPending,
	})
	overlapping := futureRange(t, 12, 3)
	second := repo.seed(&Booking{
		CarID:     testCarID,
		RenterID:  "renter-2",
		StartDate: overlapping.Start,
		EndDate:   overlapping.End,
		Status:    StatusPending,
	})

	_, err := svc.UpdateStatus(ctx, first.ID, StatusConfirmed, testSellerID, false)
	require.NoError(t, err)

	// The surviving pending request can no longer be approved.
	_, err = svc.UpdateStatus(ctx, second.ID, StatusConfirmed, testSellerID, false)
	assert.ErrorIs(t, err, ErrUnavailable)

	// But the owner can still reject it.
	updated, err := svc.UpdateStatus(ctx, second.ID, StatusRejected, testSellerID, false)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, updated.Status)
}

func TestGetByIDAuthorization(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	b := createBooking(t, svc, futureRange(t, 10, 3))

	got, err := svc.GetByID(ctx, b.ID, testRenterID, false)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = svc.GetByID(ctx, b.ID, testSellerID, false)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, b.ID, "admin-1", true)
	assert.NoError(t, err)

	_, err = svc.GetByID(ctx, b.ID, "stranger-1", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestListForCar(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	createBooking(t, svc, futureRange(t, 10, 3))

	bookings, err := svc.ListForCar(ctx, testCarID, testSellerID, false)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = svc.ListForCar(ctx, testCarID, "stranger-1", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	bookings, err = svc.ListForCar(ctx, testCarID, "admin-1", true)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	_, err = svc.ListForCar(ctx, "car-missing", testSellerID, false)
	assert.ErrorIs(t, err, ErrCarNotFound)
}

func TestListForRenter(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	createBooking(t, svc, futureRange(t, 10, 3))

	bookings, err := svc.ListForRenter(ctx, testRenterID)
	require.NoError(t, err)
	assert.Len(t, bookings, 1)

	bookings, err = svc.ListForRenter(ctx, "renter-2")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestListsReturnNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	first := createBooking(t, svc, futureRange(t, 10, 3))
	second := createBooking(t, svc, futureRange(t, 20, 3))
	third := createBooking(t, svc, futureRange(t, 30, 3))

	wantOrder := []string{third.ID, second.ID, first.ID}

	byRenter, err := svc.ListForRenter(ctx, testRenterID)
	require.NoError(t, err)
	require.Len(t, byRenter, 3)
	for i, b := range byRenter {
		assert.Equal(t, wantOrder[i], b.ID)
	}

	byCar, err := svc.ListForCar(ctx, testCarID, testSellerID, false)
	require.NoError(t, err)
	require.Len(t, byCar, 3)
	for i, b := range byCar {
		assert.Equal(t, wantOrder[i], b.ID)
	}
}

func TestReadsAreIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	createBooking(t, svc, futureRange(t, 10, 3))
	rng := futureRange(t, 12, 3)

	// Repeated reads return identical results and leave no trace in storage.
	firstAvail, err := svc.CheckAvailability(ctx, testCarID, rng)
	require.NoError(t, err)
	secondAvail, err := svc.CheckAvailability(ctx, testCarID, rng)
	require.NoError(t, err)
	assert.Equal(t, firstAvail, secondAvail)

	firstQuote, err := svc.Quote(ctx, testCarID, rng)
	require.NoError(t, err)
	secondQuote, err := svc.Quote(ctx, testCarID, rng)
	require.NoError(t, err)
	assert.Equal(t, firstQuote, secondQuote)

	firstList, err := svc.ListForRenter(ctx, testRenterID)
	require.NoError(t, err)
	secondList, err := svc.ListForRenter(ctx, testRenterID)
	require.NoError(t, err)
	assert.Equal(t, firstList, secondList)

	assert.Len(t, repo.bookings, 1)
}
