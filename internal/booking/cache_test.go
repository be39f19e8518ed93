package booking

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carhive/carhive-backend/internal/car"
)

func newCachedTestService(t *testing.T) (Service, *fakeRepo, redismock.ClientMock) {
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
	}}

	rdb, mock := redismock.NewClientMock()
	return NewService(repo, cars, rdb), repo, mock
}

func TestAvailabilityCacheMissPopulatesCache(t *testing.T) {
	ctx := context.Background()
	svc, repo, mock := newCachedTestService(t)

	rng := futureRange(t, 10, 3)
	seeded := repo.seed(&Booking{
		CarID:     testCarID,
		RenterID:  testRenterID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Status:    StatusPending,
	})

	active, err := repo.ListActive(ctx, testCarID)
	require.NoError(t, err)
	cached, err := json.Marshal(active)
	require.NoError(t, err)

	key := activeBookingsKey(testCarID)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, cached, activeBookingsTTL).SetVal("OK")

	a, err := svc.CheckAvailability(ctx, testCarID, rng)
	require.NoError(t, err)
	assert.False(t, a.Available)
	require.Len(t, a.Conflicts, 1)
	assert.Equal(t, seeded.ID, a.Conflicts[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAvailabilityCacheHitSkipsRepository(t *testing.T) {
	ctx := context.Background()
	svc, repo, mock := newCachedTestService(t)

	rng := futureRange(t, 10, 3)
	// The cached entry exists only in Redis; the repository stays empty, so a
	// conflict in the result proves the cache was used.
	cached, err := json.Marshal([]*Booking{{
		ID:        "booking-cached",
		CarID:     testCarID,
		RenterID:  testRenterID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Status:    StatusConfirmed,
	}})
	require.NoError(t, err)
	require.Empty(t, repo.bookings)

	mock.ExpectGet(activeBookingsKey(testCarID)).SetVal(string(cached))

	a, err := svc.CheckAvailability(ctx, testCarID, rng)
	require.NoError(t, err)
	assert.False(t, a.Available)
	require.Len(t, a.Conflicts, 1)
	assert.Equal(t, "booking-cached", a.Conflicts[0].ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, mock := newCachedTestService(t)

	key := activeBookingsKey(testCarID)

	// Pre-insert availability check reads through the empty cache, then the
	// write drops the key.
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, []byte("null"), activeBookingsTTL).SetVal("OK")
	mock.ExpectDel(key).SetVal(1)

	_, err := svc.Create(ctx, CreateRequest{
		CarID:       testCarID,
		RenterID:    testRenterID,
		RenterEmail: "alex@example.com",
		Range:       futureRange(t, 10, 3),
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatusChangeInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	svc, repo, mock := newCachedTestService(t)

	rng := futureRange(t, 10, 3)
	b := repo.seed(&Booking{
		CarID:     testCarID,
		RenterID:  testRenterID,
		StartDate: rng.Start,
		EndDate:   rng.End,
		Status:    StatusPending,
	})

	mock.ExpectDel(activeBookingsKey(testCarID)).SetVal(1)

	_, err := svc.UpdateStatus(ctx, b.ID, StatusConfirmed, testSellerID, false)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
