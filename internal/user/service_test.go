package user

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carhive/carhive-backend/internal/auth"
)

type fakeRepo struct {
	byID    map[string]*User
	byEmail map[string]*User
	nextID  int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:    make(map[string]*User),
		byEmail: make(map[string]*User),
	}
}

func (r *fakeRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *fakeRepo) Create(_ context.Context, u *User) error {
	if _, ok := r.byEmail[u.Email]; ok {
		return ErrEmailAlreadyUsed
	}
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now().UTC()
	copied := *u
	r.byID[u.ID] = &copied
	r.byEmail[u.Email] = &copied
	return nil
}

func (r *fakeRepo) UpdateLastLogin(_ context.Context, id string, t time.Time) error {
	if u, ok := r.byID[id]; ok {
		u.LastLoginAt = &t
	}
	return nil
}

func (r *fakeRepo) List(_ context.Context, _ Filter) ([]*User, int, error) {
	var out []*User
	for _, u := range r.byID {
		copied := *u
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (r *fakeRepo) Update(_ context.Context, u *User) error {
	if _, ok := r.byID[u.ID]; !ok {
		return ErrNotFound
	}
	copied := *u
	r.byID[u.ID] = &copied
	r.byEmail[u.Email] = &copied
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	u.IsActive = false
	return nil
}

func newTestService() Service {
	return NewService(newFakeRepo(), auth.NewBcryptPasswordHasherWithCost(4))
}

func TestRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path", func(t *testing.T) {
		svc := newTestService()
		u, err := svc.Register(ctx, RegisterRequest{
			Email:       "Alex@Example.com",
			Password:    "hunter22-long",
			DisplayName: "Alex",
			Phone:       "+1 555 0100",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, u.ID)
		// Email is normalized at registration.
		assert.Equal(t, "alex@example.com", u.Email)
		assert.True(t, u.IsActive)
		assert.False(t, u.IsSystemAdmin)
		assert.NotEqual(t, "hunter22-long", u.PasswordHash)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Email: "alex@example.com", Password: "hunter22-long"})
		require.NoError(t, err)

		_, err = svc.Register(ctx, RegisterRequest{Email: "ALEX@example.com", Password: "hunter22-long"})
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("missing email", func(t *testing.T) {
		svc := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Email: "   ", Password: "hunter22-long"})
		assert.ErrorIs(t, err, ErrEmailRequired)
	})

	t.Run("short password", func(t *testing.T) {
		svc := newTestService()
		_, err := svc.Register(ctx, RegisterRequest{Email: "alex@example.com", Password: "short"})
		assert.ErrorIs(t, err, ErrPasswordTooShort)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	registered, err := svc.Register(ctx, RegisterRequest{Email: "alex@example.com", Password: "hunter22-long"})
	require.NoError(t, err)

	t.Run("happy path", func(t *testing.T) {
		u, err := svc.Login(ctx, "alex@example.com", "hunter22-long")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "alex@example.com", "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@example.com", "hunter22-long")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("deleted account cannot log in", func(t *testing.T) {
		other, err := svc.Register(ctx, RegisterRequest{Email: "sam@example.com", Password: "hunter22-long"})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(ctx, other.ID))

		// The record survives as a deactivated account.
		u, err := svc.GetByID(ctx, other.ID)
		require.NoError(t, err)
		assert.False(t, u.IsActive)

		_, err = svc.Login(ctx, "sam@example.com", "hunter22-long")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})

	t.Run("delete unknown user", func(t *testing.T) {
		assert.ErrorIs(t, svc.Delete(ctx, "user-404"), ErrNotFound)
	})

	t.Run("deactivated account", func(t *testing.T) {
		inactive := false
		_, err := svc.Update(ctx, registered.ID, UpdateRequest{IsActive: &inactive})
		require.NoError(t, err)

		_, err = svc.Login(ctx, "alex@example.com", "hunter22-long")
		assert.ErrorIs(t, err, ErrInactiveUser)
	})
}
