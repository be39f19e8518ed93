package car

import (
	"context"
	"strings"
)

type CreateRequest struct {
	SellerID       string
	Title          string
	Make           string
	Model          string
	Year           int
	Mileage        int
	Location       string
	ListingType    string
	DailyRateCents int64
	PriceCents     int64
	Currency       string
	Description    string
}

// UpdateRequest carries the mutable listing fields. Nil means "leave as is".
type UpdateRequest struct {
	Title          *string
	Make           *string
	Model          *string
	Year           *int
	Mileage        *int
	Location       *string
	DailyRateCents *int64
	PriceCents     *int64
	Description    *string
	IsActive       *bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Car, error)
	GetByID(ctx context.Context, id string) (*Car, error)
	List(ctx context.Context, filter Filter) ([]*Car, int, error)
	Update(ctx context.Context, id string, req UpdateRequest, actorID string, isSysAdmin bool) (*Car, error)
	Deactivate(ctx context.Context, id string, actorID string, isSysAdmin bool) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Car, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrEmptyTitle
	}

	lt := ListingType(req.ListingType)
	switch lt {
	case ListingRent:
		if req.DailyRateCents <= 0 {
			return nil, ErrInvalidDailyRate
		}
	case ListingSale:
		if req.PriceCents <= 0 {
			return nil, ErrInvalidPrice
		}
	default:
		return nil, ErrInvalidListingType
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	c := &Car{
		SellerID:       req.SellerID,
		Title:          strings.TrimSpace(req.Title),
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		Location:       req.Location,
		ListingType:    lt,
		DailyRateCents: req.DailyRateCents,
		PriceCents:     req.PriceCents,
		Currency:       currency,
		Description:    req.Description,
		IsActive:       true,
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Car, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Car, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id string, req UpdateRequest, actorID string, isSysAdmin bool) (*Car, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only the seller who listed the car (or a system admin) may modify it.
	if c.SellerID != actorID && !isSysAdmin {
		return nil, ErrPermissionDenied
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrEmptyTitle
		}
		c.Title = strings.TrimSpace(*req.Title)
	}
	if req.Make != nil {
		c.Make = *req.Make
	}
	if req.Model != nil {
		c.Model = *req.Model
	}
	if req.Year != nil {
		c.Year = *req.Year
	}
	if req.Mileage != nil {
		c.Mileage = *req.Mileage
	}
	if req.Location != nil {
		c.Location = *req.Location
	}
	if req.DailyRateCents != nil {
		if c.ListingType == ListingRent && *req.DailyRateCents <= 0 {
			return nil, ErrInvalidDailyRate
		}
		c.DailyRateCents = *req.DailyRateCents
	}
	if req.PriceCents != nil {
		if c.ListingType == ListingSale && *req.PriceCents <= 0 {
			return nil, ErrInvalidPrice
		}
		c.PriceCents = *req.PriceCents
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Deactivate(ctx context.Context, id string, actorID string, isSysAdmin bool) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if c.SellerID != actorID && !isSysAdmin {
		return ErrPermissionDenied
	}

	return s.repo.Deactivate(ctx, id)
}
