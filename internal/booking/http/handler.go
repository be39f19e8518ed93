package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carhive/carhive-backend/internal/auth"
	"github.com/carhive/carhive-backend/internal/booking"
	"github.com/carhive/carhive-backend/internal/pkg/request"
	"github.com/carhive/carhive-backend/internal/pkg/response"
	"github.com/carhive/carhive-backend/internal/user"
)

type Handler struct {
	service     booking.Service
	userService user.Service
}

func NewHandler(service booking.Service, userService user.Service) *Handler {
	return &Handler{
		service:     service,
		userService: userService,
	}
}

// checkIsSysAdmin helper checks if the current user is a system admin.
func (h *Handler) checkIsSysAdmin(c *gin.Context, userID string) bool {
	u, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		return false
	}
	return u.IsSystemAdmin
}

func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	rng, err := booking.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	availability, err := h.service.CheckAvailability(c.Request.Context(), uri.ID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewAvailabilityResponse(availability))
}

func (h *Handler) Quote(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	rng, err := booking.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	quote, err := h.service.Quote(c.Request.Context(), uri.ID, rng)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewQuoteResponse(quote))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	renterID := auth.GetUserID(c)
	if renterID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	rng, err := booking.ParseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		response.Error(c, err)
		return
	}

	// Snapshot the renter's contact details onto the booking so the seller
	// sees them as they were at request time.
	renter, err := h.userService.GetByID(c.Request.Context(), renterID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// Valid token but the account no longer exists.
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load account"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), booking.CreateRequest{
		CarID:       req.CarID,
		RenterID:    renterID,
		RenterName:  stringValue(renter.DisplayName),
		RenterEmail: renter.Email,
		RenterPhone: stringValue(renter.Phone),
		Range:       rng,
		Notes:       req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	actorID := auth.GetUserID(c)
	isSysAdmin := h.checkIsSysAdmin(c, actorID)

	b, err := h.service.GetByID(c.Request.Context(), uri.ID, actorID, isSysAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

// List returns the caller's own bookings, or a car's full booking history
// when car_id is given and the caller owns the listing.
func (h *Handler) List(c *gin.Context) {
	var req ListBookingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	actorID := auth.GetUserID(c)
	if actorID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var (
		bookings []*booking.Booking
		err      error
	)
	if req.CarID != "" {
		isSysAdmin := h.checkIsSysAdmin(c, actorID)
		bookings, err = h.service.ListForCar(c.Request.Context(), req.CarID, actorID, isSysAdmin)
	} else {
		bookings, err = h.service.ListForRenter(c.Request.Context(), actorID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]BookingResponse, len(bookings))
	for i, b := range bookings {
		items[i] = NewBookingResponse(b)
	}

	c.JSON(http.StatusOK, gin.H{"bookings": items})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	actorID := auth.GetUserID(c)
	isSysAdmin := h.checkIsSysAdmin(c, actorID)

	b, err := h.service.UpdateStatus(c.Request.Context(), uri.ID, booking.Status(req.Status), actorID, isSysAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewBookingResponse(b))
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
