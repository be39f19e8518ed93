package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carhive/carhive-backend/internal/auth"
	"github.com/carhive/carhive-backend/internal/car"
	"github.com/carhive/carhive-backend/internal/pkg/request"
	"github.com/carhive/carhive-backend/internal/pkg/response"
	"github.com/carhive/carhive-backend/internal/user"
)

type Handler struct {
	service     car.Service
	userService user.Service
}

func NewHandler(service car.Service, userService user.Service) *Handler {
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

func (h *Handler) List(c *gin.Context) {
	var req ListCarsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query", "details": err.Error()})
		return
	}

	filter := car.Filter{
		SellerID:          req.SellerID,
		ListingType:       req.ListingType,
		Make:              req.Make,
		MaxDailyRateCents: req.MaxDailyRateCents,
		Page:              req.Page,
		PageSize:          req.PageSize,
		SortBy:            req.SortBy,
		SortOrder:         req.SortOrder,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	cars, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list cars"})
		return
	}

	items := make([]CarResponse, len(cars))
	for i, it := range cars {
		items[i] = NewCarResponse(it)
	}

	c.JSON(http.StatusOK, response.NewPageResponse(items, filter.Page, filter.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	listing, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCarResponse(listing))
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	sellerID := auth.GetUserID(c)
	if sellerID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	listing, err := h.service.Create(c.Request.Context(), car.CreateRequest{
		SellerID:       sellerID,
		Title:          req.Title,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		Location:       req.Location,
		ListingType:    req.ListingType,
		DailyRateCents: req.DailyRateCents,
		PriceCents:     req.PriceCents,
		Currency:       req.Currency,
		Description:    req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCarResponse(listing))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	var req UpdateCarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	actorID := auth.GetUserID(c)
	isSysAdmin := h.checkIsSysAdmin(c, actorID)

	listing, err := h.service.Update(c.Request.Context(), uri.ID, car.UpdateRequest{
		Title:          req.Title,
		Make:           req.Make,
		Model:          req.Model,
		Year:           req.Year,
		Mileage:        req.Mileage,
		Location:       req.Location,
		DailyRateCents: req.DailyRateCents,
		PriceCents:     req.PriceCents,
		Description:    req.Description,
		IsActive:       req.IsActive,
	}, actorID, isSysAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCarResponse(listing))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	actorID := auth.GetUserID(c)
	isSysAdmin := h.checkIsSysAdmin(c, actorID)

	if err := h.service.Deactivate(c.Request.Context(), uri.ID, actorID, isSysAdmin); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
