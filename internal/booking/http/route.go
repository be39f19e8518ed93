package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware gin.HandlerFunc) {
	// === Public Routes ===
	// Availability and quoting hang off the car resource so browsers can
	// check dates before signing up.
	g.GET("/cars/:id/availability", h.Availability)
	g.GET("/cars/:id/quote", h.Quote)

	// === Authenticated Routes ===
	group := g.Group("/bookings", authMiddleware)
	group.POST("", h.Create)
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.PATCH("/:id/status", h.UpdateStatus)
}
