package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *BookingHandler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/bookings")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/my", h.ListMine)
		group.GET("/calendar", h.Calendar)
		group.POST("", h.Create)
		group.POST("/check-conflict", h.CheckConflict)
		group.GET("/:id", h.Get)
		group.PATCH("/:id", h.Update)
		group.DELETE("/:id", h.Delete)
		group.POST("/:id/approve", staffMiddleware, h.Approve)
		group.POST("/:id/reject", staffMiddleware, h.Reject)
	}

	g.GET("/laboratories/:id/availability", authMiddleware, h.Availability)
}
