package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *EquipmentHandler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/equipment")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", staffMiddleware, h.Create)
		group.PATCH("/:id", staffMiddleware, h.Update)
		group.DELETE("/:id", staffMiddleware, h.Delete)
	}

	g.GET("/laboratories/:id/equipment", authMiddleware, h.ListByLaboratory)
}
