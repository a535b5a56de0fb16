package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *LaboratoryHandler, authMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/laboratories")
	group.Use(authMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("", staffMiddleware, h.Create)
		group.PATCH("/:id", staffMiddleware, h.Update)
		group.DELETE("/:id", staffMiddleware, h.Delete)
	}
}
