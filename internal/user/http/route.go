package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the account endpoints and the user directory.
// Staff may browse users to see who requested a booking; only admins change them.
func RegisterRoutes(g *gin.RouterGroup, h *UserHandler, authMW, staffMW, adminMW gin.HandlerFunc) {
	accounts := g.Group("/auth")
	accounts.POST("/register", h.Register)
	accounts.POST("/login", h.Login)

	g.GET("/me", authMW, h.Me)

	directory := g.Group("/users", authMW, staffMW)
	directory.GET("", h.List)
	directory.GET("/:id", h.Get)
	directory.PATCH("/:id", adminMW, h.Update)
}
