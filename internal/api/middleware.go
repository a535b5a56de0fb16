package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AngelG-buaa/DB/internal/auth"
	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
	"github.com/AngelG-buaa/DB/internal/pkg/response"
	"github.com/AngelG-buaa/DB/internal/user"
)

// LoadActor resolves the role of the authenticated user and stores it in the context.
// It MUST be used after auth.AuthRequired middleware.
func LoadActor(userService user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := auth.GetUserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "unauthorized"})
			return
		}

		u, err := userService.GetByID(c.Request.Context(), userID)
		if err != nil {
			if appErr, ok := apperror.As(err); ok && appErr.Kind == apperror.KindNotFound {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "user not found"})
				return
			}
			response.Error(c, err)
			c.Abort()
			return
		}
		if !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "user is inactive"})
			return
		}

		auth.SetUserRole(c, string(u.Role))
	}
}

// RequireStaff lets teachers and admins through. It MUST be used after LoadActor.
func RequireStaff() gin.HandlerFunc {
	return requireRole("forbidden: staff access required", user.Role.IsStaff)
}

// RequireAdmin lets admins through. It MUST be used after LoadActor.
func RequireAdmin() gin.HandlerFunc {
	return requireRole("forbidden: admin access required", func(r user.Role) bool {
		return r == user.RoleAdmin
	})
}

func requireRole(message string, allowed func(user.Role) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !allowed(user.Role(auth.GetUserRole(c))) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorResponse{
				Error: message,
				Kind:  string(apperror.KindPermission),
			})
			return
		}
		c.Next()
	}
}
