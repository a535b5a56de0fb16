package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
	"github.com/AngelG-buaa/DB/internal/pkg/logger"
)

// ErrorResponse defines the JSON structure for error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details any    `json:"details,omitempty"`
}

// Error sends a JSON error response.
// It checks if the error is an AppError to determine the status code.
// If it's not an AppError, it defaults to 500 Internal Server Error.
func Error(c *gin.Context, err error) {
	ErrorWithDetails(c, err, nil)
}

// ErrorWithDetails is Error with an extra payload rendered under "details".
func ErrorWithDetails(c *gin.Context, err error, details any) {
	appErr, ok := apperror.As(err)
	if !ok {
		logger.Error("unhandled error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if appErr.Code >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(appErr.Err),
		)
	}

	c.JSON(appErr.Code, ErrorResponse{
		Error:   appErr.Message,
		Kind:    string(appErr.Kind),
		Details: details,
	})
}

// BadRequest reports a binding or validation failure that did not reach the service layer.
func BadRequest(c *gin.Context, message string, err error) {
	body := ErrorResponse{Error: message, Kind: string(apperror.KindValidation)}
	if err != nil {
		body.Details = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}
