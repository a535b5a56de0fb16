package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelG-buaa/DB/internal/pkg/apperror"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func render(t *testing.T, fn func(c *gin.Context)) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	fn(c)

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestErrorUsesAppErrorKind(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", apperror.New(apperror.KindNotFound, "booking not found"))

	w, body := render(t, func(c *gin.Context) { Error(c, err) })

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "booking not found", body.Error)
	assert.Equal(t, "not_found", body.Kind)
}

func TestErrorHidesUnknownErrors(t *testing.T) {
	w, body := render(t, func(c *gin.Context) { Error(c, errors.New("pq: connection refused")) })

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", body.Error)
	assert.Empty(t, body.Kind)
}

func TestErrorWithDetails(t *testing.T) {
	err := apperror.New(apperror.KindConflict, "time slot already booked")

	w, body := render(t, func(c *gin.Context) {
		ErrorWithDetails(c, err, []string{"a", "b"})
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, []any{"a", "b"}, body.Details)
}

func TestNewPageResponseNeverNil(t *testing.T) {
	resp := NewPageResponse[int](nil, 1, 20, 0)
	assert.NotNil(t, resp.Items)
	assert.Len(t, resp.Items, 0)
}

func TestNewPageResponseTotalPages(t *testing.T) {
	assert.Equal(t, 0, NewPageResponse([]int{}, 1, 20, 0).TotalPages)
	assert.Equal(t, 1, NewPageResponse([]int{1}, 1, 20, 20).TotalPages)
	assert.Equal(t, 3, NewPageResponse([]int{1}, 1, 20, 41).TotalPages)
}
