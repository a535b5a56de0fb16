package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/AngelG-buaa/DB/internal/auth"
	"github.com/AngelG-buaa/DB/internal/pkg/metrics"
	"github.com/AngelG-buaa/DB/internal/user"
)

type mockUsers struct {
	mock.Mock
	user.Service
}

func (m *mockUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*user.User)
	return u, args.Error(1)
}

func newProtectedRouter(users user.Service, jwtManager *auth.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{chain(auth.AuthRequired(jwtManager), LoadActor(users))}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, auth.GetUserRole(c))
	})
	r.GET("/protected", handlers...)
	return r
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoadActorAndRoleGates(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Minute)

	users := new(mockUsers)
	users.On("GetByID", mock.Anything, "student-1").Return(&user.User{ID: "student-1", Role: user.RoleStudent, IsActive: true}, nil)
	users.On("GetByID", mock.Anything, "teacher-1").Return(&user.User{ID: "teacher-1", Role: user.RoleTeacher, IsActive: true}, nil)
	users.On("GetByID", mock.Anything, "admin-1").Return(&user.User{ID: "admin-1", Role: user.RoleAdmin, IsActive: true}, nil)
	users.On("GetByID", mock.Anything, "gone-1").Return(nil, user.ErrNotFound)
	users.On("GetByID", mock.Anything, "inactive-1").Return(&user.User{ID: "inactive-1", Role: user.RoleAdmin}, nil)

	token := func(id string) string {
		tok, err := jwtManager.GenerateAccessToken(id, id+"@lab.test")
		require.NoError(t, err)
		return tok
	}

	t.Run("role is loaded", func(t *testing.T) {
		w := get(newProtectedRouter(users, jwtManager), token("teacher-1"))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "teacher", w.Body.String())
	})

	t.Run("missing token stops the chain", func(t *testing.T) {
		w := get(newProtectedRouter(users, jwtManager), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		users.AssertNotCalled(t, "GetByID", mock.Anything, "")
	})

	t.Run("unknown and inactive users", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, get(newProtectedRouter(users, jwtManager), token("gone-1")).Code)
		assert.Equal(t, http.StatusUnauthorized, get(newProtectedRouter(users, jwtManager), token("inactive-1")).Code)
	})

	t.Run("staff gate", func(t *testing.T) {
		r := newProtectedRouter(users, jwtManager, RequireStaff())
		assert.Equal(t, http.StatusForbidden, get(r, token("student-1")).Code)
		assert.Equal(t, http.StatusOK, get(r, token("teacher-1")).Code)
		assert.Equal(t, http.StatusOK, get(r, token("admin-1")).Code)
	})

	t.Run("admin gate", func(t *testing.T) {
		r := newProtectedRouter(users, jwtManager, RequireAdmin())
		assert.Equal(t, http.StatusForbidden, get(r, token("student-1")).Code)
		assert.Equal(t, http.StatusForbidden, get(r, token("teacher-1")).Code)
		assert.Equal(t, http.StatusOK, get(r, token("admin-1")).Code)
	})
}

func TestObservabilityMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.NewWithRegistry(prometheus.NewRegistry())

	r := gin.New()
	r.Use(RequestID(), RequestLogger(), Prometheus(m))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/items/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/items/:id", "418")))

	req = httptest.NewRequest(http.MethodGet, "/items/43", nil)
	req.Header.Set(headerRequestID, "req-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get(headerRequestID))
}

func TestSplitOrigins(t *testing.T) {
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, splitOrigins(" https://a.example, ,https://b.example "))
	assert.Empty(t, splitOrigins(""))
}
