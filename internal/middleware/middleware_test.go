package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"projectcrm/internal/authz"
)

type stubParser struct{}

func (stubParser) ParseToken(token string) (*authz.Claims, error) {
	switch token {
	case "manager":
		return &authz.Claims{UserID: 1, RoleID: authz.RoleManager}, nil
	case "audit":
		return &authz.Claims{UserID: 2, RoleID: authz.RoleAudit}, nil
	}
	return nil, errors.New("bad token")
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	r.Use(AuthMiddleware(stubParser{}))
	r.GET("/login", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/tasks", func(c *gin.Context) {
		uid, _ := c.Get(CtxUserID)
		c.JSON(http.StatusOK, gin.H{"user_id": uid})
	})

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/login", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/tasks", "forged").Code)

	w := do(r, http.MethodGet, "/tasks", "manager")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":1}`, w.Body.String())
}

func TestRoleGuards(t *testing.T) {
	r := newRouter()
	r.Use(AuthMiddleware(stubParser{}), ReadOnlyGuard())
	r.GET("/budget", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/allocations", RequireRoles(authz.RoleManager, authz.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusCreated) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/budget", "audit").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/allocations", "audit").Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/allocations", "manager").Code)
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter()
	r.Use(RequestLogger(zap.New(core).Sugar()))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := do(r, http.MethodGet, "/healthz", "")
	reqID := w.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(reqID)
	assert.NoError(t, err)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		fields := entries[0].ContextMap()
		assert.Equal(t, reqID, fields["request_id"])
		assert.Equal(t, int64(http.StatusNoContent), fields["status"])
		assert.Equal(t, "/healthz", fields["path"])
	}
}
