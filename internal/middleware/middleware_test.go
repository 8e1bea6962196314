package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
)

type tokenValidatorStub struct {
	claims *models.JWTClaims
	token  string
}

func (s *tokenValidatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	if s.claims == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return s.claims, nil
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, Claims(c).UserID)
	})
	r.GET("/protected", handlers...)
	return r
}

func serve(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	stub := &tokenValidatorStub{claims: &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}}
	r := newRouter(JWT(stub))

	w := serve(r, "Bearer abc.def")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "teacher-1", w.Body.String())
	assert.Equal(t, "abc.def", stub.token)

	assert.Equal(t, http.StatusUnauthorized, serve(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Basic xyz").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "Bearer ").Code)
}

func TestJWTMiddlewareRejectsInvalidToken(t *testing.T) {
	r := newRouter(JWT(&tokenValidatorStub{}))

	w := serve(r, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), appErrors.ErrUnauthorized.Code))
}

func TestRequireRoles(t *testing.T) {
	teacher := &tokenValidatorStub{claims: &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher}}
	student := &tokenValidatorStub{claims: &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent}}

	assert.Equal(t, http.StatusOK, serve(newRouter(JWT(teacher), RequireRoles(models.RoleTeacher, models.RoleAdmin)), "Bearer t").Code)
	assert.Equal(t, http.StatusForbidden, serve(newRouter(JWT(student), RequireRoles(models.RoleTeacher, models.RoleAdmin)), "Bearer t").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(newRouter(RequireRoles(models.RoleTeacher)), "").Code)
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/sessions/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	metrics.Handler().ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `path="/sessions/:id"`)
}
