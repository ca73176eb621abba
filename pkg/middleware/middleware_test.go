package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biocap/tradedesk-api/internal/auth"
	"github.com/biocap/tradedesk-api/pkg/response"
)

const testSecret = "test-secret"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()

	guarded := r.Group("/guarded")
	guarded.Use(JWTAuth(testSecret))
	{
		guarded.GET("", func(c *gin.Context) {
			response.Success(c, gin.H{"analyst_id": auth.AnalystID(c), "role": auth.Role(c)})
		})
		guarded.GET("/pm-only", RequireRole(auth.RolePM), func(c *gin.Context) {
			response.Success(c, gin.H{"ok": true})
		})
	}
	return r
}

func token(t *testing.T, key, secret string, analystID int64, role string) string {
	t.Helper()
	s := auth.NewService(testSecret, time.Hour)
	s.RegisterAPICredentials(key, secret, analystID, role)
	resp, err := s.GenerateToken(auth.Credentials{APIKey: key, APISecret: secret})
	require.NoError(t, err)
	return resp.Token
}

func request(r *gin.Engine, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthAcceptsValidToken(t *testing.T) {
	r := newRouter()
	tok := token(t, auth.TestAnalystKey, auth.TestAnalystSecret, 1, auth.RoleAnalyst)

	w := request(r, "/guarded", tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"analyst_id":1`)
	assert.Contains(t, w.Body.String(), `"role":"analyst"`)
}

func TestJWTAuthRejectsMissingHeader(t *testing.T) {
	r := newRouter()

	w := request(r, "/guarded", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTAuthRejectsGarbageToken(t *testing.T) {
	r := newRouter()

	w := request(r, "/guarded", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRoleForbidsAnalyst(t *testing.T) {
	r := newRouter()
	tok := token(t, auth.TestAnalystKey, auth.TestAnalystSecret, 1, auth.RoleAnalyst)

	w := request(r, "/guarded/pm-only", tok)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleAllowsPM(t *testing.T) {
	r := newRouter()
	tok := token(t, auth.TestPMKey, auth.TestPMSecret, 2, auth.RolePM)

	w := request(r, "/guarded/pm-only", tok)
	assert.Equal(t, http.StatusOK, w.Code)
}
