package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	dbErr    error
	redisErr error
	stats    *cache.CacheStats
}

func (f fakeChecker) DBHealth(context.Context) error    { return f.dbErr }
func (f fakeChecker) RedisHealth(context.Context) error { return f.redisErr }
func (f fakeChecker) CacheStats() *cache.CacheStats     { return f.stats }

func healthRouter(checker HealthChecker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewHealthHandler(checker)
	r.GET("/health", HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/health/extended", h.ExtendedHealthCheck)
	return r
}

func getJSON(t *testing.T, r *gin.Engine, path string) (int, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w.Code, body
}

func TestHealthCheck(t *testing.T) {
	code, body := getJSON(t, healthRouter(fakeChecker{}), "/health")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, serviceName, body["service"])
}

func TestReadinessCheck(t *testing.T) {
	code, body := getJSON(t, healthRouter(fakeChecker{}), "/ready")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ready", body["status"])

	code, body = getJSON(t, healthRouter(fakeChecker{dbErr: errors.New("dial tcp: refused")}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not_ready", body["status"])
}

func TestExtendedHealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		checker     fakeChecker
		wantCode    int
		wantStatus  string
		wantRedis   string
		wantCaching bool
	}{
		{
			name:       "no redis configured",
			checker:    fakeChecker{},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantRedis:  "disabled",
		},
		{
			name:        "all healthy",
			checker:     fakeChecker{stats: &cache.CacheStats{}},
			wantCode:    http.StatusOK,
			wantStatus:  "healthy",
			wantRedis:   "healthy",
			wantCaching: true,
		},
		{
			name:        "redis down",
			checker:     fakeChecker{stats: &cache.CacheStats{}, redisErr: errors.New("timeout")},
			wantCode:    http.StatusOK,
			wantStatus:  "degraded",
			wantRedis:   "unhealthy",
			wantCaching: true,
		},
		{
			name:       "database down",
			checker:    fakeChecker{dbErr: errors.New("timeout")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
			wantRedis:  "disabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := getJSON(t, healthRouter(tt.checker), "/health/extended")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantStatus, body["status"])
			checks := body["checks"].(map[string]interface{})
			assert.Equal(t, tt.wantRedis, checks["redis"].(map[string]interface{})["status"])
			_, hasStats := checks["cache_stats"]
			assert.Equal(t, tt.wantCaching, hasStats)
		})
	}
}
