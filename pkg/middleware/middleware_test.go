package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/fbs-supply-service/pkg/metrics"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	Setup(router, DefaultConfig("fbs-supply-test", slog.New(slog.NewJSONHandler(io.Discard, nil))))
	return router
}

func TestErrorHandlerMapsDomainErrors(t *testing.T) {
	router := newTestRouter()
	router.GET("/supplies/:account", func(c *gin.Context) {
		_ = c.Error(errors.New("supply not found"))
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/supplies/acc-1", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RESOURCE_NOT_FOUND", body.Code)
	assert.Equal(t, "req-1", body.RequestID)
	assert.Equal(t, "/supplies/acc-1", body.Path)
}

func TestRecoveryReturnsInternalError(t *testing.T) {
	router := newTestRouter()
	router.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestNoRoute(t *testing.T) {
	router := newTestRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "ROUTE_NOT_FOUND")
}

func TestReadinessCheck(t *testing.T) {
	router := newTestRouter()
	ready := true
	router.GET("/ready", ReadinessCheck("fbs-supply-test", func(context.Context) error {
		if !ready {
			return errors.New("mongo unreachable")
		}
		return nil
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ready = false
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "mongo unreachable")
}

func TestMetricsMiddlewareRecordsRoute(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("fbs-supply-test"))
	router := newTestRouter()
	router.Use(MetricsMiddleware(m))
	router.GET("/health", HealthCheck("fbs-supply-test"))
	router.GET("/metrics", MetricsEndpoint(m))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `path="/health"`)
}
