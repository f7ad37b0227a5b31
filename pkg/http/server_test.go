package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	applogger "TrendCast/pkg/logger"
)

type echoHandler struct{}

type echoRequest struct {
	Name  string `query:"name" validate:"required"`
	Count int    `query:"count" default:"3" validate:"gte=1,lte=10"`
}

func (echoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/echo", func(c echo.Context) error {
		req := &echoRequest{}
		if verr := ReadAndValidateRequest(c, req); verr != nil {
			return BadRequestResponse(c, verr)
		}
		return SuccessResponse(c, req)
	})
	e.GET("/boom", func(c echo.Context) error {
		return AppErrorResponse(c, UnprocessableError("not enough data").WithParam("required", 60))
	})
	e.GET("/panic", func(echo.Context) error { panic("kaboom") })
}

func newTestServer(opts ...ServerOption) *Server {
	return NewServer(applogger.Nop(), []Handler{echoHandler{}}, opts...)
}

func get(t *testing.T, s *Server, target string) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body APIResponse
	if rec.Header().Get(echo.HeaderContentType) != "" && rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestValidationUsesQueryNamesAndDefaults(t *testing.T) {
	s := newTestServer()

	rec, body := get(t, s, "/echo?name=x")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3.0, body.Data.(map[string]interface{})["Count"])

	rec, body = get(t, s, "/echo?count=50")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	errs := body.Data.([]interface{})
	require.Len(t, errs, 2)
	fields := []string{
		errs[0].(map[string]interface{})["field"].(string),
		errs[1].(map[string]interface{})["field"].(string),
	}
	assert.ElementsMatch(t, []string{"name", "count"}, fields)
}

func TestAppErrorStatus(t *testing.T) {
	rec, body := get(t, newTestServer(), "/boom")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, http.StatusUnprocessableEntity, body.Status)
	first := body.Data.([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "ERR_UNPROCESSABLE", first["code"])
}

func TestRecoverFromPanic(t *testing.T) {
	rec, _ := get(t, newTestServer(), "/panic")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthz(t *testing.T) {
	rec, _ := get(t, newTestServer(WithHealthCheck("store", func(context.Context) error { return nil })), "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := get(t, newTestServer(WithHealthCheck("store", func(context.Context) error { return errors.New("down") })), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "down", body.Data.(map[string]interface{})["store"])
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(WithMetrics(prometheus.NewRegistry(), "/metrics"))
	get(t, s, "/echo?name=x")

	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `trendcast_http_requests_total{method="GET",route="/echo",status="200"} 1`)
}
