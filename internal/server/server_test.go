package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/physicsuniverse/Covariant-Derivative/internal/config"
	"github.com/physicsuniverse/Covariant-Derivative/mcp"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const sphereCall = `{"tool":"ricci_scalar","params":{"metric":{"coords":["θ","φ"],"entries":["1","0","0","sin(θ)^2"]}}}`

func testConfig() config.Server {
	cfg := config.DefaultServer()
	cfg.RateLimit = 0
	return cfg
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, mcp.ToolResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/tool", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	var resp mcp.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func TestTool_RicciScalar(t *testing.T) {
	s := New(testConfig(), nil)
	w, resp := post(t, s.Handler(), sphereCall)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "2", resp.String)
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))

	// the connection is cached across requests
	_, _ = post(t, s.Handler(), sphereCall)
	stats := s.Cache().Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestTool_DomainErrorIsOK(t *testing.T) {
	s := New(testConfig(), nil)
	w, resp := post(t, s.Handler(), `{"tool":"weyl","params":{"metric":{"coords":["x","y"],"entries":["1","0","0","1"]}}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, mcp.CodeUnsupportedDimension, resp.Code)
}

func TestTool_BadRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"not json", `{"tool":`, http.StatusBadRequest},
		{"unknown field", `{"tool":"parse","params":{},"extra":1}`, http.StatusBadRequest},
		{"trailing data", `{"tool":"parse","params":{"expr":"x"}} {}`, http.StatusBadRequest},
		{"no tool", `{"params":{}}`, http.StatusBadRequest},
	}
	s := New(testConfig(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := post(t, s.Handler(), tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, mcp.CodeBadRequest, resp.Code)
		})
	}
}

func TestTool_BodyLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	s := New(cfg, nil)
	body := `{"tool":"parse","params":{"expr":"` + strings.Repeat("x+", 100) + `x"}}`
	w, resp := post(t, s.Handler(), body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, mcp.CodeBadRequest, resp.Code)
}

func TestTool_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.Burst = 1
	s := New(cfg, nil)
	w, _ := post(t, s.Handler(), `{"tool":"parse","params":{"expr":"x"}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w, resp := post(t, s.Handler(), `{"tool":"parse","params":{"expr":"x"}}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, CodeRateLimited, resp.Code)
}

func TestTool_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrent = 1
	cfg.RequestTimeout = 50 * time.Millisecond
	s := New(cfg, nil)
	require.True(t, s.sem.TryAcquire(1))
	defer s.sem.Release(1)

	w, resp := post(t, s.Handler(), `{"tool":"parse","params":{"expr":"x"}}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, CodeBusy, resp.Code)
}

func TestTool_Timeout(t *testing.T) {
	cfg := testConfig()
	cfg.RequestTimeout = 20 * time.Millisecond
	s := New(cfg, nil)
	release := make(chan struct{})
	defer close(release)
	s.handle = func(mcp.ToolRequest) mcp.ToolResponse {
		<-release
		return mcp.ToolResponse{}
	}
	w, resp := post(t, s.Handler(), `{"tool":"parse","params":{"expr":"x"}}`)
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, CodeTimeout, resp.Code)
}

func TestSchemaHealthMetrics(t *testing.T) {
	s := New(testConfig(), nil)
	_, _ = post(t, s.Handler(), sphereCall)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/schema", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "covariant_derivative")

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `gotensor_tool_calls_total{code="ok",tool="ricci_scalar"} 1`)
	assert.Contains(t, body, "gotensor_christoffel_cache_misses_total 1")
}

func TestRequestID_Propagated(t *testing.T) {
	s := New(testConfig(), nil)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(requestIDHeader))
}

func TestServe_Shutdown(t *testing.T) {
	s := New(testConfig(), nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- s.Serve(ctx, ln) }()

	resp, err := http.Post("http://"+ln.Addr().String()+"/tool", "application/json", bytes.NewBufferString(`{"tool":"parse","params":{"expr":"x"}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
