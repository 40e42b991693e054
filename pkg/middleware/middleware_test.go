package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sensorhub/telemetry-api/internal/apperr"
	"sensorhub/telemetry-api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGateRouter(t *testing.T) (*gin.Engine, *security.TokenIssuer) {
	t.Helper()

	iss := security.NewTokenIssuer("gate-secret", time.Hour, "test")
	gate := NewSessionGate(iss, "session_token", "/app/login")

	r := gin.New()
	r.Use(NewRequestIDMiddleware())

	whoami := func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID"))
	}
	r.GET("/api", gate.Require(PolicyAPI), whoami)
	r.GET("/page", gate.Require(PolicyInteractive), whoami)

	return r, iss
}

func TestSessionGateSources(t *testing.T) {
	r, iss := newGateRouter(t)

	a, err := iss.Issue("user-a", "a@example.com")
	require.NoError(t, err)
	b, err := iss.Issue("user-b", "b@example.com")
	require.NoError(t, err)

	tests := []struct {
		name     string
		header   string
		cookie   string
		wantCode int
		wantUser string
	}{
		{"bearer header", "Bearer " + a, "", http.StatusOK, "user-a"},
		{"lowercase scheme", "bearer " + a, "", http.StatusOK, "user-a"},
		{"cookie only", "", b, http.StatusOK, "user-b"},
		{"header wins over cookie", "Bearer " + a, b, http.StatusOK, "user-a"},
		{"bad bearer does not fall back", "Bearer garbage", b, http.StatusUnauthorized, ""},
		{"non bearer header uses cookie", "Basic dXNlcjpwYXNz", b, http.StatusOK, "user-b"},
		{"nothing", "", "", http.StatusUnauthorized, ""},
		{"bad cookie", "", "garbage", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "session_token", Value: tt.cookie})
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantUser != "" {
				assert.Equal(t, tt.wantUser, w.Body.String())
			}
		})
	}
}

func TestSessionGateAPIPolicy(t *testing.T) {
	r, _ := newGateRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Header().Get("Location"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unauthorized", body["code"])
	assert.NotEmpty(t, body["error"])
	assert.NotEmpty(t, body["requestID"])
}

func TestSessionGateInteractivePolicy(t *testing.T) {
	r, _ := newGateRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/page?x=1", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: "expired-or-bad"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/app/login?next=%2Fpage%3Fx%3D1", w.Header().Get("Location"))
}

func TestSessionGateExpiredToken(t *testing.T) {
	r, _ := newGateRouter(t)

	expired, err := security.NewTokenIssuer("gate-secret", -time.Minute, "test").Issue("user-a", "a@example.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/page", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "trace-123", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\nwith newline")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "bad id\nwith newline", w.Body.String())
}

func TestRateLimiter(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2})

	r := gin.New()
	r.Use(NewRequestIDMiddleware(), l.Middleware())
	r.POST("/login", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// other clients have their own bucket
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	l.sweep(time.Now().Add(time.Hour))
	assert.Empty(t, l.visitors)
}

func TestBodySizeLimiter(t *testing.T) {
	r := gin.New()
	r.Use(NewRequestIDMiddleware(), BodySizeLimiter(16))
	r.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			apperr.Abort(c, apperr.Bind(err, "Invalid request body"))
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// no Content-Length, so only the MaxBytesReader can catch it
	req := httptest.NewRequest(http.MethodPost, "/", io.MultiReader(strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
