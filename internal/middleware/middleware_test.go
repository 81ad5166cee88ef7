package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/robinhoot/robinhoot_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRateLimiterBlocksAfterMaxFailures(t *testing.T) {
	rl := NewInvalidAuthRateLimiter(3, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if rl.Blocked("1.2.3.4") {
			t.Fatalf("blocked too early at attempt %d", i)
		}
		rl.RecordFailure("1.2.3.4")
	}
	if !rl.Blocked("1.2.3.4") {
		t.Error("expected block after 3 failures")
	}
	if rl.Blocked("5.6.7.8") {
		t.Error("other IPs must not be blocked")
	}

	now = now.Add(2 * time.Minute)
	if rl.Blocked("1.2.3.4") {
		t.Error("block should expire with the window")
	}
}

func TestRateLimiterReset(t *testing.T) {
	rl := NewInvalidAuthRateLimiter(1, time.Minute)
	rl.RecordFailure("ip")
	if !rl.Blocked("ip") {
		t.Fatal("expected block")
	}
	rl.Reset("ip")
	if rl.Blocked("ip") {
		t.Error("reset should unblock")
	}
}

func newProtectedRouter(roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/p", NewJWTMiddleware().Handle(), RequireRole(roles...), func(c *gin.Context) {
		c.JSON(200, gin.H{"userId": GetUserID(c)})
	})
	return r
}

func TestJWTAndRoleMiddleware(t *testing.T) {
	utils.InitJWT("mw-secret", time.Hour)
	adminToken, _, _ := utils.GenerateJWT(1, "admin@example.com", "admin")
	customerToken, _, _ := utils.GenerateJWT(2, "c@example.com", "customer")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + customerToken, want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + adminToken, want: http.StatusOK},
	}

	router := newProtectedRouter("admin")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("got %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestCORSOriginPolicy(t *testing.T) {
	r := gin.New()
	r.Use(NewCORSMiddleware([]string{"https://robinhoot.com", "https://*.robinhoot.com", "http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantAllowed bool
	}{
		{name: "exact origin", method: http.MethodGet, origin: "https://robinhoot.com", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "default port stripped", method: http.MethodGet, origin: "https://robinhoot.com:443", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "wildcard subdomain", method: http.MethodGet, origin: "https://admin.robinhoot.com", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "wildcard needs matching scheme", method: http.MethodGet, origin: "http://admin.robinhoot.com", wantStatus: http.StatusOK},
		{name: "lookalike domain", method: http.MethodGet, origin: "https://evilrobinhoot.com", wantStatus: http.StatusOK},
		{name: "dev origin with port", method: http.MethodGet, origin: "http://localhost:3000", wantStatus: http.StatusOK, wantAllowed: true},
		{name: "no origin", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "allowed preflight", method: http.MethodOptions, origin: "https://admin.robinhoot.com", wantStatus: http.StatusNoContent, wantAllowed: true},
		{name: "unknown preflight refused", method: http.MethodOptions, origin: "https://evil.example.com", wantStatus: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/x", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", w.Code, tt.wantStatus)
			}
			got := w.Header().Get("Access-Control-Allow-Origin")
			if tt.wantAllowed && got != tt.origin {
				t.Errorf("allow origin: got %q, want %q", got, tt.origin)
			}
			if !tt.wantAllowed && got != "" {
				t.Errorf("origin must not be allowed, got %q", got)
			}
		})
	}
}
