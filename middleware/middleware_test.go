package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tastemichigan/api-go/metrics"
	"github.com/tastemichigan/api-go/utils"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func adminRouter() *gin.Engine {
	r := gin.New()
	r.GET("/admin", AdminAuth(testSecret), func(c *gin.Context) {
		admin := utils.GetAdmin(c)
		c.String(http.StatusOK, admin.Username)
	})
	return r
}

func signed(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestAdminAuth(t *testing.T) {
	valid, _, err := utils.IssueAdminToken(testSecret, "editor", time.Hour)
	if err != nil {
		t.Fatalf("IssueAdminToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"no bearer prefix", valid, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signed(t, "other", jwt.MapClaims{"username": "x", "role": "admin"}), http.StatusUnauthorized},
		{"expired", "Bearer " + signed(t, testSecret, jwt.MapClaims{"username": "x", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"not admin", "Bearer " + signed(t, testSecret, jwt.MapClaims{"username": "x", "role": "viewer"}), http.StatusForbidden},
		{"valid", "Bearer " + valid, http.StatusOK},
	}

	r := adminRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.want, w.Body.String())
			}
			if tt.want == http.StatusOK && w.Body.String() != "editor" {
				t.Errorf("admin claims not set, body = %q", w.Body.String())
			}
		})
	}
}

func TestAdminAuthWithoutSecret(t *testing.T) {
	r := gin.New()
	r.GET("/admin", AdminAuth(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestIngestKey(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		provided   string
		want       int
	}{
		{"unconfigured", "", "anything", http.StatusInternalServerError},
		{"missing", "k3y", "", http.StatusUnauthorized},
		{"wrong", "k3y", "nope", http.StatusUnauthorized},
		{"match", "k3y", "k3y", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.POST("/ingest", IngestKey(tt.configured), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
			if tt.provided != "" {
				req.Header.Set(IngestKeyHeader, tt.provided)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	if generated == "" || generated != seen {
		t.Fatalf("generated id %q, handler saw %q", generated, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if got := w.Header().Get(RequestIDHeader); got != "upstream-123" || seen != "upstream-123" {
		t.Errorf("upstream id not propagated: header %q, handler %q", got, seen)
	}
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/places/:slug", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/places/:slug", "404")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/places/some-diner", nil))

	if after := testutil.ToFloat64(counter); after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
	if active := testutil.ToFloat64(metrics.APIActiveRequests); active != 0 {
		t.Errorf("active requests = %v after completion", active)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	r := gin.New()
	r.POST("/ingest", rl.Handler(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
		req.RemoteAddr = "203.0.113.9:4000"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes = %v, want [200 200 429]", codes)
	}

	other := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	other.RemoteAddr = "198.51.100.1:4000"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, other)
	if w.Code != http.StatusOK {
		t.Errorf("other client should have its own bucket, got %d", w.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.Allow("a")
	rl.Allow("b")
	rl.limiters["a"].lastAccess = time.Now().Add(-2 * limiterIdleTTL)

	rl.Cleanup()

	if _, ok := rl.limiters["a"]; ok {
		t.Error("idle limiter should be removed")
	}
	if _, ok := rl.limiters["b"]; !ok {
		t.Error("active limiter should be kept")
	}
}
