package middleware_test

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sliea/antennadesk/internal/middleware"
)

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeaders())
	r.GET("/requests/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		name     string
		tls      bool
		wantHSTS string
	}{
		{name: "plain http", tls: false, wantHSTS: ""},
		{name: "tls", tls: true, wantHSTS: "max-age=63072000; includeSubDomains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/requests/abc", http.NoBody)
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			r.ServeHTTP(w, req)

			expected := map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Referrer-Policy":           "no-referrer",
				"Content-Security-Policy":   "default-src 'none'; frame-ancestors 'none'",
				"Cache-Control":             "no-store",
				"Strict-Transport-Security": tt.wantHSTS,
			}
			for header, want := range expected {
				if got := w.Header().Get(header); got != want {
					t.Errorf("%s = %q, want %q", header, got, want)
				}
			}
		})
	}
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(middleware.MaxBodySize(16))
	r.POST("/requests", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)

			return
		}
		c.Status(http.StatusCreated)
	})

	tests := []struct {
		name    string
		body    string
		chunked bool
		want    int
	}{
		{name: "within limit", body: `{"a":1}`, want: http.StatusCreated},
		{name: "declared too large", body: `{"notes":"` + strings.Repeat("x", 32) + `"}`, want: http.StatusRequestEntityTooLarge},
		{name: "undeclared too large", body: `{"notes":"` + strings.Repeat("x", 32) + `"}`, chunked: true, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/requests", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.chunked {
				req.ContentLength = -1
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRequestIDLogger(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(logrus.New()))

	var entry *logrus.Entry
	r.GET("/health", func(c *gin.Context) {
		entry = middleware.Logger(c, nil)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	req.Header.Set(middleware.RequestIDHeader, "client-supplied")
	r.ServeHTTP(w, req)

	rid := w.Header().Get(middleware.RequestIDHeader)
	if rid == "" || rid == "client-supplied" {
		t.Fatalf("X-Request-ID = %q, want a fresh server id", rid)
	}
	if entry == nil {
		t.Fatal("no log entry in context")
	}
	if got := entry.Data["request_id"]; got != rid {
		t.Errorf("entry request_id = %v, want %s", got, rid)
	}
	if got := entry.Data["client_request_id"]; got != "client-supplied" {
		t.Errorf("entry client_request_id = %v", got)
	}
}
