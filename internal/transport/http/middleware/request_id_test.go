package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func newRequestIDRouter(capture *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID())
	router.GET("/ping", func(c *gin.Context) {
		*capture = requestIDFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequestIDHonorsInboundHeader(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, "client-trace-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen != "client-trace-42" {
		t.Fatalf("context request id = %q, want the inbound value", seen)
	}
	if got := w.Header().Get(requestIDHeader); got != "client-trace-42" {
		t.Fatalf("response header = %q, want the inbound value", got)
	}
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if seen == "" || strings.HasPrefix(seen, "x") {
		t.Fatalf("context request id = %q, want a minted replacement", seen)
	}
	if got := w.Header().Get(requestIDHeader); got != seen {
		t.Fatalf("response header = %q, context id = %q, want them equal", got, seen)
	}
}

func TestRequestIDMintsWhenMissing(t *testing.T) {
	var seen string
	router := newRequestIDRouter(&seen)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if seen == "" {
		t.Fatal("expected a minted request id in the context")
	}
}
