package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medovik-lab/honeybot-backend/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func TestRequestIDKeepsCleanInboundHeader(t *testing.T) {
	var seen string
	handler := RequestID(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get("X-Request-Id")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "proxy-7f3a")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "proxy-7f3a" {
		t.Fatalf("expected inbound id to pass through, got %q", seen)
	}
}

func TestRequestIDReplacesSuspectHeader(t *testing.T) {
	cases := map[string]string{
		"overlong":  strings.Repeat("a", 65),
		"control":   "abc\ndef",
		"non-ascii": "идентификатор",
	}
	for name, inbound := range cases {
		t.Run(name, func(t *testing.T) {
			handler := RequestID(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-Id", inbound)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-Id")
			if got == "" || got == inbound {
				t.Fatalf("suspect header %q should be replaced, got %q", inbound, got)
			}
			if len(got) != 36 {
				t.Fatalf("replacement should be a uuid, got %q", got)
			}
		})
	}
}

func TestRecovererWrites500(t *testing.T) {
	handler := Recoverer(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}
}

func TestRecovererRethrowsAbortHandler(t *testing.T) {
	handler := Recoverer(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	defer func() {
		if rec := recover(); rec != http.ErrAbortHandler {
			t.Fatalf("expected ErrAbortHandler to propagate, got %v", rec)
		}
	}()
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}
