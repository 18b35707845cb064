package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestFrom_FallsBackToDefault(t *testing.T) {
	if From(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
	var buf bytes.Buffer
	l := NewCLI(&buf, false, false)
	if From(With(context.Background(), l)) != l {
		t.Fatalf("expected stored logger")
	}
}

func TestNewCLI_Levels(t *testing.T) {
	var buf bytes.Buffer
	NewCLI(&buf, false, false).Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be dropped without verbose")
	}
	NewCLI(&buf, true, false).Debug("shown")
	if !strings.Contains(buf.String(), "msg=shown") {
		t.Fatalf("unexpected text output %q", buf.String())
	}

	buf.Reset()
	NewCLI(&buf, false, true).Info("run completed", "records", 3)
	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json line: %v", err)
	}
	if rec["msg"] != "run completed" || rec["records"] != float64(3) {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestMiddleware_PropagatesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewCLI(&buf, false, true)))
	r.GET("/x", func(c *gin.Context) {
		FromGin(c).Info("inside")
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(headerRequestID, "rid-1")
	r.ServeHTTP(w, req)

	if w.Header().Get(headerRequestID) != "rid-1" {
		t.Fatalf("expected request id echoed")
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d", len(lines))
	}
	for _, l := range lines {
		if !strings.Contains(l, `"request_id":"rid-1"`) {
			t.Fatalf("missing request id in %s", l)
		}
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Header().Get(headerRequestID) == "" {
		t.Fatalf("expected generated request id")
	}
}

func TestMiddleware_LevelFollowsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(Middleware(NewCLI(&buf, false, true)))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusUnprocessableEntity) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/bad", nil))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected json line: %v", err)
	}
	if rec["level"] != "WARN" || rec["route"] != "/bad" {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		status int
		errs   bool
		want   slog.Level
	}{
		{http.StatusOK, false, slog.LevelInfo},
		{http.StatusTooManyRequests, false, slog.LevelWarn},
		{http.StatusServiceUnavailable, false, slog.LevelError},
		{http.StatusOK, true, slog.LevelError},
	}
	for _, tc := range cases {
		if got := levelFor(tc.status, tc.errs); got != tc.want {
			t.Fatalf("levelFor(%d, %v) = %v, want %v", tc.status, tc.errs, got, tc.want)
		}
	}
}
