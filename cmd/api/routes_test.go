package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"cdr-reconciler/internal/httpapi"

	"github.com/gin-gonic/gin"
)

func denyAll(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name     string
		devLogin bool
		method   string
		path     string
		want     int
	}{
		{"health", false, http.MethodGet, "/healthz", http.StatusOK},
		{"login hidden in production", false, http.MethodPost, "/v1/auth/login", http.StatusNotFound},
		// mounted, but no auth manager is configured here
		{"login outside production", true, http.MethodPost, "/v1/auth/login", http.StatusInternalServerError},
		{"reconcile protected", true, http.MethodPost, "/v1/reconcile", http.StatusUnauthorized},
		{"summary protected", true, http.MethodGet, "/v1/reports/summary", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		r := gin.New()
		registerRoutes(r, httpapi.Handlers{}, denyAll, tc.devLogin)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}")))
		if w.Code != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, w.Code)
		}
	}
}
