package main

import (
	"cdr-reconciler/internal/httpapi"
	"cdr-reconciler/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, authMW gin.HandlerFunc, devLogin bool) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// NOTE: there is no credential store; token issuance is for local and staging use.
	if devLogin {
		r.POST("/v1/auth/login", h.Login)
	}
	r.POST("/v1/auth/refresh", h.Refresh)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/me", h.Me)

		// RECONCILE routes
		v1.POST("/reconcile", append(
			httpapi.RequireClientAndAnyRole(rbac.RoleOperator, rbac.RoleAdmin),
			h.Reconcile,
		)...)

		// REPORTS routes
		reports := v1.Group("/reports")
		reports.Use(httpapi.RequireClientAndAnyRole(rbac.RoleAnalyst, rbac.RoleOperator, rbac.RoleAdmin)...)
		{
			reports.GET("/summary", h.ClientSummary)
		}
	}
}
