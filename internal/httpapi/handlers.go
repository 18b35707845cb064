package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cdr-reconciler/internal/auth"
	"cdr-reconciler/internal/lookup"
	"cdr-reconciler/internal/rbac"
	"cdr-reconciler/internal/reporting"
	"cdr-reconciler/internal/runner"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON or CSV.

type Handlers struct {
	Auth    *auth.Manager
	Runner  *runner.Service
	Reports *reporting.Service

	// Jobs supplies per-client defaults (carrier). Optional.
	Jobs *lookup.Jobs

	// Limiter and Cache are optional (redis).
	Limiter RunLimiter
	Cache   ResultCache

	// Archive reports archived record counts. Optional (postgres).
	Archive ArchiveCounter

	MaxUploadBytes int64
}

type ArchiveCounter interface {
	Count(ctx context.Context, client string) (int, error)
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	Client string `json:"client"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: There is no credential store; this endpoint is only mounted outside production.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.Client == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, client, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.Client, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh exchanges a refresh token for a new pair.
func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	pair, err := h.Auth.Refresh(time.Now(), req.RefreshToken)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// Me echoes the identity carried by the access token.
func (h Handlers) Me(c *gin.Context) {
	id, ok := auth.IdentityFrom(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, id)
}

// --- Reports ---

type clientSummaryResponse struct {
	reporting.ClientSummary
	ArchivedRecords int `json:"archived_records"`
}

// ClientSummary aggregates stored run summaries over ?from=&to= (RFC 3339).
// RBAC: analyst, admin or super_admin.
func (h Handlers) ClientSummary(c *gin.Context) {
	if h.Reports == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reports not configured"})
		return
	}
	client, ok := rbac.TargetClient(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	from, err1 := time.Parse(time.RFC3339, c.Query("from"))
	to, err2 := time.Parse(time.RFC3339, c.Query("to"))
	if err1 != nil || err2 != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from and to must be RFC 3339 timestamps"})
		return
	}

	out, err := h.Reports.ClientSummary(c.Request.Context(), reporting.ClientSummaryRequest{
		Client: client,
		Range:  reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	if h.Archive == nil {
		c.JSON(http.StatusOK, out)
		return
	}
	archived, err := h.Archive.Count(c.Request.Context(), client)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "archive count failed"})
		return
	}
	c.JSON(http.StatusOK, clientSummaryResponse{ClientSummary: out, ArchivedRecords: archived})
}

// Convenience middleware bundles.

func RequireClientAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireClient(), rbac.RequireAnyRole(roles...)}
}
