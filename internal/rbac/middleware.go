package rbac

import (
	"net/http"

	"cdr-reconciler/internal/auth"

	"github.com/gin-gonic/gin"
)

const clientParam = "client"

// RequireClient enforces the multi-tenant invariant: client must exist in context.
func RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		client, err := auth.Client(c.Request.Context())
		if err != nil || client == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "client required"})
			return
		}
		c.Next()
	}
}

// RequireAnyRole allows access if the caller has any of the provided roles.
// Rules:
// - super_admin bypasses all checks
// - support is a hidden role, and will be denied unless explicitly allowed
// - client isolation is enforced via RequireClient (use it in the chain)
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, err := auth.Role(c.Request.Context())
		if err != nil || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		if IsSuperAdmin(role) {
			c.Next()
			return
		}

		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// TargetClient resolves the client a request acts on. Regular roles always act on
// their token's client; naming another one is forbidden. Cross-client roles may
// pick one with the "client" query or form value.
func TargetClient(c *gin.Context) (string, bool) {
	own, err := auth.Client(c.Request.Context())
	if err != nil {
		return "", false
	}
	requested := c.Query(clientParam)
	if requested == "" {
		requested = c.PostForm(clientParam)
	}
	if requested == "" || requested == own {
		return own, true
	}
	role, _ := auth.Role(c.Request.Context())
	if IsCrossClient(role) {
		return requested, true
	}
	return "", false
}
