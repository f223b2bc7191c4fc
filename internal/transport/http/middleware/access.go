package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arklim/shopfront/internal/core/domain"
	"github.com/arklim/shopfront/internal/usecase"
)

// Tier is the access requirement a rule assigns to matching paths.
type Tier int

const (
	// TierAnonymous admits the request without credentials.
	TierAnonymous Tier = iota
	// TierBearer requires a valid bearer token in the Authorization header.
	TierBearer
	// TierSession requires an authenticated principal on the request; a
	// bearer token satisfies it when no principal is attached yet.
	TierSession
)

// AccessRule binds a path pattern to an access tier. Patterns are either
// exact paths or a prefix followed by "/**" which matches the prefix itself
// and everything below it.
type AccessRule struct {
	Pattern string
	Tier    Tier
}

// failResponse matches the handlers response envelope.
type failResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Access returns the request interception pipeline. Rules are evaluated in
// order and the first match decides the tier; requests matching no rule pass
// through anonymously. OPTIONS requests always pass so CORS preflights are
// never challenged.
func Access(rules []AccessRule, auth *usecase.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		rule, ok := matchRule(rules, c.Request.URL.Path)
		if !ok || rule.Tier == TierAnonymous {
			c.Next()
			return
		}

		if rule.Tier == TierSession {
			if _, ok := GetPrincipal(c); ok {
				c.Next()
				return
			}
		}

		token, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), domain.BearerCredential{RawToken: token})
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredBearerToken):
				abortUnauthorized(c, "token expired")
			case errors.Is(err, usecase.ErrInvalidBearerToken):
				abortUnauthorized(c, "invalid token")
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, failResponse{Message: "authentication failed"})
			}
			return
		}

		c.Set(PrincipalKey, principal)
		if reqCtx := GetRequestContext(c); reqCtx != nil {
			reqCtx.Subject = principal.Subject
		}

		c.Next()
	}
}

// matchRule returns the first rule whose pattern matches the path.
func matchRule(rules []AccessRule, path string) (AccessRule, bool) {
	for _, rule := range rules {
		if matchPattern(rule.Pattern, path) {
			return rule, true
		}
	}
	return AccessRule{}, false
}

// matchPattern supports exact paths and "<prefix>/**" subtree patterns.
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		if prefix == "" {
			return true
		}
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, failResponse{Message: message})
}
