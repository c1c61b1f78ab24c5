package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/internal/auth"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/types"
)

// AuthenticatedUser is the principal placed in the request context. Its
// fields come from the token claims after the freshness check, so they
// reflect the latest authorization-relevant state of the account.
type AuthenticatedUser struct {
	ID             uint      `json:"id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	Image          string    `json:"image"`
	Role           string    `json:"role"`
	CanComment     bool      `json:"can_comment"`
	SessionVersion int       `json:"session_version"`
	CreatedAt      time.Time `json:"created_at"`
}

func (u AuthenticatedUser) IsStaff() bool {
	return u.Role == models.RoleAdmin
}

func extractToken(ctx *gin.Context) string {
	authHeader := ctx.GetHeader("Authorization")

	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
		return ""
	}

	if cookie, err := ctx.Cookie("token"); err == nil {
		return cookie
	}

	return ""
}

func AuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString := extractToken(ctx)

		if tokenString == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token is required"})
			return
		}

		claims, err := auth.VerifyToken(tokenString)

		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		claims, newToken, err := auth.CheckFreshness(claims)

		if err != nil {
			if errors.Is(err, auth.ErrUserGone) {
				auth.ClearSessionCookie(ctx.Writer)
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
				return
			}
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		// A refresh minted a new token; hand it back so the stale cookie
		// stops circulating.
		if newToken != "" {
			auth.SetSessionCookie(ctx.Writer, newToken)
		}

		ctx.Set(types.ContextUserKey, AuthenticatedUser{
			ID:             claims.UserID,
			Name:           claims.Name,
			Username:       claims.Username,
			Email:          claims.Email,
			Image:          claims.Image,
			Role:           claims.Role,
			CanComment:     claims.CanComment,
			SessionVersion: claims.SessionVersion,
			CreatedAt:      claims.CreatedAt,
		})
		ctx.Next()
	}
}

// RequireRole gates a route group on the freshly checked role claim.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		user, exists := ctx.Get(types.ContextUserKey)

		if !exists {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		authenticatedUser, ok := user.(AuthenticatedUser)

		if !ok {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		for _, role := range roles {
			if authenticatedUser.Role == role {
				ctx.Next()
				return
			}
		}

		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
	}
}

func RequireAdmin() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin)
}
