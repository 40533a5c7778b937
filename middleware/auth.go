package middleware

import (
	"context"
	"strings"

	"tourify/models"
	"tourify/utils"

	"github.com/gin-gonic/gin"
)

// principalKey is the context key the authenticated user is stored under.
const principalKey = "currentUser"

// UserSource resolves token subjects to accounts.
type UserSource interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// Protect authenticates the request from its Bearer token and attaches the
// principal to the context. Tokens minted before the account's last
// password change are rejected.
func Protect(users UserSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}

		userID, issuedAt, err := utils.ExtractClaims(tokenString)
		if err != nil {
			utils.Fail(c, utils.Unauthorized("Invalid or expired token. Please log in again.").Wrap(err))
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			utils.Fail(c, utils.Unauthorized("The user belonging to this token no longer exists."))
			return
		}
		if !user.IsActive() {
			utils.Fail(c, utils.Unauthorized("The user belonging to this token no longer exists."))
			return
		}
		if user.ChangedPasswordAfter(issuedAt) {
			utils.Fail(c, utils.Unauthorized("User recently changed password! Please log in again."))
			return
		}

		c.Set(principalKey, user)
		c.Next()
	}
}

// RestrictTo permits only the listed roles past this point. It must run
// after Protect.
func RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentUser(c)
		if principal == nil {
			utils.Fail(c, utils.Unauthorized("You are not logged in! Please log in to get access."))
			return
		}
		for _, role := range roles {
			if principal.Role == role {
				c.Next()
				return
			}
		}
		utils.Fail(c, utils.Forbidden("You do not have permission to perform this action"))
	}
}

// CurrentUser returns the authenticated principal, or nil on public routes.
func CurrentUser(c *gin.Context) *models.User {
	val, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	user, ok := val.(*models.User)
	if !ok {
		return nil
	}
	return user
}
