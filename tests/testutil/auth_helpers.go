package testutil

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/dfierro/tavola-api/middleware"
	"github.com/dfierro/tavola-api/models"
)

// TokenFor issues a real signed token for the user. SetupTestConfig must
// have been called first so a signing secret is in place.
func TokenFor(t *testing.T, user *models.User) string {
	t.Helper()

	token, err := middleware.GenerateToken(user)
	if err != nil {
		t.Fatalf("Failed to generate token for %s: %v", user.Email, err)
	}
	return token
}

// Authorize sets the Bearer header the auth middleware expects
func Authorize(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// SetMockAuthContext injects the context values AuthRequired would set,
// for handler-level tests that bypass the middleware
func SetMockAuthContext(c *gin.Context, user *models.User) {
	c.Set("user_id", user.ID)
	c.Set("email", user.Email)
	c.Set("role", user.Role)
}
