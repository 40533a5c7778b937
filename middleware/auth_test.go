package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tourify/config"
	"tourify/database/repository"
	"tourify/models"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	config.AppConfig.JWTSecret = "middleware-test-secret"
}

type memUsers struct {
	users map[string]*models.User
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func protectedRouter(users UserSource, roles ...string) *gin.Engine {
	r := gin.New()
	r.Use(utils.ErrorHandler())
	chain := []gin.HandlerFunc{Protect(users)}
	if len(roles) > 0 {
		chain = append(chain, RestrictTo(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "success", "user": CurrentUser(c).ID})
	})
	r.GET("/secure", chain...)
	return r
}

func request(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seed(id, role string) (*memUsers, *models.User) {
	u := &models.User{Name: "Test", Email: id + "@example.com", Role: role}
	u.ID = id
	return &memUsers{users: map[string]*models.User{id: u}}, u
}

func TestProtectRejectsMissingToken(t *testing.T) {
	users, _ := seed("u1", models.RoleUser)
	r := protectedRouter(users)

	for _, header := range []string{"", "Bearer ", "Token abc", "bogus"} {
		w := request(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestProtectAcceptsValidToken(t *testing.T) {
	users, _ := seed("u1", models.RoleUser)
	r := protectedRouter(users)

	token, err := utils.GenerateToken("u1", time.Hour)
	require.NoError(t, err)

	w := request(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

func TestProtectRejectsUnknownSubject(t *testing.T) {
	users, _ := seed("u1", models.RoleUser)
	r := protectedRouter(users)

	token, err := utils.GenerateToken("deleted-user", time.Hour)
	require.NoError(t, err)

	w := request(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsDeactivatedAccount(t *testing.T) {
	users, u := seed("u1", models.RoleUser)
	no := false
	u.Active = &no
	r := protectedRouter(users)

	token, err := utils.GenerateToken("u1", time.Hour)
	require.NoError(t, err)

	w := request(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectRejectsTokenFromBeforePasswordChange(t *testing.T) {
	users, u := seed("u1", models.RoleUser)
	r := protectedRouter(users)

	token, err := utils.GenerateToken("u1", time.Hour)
	require.NoError(t, err)

	// The password changes after the token was issued.
	u.PasswordChangedAt = time.Now().Add(time.Minute)

	w := request(r, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "recently changed password")
}

func TestRestrictTo(t *testing.T) {
	token := func(id string) string {
		tok, err := utils.GenerateToken(id, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		return "Bearer " + tok
	}

	t.Run("role allowed", func(t *testing.T) {
		users, _ := seed("admin-1", models.RoleAdmin)
		r := protectedRouter(users, models.RoleAdmin, models.RoleLeadGuide)
		w := request(r, token("admin-1"))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("role forbidden", func(t *testing.T) {
		users, _ := seed("u1", models.RoleUser)
		r := protectedRouter(users, models.RoleAdmin, models.RoleLeadGuide)
		w := request(r, token("u1"))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCurrentUserOnPublicRoute(t *testing.T) {
	r := gin.New()
	r.GET("/public", func(c *gin.Context) {
		assert.Nil(t, CurrentUser(c))
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
