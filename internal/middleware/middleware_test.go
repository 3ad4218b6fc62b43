package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"core_banking/internal/domain"
	"core_banking/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRouter(t *testing.T, db *gorm.DB) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWTAuthMiddleware("k"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet(ContextUserID), "role": c.GetString(ContextRole)})
	})
	if db != nil {
		r.GET("/admin", JWTAuthMiddleware("k"), AdminOnlyMiddleware(db), func(c *gin.Context) {
			c.Status(http.StatusNoContent)
		})
	}
	return r
}

func get(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuthMiddleware(t *testing.T) {
	r := newRouter(t, nil)
	token, err := utils.GenerateJWT(9, "user", "k")
	require.NoError(t, err)

	w := get(r, "/me", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":9,"role":"user"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Token "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/me", "Bearer garbage").Code)
}

func TestAdminOnlyMiddlewareChecksDatabaseRole(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	staff := domain.User{Username: "staff", Password: "x", Role: domain.RoleUser}
	require.NoError(t, db.Create(&staff).Error)
	r := newRouter(t, db)

	// A stale admin claim in the token does not help a plain user
	token, err := utils.GenerateJWT(staff.ID, domain.RoleAdmin, "k")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+token).Code)

	require.NoError(t, db.Model(&staff).Update("role", domain.RoleAdmin).Error)
	assert.Equal(t, http.StatusNoContent, get(r, "/admin", "Bearer "+token).Code)

	ghost, err := utils.GenerateJWT(404, domain.RoleAdmin, "k")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", "Bearer "+ghost).Code)
}
