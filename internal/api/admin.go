package api

import (
	"core_banking/internal/domain" // Importing domain models
	"core_banking/internal/utils"  // Utility functions
	"fmt"                          // Cache key formatting
	"net/http"                     // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID       uint             `json:"id"`       // User ID
	Username string           `json:"username"` // Username
	Role     string           `json:"role"`     // User role
	Accounts []domain.Account `json:"accounts"` // Accounts held
}

// userPage is the cached shape of one admin user listing
type userPage struct {
	Users      []UserAdminResponse `json:"users"`       // List of users
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total number of users
	TotalPages int                 `json:"total_pages"` // Total pages
}

// ListUsersHandler returns all users with their accounts
func ListUsersHandler(db *gorm.DB, cache *utils.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := paging(c)
		if page < 1 {
			page = 1 // Default page number
		}
		if pageSize < 1 || pageSize > 100 {
			pageSize = 20 // Default page size
		}
		cacheKey := fmt.Sprintf("admin:users:page=%d:size=%d", page, pageSize)
		var cached userPage
		// If cached data found, return it
		if found, err := cache.Get(ctx, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, usersResponse(cached, true))
			return
		}

		var total int64 // Total user count
		if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			respondError(c, fmt.Errorf("count users: %w", err))
			return
		}
		var users []domain.User
		// Preload Accounts relation, apply offset and limit for pagination
		err := db.WithContext(ctx).Preload("Accounts").Order("id asc").
			Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error
		if err != nil {
			respondError(c, fmt.Errorf("list users: %w", err))
			return
		}
		resp := userPage{
			Users:      make([]UserAdminResponse, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: (int(total) + pageSize - 1) / pageSize,
		}
		for i, u := range users {
			accounts := u.Accounts
			if accounts == nil {
				accounts = []domain.Account{}
			}
			resp.Users[i] = UserAdminResponse{ID: u.ID, Username: u.Username, Role: u.Role, Accounts: accounts}
		}
		_ = cache.Set(ctx, cacheKey, resp) // Cache the response for future requests
		c.JSON(http.StatusOK, usersResponse(resp, false))
	}
}

func usersResponse(p userPage, cached bool) gin.H {
	return gin.H{
		"users":       p.Users,      // List of users
		"page":        p.Page,       // Current page
		"page_size":   p.PageSize,   // Page size
		"total":       p.Total,      // Total number of users
		"total_pages": p.TotalPages, // Total pages
		"cached":      cached,       // Indicate whether response came from cache
	}
}
