// internal/middleware/helpers.go
package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// MustGetIdentityID gets identity ID from context or panics
func MustGetIdentityID(c *gin.Context) int64 {
	id, exists := c.Get("identity_id")
	if !exists {
		panic("identity_id not found in context")
	}
	return id.(int64)
}

// GetGymID gets the caller's gym ID from context
func GetGymID(c *gin.Context) (int64, bool) {
	id, exists := c.Get("gym_id")
	if !exists {
		return 0, false
	}
	gymID, ok := id.(int64)
	return gymID, ok && gymID > 0
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get("roles")
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}

	return rolesList
}

// HasRole checks if the caller carries a role
func HasRole(c *gin.Context, role string) bool {
	for _, r := range GetRoles(c) {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, "admin") || HasRole(c, "super_admin")
}

func paramInt64(c *gin.Context, name string) int64 {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
