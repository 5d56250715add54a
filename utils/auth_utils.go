package utils

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

const AdminRole = "admin"

// AdminClaims is what the admin middleware stores on the gin context.
type AdminClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type contextKey string

const AdminContextKey contextKey = "admin"

func GetAdmin(c *gin.Context) *AdminClaims {
	admin, exists := c.Get(string(AdminContextKey))
	if !exists {
		return nil
	}
	if claims, ok := admin.(*AdminClaims); ok {
		return claims
	}
	return nil
}

// IssueAdminToken signs an HS256 admin token that expires after ttl.
func IssueAdminToken(secret, username string, ttl time.Duration) (string, time.Time, error) {
	expiresAt := time.Now().Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": username,
		"role":     AdminRole,
		"exp":      expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
