package controllers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tastemichigan/api-go/config"
	"github.com/tastemichigan/api-go/utils"
	"golang.org/x/crypto/bcrypt"
)

// AuthController issues admin tokens for the single operator account.
type AuthController struct {
	Admin config.AdminConfig
}

func NewAuthController(admin config.AdminConfig) *AuthController {
	return &AuthController{Admin: admin}
}

func (ac *AuthController) Login(c *gin.Context) {
	var input struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	if ac.Admin.PasswordHash == "" || ac.Admin.JWTSecret == "" {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Admin login is not configured"})
		return
	}

	usernameOK := subtle.ConstantTimeCompare([]byte(input.Username), []byte(ac.Admin.Username)) == 1
	// bcrypt runs on every attempt, matching username or not.
	passwordErr := bcrypt.CompareHashAndPassword([]byte(ac.Admin.PasswordHash), []byte(input.Password))
	if !usernameOK || passwordErr != nil {
		log.Ctx(c.Request.Context()).Warn().Str("username", input.Username).Str("client_ip", c.ClientIP()).Msg("admin login rejected")
		c.JSON(http.StatusUnauthorized, StandardResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	token, expiresAt, err := utils.IssueAdminToken(ac.Admin.JWTSecret, ac.Admin.Username, ac.Admin.TokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Could not generate token"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"token_type":   "Bearer",
			"access_token": token,
			"expires_at":   expiresAt,
			"username":     ac.Admin.Username,
		},
	})
}
