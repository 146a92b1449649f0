package auth

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stundenapp/stundenapp-back/internal/config"
	"github.com/stundenapp/stundenapp-back/internal/db"
	"github.com/stundenapp/stundenapp-back/internal/models"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

// LoginRequest carries the upstream credentials to verify and store.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginHandler godoc
// @Summary      Login with upstream school account
// @Description  Verifies credentials against the school API, stores them encrypted and issues tokens
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  LoginRequest  true  "Upstream credentials"
// @Success      200 {object} map[string]string
// @Failure      400 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Router       /auth/login [post]
func LoginHandler(cfg *config.Config, sealer *Sealer, opener untis.Opener) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		creds := untis.Credentials{
			Username: req.Username,
			Secret:   req.Password,
			Server:   cfg.UntisServer,
			School:   cfg.UntisSchool,
		}
		session, err := opener.Login(c.Request.Context(), creds)
		if err != nil {
			if errors.Is(err, untis.ErrAuth) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Upstream rejected credentials"})
				return
			}
			log.Println("login:", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream unavailable"})
			return
		}
		if err := session.Logout(c.Request.Context()); err != nil {
			log.Println("login: logout:", err)
		}

		sealed, err := sealer.Seal(req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store credentials"})
			return
		}
		u := models.User{Username: req.Username, EncryptedSecret: sealed}
		if err := db.SaveOrUpdateUser(c.Request.Context(), u); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user"})
			return
		}

		access, refresh, err := IssueTokens([]byte(cfg.JWT_SECRET), req.Username)
		if err != nil {
			log.Println(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid"})
			return
		}

		c.JSON(200, gin.H{
			"access_token":  access,
			"refresh_token": refresh,
			"username":      req.Username,
		})
	}
}

// RefreshHandler godoc
// @Summary      Rotate tokens
// @Description  Exchanges a valid refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      401 {object} map[string]string
// @Router       /auth/refresh [post]
func RefreshHandler(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RefreshToken string `json:"refresh_token"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing refresh token"})
			return
		}

		username, ok := ParseUsername([]byte(cfg.JWT_SECRET), req.RefreshToken, true)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
			return
		}

		access, refresh, err := IssueTokens([]byte(cfg.JWT_SECRET), username)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid"})
			return
		}

		c.JSON(200, gin.H{
			"access_token":  access,
			"refresh_token": refresh,
		})
	}
}
