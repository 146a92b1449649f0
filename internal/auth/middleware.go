package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/stundenapp/stundenapp-back/internal/config"
	"github.com/stundenapp/stundenapp-back/internal/db"
	"github.com/stundenapp/stundenapp-back/internal/untis"
)

// context keys set by the middleware
const (
	CtxUsername    = "username"
	CtxCredentials = "credentials"
)

// AuthMiddleware validates the Bearer token, loads the user and attaches
// the decrypted upstream credentials to the request context, so handlers
// can open upstream sessions on the caller's behalf.
func AuthMiddleware(cfg *config.Config, sealer *Sealer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header"})
			return
		}

		username, ok := ParseUsername([]byte(cfg.JWT_SECRET), parts[1], false)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		user, err := db.GetUserByUsername(c.Request.Context(), username)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unknown user"})
			return
		}

		secret, err := sealer.Open(user.EncryptedSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Stored credentials unreadable"})
			return
		}

		c.Set(CtxUsername, username)
		c.Set(CtxCredentials, untis.Credentials{
			Username: username,
			Secret:   secret,
			Server:   cfg.UntisServer,
			School:   cfg.UntisSchool,
		})
		c.Next()
	}
}

// CredentialsFrom pulls the upstream credentials the middleware attached.
func CredentialsFrom(c *gin.Context) (untis.Credentials, bool) {
	v, ok := c.Get(CtxCredentials)
	if !ok {
		return untis.Credentials{}, false
	}
	creds, ok := v.(untis.Credentials)
	return creds, ok
}
