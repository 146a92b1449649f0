package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenTTL  = 15 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
)

// IssueTokens creates the access/refresh token pair for a user.
func IssueTokens(jwtSecret []byte, username string) (access, refresh string, err error) {
	accessClaims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(accessTokenTTL).Unix(),
	}
	access, err = jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}

	refreshClaims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(refreshTokenTTL).Unix(),
		"type":     "refresh",
	}
	refresh, err = jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString(jwtSecret)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// ParseUsername validates a token and extracts its subject username. When
// refresh is true the token must carry the refresh type claim.
func ParseUsername(jwtSecret []byte, tokenStr string, refresh bool) (string, bool) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", false
	}
	if refresh && claims["type"] != "refresh" {
		return "", false
	}
	username, ok := claims["username"].(string)
	return username, ok && username != ""
}
