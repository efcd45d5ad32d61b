package route

import (
	"crypto/rsa"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthRequired verifies the bearer token against the realm signing key.
// The issuer must match one of the allowed base URLs: the same realm is
// reachable under an internal and a public hostname, and tokens carry
// whichever the client used. A token without a subject, or without at
// least one of email/preferred_username, is rejected.
func AuthRequired(key *rsa.PublicKey, issuers []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") || key == nil {
			unauthorized(c)
			return
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			unauthorized(c)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c)
			return
		}

		issuer, _ := claims.GetIssuer()
		if !issuerAllowed(issuer, issuers) {
			unauthorized(c)
			return
		}

		subject, _ := claims.GetSubject()
		email, _ := claims["email"].(string)
		username, _ := claims["preferred_username"].(string)
		if subject == "" || (email == "" && username == "") {
			unauthorized(c)
			return
		}

		fullName, _ := claims["name"].(string)
		if fullName == "" {
			fullName = username
		}

		c.Set(ctxUserID, subject)
		c.Set(ctxEmail, email)
		c.Set(ctxUsername, username)
		c.Set(ctxFullName, fullName)
		c.Next()
	}
}

func issuerAllowed(issuer string, allowed []string) bool {
	for _, a := range allowed {
		if issuer == a {
			return true
		}
	}
	return false
}

func unauthorized(c *gin.Context) {
	respondError(c, http.StatusUnauthorized, "Token is not valid or has expired")
}
