package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"tatutaller/backend/internal/domain"
	"tatutaller/backend/internal/service/bookings"
)

const actorContextKey = "taller.actor"

type accessClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// RequireAuth parses the bearer token and stores the resulting Actor in
// the request context. Token issuance lives in the identity subsystem;
// this middleware only verifies and extracts.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "missing bearer token"))
			return
		}

		claims := &accessClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "invalid token"))
			return
		}

		role, err := domain.ParseRole(claims.Role)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody("UNAUTHORIZED", "invalid token"))
			return
		}

		c.Set(actorContextKey, bookings.Actor{ID: claims.Subject, Role: role})
		c.Next()
	}
}

func actorFrom(c *gin.Context) (bookings.Actor, bool) {
	v, ok := c.Get(actorContextKey)
	if !ok {
		return bookings.Actor{}, false
	}
	actor, ok := v.(bookings.Actor)
	return actor, ok
}
