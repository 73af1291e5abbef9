package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"
)

const (
	AdminSubject = "admin"
	TokenTTL     = 72 * time.Hour

	sessionKey = "currentSession"
)

// Session is what a verified token carries.
type Session struct {
	Subject   string
	ExpiresAt time.Time
}

// signs a token embedding subject in the “sub” claim.
func GenerateJWT(subject, secret string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(TokenTTL).Unix(),
	})
	return token.SignedString([]byte(secret))
}

// verifies the JWT and returns its session.
func parseToken(tokenString, secret string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, errors.New("invalid sub claim")
	}
	exp, _ := claims["exp"].(float64)
	return &Session{Subject: sub, ExpiresAt: time.Unix(int64(exp), 0)}, nil
}

// checks “Authorization: Bearer <token>”, verifies it and sets the session in context.
func JWTMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth header"})
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid auth header"})
			return
		}

		session, err := parseToken(parts[1], secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(sessionKey, session)
		c.Next()
	}
}
