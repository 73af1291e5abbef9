package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// is returned when the admin password does not match.
var ErrInvalidCredentials = errors.New("invalid password")

// uses bcrypt to hash a plaintext password.
func HashPassword(plain string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	return string(bytes), err
}

// compares a bcrypt hash with the plaintext.
func CheckPassword(hash, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	return err == nil
}

// retrieves the *Session from Gin context (after JWTMiddleware has run).
func GetSession(c *gin.Context) (*Session, bool) {
	s, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := s.(*Session)
	return session, ok
}
