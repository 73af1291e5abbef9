package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/private", JWTMiddleware(secret), func(c *gin.Context) {
		s, ok := GetSession(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, s.Subject)
	})
	return r
}

func get(r http.Handler, header string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTMiddleware(t *testing.T) {
	r := protectedRouter("secret")

	token, err := GenerateJWT(AdminSubject, "secret")
	require.NoError(t, err)

	w := get(r, "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, AdminSubject, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer garbage").Code)

	other, err := GenerateJWT(AdminSubject, "another secret")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "Bearer "+other).Code)
}

func TestParseToken_Expiry(t *testing.T) {
	token, err := GenerateJWT(AdminSubject, "secret")
	require.NoError(t, err)

	s, err := parseToken(token, "secret")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), s.ExpiresAt, time.Minute)
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("open sesame")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "open sesame"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.False(t, CheckPassword("not a hash", "open sesame"))
}
