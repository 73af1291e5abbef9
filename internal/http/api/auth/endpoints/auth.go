package endpoints

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/athan/internal/http/api"
	"github.com/Nixie-Tech-LLC/athan/internal/http/api/auth/packets"
	"github.com/Nixie-Tech-LLC/athan/internal/http/middleware"
)

// AuthPublicModule mounts the public login endpoint (/auth/login)
func AuthPublicModule(jwtSecret, passwordHash string) api.Module {
	ctl := newAccountManager(jwtSecret, passwordHash)
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/auth/login", ctl.adminLogin)
	})
}

// AuthSessionModule mounts the session endpoint (JWT required)
func AuthSessionModule(jwtSecret, passwordHash string) api.Module {
	ctl := newAccountManager(jwtSecret, passwordHash)
	return api.ModuleFunc(func(c *api.Controller) {
		c.SESSION_GET("/auth/session", ctl.currentSession)
	})
}

type AccountManager struct {
	jwtSecret    string
	passwordHash string
}

func newAccountManager(secret, passwordHash string) *AccountManager {
	return &AccountManager{jwtSecret: secret, passwordHash: passwordHash}
}

// POST /api/auth/login
func (a *AccountManager) adminLogin(ctx *gin.Context) (any, *api.Error) {
	var request packets.LoginRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if !middleware.CheckPassword(a.passwordHash, request.Password) {
		log.Warn().Str("ip", ctx.ClientIP()).Msg("admin login rejected")
		return nil, &api.Error{Code: http.StatusUnauthorized, Message: "invalid credentials"}
	}

	token, err := middleware.GenerateJWT(middleware.AdminSubject, a.jwtSecret)
	if err != nil {
		return nil, api.Internal("could not generate token")
	}

	return packets.TokenResponse{Token: token}, nil
}

// GET /api/auth/session
func (a *AccountManager) currentSession(ctx *gin.Context, session *middleware.Session) (any, *api.Error) {
	return packets.SessionResponse{
		Subject:   session.Subject,
		ExpiresAt: session.ExpiresAt.Format(time.RFC3339),
	}, nil
}
