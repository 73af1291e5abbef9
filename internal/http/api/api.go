package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Nixie-Tech-LLC/athan/internal/http/middleware"
)

type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

func BadRequest(msg string) *Error { return &Error{Code: http.StatusBadRequest, Message: msg} }

func Internal(msg string) *Error { return &Error{Code: http.StatusInternalServerError, Message: msg} }

type HandlerFuncWithAuth func(ctx *gin.Context, session *middleware.Session) (any, *Error)
type HandlerFunc func(ctx *gin.Context) (any, *Error)

func ResolveEndpointWithAuth(h HandlerFuncWithAuth) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		session, ok := middleware.GetSession(ctx)
		if !ok {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		result, apiErr := h(ctx, session)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func ResolveEndpoint(h HandlerFunc) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		result, apiErr := h(ctx)
		if apiErr != nil {
			ctx.JSON(apiErr.Code, gin.H{"error": apiErr.Message})
			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}
