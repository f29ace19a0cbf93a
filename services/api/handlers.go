package main

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys set by the auth middleware.
const (
	ctxUserID   = "user_id"
	ctxUserRole = "user_role"
)

// apiResponse is the uniform response envelope.
type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}

// responder translates use-case errors to HTTP exactly once. Outside
// production the raw error and a stack are included in the body.
type responder struct {
	logger     *zap.Logger
	production bool
}

func (r *responder) ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, apiResponse{Success: true, Message: message, Data: data})
}

func (r *responder) fail(c *gin.Context, err error) {
	if appErr, ok := AsAppError(err); ok {
		c.JSON(appErr.Status, apiResponse{Success: false, Message: appErr.Message})
		return
	}

	r.logger.Error("unhandled error", zap.Error(err), zap.String("path", c.FullPath()))
	resp := apiResponse{Success: false, Message: "internal server error"}
	if !r.production {
		resp.Error = err.Error()
		resp.Stack = string(debug.Stack())
	}
	c.JSON(http.StatusInternalServerError, resp)
}

func (r *responder) badRequest(c *gin.Context, err error) {
	resp := apiResponse{Success: false, Message: "invalid request body"}
	if !r.production {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusBadRequest, resp)
}

// currentUser returns the authenticated user id and role placed in the
// context by the auth middleware.
func currentUser(c *gin.Context) (string, string) {
	return c.GetString(ctxUserID), c.GetString(ctxUserRole)
}

// HealthCheck reports service liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "grocery-api",
	})
}
