package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Koomefranklin/kise-results-backend/internal/service"
	"github.com/Koomefranklin/kise-results-backend/pkg/response"
)

// Context keys set by middleware.JWTAuth
const (
	CtxUserID           = "user_id"
	CtxRole             = "role"
	CtxSpecializationID = "specialization_id"
	CtxIsHoD            = "is_hod"
	CtxTokenJTI         = "token_jti"
	CtxTokenExp         = "token_exp"
)

// MustGetUserID extracts user_id from the gin context.
// Writes a 401 and returns false when the JWT middleware did not run;
// callers return immediately on false.
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return "", false
	}
	return s, true
}

// MustGetCaller builds the service caller from the token claims
func MustGetCaller(c *gin.Context) (service.Caller, bool) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return service.Caller{}, false
	}
	role := c.GetString(CtxRole)
	if role == "" {
		response.Unauthorized(c, 10002, "not authenticated")
		return service.Caller{}, false
	}
	return service.Caller{
		UserID:           userID,
		Role:             role,
		SpecializationID: c.GetString(CtxSpecializationID),
		IsHoD:            c.GetBool(CtxIsHoD),
	}, true
}

// tokenIdentity jti and expiry of the access token behind the request
func tokenIdentity(c *gin.Context) (string, time.Time) {
	return c.GetString(CtxTokenJTI), c.GetTime(CtxTokenExp)
}

// pathID reads :id, writing a 400 when empty
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 10001, "id is required")
		return "", false
	}
	return id, true
}

func badRequest(c *gin.Context) {
	response.BadRequest(c, 10001, "invalid parameters")
}
