package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"friendlink/friends"
	"friendlink/utils"
)

// statusClientClosedRequest is nginx's code for a client that went away
// before the response was written.
const statusClientClosedRequest = 499

type Handler struct {
	friends  *friends.Service
	secret   string
	tokenTTL time.Duration
}

func New(svc *friends.Service, secret string, tokenTTL time.Duration) *Handler {
	return &Handler{friends: svc, secret: secret, tokenTTL: tokenTTL}
}

// respondError maps service errors onto the response envelope. Anything
// unclassified is a store failure: the client gets a generic message and
// the error is attached to the gin context for the request logger.
func (h *Handler) respondError(c *gin.Context, err error) {
	var verr *friends.ValidationError
	switch {
	case errors.As(err, &verr):
		utils.BadRequest(c, verr.Error())
	case errors.Is(err, friends.ErrNotFound),
		errors.Is(err, friends.ErrUserNotFound),
		errors.Is(err, friends.ErrRequestNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, friends.ErrAlreadyFriends):
		utils.Conflict(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		utils.Error(c, http.StatusGatewayTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		utils.Error(c, statusClientClosedRequest, "request canceled")
	default:
		_ = c.Error(err)
		utils.InternalError(c, "database error")
	}
}

func pathUserID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		return 0, &friends.ValidationError{Field: "user_id", Reason: "must be an integer"}
	}
	return id, nil
}
