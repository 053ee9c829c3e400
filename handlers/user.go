package handlers

import (
	"github.com/gin-gonic/gin"

	"friendlink/middleware"
	"friendlink/utils"
)

func (h *Handler) GetCurrentUser(c *gin.Context) {
	user, err := h.friends.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, user.ToResponse())
}
