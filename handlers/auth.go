package handlers

import (
	"github.com/gin-gonic/gin"

	"friendlink/middleware"
	"friendlink/models"
	"friendlink/utils"
)

type RegisterRequest struct {
	FullName    string `json:"full_name" binding:"required,max=100"`
	PhoneNumber string `json:"phone_number" binding:"required,max=32"`
}

type AuthResponse struct {
	Token string              `json:"token"`
	User  models.UserResponse `json:"user"`
}

// Register creates a user and hands back a token for it. Identity is not
// verified here; it only bootstraps callers for the friend endpoints.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	user, err := h.friends.CreateUser(c.Request.Context(), req.FullName, req.PhoneNumber)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := utils.GenerateToken(h.secret, user.ID, h.tokenTTL)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, AuthResponse{
		Token: token,
		User:  *user.ToResponse(),
	})
}

func (h *Handler) RefreshToken(c *gin.Context) {
	token, err := utils.GenerateToken(h.secret, middleware.GetUserID(c), h.tokenTTL)
	if err != nil {
		utils.InternalError(c, "failed to generate token")
		return
	}

	utils.Success(c, gin.H{"token": token})
}
