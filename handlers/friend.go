package handlers

import (
	"github.com/gin-gonic/gin"

	"friendlink/friends"
	"friendlink/middleware"
	"friendlink/utils"
)

type FriendRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

func (h *Handler) GetFriends(c *gin.Context) {
	records, err := h.friends.GetAllFriends(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, records)
}

func (h *Handler) GetFriend(c *gin.Context) {
	friendID, err := pathUserID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	record, err := h.friends.GetFriend(c.Request.Context(), middleware.GetUserID(c), friendID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, record)
}

func (h *Handler) GetFriendRequests(c *gin.Context) {
	requests, err := h.friends.ListRequests(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, requests)
}

func (h *Handler) SendFriendRequest(c *gin.Context) {
	var req FriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	outcome, err := h.friends.RequestFriend(c.Request.Context(), middleware.GetUserID(c), req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if outcome == friends.RequestAccepted {
		utils.Success(c, gin.H{"message": "friend request accepted"})
		return
	}
	utils.Success(c, gin.H{"message": "friend request sent"})
}

func (h *Handler) AcceptFriendRequest(c *gin.Context) {
	requesterID, err := pathUserID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.friends.AcceptFriend(c.Request.Context(), middleware.GetUserID(c), requesterID); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "friend request accepted"})
}

func (h *Handler) DeclineFriendRequest(c *gin.Context) {
	requesterID, err := pathUserID(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.friends.DeclineFriend(c.Request.Context(), middleware.GetUserID(c), requesterID); err != nil {
		h.respondError(c, err)
		return
	}
	utils.Success(c, gin.H{"message": "friend request declined"})
}
