package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"friendlink/config"
	"friendlink/friends"
	"friendlink/middleware"
)

func NewRouter(svc *friends.Service, cfg *config.Config, log *zap.Logger) *gin.Engine {
	h := New(svc, cfg.JWTSecret, cfg.TokenTTL)
	auth := middleware.AuthMiddleware(cfg.JWTSecret)

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	r.POST("/api/auth/refresh", auth, h.RefreshToken)

	users := r.Group("/api/users")
	{
		users.POST("", h.Register)
		users.GET("/me", auth, h.GetCurrentUser)
	}

	friendRoutes := r.Group("/api/friends")
	friendRoutes.Use(auth)
	{
		friendRoutes.GET("", h.GetFriends)
		friendRoutes.GET("/:user_id", h.GetFriend)
	}

	requests := r.Group("/api/friend-requests")
	requests.Use(auth)
	{
		requests.GET("", h.GetFriendRequests)
		requests.POST("", h.SendFriendRequest)
		requests.POST("/:user_id/accept", h.AcceptFriendRequest)
		requests.POST("/:user_id/decline", h.DeclineFriendRequest)
	}

	return r
}
