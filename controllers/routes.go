package controllers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kendall-kelly/home-therapy-api/logger"
	"github.com/kendall-kelly/home-therapy-api/middleware"
	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/repository"
	"github.com/kendall-kelly/home-therapy-api/services"
)

// Dependencies is everything the router wires into handlers
type Dependencies struct {
	Store    *repository.Store
	Orders   *services.OrderService
	Payments *services.PaymentService
	Feedback *services.FeedbackService
	Messages *services.MessageService
	Catalog  *services.CatalogService
	Users    *services.UserService

	// Auth validates bearer tokens, normally middleware.EnsureValidToken
	Auth gin.HandlerFunc

	UploadDir      string
	AllowedOrigins []string
	Log            *zap.Logger
}

// NewRouter builds the HTTP API
func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(logger.GinMiddleware(log), logger.Recovery(log))
	router.Use(corsMiddleware(deps.AllowedOrigins))

	health := NewHealthController(deps.Store, log)
	orders := NewOrderController(deps.Orders, log)
	payments := NewPaymentController(deps.Payments, log)
	feedback := NewFeedbackController(deps.Feedback, log)
	messages := NewMessageController(deps.Messages, log)
	catalog := NewCatalogController(deps.Catalog, log)
	admin := NewAdminController(deps.Catalog, log)
	users := NewUserController(deps.Users, log)
	uploads := NewUploadController(deps.UploadDir)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", health.HealthCheck)
		v1.GET("/database/status", health.DatabaseStatus)
		v1.GET("/uploads/:filename", uploads.GetUploadedImage)
		v1.POST("/payments/callback", payments.PaymentCallback)

		v1.GET("/therapists", catalog.ListTherapists)
		v1.GET("/therapists/:id", catalog.GetTherapist)
		v1.GET("/therapists/:id/feedbacks", feedback.ListTherapistFeedbacks)
		v1.GET("/service-items", catalog.ListServiceItems)
		v1.GET("/service-items/:id", catalog.GetServiceItem)
		v1.GET("/feedbacks/:id", feedback.GetFeedback)
	}

	authed := v1.Group("", deps.Auth)
	authed.POST("/users", users.Register)

	// every route below needs a registered account
	actor := authed.Group("", middleware.ResolveActor(deps.Users, log))
	{
		actor.GET("/orders", orders.ListOrders)
		actor.GET("/orders/:id", orders.GetOrder)
		actor.POST("/orders/:id/actions/:action", orders.TransitionOrder)
		actor.POST("/orders/:id/messages", messages.SendMessage)
		actor.GET("/orders/:id/messages", messages.GetMessages)
		actor.GET("/messages/conversations", messages.GetConversations)
		actor.GET("/messages/unread-count", messages.GetUnreadCount)
		actor.PUT("/messages/:id/read", messages.MarkRead)
	}

	user := actor.Group("", middleware.RequireRole(models.RoleUser))
	{
		user.GET("/users/me", users.GetMyProfile)
		user.PUT("/users/me", users.UpdateMyProfile)
		user.GET("/users/me/feedbacks", feedback.ListMyFeedbacks)

		user.POST("/orders", orders.CreateOrder)
		user.POST("/orders/:id/payment", payments.CreatePayment)
		user.GET("/orders/:id/payment", payments.GetPaymentStatus)
		user.POST("/orders/:id/refund", payments.Refund)
		user.POST("/orders/:id/feedback", feedback.CreateFeedback)
		user.PUT("/feedbacks/:id", feedback.UpdateFeedback)
		user.DELETE("/feedbacks/:id", feedback.DeleteFeedback)
	}

	therapist := actor.Group("/therapist", middleware.RequireRole(models.RoleTherapist))
	{
		therapist.GET("/profile", catalog.GetMyProfile)
		therapist.POST("/avatar", catalog.UploadAvatar)
	}

	adminGroup := actor.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.POST("/service-items", admin.CreateServiceItem)
		adminGroup.PUT("/service-items/:id", admin.UpdateServiceItem)
		adminGroup.DELETE("/service-items/:id", admin.DeactivateServiceItem)
		adminGroup.POST("/therapists", admin.CreateTherapist)
		adminGroup.PUT("/therapists/:id/services", admin.AssignServices)
		adminGroup.PUT("/therapists/:id/status", admin.SetTherapistStatus)
	}

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
