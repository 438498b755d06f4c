package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jwyun/staffpass-backend/config"
	"github.com/jwyun/staffpass-backend/internal/app/controller"
	"github.com/jwyun/staffpass-backend/internal/middleware"
)

type Router struct {
	authController         *controller.AuthController
	storeController        *controller.StoreController
	rosterController       *controller.RosterController
	verificationController *controller.VerificationController
	notificationController *controller.NotificationController
	uploadController       *controller.UploadController
	authMiddleware         *middleware.AuthMiddleware
	config                 *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	storeController *controller.StoreController,
	rosterController *controller.RosterController,
	verificationController *controller.VerificationController,
	notificationController *controller.NotificationController,
	uploadController *controller.UploadController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:         authController,
		storeController:        storeController,
		rosterController:       rosterController,
		verificationController: verificationController,
		notificationController: notificationController,
		uploadController:       uploadController,
		authMiddleware:         authMiddleware,
		config:                 cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "STAFFPASS API is running",
		})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", r.authController.Register)
			auth.POST("/login", r.authController.Login)
			auth.POST("/logout", r.authController.Logout)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.Me)
			auth.PUT("/me", r.authMiddleware.Authenticate(), r.authController.UpdateProfile)
		}

		brands := v1.Group("/brands")
		{
			brands.GET("", r.storeController.ListBrands)
			brands.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.storeController.CreateBrand,
			)
		}

		stores := v1.Group("/stores")
		{
			stores.GET("", r.storeController.ListStores)
			stores.GET("/:id", r.storeController.GetStore)
			stores.POST("",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("brand", "admin"),
				r.storeController.CreateStore,
			)
			stores.PUT("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("brand", "admin"),
				r.storeController.UpdateStore,
			)
			stores.DELETE("/:id",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("admin"),
				r.storeController.DeleteStore,
			)
			stores.POST("/:id/rotate-code",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("brand", "admin"),
				r.storeController.RotateVerificationCode,
			)

			// 매장 스태프 명부
			stores.GET("/:id/roster",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("brand", "admin"),
				r.rosterController.ListEntries,
			)
			stores.POST("/:id/roster",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("brand", "admin"),
				r.rosterController.AddEntry,
			)
			stores.POST("/:id/roster/import",
				r.authMiddleware.Authenticate(),
				r.authMiddleware.RequireRole("brand", "admin"),
				r.rosterController.ImportXLSX,
			)
		}

		roster := v1.Group("/roster")
		roster.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("brand", "admin"))
		{
			roster.PUT("/:id", r.rosterController.UpdateEntry)
			roster.DELETE("/:id", r.rosterController.RemoveEntry)
		}

		verifications := v1.Group("/verifications")
		verifications.Use(r.authMiddleware.Authenticate())
		{
			verifications.POST("", r.verificationController.Submit)
			verifications.GET("/me", r.verificationController.ListMine)
			verifications.GET("/:id", r.verificationController.GetDetail)
			verifications.POST("/:id/reply", r.verificationController.Reply)
		}

		admin := v1.Group("/admin")
		admin.Use(r.authMiddleware.Authenticate(), r.authMiddleware.RequireRole("admin"))
		{
			admin.GET("/verifications", r.verificationController.ListByStatus)
			admin.GET("/verifications/:id", r.verificationController.GetDetail)
			admin.POST("/verifications/:id/approve", r.verificationController.Approve)
			admin.POST("/verifications/:id/reject", r.verificationController.Reject)
			admin.POST("/verifications/:id/request-info", r.verificationController.RequestInfo)
			admin.POST("/verifications/:id/rescore", r.verificationController.Rescore)
			admin.POST("/verifications/:id/remind", r.verificationController.SendReminder)
			admin.POST("/verifications/remind", r.verificationController.SendReminders)
			admin.POST("/upload/view-url", r.uploadController.GenerateViewURL)
		}

		notifications := v1.Group("/notifications")
		notifications.Use(r.authMiddleware.Authenticate())
		{
			notifications.GET("", r.notificationController.List)
			notifications.GET("/unread-count", r.notificationController.UnreadCount)
			notifications.GET("/ws", r.notificationController.WebSocketHandler)
			notifications.PUT("/read-all", r.notificationController.MarkAllAsRead)
			notifications.PUT("/:id/read", r.notificationController.MarkAsRead)
			notifications.DELETE("/:id", r.notificationController.Delete)
		}

		upload := v1.Group("/upload")
		upload.Use(r.authMiddleware.Authenticate())
		{
			upload.POST("/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
