package routes

import (
	"workflow-automation-api/controllers"
	"workflow-automation-api/middleware"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/refresh", controllers.RefreshToken)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Workflow Automation API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)

			// Processes available to start
			protected.GET("/processes", controllers.GetProcesses)
			protected.POST("/processes/:id/requests", controllers.StartRequest)

			// Requests
			requests := protected.Group("/requests")
			{
				requests.GET("", controllers.GetRequests)
				requests.GET("/:id", controllers.GetRequest)
				requests.GET("/:id/history/:history_id/attachment", controllers.DownloadAttachment)

				// Lifecycle actions (multipart: comments + optional attachment)
				requests.POST("/:id/approve", controllers.ApproveRequest)
				requests.POST("/:id/reject", controllers.RejectRequest)
				requests.POST("/:id/return", controllers.ReturnRequest)
				requests.POST("/:id/resubmit", controllers.ResubmitRequest)
				requests.POST("/:id/comment", controllers.CommentRequest)
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetNotifications)
				notifications.GET("/counter", controllers.GetNotificationCounter)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
			}

			// Administration (process/step/user definitions)
			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/processes", controllers.AdminListProcesses)
				admin.POST("/processes", controllers.AdminCreateProcess)
				admin.PUT("/processes/:id", controllers.AdminUpdateProcess)
				admin.DELETE("/processes/:id", controllers.AdminDeleteProcess)

				admin.POST("/processes/:id/steps", controllers.AdminCreateStep)
				admin.PUT("/processes/:id/steps/:step_id", controllers.AdminUpdateStep)
				admin.DELETE("/processes/:id/steps/:step_id", controllers.AdminDeleteStep)

				admin.GET("/users", controllers.AdminListUsers)
				admin.POST("/users", controllers.AdminCreateUser)
				admin.PUT("/users/:id", controllers.AdminUpdateUser)
				admin.DELETE("/users/:id", controllers.AdminDeleteUser)
			}
		}
	}
}
