package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/titan3755/photobytes-blog/internal/handlers"
	"github.com/titan3755/photobytes-blog/internal/middleware"
	"github.com/titan3755/photobytes-blog/internal/models"
	"github.com/titan3755/photobytes-blog/internal/types"
)

func NewRouter() *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register)
			auth.POST("/login", handlers.Login)
			auth.POST("/logout", handlers.Logout)
			auth.GET("/me", middleware.AuthMiddleware(), handlers.Me)
			auth.POST("/refresh", middleware.AuthMiddleware(), handlers.RefreshSession)
		}

		// Public surface
		api.GET("/articles", handlers.ListArticles)
		api.GET("/articles/:slug", handlers.GetArticle)
		api.GET("/articles/:slug/comments", handlers.ListComments)
		api.GET("/categories", handlers.ListCategories)
		api.POST("/contact", handlers.SubmitContactMessage)

		authed := api.Group("", middleware.AuthMiddleware())
		{
			authed.POST("/articles/:slug/comments", handlers.CreateComment)
			authed.DELETE("/comments/:id", handlers.DeleteComment)

			authed.POST("/orders", handlers.CreateOrder)
			authed.GET("/orders", handlers.ListOrders)
			authed.GET("/orders/:id", handlers.GetOrder)
			authed.GET("/orders/:id/messages", handlers.ListOrderMessages)
			authed.POST("/orders/:id/messages", handlers.PostOrderMessage)
			authed.POST("/orders/:id/messages/read", handlers.MarkOrderMessagesRead)
			authed.GET("/ws/orders/:id", handlers.OrderThreadSocket)

			authed.POST("/applications", handlers.SubmitApplication)
			authed.GET("/applications/me", handlers.ListOwnApplications)

			authed.GET("/notifications", handlers.ListNotifications)
			authed.POST("/notifications/read", handlers.MarkNotificationsRead)
		}

		blog := api.Group("/blog", middleware.AuthMiddleware(), middleware.RequireRole(models.RoleBlogger, models.RoleAdmin))
		{
			blog.GET("/articles", handlers.ListOwnArticles)
			blog.POST("/articles", handlers.CreateArticle)
			blog.PUT("/articles/:id", handlers.UpdateArticle)
			blog.DELETE("/articles/:id", handlers.DeleteArticle)
		}

		admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.RequireAdmin())
		{
			admin.GET("/stats", handlers.GetStats)

			admin.GET("/users", handlers.ListUsers)
			admin.PATCH("/users/:id/role", handlers.UpdateUserRole)
			admin.PATCH("/users/:id/comments", handlers.UpdateUserCommentPermission)
			admin.DELETE("/users/:id", handlers.DeleteUser)

			admin.GET("/orders", handlers.AdminListOrders)
			admin.PATCH("/orders/:id/status", handlers.UpdateOrderStatus)
			admin.DELETE("/orders/:id", handlers.AdminDeleteOrder)

			admin.GET("/applications", handlers.ListApplications)
			admin.POST("/applications/:id/approve", handlers.ApproveApplication)
			admin.POST("/applications/:id/reject", handlers.RejectApplication)

			admin.POST("/categories", handlers.CreateCategory)
			admin.PUT("/categories/:id", handlers.UpdateCategory)
			admin.DELETE("/categories/:id", handlers.DeleteCategory)

			admin.GET("/contact", handlers.ListContactMessages)
			admin.POST("/contact/:id/read", handlers.MarkContactMessageRead)
			admin.DELETE("/contact/:id", handlers.DeleteContactMessage)
		}
	}

	return r
}
