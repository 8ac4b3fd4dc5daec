package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/librarium/internal/app/controllers"
	"github.com/yigit/librarium/internal/middleware"
)

// Controllers groups every HTTP handler set mounted by SetupRouter
type Controllers struct {
	Auth     *controllers.AuthController
	UserBook *controllers.UserBookController
	Book     *controllers.BookController
	Forum    *controllers.ForumController
	Stats    *controllers.StatsController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, ctrl Controllers, authMiddleware *middleware.AuthMiddleware) {
	router.GET("/health", ctrl.Stats.Health)

	// API version group
	v1 := router.Group("/api/v1")

	// --- Public routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", ctrl.Auth.Register)
		auth.POST("/login", ctrl.Auth.Login)
	}
	v1.GET("/stats", ctrl.Stats.Stats)
	v1.GET("/books", ctrl.Book.List)
	v1.GET("/books/:id/reviews", ctrl.Book.Reviews)
	v1.GET("/forum/posts", ctrl.Forum.ListPosts)

	// --- Authenticated routes ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", ctrl.Auth.Logout)
		authenticated.GET("/auth/me", ctrl.Auth.Me)

		borrowed := authenticated.Group("/borrowed-books")
		{
			borrowed.GET("", ctrl.UserBook.List)
			borrowed.POST("", ctrl.UserBook.Create)
			borrowed.POST("/:id/return", ctrl.UserBook.Return)
		}

		authenticated.POST("/books", ctrl.Book.Create)
		authenticated.POST("/books/:id/borrow", ctrl.Book.Borrow)
		authenticated.POST("/books/:id/reviews", ctrl.Book.AddReview)
		authenticated.GET("/loans", ctrl.Book.Loans)
		authenticated.POST("/loans/:id/return", ctrl.Book.ReturnLoan)

		forum := authenticated.Group("/forum")
		{
			forum.POST("/posts", ctrl.Forum.CreatePost)
			forum.DELETE("/posts/:id", ctrl.Forum.DeletePost)
			forum.POST("/posts/:id/comments", ctrl.Forum.AddComment)
			forum.DELETE("/comments/:id", ctrl.Forum.DeleteComment)
		}
	}
}
