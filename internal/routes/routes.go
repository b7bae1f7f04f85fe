package routes

import (
	"smartnotes-backend/internal/config"
	"smartnotes-backend/internal/handlers"
	"smartnotes-backend/internal/middleware"
	"smartnotes-backend/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, cfg *config.Config, aiClient services.AIClient) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(60))

	authService := services.NewAuthService(db)
	noteService := services.NewNoteService(db, aiClient)
	tagService := services.NewTagService(db)
	chatService := services.NewChatService(db, aiClient)

	authHandler := handlers.NewAuthHandler(authService, cfg)
	noteHandler := handlers.NewNoteHandler(noteService)
	tagHandler := handlers.NewTagHandler(tagService)
	chatHandler := handlers.NewChatHandler(chatService)

	api := router.Group("/api")

	public := api.Group("")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(db, cfg))
	{
		user := protected.Group("/auth")
		{
			user.GET("/me", authHandler.GetMe)
			user.PUT("/me", authHandler.UpdateMe)
			user.POST("/logout", authHandler.Logout)
		}

		notes := protected.Group("/notes")
		{
			notes.GET("", noteHandler.GetNotes)
			notes.POST("", noteHandler.CreateNote)
			notes.GET("/stats", noteHandler.GetUserStats)

			notes.POST("/:id/summarize", noteHandler.SummarizeNote)

			notes.GET("/:id", noteHandler.GetNote)
			notes.PUT("/:id", noteHandler.UpdateNote)
			notes.PATCH("/:id", noteHandler.UpdateNote)
			notes.DELETE("/:id", noteHandler.DeleteNote)
		}

		tags := protected.Group("/tags")
		{
			tags.GET("", tagHandler.GetTags)
			tags.POST("", tagHandler.CreateTag)
			tags.PUT("/:id", tagHandler.UpdateTag)
			tags.DELETE("/:id", tagHandler.DeleteTag)
		}

		chats := protected.Group("/chats")
		{
			chats.GET("", chatHandler.GetChats)
			chats.POST("", chatHandler.CreateChat)
			chats.GET("/search", chatHandler.SearchChats)

			chats.POST("/:id/ai_response", chatHandler.AIResponse)
			chats.POST("/:id/update_summary", chatHandler.UpdateSummary)
			chats.GET("/:id/context", chatHandler.GetContext)
			chats.GET("/:id/messages", chatHandler.GetMessages)
			chats.GET("/:id/stats", chatHandler.GetStats)
			chats.POST("/:id/messages/:message_id/summarize", chatHandler.SummarizeMessage)

			chats.GET("/:id", chatHandler.GetChat)
			chats.DELETE("/:id", chatHandler.DeleteChat)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "服务运行正常",
		})
	})

	return router
}
