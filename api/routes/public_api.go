package routes

import (
	"noteboard/api/handlers"
	"noteboard/api/middleware"
	"noteboard/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PublicApi вешает все маршруты доски на роутер
func PublicApi(
	router *gin.Engine,
	gate *services.IdentityGate,
	moderators *services.ModeratorService,
	msgHandlers *handlers.MessageHandlers,
	modHandlers *handlers.ModerationHandlers,
	authHandlers *handlers.AuthHandlers,
) {
	api := router.Group("/api/v1/")
	{
		// Публичная доска
		api.GET("messages", msgHandlers.ListMessages)
		// Публикация: только проверенный институтский email
		api.POST("messages", middleware.AuthorMiddleware(gate), msgHandlers.SubmitMessage)

		// Учетки модераторов
		api.POST("auth/register", authHandlers.Register)
		api.POST("auth/login", authHandlers.Login)
		api.POST("auth/logout", authHandlers.Logout)

		// Действия модератора из залогиненной сессии
		moderation := api.Group("", middleware.ModeratorMiddleware(moderators))
		{
			moderation.POST("messages/:id/approve", modHandlers.ApproveMessage)
			moderation.POST("messages/:id/reject", modHandlers.RejectMessage)
			moderation.GET("moderation/queue/stats", modHandlers.QueueStats)
		}
	}

	// Действия по ссылкам из письма: общий токен в запросе вместо сессии
	router.GET("/moderation/approve", modHandlers.ApproveFromEmail)
	router.POST("/moderation/approve", modHandlers.ApproveFromEmail)
	router.GET("/moderation/reject", modHandlers.RejectFromEmail)
	router.POST("/moderation/reject", modHandlers.RejectFromEmail)

	// Живые обновления доски
	router.GET("/ws/board", handlers.BoardWSHandler)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
