package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"noteboard/api/handlers"
	"noteboard/api/middleware"
	"noteboard/api/routes"
	"noteboard/config"
	"noteboard/db"
	"noteboard/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if err := config.AppConfig.Validate(); err != nil {
		panic("Invalid configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	conf := config.AppConfig

	gate := services.NewIdentityGate(conf.Auth.ProviderURL, conf.Auth.ProviderKey, conf.Auth.AllowedDomains)
	moderation := services.NewModerationClient(
		conf.Moderation.URL,
		conf.Moderation.APIKey,
		conf.Moderation.SevereThreshold,
		time.Duration(conf.Moderation.TimeoutSeconds)*time.Second,
	)
	notifier := services.NewNotifier(
		conf.Notify.ResendAPIKey,
		conf.Notify.ResendURL,
		conf.Notify.FromEmail,
		conf.Notify.ToEmail,
		conf.Board.PublicBaseURL,
		conf.Board.ApprovalToken,
	)
	moderators := services.NewModeratorService()
	messageService := services.NewMessageService(moderation, notifier, conf.Board.DefaultColor)

	ctx := context.Background()

	// Redis опционален: без него уведомления уходят напрямую из оркестратора
	if err := services.InitRedis(notifier); err != nil {
		log.Printf("Warning: Redis initialization failed, notifications fall back to direct delivery: %v", err)
	} else {
		services.NotifyQueueInstance.StartWorkers(ctx)
		defer services.CloseRedis()
	}

	// RabbitMQ тоже опционален: без брокера доска живет без live-обновлений
	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("Warning: RabbitMQ initialization failed, board events disabled: %v", err)
	} else {
		if err := services.StartBoardEventConsumer(ctx, "board_ws_push"); err != nil {
			log.Printf("Warning: failed to start board event consumer: %v", err)
		}
		defer services.CloseRabbitMQ()
	}

	msgHandlers := handlers.NewMessageHandlers(messageService)
	modHandlers := handlers.NewModerationHandlers(messageService, services.NotifyQueueInstance, conf.Board.ApprovalToken)
	authHandlers := handlers.NewAuthHandlers(moderators, conf.Board.ApprovalToken)

	router := gin.Default()
	router.Use(middleware.PrometheusMiddleware("noteboard"))

	routes.PublicApi(router, gate, moderators, msgHandlers, modHandlers, authHandlers)

	addr := fmt.Sprintf("%s:%d", conf.Backend.Host, conf.Backend.Port)
	if conf.Backend.Port == 0 {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
