package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"noteboard/config"
	"noteboard/services"
)

// Отдельный бинарь воркера уведомлений: разбирает очередь модераторских
// писем, когда API и доставку хочется масштабировать независимо.
func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	if err := config.AppConfig.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	conf := config.AppConfig
	notifier := services.NewNotifier(
		conf.Notify.ResendAPIKey,
		conf.Notify.ResendURL,
		conf.Notify.FromEmail,
		conf.Notify.ToEmail,
		conf.Board.PublicBaseURL,
		conf.Board.ApprovalToken,
	)

	if err := services.InitRedis(notifier); err != nil {
		log.Fatal("Failed to connect to Redis: ", err)
	}
	defer services.CloseRedis()

	ctx, cancel := context.WithCancel(context.Background())
	services.NotifyQueueInstance.StartWorkers(ctx)
	log.Println("Notify worker started")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Notify worker stopping")
	cancel()
}
