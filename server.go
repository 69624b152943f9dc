package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"messagely/api/routes"
	"messagely/config"
	"messagely/db"
	"messagely/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	conf, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if conf.Logs.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Printf("Starting server, db driver %s, read policy %s", conf.Database.Driver, conf.Messages.ReadPolicy)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	manager, err := db.ConnectDB(conf.Database)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer manager.Close()

	users := services.NewUserService(manager)
	var messages services.MessageStore = services.NewMessageService(manager, conf.Messages.ReadPolicy)

	if conf.Redis.Enabled {
		client, err := services.InitRedis(ctx, conf.Redis)
		if err != nil {
			log.Fatalf("Failed to init Redis: %v", err)
		}
		defer client.Close()
		messages = services.NewCachedMessageStore(messages, client, conf.CacheTTL())
	}

	hub := services.NewWSConnManager()
	var notifier services.Notifier = services.NewWSNotifier(hub)
	if conf.RabbitMQ.Enabled {
		rabbit, err := services.NewRabbitNotifier(conf.RabbitMQ)
		if err != nil {
			log.Fatalf("Failed to init RabbitMQ: %v", err)
		}
		defer rabbit.Close()
		if err := rabbit.StartConsumer(ctx, conf.RabbitMQ.Queue, notifier); err != nil {
			log.Fatalf("Failed to start RabbitMQ consumer: %v", err)
		}
		notifier = rabbit
	}

	router := routes.NewRouter(routes.Deps{
		Users:    users,
		Messages: messages,
		Tokens:   services.NewTokenIssuer(conf.Auth.Secret, conf.TokenTTL()),
		Notifier: notifier,
		Hub:      hub,
	})

	srv := &http.Server{
		Addr:    conf.ListenAddr(),
		Handler: router,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
}
