package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"userhub/internal/api"
	"userhub/internal/app/service"
	"userhub/internal/common/security"
	"userhub/internal/domain/repository"
	"userhub/internal/event"
	"userhub/internal/platform/cache"
	"userhub/internal/platform/config"
	"userhub/internal/platform/database"
	"userhub/internal/pubsub"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	cache.ConnectRedis()
	defer cache.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Runtime logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 6. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	logRepo := repository.NewPgLogRepository(database.DB)

	// 7. Event bus with the log listener, and the subscription broker
	bus := event.NewBus()
	event.NewLogListener(logger, logRepo).Register(bus)
	broker := pubsub.NewBroker()

	// 8. Initialize Services
	authService := service.NewAuthService(userRepo, bus, logger)
	userService := service.NewUserService(userRepo, bus, logger)
	logService := service.NewLogService(logRepo)

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(authService, userService, logService, broker, cache.RDB)

	server := &http.Server{
		Addr:        ":" + config.AppConfig.APIPort,
		Handler:     router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
