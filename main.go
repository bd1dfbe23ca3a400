// File: driveon/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"driveon/config"
	"driveon/handlers"
	"driveon/middleware"
	"driveon/routes"
	"driveon/store"
	"driveon/utils"

	"github.com/gin-gonic/gin"
)

// main runs the reference lesson service: the in-process stand-in for the
// driving school backend that the booking client talks to. It serves the
// same contract with seeded fixture data, for local development and
// integration tests.
func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	lessonStore := store.NewLessonStore(time.Duration(config.AppConfig.RefundWindowHours) * time.Hour)
	store.Seed(lessonStore)

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	router.Use(routes.CORSConfig())

	lessonHandler := handlers.NewLessonHandler(lessonStore, logger)
	routes.RegisterLessonRoutes(router, lessonHandler)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "3000"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting lesson service on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
