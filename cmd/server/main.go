package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kca-ai/document-parser/api/handlers"
	"github.com/kca-ai/document-parser/api/routes"
	"github.com/kca-ai/document-parser/internal/app"
	"github.com/kca-ai/document-parser/pkg/logger"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/server.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	application, err := app.New(context.Background(), log)
	if err != nil {
		log.Fatal("Failed to initialize application", logger.Error(err))
	}
	defer application.Close()

	h := handlers.NewHandlers(
		application.Service,
		application.Store,
		application.Registry,
		application.Storage,
		log,
	)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h)

	srv := &http.Server{
		Addr:    application.Config.ListenAddr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", application.Config.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
