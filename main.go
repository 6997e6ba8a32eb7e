package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/damione1/backlog-poker/internal/backlog"
	"github.com/damione1/backlog-poker/internal/config"
	"github.com/damione1/backlog-poker/internal/handlers"
	"github.com/damione1/backlog-poker/internal/services"
	"github.com/damione1/backlog-poker/internal/storage"
)

func main() {
	cfg := config.Load()

	metrics := services.NewMetrics()
	hub := services.NewHub(metrics)

	var archiver services.BacklogArchiver
	var reader handlers.BacklogReader
	if cfg.BacklogDB != "" {
		archive, err := storage.Open(cfg.BacklogDB)
		if err != nil {
			log.Fatalf("Failed to open backlog archive: %v", err)
		}
		defer archive.Close()
		archiver = archive
		reader = archive
		log.Printf("Backlog archive ready at %s", cfg.BacklogDB)
	}

	registry := services.NewRegistry(hub, backlog.FileLoader(cfg.FeaturesFile), archiver, cfg.PublicURL, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	// Safety-net sweep for rooms whose last disconnect never reached the
	// registry.
	go func() {
		ticker := time.NewTicker(config.EmptyRoomSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if count := registry.SweepEmpty(config.EmptyRoomGracePeriod); count > 0 {
					log.Printf("Cleaned up %d empty rooms", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	roomHandler := handlers.NewRoomHandler(registry)
	wsHandler := handlers.NewWSHandler(hub, registry, metrics)
	backlogHandler := handlers.NewBacklogHandler(registry, reader)

	router := gin.Default()

	api := router.Group("/api")
	{
		api.POST("/rooms", roomHandler.CreateRoom)
		api.GET("/rooms/:id", roomHandler.GetRoom)
		api.GET("/metrics", handlers.HandleMetrics(hub))
		api.GET("/health", handlers.HandleHealth(hub))
	}

	router.GET("/ws/:roomId", wsHandler.HandleWebSocket)
	router.GET("/final_backlog/:roomId", backlogHandler.GetFinalBacklog)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		server.Close()
	}()

	log.Printf("Starting server on %s", cfg.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
