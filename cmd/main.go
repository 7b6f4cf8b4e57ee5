package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/engine"
	"Loremaster/server/internal/gateway"
	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/rag"
	"Loremaster/server/internal/storage"
	"Loremaster/server/internal/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize the game store. MySQL is preferred; without it the server
	// still runs on the in-memory store so local play keeps working.
	var store interfaces.GameStore
	mysqlStore, err := storage.NewMySQLStore(cfg.Database.MySQL)
	if err != nil {
		log.Printf("Warning: Failed to connect to MySQL: %v", err)
		log.Println("Falling back to in-memory game store")
		store = storage.NewMemoryStore()
	} else {
		defer mysqlStore.Close()
		log.Println("MySQL connected successfully")
		store = mysqlStore
	}

	var cache *storage.RedisCache
	redisCache, err := storage.NewRedisCache(cfg.Database.Redis)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
	} else {
		defer redisCache.Close()
		log.Println("Redis connected successfully")
		cache = redisCache
	}

	// Similarity index is optional; without it turns run with no retrieved
	// context and no mirrored writes.
	var index interfaces.MemoryIndex
	if cfg.AI.Embedding.APIKey != "" {
		embedding := rag.NewEmbeddingService(cfg.AI.Embedding)
		qdrantIndex, err := rag.NewQdrantIndex(cfg.Database.Qdrant, embedding)
		if err != nil {
			log.Printf("Warning: Failed to connect to Qdrant: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := qdrantIndex.EnsureCollections(ctx); err != nil {
				log.Printf("Warning: Failed to initialize Qdrant collections: %v", err)
			} else {
				log.Println("Qdrant connected successfully")
				index = qdrantIndex
			}
			cancel()
		}
	} else {
		log.Println("Warning: No embedding API key configured, similarity retrieval disabled")
	}

	models, err := gateway.New(cfg.AI)
	if err != nil {
		log.Fatalf("Failed to initialize model gateway: %v", err)
	}

	gameEngine := engine.NewGameEngine(store, index, models, cache, engine.Options{
		HistoryLimit:   cfg.Game.HistoryLimit,
		RetrievalLimit: cfg.Game.RetrievalLimit,
	})

	hub := web.NewEventHub()
	go hub.Run()

	r := web.NewRouter(gameEngine, store, models, hub)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background
	go func() {
		log.Printf("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
