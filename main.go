package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/leadworker/config"
	"sjsage522/leadworker/internal/bot"
	"sjsage522/leadworker/logger"
	"sjsage522/leadworker/services/cache"
	"sjsage522/leadworker/services/publisher"
	"sjsage522/leadworker/services/searcher"
	"sjsage522/leadworker/services/store"
)

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("maps_base_url", cfg.MapsBaseURL).
		Str("detail_fetch", cfg.DetailFetch).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Durable duplicate store
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()
	log.Info().Str("path", cfg.DBPath).Msg("Store initialized")

	// Rate limiting cache
	cacheService := cache.NewMemcacheService(cfg.MemcacheAddr)
	log.Info().Str("addr", cfg.MemcacheAddr).Msg("Connected to Memcache")

	// Lead stream mirror
	redisPublisher := publisher.NewRedisPublisher(
		ctx,
		cfg.RedisAddr,
		cfg.RedisDB,
		cfg.RedisStream,
		cfg.RedisStreamMaxLength,
	)
	defer redisPublisher.Close()
	log.Info().
		Str("addr", cfg.RedisAddr).
		Str("stream", cfg.RedisStream).
		Msg("Connected to Redis")

	// Search runner
	se := searcher.New(cfg, st, cacheService, redisPublisher)

	// Telegram front-end
	b, err := bot.New(cfg, st, se)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	botDone := make(chan struct{})
	go func() {
		b.Start(ctx)
		close(botDone)
	}()

	// Wait for shutdown signal or bot exit
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		<-botDone
	case <-botDone:
		log.Info().Msg("Bot exited")
	}

	log.Info().Msg("Shutting down gracefully...")
}
