package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/syllaclash/backend/internal/game"
	"github.com/syllaclash/backend/internal/lexicon"
	"github.com/syllaclash/backend/internal/server"
	"github.com/syllaclash/backend/internal/syllable"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[main] no .env file found, using environment")
	}

	entries, err := lexicon.Load(getEnvStr("DICT_PATH", "data/dict.json"))
	if err != nil {
		log.Fatalf("[main] loading dictionary: %v", err)
	}
	index := lexicon.Build(entries)
	log.Printf("[main] dictionary loaded, %d words", index.Len())

	pools, err := syllable.LoadPools(getEnvStr("SYLLABLES_PATH", "data/syllables.json"))
	if err != nil {
		log.Fatalf("[main] loading syllable pools: %v", err)
	}

	cfg := game.DefaultConfig()
	cfg.TurnSecondsMin = getEnvInt("TURN_SECONDS_MIN", cfg.TurnSecondsMin)
	cfg.TurnSecondsMax = getEnvInt("TURN_SECONDS_MAX", cfg.TurnSecondsMax)
	cfg.EmptyRoomGrace = getEnvDuration("EMPTY_ROOM_GRACE", cfg.EmptyRoomGrace)
	cfg.RateRPS = float64(getEnvInt("WS_RATE_RPS", int(cfg.RateRPS)))
	cfg.RateBurst = getEnvInt("WS_RATE_BURST", cfg.RateBurst)
	if cfg.TurnSecondsMax < cfg.TurnSecondsMin {
		log.Fatalf("[main] TURN_SECONDS_MAX (%d) < TURN_SECONDS_MIN (%d)", cfg.TurnSecondsMax, cfg.TurnSecondsMin)
	}

	registry := game.NewRegistry(index, syllable.NewSelector(pools), cfg)
	srv := server.NewServer(registry)

	go func() {
		log.Printf("[main] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] http server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("[main] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[main] shutdown error: %v", err)
	}
}

func getEnvStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[main] invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[main] invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
