package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/syllaclash/backend/internal/game"
)

type Server struct {
	port int

	registry *game.Registry
}

func NewServer(registry *game.Registry) *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}
	NewServer := &Server{
		port:     port,
		registry: registry,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
