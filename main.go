package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/flashdeck/internal/ai"
	"github.com/example/flashdeck/internal/database"
	"github.com/example/flashdeck/internal/engine"
	"github.com/example/flashdeck/internal/scheduler"
	"github.com/example/flashdeck/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	store := database.NewStore()
	recorder := engine.NewRecorder(store)

	var generator server.Generator
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		client, err := ai.New(apiKey)
		if err != nil {
			log.Printf("Warning: unable to initialize AI client: %v", err)
		} else {
			generator = client
		}
	} else {
		log.Println("OPENAI_API_KEY is not set; AI endpoints disabled")
	}

	srv := server.New(store, recorder, generator)

	sched := scheduler.New(recorder)
	sched.Start()
	defer sched.Stop()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	httpServer := &http.Server{
		Addr:    addr,
		Handler: srv,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	// Push any queued outcomes before the process goes away
	if err := sched.RunManualFlush(shutdownCtx); err != nil {
		log.Printf("Error flushing outcomes during shutdown: %v", err)
	}

	log.Println("Server stopped successfully")
}
