package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/namay10/DcaVault/config"
	"github.com/namay10/DcaVault/internal/app"
	httphandler "github.com/namay10/DcaVault/internal/handlers/http"
	"github.com/namay10/DcaVault/pkg/utils"
)

func main() {
	cfg := config.LoadConfig()

	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Println("Shutting down...")
		cancel()
	}()

	// Initialize app
	log.Println("Initializing app...")
	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}

	// Start event processor
	log.Println("Starting event processor...")
	go application.EventProcessor.Run(ctx)

	// Optionally generate demo vault traffic against the simulated engine
	if cfg.Demo {
		driver := utils.NewVaultDriver(application.VaultService, application.Ledger)
		go driver.Run(ctx, 5)
	}

	// Set up HTTP server
	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	httpServer := httphandler.NewServer(httpAddr, application.VaultService, application.Broadcaster)

	// Start HTTP server in a goroutine
	go func() {
		log.Printf("HTTP server listening on %s", httpAddr)
		if err := httpServer.Start(); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Clean up app resources
	log.Println("Cleaning up app resources...")
	application.Cleanup(ctx)

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server with timeout
	log.Println("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Service stopped.")
}
