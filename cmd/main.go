package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreasstove999/orders-ms/internal/catalog"
	"github.com/andreasstove999/orders-ms/internal/db"
	"github.com/andreasstove999/orders-ms/internal/events"
	httpserver "github.com/andreasstove999/orders-ms/internal/http"
	"github.com/andreasstove999/orders-ms/internal/order"
)

func main() {
	port := getEnv("PORT", "8083")

	logger := log.New(os.Stdout, "[orders-ms] ", log.LstdFlags|log.Lshortfile)

	// DB
	if err := db.RunMigrations(db.GetDSN(), logger); err != nil {
		logger.Fatalf("migrations: %v", err)
	}
	database := db.MustOpen()
	orderRepo := order.NewRepository(database)

	// RabbitMQ
	rabbitConn := events.MustDial()
	defer rabbitConn.Close()

	catalogClient, err := catalog.NewAMQPClient(rabbitConn, catalog.DefaultTimeout)
	if err != nil {
		logger.Fatalf("catalog client: %v", err)
	}
	defer catalogClient.Close()

	publisher, err := events.NewPublisher(rabbitConn, events.NewSequenceStore(database))
	if err != nil {
		logger.Fatalf("publisher: %v", err)
	}
	defer publisher.Close()

	svc := order.NewService(orderRepo, catalogClient, publisher, logger)

	// HTTP
	mux := httpserver.NewRouter(svc)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Printf("orders-ms listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
