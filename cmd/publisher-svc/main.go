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

	"postflow/internal/dbmysql"
	"postflow/internal/di"

	"github.com/joho/godotenv"
)

func main() {

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Initializing application...")
	app, err := di.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.DB.AutoMigrate(
		&dbmysql.PublishRecord{},
		&dbmysql.DestinationAccount{},
		&dbmysql.NotifyPref{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("✅ Database migration completed")

	if app.Config.Engine.Enabled {
		app.Engine.Start()
	} else {
		log.Println("Engine disabled, scheduled records will not fire")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.Port),
		Handler:      app.Handler.Router(),
		ReadTimeout:  time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(app.Config.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("🚀 Publisher service listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Block until a shutdown signal arrives, then drain.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	if app.Config.Engine.Enabled {
		app.Engine.Stop()
	}

	if app.Mongo != nil {
		if err := app.Mongo.Close(ctx); err != nil {
			log.Printf("Mongo disconnect error: %v", err)
		}
	}

	log.Println("Shutdown complete")
}
