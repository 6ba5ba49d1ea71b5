package main

import (
	"context"
	"log"

	gcs "cloud.google.com/go/storage"
	"github.com/joho/godotenv"
	"github.com/propertypulse/backend/internal/config"
	"github.com/propertypulse/backend/internal/db"
	"github.com/propertypulse/backend/internal/model"
	"github.com/propertypulse/backend/internal/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	conn, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	if err := conn.AutoMigrate(&model.User{}, &model.Property{}, &model.PurchaseRequest{}); err != nil {
		log.Printf("auto migrate error: %v", err)
	}

	var storageClient *gcs.Client
	if cfg.ReceiptBucket != "" {
		storageClient, err = gcs.NewClient(context.Background())
		if err != nil {
			log.Fatalf("storage client error: %v", err)
		}
		defer storageClient.Close()
	}

	srv := server.New(cfg, conn, storageClient)

	addr := ":" + cfg.Port
	log.Printf("starting server on %s", addr)
	if err := srv.Start(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
