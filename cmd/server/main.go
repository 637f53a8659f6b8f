package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smartcopy/config"
	"smartcopy/internal/database"
	"smartcopy/internal/pipeline"
	"smartcopy/internal/repository"
	"smartcopy/internal/router"
	"smartcopy/pkg/ai"
	"smartcopy/pkg/cloudinary"
	"smartcopy/pkg/payment"
	"smartcopy/pkg/scraper"
)

func main() {
	cfg := config.Load()
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, &cfg.Admin)

	var cloud cloudinary.Client
	if cfg.Cloudinary.CloudName != "" {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	}

	var provider ai.Provider
	if cfg.AI.APIKey != "" {
		provider = ai.NewOpenAIClient(cfg.AI.BaseURL, cfg.AI.APIKey,
			ai.WithModel(cfg.AI.Model),
			ai.WithMaxTokens(cfg.AI.MaxTokens),
			ai.WithTemperature(cfg.AI.Temperature),
			ai.WithTimeout(cfg.AI.Timeout),
		)
	} else {
		log.Printf("[ai] AI_API_KEY not set, using stub provider")
		provider = &ai.StubProvider{}
	}

	driver := pipeline.NewDriver(
		repository.NewTextRepository(db),
		repository.NewOrderRepository(db),
		provider,
		scraper.New(30*time.Second),
		nil,
		pipeline.Options{
			ScanInterval:            cfg.Pipeline.ScanInterval,
			Concurrency:             cfg.Pipeline.Concurrency,
			StageRetries:            cfg.Pipeline.StageRetries,
			RetryBackoff:            cfg.Pipeline.RetryBackoff,
			StructureThresholdChars: cfg.Pipeline.StructureThresholdChars,
		},
	)
	driverCtx, stopDriver := context.WithCancel(context.Background())
	go driver.Run(driverCtx)

	engine := router.Setup(cfg, db, cloud, &payment.StubProvider{})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	stopDriver()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	log.Println("server stopped")
}
