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

	"book-stock-service/config"
	"book-stock-service/internal/api"
	"book-stock-service/internal/broker"
	"book-stock-service/internal/redisclient"
	"book-stock-service/internal/service"
	"book-stock-service/internal/store"
	"book-stock-service/internal/util"
	"book-stock-service/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting book stock service")

	tp, err := util.InitTracer("book-stock-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.OutcomeTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicResponses)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	publisher := broker.NewResponsePublisher(producer)
	reconciler := service.NewReconciler(db, redisClient, cfg.Business.ReconcileTimeout)
	salesClient := service.NewSalesClient(cfg.Sales.BaseURL, cfg.Sales.RequestTimeout)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	workers := make([]*worker.SaleEventWorker, 0, cfg.Kafka.Consumers)
	for i := 0; i < cfg.Kafka.Consumers; i++ {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicSales, cfg.Kafka.ConsumerGroup)
		w := worker.NewSaleEventWorker(consumer, reconciler, publisher)
		workers = append(workers, w)
		go func(w *worker.SaleEventWorker) {
			if err := w.Start(workerCtx); err != nil {
				log.Printf("Sale event worker error: %v", err)
			}
		}(w)
	}

	poller := worker.NewPollingReconciler(salesClient, reconciler, cfg.Poller.Interval)
	go poller.Start(workerCtx)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(db)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	for _, w := range workers {
		w.Stop()
	}

	log.Println("Server exited")
}
