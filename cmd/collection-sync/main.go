package main

import (
	"context"
	"log"
	"strconv"

	"collectionsync/internal/app/handlers"
	"collectionsync/internal/app/router"
	"collectionsync/internal/pkg/accesscontrol"
	"collectionsync/internal/pkg/config"
	mongodb "collectionsync/internal/pkg/db/mongo"
	redisdb "collectionsync/internal/pkg/db/redis"
	"collectionsync/internal/pkg/docs"
	"collectionsync/internal/pkg/downstreams"
	"collectionsync/internal/pkg/gcs"
	"collectionsync/internal/pkg/kafka/producer"
	"collectionsync/internal/pkg/logger"
	"collectionsync/internal/pkg/otel"
	"collectionsync/internal/pkg/pubsub"
	"collectionsync/internal/pkg/store/impl/audit"
	"collectionsync/internal/pkg/store/impl/collections"
	"collectionsync/internal/pkg/store/impl/events"
	"collectionsync/internal/pkg/store/impl/installments"
	"collectionsync/internal/pkg/store/repository"
	"collectionsync/internal/service/batch"
	"collectionsync/internal/service/reconciliation"
	"collectionsync/internal/service/sweep"
	"collectionsync/internal/service/webhook"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadFromConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging.LogLevel)

	if cfg.Otel.Enabled {
		shutdown, err := otel.Setup(ctx, cfg.Otel.ServiceName, cfg.Otel.CollectorURL)
		if err != nil {
			logger.Error("Error setting up OTLP", err)
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					logger.Error("Error shutting down OTLP", err)
				}
			}()
		}
	}

	mongoClient, err := mongodb.ConnectToMongoDB(ctx, cfg.Mongo)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongodb.Disconnect(mongoClient.Client); err != nil {
			logger.Error("Error disconnecting MongoDB", err)
		}
	}()

	redisClient, err := redisdb.ConnectToRedis(ctx, cfg.Redis, nil)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := redisdb.Disconnect(redisClient.Client); err != nil {
			logger.Error("Error disconnecting Redis", err)
		}
	}()

	kafkaProducer, err := producer.NewKafkaProducer(cfg.Kafka)
	if err != nil {
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	defer kafkaProducer.Close()
	logger.Info("Kafka producer created")

	pubsubPublisher, err := pubsub.NewPubSubPublisher(ctx, cfg.PubSub)
	if err != nil {
		log.Fatalf("Failed to create Pub/Sub publisher: %v", err)
	}
	defer pubsubPublisher.Close()
	logger.Info("Pub/Sub publisher created")

	docArchive, err := gcs.NewDocumentArchive(ctx, cfg.GCS.DocumentBucket)
	if err != nil {
		log.Fatalf("Failed to create GCS document archive: %v", err)
	}
	defer docArchive.Close(ctx)

	collectionsRepo := collections.NewCollectionsRepository(mongoClient)
	installmentsRepo := installments.NewInstallmentsRepository(mongoClient)
	auditRepo := audit.NewAuditRepository(mongoClient)
	processedRepo := events.NewProcessedEventsRepository(mongoClient)
	parkedRepo := events.NewParkedEventsRepository(mongoClient)
	dedupCache := repository.NewRedisDedupAdapter(redisClient.Client)
	accessControl := accesscontrol.NewRedisAccessControl(redisClient.Client)

	providerClient := downstreams.NewProviderClient(cfg.Provider)

	engine := reconciliation.NewEngine(reconciliation.EngineDeps{
		Collections:  collectionsRepo,
		Installments: installmentsRepo,
		AuditRepo:    auditRepo,
		Processed:    processedRepo,
		Parked:       parkedRepo,
		DedupCache:   dedupCache,
		TxnRunner:    mongoClient,
		ParkedTopic:  kafkaProducer,
		Notifier:     pubsubPublisher,
		DedupTTL:     cfg.Redis.DedupTTL,
	})

	batchService := batch.NewService(batch.ServiceDeps{
		Collections:   collectionsRepo,
		Installments:  installmentsRepo,
		AuditRepo:     auditRepo,
		Provider:      providerClient,
		AccessControl: accessControl,
		DocPipeline:   docs.NewPipeline(),
		DocArchive:    docArchive,
		TxnRunner:     mongoClient,
		WorkerCount:   cfg.Batch.WorkerCount,
		MaxDiscount:   int(cfg.Batch.MaxDiscountPercent),
	})
	defer batchService.Stop()

	sweepService := sweep.NewService(
		collectionsRepo,
		providerClient,
		engine,
		accessControl,
		cfg.Batch.SweepBatchSize,
	)

	webhookHandler := handlers.NewWebhookHandler(webhook.NewVerifier(cfg.Provider.WebhookSecret), engine)
	collectionsHandler := handlers.NewCollectionsHandler(batchService, sweepService)

	server := router.SetupRouter(cfg.Otel.ServiceName, webhookHandler, collectionsHandler)

	port := strconv.Itoa(cfg.Server.Port)
	if err := server.Run(":" + port); err != nil {
		logger.Error("Failed to run server", err)
	}
}
