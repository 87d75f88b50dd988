package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"collectionsync/internal/app/handlers"
	"collectionsync/internal/app/middleware"
)

func SetupRouter(
	serviceName string,
	webhookHandler *handlers.WebhookHandler,
	collectionsHandler *handlers.CollectionsHandler,
) *gin.Engine {
	server := gin.Default()
	server.Use(otelgin.Middleware(serviceName))
	server.Use(middleware.AttachTraceID())

	server.POST("/api/webhooks/provider", webhookHandler.ProviderWebhook)

	collections := server.Group("/api/collections")
	collections.GET("/debt-summary/:proposalId", collectionsHandler.DebtSummary)
	collections.POST("/extend-due-dates", collectionsHandler.ExtendDueDates)
	collections.POST("/settlement-discount", collectionsHandler.SettlementDiscount)
	collections.POST("/sync", collectionsHandler.Sync)

	healthCheckHandler := handlers.NewHealthCheckHandler()
	collections.GET("/healthcheck", healthCheckHandler.HealthCheck)

	return server
}
