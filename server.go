package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bsm/redislock"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/venturatrading/commerce_backend/config"
	"github.com/venturatrading/commerce_backend/middlewares"
	"github.com/venturatrading/commerce_backend/models"
	"github.com/venturatrading/commerce_backend/paymongo"
	"github.com/venturatrading/commerce_backend/utils"
	"github.com/venturatrading/commerce_backend/workflow"
	"go.opentelemetry.io/otel"
)

const defaultPort = "8080"

var tracer = otel.Tracer("ventura-commerce")

// gatewayWebhookHandler receives PayMongo event deliveries. Signature
// failures get 400; processing failures get 500 so the gateway redelivers;
// events we choose to drop still get 200 so they are not retried forever.
func gatewayWebhookHandler(gw *paymongo.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			config.LogError(logger, "server.go", "gatewayWebhookHandler", "io.ReadAll", nil, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
			return
		}

		if !gw.VerifyWebhookSignature(body, c.GetHeader("Paymongo-Signature")) {
			logger.WithFields(logrus.Fields{
				"module": "server.go",
				"remote": c.ClientIP(),
			}).Warn("webhook signature verification failed")
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}

		event, err := paymongo.ParseWebhookEvent(body)
		if err != nil {
			config.LogError(logger, "server.go", "gatewayWebhookHandler", "parse event", string(body), err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event"})
			return
		}

		// Best-effort redis lock per gateway payment. Correctness does not
		// depend on it; the conditional status update is the real guard.
		var lock *redislock.Lock
		redisLock := config.GetRedisLock()
		if redisLock != nil {
			lock, err = redisLock.Obtain(c.Request.Context(),
				"lock:gateway:"+event.Data.CorrelationID(), 30*time.Second, nil)
			if err != nil {
				if err != redislock.ErrNotObtained {
					config.LogWarn(logger, "server.go", "gatewayWebhookHandler",
						"redis lock", err.Error())
				}
				lock = nil
			}
		}
		defer func() {
			if lock == nil {
				return
			}
			if releaseErr := lock.Release(c.Request.Context()); releaseErr != nil {
				config.LogWarn(logger, "server.go", "gatewayWebhookHandler",
					"redis lock release", releaseErr.Error())
			}
		}()

		ctx, span := tracer.Start(c.Request.Context(), "webhook."+event.Type)
		defer span.End()

		ctx = utils.SetUserNameInContext(ctx, "System")
		if err := workflow.ProcessGatewayEvent(ctx, logger, event); err != nil {
			config.LogError(logger, "server.go", "gatewayWebhookHandler", "process event",
				map[string]string{"event_id": event.ID, "event_type": event.Type}, err)
			c.Status(http.StatusInternalServerError)
			return
		}

		c.Status(http.StatusOK)
	}
}

func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func splitAndTrim(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("payment_method", func(fl validator.FieldLevel) bool {
			return models.PaymentMethod(fl.Field().String()).IsValid()
		})
	}
}

func registerRoutes(r *gin.Engine, gw *paymongo.Client) {
	r.POST("/auth/login", loginHandler())
	r.POST("/payments/webhook", gatewayWebhookHandler(gw))

	customer := r.Group("/", middlewares.RequireAuth(), middlewares.RequireCustomer())
	{
		customer.POST("/payments/submit", submitPaymentHandler())
		customer.GET("/payments/my", myPaymentsHandler())
		customer.POST("/payments/:id/appeal", appealPaymentHandler())
		customer.POST("/payments/intent", createIntentHandler(gw))
		customer.POST("/payments/method", createMethodHandler(gw))
		customer.POST("/payments/attach", attachMethodHandler(gw))
		customer.POST("/payments/source", createSourceHandler(gw))
		customer.GET("/payments/status/:intentId", intentStatusHandler(gw))
		customer.GET("/invoices/my", myInvoicesHandler())
		customer.GET("/invoices/:id", getInvoiceHandler())
		customer.GET("/receipts/my", myReceiptsHandler())
		customer.GET("/notifications/my", myNotificationsHandler())
		customer.PATCH("/notifications/:id/read", markNotificationReadHandler())
		customer.PATCH("/notifications/read-all", markAllNotificationsReadHandler())
	}

	admin := r.Group("/", middlewares.RequireAuth(), middlewares.RequireAdmin())
	{
		admin.GET("/payments/pending", paymentsByStatusHandler(models.PaymentStatusPendingApproval))
		admin.GET("/payments/rejected", paymentsByStatusHandler(models.PaymentStatusRejected))
		admin.GET("/payments/failed", paymentsByStatusHandler(models.PaymentStatusFailed))
		admin.GET("/payments/:id/history", paymentHistoryHandler())
		admin.PATCH("/payments/:id/approve", approvePaymentHandler())
		admin.PATCH("/payments/:id/reject", rejectPaymentHandler())
		admin.PATCH("/payments/:id/reapprove", reapprovePaymentHandler())
		admin.DELETE("/payments/:id", deletePaymentHandler())
		admin.POST("/invoices/:id/recalculate", recalculateInvoiceHandler())
		admin.GET("/receipts/:id", getReceiptHandler())
		admin.GET("/notifications", adminNotificationsHandler())
		admin.POST("/customers", createCustomerHandler())
		admin.POST("/users", createUserHandler())
		admin.GET("/reports/payments-received", paymentsReceivedReportHandler())
		admin.GET("/reports/payments-received.xlsx", paymentsReceivedExcelHandler())
	}
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server before the DB is ready; app endpoints return 503
	// until dependencies connect.
	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/readyz", func(c *gin.Context) {
		status := gin.H{"database": "up", "redis": "disabled"}
		if rdb := config.GetRedisDB(); rdb != nil {
			status["redis"] = "up"
			if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
				status["redis"] = "down"
			}
		}
		c.JSON(http.StatusOK, status)
	})

	corsConfig := cors.DefaultConfig()
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	gw, err := paymongo.NewClient()
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "paymongo"}).Panic(err.Error())
	}
	if gw.WebhookSecret() == "" {
		logger.WithFields(logrus.Fields{"field": "paymongo"}).
			Warn("PAYMONGO_WEBHOOK_SECRET not set; webhook signatures will not be verified")
	}

	registerValidators()
	registerRoutes(r, gw)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on port ", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}
}
