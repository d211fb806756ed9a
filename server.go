package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/bizbooks_backend/config"
	"github.com/mmdatafocus/bizbooks_backend/middlewares"
	"github.com/mmdatafocus/bizbooks_backend/models"
	"github.com/mmdatafocus/bizbooks_backend/syncapi"
	"github.com/mmdatafocus/bizbooks_backend/utils"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func correlationIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Header("x-correlation-id", cid)
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	}
}

// readinessGate answers 503 until the stores the sync service needs are connected.
func readinessGate() gin.HandlerFunc {
	needsDB := config.SyncStoreDriver() == config.SyncStoreMySQL
	return func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if (needsDB && config.GetDB() == nil) || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func corsMiddleware() gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
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
	corsConfig.AddAllowMethods("GET", "POST", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization",
		"x-company-id", "x-device-id", "x-correlation-id")
	corsConfig.AddExposeHeaders("Content-Length", "x-correlation-id")
	corsConfig.AllowCredentials = true
	return cors.New(corsConfig)
}

// newEngine installs the middlewares every request passes first.
// Recovery sits ahead of auth so panics there are answered with 500.
func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(correlationIdMiddleware())
	r.Use(gin.Recovery())
	return r
}

func newRouter(logger *logrus.Logger, api *syncapi.API) *gin.Engine {
	r := newEngine()
	r.Use(readinessGate())
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.Use(corsMiddleware())

	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		rateLimiter := NewRateLimiter(config.GetRedisDB, rateLimitFromEnv())
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.SessionMiddleware())
	r.Use(middlewares.AuthMiddleware())
	r.Use(customErrorLogger(logger))
	api.Register(r)
	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// The gorm stores resolve config.GetDB() per call, so the service can be
	// built before the database is connected.
	svc := syncapi.BuildService(nil)
	r := newRouter(logger, syncapi.NewAPI(svc, syncapi.DefaultUserResolver()))

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	config.ConnectRedisWithRetry()
	if config.SyncStoreDriver() == config.SyncStoreMySQL {
		config.ConnectDatabaseWithRetry()
		db := config.GetDB()
		sqlDB, _ := db.DB()
		defer func() {
			if sqlDB != nil {
				_ = sqlDB.Close()
			}
		}()
		// AutoMigrate can block tables; allow running it as a separate job instead.
		if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
			models.MigrateTable()
		} else {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
		}
		setReadCommitted(db, logger)
	} else {
		logger.WithFields(logrus.Fields{"field": "sync"}).Warn("SYNC_STORE_DRIVER=memory; queued operations are lost on restart")
	}

	if config.SyncEventsEnabled() {
		ensureEventsTopic(sigCtx, logger)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("offline sync API listening on :", port)
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests. Sync passes already started run to completion.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	config.ClosePubSub()
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// ensureEventsTopic creates the sync events topic on first deploy.
// Publishing still works without it if the topic is provisioned elsewhere.
func ensureEventsTopic(ctx context.Context, logger *logrus.Logger) {
	topic := config.SyncEventsTopic()
	client, err := config.GetClient(ctx)
	if err == nil {
		_, err = config.CreateTopicIfNotExists(ctx, client, topic)
	}
	if err != nil {
		logger.WithFields(logrus.Fields{
			"field": "pubsub",
			"topic": topic,
		}).Warn("sync events topic not ready: " + err.Error())
	}
}

// customErrorLogger logs only requests that recorded gin errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{
				"field":          "http",
				"path":           c.FullPath(),
				"correlation_id": cid,
			}).Error(c.Errors.String())
		}
	}
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
