package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-customizer/config"
	"storefront-customizer/database"
	customizerapi "storefront-customizer/internal/api/customizer"
	routes "storefront-customizer/internal/app/http"
	"storefront-customizer/internal/app/http/middleware"
	"storefront-customizer/internal/customizer"
	"storefront-customizer/internal/infra/cache"
	"storefront-customizer/internal/infra/events"
	"storefront-customizer/internal/infra/logger"
	"storefront-customizer/internal/infra/observability"
	"storefront-customizer/internal/infra/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "storefront-customizer"

func main() {
	config.LoadEnv()

	log, err := logger.New(config.LOG_MODE)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if config.LOG_MODE == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, log, observability.TracingConfig{
		Exporter:     config.TRACING_EXPORTER,
		OTLPEndpoint: config.OTLP_ENDPOINT,
		Insecure:     config.OTLP_INSECURE,
		SampleRatio:  config.TRACE_SAMPLE_RATIO,
		ServiceName:  serviceName,
		Environment:  config.LOG_MODE,
	})
	if err != nil {
		log.Fatal("tracing init failed", "error", err)
	}

	db, err := database.InitDB(config.DB_URL)
	if err != nil {
		log.Fatal("database init failed", "error", err)
	}

	// ---------- collaborators

	var rdb *goredis.Client
	if config.REDIS_ADDR != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: config.REDIS_ADDR})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis not reachable at startup", "addr", config.REDIS_ADDR, "error", err)
		}
		defer rdb.Close()
	}

	sinks := []events.Sink{events.NewLogSink(log)}
	var invalidators cache.Fanout
	if rdb != nil {
		sink, err := events.NewRedisSink(rdb, config.REDIS_EVENTS_CHANNEL)
		if err != nil {
			log.Fatal("redis event sink", "error", err)
		}
		sinks = append(sinks, sink)

		inv, err := cache.NewRedisInvalidator(log, rdb, config.REDIS_RENDER_PREFIX, "")
		if err != nil {
			log.Fatal("redis invalidator", "error", err)
		}
		invalidators = append(invalidators, inv)
	}
	if config.REVALIDATE_URL != "" {
		invalidators = append(invalidators, cache.NewHTTPRevalidator(log, config.REVALIDATE_URL, config.REVALIDATE_SECRET, config.INVALIDATE_TIMEOUT))
	}
	var invalidator customizer.CacheInvalidator = cache.Noop{}
	if len(invalidators) > 0 {
		invalidator = invalidators
	}

	dispatcher := events.NewDispatcher(log, config.EVENT_QUEUE_SIZE, sinks...)

	var artifacts customizer.ArtifactStore
	switch config.ARTIFACT_STORAGE {
	case "gcs":
		gcs, err := storage.NewGCSStore(ctx, log, storage.GCSConfig{
			Bucket:          config.ARTIFACT_GCS_BUCKET,
			CDNDomain:       config.ARTIFACT_CDN_DOMAIN,
			CredentialsFile: config.ARTIFACT_GCS_CREDENTIALS,
		})
		if err != nil {
			log.Fatal("gcs init failed", "error", err)
		}
		defer gcs.Close()
		artifacts = gcs
	default:
		local, err := storage.NewLocalStore(log, config.ARTIFACT_LOCAL_DIR, config.ARTIFACT_BASE_URL)
		if err != nil {
			log.Fatal("artifact dir init failed", "error", err)
		}
		artifacts = local
	}

	var auth customizer.AuthResolver
	if config.OIDC_ISSUER != "" {
		oidcAuth, err := middleware.NewOIDCResolver(ctx, config.OIDC_ISSUER, config.OIDC_CLIENT_ID)
		if err != nil {
			log.Fatal("oidc init failed", "error", err)
		}
		auth = oidcAuth
	} else {
		auth = middleware.NewJWTResolver(config.JWT_SECRET)
	}

	// ---------- customizer

	repo := customizer.NewLayoutRepository(db, log)
	versions := customizer.NewVersionStore(db, repo, log)
	publisher := customizer.NewPublisher(repo, versions, artifacts, invalidator, dispatcher, log, customizer.PublisherConfig{
		UploadTimeout:     config.UPLOAD_TIMEOUT,
		InvalidateTimeout: config.INVALIDATE_TIMEOUT,
	})
	svc := customizer.NewService(repo, versions, publisher, dispatcher, log)

	// ---------- http

	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{config.CORS_ORIGIN},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept-Language"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if config.ARTIFACT_STORAGE != "gcs" {
		r.Static("/artifacts", config.ARTIFACT_LOCAL_DIR)
	}

	routes.RegisterRoutes(r, customizerapi.NewHandler(svc, log), auth, log)

	srv := &http.Server{
		Addr:              ":" + config.PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("listening", "port", config.PORT, "artifact_storage", config.ARTIFACT_STORAGE)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", "error", err)
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn("event queue not drained", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn("tracing shutdown", "error", err)
	}
}
