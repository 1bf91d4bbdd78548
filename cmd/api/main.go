package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/PabloPavan/alerta_api/docs"
	"github.com/PabloPavan/alerta_api/internal/alerts"
	"github.com/PabloPavan/alerta_api/internal/apikeys"
	"github.com/PabloPavan/alerta_api/internal/config"
	"github.com/PabloPavan/alerta_api/internal/db"
	"github.com/PabloPavan/alerta_api/internal/httpapi"
	"github.com/PabloPavan/alerta_api/internal/imagestore"
	"github.com/PabloPavan/alerta_api/internal/password"
	"github.com/PabloPavan/alerta_api/internal/ratelimit"
	"github.com/PabloPavan/alerta_api/internal/reports"
	"github.com/PabloPavan/alerta_api/internal/shelters"
	"github.com/PabloPavan/alerta_api/internal/telemetry"
	"github.com/PabloPavan/alerta_api/internal/users"
	"github.com/PabloPavan/alerta_api/internal/zones"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serviceName := telemetry.ServiceName
	shutdown := telemetry.InitTracer(serviceName)
	defer shutdown(context.Background())
	shutdownMetrics := telemetry.InitMetrics(serviceName)
	defer shutdownMetrics(context.Background())
	shutdownLogger := telemetry.InitLogger(serviceName)
	defer shutdownLogger(context.Background())
	db.InitTelemetry(serviceName)

	d, err := db.New(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: int32(cfg.DBMaxConns)})
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer d.Close()

	dbBase := db.NewBase(d.Pool, cfg.DBQueryTimeout)
	if cfg.SchemaAutoApply {
		if err := dbBase.EnsureSchema(ctx); err != nil {
			log.Fatalf("schema error: %v", err)
		}
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisOpt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("redis url error: %v", err)
		}
		redisClient = redis.NewClient(redisOpt)
		defer redisClient.Close()
	}
	telemetry.InitAppMetrics(serviceName, d.Pool, redisClient)

	images, err := imagestore.New(cfg.ImageRootDir, cfg.ImageBaseURL)
	if err != nil {
		log.Fatalf("image store error: %v", err)
	}

	reportsSvc := &reports.Service{
		Store:        reports.NewRepository(dbBase),
		Images:       images,
		CacheTTL:     cfg.ReportsCacheTTL,
		ListCacheTTL: cfg.ReportsListCacheTTL,
		FillTimeout:  cfg.DBQueryTimeout,
	}
	usersSvc := &users.Service{
		Store:            users.NewRepository(dbBase),
		PasswordHasher:   password.Hash,
		PasswordVerifier: password.Verify,
	}
	if redisClient != nil {
		reportsSvc.Cache = reports.NewRedisCache(redisClient, "alerta:cache:")
		usersSvc.LoginLimiter = &ratelimit.Limiter{
			Client: redisClient,
			Prefix: ratelimit.DefaultPrefix,
			Limit:  cfg.LoginRateLimit,
			Window: cfg.LoginRateWindow,
		}
	}

	app := &httpapi.App{
		ServiceName: serviceName,
		Health:      &httpapi.HealthHandler{DB: d.Pool},
		Reports:     &httpapi.ReportsHandler{Service: reportsSvc, MaxUploadBytes: cfg.UploadMaxBytes},
		Users:       &httpapi.UsersHandler{Service: usersSvc},
		Shelters: &httpapi.ResourceHandler[shelters.Shelter]{
			Service: shelters.NewService(shelters.NewRepository(dbBase)),
		},
		Alerts: &httpapi.ResourceHandler[alerts.Alert]{
			Service: alerts.NewService(alerts.NewRepository(dbBase)),
		},
		Zones: &httpapi.ResourceHandler[zones.Zone]{
			Service: zones.NewService(zones.NewRepository(dbBase)),
		},
		Images:       &httpapi.ImagesHandler{Store: images},
		ImageBaseURL: images.BaseURL(),
		APIKeys: apikeys.NewKeyring(map[string]string{
			apikeys.ClientWeb:    cfg.APIKey,
			apikeys.ClientMobile: cfg.APIKeyMobile,
		}),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpapi.NewRouter(app),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("api listening on :%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}
