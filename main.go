package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/lekien2k2/viot/internal/audit"
	"github.com/lekien2k2/viot/internal/auth"
	"github.com/lekien2k2/viot/internal/database"
	dataapp "github.com/lekien2k2/viot/internal/devicedata/application"
	datapostgres "github.com/lekien2k2/viot/internal/devicedata/infrastructure/postgres"
	datainterfaces "github.com/lekien2k2/viot/internal/devicedata/interfaces"
	devicespostgres "github.com/lekien2k2/viot/internal/devices/infrastructure/postgres"
	"github.com/lekien2k2/viot/internal/observability/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := database.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db connect error: %v", err)
	}
	defer db.Close()

	if cfg.MigrationsDir != "" {
		if err := database.Migrate(db, cfg.MigrationsDir, logger); err != nil {
			logger.Fatalf("migrate error: %v", err)
		}
	}

	metrics.Init(db, logger)
	deviceChecker := auth.NewDeviceChecker(db)
	auditRepo := audit.NewRepository(db)

	dataCfg, err := dataapp.LoadConfig()
	if err != nil {
		logger.Fatalf("device data config error: %v", err)
	}
	dataRepo := datapostgres.NewDataRepository(db)
	dataService, err := dataapp.NewService(dataRepo, dataCfg)
	if err != nil {
		logger.Fatalf("device data service error: %v", err)
	}
	deviceRepo := devicespostgres.NewDeviceRepository(db)

	dataHandler, err := datainterfaces.NewDataHandler(dataService, deviceChecker, auditRepo, dataCfg)
	if err != nil {
		logger.Fatalf("data handler error: %v", err)
	}
	ingestHandler, err := datainterfaces.NewIngestHandler(dataService, deviceRepo, logger)
	if err != nil {
		logger.Fatalf("ingest handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, []string{"/ingest/"})
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)
	ingestAuth := auth.NewIngestAuthMiddleware([]byte(cfg.IngestSecret), time.Duration(cfg.IngestSkewSeconds)*time.Second)

	mux := http.NewServeMux()
	mux.Handle("/ingest/devices/", ingestAuth.Wrap(ingestHandler))
	mux.Handle("/api/v1/devices/", dataHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	MigrationsDir     string
	JWTSecret         string
	IngestSecret      string
	IngestSkewSeconds int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		MigrationsDir:     getenvDefault("MIGRATIONS_DIR", ""),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		IngestSecret:      getenvDefault("INGEST_HMAC_SECRET", ""),
		IngestSkewSeconds: getenvIntDefault("INGEST_MAX_SKEW_SECONDS", 300),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
