package main

import (
	"database/sql"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"govee-panel/internal/audit"
	"govee-panel/internal/auth"
	"govee-panel/internal/config"
	"govee-panel/internal/goveeadapter"
	"govee-panel/internal/lights/application"
	"govee-panel/internal/lights/domain"
	lightshttp "govee-panel/internal/lights/interfaces/http"
	"govee-panel/internal/observability/metrics"

	"github.com/go-chi/cors"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	metrics.Init(logger)

	rgbEncoding, err := domain.ParseRGBEncoding(cfg.RGBEncoding)
	if err != nil {
		logger.Fatalf("rgb encoding error: %v", err)
	}

	baseURL := cfg.GoveeBaseURL
	if baseURL == "" {
		baseURL = goveeadapter.DefaultBaseURL
	}
	vendorClient, err := goveeadapter.NewClient(baseURL, cfg.GoveeAPIKey, cfg.VendorTimeout)
	if err != nil {
		logger.Fatalf("vendor client error: %v", err)
	}
	if cfg.GoveeAPIKey == "" {
		logger.Printf("GOVEE_API_KEY is not set; upstream routes will answer 500")
	}

	lightsService, err := application.NewService(vendorClient)
	if err != nil {
		logger.Fatalf("lights service error: %v", err)
	}

	var auditLogger audit.Logger
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
		auditLogger = audit.NewRepository(db)
	}

	lightsHandler, err := lightshttp.NewHandler(lightsService, rgbEncoding, auditLogger)
	if err != nil {
		logger.Fatalf("lights handler error: %v", err)
	}

	sessionStore := auth.NewMemoryStore()
	authHandler, err := auth.NewHandler(
		auth.Credentials{Username: cfg.AdminUsername, Password: cfg.AdminPassword},
		[]byte(cfg.SessionSecret),
		sessionStore,
		cfg.SessionTTL,
	)
	if err != nil {
		logger.Fatalf("auth handler error: %v", err)
	}
	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics", "/api/login", "/login.html"}, nil)
	gate := auth.NewGate([]byte(cfg.SessionSecret), sessionStore, policy, cfg.GateEnabled())
	if !cfg.GateEnabled() {
		logger.Printf("admin credentials not configured; session gate disabled")
	}

	mux := http.NewServeMux()
	mux.Handle("/api/login", authHandler)
	mux.Handle("/api/logout", authHandler)
	mux.Handle("/api/devices", lightsHandler)
	mux.Handle("/api/state", lightsHandler)
	mux.Handle("/api/power", lightsHandler)
	mux.Handle("/api/brightness", lightsHandler)
	mux.Handle("/api/color", lightsHandler)
	mux.Handle("/api/colortemp", lightsHandler)
	mux.Handle("/api/scene", lightsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	mux.Handle("/", spaHandler(cfg.StaticDir))

	corsMiddleware := cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	handler := requireVendorKey(mux, cfg.GoveeAPIKey)
	handler = gate.Wrap(handler)
	handler = corsMiddleware(handler)
	handler = loggingMiddleware(handler, logger)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}
	logger.Printf("govee panel listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// requireVendorKey refuses upstream-bound routes when no vendor API key is
// configured, before any network I/O. Login, logout and non-API paths stay
// usable so the failure is visible instead of fatal.
func requireVendorKey(next http.Handler, key string) http.Handler {
	if key != "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if strings.HasPrefix(path, "/api/") && path != "/api/login" && path != "/api/logout" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":"missing GOVEE_API_KEY env var on server"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// spaHandler serves static files and falls back to the app shell for
// non-API paths, so client-side routes deep-link correctly.
func spaHandler(staticDir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		requested := filepath.Join(staticDir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(requested); err == nil && !info.IsDir() {
			http.ServeFile(w, r, requested)
			return
		}
		http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
	})
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
