// Package main implements the Casemellow chatbot API server.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/casemellow/chatbot/engine/catalog"
	"github.com/casemellow/chatbot/engine/chat"
	"github.com/casemellow/chatbot/engine/semantic"
	"github.com/casemellow/chatbot/pkg/gemini"
	"github.com/casemellow/chatbot/pkg/metrics"
	"github.com/casemellow/chatbot/pkg/mid"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

const (
	serviceName    = "casemellow-chatbot"
	serviceVersion = "2.0"
)

var met = metrics.New()

var (
	mQueries     = met.Counter("casemellow_queries_total", "Chat queries served")
	mQueryErrors = func(kind string) *metrics.Counter {
		return met.Counter(metrics.WithLabels("casemellow_query_errors_total", "kind", kind), "Chat query failures")
	}
	mNoResults = met.Counter("casemellow_queries_no_results_total", "Queries with zero retrieved records")
)

// Config holds all environment-based configuration.
type Config struct {
	Port        string
	QdrantURL   string
	GeminiKey   string
	CORSOrigin  string
	OptionsFile string
	RateLimit   float64
	MetricsPort int
}

func loadConfig() Config {
	rps, _ := strconv.ParseFloat(envOr("RATE_LIMIT_RPS", "20"), 64)
	metricsPort, _ := strconv.Atoi(envOr("METRICS_PORT", "9090"))
	return Config{
		Port:        envOr("PORT", "8080"),
		QdrantURL:   envOr("QDRANT_URL", "localhost:6334"),
		GeminiKey:   os.Getenv("GOOGLE_API_KEY"),
		CORSOrigin:  envOr("CORS_ORIGIN", "*"),
		OptionsFile: os.Getenv("CHAT_OPTIONS_FILE"),
		RateLimit:   rps,
		MetricsPort: metricsPort,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// fileOptions is the optional YAML tuning file.
type fileOptions struct {
	Chat   chat.Options   `yaml:"chat"`
	Gemini gemini.Options `yaml:"gemini"`
}

func loadOptions(path string) (fileOptions, error) {
	opts := fileOptions{Chat: chat.DefaultOptions(), Gemini: gemini.DefaultOptions()}
	if path == "" {
		return opts, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	return opts, nil
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg := loadConfig()

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := loadOptions(cfg.OptionsFile)
	if err != nil {
		logger.Warn("options file not loaded, using defaults", "path", cfg.OptionsFile, "err", err)
	}

	// --- Connect to Qdrant ---
	// The dial is lazy; an unreachable store surfaces per-request and the
	// service degrades to 503s rather than refusing to start.
	var searcher chat.Searcher
	vectorStore, err := semantic.New(cfg.QdrantURL)
	if err != nil {
		logger.Warn("vector store unavailable", "err", err)
	} else {
		defer vectorStore.Close()
		searcher = vectorStore
	}

	// --- Gemini client ---
	var embedder chat.Embedder
	var generator chat.Generator
	gem, err := gemini.NewClient(ctx, cfg.GeminiKey, opts.Gemini)
	if err != nil {
		logger.Warn("gemini unavailable, queries will return 503", "err", err)
	} else {
		embedder = gem
		generator = gem
	}

	chatSvc := chat.New(embedder, generator, searcher, opts.Chat, logger)

	// --- HTTP server ---
	mux := http.NewServeMux()
	mux.HandleFunc("GET /", handleRoot)
	mux.HandleFunc("GET /health", handleHealth(chatSvc, vectorStore))
	mux.HandleFunc("POST /query", handleQuery(chatSvc, logger))

	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)*2)
	handler := mid.Chain(mux,
		mid.Recover(logger),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.OTel(serviceName),
		mid.RateLimit(limiter),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	met.ServeAsync(cfg.MetricsPort)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}

// --- Handlers ---

// queryRequest is the JSON body for POST /query. Zero top-k values fall
// back to the service defaults.
type queryRequest struct {
	Query        string `json:"query"`
	TopKProducts int    `json:"top_k_products"`
	TopKFAQs     int    `json:"top_k_faqs"`
	UserID       string `json:"user_id,omitempty"`
}

func handleQuery(svc *chat.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		resp, err := svc.Query(r.Context(), req.Query, req.TopKProducts, req.TopKFAQs)
		if err != nil {
			status, msg := errorStatus(err)
			if status == http.StatusInternalServerError {
				logger.Error("query failed", "err", err)
			}
			mQueryErrors(errorKind(status)).Inc()
			writeError(w, status, msg)
			return
		}

		mQueries.Inc()
		if !resp.HasResults {
			mNoResults.Inc()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, catalog.ErrEmptyQuery):
		return http.StatusBadRequest, "Query cannot be empty."
	case errors.Is(err, catalog.ErrQueryTooLong):
		return http.StatusBadRequest, fmt.Sprintf("Query is too long. Max %d characters.", catalog.MaxQueryLen)
	case errors.Is(err, catalog.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Database not available. Please contact support."
	case errors.Is(err, catalog.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "AI service temporarily unavailable. Please try again."
	default:
		return http.StatusInternalServerError, "An error occurred processing your request. Please try again."
	}
}

func errorKind(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

func handleHealth(svc *chat.Service, store *semantic.VectorStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeOK, modelOK := svc.Ready()

		counts := map[string]int{"products": 0, "faqs": 0}
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			for _, kind := range []catalog.Kind{catalog.KindProducts, catalog.KindFAQs} {
				n, err := store.Count(ctx, string(kind))
				if err != nil {
					storeOK = false
					continue
				}
				counts[string(kind)] = n
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"services": map[string]bool{
				"vectorstore": storeOK,
				"gemini":      modelOK,
			},
			"collections": counts,
		})
	}
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Casemellow RAG Chatbot API",
		"version": serviceVersion,
		"features": []string{
			"Vector similarity search",
			"RAG with Gemini",
			"Product recommendations",
			"FAQ assistance",
		},
		"endpoints": map[string]string{
			"POST /query": "Ask the chatbot",
			"GET /health": "Check API status",
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
