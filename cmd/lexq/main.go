// Entry point for the lexq HTTP service: paragraph corpus, word search, and
// the tiered dictionary endpoint, on a chi router over one SQLite database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/hazyhaar/lexq/dbopen"
	"github.com/hazyhaar/lexq/lexique"
	"github.com/hazyhaar/lexq/observability"

	_ "modernc.org/sqlite"
)

func main() {
	_ = godotenv.Load()

	port := env("PORT", "8090")
	configPath := env("CONFIG_FILE", "")
	logLevel := env("LOG_LEVEL", "info")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Config: file when given, defaults otherwise. Env overrides the basics.
	cfg := lexique.DefaultConfig()
	if configPath != "" {
		var err error
		cfg, err = lexique.LoadConfig(configPath)
		if err != nil {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	// Corpus DB.
	db, err := dbopen.Open(cfg.DBPath, dbopen.WithMkdirAll())
	if err != nil {
		slog.Error("open db", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := lexique.ApplySchema(db); err != nil {
		slog.Error("apply schema", "error", err)
		os.Exit(1)
	}

	// Cache. A backend that cannot be opened is fatal; a backend that is
	// merely unreachable degrades reads to direct mode at runtime.
	cacheStore, err := cfg.OpenCache(logger)
	if err != nil {
		slog.Error("open cache", "error", err)
		os.Exit(1)
	}
	defer cacheStore.Close()

	events := observability.NewEventLogger(db)

	svc, err := lexique.New(db, cacheStore, cfg, logger, lexique.WithEventLogger(events))
	if err != nil {
		slog.Error("lexique service", "error", err)
		os.Exit(1)
	}
	defer svc.Close()

	if err := svc.Start(ctx); err != nil {
		slog.Error("start service", "error", err)
		os.Exit(1)
	}

	// Router.
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(events))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		h, err := svc.Health(req.Context())
		if err != nil {
			writeError(w, 500, err)
			return
		}
		writeJSON(w, 200, h)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/paragraphs/fetch", func(w http.ResponseWriter, req *http.Request) {
			p, err := svc.FetchParagraph(req.Context())
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 201, p)
		})

		r.Post("/paragraphs/import", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				URL  string `json:"url"`
				HTML string `json:"html"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, 400, err)
				return
			}
			var ids []int64
			var err error
			switch {
			case body.URL != "":
				ids, err = svc.ImportDocument(req.Context(), body.URL)
			case body.HTML != "":
				ids, err = svc.ImportHTML(req.Context(), body.HTML)
			default:
				writeError(w, 400, errors.New("url or html is required"))
				return
			}
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 201, map[string]any{"ids": ids, "count": len(ids)})
		})

		r.Post("/paragraphs/search", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Words    []string `json:"words"`
				Operator string   `json:"operator"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, 400, err)
				return
			}
			if body.Operator == "" {
				body.Operator = "or"
			}
			results, err := svc.Search(req.Context(), body.Words, body.Operator)
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 200, map[string]any{
				"paragraphs":  results,
				"total_count": len(results),
			})
		})

		r.Get("/paragraphs/history", func(w http.ResponseWriter, req *http.Request) {
			history, err := svc.FetchHistory(req.Context(), queryInt(req, "limit", 50))
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 200, history)
		})

		r.Get("/paragraphs/{id}", func(w http.ResponseWriter, req *http.Request) {
			id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
			if err != nil {
				writeError(w, 400, errors.New("paragraph id must be an integer"))
				return
			}
			p, err := svc.Paragraph(req.Context(), id)
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 200, p)
		})

		r.Get("/dictionary", func(w http.ResponseWriter, req *http.Request) {
			defs, err := svc.TopWordDefinitions(req.Context(), queryInt(req, "limit", 10))
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 200, map[string]any{"words": defs})
		})

		r.Post("/dictionary/refresh", func(w http.ResponseWriter, req *http.Request) {
			status, err := svc.RefreshDictionaryCache(req.Context(), 0)
			if err != nil {
				handleServiceError(w, err)
				return
			}
			writeJSON(w, 200, status)
		})
	})

	// HTTP server.
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

// handleServiceError maps service sentinel errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, lexique.ErrInvalidInput):
		writeError(w, 400, err)
	case errors.Is(err, lexique.ErrNotFound):
		writeError(w, 404, err)
	case errors.Is(err, lexique.ErrUpstream):
		writeError(w, 503, err)
	default:
		writeError(w, 500, err)
	}
}

// requestLogger records every request outcome through the event logger.
func requestLogger(events *observability.EventLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			events.LogRequest(r.Context(), observability.RequestLog{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: ww.Status(),
				DurationMs: time.Since(start).Milliseconds(),
				IPAddress:  r.RemoteAddr,
				UserAgent:  r.UserAgent(),
			})
		})
	}
}

// --- Helpers ---

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
