package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/advisory-guard/internal/cost"
	"github.com/sells-group/advisory-guard/internal/gate"
	"github.com/sells-group/advisory-guard/internal/knowledge"
	"github.com/sells-group/advisory-guard/internal/model"
	"github.com/sells-group/advisory-guard/internal/report"
)

const (
	maxRequestBytes = 10 << 20
	maxBatchSize    = 500
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validation HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// validateResponse is the body of POST /v1/validate.
type validateResponse struct {
	Report *model.ValidationReport `json:"report"`
	Gate   gate.Decision           `json:"gate"`
}

// batchRequest is the body of POST /v1/validate/batch.
type batchRequest struct {
	Requests []report.Request `json:"requests"`
}

type batchItem struct {
	ID     string                  `json:"id,omitempty"`
	Report *model.ValidationReport `json:"report,omitempty"`
	Gate   *gate.Decision          `json:"gate,omitempty"`
	Error  string                  `json:"error,omitempty"`
}

type batchResponse struct {
	RunID   string      `json:"run_id"`
	Results []batchItem `json:"results"`
}

// newRouter builds the HTTP API over env.
func newRouter(env *appEnv) http.Handler {
	c := env.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: c.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", func(w http.ResponseWriter, r *http.Request) {
			var req report.Request
			if !decodeBody(w, r, &req) {
				return
			}
			if msg := checkRequest(req); msg != "" {
				writeError(w, http.StatusBadRequest, msg)
				return
			}
			rep := env.Engine.Validate(r.Context(), req)
			writeJSON(w, http.StatusOK, validateResponse{Report: rep, Gate: gate.Evaluate(rep, c.Gate)})
		})

		r.Post("/validate/batch", func(w http.ResponseWriter, r *http.Request) {
			var body batchRequest
			if !decodeBody(w, r, &body) {
				return
			}
			if len(body.Requests) == 0 {
				writeError(w, http.StatusBadRequest, "requests must not be empty")
				return
			}
			if len(body.Requests) > maxBatchSize {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d requests per batch", maxBatchSize))
				return
			}
			for i, req := range body.Requests {
				if msg := checkRequest(req); msg != "" {
					writeError(w, http.StatusBadRequest, fmt.Sprintf("requests[%d]: %s", i, msg))
					return
				}
			}

			runID := uuid.NewString()
			results := env.Engine.ValidateAll(r.Context(), body.Requests, c.Batch.MaxConcurrent)
			resp := batchResponse{RunID: runID, Results: make([]batchItem, len(results))}
			for i, res := range results {
				item := batchItem{ID: res.ID, Report: res.Report}
				if res.Err != nil {
					item.Error = res.Err.Error()
				}
				if res.Report != nil {
					d := gate.Evaluate(res.Report, c.Gate)
					item.Gate = &d
				}
				resp.Results[i] = item
			}
			zap.L().Info("batch validated", zap.String("run_id", runID), zap.Int("requests", len(results)))
			writeJSON(w, http.StatusOK, resp)
		})

		r.Get("/knowledge", func(w http.ResponseWriter, r *http.Request) {
			docs, err := env.Store.List(r.Context())
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if tag := r.URL.Query().Get("tag"); tag != "" {
				docs = knowledge.FilterByTag(docs, tag)
			}
			if category := r.URL.Query().Get("category"); category != "" {
				docs = knowledge.FilterByCategory(docs, category)
			}
			if docs == nil {
				docs = []model.KnowledgeBaseDocument{}
			}
			writeJSON(w, http.StatusOK, docs)
		})

		r.Get("/knowledge/{id}", func(w http.ResponseWriter, r *http.Request) {
			doc, err := env.Store.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				writeStoreError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, doc)
		})

		r.Get("/knowledge/{id}/related", func(w http.ResponseWriter, r *http.Request) {
			limit, err := queryInt(r, "limit", 5)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			ranked, err := knowledge.Related(r.Context(), env.Store, chi.URLParam(r, "id"), limit)
			if err != nil {
				writeStoreError(w, err)
				return
			}
			if ranked == nil {
				ranked = []model.RankedDocument{}
			}
			writeJSON(w, http.StatusOK, ranked)
		})

		r.Get("/providers", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, providers(c))
		})

		r.Get("/providers/recommend", func(w http.ResponseWriter, r *http.Request) {
			tier := model.Tier(r.URL.Query().Get("tier"))
			if tier == "" {
				tier = model.TierDev
			}
			if tier != model.TierDev && tier != model.TierProd {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown tier %q", tier))
				return
			}
			budget := c.TokenBudget
			in, err := queryInt(r, "input_tokens", budget.Input)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			out, err := queryInt(r, "output_tokens", budget.Output)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			budget = cost.TokenBudget{Input: in, Output: out}

			id, ok := cost.Recommend(providers(c), tier, budget)
			if !ok {
				writeError(w, http.StatusServiceUnavailable, "no connected provider")
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{
				"provider_id": id,
				"tier":        tier,
				"budget":      budget,
			})
		})
	})

	return r
}

// checkRequest returns a client-facing problem with req, or "".
func checkRequest(req report.Request) string {
	if req.Advisory == nil {
		return "advisory_output is required"
	}
	if req.ViewMode != "" && !req.ViewMode.Valid() {
		return fmt.Sprintf("unknown view_mode %q", req.ViewMode)
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func writeStoreError(w http.ResponseWriter, err error) {
	if knowledge.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "document not found")
		return
	}
	zap.L().Error("knowledge base request failed", zap.Error(err))
	writeError(w, http.StatusBadGateway, "knowledge base unavailable")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
