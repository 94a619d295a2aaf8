package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"graded/internal/broker"
	"graded/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Grade(ctx context.Context, req types.GradingRequest) (types.GradingResult, error)
	GradeBatch(ctx context.Context, items []types.GradingRequest, progress chan<- types.BatchProgress) types.BatchReport
	Capability() types.CapabilityAssessment
	Engine() types.EngineStatus
	Status() types.StatusResponse
	Ready() bool
}

// NewMux builds the chi router for the grading API.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/capability", handleCapability(svc))
	r.Get("/engine", handleEngine(svc))
	r.Get("/status", handleStatus(svc))
	r.Post("/grade", handleGrade(svc))
	r.Post("/grade/batch", handleGradeBatch(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("failed"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// handleCapability godoc
// @Summary  Sample device capability
// @Produce  json
// @Success  200 {object} types.CapabilityAssessment
// @Router   /capability [get]
func handleCapability(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Capability())
	}
}

// handleEngine godoc
// @Summary  Current engine slot status
// @Produce  json
// @Success  200 {object} types.EngineStatus
// @Router   /engine [get]
func handleEngine(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Engine())
	}
}

// handleStatus godoc
// @Summary  Daemon status
// @Produce  json
// @Success  200 {object} types.StatusResponse
// @Router   /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	}
}

// handleGrade godoc
// @Summary  Grade one answer
// @Accept   json
// @Produce  json
// @Param    request body     types.GradeRequest true "item to grade"
// @Success  200     {object} types.GradeResponse
// @Failure  400     {object} types.ErrorResponse
// @Failure  409     {object} types.ErrorResponse
// @Failure  422     {object} types.ErrorResponse
// @Failure  503     {object} types.ErrorResponse
// @Router   /grade [post]
func handleGrade(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeJSONBody[types.GradeRequest](w, r)
		if !ok {
			return
		}
		if req.Item.MaxScore <= 0 {
			writeJSONError(w, http.StatusBadRequest, "max_score must be positive")
			return
		}
		// Opt-in pre-flight: refuse up front when the device is unsafe.
		if r.URL.Query().Get("preflight") == "1" {
			if a := svc.Capability(); a.Tier == types.TierUnsupported {
				writeJSONError(w, http.StatusConflict, "device not capable: "+a.Diagnosis)
				return
			}
		}

		start := time.Now()
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		res, err := svc.Grade(joinedCtx, req.Item)
		if err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			if broker.IsParseFailure(err) {
				// Unusable model output is a result, not a transport error;
				// the diagnostic keeps the raw text for debugging.
				observeGrade("parse_failure", time.Since(start))
				writeJSON(w, types.GradeResponse{Result: types.GradingResult{Feedback: err.Error()}})
				return
			}
			status := gradeErrorStatus(err)
			observeGrade("error", time.Since(start))
			writeJSONError(w, status, err.Error())
			logEnd(r, status, time.Since(start).String(), err)
			return
		}
		observeGrade("ok", time.Since(start))
		writeJSON(w, types.GradeResponse{Result: res})
		logEnd(r, http.StatusOK, time.Since(start).String(), nil)
	}
}

// handleGradeBatch godoc
// @Summary  Grade a batch, streaming NDJSON progress
// @Accept   json
// @Produce  x-ndjson
// @Param    request body types.BatchGradeRequest true "items to grade, in order"
// @Success  200 {object} types.BatchProgressLine
// @Failure  400 {object} types.ErrorResponse
// @Router   /grade/batch [post]
func handleGradeBatch(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeJSONBody[types.BatchGradeRequest](w, r)
		if !ok {
			return
		}
		if len(req.Items) == 0 {
			writeJSONError(w, http.StatusBadRequest, "items must not be empty")
			return
		}
		for i, item := range req.Items {
			if item.MaxScore <= 0 {
				writeJSONError(w, http.StatusBadRequest, "items["+itoa(i)+"]: max_score must be positive")
				return
			}
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		var flush func()
		if f, ok := w.(http.Flusher); ok {
			flush = f.Flush
		}
		enc := json.NewEncoder(w)
		if requestLogLevel(r) >= LevelDebug {
			enc = json.NewEncoder(io.MultiWriter(w, &loggingLineWriter{}))
		}

		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()

		progress := make(chan types.BatchProgress)
		done := make(chan types.BatchReport, 1)
		go func() {
			report := svc.GradeBatch(joinedCtx, req.Items, progress)
			close(progress)
			done <- report
		}()
		for p := range progress {
			pp := p
			_ = enc.Encode(types.BatchProgressLine{Progress: &pp})
			if flush != nil {
				flush()
			}
		}
		report := <-done
		observeBatchStop(string(report.Status))
		_ = enc.Encode(types.BatchProgressLine{Report: &report})
		if flush != nil {
			flush()
		}
	}
}

// decodeJSONBody enforces content type and size limits, then decodes.
func decodeJSONBody[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var out T
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return out, false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&out); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return out, false
	}
	return out, true
}

// gradeErrorStatus maps broker errors to HTTP status codes.
func gradeErrorStatus(err error) int {
	switch {
	case broker.IsConfiguration(err):
		return http.StatusUnprocessableEntity
	case broker.IsResourceConstruction(err), broker.IsDependencyUnavailable(err):
		return http.StatusServiceUnavailable
	default:
		if he, ok := err.(HTTPError); ok {
			return he.StatusCode()
		}
		return http.StatusInternalServerError
	}
}
