package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"graded/internal/broker"
	"graded/internal/capability"
	"graded/internal/config"
	"graded/internal/httpapi"
	"graded/internal/service"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitCSV splits a comma-separated flag value, trimming blanks.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	addr := flag.String("addr", envOr("GRADED_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", envOr("GRADED_CONFIG", ""), "Optional config file (.yaml/.json/.toml)")
	modelPath := flag.String("model-path", envOr("GRADED_MODEL_PATH", ""), "Absolute path to the model artifact (.gguf)")
	ctxSize := flag.Int("ctx-size", 0, "Model context size in tokens")
	threads := flag.Int("threads", 0, "Inference threads")
	maxTokens := flag.Int("max-tokens", 0, "Maximum tokens generated per grade")
	minTotalMB := flag.Uint64("min-total-mb", 0, "Total-RAM floor in MB below which grading is unsupported")
	minAvailMB := flag.Uint64("min-avail-mb", 0, "Available-RAM hard floor in MB")
	comfortableMB := flag.Uint64("comfortable-mb", 0, "Available-RAM floor in MB for the capable tier")
	thermalHighWater := flag.Float64("thermal-high-water", 0, "Thermal headroom (0-1) at which grading is blocked")
	corsEnabled := flag.Bool("cors-enabled", false, "Enable CORS middleware")
	corsOrigins := flag.String("cors-origins", "*", "Comma-separated allowed CORS origins")
	corsMethods := flag.String("cors-methods", "GET,POST", "Comma-separated allowed CORS methods")
	corsHeaders := flag.String("cors-headers", "Content-Type,X-Log-Level", "Comma-separated allowed CORS headers")
	pretty := flag.Bool("pretty-log", false, "Human-readable console logging")
	flag.Parse()

	logw := os.Stderr
	var log zerolog.Logger
	if *pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: logw, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()
	} else {
		log = zerolog.New(logw).With().Timestamp().Logger()
	}

	// Config file values fill in whatever the flags left unset.
	var cfg config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load config")
		}
	}
	if *addr == ":8080" && cfg.Addr != "" {
		*addr = cfg.Addr
	}
	if *modelPath == "" {
		*modelPath = cfg.ModelPath
	}
	if *ctxSize == 0 {
		*ctxSize = cfg.CtxSize
	}
	if *threads == 0 {
		*threads = cfg.Threads
	}
	if *maxTokens == 0 {
		*maxTokens = cfg.MaxTokens
	}
	if *minTotalMB == 0 {
		*minTotalMB = cfg.MinTotalMB
	}
	if *minAvailMB == 0 {
		*minAvailMB = cfg.MinAvailMB
	}
	if *comfortableMB == 0 {
		*comfortableMB = cfg.ComfortableMB
	}
	if *thermalHighWater == 0 {
		*thermalHighWater = cfg.ThermalHighWater
	}

	monitor := capability.NewMonitor(nil, capability.Thresholds{
		MinTotalMB:       *minTotalMB,
		MinAvailMB:       *minAvailMB,
		ComfortableMB:    *comfortableMB,
		ThermalHighWater: *thermalHighWater,
	})
	brk := broker.New(broker.Config{
		ModelPath: *modelPath,
		CtxSize:   *ctxSize,
		Threads:   *threads,
		MaxTokens: *maxTokens,
	}, nil, broker.WithLogger(log.With().Str("component", "broker").Logger()))
	svc := service.New(brk, monitor, *modelPath, log.With().Str("component", "orchestrator").Logger())

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetCORSOptions(*corsEnabled, splitCSV(*corsOrigins), splitCSV(*corsMethods), splitCSV(*corsHeaders))

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(svc)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		log.Info().Str("addr", *addr).Str("model", *modelPath).Msg("graded listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}
