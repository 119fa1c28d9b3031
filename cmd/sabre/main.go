// Command sabre runs one discrete-event ABR streaming simulation and prints
// its report, wiring the config/loader, strategy registries, network model
// and session runner together — the composition root, grounded on the
// teacher's cmd/server/main.go wiring style (flat, linear, fail-fast on
// every setup error).
package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sabre/internal/app"
	"sabre/internal/domain/ports"
	"sabre/internal/metrics"
	"sabre/internal/report"
	"sabre/internal/services/abr"
	"sabre/internal/services/network"
	"sabre/internal/services/replace"
	"sabre/internal/services/throughput"
	"sabre/internal/usecase"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := app.Parse(os.Args[1:])
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	manifest, err := app.LoadManifest(cfg.MovieFile, cfg.MovieLength)
	if err != nil {
		return fmt.Errorf("load manifest: %w", err)
	}
	trace, err := app.LoadNetworkTrace(cfg.NetworkFile, cfg.NetworkMultiplier)
	if err != nil {
		return fmt.Errorf("load network trace: %w", err)
	}
	seeks, err := app.LoadSeekQueue(cfg.SeekConfigFile)
	if err != nil {
		return fmt.Errorf("load seek config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("movie", cfg.MovieFile),
		slog.String("network", cfg.NetworkFile),
		slog.String("abr", cfg.AbrName),
		slog.String("replace", cfg.ReplaceStrategy),
		slog.Float64("maxBufferSec", cfg.MaxBufferSec),
	)

	metrics.Register(prometheus.DefaultRegisterer)
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, logger)
	}

	net := network.New(trace, manifest, network.Options{})

	bufferSizeMs := cfg.MaxBufferSec * 1000
	abrCfg := abr.Config{
		Gp:         cfg.GammaP * 1000,
		BufferSize: bufferSizeMs,
		AbrOsc:     cfg.AbrOsc,
		AbrBasic:   cfg.AbrBasic,
		NoIBR:      cfg.NoIBR,
	}
	abrCtor := func(view ports.SessionView) ports.Abr {
		strategy, ctorErr := abr.New(cfg.AbrName, view, abrCfg)
		if ctorErr != nil {
			// cfg.AbrName was already checked against the five built-in
			// strategy names in app.Parse, so this cannot happen in practice.
			panic(ctorErr)
		}
		return strategy
	}

	replacerCtor := func(view ports.SessionView) ports.Replacer {
		switch cfg.ReplaceStrategy {
		case "left":
			return replace.New(view, replace.Left)
		case "right":
			return replace.New(view, replace.Right)
		default:
			return replace.None{}
		}
	}

	var estimator ports.ThroughputEstimator
	if cfg.MovingAverage == "sliding" {
		estimator = throughput.NewSlidingWindow(cfg.WindowSize)
	} else {
		halfLivesMs := make([]float64, len(cfg.HalfLife))
		for i, h := range cfg.HalfLife {
			halfLivesMs[i] = h * 1000
		}
		estimator = throughput.NewDoubleEWMA(halfLivesMs, manifest.SegmentTime)
	}

	// Declared as io.Writer directly, not *os.File, so a disabled trace
	// stays a true nil interface: assigning a nil *os.File to an io.Writer
	// variable instead would make report's "if w == nil" checks always false.
	var verbose, graph io.Writer
	if cfg.Verbose {
		verbose = os.Stdout
	}
	if cfg.Graph {
		graph = os.Stdout
	}

	session := usecase.New(
		manifest, net, abrCtor, replacerCtor, estimator, seeks,
		usecase.Config{
			BufferSize:      bufferSizeMs,
			RampupThreshold: cfg.RampupThreshold,
			NoAbandon:       cfg.NoAbandon,
		},
		logger, verbose, graph,
	)

	session.Run()

	report.WriteSummary(os.Stdout, session.Summary(cfg.GammaP*1000))
	return nil
}

func serveMetrics(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Info("metrics server started", slog.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("metrics server stopped", slog.String("error", err.Error()))
	}
}
