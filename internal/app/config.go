// Package app owns process-level configuration: the CLI flag surface of
// spec.md §6 (mirroring sabre.py's argparse block) parsed with pflag, the
// way the teacher's services parse their own process configuration,
// substituting pflag for the teacher's getenv helpers because this program
// is a one-shot CLI run, not a long-lived server.
package app

import (
	"fmt"

	"github.com/spf13/pflag"

	"sabre/internal/domain"
)

// Config is the fully parsed CLI configuration for one simulation run.
type Config struct {
	NetworkFile       string
	NetworkMultiplier float64
	MovieFile         string
	MovieLength       float64 // seconds; 0 means "use the movie as-is"
	HasMovieLength    bool

	AbrName  string
	AbrBasic bool
	AbrOsc   bool
	GammaP   float64
	NoIBR    bool

	MovingAverage string
	WindowSize    []int
	HalfLife      []float64

	ReplaceStrategy string // "none", "left", "right"
	MaxBufferSec    float64
	NoAbandon       bool

	RampupThreshold    *int
	Verbose            bool
	Graph              bool
	SeekConfigFile     string

	MetricsAddr string // empty disables the metrics HTTP endpoint
}

// Parse builds a Config from args (typically os.Args[1:]), applying the
// same defaults as sabre.py's argparse block.
func Parse(args []string) (Config, error) {
	fs := pflag.NewFlagSet("sabre", pflag.ContinueOnError)

	cfg := Config{}
	fs.StringVarP(&cfg.NetworkFile, "network", "n", "network.json", "JSON file describing the network trace")
	fs.Float64VarP(&cfg.NetworkMultiplier, "network-multiplier", "", 1, "multiply network bandwidth by this factor")
	fs.StringVarP(&cfg.MovieFile, "movie", "m", "movie.json", "JSON file describing the movie chunks")
	movieLength := fs.Float64P("movie-length", "", 0, "movie length in seconds (0 uses the movie as-is)")
	fs.StringVarP(&cfg.AbrName, "abr", "a", "bolae", "ABR strategy: bola, bolae, throughput, dynamic, dynamicdash")
	fs.BoolVarP(&cfg.AbrBasic, "abr-basic", "", false, "set ABR to basic mode (strategy dependent)")
	fs.BoolVarP(&cfg.AbrOsc, "abr-osc", "", false, "set ABR to minimize oscillations")
	fs.Float64VarP(&cfg.GammaP, "gamma-p", "", 5, "gamma-p product in seconds")
	fs.BoolVarP(&cfg.NoIBR, "no-insufficient-buffer-rule", "", false, "disable the insufficient buffer rule")
	fs.StringVarP(&cfg.MovingAverage, "moving-average", "", "ewma", "throughput estimator: sliding, ewma")
	fs.IntSliceVarP(&cfg.WindowSize, "window-size", "", []int{3}, "sliding window sizes")
	fs.Float64SliceVarP(&cfg.HalfLife, "half-life", "", []float64{8, 3}, "EWMA half lives in seconds")
	fs.StringVarP(&cfg.ReplaceStrategy, "replace", "r", "none", "replacement strategy: none, left, right")
	fs.Float64VarP(&cfg.MaxBufferSec, "max-buffer", "b", 25, "maximum buffer size in seconds")
	fs.BoolVarP(&cfg.NoAbandon, "no-abandon", "", false, "disable abandonment")
	rampup := fs.IntP("rampup-threshold", "", -1, "quality index considered ramped up (-1 matches network)")
	fs.BoolVarP(&cfg.Verbose, "verbose", "v", false, "run in verbose mode")
	fs.BoolVarP(&cfg.Graph, "graph", "g", false, "run in graph mode")
	fs.StringVarP(&cfg.SeekConfigFile, "seek-config", "", "", "JSON file containing seek events")
	fs.StringVarP(&cfg.MetricsAddr, "metrics-addr", "", "", "address to serve Prometheus metrics on (empty disables)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *movieLength > 0 {
		cfg.MovieLength = *movieLength
		cfg.HasMovieLength = true
	}
	if *rampup >= 0 {
		cfg.RampupThreshold = rampup
	}

	switch cfg.AbrName {
	case "bola", "bolae", "throughput", "dynamic", "dynamicdash":
	default:
		return Config{}, fmt.Errorf("%w: --abr %q", domain.ErrUnknownStrategy, cfg.AbrName)
	}
	switch cfg.MovingAverage {
	case "sliding", "ewma":
	default:
		return Config{}, fmt.Errorf("unknown --moving-average %q", cfg.MovingAverage)
	}
	switch cfg.ReplaceStrategy {
	case "none", "left", "right":
	default:
		return Config{}, fmt.Errorf("%w: --replace %q", domain.ErrUnknownStrategy, cfg.ReplaceStrategy)
	}

	return cfg, nil
}
