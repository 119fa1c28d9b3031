package throughput

import "math"

// defaultHalfLivesMs mirrors Ewma.default_half_life (already in ms here;
// the source's CLI default is given in seconds and multiplied by 1000).
var defaultHalfLivesMs = []float64{8000, 3000}

// DoubleEWMA maintains, for each of K half-lives, a decaying average with
// zero-bias correction for warm-up, and reports the per-index conservative
// aggregate: minimum across half-lives for throughput, maximum for latency
// (spec.md §4.3).
type DoubleEWMA struct {
	halfLivesMs        []float64
	latencyHalfLives   []float64
	throughputEwma     []float64
	latencyEwma        []float64
	weightThroughput   float64
	weightLatency      float64

	throughput float64
	latency    float64
}

// NewDoubleEWMA constructs a DoubleEWMA estimator. halfLivesMs defaults to
// {8000, 3000} when empty; segmentTime scales the latency half-lives to a
// per-sample basis as spec.md §4.3 requires.
func NewDoubleEWMA(halfLivesMs []float64, segmentTime float64) *DoubleEWMA {
	hl := defaultHalfLivesMs
	if len(halfLivesMs) > 0 {
		hl = halfLivesMs
	}
	latencyHL := make([]float64, len(hl))
	for i, h := range hl {
		latencyHL[i] = h / segmentTime
	}
	return &DoubleEWMA{
		halfLivesMs:      hl,
		latencyHalfLives: latencyHL,
		throughputEwma:   make([]float64, len(hl)),
		latencyEwma:      make([]float64, len(hl)),
	}
}

// Push folds in one (download_time, throughput, latency) sample.
func (e *DoubleEWMA) Push(downloadTimeMs float64, tput, lat float64) {
	for i := range e.halfLivesMs {
		alpha := math.Pow(0.5, downloadTimeMs/e.halfLivesMs[i])
		e.throughputEwma[i] = alpha*e.throughputEwma[i] + (1-alpha)*tput

		alpha = math.Pow(0.5, 1/e.latencyHalfLives[i])
		e.latencyEwma[i] = alpha*e.latencyEwma[i] + (1-alpha)*lat
	}
	e.weightThroughput += downloadTimeMs
	e.weightLatency++

	var tMin, lMax float64
	first := true
	for i := range e.halfLivesMs {
		zeroFactor := 1 - math.Pow(0.5, e.weightThroughput/e.halfLivesMs[i])
		t := e.throughputEwma[i] / zeroFactor
		if first || t < tMin {
			tMin = t
		}

		zeroFactor = 1 - math.Pow(0.5, e.weightLatency/e.latencyHalfLives[i])
		l := e.latencyEwma[i] / zeroFactor
		if first || l > lMax {
			lMax = l
		}
		first = false
	}
	e.throughput = tMin
	e.latency = lMax
}

// Throughput returns the current conservative throughput estimate.
func (e *DoubleEWMA) Throughput() float64 { return e.throughput }

// Latency returns the current conservative latency estimate.
func (e *DoubleEWMA) Latency() float64 { return e.latency }
