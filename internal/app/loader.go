package app

import (
	"encoding/json"
	"fmt"
	"os"

	"sabre/internal/domain"
)

// manifestFile mirrors sabre.py's movie.json shape.
type manifestFile struct {
	SegmentDurationMs float64     `json:"segment_duration_ms"`
	BitratesKbps      []float64   `json:"bitrates_kbps"`
	SegmentSizesBits  [][]float64 `json:"segment_sizes_bits"`
}

// LoadManifest reads and validates a movie.json-shaped file, applying the
// movie-length truncate/repeat adjustment when movieLengthSec > 0.
func LoadManifest(path string, movieLengthSec float64) (*domain.Manifest, error) {
	var raw manifestFile
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrManifest, err)
	}

	m, err := domain.NewManifest(raw.SegmentDurationMs, raw.BitratesKbps, raw.SegmentSizesBits)
	if err != nil {
		return nil, err
	}
	if movieLengthSec > 0 {
		m.TruncateOrRepeat(movieLengthSec * 1000)
	}
	return m, nil
}

// networkPeriodFile mirrors one entry of sabre.py's network.json shape.
type networkPeriodFile struct {
	DurationMs   float64 `json:"duration_ms"`
	BandwidthKbps float64 `json:"bandwidth_kbps"`
	LatencyMs    float64 `json:"latency_ms"`
}

// LoadNetworkTrace reads a network.json-shaped file, scaling bandwidth by
// multiplier (the --network-multiplier flag).
func LoadNetworkTrace(path string, multiplier float64) (domain.NetworkTrace, error) {
	var raw []networkPeriodFile
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNetworkTrace, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: trace is empty", domain.ErrNetworkTrace)
	}

	trace := make(domain.NetworkTrace, len(raw))
	for i, p := range raw {
		trace[i] = domain.NetworkPeriod{
			Duration:  p.DurationMs,
			Bandwidth: p.BandwidthKbps * multiplier,
			Latency:   p.LatencyMs,
		}
	}
	return trace, nil
}

// seekConfigFile mirrors sabre.py's seek-config.json shape: {"seeks": [...]}.
type seekConfigFile struct {
	Seeks []struct {
		SeekWhen float64 `json:"seek_when"`
		SeekTo   float64 `json:"seek_to"`
	} `json:"seeks"`
}

// LoadSeekQueue reads a seek-config.json-shaped file. An empty path yields an
// empty queue (seeking is optional, per spec.md §6).
func LoadSeekQueue(path string) (*domain.SeekQueue, error) {
	if path == "" {
		return domain.NewSeekQueue(nil), nil
	}

	var raw seekConfigFile
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSeekConfig, err)
	}

	events := make([]domain.SeekEvent, len(raw.Seeks))
	for i, s := range raw.Seeks {
		events[i] = domain.SeekEvent{SeekWhenMs: s.SeekWhen * 1000, SeekToMs: s.SeekTo * 1000}
	}
	return domain.NewSeekQueue(events), nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
