package abr

import (
	"fmt"

	"sabre/internal/domain"
	"sabre/internal/domain/ports"
)

// Default is the strategy name used when none is configured
// (abr_algorithms.py's abr_default).
const Default = "bolae"

type constructor func(ports.SessionView, Config) ports.Abr

var registry = map[string]constructor{
	"bola":        func(v ports.SessionView, c Config) ports.Abr { return NewBola(v, c) },
	"bolae":       func(v ports.SessionView, c Config) ports.Abr { return NewBolaEnh(v, c) },
	"throughput":  func(v ports.SessionView, c Config) ports.Abr { return NewThroughputRule(v, c) },
	"dynamic":     func(v ports.SessionView, c Config) ports.Abr { return NewDynamic(v, c) },
	"dynamicdash": func(v ports.SessionView, c Config) ports.Abr { return NewDynamicDash(v, c) },
}

// New looks up a registered strategy by name (spec.md §4.7).
func New(name string, view ports.SessionView, cfg Config) (ports.Abr, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: abr strategy %q", domain.ErrUnknownStrategy, name)
	}
	return ctor(view, cfg), nil
}

// Register adds a strategy constructor under name, replacing any existing
// entry of that name; New and Names see it from then on.
func Register(name string, ctor func(ports.SessionView, Config) ports.Abr) {
	registry[name] = ctor
}

// Names reports the registered strategy names, for CLI help/validation.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
