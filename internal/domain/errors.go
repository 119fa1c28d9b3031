package domain

import "errors"

// Sentinel errors for the configuration-time failure class (spec.md §7,
// kind (i)): these must be detected before any simulation work starts.
var (
	ErrManifest        = errors.New("manifest error")
	ErrNetworkTrace    = errors.New("network trace error")
	ErrSeekConfig      = errors.New("seek config error")
	ErrUnknownStrategy = errors.New("unknown strategy")
)
