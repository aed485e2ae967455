// Package config loads the optional zilch.toml file a host places next to
// its source tree: VM tuning knobs (stack depth, overflow reserve, timeout
// tick granularity). Only the stack depth is applied to an
// ExecutableState; the other two are parsed, and the VM keeps its built-in
// constants for them (spec section 4.3, Ambient Stack section 2.6).
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/zilchlang/zilch/pkg/vm"
)

// Tuning holds the VM knobs a zilch.toml may override. Zero values mean
// "use the built-in default" -- Apply only touches an ExecutableState
// field when the corresponding Tuning field is non-zero.
type Tuning struct {
	// FrameLimit caps call-stack depth before StackOverflowError fires
	// (pkg/vm's defaultFrameLimit is 4096).
	FrameLimit int `toml:"frame_limit"`

	// OverflowReserveFrames is the extra frame budget available once
	// already unwinding a stack overflow, for destructors and exception
	// construction (pkg/vm's overflowReserveFrames is 64).
	OverflowReserveFrames int `toml:"overflow_reserve_frames"`

	// TimeoutTickSeconds sets how many dispatch ticks a `timeout(N)`
	// scope's budget of N seconds is divided into (pkg/vm's
	// dispatchChargeInterval is 64).
	TimeoutTickSeconds int `toml:"timeout_tick_seconds"`
}

// Config is the full contents of a zilch.toml.
type Config struct {
	Tuning Tuning `toml:"tuning"`
}

// Load reads and parses path. A missing file is not an error: Load
// returns the zero Config, so a host can always call Load unconditionally
// and fall back to built-in defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FrameLimitOrDefault returns t.FrameLimit if set, else fallback.
func (t Tuning) FrameLimitOrDefault(fallback int) int {
	if t.FrameLimit > 0 {
		return t.FrameLimit
	}
	return fallback
}

// Apply sets es.FrameLimit from t.FrameLimit when that is non-zero, leaving
// the built-in default otherwise. OverflowReserveFrames and
// TimeoutTickSeconds are not applied: ExecutableState has no field for
// either.
func (t Tuning) Apply(es *vm.ExecutableState) {
	if t.FrameLimit > 0 {
		es.FrameLimit = t.FrameLimit
	}
}
