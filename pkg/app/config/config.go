// Package config declares the harness's CLI surface and optional
// environment overrides, reusing the teacher's go-simpler.org/env loading
// idiom against a much smaller surface: there is no on-disk .env file here,
// only CLI positionals plus an optional env override for the suite timeout.
package config

import (
	"fmt"
	"time"

	"go-simpler.org/env"
)

// RunArgs is the CLI surface alexflint/go-arg parses:
// relay-tester <relay_url> <registered_private_key_1> <registered_private_key_2> [--script]
type RunArgs struct {
	RelayURL    string `arg:"positional,required" help:"websocket URL of the relay under test, e.g. wss://relay.example.com"`
	Registered1 string `arg:"positional,required" help:"nsec1... private key already registered on the relay"`
	Registered2 string `arg:"positional,required" help:"a second, distinct registered nsec1... private key"`
	Script      bool   `arg:"--script" help:"emit machine-readable JSON-lines output instead of a colored report"`
}

// EnvOverrides holds optional environment-variable overrides layered on
// top of the parsed CLI args.
type EnvOverrides struct {
	SuiteTimeout time.Duration `env:"RELAYTESTER_SUITE_TIMEOUT"`
}

// SuiteTimeout returns the per-test-case timeout, applying
// RELAYTESTER_SUITE_TIMEOUT if set, else the given default.
func SuiteTimeout(dflt time.Duration) (time.Duration, error) {
	var o EnvOverrides
	if err := env.Load(&o, nil); err != nil {
		return 0, fmt.Errorf("loading environment overrides: %w", err)
	}
	if o.SuiteTimeout > 0 {
		return o.SuiteTimeout, nil
	}
	return dflt, nil
}
