package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// Policy decides what happens to a function whose graph cannot be built.
type Policy string

const (
	// PolicySkip logs the function, leaves it out and continues.
	PolicySkip Policy = "skip"
	// PolicyAbort stops the run; no document is produced.
	PolicyAbort Policy = "abort"
)

// Config represents configuration for an extraction run.
type Config struct {
	Workers         int    `json:"workers" jsonschema:"title=Workers,description=Functions extracted concurrently,minimum=1,default=1"`
	OnEdgeError     Policy `json:"onEdgeError" jsonschema:"title=On Edge Error,description=What to do with a function whose edges do not resolve,enum=skip,enum=abort,default=skip"`
	Demangle        bool   `json:"demangle" jsonschema:"title=Demangle,description=Write demangled function names"`
	MaxInstructions int    `json:"maxInstructions" jsonschema:"title=Max Instructions,description=Per-function decode limit; 0 is unlimited,minimum=0"`
	IncludeThunks   bool   `json:"includeThunks" jsonschema:"title=Include Thunks,description=Extract PLT stubs too"`
	Indent          bool   `json:"indent" jsonschema:"title=Indent,description=Indent the output document"`
}

// DefaultConfig is a sequential run that skips inconsistent functions.
func DefaultConfig() Config {
	return Config{Workers: 1, OnEdgeError: PolicySkip}
}

// LoadConfig reads a JSON config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings Run cannot honour.
func (c Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.MaxInstructions < 0 {
		return fmt.Errorf("maxInstructions must not be negative, got %d", c.MaxInstructions)
	}
	switch c.OnEdgeError {
	case PolicySkip, PolicyAbort:
		return nil
	}
	return fmt.Errorf("onEdgeError must be %q or %q, got %q", PolicySkip, PolicyAbort, c.OnEdgeError)
}
