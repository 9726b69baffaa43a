// Package config loads the YAML-driven runtime configuration for a
// tasklet process: the stack slot allocator's budget and which Strands
// get a writer-backed trace observer installed at startup.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"tasklet/task"
	"tasklet/trace"
)

// Config is the top-level shape of a tasklet configuration file.
type Config struct {
	// SlotBudget caps the number of simultaneously suspended tasks
	// process-wide; zero or negative means unbounded.
	SlotBudget int `yaml:"slot_budget,omitempty"`

	// Trace configures the built-in writer observer, if any.
	Trace TraceConfig `yaml:"trace,omitempty"`
}

// TraceConfig controls the optional default trace observer.
type TraceConfig struct {
	// Enabled installs a WriterObserver on StrandID when true.
	Enabled bool `yaml:"enabled,omitempty"`

	// StrandID identifies which Strand's switches to report. Most
	// single-threaded tasklet programs only ever populate one Strand (the
	// process's main goroutine), so this commonly names that Strand.
	StrandID uint64 `yaml:"strand_id,omitempty"`

	// Filters is a set of glob patterns (matched against a %v-formatted
	// origin/target pair) restricting which switches are logged. An empty
	// list traces everything.
	Filters []string `yaml:"filters,omitempty"`
}

// Load reads and parses a YAML configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing: %w", err)
	}
	return &cfg, nil
}

// Apply wires cfg into the task and trace packages: it reconfigures the
// process-wide stack slot budget and, if enabled, installs a filtered
// writer-backed trace observer writing to w (os.Stderr if w is nil).
func (c *Config) Apply(w io.Writer) {
	if c.SlotBudget > 0 {
		task.SetSlotBudget(c.SlotBudget)
	}
	if !c.Trace.Enabled {
		return
	}
	filters := c.Trace.Filters
	trace.SetObserver(c.Trace.StrandID, trace.WriterObserver(w, func(origin, target any) bool {
		return matchesAny(filters, fmt.Sprintf("%v -> %v", origin, target))
	}))
}

func matchesAny(patterns []string, s string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if matched, _ := filepath.Match(p, s); matched {
			return true
		}
	}
	return false
}
