// Package config loads simulation scenarios from YAML. A scenario
// names the entities to spawn, the template each one runs, and the
// tick settings for the run loop.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultDT is the tick length used when the scenario omits one.
	DefaultDT = 1.0 / 60.0

	// DefaultMaxTicks bounds a run when the scenario omits a limit.
	DefaultMaxTicks = 3600
)

// Tick holds the run-loop settings.
type Tick struct {
	DT       float64 `yaml:"dt"`
	MaxTicks int     `yaml:"max_ticks"`
}

// Entity spawns one simulated agent. Variables override the template's
// declared defaults and are coerced against the declared types at
// world build time.
type Entity struct {
	ID        uint64         `yaml:"id"`
	Template  string         `yaml:"template"`
	Variables map[string]any `yaml:"variables"`
}

// Scenario is a complete simulation description.
type Scenario struct {
	Name     string   `yaml:"name"`
	Tick     Tick     `yaml:"tick"`
	Entities []Entity `yaml:"entities"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a scenario from YAML bytes and applies defaults.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("config: parse scenario: %w", err)
	}
	if err := sc.validate(); err != nil {
		return nil, err
	}
	sc.applyDefaults()
	return &sc, nil
}

func (sc *Scenario) validate() error {
	if len(sc.Entities) == 0 {
		return fmt.Errorf("config: scenario %q has no entities", sc.Name)
	}
	if sc.Tick.DT < 0 {
		return fmt.Errorf("config: tick dt %v is negative", sc.Tick.DT)
	}
	seen := make(map[uint64]bool, len(sc.Entities))
	for i, e := range sc.Entities {
		if e.ID == 0 {
			return fmt.Errorf("config: entity #%d has no id", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("config: duplicate entity id %d", e.ID)
		}
		seen[e.ID] = true
		if e.Template == "" {
			return fmt.Errorf("config: entity %d has no template", e.ID)
		}
	}
	return nil
}

func (sc *Scenario) applyDefaults() {
	if sc.Tick.DT == 0 {
		sc.Tick.DT = DefaultDT
	}
	if sc.Tick.MaxTicks == 0 {
		sc.Tick.MaxTicks = DefaultMaxTicks
	}
}
