// Package config loads the simulation configuration from YAML with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdeljalil-sr/NeuralSeed-sub000/internal/sim"
)

// Environment overrides.
const (
	EnvDB        = "NEURALSEED_DB"
	EnvCodecAddr = "NEURALSEED_CODEC_ADDR"
	EnvSeed      = "NEURALSEED_SEED"
)

const defaultYAML = `# neuralseed configuration
db_path: neuralseed.db

# gRPC linguistic service. Leave empty to use the in-process lexicon.
codec_addr: ""

seed: 1
rule_capacity: 50
max_memories: 200
max_goals: 3
phase_dwell: 1s
persist_interval: 30s

reflection:
  min_sleep: 30s
  max_sleep: 90s

# Tick period per task. A zero frame period disables visual frames.
periods:
  chaos: 10ms
  plasticity: 100ms
  ego: 100ms
  phase: 200ms
  goals: 300ms
  identity: 1s
  fitness: 250ms
  input: 50ms
  frame: 100ms
`

// #region types

// Periods mirrors sim.Periods in YAML form.
type Periods struct {
	Chaos      time.Duration `yaml:"chaos"`
	Plasticity time.Duration `yaml:"plasticity"`
	Ego        time.Duration `yaml:"ego"`
	Phase      time.Duration `yaml:"phase"`
	Goals      time.Duration `yaml:"goals"`
	Identity   time.Duration `yaml:"identity"`
	Fitness    time.Duration `yaml:"fitness"`
	Input      time.Duration `yaml:"input"`
	Frame      time.Duration `yaml:"frame"`
}

// Reflection bounds the reflection sleep window.
type Reflection struct {
	MinSleep time.Duration `yaml:"min_sleep"`
	MaxSleep time.Duration `yaml:"max_sleep"`
}

// Config is the on-disk configuration.
type Config struct {
	DBPath          string        `yaml:"db_path"`
	CodecAddr       string        `yaml:"codec_addr"`
	Seed            int64         `yaml:"seed"`
	RuleCapacity    int           `yaml:"rule_capacity"`
	MaxMemories     int           `yaml:"max_memories"`
	MaxGoals        int           `yaml:"max_goals"`
	PhaseDwell      time.Duration `yaml:"phase_dwell"`
	PersistInterval time.Duration `yaml:"persist_interval"`
	Reflection      Reflection    `yaml:"reflection"`
	Periods         Periods       `yaml:"periods"`
}

// #endregion types

// #region load

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	if err := yaml.Unmarshal([]byte(defaultYAML), &c); err != nil {
		panic(fmt.Sprintf("config: default document: %v", err))
	}
	return c
}

// DefaultYAML returns the documented default document.
func DefaultYAML() string { return defaultYAML }

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error. An empty path skips the file.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &c); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	if err := c.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// WriteDefault writes the default document to path unless it already exists.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	return os.WriteFile(path, []byte(defaultYAML), 0644)
}

func (c *Config) applyEnv() error {
	c.DBPath = envOr(EnvDB, c.DBPath)
	c.CodecAddr = envOr(EnvCodecAddr, c.CodecAddr)
	if v := envOr(EnvSeed, ""); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvSeed, err)
		}
		c.Seed = seed
	}
	return nil
}

// Validate rejects configurations the scheduler cannot run.
func (c Config) Validate() error {
	p := c.Periods
	for _, e := range []struct {
		name string
		d    time.Duration
	}{
		{"chaos", p.Chaos}, {"plasticity", p.Plasticity}, {"ego", p.Ego}, {"phase", p.Phase},
		{"goals", p.Goals}, {"identity", p.Identity}, {"fitness", p.Fitness}, {"input", p.Input},
	} {
		if e.d <= 0 {
			return fmt.Errorf("config: period %s must be positive, got %s", e.name, e.d)
		}
	}
	if p.Frame < 0 {
		return fmt.Errorf("config: frame period must not be negative")
	}
	if c.Reflection.MinSleep <= 0 || c.Reflection.MaxSleep < c.Reflection.MinSleep {
		return fmt.Errorf("config: reflection window [%s, %s] is invalid", c.Reflection.MinSleep, c.Reflection.MaxSleep)
	}
	if c.RuleCapacity <= 0 || c.MaxMemories <= 0 || c.MaxGoals <= 0 {
		return fmt.Errorf("config: capacities must be positive")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion load

// #region sim

// Sim converts the file configuration into a scheduler configuration.
func (c Config) Sim() sim.Config {
	sc := sim.DefaultConfig()
	sc.Seed = c.Seed
	sc.RuleCapacity = c.RuleCapacity
	sc.MaxMemories = c.MaxMemories
	sc.Goals.MaxActive = c.MaxGoals
	sc.Phase.Dwell = c.PhaseDwell
	sc.Reflection.MinSleep = c.Reflection.MinSleep
	sc.Reflection.MaxSleep = c.Reflection.MaxSleep
	sc.Periods = sim.Periods(c.Periods)
	return sc
}

// #endregion sim
