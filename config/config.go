// Package config reads saltshaker.yaml.
//
// Every field is optional. A missing file means the defaults below, and
// command-line flags are applied on top of whatever the file says.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"saltshaker/export"
	"saltshaker/solver"
)

const DefaultPath = "saltshaker.yaml"

const DefaultYAML = `# saltshaker configuration

# Parallel searches; the best schedule among them wins.
workers: 8
# Random seed. 0 picks one from the clock.
seed: 0

search:
  # greedy or anneal
  policy: greedy
  time: 2m
  # Stop after this many schedules per worker. 0 means no cap.
  max_iterations: 0
  check_every: 1000
  anneal:
    temp_high: 1.0
    temp_low: 0.00001
    alpha: 0.9
    trials_per_temp: 100

scoring:
  # default, relaxed or mixing
  preset: default
  # Single weights to override on top of the preset, e.g.
  # weights:
  #   meeting: 2

output: schedule.csv
# postgres://... or sqlite://path. Empty disables run history.
store: ""
metrics_addr: ""

s3:
  region: us-east-1
  endpoint: ""
  path_style: false
`

type Config struct {
	Workers     int           `yaml:"workers"`
	Seed        int64         `yaml:"seed"`
	Search      SearchConfig  `yaml:"search"`
	Scoring     ScoringConfig `yaml:"scoring"`
	Output      string        `yaml:"output"`
	Store       string        `yaml:"store"`
	MetricsAddr string        `yaml:"metrics_addr"`
	S3          S3Config      `yaml:"s3"`
}

type SearchConfig struct {
	Policy        string        `yaml:"policy"`
	Time          time.Duration `yaml:"time"`
	MaxIterations int           `yaml:"max_iterations"`
	CheckEvery    int           `yaml:"check_every"`
	Anneal        AnnealConfig  `yaml:"anneal"`
}

type AnnealConfig struct {
	TempHigh      float64 `yaml:"temp_high"`
	TempLow       float64 `yaml:"temp_low"`
	Alpha         float64 `yaml:"alpha"`
	TrialsPerTemp int     `yaml:"trials_per_temp"`
}

type ScoringConfig struct {
	Preset  string          `yaml:"preset"`
	Weights WeightOverrides `yaml:"weights,omitempty"`
}

// WeightOverrides replaces single preset weights. Nil fields keep the
// preset's value.
type WeightOverrides struct {
	Meal             *float64 `yaml:"meal,omitempty"`
	Hosting          *float64 `yaml:"hosting,omitempty"`
	PeakHosting      *float64 `yaml:"peak_hosting,omitempty"`
	Overage          *float64 `yaml:"overage,omitempty"`
	SmallDinner      *float64 `yaml:"small_dinner,omitempty"`
	SmallDinnerSeats *int     `yaml:"small_dinner_seats,omitempty"`
	Meeting          *float64 `yaml:"meeting,omitempty"`
	Acquainted       *float64 `yaml:"acquainted,omitempty"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty"`
	PathStyle       bool   `yaml:"path_style"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	p := solver.DefaultParams
	return &Config{
		Workers: 8,
		Search: SearchConfig{
			Policy:     p.Policy.String(),
			Time:       p.Budget,
			CheckEvery: p.CheckEvery,
			Anneal: AnnealConfig{
				TempHigh:      p.TempHigh,
				TempLow:       p.TempLow,
				Alpha:         p.Alpha,
				TrialsPerTemp: p.TrialsPerTemp,
			},
		},
		Scoring: ScoringConfig{Preset: "default"},
		Output:  "schedule.csv",
		S3:      S3Config{Region: "us-east-1"},
	}
}

// Load reads path on top of the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// WriteDefault creates path with the commented default document. An
// existing file is left alone.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config: %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(DefaultYAML), 0o644)
}

func (c *Config) normalize() {
	c.Search.Policy = strings.ToLower(strings.TrimSpace(c.Search.Policy))
	c.Scoring.Preset = strings.ToLower(strings.TrimSpace(c.Scoring.Preset))
	if c.Scoring.Preset == "" {
		c.Scoring.Preset = "default"
	}
	c.Output = strings.TrimSpace(c.Output)
	c.Store = strings.TrimSpace(c.Store)
}

func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := c.Weights(); err != nil {
		return err
	}
	p, err := c.SearchParams()
	if err != nil {
		return err
	}
	return p.Validate()
}

// SearchParams converts the search section.
func (c *Config) SearchParams() (solver.Params, error) {
	policy, err := solver.ParsePolicy(c.Search.Policy)
	if err != nil {
		return solver.Params{}, err
	}
	return solver.Params{
		Policy:        policy,
		Budget:        c.Search.Time,
		MaxIterations: c.Search.MaxIterations,
		CheckEvery:    c.Search.CheckEvery,
		TempHigh:      c.Search.Anneal.TempHigh,
		TempLow:       c.Search.Anneal.TempLow,
		Alpha:         c.Search.Anneal.Alpha,
		TrialsPerTemp: c.Search.Anneal.TrialsPerTemp,
	}, nil
}

// Weights resolves the preset and applies any overrides.
func (c *Config) Weights() (solver.Weights, error) {
	w, ok := solver.WeightSets[strings.ToLower(c.Scoring.Preset)]
	if !ok {
		return solver.Weights{}, fmt.Errorf("unknown weight preset %q (have %s)",
			c.Scoring.Preset, strings.Join(solver.WeightSetNames(), ", "))
	}
	o := c.Scoring.Weights
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&w.Meal, o.Meal)
	set(&w.Hosting, o.Hosting)
	set(&w.PeakHosting, o.PeakHosting)
	set(&w.Overage, o.Overage)
	set(&w.SmallDinner, o.SmallDinner)
	set(&w.Meeting, o.Meeting)
	set(&w.Acquainted, o.Acquainted)
	if o.SmallDinnerSeats != nil {
		w.SmallDinnerSeats = *o.SmallDinnerSeats
	}
	return w, nil
}

// S3Options converts the s3 section for the export package.
func (c *Config) S3Options() export.S3Config {
	return export.S3Config{
		Region:          c.S3.Region,
		Endpoint:        c.S3.Endpoint,
		AccessKeyID:     c.S3.AccessKeyID,
		SecretAccessKey: c.S3.SecretAccessKey,
		PathStyle:       c.S3.PathStyle,
	}
}
