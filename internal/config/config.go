package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the full service configuration, loaded from a YAML file and
// validated before the service starts. Secrets (API keys, DSNs) are not kept
// here; they come from the process environment and are passed explicitly by
// the composition root.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Matrix MatrixConfig `yaml:"matrix"`
	Solve  SolveConfig  `yaml:"solve"`
	Depot  DepotConfig  `yaml:"depot" validate:"required"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

// MatrixConfig selects and tunes the travel matrix backend.
type MatrixConfig struct {
	Provider          string      `yaml:"provider" validate:"oneof=osrm google"`
	BaseURL           string      `yaml:"base_url"`
	Profile           string      `yaml:"profile"`
	ChunkSize         int         `yaml:"chunk_size" validate:"min=2"`
	MaxParallel       int         `yaml:"max_parallel" validate:"min=1"`
	RequestsPerSecond float64     `yaml:"requests_per_second" validate:"gt=0"`
	Cache             CacheConfig `yaml:"cache"`
}

type CacheConfig struct {
	Kind       string `yaml:"kind" validate:"oneof=none sqlite postgres redis"`
	Path       string `yaml:"path"`
	Addr       string `yaml:"addr"`
	TTLMinutes int    `yaml:"ttl_minutes" validate:"min=0"`
}

func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLMinutes) * time.Minute }

// SolveConfig carries the search parameters of a solve request.
type SolveConfig struct {
	Vehicles            int    `yaml:"vehicles" validate:"min=1"`
	ReferenceDate       string `yaml:"reference_date"`
	DefaultServiceMin   int    `yaml:"default_service_min" validate:"min=0"`
	MaxWaitMin          int    `yaml:"max_wait_min" validate:"min=0"`
	MaxRouteDurationMin int    `yaml:"max_route_duration_min" validate:"min=0"`
	SoftPenaltyPerMin   int    `yaml:"soft_penalty_per_min" validate:"min=1"`
	HardBudgetSec       int    `yaml:"hard_budget_sec" validate:"min=1"`
	RelaxedBudgetSec    int    `yaml:"relaxed_budget_sec" validate:"min=1"`
	Seed                int64  `yaml:"seed"`
}

func (c SolveConfig) HardBudget() time.Duration {
	return time.Duration(c.HardBudgetSec) * time.Second
}

func (c SolveConfig) RelaxedBudget() time.Duration {
	return time.Duration(c.RelaxedBudgetSec) * time.Second
}

// ClockWindow is a raw "HH:MM" window pair as written in the config file.
type ClockWindow struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// DepotConfig locates the depot and lists its 1-3 admission windows: the
// spans during which a route may end there.
type DepotConfig struct {
	Lat     float64       `yaml:"lat" validate:"required"`
	Lon     float64       `yaml:"lon" validate:"required"`
	Windows []ClockWindow `yaml:"windows" validate:"required,min=1,max=3,dive"`
}

// Default returns a configuration mirroring the defaults the service ships
// with. Load starts from this and overlays the file.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Matrix: MatrixConfig{
			Provider:          "osrm",
			Profile:           "driving",
			ChunkSize:         25,
			MaxParallel:       4,
			RequestsPerSecond: 2,
			Cache:             CacheConfig{Kind: "none", TTLMinutes: 0},
		},
		Solve: SolveConfig{
			Vehicles:          6,
			DefaultServiceMin: 5,
			MaxWaitMin:        240,
			SoftPenaltyPerMin: 1000,
			HardBudgetSec:     30,
			RelaxedBudgetSec:  10,
		},
	}
}

// Load reads, decodes, and validates the YAML configuration at path.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: read %q: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: parse %q: %w", path, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("load config: validate %q: %w", path, err)
	}

	return cfg, nil
}

// ReferenceDay parses the configured reference date, defaulting to today.
func (c SolveConfig) ReferenceDay() (time.Time, error) {
	if c.ReferenceDate == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local), nil
	}
	day, err := time.ParseInLocation("2006-01-02", c.ReferenceDate, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("reference_date %q: %w", c.ReferenceDate, err)
	}
	return day, nil
}
