package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFloors     = 5
	DefaultCars       = 2
	MinFloors         = 2
	MinCars           = 1
	MaxCars           = 10
	TravelDuration    = 2 * time.Second
	DoorOpenDuration  = 2500 * time.Millisecond
	DoorCloseDuration = 2500 * time.Millisecond
	NotifyBufferSize  = 64
)

var ErrConfig = errors.New("invalid configuration")

type TravelMode string

const (
	// TravelPerLeg takes TravelDuration for every leg regardless of distance.
	TravelPerLeg TravelMode = "leg"
	// TravelPerFloor takes TravelDuration for each floor passed.
	TravelPerFloor TravelMode = "floor"
)

type Config struct {
	Floors            int           `yaml:"floors"`
	Cars              int           `yaml:"cars"`
	TravelDuration    time.Duration `yaml:"travel_duration"`
	DoorOpenDuration  time.Duration `yaml:"door_open_duration"`
	DoorCloseDuration time.Duration `yaml:"door_close_duration"`
	TravelMode        TravelMode    `yaml:"travel_mode"`
}

func Default() Config {
	return Config{
		Floors:            DefaultFloors,
		Cars:              DefaultCars,
		TravelDuration:    TravelDuration,
		DoorOpenDuration:  DoorOpenDuration,
		DoorCloseDuration: DoorCloseDuration,
		TravelMode:        TravelPerLeg,
	}
}

// Validate returns an error wrapping ErrConfig describing the first violated bound.
func (c Config) Validate() error {
	switch {
	case c.Floors < MinFloors:
		return fmt.Errorf("%w: floors must be at least %d, got %d", ErrConfig, MinFloors, c.Floors)
	case c.Cars < MinCars || c.Cars > MaxCars:
		return fmt.Errorf("%w: cars must be in [%d, %d], got %d", ErrConfig, MinCars, MaxCars, c.Cars)
	case c.TravelDuration < 0 || c.DoorOpenDuration < 0 || c.DoorCloseDuration < 0:
		return fmt.Errorf("%w: durations must not be negative", ErrConfig)
	case c.TravelMode != TravelPerLeg && c.TravelMode != TravelPerFloor:
		return fmt.Errorf("%w: unknown travel mode %q", ErrConfig, c.TravelMode)
	}
	return nil
}

// Load reads a YAML file on top of the defaults. Missing keys keep their default.
func Load(path string) (Config, error) {
	cfg := Default()
	file, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvFile overrides cfg with LIFTSIM_* keys from a .env file.
func ApplyEnvFile(cfg Config, path string) (Config, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		return cfg, err
	}
	return applyEnv(cfg, env)
}

func applyEnv(cfg Config, env map[string]string) (Config, error) {
	ints := map[string]*int{
		"LIFTSIM_FLOORS": &cfg.Floors,
		"LIFTSIM_CARS":   &cfg.Cars,
	}
	for key, dst := range ints {
		val, ok := env[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q is not an integer", ErrConfig, key, val)
		}
		*dst = n
	}

	durations := map[string]*time.Duration{
		"LIFTSIM_TRAVEL_DURATION":     &cfg.TravelDuration,
		"LIFTSIM_DOOR_OPEN_DURATION":  &cfg.DoorOpenDuration,
		"LIFTSIM_DOOR_CLOSE_DURATION": &cfg.DoorCloseDuration,
	}
	for key, dst := range durations {
		val, ok := env[key]
		if !ok {
			continue
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return cfg, fmt.Errorf("%w: %s=%q is not a duration", ErrConfig, key, val)
		}
		*dst = d
	}

	if mode, ok := env["LIFTSIM_TRAVEL_MODE"]; ok {
		cfg.TravelMode = TravelMode(mode)
	}
	return cfg, nil
}
