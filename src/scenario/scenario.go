// Package scenario replays a scripted list of calls on the logical clock.
package scenario

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	"liftsim/src/config"
	"liftsim/src/dispatcher"
	"liftsim/src/timer"
	"liftsim/src/types"

	"gopkg.in/yaml.v3"
)

type Call struct {
	At    time.Duration `yaml:"at"`
	Floor int           `yaml:"floor"`
	Dir   string        `yaml:"dir"`
}

// Scenario overrides Floors and Cars of the base config when they are set.
type Scenario struct {
	Name   string `yaml:"name"`
	Floors int    `yaml:"floors"`
	Cars   int    `yaml:"cars"`
	Calls  []Call `yaml:"calls"`
}

func Load(path string) (Scenario, error) {
	var sc Scenario
	file, err := os.Open(path)
	if err != nil {
		return sc, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(&sc); err != nil {
		return sc, fmt.Errorf("decode %s: %w", path, err)
	}
	return sc, nil
}

// Run submits every call at its logical time, lets all cars finish and
// returns the final state. The first rejected call aborts the run.
func Run(sc Scenario, base config.Config, observer dispatcher.Observer) (dispatcher.State, error) {
	cfg := base
	if sc.Floors > 0 {
		cfg.Floors = sc.Floors
	}
	if sc.Cars > 0 {
		cfg.Cars = sc.Cars
	}

	clock := timer.NewManualClock()
	d, err := dispatcher.New(cfg, clock, observer)
	if err != nil {
		return dispatcher.State{}, err
	}
	slog.Info("Running scenario", "name", sc.Name, "calls", len(sc.Calls), "run", d.RunID())

	calls := slices.Clone(sc.Calls)
	slices.SortStableFunc(calls, func(a, b Call) int {
		return cmp.Compare(a.At, b.At)
	})

	for i, call := range calls {
		dir, err := types.ParseDirection(call.Dir)
		if err != nil {
			return d.Snapshot(), fmt.Errorf("call %d: %w", i, err)
		}
		clock.Advance(call.At - clock.Now())
		if err := d.Submit(types.FloorRequest{Floor: call.Floor, Dir: dir}); err != nil {
			return d.Snapshot(), fmt.Errorf("call %d: %w", i, err)
		}
	}
	clock.RunUntilIdle()
	return d.Snapshot(), nil
}
