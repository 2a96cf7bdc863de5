package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"liftsim/src/config"
	"liftsim/src/monitor"
	"liftsim/src/scenario"
	"liftsim/src/sim"
	"liftsim/src/types"
	"liftsim/src/utils"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	envPath := flag.String("env", "", ".env file with LIFTSIM_* overrides")
	floors := flag.Int("floors", 0, "Number of floors, overrides config")
	cars := flag.Int("cars", 0, "Number of cars, overrides config")
	scenarioPath := flag.String("scenario", "", "Replay a YAML scenario on the logical clock and exit")
	logPath := flag.String("log", "", "Also write the debug log to this file")
	debug := flag.Bool("debug", false, "Enable debug logging")
	jsonOut := flag.Bool("json", false, "Print notifications as JSON lines")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	if err := utils.InitLogger(level, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "liftsim:", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(*configPath, *envPath, *floors, *cars)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	mon := monitor.New(os.Stdout, !*jsonOut)

	if *scenarioPath != "" {
		sc, err := scenario.Load(*scenarioPath)
		if err != nil {
			slog.Error("Could not load scenario", "error", err)
			os.Exit(1)
		}
		state, err := scenario.Run(sc, cfg, mon.Observe)
		mon.Status(state)
		if err != nil {
			slog.Error("Scenario failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s := sim.Start(ctx)
	if err := s.Configure(cfg); err != nil {
		slog.Error("Could not start simulation", "error", err)
		os.Exit(1)
	}
	go mon.Follow(ctx, s.Notifications())

	fmt.Println("commands: call <floor> [up|down] | status | reset <floors> <cars> | quit")
	if err := console(ctx, os.Stdin, s, mon, cfg); err != nil && !errors.Is(err, sim.ErrStopped) {
		slog.Error("Console stopped", "error", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the YAML file, the .env file and flags, in that order.
func loadConfig(configPath, envPath string, floors, cars int) (config.Config, error) {
	cfg := config.Default()
	var err error
	if configPath != "" {
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	if envPath != "" {
		if cfg, err = config.ApplyEnvFile(cfg, envPath); err != nil {
			return cfg, err
		}
	}
	if floors > 0 {
		cfg.Floors = floors
	}
	if cars > 0 {
		cfg.Cars = cars
	}
	return cfg, cfg.Validate()
}

type command struct {
	name  string
	floor int
	dir   types.Direction
	cars  int
}

func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, errors.New("empty command")
	}
	cmd := command{name: fields[0]}
	args := fields[1:]

	switch cmd.name {
	case "status", "quit":
		if len(args) != 0 {
			return cmd, fmt.Errorf("%s takes no arguments", cmd.name)
		}
	case "call":
		if len(args) < 1 || len(args) > 2 {
			return cmd, errors.New("usage: call <floor> [up|down]")
		}
		floor, err := strconv.Atoi(args[0])
		if err != nil {
			return cmd, fmt.Errorf("floor %q is not a number", args[0])
		}
		cmd.floor = floor
		if len(args) == 2 {
			if cmd.dir, err = types.ParseDirection(args[1]); err != nil {
				return cmd, err
			}
		}
	case "reset":
		if len(args) != 2 {
			return cmd, errors.New("usage: reset <floors> <cars>")
		}
		var err error
		if cmd.floor, err = strconv.Atoi(args[0]); err != nil {
			return cmd, fmt.Errorf("floors %q is not a number", args[0])
		}
		if cmd.cars, err = strconv.Atoi(args[1]); err != nil {
			return cmd, fmt.Errorf("cars %q is not a number", args[1])
		}
	default:
		return cmd, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

// console reads commands from in until quit, EOF or ctx is done.
// Rejected commands are reported and the loop continues.
func console(ctx context.Context, in io.Reader, s *sim.Simulation, mon *monitor.Monitor, cfg config.Config) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := parseCommand(line)
		if err != nil {
			fmt.Println(err)
			continue
		}
		switch cmd.name {
		case "quit":
			return nil
		case "status":
			state, err := s.Snapshot()
			if err != nil {
				return err
			}
			mon.Status(state)
		case "call":
			err = s.SubmitRequest(cmd.floor, cmd.dir)
		case "reset":
			cfg.Floors, cfg.Cars = cmd.floor, cmd.cars
			err = s.Configure(cfg)
		}
		if errors.Is(err, sim.ErrStopped) {
			return err
		}
		if err != nil {
			fmt.Println(err)
		}
	}
}
