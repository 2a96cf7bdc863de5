// Package sim runs a dispatcher behind a single goroutine so it can be driven from anywhere.
package sim

import (
	"context"
	"errors"
	"log/slog"

	"liftsim/src/config"
	"liftsim/src/dispatcher"
	"liftsim/src/timer"
	"liftsim/src/types"
)

var (
	ErrNotConfigured = errors.New("simulation not configured")
	ErrStopped       = errors.New("simulation stopped")
)

// Simulation owns a dispatcher and serializes access to it. Commands and
// expired timers are both executed on the manager goroutine.
type Simulation struct {
	cmds       chan func()
	stopped    chan struct{}
	events     chan types.Notification
	clock      timer.Clock
	dispatcher *dispatcher.Dispatcher
}

// Start launches the manager goroutine. It runs until ctx is cancelled.
func Start(ctx context.Context) *Simulation {
	s := &Simulation{
		cmds:    make(chan func()),
		stopped: make(chan struct{}),
		events:  make(chan types.Notification, config.NotifyBufferSize),
	}
	s.clock = timer.NewRealClock(func(f func()) {
		select {
		case s.cmds <- f:
		case <-s.stopped:
		}
	})
	go func() {
		defer close(s.events)
		for {
			select {
			case cmd := <-s.cmds:
				cmd()
			case <-ctx.Done():
				if s.dispatcher != nil {
					s.dispatcher.Close()
				}
				close(s.stopped)
				slog.Info("Simulation stopped")
				return
			}
		}
	}()
	return s
}

// Notifications is closed when the simulation stops. Notifications are
// dropped rather than blocking the simulation when the reader falls behind.
func (s *Simulation) Notifications() <-chan types.Notification {
	return s.events
}

// Configure discards the current run, if any, and starts a new one.
func (s *Simulation) Configure(cfg config.Config) error {
	var err error
	execErr := s.exec(func() {
		var d *dispatcher.Dispatcher
		d, err = dispatcher.New(cfg, s.clock, s.publish)
		if err != nil {
			return
		}
		if s.dispatcher != nil {
			s.dispatcher.Close()
		}
		s.dispatcher = d
	})
	if execErr != nil {
		return execErr
	}
	return err
}

func (s *Simulation) SubmitRequest(floor int, dir types.Direction) error {
	var err error
	execErr := s.exec(func() {
		if s.dispatcher == nil {
			err = ErrNotConfigured
			return
		}
		err = s.dispatcher.Submit(types.FloorRequest{Floor: floor, Dir: dir})
	})
	if execErr != nil {
		return execErr
	}
	return err
}

func (s *Simulation) Snapshot() (dispatcher.State, error) {
	var state dispatcher.State
	var err error
	execErr := s.exec(func() {
		if s.dispatcher == nil {
			err = ErrNotConfigured
			return
		}
		state = s.dispatcher.Snapshot()
	})
	if execErr != nil {
		return state, execErr
	}
	return state, err
}

// exec runs f on the manager goroutine and waits for it to finish.
func (s *Simulation) exec(f func()) error {
	done := make(chan struct{})
	select {
	case s.cmds <- func() {
		f()
		close(done)
	}:
	case <-s.stopped:
		return ErrStopped
	}
	<-done
	return nil
}

func (s *Simulation) publish(n types.Notification) {
	select {
	case s.events <- n:
	default:
		slog.Warn("Notification dropped, observer is behind", "type", n.Type, "car", n.CarID)
	}
}
