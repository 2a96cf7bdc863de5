// Package monitor prints simulation notifications and status.
package monitor

import (
	"context"
	"io"

	"liftsim/src/dispatcher"
	"liftsim/src/types"
	"liftsim/src/utils"

	"github.com/rs/zerolog"
)

const timeFormat = "15:04:05.000"

type Monitor struct {
	log zerolog.Logger
}

// New writes to out. With pretty set the output is for terminals, otherwise one JSON object per line.
func New(out io.Writer, pretty bool) *Monitor {
	if pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}
	return &Monitor{log: zerolog.New(out).With().Timestamp().Logger()}
}

// Observe logs a single notification. It has the dispatcher.Observer signature.
func (m *Monitor) Observe(n types.Notification) {
	ev := m.log.Info().
		Str("event", n.Type.String()).
		Int("car", n.CarID).
		Dur("at", n.At)
	switch n.Type {
	case types.TripStarted:
		ev = ev.Int("target", n.Floor)
	default:
		ev = ev.Int("floor", n.Floor)
	}
	ev.Send()
}

// Follow logs notifications from ch until it is closed or ctx is done.
func (m *Monitor) Follow(ctx context.Context, ch <-chan types.Notification) {
	for {
		select {
		case n, ok := <-ch:
			if !ok {
				return
			}
			m.Observe(n)
		case <-ctx.Done():
			return
		}
	}
}

// Status logs one line per car followed by the pending queue.
func (m *Monitor) Status(state dispatcher.State) {
	for _, car := range state.Cars {
		m.log.Info().
			Str("run", state.RunID.String()).
			Int("car", car.ID).
			Int("floor", car.Floor).
			Str("state", car.Behaviour.String()).
			Int("target", car.Target).
			Ints("targets", car.Targets).
			Msg("car")
	}
	pending := make([]string, 0, len(state.Queue))
	for _, req := range state.Queue {
		pending = append(pending, utils.FormatRequest(req))
	}
	m.log.Info().Strs("pending", pending).Dur("at", state.Now).Msg("queue")
}
