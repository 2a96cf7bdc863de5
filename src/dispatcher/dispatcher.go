package dispatcher

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"liftsim/src/config"
	"liftsim/src/elev"
	"liftsim/src/timer"
	"liftsim/src/types"
	"liftsim/src/utils"

	"github.com/google/uuid"
	"github.com/tiendc/go-deepcopy"
)

var (
	ErrConfig       = config.ErrConfig
	ErrInvalidFloor = errors.New("invalid floor")
)

// Observer receives notifications as they happen. It must not call back into the dispatcher.
type Observer func(types.Notification)

// State is a deep copy of a dispatcher, safe to keep after the dispatcher moves on.
type State struct {
	RunID  uuid.UUID
	Now    time.Duration
	Floors int
	Cars   []elev.Car
	Queue  []types.FloorRequest
}

// Settled reports whether every car is idle and nothing is queued.
func (s State) Settled() bool {
	for _, car := range s.Cars {
		if car.Behaviour != types.Idle {
			return false
		}
	}
	return len(s.Queue) == 0
}

// Dispatcher owns the cars and the request queue of one simulation run.
// It is not safe for concurrent use; all calls and clock callbacks must come from one goroutine.
type Dispatcher struct {
	cfg       config.Config
	durations elev.Durations
	clock     timer.Clock
	observer  Observer
	runID     uuid.UUID
	cars      []elev.Car
	queue     RequestQueue
	closed    bool
}

// New validates cfg and starts a run with every car idle at floor 1.
func New(cfg config.Config, clock timer.Clock, observer Observer) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if observer == nil {
		observer = func(types.Notification) {}
	}
	d := &Dispatcher{
		cfg: cfg,
		durations: elev.Durations{
			Travel:    cfg.TravelDuration,
			DoorOpen:  cfg.DoorOpenDuration,
			DoorClose: cfg.DoorCloseDuration,
			PerFloor:  cfg.TravelMode == config.TravelPerFloor,
		},
		clock:    clock,
		observer: observer,
		runID:    uuid.New(),
		cars:     make([]elev.Car, cfg.Cars),
	}
	for id := range d.cars {
		d.cars[id] = elev.NewCar(id, 1)
	}
	slog.Info("Simulation configured", "run", d.runID, "floors", cfg.Floors, "cars", cfg.Cars)
	return d, nil
}

func (d *Dispatcher) RunID() uuid.UUID {
	return d.runID
}

// Close stops the run. Timers still pending on the clock become no-ops.
func (d *Dispatcher) Close() {
	d.closed = true
}

// Submit assigns req to an idle car or parks it in the queue.
//   - rejects floors outside [1, Floors] without touching any state
//   - ignores a call already queued, or a floor some car is already committed to
//   - prefers an idle car at the floor, then the nearest idle car, lowest id on ties
func (d *Dispatcher) Submit(req types.FloorRequest) error {
	if req.Floor < 1 || req.Floor > d.cfg.Floors {
		return fmt.Errorf("%w: %d is outside [1, %d]", ErrInvalidFloor, req.Floor, d.cfg.Floors)
	}
	if d.queue.Contains(req) {
		slog.Debug("Request already queued", "request", utils.FormatRequest(req))
		return nil
	}
	if id, ok := d.committedCar(req.Floor); ok {
		slog.Debug("Floor already served", "request", utils.FormatRequest(req), "car", id)
		return nil
	}

	id, ok := d.nearestIdleCar(req.Floor)
	if !ok {
		d.queue.PushBack(req)
		slog.Debug("No idle car, request queued", "request", utils.FormatRequest(req), "queueLen", d.queue.Len())
		return nil
	}
	d.assign(id, req)
	return nil
}

// onCarIdle drains the queue into idle cars, oldest request first.
func (d *Dispatcher) onCarIdle(carID int) {
	slog.Debug("Car idle", "car", carID, "queueLen", d.queue.Len())
	for d.queue.Len() > 0 {
		req, _ := d.queue.PopFront()
		if id, ok := d.committedCar(req.Floor); ok {
			slog.Debug("Dropping queued request, floor already served", "request", utils.FormatRequest(req), "car", id)
			continue
		}
		id, ok := d.nearestIdleCar(req.Floor)
		if !ok {
			d.queue.PushFront(req)
			slog.Debug("No idle car for queued request, retrying on next idle", "request", utils.FormatRequest(req))
			return
		}
		d.assign(id, req)
	}
}

// nearestIdleCar picks the idle car closest to floor. A car at the floor has
// distance 0 and always wins; ties go to the lowest id.
func (d *Dispatcher) nearestIdleCar(floor int) (int, bool) {
	best, bestDist := -1, 0
	for _, car := range d.cars {
		if car.Behaviour != types.Idle {
			continue
		}
		dist := car.Floor - floor
		if dist < 0 {
			dist = -dist
		}
		if best == -1 || dist < bestDist {
			best, bestDist = car.ID, dist
		}
	}
	return best, best != -1
}

func (d *Dispatcher) committedCar(floor int) (int, bool) {
	for _, car := range d.cars {
		if car.Committed(floor) {
			return car.ID, true
		}
	}
	return -1, false
}

func (d *Dispatcher) assign(carID int, req types.FloorRequest) {
	slog.Debug("Assigning request", "request", utils.FormatRequest(req), "car", carID, "from", d.cars[carID].Floor)
	d.step(carID, elev.Event{Kind: elev.Assign, Floor: req.Floor})
}

// step runs one car transition, publishes its notifications and arms the next timer.
func (d *Dispatcher) step(carID int, ev elev.Event) {
	if d.closed {
		return
	}
	car, tr, err := elev.Step(d.cars[carID], ev, d.durations)
	if err != nil {
		slog.Error("Car rejected event", "error", err)
		return
	}
	d.cars[carID] = car

	now := d.clock.Now()
	for _, n := range tr.Notifications {
		n.At = now
		d.observer(n)
	}
	if tr.Next != nil {
		next := tr.Next.Event
		d.clock.AfterFunc(tr.Next.After, func() { d.step(carID, next) })
	}
	if tr.Idle() {
		d.onCarIdle(carID)
	}
}

// Snapshot returns a deep copy of the current run.
func (d *Dispatcher) Snapshot() State {
	state := State{
		RunID:  d.runID,
		Now:    d.clock.Now(),
		Floors: d.cfg.Floors,
		Queue:  d.queue.Items(),
	}
	if err := deepcopy.Copy(&state.Cars, d.cars); err != nil {
		panic(err)
	}
	return state
}
