// Car state and the transition function that drives a single elevator car.
package elev

import (
	"errors"
	"fmt"
	"time"

	"liftsim/src/types"

	"github.com/tiendc/go-deepcopy"
)

var ErrUnexpectedEvent = errors.New("unexpected event")

// Car represents one elevator car.
//   - Target is the floor of the leg being executed, 0 when idle
//   - Targets holds the legs not yet started, in assignment order
//   - InFlight holds every floor the car has committed to, including Target
type Car struct {
	ID        int
	Floor     int
	Behaviour types.Behaviour
	DoorsOpen bool
	Target    int
	Targets   []int
	InFlight  map[int]bool
}

func NewCar(id, floor int) Car {
	return Car{
		ID:        id,
		Floor:     floor,
		Behaviour: types.Idle,
		InFlight:  make(map[int]bool),
	}
}

func (car Car) Committed(floor int) bool {
	return car.InFlight[floor]
}

type EventKind int

const (
	Assign EventKind = iota
	Arrive
	OpenPhaseDone
	ClosePhaseDone
)

func (k EventKind) String() string {
	names := [...]string{"Assign", "Arrive", "OpenPhaseDone", "ClosePhaseDone"}
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return names[k]
}

// Event is input to Step. Floor is only used by Assign.
type Event struct {
	Kind  EventKind
	Floor int
}

type Durations struct {
	Travel    time.Duration
	DoorOpen  time.Duration
	DoorClose time.Duration
	PerFloor  bool
}

// Timer asks the caller to feed Event back into Step after the given delay.
type Timer struct {
	After time.Duration
	Event Event
}

type Transition struct {
	Notifications []types.Notification
	Next          *Timer
}

// Idle reports whether the transition left the car idle.
func (tr Transition) Idle() bool {
	for _, n := range tr.Notifications {
		if n.Type == types.CarIdle {
			return true
		}
	}
	return false
}

// Step applies ev to car and returns the new car state together with the
// notifications to emit and the timer to start. The input car is not modified.
// An event that does not fit the current behaviour returns ErrUnexpectedEvent
// and the car unchanged.
func Step(car Car, ev Event, d Durations) (Car, Transition, error) {
	next := Car{}
	if err := deepcopy.Copy(&next, &car); err != nil {
		panic(err)
	}
	if next.InFlight == nil {
		next.InFlight = make(map[int]bool)
	}
	var tr Transition

	switch ev.Kind {
	case Assign:
		if next.InFlight[ev.Floor] {
			return car, tr, nil
		}
		next.Targets = append(next.Targets, ev.Floor)
		next.InFlight[ev.Floor] = true
		if next.Behaviour == types.Idle {
			tr = startLeg(&next, d)
		}

	case Arrive:
		if next.Behaviour != types.Moving {
			return car, tr, unexpected(car, ev)
		}
		next.Floor = next.Target
		next.Behaviour = types.DoorCycling
		tr.Notifications = append(tr.Notifications, notify(types.Arrived, next))
		tr.Next = &Timer{After: d.DoorOpen, Event: Event{Kind: OpenPhaseDone}}

	case OpenPhaseDone:
		if next.Behaviour != types.DoorCycling || next.DoorsOpen {
			return car, tr, unexpected(car, ev)
		}
		next.DoorsOpen = true
		tr.Notifications = append(tr.Notifications, notify(types.DoorsOpened, next))
		tr.Next = &Timer{After: d.DoorClose, Event: Event{Kind: ClosePhaseDone}}

	case ClosePhaseDone:
		if next.Behaviour != types.DoorCycling || !next.DoorsOpen {
			return car, tr, unexpected(car, ev)
		}
		next.DoorsOpen = false
		delete(next.InFlight, next.Target)
		tr.Notifications = append(tr.Notifications, notify(types.DoorsClosed, next))

		if len(next.Targets) > 0 {
			leg := startLeg(&next, d)
			tr.Notifications = append(tr.Notifications, leg.Notifications...)
			tr.Next = leg.Next
		} else {
			next.Behaviour = types.Idle
			next.Target = 0
			tr.Notifications = append(tr.Notifications, notify(types.CarIdle, next))
		}

	default:
		return car, tr, unexpected(car, ev)
	}
	return next, tr, nil
}

// startLeg dequeues the oldest target and puts the car in motion.
func startLeg(car *Car, d Durations) Transition {
	car.Target = car.Targets[0]
	car.Targets = car.Targets[1:]
	car.Behaviour = types.Moving

	n := notify(types.TripStarted, *car)
	n.Floor = car.Target
	return Transition{
		Notifications: []types.Notification{n},
		Next:          &Timer{After: travelTime(car.Floor, car.Target, d), Event: Event{Kind: Arrive}},
	}
}

// travelTime is zero for a leg that does not leave the floor.
func travelTime(from, to int, d Durations) time.Duration {
	distance := to - from
	if distance < 0 {
		distance = -distance
	}
	if distance == 0 {
		return 0
	}
	if d.PerFloor {
		return time.Duration(distance) * d.Travel
	}
	return d.Travel
}

func notify(kind types.NotificationType, car Car) types.Notification {
	return types.Notification{Type: kind, CarID: car.ID, Floor: car.Floor}
}

func unexpected(car Car, ev Event) error {
	return fmt.Errorf("%w: car %d got %s while %s", ErrUnexpectedEvent, car.ID, ev.Kind, car.Behaviour)
}
