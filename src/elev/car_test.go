package elev

import (
	"errors"
	"testing"
	"time"

	"liftsim/src/types"
)

var testDurations = Durations{
	Travel:    2 * time.Second,
	DoorOpen:  time.Second,
	DoorClose: time.Second,
}

// runLeg feeds the car its own timers until it stops asking for one.
func runLeg(t *testing.T, car Car, tr Transition) (Car, []types.Notification, []types.Behaviour) {
	t.Helper()
	notes := append([]types.Notification(nil), tr.Notifications...)
	seen := []types.Behaviour{car.Behaviour}
	for tr.Next != nil {
		var err error
		car, tr, err = Step(car, tr.Next.Event, testDurations)
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		notes = append(notes, tr.Notifications...)
		seen = append(seen, car.Behaviour)
	}
	return car, notes, seen
}

func TestSingleTripPassesThroughEveryState(t *testing.T) {
	car := NewCar(0, 1)
	car, tr, err := Step(car, Event{Kind: Assign, Floor: 4}, testDurations)
	if err != nil {
		t.Fatal(err)
	}
	if car.Behaviour != types.Moving || car.Target != 4 || car.Floor != 1 {
		t.Fatalf("after assign: %+v", car)
	}
	if tr.Next == nil || tr.Next.After != testDurations.Travel || tr.Next.Event.Kind != Arrive {
		t.Fatalf("expected travel timer, got %+v", tr.Next)
	}

	car, notes, seen := runLeg(t, car, tr)

	wantStates := []types.Behaviour{types.Moving, types.DoorCycling, types.DoorCycling, types.Idle}
	if len(seen) != len(wantStates) {
		t.Fatalf("states %v, want %v", seen, wantStates)
	}
	for i := range wantStates {
		if seen[i] != wantStates[i] {
			t.Fatalf("states %v, want %v", seen, wantStates)
		}
	}

	wantNotes := []types.NotificationType{types.TripStarted, types.Arrived, types.DoorsOpened, types.DoorsClosed, types.CarIdle}
	if len(notes) != len(wantNotes) {
		t.Fatalf("notifications %v, want %v", notes, wantNotes)
	}
	for i, n := range notes {
		if n.Type != wantNotes[i] || n.CarID != 0 {
			t.Errorf("notification %d = %+v, want %s", i, n, wantNotes[i])
		}
	}
	if notes[0].Floor != 4 {
		t.Errorf("TripStarted floor = %d, want target 4", notes[0].Floor)
	}

	if car.Floor != 4 || car.Target != 0 || len(car.Targets) != 0 || len(car.InFlight) != 0 {
		t.Errorf("final car %+v", car)
	}
}

func TestStepDoesNotModifyInput(t *testing.T) {
	car := NewCar(1, 1)
	moving, _, err := Step(car, Event{Kind: Assign, Floor: 3}, testDurations)
	if err != nil {
		t.Fatal(err)
	}
	if car.Behaviour != types.Idle || len(car.InFlight) != 0 {
		t.Errorf("input car was mutated: %+v", car)
	}
	if _, _, err := Step(moving, Event{Kind: Assign, Floor: 2}, testDurations); err != nil {
		t.Fatal(err)
	}
	if len(moving.Targets) != 0 || moving.Committed(2) {
		t.Errorf("input car was mutated: %+v", moving)
	}
}

func TestAssignWhileBusyIsQueuedInOrder(t *testing.T) {
	car := NewCar(0, 1)
	car, tr, _ := Step(car, Event{Kind: Assign, Floor: 5}, testDurations)
	car, _, _ = Step(car, Event{Kind: Assign, Floor: 2}, testDurations)
	car, _, _ = Step(car, Event{Kind: Assign, Floor: 3}, testDurations)

	if car.Target != 5 {
		t.Fatalf("current leg was preempted: target %d", car.Target)
	}
	if len(car.Targets) != 2 || car.Targets[0] != 2 || car.Targets[1] != 3 {
		t.Fatalf("Targets = %v, want [2 3]", car.Targets)
	}

	car, notes, _ := runLeg(t, car, tr)
	var visited []int
	idle := 0
	for _, n := range notes {
		if n.Type == types.Arrived {
			visited = append(visited, n.Floor)
		}
		if n.Type == types.CarIdle {
			idle++
		}
	}
	if len(visited) != 3 || visited[0] != 5 || visited[1] != 2 || visited[2] != 3 {
		t.Errorf("visited %v, want [5 2 3]", visited)
	}
	if idle != 1 {
		t.Errorf("CarIdle emitted %d times, want 1", idle)
	}
	if car.Floor != 3 || car.Behaviour != types.Idle {
		t.Errorf("final car %+v", car)
	}
}

func TestAssignCommittedFloorIsNoop(t *testing.T) {
	car := NewCar(0, 1)
	car, _, _ = Step(car, Event{Kind: Assign, Floor: 3}, testDurations)
	again, tr, err := Step(car, Event{Kind: Assign, Floor: 3}, testDurations)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Notifications) != 0 || tr.Next != nil || len(again.Targets) != 0 {
		t.Errorf("duplicate assign changed state: %+v %+v", again, tr)
	}
}

func TestUnexpectedEvents(t *testing.T) {
	idle := NewCar(0, 1)
	moving, _, _ := Step(idle, Event{Kind: Assign, Floor: 2}, testDurations)
	cycling, _, _ := Step(moving, Event{Kind: Arrive}, testDurations)

	tests := []struct {
		name string
		car  Car
		ev   EventKind
	}{
		{"arrive while idle", idle, Arrive},
		{"doors while moving", moving, OpenPhaseDone},
		{"close before open", cycling, ClosePhaseDone},
		{"arrive while door cycling", cycling, Arrive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tr, err := Step(tt.car, Event{Kind: tt.ev}, testDurations)
			if !errors.Is(err, ErrUnexpectedEvent) {
				t.Fatalf("err = %v, want ErrUnexpectedEvent", err)
			}
			if got.Behaviour != tt.car.Behaviour || tr.Next != nil {
				t.Errorf("state changed on rejected event: %+v", got)
			}
		})
	}
}

func TestTravelTime(t *testing.T) {
	perFloor := testDurations
	perFloor.PerFloor = true

	tests := []struct {
		name     string
		from, to int
		d        Durations
		want     time.Duration
	}{
		{"same floor", 3, 3, testDurations, 0},
		{"leg up", 1, 5, testDurations, 2 * time.Second},
		{"leg down", 5, 1, testDurations, 2 * time.Second},
		{"per floor up", 1, 4, perFloor, 6 * time.Second},
		{"per floor down", 4, 2, perFloor, 4 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := travelTime(tt.from, tt.to, tt.d); got != tt.want {
				t.Errorf("travelTime(%d, %d) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestSameFloorLegStillMoves(t *testing.T) {
	car := NewCar(0, 2)
	car, tr, _ := Step(car, Event{Kind: Assign, Floor: 2}, testDurations)
	if car.Behaviour != types.Moving || tr.Next.After != 0 {
		t.Fatalf("expected zero-length Moving leg, got %+v timer %+v", car, tr.Next)
	}
	car, _, _ = runLeg(t, car, tr)
	if car.Floor != 2 || car.Behaviour != types.Idle {
		t.Errorf("final car %+v", car)
	}
}
