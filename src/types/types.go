package types

import (
	"fmt"
	"time"
)

type Direction int

const (
	DirNone Direction = iota
	DirUp
	DirDown
)

func (d Direction) String() string {
	switch d {
	case DirUp:
		return "up"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// ParseDirection accepts "up", "down" or an empty string.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "none":
		return DirNone, nil
	case "up", "Up", "UP":
		return DirUp, nil
	case "down", "Down", "DOWN":
		return DirDown, nil
	}
	return DirNone, fmt.Errorf("unknown direction %q", s)
}

// FloorRequest is a call button press. Two requests are the same call if floor and direction match.
type FloorRequest struct {
	Floor int
	Dir   Direction
}

type Behaviour int

const (
	Idle Behaviour = iota
	Moving
	DoorCycling
)

func (b Behaviour) String() string {
	return [...]string{"Idle", "Moving", "DoorCycling"}[b]
}

type NotificationType int

const (
	TripStarted NotificationType = iota
	Arrived
	DoorsOpened
	DoorsClosed
	CarIdle
)

func (n NotificationType) String() string {
	return [...]string{"TripStarted", "Arrived", "DoorsOpened", "DoorsClosed", "CarIdle"}[n]
}

// Notification is an outward signal for the UI layer. At is the logical time of the transition.
type Notification struct {
	Type  NotificationType
	CarID int
	Floor int
	At    time.Duration
}
