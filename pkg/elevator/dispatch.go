package elevator

import (
	"fmt"
	"log/slog"
	"math"
)

// Nearest selects the car closest to floor. Ties go to the first car in
// iteration order. An empty fleet yields ErrNoElevatorsAvailable.
// Nearest는 요청 층과의 거리가 가장 가까운 엘리베이터를 선택합니다. 동점이면 먼저 설정된 엘리베이터가 선택됩니다.
func Nearest(fleet []Status, floor int) (string, error) {
	if len(fleet) == 0 {
		return "", ErrNoElevatorsAvailable
	}

	minDist := math.MaxInt
	id := ""
	for _, s := range fleet {
		dist := s.CurrentFloor - floor
		if dist < 0 {
			dist = -dist
		}
		if dist < minDist { // strict: keeps the earliest on ties
			minDist = dist
			id = s.ID
		}
	}
	return id, nil
}

// Arrivals schedules the delayed arrival that follows a dispatch.
// gen is the fleet generation the dispatched car belonged to.
type Arrivals interface {
	Schedule(gen uint64, floor int, elevatorID string)
}

// Dispatcher decides which car serves a floor request.
type Dispatcher struct {
	registry *Registry
	arrivals Arrivals
	bus      *Bus
	logger   *slog.Logger
}

// NewDispatcher wires a dispatcher to the fleet. arrivals and bus may be nil.
func NewDispatcher(registry *Registry, arrivals Arrivals, bus *Bus) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		arrivals: arrivals,
		bus:      bus,
		logger:   slog.Default().With("component", "dispatcher"),
	}
}

// Assign returns the id of the nearest car without moving anything.
func (d *Dispatcher) Assign(floor int) (string, error) {
	return Nearest(d.registry.Snapshot(), floor)
}

// RequestElevator is the full request flow: pick the nearest car, give it
// the target, then schedule the delayed arrival simulation.
// RequestElevator는 배차, 목표 층 설정, 지연 도착 예약을 순서대로 수행합니다.
func (d *Dispatcher) RequestElevator(floor int) (string, error) {
	return d.dispatch("", floor)
}

// Serve runs the request flow for a queued user request. Dispatch events
// carry the user's id.
func (d *Dispatcher) Serve(req UserRequest) (string, error) {
	return d.dispatch(req.UserID, req.Floor)
}

func (d *Dispatcher) dispatch(userID string, floor int) (string, error) {
	id, err := d.Assign(floor)
	if err != nil {
		d.logger.Warn("Dispatch failed", "user", userID, "floor", floor, "error", err)
		d.publish(EventDispatchFailed, "", DispatchPayload{UserID: userID, RequestedFloor: floor, Error: err.Error()})
		return "", err
	}

	// The car may have been removed between Assign and SetTarget.
	gen, err := d.registry.SetTarget(id, floor)
	if err != nil {
		d.logger.Warn("Dispatch lost its elevator", "id", id, "floor", floor, "error", err)
		d.publish(EventDispatchFailed, id, DispatchPayload{UserID: userID, RequestedFloor: floor, Error: err.Error()})
		return "", fmt.Errorf("set target on %s: %w", id, err)
	}

	if d.arrivals != nil {
		d.arrivals.Schedule(gen, floor, id)
	}

	d.logger.Info("Elevator dispatched", "id", id, "user", userID, "floor", floor)
	d.publish(EventDispatched, id, DispatchPayload{UserID: userID, RequestedFloor: floor})
	return id, nil
}

func (d *Dispatcher) publish(t EventType, elevatorID string, payload DispatchPayload) {
	if d.bus != nil {
		d.bus.Publish(t, elevatorID, payload)
	}
}
