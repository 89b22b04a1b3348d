package elevator

import (
	"errors"
	"math/rand"
	"testing"
)

type recordedArrival struct {
	gen   uint64
	floor int
	id    string
}

type fakeArrivals struct {
	calls []recordedArrival
}

func (f *fakeArrivals) Schedule(gen uint64, floor int, id string) {
	f.calls = append(f.calls, recordedArrival{gen, floor, id})
}

func TestNearest(t *testing.T) {
	fleet := []Status{
		{ID: "x", CurrentFloor: 5},
		{ID: "y", CurrentFloor: 7},
		{ID: "z", CurrentFloor: 6},
	}

	tests := []struct {
		name  string
		floor int
		want  string
	}{
		{"exact match", 5, "x"},
		{"closest above", 8, "y"},
		{"closest below", 0, "x"},
		{"middle car", 6, "z"},
		{"negative floor", -3, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Nearest(fleet, tt.floor)
			if err != nil {
				t.Fatalf("Nearest failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %s for floor %d, got %s", tt.want, tt.floor, got)
			}
		})
	}
}

func TestNearest_TieBreakIsIterationOrder(t *testing.T) {
	fleet := []Status{
		{ID: "first", CurrentFloor: 2},
		{ID: "second", CurrentFloor: 6},
		{ID: "third", CurrentFloor: 2},
	}
	for i := 0; i < 10; i++ {
		got, _ := Nearest(fleet, 4)
		if got != "first" {
			t.Fatalf("Expected first on a tie, got %s", got)
		}
	}
}

func TestNearest_Empty(t *testing.T) {
	id, err := Nearest(nil, 3)
	if !errors.Is(err, ErrNoElevatorsAvailable) {
		t.Errorf("Expected ErrNoElevatorsAvailable, got %v", err)
	}
	if id != "" {
		t.Errorf("Expected no id, got %q", id)
	}
}

func TestNearest_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		n := 1 + rng.Intn(8)
		fleet := make([]Status, n)
		for i := range fleet {
			fleet[i] = Status{ID: string(rune('a' + i)), CurrentFloor: rng.Intn(20) - 5}
		}
		floor := rng.Intn(30) - 10

		got, err := Nearest(fleet, floor)
		if err != nil {
			t.Fatalf("Nearest failed: %v", err)
		}

		chosen := -1
		for i, s := range fleet {
			if s.ID == got {
				chosen = i
			}
		}
		if chosen < 0 {
			t.Fatalf("Expected an id from the fleet, got %s", got)
		}
		best := abs(fleet[chosen].CurrentFloor - floor)
		for i, s := range fleet {
			d := abs(s.CurrentFloor - floor)
			if d < best {
				t.Fatalf("Round %d: %s at distance %d beats chosen %s at %d", round, s.ID, d, got, best)
			}
			if d == best && i < chosen {
				t.Fatalf("Round %d: tie should go to earlier %s, got %s", round, s.ID, got)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestDispatcher_AssignHasNoSideEffects(t *testing.T) {
	r := NewRegistry(nil)
	r.Configure([]Spec{{ID: "a", CurrentFloor: 0}, {ID: "b", CurrentFloor: 8}})
	arrivals := &fakeArrivals{}
	d := NewDispatcher(r, arrivals, nil)

	id, err := d.Assign(7)
	if err != nil || id != "b" {
		t.Fatalf("Expected b, got %s (%v)", id, err)
	}
	st, _ := r.Get("b")
	if st.TargetFloor != nil {
		t.Errorf("Expected Assign to leave target unset, got %d", *st.TargetFloor)
	}
	if len(arrivals.calls) != 0 {
		t.Errorf("Expected no arrivals scheduled, got %v", arrivals.calls)
	}
}

func TestDispatcher_RequestElevator(t *testing.T) {
	bus := NewBus()
	events, cancel := bus.Subscribe(16)
	defer cancel()

	r := NewRegistry(nil)
	r.Configure([]Spec{{ID: "a", CurrentFloor: 0}, {ID: "b", CurrentFloor: 8}})
	arrivals := &fakeArrivals{}
	d := NewDispatcher(r, arrivals, bus)

	id, err := d.RequestElevator(2)
	if err != nil {
		t.Fatalf("RequestElevator failed: %v", err)
	}
	if id != "a" {
		t.Errorf("Expected a, got %s", id)
	}

	st, _ := r.Get("a")
	if st.TargetFloor == nil || *st.TargetFloor != 2 || st.Direction != DirUp {
		t.Errorf("Expected a heading up to 2, got %+v", st)
	}
	if len(arrivals.calls) != 1 || arrivals.calls[0] != (recordedArrival{r.Generation(), 2, "a"}) {
		t.Errorf("Expected one arrival for floor 2 on a, got %v", arrivals.calls)
	}

	ev := <-events
	if ev.Type != EventDispatched || ev.ElevatorID != "a" {
		t.Errorf("Expected Dispatched for a, got %s for %s", ev.Type, ev.ElevatorID)
	}
}

func TestDispatcher_ServeCarriesUserID(t *testing.T) {
	bus := NewBus()
	events, cancel := bus.Subscribe(16)
	defer cancel()

	r := NewRegistry(nil)
	r.Configure([]Spec{{ID: "a", CurrentFloor: 0}})
	d := NewDispatcher(r, nil, bus)

	if _, err := d.Serve(UserRequest{UserID: "alice", Floor: 3}); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}
	ev := <-events
	p, ok := ev.Payload.(DispatchPayload)
	if ev.Type != EventDispatched || !ok || p.UserID != "alice" || p.RequestedFloor != 3 {
		t.Errorf("Expected Dispatched for alice to floor 3, got %s %+v", ev.Type, ev.Payload)
	}

	empty := NewDispatcher(NewRegistry(nil), nil, bus)
	if _, err := empty.Serve(UserRequest{UserID: "bob", Floor: 1}); !errors.Is(err, ErrNoElevatorsAvailable) {
		t.Fatalf("Expected ErrNoElevatorsAvailable, got %v", err)
	}
	ev = <-events
	p, ok = ev.Payload.(DispatchPayload)
	if ev.Type != EventDispatchFailed || !ok || p.UserID != "bob" || p.Error == "" {
		t.Errorf("Expected DispatchFailed for bob, got %s %+v", ev.Type, ev.Payload)
	}
}

func TestDispatcher_RequestElevatorEmptyFleet(t *testing.T) {
	arrivals := &fakeArrivals{}
	d := NewDispatcher(NewRegistry(nil), arrivals, nil)

	if _, err := d.RequestElevator(3); !errors.Is(err, ErrNoElevatorsAvailable) {
		t.Errorf("Expected ErrNoElevatorsAvailable, got %v", err)
	}
	if len(arrivals.calls) != 0 {
		t.Errorf("Expected no arrival on failure, got %v", arrivals.calls)
	}
}
