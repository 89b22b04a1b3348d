package elevator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubRequester struct {
	mu   sync.Mutex
	reqs []UserRequest
	fail map[int]bool
}

func (s *stubRequester) Serve(req UserRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reqs = append(s.reqs, req)
	if s.fail[req.Floor] {
		return "", ErrNoElevatorsAvailable
	}
	return "car", nil
}

func (s *stubRequester) seen() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	floors := make([]int, 0, len(s.reqs))
	for _, r := range s.reqs {
		floors = append(floors, r.Floor)
	}
	return floors
}

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()
	for i := 0; i < 5; i++ {
		q.Push(UserRequest{UserID: "u", Floor: i})
	}
	if q.Len() != 5 {
		t.Fatalf("Expected 5 queued, got %d", q.Len())
	}
	for i := 0; i < 5; i++ {
		req, ok := q.Pop()
		if !ok || req.Floor != i {
			t.Fatalf("Expected floor %d, got %d (%v)", i, req.Floor, ok)
		}
	}
	if _, ok := q.Pop(); ok {
		t.Error("Expected empty queue")
	}
}

func TestQueue_AnonymousUser(t *testing.T) {
	q := NewQueue()
	req := q.Push(UserRequest{Floor: 2})
	if !strings.HasPrefix(req.UserID, "anon-") || len(req.UserID) != len("anon-")+anonymousIDLen {
		t.Errorf("Expected generated anonymous id, got %q", req.UserID)
	}

	kept := q.Push(UserRequest{UserID: "alice", Floor: 3})
	if kept.UserID != "alice" {
		t.Errorf("Expected user id to be kept, got %q", kept.UserID)
	}
}

func TestQueue_PushNeverBlocks(t *testing.T) {
	q := NewQueue()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 10000; i++ {
			q.Push(UserRequest{UserID: "u", Floor: i})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Push blocked without a consumer")
	}
}

func TestProcessor_DrainsInOrderAndDropsFailures(t *testing.T) {
	q := NewQueue()
	req := &stubRequester{fail: map[int]bool{2: true}}
	p := NewProcessor(q, req, time.Hour) // wakeups must come from Notify

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	for _, f := range []int{1, 2, 3} {
		q.Push(UserRequest{UserID: "u", Floor: f})
	}

	deadline := time.Now().Add(2 * time.Second)
	for p.Processed() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	if got := req.seen(); len(got) != 3 || got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Errorf("Expected floors [1 2 3] in order, got %v", got)
	}
	if p.Failed() != 1 {
		t.Errorf("Expected 1 failure, got %d", p.Failed())
	}
	if q.Len() != 0 {
		t.Errorf("Expected failed request to be dropped, %d still queued", q.Len())
	}

}

func TestProcessor_ProcessReportsOutcome(t *testing.T) {
	req := &stubRequester{fail: map[int]bool{2: true}}
	p := NewProcessor(NewQueue(), req, time.Hour)

	ok := p.process(UserRequest{UserID: "alice", Floor: 1})
	if ok.Err != nil || ok.UserID != "alice" || ok.ElevatorID != "car" || ok.RequestedFloor != 1 {
		t.Errorf("Unexpected outcome %+v", ok)
	}
	failed := p.process(UserRequest{UserID: "bob", Floor: 2})
	if !errors.Is(failed.Err, ErrNoElevatorsAvailable) || failed.UserID != "bob" || failed.ElevatorID != "" {
		t.Errorf("Unexpected failed outcome %+v", failed)
	}
	if p.Processed() != 2 || p.Failed() != 1 {
		t.Errorf("Expected 2 processed and 1 failed, got %d and %d", p.Processed(), p.Failed())
	}
}

func TestProcessor_PollsWithoutNotify(t *testing.T) {
	q := NewQueue()
	req := &stubRequester{}
	p := NewProcessor(q, req, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.Run(ctx)
	time.Sleep(20 * time.Millisecond)

	// Bypass Push so no wakeup is sent; the poll interval must pick it up.
	q.mu.Lock()
	q.items = append(q.items, UserRequest{UserID: "u", Floor: 4})
	q.mu.Unlock()

	deadline := time.Now().Add(2 * time.Second)
	for p.Processed() < 1 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Processed() != 1 {
		t.Errorf("Expected poll to process 1 request, got %d", p.Processed())
	}
}
