package elevator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xyproto/randomstring"
)

// anonymousIDLen is the length of generated ids for requests without a user id.
const anonymousIDLen = 8

// Queue is an unbounded FIFO of user requests. Push never blocks.
// Queue는 크기 제한 없는 FIFO 요청 큐입니다. Push는 절대 블록되지 않습니다.
type Queue struct {
	mu     sync.Mutex
	items  []UserRequest
	notify chan struct{} // 1-slot wakeup for the consumer
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends a request and wakes the consumer. A blank user id is replaced
// with a generated one so log lines stay correlatable.
func (q *Queue) Push(req UserRequest) UserRequest {
	if req.UserID == "" {
		req.UserID = "anon-" + randomstring.EnglishFrequencyString(anonymousIDLen)
	}

	q.mu.Lock()
	q.items = append(q.items, req)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
	return req
}

// Pop removes the oldest request.
func (q *Queue) Pop() (UserRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return UserRequest{}, false
	}
	req := q.items[0]
	q.items[0] = UserRequest{}
	q.items = q.items[1:]
	return req, true
}

// Len returns the number of queued requests.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Notify fires after a Push. Wakeups coalesce.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

// Requester runs the request-elevator flow for one queued request.
type Requester interface {
	Serve(req UserRequest) (string, error)
}

// Processor is the single sequential consumer of the request queue.
// Failed requests are logged and dropped: no retry, no requeue.
// Processor는 요청 큐를 순차적으로 처리하는 단일 소비자입니다. 실패한 요청은 로그만 남기고 버립니다.
type Processor struct {
	queue        *Queue
	requester    Requester
	pollInterval time.Duration

	processed atomic.Uint64
	failed    atomic.Uint64

	logger *slog.Logger
}

// NewProcessor creates a consumer that idles at most pollInterval between checks.
func NewProcessor(queue *Queue, requester Requester, pollInterval time.Duration) *Processor {
	return &Processor{
		queue:        queue,
		requester:    requester,
		pollInterval: pollInterval,
		logger:       slog.Default().With("component", "processor"),
	}
}

// Run drains the queue until ctx is cancelled. When the queue is empty it waits
// for a push notification or the poll interval, whichever comes first.
// Run은 컨텍스트가 취소될 때까지 큐를 처리합니다.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Info("Request Processor Started", "poll_interval", p.pollInterval)

	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		for {
			if ctx.Err() != nil {
				p.logger.Info("Processor Stopping (Context Cancelled)", "queued", p.queue.Len())
				return ctx.Err()
			}
			req, ok := p.queue.Pop()
			if !ok {
				break
			}
			p.process(req)
		}

		select {
		case <-ctx.Done():
			p.logger.Info("Processor Stopping (Context Cancelled)", "queued", p.queue.Len())
			return ctx.Err()
		case <-p.queue.Notify():
		case <-ticker.C:
		}
	}
}

// process serves one request and logs its outcome. Failures are dropped.
func (p *Processor) process(req UserRequest) Outcome {
	id, err := p.requester.Serve(req)
	out := Outcome{
		UserID:         req.UserID,
		ElevatorID:     id,
		RequestedFloor: req.Floor,
		Err:            err,
	}

	p.processed.Add(1)
	if out.Err != nil {
		p.failed.Add(1)
		p.logger.Error("Error processing user request", "user", out.UserID, "floor", out.RequestedFloor, "error", out.Err)
	} else {
		p.logger.Info("User assigned elevator", "user", out.UserID, "elevator", out.ElevatorID, "floor", out.RequestedFloor)
	}
	return out
}

// Processed returns how many requests have been taken off the queue.
func (p *Processor) Processed() uint64 {
	return p.processed.Load()
}

// Failed returns how many processed requests were dropped on error.
func (p *Processor) Failed() uint64 {
	return p.failed.Load()
}
