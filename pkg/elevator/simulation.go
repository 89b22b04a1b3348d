package elevator

import (
	"context"
	"log/slog"
	"time"
)

// Simulator advances every car one step per tick, independently of request processing.
// Simulator는 요청 처리와 독립적으로 매 틱마다 모든 엘리베이터를 한 층씩 이동시킵니다.
type Simulator struct {
	registry *Registry
	interval time.Duration
	ticks    uint64
	logger   *slog.Logger
}

// NewSimulator creates a loop that ticks the fleet every interval.
func NewSimulator(registry *Registry, interval time.Duration) *Simulator {
	return &Simulator{
		registry: registry,
		interval: interval,
		logger:   slog.Default().With("component", "simulation"),
	}
}

// Run ticks the fleet until ctx is cancelled.
// Run은 컨텍스트가 취소될 때까지 시뮬레이션 루프를 실행합니다.
func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("Simulation Loop Started", "tick", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Simulation Stopping (Context Cancelled)", "ticks", s.ticks)
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Simulator) tick() {
	s.ticks++
	moved := s.registry.Tick()

	if !s.logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, st := range s.registry.Snapshot() {
		s.logger.Debug("Elevator status", "id", st.ID, "floor", st.CurrentFloor, "direction", st.Direction)
	}
	s.logger.Debug("Tick complete", "tick", s.ticks, "moved", moved)
}
