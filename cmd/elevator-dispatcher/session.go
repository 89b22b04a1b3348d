package main

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"go-elevator-dispatcher/pkg/elevator"
)

// Message types
// 메시지 타입 정의
type ClientMessage struct {
	Action string          `json:"action"`
	Floor  int             `json:"floor,omitempty"`
	UserID string          `json:"user_id,omitempty"`
	ID     string          `json:"id,omitempty"`
	Fleet  []elevator.Spec `json:"fleet,omitempty"`
}

type ServerMessage struct {
	Type           string      `json:"type"`
	EventType      string      `json:"eventType,omitempty"`
	ElevatorID     string      `json:"elevatorId,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
	Timestamp      string      `json:"timestamp,omitempty"`
	Elevators      []Location  `json:"elevators"`
	FloorsServiced []int       `json:"floorsServiced,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// Session manages a WebSocket connection that streams fleet state.
// Session은 플릿 상태를 스트리밍하는 WebSocket 연결을 관리합니다.
type Session struct {
	conn   *websocket.Conn
	ctrl   *elevator.Controller
	buffer int
	mu     sync.Mutex // serializes writes
	done   chan struct{}
}

func NewSession(conn *websocket.Conn, ctrl *elevator.Controller, buffer int) *Session {
	return &Session{
		conn:   conn,
		ctrl:   ctrl,
		buffer: buffer,
		done:   make(chan struct{}),
	}
}

func (s *Session) HandleMessages() {
	slog.Info("Session started", "remote_addr", s.conn.RemoteAddr())

	events, unsubscribe := s.ctrl.Subscribe(s.buffer)
	defer func() {
		close(s.done)
		unsubscribe()
		_ = s.conn.Close()
		slog.Info("Session ended", "remote_addr", s.conn.RemoteAddr())
	}()

	// Subscribe to events
	// 이벤트 구독
	go s.eventListener(events)

	// Send initial state
	s.sendState("")

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read error", "error", err)
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			slog.Warn("Failed to parse message", "error", err)
			continue
		}

		s.handleAction(msg)
	}
}

func (s *Session) handleAction(msg ClientMessage) {
	slog.Debug("Action received", "action", msg.Action, "payload", msg)

	switch msg.Action {
	case "getState":
		s.sendState("")
	case "submit":
		ack := s.ctrl.SubmitUserRequest(msg.UserID, msg.Floor)
		s.sendState(ack.Message)
	case "request":
		ack := s.ctrl.RequestElevator(msg.Floor)
		s.sendState(ack.Message)
	case "configure":
		floors, err := s.ctrl.ConfigureFleet(msg.Fleet)
		if err != nil {
			slog.Warn("Failed to configure fleet via WS", "error", err)
			s.sendState(err.Error())
			return
		}
		s.writeJSON(ServerMessage{
			Type:           "state",
			Elevators:      s.locations(),
			FloorsServiced: floors,
			Message:        "Elevator configuration updated",
		})
	case "remove":
		ack := s.ctrl.RemoveElevator(msg.ID)
		s.sendState(ack.Message)
	default:
		slog.Warn("Unknown action", "action", msg.Action)
	}
}

func (s *Session) eventListener(events <-chan elevator.Event) {
	for {
		select {
		case <-s.done:
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			s.sendEvent(event)
			s.sendState("")
		}
	}
}

func (s *Session) locations() []Location {
	list, err := s.ctrl.ListElevators()
	if err != nil {
		return []Location{}
	}
	return locations(list)
}

func (s *Session) sendState(message string) {
	s.writeJSON(ServerMessage{
		Type:      "state",
		Elevators: s.locations(),
		Message:   message,
	})
}

func (s *Session) sendEvent(event elevator.Event) {
	s.writeJSON(ServerMessage{
		Type:       "event",
		EventType:  string(event.Type),
		ElevatorID: event.ElevatorID,
		Payload:    event.Payload,
		Timestamp:  event.Timestamp.Format(time.TimeOnly),
		Elevators:  s.locations(),
	})
}

func (s *Session) writeJSON(msg ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteJSON(msg); err != nil {
		slog.Error("Failed to write JSON message", "error", err)
	}
}
