package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"go-elevator-dispatcher/pkg/config"
	"go-elevator-dispatcher/pkg/elevator"
)

// Request bodies, matching the REST shapes the control panel sends.
// 요청 본문 정의
type FloorRequest struct {
	Floor int `json:"floor"`
}

type UserRequestBody struct {
	UserID       string       `json:"user_id"`
	FloorRequest FloorRequest `json:"floor_request"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ConfigureResponse always carries floors_serviced, [] for an empty fleet.
type ConfigureResponse struct {
	Message        string `json:"message"`
	FloorsServiced []int  `json:"floors_serviced"`
}

// Server adapts the controller to HTTP and WebSocket.
type Server struct {
	ctrl     *elevator.Controller
	cfg      *config.AppConfig
	upgrader websocket.Upgrader
}

// NewServer creates the transport adapter.
func NewServer(ctrl *elevator.Controller, cfg *config.AppConfig) *Server {
	s := &Server{ctrl: ctrl, cfg: cfg}
	s.upgrader = websocket.Upgrader{CheckOrigin: s.checkOrigin}
	return s
}

// Routes registers the REST API and /ws; everything else falls through to fallback.
func (s *Server) Routes(fallback http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /user_request", s.handleUserRequest)
	mux.HandleFunc("POST /assigned_elevator", s.handleAssignedElevator)
	mux.HandleFunc("POST /request_elevator", s.handleRequestElevator)
	mux.HandleFunc("POST /configure_elevators", s.handleConfigure)
	mux.HandleFunc("DELETE /delete_configure_elevators/{panel_id}", s.handleDelete)
	mux.HandleFunc("GET /elevator_locations", s.handleLocations)
	mux.HandleFunc("GET /elevator_locations/{panel_id}", s.handleLocation)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	if fallback != nil {
		mux.Handle("/", fallback)
	}
	return s.cors(mux)
}

func (s *Server) handleUserRequest(w http.ResponseWriter, r *http.Request) {
	var body UserRequestBody
	if !decode(w, r, &body) {
		return
	}
	ack := s.ctrl.SubmitUserRequest(body.UserID, body.FloorRequest.Floor)
	writeJSON(w, http.StatusOK, MessageResponse{Message: ack.Message})
}

func (s *Server) handleAssignedElevator(w http.ResponseWriter, r *http.Request) {
	var body FloorRequest
	if !decode(w, r, &body) {
		return
	}
	id, err := s.ctrl.AssignNearestElevator(body.Floor)
	if errors.Is(err, elevator.ErrNoElevatorsAvailable) {
		writeJSON(w, http.StatusServiceUnavailable, MessageResponse{Message: "No elevators available"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, MessageResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, id)
}

func (s *Server) handleRequestElevator(w http.ResponseWriter, r *http.Request) {
	var body FloorRequest
	if !decode(w, r, &body) {
		return
	}
	ack := s.ctrl.RequestElevator(body.Floor)
	writeJSON(w, http.StatusOK, MessageResponse{Message: ack.Message})
}

func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	var specs []elevator.Spec
	if !decode(w, r, &specs) {
		return
	}
	floors, err := s.ctrl.ConfigureFleet(specs)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, MessageResponse{Message: err.Error()})
		return
	}
	if floors == nil {
		floors = []int{}
	}
	writeJSON(w, http.StatusOK, ConfigureResponse{
		Message:        "Elevator configuration updated",
		FloorsServiced: floors,
	})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ack := s.ctrl.RemoveElevator(r.PathValue("panel_id"))
	writeJSON(w, http.StatusOK, MessageResponse{Message: ack.Message})
}

func (s *Server) handleLocations(w http.ResponseWriter, _ *http.Request) {
	list, err := s.ctrl.ListElevators()
	if errors.Is(err, elevator.ErrNoElevators) {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "No elevators configured"})
		return
	}
	writeJSON(w, http.StatusOK, locations(list))
}

func (s *Server) handleLocation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("panel_id")
	st, err := s.ctrl.GetElevator(id)
	if err != nil {
		writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("Elevator %s not found", id)})
		return
	}
	writeJSON(w, http.StatusOK, location(st))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctrl.Stats())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "error", err)
		return
	}

	session := NewSession(conn, s.ctrl, s.cfg.EventBuffer)
	session.HandleMessages()
}

// Location is the public {id, current_floor, direction} view of a car.
type Location struct {
	ID           string             `json:"id"`
	CurrentFloor int                `json:"current_floor"`
	Direction    elevator.Direction `json:"direction"`
}

func location(st elevator.Status) Location {
	return Location{ID: st.ID, CurrentFloor: st.CurrentFloor, Direction: st.Direction}
}

func locations(list []elevator.Status) []Location {
	out := make([]Location, 0, len(list))
	for _, st := range list {
		out = append(out, location(st))
	}
	return out
}

// checkOrigin accepts same-host pages and the configured frontend origin.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.cfg.AllowedOrigin == "*" || origin == s.cfg.AllowedOrigin {
		return true
	}
	return strings.HasSuffix(origin, "://"+r.Host)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.AllowedOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("Failed to parse request", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
