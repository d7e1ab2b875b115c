package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dwaller/dicentis-bridge/internal/pkg/config"
	"github.com/dwaller/dicentis-bridge/internal/pkg/dicentis"
	"github.com/dwaller/dicentis-bridge/internal/pkg/history"
)

// engine is the slice of the bridge the HTTP surface needs: the mirror's
// read side plus command issuance.
type engine interface {
	CurrentStatus() (dicentis.Status, string)
	CurrentPhase() dicentis.Phase
	Seats() []dicentis.Seat
	InterpreterSeats() []dicentis.InterpreterSeat
	Discussion() dicentis.Discussion
	Routings() map[string]dicentis.RoutingState

	ActivateMicrophone(seatKey string) error
	DeactivateMicrophone(seatKey string) error
	ToggleMicrophone(seatKey string) error
	GrantInterpretation(seatKey string, state dicentis.RoutingState) error
	RevokeInterpretation(seatKey string) error
	SendCustom(operation string, parameters map[string]any) error
}

type server struct {
	engine  engine
	db      *history.Database
	cfg     *config.APIConfig
	logger  *zap.Logger
}

func New(eng engine, db *history.Database, cfg *config.APIConfig) *server {
	return &server{engine: eng, db: db, cfg: cfg, logger: zap.L()}
}

func (s *server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(LoggingMiddleware)

	r.Post("/auth/token", s.postToken)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Get("/status", s.getStatus)
		r.Get("/seats", s.getSeats)
		r.Get("/interpreters", s.getInterpreters)
		r.Get("/discussion", s.getDiscussion)
		r.Get("/routings", s.getRoutings)
		r.Post("/seats/{key}/microphone", s.postMicrophone)
		r.Post("/interpreters/{key}/routing", s.postRouting)
		r.Post("/operations", s.postOperation)

		if s.db != nil {
			r.Get("/history/microphone", s.getMicrophoneHistory)
		}
	})

	return r
}

func (s *server) getStatus(w http.ResponseWriter, r *http.Request) {
	status, detail := s.engine.CurrentStatus()
	writeJSON(w, http.StatusOK, map[string]string{
		"status": string(status),
		"detail": detail,
		"phase":  s.engine.CurrentPhase().String(),
	})
}

func (s *server) getSeats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Seats())
}

func (s *server) getInterpreters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.InterpreterSeats())
}

func (s *server) getDiscussion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Discussion())
}

func (s *server) getRoutings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Routings())
}

type microphonePayload struct {
	Action string `json:"action"`
}

func (s *server) postMicrophone(w http.ResponseWriter, r *http.Request) {
	payload, err := unmarshalPayload[microphonePayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	key := chi.URLParam(r, "key")

	switch payload.Action {
	case "activate":
		err = s.engine.ActivateMicrophone(key)
	case "deactivate":
		err = s.engine.DeactivateMicrophone(key)
	case "toggle", "":
		err = s.engine.ToggleMicrophone(key)
	default:
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type routingPayload struct {
	State string `json:"state"`
}

func (s *server) postRouting(w http.ResponseWriter, r *http.Request) {
	payload, err := unmarshalPayload[routingPayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	key := chi.URLParam(r, "key")

	if payload.State == "" || payload.State == string(dicentis.RoutingOff) {
		err = s.engine.RevokeInterpretation(key)
	} else {
		err = s.engine.GrantInterpretation(key, dicentis.RoutingState(payload.State))
	}
	if err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

type operationPayload struct {
	Operation  string         `json:"operation"`
	Parameters map[string]any `json:"parameters"`
}

func (s *server) postOperation(w http.ResponseWriter, r *http.Request) {
	payload, err := unmarshalPayload[operationPayload](r)
	if err != nil {
		handleError(w, err)
		return
	}
	if payload.Operation == "" {
		http.Error(w, "operation is required", http.StatusBadRequest)
		return
	}
	if err := s.engine.SendCustom(payload.Operation, payload.Parameters); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *server) getMicrophoneHistory(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()
	events, err := s.db.RecentMicrophoneEvents(ctx, 200)
	if err != nil {
		handleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func unmarshalPayload[T any](r *http.Request) (*T, error) {
	payload := new(T)
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
