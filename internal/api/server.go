// Package api exposes the simulation over HTTP: public reads, admin
// writes behind a bearer token, and a websocket turn feed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/talgya/vorticog/internal/agents"
	"github.com/talgya/vorticog/internal/contracts"
	"github.com/talgya/vorticog/internal/engine"
	"github.com/talgya/vorticog/internal/events"
	"github.com/talgya/vorticog/internal/store"
	"github.com/talgya/vorticog/internal/world"
)

// Server holds the wired subsystems. All handlers are methods on it.
type Server struct {
	store     *store.Store
	brain     *agents.Brain
	spawner   *agents.Spawner
	contracts *contracts.Manager
	bridge    *events.Bridge
	processor *engine.Processor
	hub       *Hub
	limiter   *RateLimiter
	schemas   *schemas
	adminKey  string

	httpServer *http.Server
}

// NewServer wires the HTTP layer. adminKey guards write endpoints; an
// empty key disables them.
func NewServer(addr string, st *store.Store, brain *agents.Brain, spawner *agents.Spawner,
	cm *contracts.Manager, bridge *events.Bridge, processor *engine.Processor,
	hub *Hub, limiter *RateLimiter, adminKey string) (*Server, error) {

	compiled, err := compileSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:     st,
		brain:     brain,
		spawner:   spawner,
		contracts: cm,
		bridge:    bridge,
		processor: processor,
		hub:       hub,
		limiter:   limiter,
		schemas:   compiled,
		adminKey:  adminKey,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/agents", s.handleListAgents)
	mux.HandleFunc("GET /api/v1/agents/{id}", s.handleGetAgent)
	mux.HandleFunc("GET /api/v1/agents/{id}/decisions", s.handleListDecisions)
	mux.HandleFunc("GET /api/v1/companies", s.handleListCompanies)
	mux.HandleFunc("GET /api/v1/contracts", s.handleListContracts)
	mux.HandleFunc("GET /api/v1/contracts/{id}", s.handleGetContract)
	mux.HandleFunc("GET /api/v1/events", s.handleListEvents)
	mux.HandleFunc("GET /api/v1/turns/{turn}/log", s.handleTurnLog)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	mux.HandleFunc("POST /api/v1/turn", s.adminOnly(s.handleProcessTurn))
	mux.HandleFunc("POST /api/v1/agents", s.adminOnly(s.handleSpawnAgent))
	mux.HandleFunc("POST /api/v1/decide", s.adminOnly(RateLimitMiddleware(limiter, "decide", s.handleDecide)))
	mux.HandleFunc("POST /api/v1/decisions/{id}/outcome", s.adminOnly(s.handleDecisionOutcome))
	mux.HandleFunc("POST /api/v1/contracts/{id}/propose", s.adminOnly(s.handleContractAction("propose")))
	mux.HandleFunc("POST /api/v1/contracts/{id}/accept", s.adminOnly(s.handleContractAction("accept")))
	mux.HandleFunc("POST /api/v1/contracts/{id}/negotiate", s.adminOnly(s.handleContractAction("negotiate")))
	mux.HandleFunc("POST /api/v1/contracts/{id}/cancel", s.adminOnly(s.handleContractAction("cancel")))
	mux.HandleFunc("POST /api/v1/events/business", s.adminOnly(RateLimitMiddleware(limiter, "events", s.handleBusinessEvent)))
	mux.HandleFunc("POST /api/v1/events/schedule", s.adminOnly(s.handleScheduleEvent))
	mux.HandleFunc("GET /api/v1/snapshot", s.adminOnly(s.handleSnapshot))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           cors(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// ListenAndServe blocks serving HTTP.
func (s *Server) ListenAndServe() error {
	slog.Info("api listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// adminOnly requires the bearer token. With no key configured, admin
// endpoints are disabled entirely.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.adminKey == "" {
			writeError(w, fmt.Errorf("admin endpoints disabled: %w", world.ErrUnauthorized))
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+s.adminKey {
			writeError(w, world.ErrUnauthorized)
			return
		}
		next(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}

// writeError maps sentinel errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, world.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, world.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, world.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, world.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, world.ErrTransient):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// decodeValidated decodes the body into both the schema validator and out.
func decodeValidated(r *http.Request, schema interface{ Validate(any) error }, out any) error {
	var buf bytes.Buffer
	var generic any
	if err := json.NewDecoder(io.TeeReader(r.Body, &buf)).Decode(&generic); err != nil {
		return fmt.Errorf("malformed json: %w", world.ErrInvalidInput)
	}
	if err := schema.Validate(generic); err != nil {
		return fmt.Errorf("%v: %w", err, world.ErrInvalidInput)
	}
	if err := json.NewDecoder(&buf).Decode(out); err != nil {
		return fmt.Errorf("malformed payload: %w", world.ErrInvalidInput)
	}
	return nil
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	turn, err := s.store.CurrentTurn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	activeContracts, err := s.store.ListContracts(r.Context(), world.ContractActive)
	if err != nil {
		writeError(w, err)
		return
	}
	activeEvents, err := s.store.ListActiveEvents(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"turn":            turn,
		"activeContracts": len(activeContracts),
		"activeEvents":    len(activeEvents),
	})
}

func (s *Server) handleListAgents(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListAgents(r.Context(), r.URL.Query().Get("company"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetAgent(w http.ResponseWriter, r *http.Request) {
	a, err := s.store.GetAgent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListDecisions(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListCompanies(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleListContracts(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListContracts(r.Context(), world.ContractStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetContract(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetContract(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.store.ListContractItems(r.Context(), c.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	deliveries, err := s.store.ListDeliveries(r.Context(), c.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"contract":   c,
		"items":      items,
		"deliveries": deliveries,
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListActiveEvents(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleTurnLog(w http.ResponseWriter, r *http.Request) {
	var turn int64
	if _, err := fmt.Sscanf(r.PathValue("turn"), "%d", &turn); err != nil {
		writeError(w, fmt.Errorf("bad turn number: %w", world.ErrInvalidInput))
		return
	}
	list, err := s.store.ListTurnLog(r.Context(), turn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleProcessTurn(w http.ResponseWriter, r *http.Request) {
	summary, err := s.processor.ProcessTurn(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSpawnAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		CompanyID string `json:"companyId"`
		CityID    string `json:"cityId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("malformed json: %w", world.ErrInvalidInput))
		return
	}
	if req.Name == "" || req.Type == "" {
		writeError(w, fmt.Errorf("name and type required: %w", world.ErrInvalidInput))
		return
	}
	a, err := s.spawner.Spawn(r.Context(), req.Name, world.AgentType(req.Type), req.CompanyID, req.CityID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (s *Server) handleDecide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string                 `json:"agentId"`
		Context string                 `json:"context"`
		Options []world.DecisionOption `json:"options"`
	}
	if err := decodeValidated(r, s.schemas.decide, &req); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.brain.Decide(r.Context(), req.AgentID, req.Context, req.Options)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleDecisionOutcome(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Outcome string `json:"outcome"`
		Detail  string `json:"detail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("malformed json: %w", world.ErrInvalidInput))
		return
	}
	if err := s.brain.ProcessDecisionOutcome(r.Context(), r.PathValue("id"), agents.Outcome(req.Outcome), req.Detail); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

func (s *Server) handleContractAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CompanyID string `json:"companyId"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, fmt.Errorf("malformed json: %w", world.ErrInvalidInput))
			return
		}

		var (
			c   world.Contract
			err error
		)
		id := r.PathValue("id")
		switch action {
		case "propose":
			c, err = s.contracts.Propose(r.Context(), id, req.CompanyID)
		case "accept":
			c, err = s.contracts.Accept(r.Context(), id, req.CompanyID)
		case "negotiate":
			c, err = s.contracts.Negotiate(r.Context(), id, req.CompanyID)
		case "cancel":
			c, err = s.contracts.Cancel(r.Context(), id, req.CompanyID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func (s *Server) handleBusinessEvent(w http.ResponseWriter, r *http.Request) {
	var ev world.BusinessEvent
	if err := decodeValidated(r, s.schemas.businessEvent, &ev); err != nil {
		writeError(w, err)
		return
	}
	we, err := s.bridge.PropagateBusinessEvent(r.Context(), ev)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, we)
}

func (s *Server) handleScheduleEvent(w http.ResponseWriter, r *http.Request) {
	var se world.ScheduledEvent
	if err := decodeValidated(r, s.schemas.scheduleEvent, &se); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.bridge.ScheduleEvent(r.Context(), se)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/zstd")
	w.Header().Set("Content-Disposition", "attachment; filename=world.json.zst")
	if err := s.store.ExportSnapshot(r.Context(), w); err != nil {
		slog.Error("snapshot export failed", "error", err)
	}
}
