package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"github.com/wricardo/neon-drive/game/config"
	"github.com/wricardo/neon-drive/game/engine"
	"github.com/wricardo/neon-drive/game/render"
	"github.com/wricardo/neon-drive/game/service"
	"github.com/wricardo/neon-drive/game/session"
	"github.com/wricardo/neon-drive/static"
	"github.com/wricardo/neon-drive/transport/websocket"
)

// FrameLoops starts and stops the live frame loop of a session
type FrameLoops interface {
	Start(sessionID string) error
	Stop(sessionID string) bool
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	loops   FrameLoops
	router  *mux.Router
}

// NewServer creates a new API server. hub and loops may be nil, in which
// case sessions only advance through the tick endpoint.
func NewServer(gameService service.GameService, hub *websocket.Hub, loops FrameLoops) *Server {
	s := &Server{
		service: gameService,
		hub:     hub,
		loops:   loops,
		router:  mux.NewRouter(),
	}

	if hub != nil {
		hub.SetInputHandler(s.handleClientMessage)
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Session management
	api.HandleFunc("/sessions", s.handleCreateSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE")

	// Game operations
	api.HandleFunc("/sessions/{id}/state", s.handleGetGameState).Methods("GET")
	api.HandleFunc("/sessions/{id}/frame", s.handleGetFrame).Methods("GET")
	api.HandleFunc("/sessions/{id}/tick", s.handleTick).Methods("POST")
	api.HandleFunc("/sessions/{id}/key", s.handleKey).Methods("POST")
	api.HandleFunc("/sessions/{id}/touch", s.handleTouch).Methods("POST")
	api.HandleFunc("/sessions/{id}/powerups/{kind}", s.handleActivatePowerUp).Methods("POST")
	api.HandleFunc("/sessions/{id}/viewport", s.handleResize).Methods("PUT")
	api.HandleFunc("/sessions/{id}/preferences/color", s.handleGetColor).Methods("GET")
	api.HandleFunc("/sessions/{id}/preferences/color", s.handleSetColor).Methods("PUT")
	api.HandleFunc("/sessions/{id}/effects", s.handleGetEffects).Methods("GET")

	// Configuration
	api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
	api.HandleFunc("/configs", s.handleCreateConfig).Methods("POST")
	api.HandleFunc("/configs/{name}", s.handleGetConfig).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Browser client
	s.router.PathPrefix("/").Handler(static.Handler())
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps a service error to its HTTP status
func respondServiceError(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, config.ErrInvalidConfig),
		errors.Is(err, service.ErrUnknownPowerUp),
		errors.Is(err, service.ErrInvalidViewport),
		errors.Is(err, service.ErrInvalidFrames):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody reads a JSON body into v. An empty body is accepted when
// optional is set.
func decodeBody(r *http.Request, v interface{}, optional bool) error {
	if r.Body == nil {
		if optional {
			return nil
		}
		return errors.New("request body required")
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) && optional {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid request body: %v", err)
	}
	return nil
}

// canonicalID is the key used by the hub and the frame loops
func canonicalID(id string) string {
	return strings.ToLower(id)
}

func (s *Server) startLoop(sessionID string) {
	if s.loops == nil {
		return
	}
	if err := s.loops.Start(canonicalID(sessionID)); err != nil {
		log.Warn("failed to start frame loop", "session", sessionID, "err", err)
	}
}

// Session Handlers

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConfigID   string `json:"config_id,omitempty"`
		ConfigName string `json:"config_name,omitempty"` // Deprecated, use config_id
	}

	if err := decodeBody(r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	configID := req.ConfigID
	if configID == "" && req.ConfigName != "" {
		configID = req.ConfigName
	}

	info, err := s.service.CreateSession(r.Context(), configID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info("[SESSION] created", "session", info.ID, "config", info.ConfigName)

	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if s.loops != nil {
		s.loops.Stop(canonicalID(sessionID))
	}

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info("[SESSION] deleted", "session", sessionID)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// Game Operation Handlers

func (s *Server) handleGetGameState(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := s.service.GetGameState(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}

func (s *Server) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	frame, err := s.service.GetFrame(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, frame)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Frames *int `json:"frames,omitempty"`
	}
	if err := decodeBody(r, &req, true); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	frames := 1
	if req.Frames != nil {
		frames = *req.Frames
	}

	result, err := s.service.Tick(r.Context(), sessionID, frames)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if s.hub != nil {
		s.hub.BroadcastFrame(canonicalID(sessionID), result.Frame)
	}

	log.Info("[TICK]", "session", sessionID, "frames", result.FramesRun,
		"score", result.GameState.Score, "energy", result.GameState.Energy, "expired", result.Expired)

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Key string `json:"key"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Key == "" {
		respondError(w, http.StatusBadRequest, "key is required")
		return
	}

	result, err := s.pressKey(r.Context(), sessionID, req.Key)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) pressKey(ctx context.Context, sessionID, key string) (*service.KeyResult, error) {
	result, err := s.service.PressKey(ctx, sessionID, key)
	if err != nil {
		return nil, err
	}

	if result.Activated && s.hub != nil {
		s.hub.BroadcastEvent(canonicalID(sessionID), websocket.EventPowerUp, map[string]interface{}{
			"kind":   result.PowerUp,
			"energy": result.GameState.Energy,
		})
	}

	status := "IGNORED"
	switch {
	case result.Activated:
		status = "ACTIVATED"
	case result.Gated:
		status = "GATED"
	case result.PowerUp != "":
		status = "LOW_ENERGY"
	case result.Steered:
		status = "STEER"
	}
	log.Info("[KEY]", "session", sessionID, "key", key, "status", status,
		"x", result.GameState.PlayerX, "energy", result.GameState.Energy)

	return result, nil
}

func (s *Server) handleTouch(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		ClientX *float64 `json:"client_x"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientX == nil {
		respondError(w, http.StatusBadRequest, "client_x is required")
		return
	}

	result, err := s.service.Touch(r.Context(), sessionID, *req.ClientX)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleActivatePowerUp(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]
	kind := engine.PowerUpKind(strings.ToLower(vars["kind"]))

	result, err := s.service.ActivatePowerUp(r.Context(), sessionID, kind)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if result.Activated && s.hub != nil {
		s.hub.BroadcastEvent(canonicalID(sessionID), websocket.EventPowerUp, map[string]interface{}{
			"kind":   result.Kind,
			"energy": result.Energy,
		})
	}

	log.Info("[POWERUP]", "session", sessionID, "kind", kind, "activated", result.Activated, "energy", result.Energy)
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleResize(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var vp render.Viewport
	if err := decodeBody(r, &vp, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	viewport, err := s.service.Resize(r.Context(), sessionID, vp)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, viewport)
}

func (s *Server) handleGetColor(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	prefs, err := s.service.GetPreferences(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) handleSetColor(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req struct {
		Color    string `json:"color,omitempty"`
		CarColor string `json:"carColor,omitempty"`
	}
	if err := decodeBody(r, &req, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	color := req.Color
	if color == "" {
		color = req.CarColor
	}

	prefs, err := s.setColor(r.Context(), sessionID, color)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, prefs)
}

func (s *Server) setColor(ctx context.Context, sessionID, color string) (*service.Preferences, error) {
	prefs, err := s.service.SetCarColor(ctx, sessionID, color)
	if err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.BroadcastEvent(canonicalID(sessionID), websocket.EventPreferences, prefs)
	}
	return prefs, nil
}

func (s *Server) handleGetEffects(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	opts := service.EffectsOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	effects, err := s.service.GetEffects(r.Context(), sessionID, opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, effects)
}

// Configuration Handlers

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	configName := mux.Vars(r)["name"]
	configName = strings.TrimSuffix(strings.TrimSuffix(configName, ".json"), ".toml")

	cfg, err := s.service.LoadConfig(r.Context(), configName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleCreateConfig(w http.ResponseWriter, r *http.Request) {
	var gameConfig engine.GameConfig
	if err := decodeBody(r, &gameConfig, false); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if gameConfig.Name == "" {
		respondError(w, http.StatusBadRequest, "Config name is required")
		return
	}

	// ?id= picks the file name; otherwise the display name is used
	configID := r.URL.Query().Get("id")
	if configID == "" {
		configID = gameConfig.Name
	}

	if err := s.service.SaveConfig(r.Context(), configID, &gameConfig); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"message":   "Configuration saved successfully",
		"config_id": configID,
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "websocket streaming disabled")
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session parameter required")
		return
	}

	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.startLoop(info.ID)
	s.hub.ServeWS(w, r, canonicalID(info.ID))
}

// handleClientMessage applies input received over the WebSocket
func (s *Server) handleClientMessage(sessionID string, msg websocket.ClientMessage) {
	ctx := context.Background()

	var err error
	switch msg.Type {
	case websocket.MessageKey:
		_, err = s.pressKey(ctx, sessionID, msg.Key)
	case websocket.MessageTouch:
		_, err = s.service.Touch(ctx, sessionID, msg.ClientX)
	case websocket.MessageResize:
		_, err = s.service.Resize(ctx, sessionID, render.Viewport{Width: msg.Width, Height: msg.Height})
	case websocket.MessageColor:
		_, err = s.setColor(ctx, sessionID, msg.Color)
	}

	if err != nil {
		log.Warn("client input rejected", "session", sessionID, "type", msg.Type, "err", err)
	}
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
