package web

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"Loremaster/server/internal/engine"
	"Loremaster/server/internal/gateway"
	"Loremaster/server/internal/interfaces"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

type Handlers struct {
	engine *engine.GameEngine
	store  interfaces.GameStore
	models interfaces.ModelGateway
	hub    *EventHub
}

func NewHandlers(eng *engine.GameEngine, store interfaces.GameStore, models interfaces.ModelGateway, hub *EventHub) *Handlers {
	return &Handlers{
		engine: eng,
		store:  store,
		models: models,
		hub:    hub,
	}
}

// ChatRequest is the body of a chat turn request
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
	BackendID string `json:"backend_id,omitempty"`
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "loremaster",
		"turns":   h.engine.TurnCount(),
	})
}

// CreateSession starts a fresh game session. No body required.
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.engine.NewSession(r.Context())
	if err != nil {
		log.Printf("[Web] Create session failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create session"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": sessionID})
}

// Chat runs one turn. An absent or unknown session id starts a new session.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}
	if req.Message == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	turn, err := h.engine.ProcessTurn(r.Context(), req.SessionID, req.Message, req.BackendID)
	if err != nil {
		var genErr *gateway.GenerationError
		if errors.As(err, &genErr) {
			log.Printf("[Web] Generation failed (%s): %v", genErr.Backend, genErr)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": genErr.Error()})
			return
		}
		log.Printf("[Web] Turn failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to process turn"})
		return
	}

	if h.hub != nil {
		h.hub.PublishTurn(turn)
	}
	writeJSON(w, http.StatusOK, turn)
}

// GetCharacter returns the session's character sheet.
func (h *Handlers) GetCharacter(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	exists, err := h.store.SessionExists(r.Context(), sessionID)
	if err != nil {
		log.Printf("[Web] Session lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session lookup failed"})
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	character, err := h.store.GetCharacter(r.Context(), sessionID)
	if err != nil {
		log.Printf("[Web] Character lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "character lookup failed"})
		return
	}
	if character == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no character for session"})
		return
	}
	writeJSON(w, http.StatusOK, character)
}

// WorldSnapshot is the read view of a session's world state
type WorldSnapshot struct {
	Locations []interfaces.LocationInfo `json:"locations"`
	NPCs      []interfaces.NPCInfo      `json:"npcs"`
	Quests    []interfaces.QuestInfo    `json:"quests"`
}

// GetWorld returns the session's locations, NPCs and quests.
func (h *Handlers) GetWorld(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")
	if sessionID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	exists, err := h.store.SessionExists(r.Context(), sessionID)
	if err != nil {
		log.Printf("[Web] Session lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "session lookup failed"})
		return
	}
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	snapshot := WorldSnapshot{}
	if snapshot.Locations, err = h.store.GetLocations(r.Context(), sessionID); err != nil {
		log.Printf("[Web] World lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "world lookup failed"})
		return
	}
	if snapshot.NPCs, err = h.store.GetNPCs(r.Context(), sessionID); err != nil {
		log.Printf("[Web] World lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "world lookup failed"})
		return
	}
	if snapshot.Quests, err = h.store.GetQuests(r.Context(), sessionID, ""); err != nil {
		log.Printf("[Web] World lookup failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "world lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

// GetBackends lists the configured generation backends.
func (h *Handlers) GetBackends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"backends": h.models.Backends(),
	})
}

// GetEventStream upgrades the connection and registers the client for turn
// event broadcasts. When mounted under a session route the client only
// receives that session's turns; at /events it spectates all sessions.
func (h *Handlers) GetEventStream(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Hub not initialized"})
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	client := &Client{
		ID:        generateClientID(),
		SessionID: chi.URLParam(r, "session_id"),
		Conn:      conn,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}
	h.hub.register <- client

	welcome, _ := json.Marshal(map[string]interface{}{
		"type": "connected",
		"id":   client.ID,
		"time": time.Now().Unix(),
	})
	select {
	case client.Send <- welcome:
	default:
	}

	go client.readPump()
}

// CORS middleware
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "*")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "300")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func NewRouter(eng *engine.GameEngine, store interfaces.GameStore, models interfaces.ModelGateway, hub *EventHub) *chi.Mux {
	r := chi.NewRouter()

	// Request logging middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("REQUEST: %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	})

	r.Use(corsMiddleware)

	handlers := NewHandlers(eng, store, models, hub)

	r.Get("/health", handlers.HealthCheck)
	r.Get("/events", handlers.GetEventStream)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/session", handlers.CreateSession)
		r.Post("/chat", handlers.Chat)
		r.Get("/backends", handlers.GetBackends)

		r.Route("/session/{session_id}", func(r chi.Router) {
			r.Get("/character", handlers.GetCharacter)
			r.Get("/world", handlers.GetWorld)
			r.Get("/events", handlers.GetEventStream)
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[Web] Failed to encode response: %v", err)
	}
}

// generateClientID generates a unique client ID
func generateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}
