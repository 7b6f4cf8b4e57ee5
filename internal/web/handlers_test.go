package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"Loremaster/server/internal/engine"
	"Loremaster/server/internal/gateway"
	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/storage"
)

type stubGateway struct {
	response string
	err      error
}

func (g *stubGateway) Generate(ctx context.Context, prompt, backendID string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.response, nil
}

func (g *stubGateway) Backends() []interfaces.BackendInfo {
	return []interfaces.BackendInfo{{ID: "stub", Model: "test", Description: "stub backend"}}
}

func newTestServer(gw interfaces.ModelGateway) (*httptest.Server, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	eng := engine.NewGameEngine(store, nil, gw, nil, engine.Options{})
	hub := NewEventHub()
	go hub.Run()
	return httptest.NewServer(NewRouter(eng, store, gw, hub)), store
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, into interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCreateSessionEndpoint(t *testing.T) {
	server, store := newTestServer(&stubGateway{response: "hello"})
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/v1/session", nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["session_id"] == "" {
		t.Fatalf("no session id returned")
	}
	if exists, _ := store.SessionExists(context.Background(), body["session_id"]); !exists {
		t.Fatalf("session not persisted")
	}
}

func TestChatEndpointRunsTurn(t *testing.T) {
	server, _ := newTestServer(&stubGateway{
		response: "Welcome! ```function update_character({\"name\":\"Elric\"})```",
	})
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/v1/chat", map[string]string{"message": "Hi, I'm Elric"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var turn engine.TurnResult
	decodeBody(t, resp, &turn)
	if turn.SessionID == "" || turn.Response == "" {
		t.Fatalf("incomplete turn payload: %+v", turn)
	}
	if len(turn.Results) != 1 || !turn.Results[0].Success {
		t.Fatalf("directive results missing: %+v", turn.Results)
	}
	if turn.Character == nil || turn.Character.Name != "Elric" {
		t.Fatalf("character not in response: %+v", turn.Character)
	}
}

func TestChatEndpointRejectsEmptyMessage(t *testing.T) {
	server, _ := newTestServer(&stubGateway{response: "unused"})
	defer server.Close()

	resp := postJSON(t, server.URL+"/api/v1/chat", map[string]string{})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestChatEndpointReportsGenerationFailure(t *testing.T) {
	server, store := newTestServer(&stubGateway{
		err: &gateway.GenerationError{Backend: "stub", Status: 503, Detail: "unavailable"},
	})
	defer server.Close()

	sessionID, _ := store.CreateSession(context.Background())
	resp := postJSON(t, server.URL+"/api/v1/chat", map[string]string{
		"session_id": sessionID,
		"message":    "Hello?",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}

	// The inbound message survives the failed turn
	messages, _ := store.GetMessages(context.Background(), sessionID, 10)
	if len(messages) != 1 || messages[0].Content != "Hello?" {
		t.Fatalf("user message lost on failure: %+v", messages)
	}
}

func TestGetCharacterNotFoundCases(t *testing.T) {
	server, store := newTestServer(&stubGateway{response: "unused"})
	defer server.Close()

	// Unknown session
	resp, err := http.Get(server.URL + "/api/v1/session/unknown/character")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", resp.StatusCode)
	}

	// Known session, no character yet
	sessionID, _ := store.CreateSession(context.Background())
	resp, err = http.Get(server.URL + "/api/v1/session/" + sessionID + "/character")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing character, got %d", resp.StatusCode)
	}

	// Character present
	_, _ = store.SaveCharacter(context.Background(), sessionID, map[string]interface{}{"name": "Elric"})
	resp, err = http.Get(server.URL + "/api/v1/session/" + sessionID + "/character")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var sheet interfaces.CharacterSheet
	decodeBody(t, resp, &sheet)
	if sheet.Name != "Elric" {
		t.Fatalf("unexpected character: %+v", sheet)
	}
}

func TestGetWorldSnapshot(t *testing.T) {
	server, store := newTestServer(&stubGateway{response: "unused"})
	defer server.Close()

	sessionID, _ := store.CreateSession(context.Background())
	_, _ = store.UpsertLocation(context.Background(), sessionID, map[string]interface{}{"name": "Dockside"})
	_, _ = store.UpsertNPC(context.Background(), sessionID, map[string]interface{}{"name": "Grim"})
	_, _ = store.UpsertQuest(context.Background(), sessionID, map[string]interface{}{"title": "Find the Amulet"})

	resp, err := http.Get(server.URL + "/api/v1/session/" + sessionID + "/world")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var snapshot WorldSnapshot
	decodeBody(t, resp, &snapshot)
	if len(snapshot.Locations) != 1 || len(snapshot.NPCs) != 1 || len(snapshot.Quests) != 1 {
		t.Fatalf("incomplete snapshot: %+v", snapshot)
	}
}

func TestGetBackends(t *testing.T) {
	server, _ := newTestServer(&stubGateway{response: "unused"})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/backends")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Backends []interfaces.BackendInfo `json:"backends"`
	}
	decodeBody(t, resp, &body)
	if len(body.Backends) != 1 || body.Backends[0].ID != "stub" {
		t.Fatalf("unexpected backends: %+v", body.Backends)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(&stubGateway{response: "unused"})
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
