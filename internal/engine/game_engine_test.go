package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/storage"
)

// scriptedGateway returns queued responses in order, or an error when the
// script is exhausted.
type scriptedGateway struct {
	responses []string
	calls     int
	lastPrompt string
	failWith  error
}

func (g *scriptedGateway) Generate(ctx context.Context, prompt, backendID string) (string, error) {
	g.lastPrompt = prompt
	if g.failWith != nil {
		return "", g.failWith
	}
	if g.calls >= len(g.responses) {
		return "", fmt.Errorf("no scripted response for call %d", g.calls)
	}
	resp := g.responses[g.calls]
	g.calls++
	return resp, nil
}

func (g *scriptedGateway) Backends() []interfaces.BackendInfo {
	return []interfaces.BackendInfo{{ID: "scripted", Model: "test"}}
}

func newTestEngine(responses ...string) (*GameEngine, *storage.MemoryStore, *scriptedGateway) {
	store := storage.NewMemoryStore()
	gw := &scriptedGateway{responses: responses}
	eng := NewGameEngine(store, nil, gw, nil, Options{})
	return eng, store, gw
}

func TestProcessTurnCreatesSessionWhenMissing(t *testing.T) {
	eng, store, _ := newTestEngine("Welcome, traveler. What is your name?")

	turn, err := eng.ProcessTurn(context.Background(), "", "Hello", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.SessionID == "" {
		t.Fatalf("no session id assigned")
	}
	if turn.Phase != interfaces.PhaseCharacterCreation {
		t.Fatalf("expected character_creation, got %s", turn.Phase)
	}

	exists, _ := store.SessionExists(context.Background(), turn.SessionID)
	if !exists {
		t.Fatalf("session not persisted")
	}
}

func TestProcessTurnPersistsExchange(t *testing.T) {
	eng, store, _ := newTestEngine("The tavern is warm and loud.")

	turn, err := eng.ProcessTurn(context.Background(), "", "I enter the tavern", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}

	messages, _ := store.GetMessages(context.Background(), turn.SessionID, 10)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != interfaces.RoleUser || messages[0].Content != "I enter the tavern" {
		t.Fatalf("user message wrong: %+v", messages[0])
	}
	if messages[1].Role != interfaces.RoleAssistant {
		t.Fatalf("assistant message wrong: %+v", messages[1])
	}
}

func TestProcessTurnGenerationFailureKeepsUserMessage(t *testing.T) {
	eng, store, gw := newTestEngine()
	gw.failWith = fmt.Errorf("backend unreachable")

	sessionID, _ := store.CreateSession(context.Background())
	_, err := eng.ProcessTurn(context.Background(), sessionID, "Hello?", "")
	if err == nil {
		t.Fatalf("expected generation failure")
	}

	messages, _ := store.GetMessages(context.Background(), sessionID, 10)
	if len(messages) != 1 || messages[0].Role != interfaces.RoleUser {
		t.Fatalf("user message not durably recorded: %+v", messages)
	}
}

func TestProcessTurnExecutesDirectivesAndStripsSpans(t *testing.T) {
	eng, store, _ := newTestEngine(
		"A quest! ```function update_quest({\"title\":\"Find the Amulet\",\"status\":\"in_progress\"})``` Off you go.")

	turn, err := eng.ProcessTurn(context.Background(), "", "What now?", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if strings.Contains(turn.Response, "function") || strings.Contains(turn.Response, "Amulet") {
		t.Fatalf("directive span leaked into response: %q", turn.Response)
	}
	if len(turn.Results) != 1 || !turn.Results[0].Success || turn.Results[0].Key != "Find the Amulet" {
		t.Fatalf("unexpected directive results: %+v", turn.Results)
	}

	quests, _ := store.GetQuests(context.Background(), turn.SessionID, "")
	if len(quests) != 1 {
		t.Fatalf("quest not persisted")
	}
}

func TestCombatDirectiveDrivesPhase(t *testing.T) {
	eng, store, _ := newTestEngine(
		"Steel rings out! ```function update_combat_state({\"is_in_combat\": true, \"round\": 1})```",
		"Victory. ```function update_combat_state({\"is_in_combat\": false})```",
	)

	sessionID, _ := store.CreateSession(context.Background())
	_ = store.SetPhase(context.Background(), sessionID, interfaces.PhaseAdventure)

	turn, err := eng.ProcessTurn(context.Background(), sessionID, "I draw my sword", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Phase != interfaces.PhaseCombat {
		t.Fatalf("expected combat phase, got %s", turn.Phase)
	}

	turn, err = eng.ProcessTurn(context.Background(), sessionID, "I finish it", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Phase != interfaces.PhaseAdventure {
		t.Fatalf("expected adventure phase after combat end, got %s", turn.Phase)
	}

	phase, _ := store.GetPhase(context.Background(), sessionID)
	if phase != interfaces.PhaseAdventure {
		t.Fatalf("phase not persisted, got %s", phase)
	}
}

func TestAdventureStartsByDirective(t *testing.T) {
	eng, store, _ := newTestEngine(
		"Your story begins. ```function start_adventure({})```")

	sessionID, _ := store.CreateSession(context.Background())
	turn, err := eng.ProcessTurn(context.Background(), sessionID, "I'm ready", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Phase != interfaces.PhaseAdventure {
		t.Fatalf("expected adventure phase, got %s", turn.Phase)
	}
}

func TestAdventureStartsByPhraseOnlyWithNamedCharacter(t *testing.T) {
	eng, store, _ := newTestEngine(
		"Excellent. Your adventure begins now!",
		"Excellent. Your adventure begins now!",
	)

	// Without a named character the phrase alone must not transition.
	sessionID, _ := store.CreateSession(context.Background())
	turn, err := eng.ProcessTurn(context.Background(), sessionID, "Let's go", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Phase != interfaces.PhaseCharacterCreation {
		t.Fatalf("transitioned without a character name, phase %s", turn.Phase)
	}

	// With one, it does.
	sessionID, _ = store.CreateSession(context.Background())
	_, _ = store.SaveCharacter(context.Background(), sessionID, map[string]interface{}{"name": "Elric"})
	turn, err = eng.ProcessTurn(context.Background(), sessionID, "Let's go", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if turn.Phase != interfaces.PhaseAdventure {
		t.Fatalf("expected adventure phase, got %s", turn.Phase)
	}
}

func TestGuardAppliedToResponse(t *testing.T) {
	eng, _, _ := newTestEngine("You see a troll.\nPlayer: I run away\nThe troll laughs.")

	turn, err := eng.ProcessTurn(context.Background(), "", "I look around", "")
	if err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if strings.Contains(turn.Response, "I run away") {
		t.Fatalf("impersonated player speech leaked: %q", turn.Response)
	}
}

func TestPromptContainsPriorHistory(t *testing.T) {
	eng, store, gw := newTestEngine("First reply.", "Second reply.")

	sessionID, _ := store.CreateSession(context.Background())
	if _, err := eng.ProcessTurn(context.Background(), sessionID, "first message", ""); err != nil {
		t.Fatalf("process turn: %v", err)
	}
	if _, err := eng.ProcessTurn(context.Background(), sessionID, "second message", ""); err != nil {
		t.Fatalf("process turn: %v", err)
	}

	if !strings.Contains(gw.lastPrompt, "Player: first message") {
		t.Fatalf("prior user message missing from prompt")
	}
	if !strings.Contains(gw.lastPrompt, "Game Master: First reply.") {
		t.Fatalf("prior response missing from prompt")
	}
	if !strings.HasSuffix(gw.lastPrompt, "Player: second message\nGame Master:") {
		t.Fatalf("current message cue missing from prompt tail")
	}
}
