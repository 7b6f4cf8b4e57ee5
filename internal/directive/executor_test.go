package directive

import (
	"context"
	"testing"

	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/storage"
)

func newTestSession(t *testing.T, store *storage.MemoryStore) string {
	t.Helper()
	id, err := store.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return id
}

func TestExecuteCharacterUpsertMerges(t *testing.T) {
	store := storage.NewMemoryStore()
	exec := NewExecutor(store, nil)
	ctx := context.Background()
	sessionID := newTestSession(t, store)

	first := Parse("```function update_character({\"name\":\"Elric\",\"race\":\"Human\"})```")
	out := exec.Execute(ctx, sessionID, first)
	if len(out.Results) != 1 || !out.Results[0].Success {
		t.Fatalf("first update failed: %+v", out.Results)
	}

	second := Parse("```function update_character({\"class\":\"Ranger\",\"hp\":12})```")
	exec.Execute(ctx, sessionID, second)

	sheet, err := store.GetCharacter(ctx, sessionID)
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if sheet.Name != "Elric" || sheet.Race != "Human" {
		t.Fatalf("earlier fields lost on merge: %+v", sheet)
	}
	if sheet.Class != "Ranger" {
		t.Fatalf("new field not applied: %+v", sheet)
	}
	if sheet.Stats["hp"] != float64(12) {
		t.Fatalf("extension field not stored: %v", sheet.Stats)
	}
}

func TestExecuteUnknownDirectiveDoesNotStopOthers(t *testing.T) {
	store := storage.NewMemoryStore()
	exec := NewExecutor(store, nil)
	ctx := context.Background()
	sessionID := newTestSession(t, store)

	calls := Parse("```function teleport_player({\"to\":\"moon\"})``` ```function add_npc({\"name\":\"Grim\"})```")
	out := exec.Execute(ctx, sessionID, calls)

	if len(out.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(out.Results))
	}
	if out.Results[0].Success {
		t.Fatalf("unknown directive reported success")
	}
	if out.Results[0].Error == "" || out.Results[0].Directive != "teleport_player" {
		t.Fatalf("unknown directive not tagged: %+v", out.Results[0])
	}
	if !out.Results[1].Success || out.Results[1].Key != "Grim" {
		t.Fatalf("later directive did not run: %+v", out.Results[1])
	}
}

func TestExecuteCombatStateSetsFlag(t *testing.T) {
	store := storage.NewMemoryStore()
	exec := NewExecutor(store, nil)
	ctx := context.Background()
	sessionID := newTestSession(t, store)

	calls := Parse(`function update_combat_state({"is_in_combat": true, "round": 1, "current_combatant": "Elric", "initiative_order": [{"name": "Elric", "initiative": 17, "is_player": true}, {"name": "Goblin", "initiative": 9}]})`)
	out := exec.Execute(ctx, sessionID, calls)
	if out.CombatSet == nil || !*out.CombatSet {
		t.Fatalf("combat flag not set: %+v", out)
	}

	state, err := store.GetCombatState(ctx, sessionID)
	if err != nil {
		t.Fatalf("get combat state: %v", err)
	}
	if !state.IsInCombat || state.Round != 1 {
		t.Fatalf("combat state not persisted: %+v", state)
	}
	if len(state.InitiativeOrder) != 2 || state.InitiativeOrder[0].Name != "Elric" {
		t.Fatalf("initiative order lost: %+v", state.InitiativeOrder)
	}

	end := Parse(`function update_combat_state({"is_in_combat": false})`)
	out = exec.Execute(ctx, sessionID, end)
	if out.CombatSet == nil || *out.CombatSet {
		t.Fatalf("combat end flag not set: %+v", out)
	}
}

func TestExecuteStartAdventure(t *testing.T) {
	store := storage.NewMemoryStore()
	exec := NewExecutor(store, nil)
	sessionID := newTestSession(t, store)

	out := exec.Execute(context.Background(), sessionID, Parse("```function start_adventure({})```"))
	if !out.AdventureStarted {
		t.Fatalf("adventure start not flagged: %+v", out)
	}
}

func TestExecuteQuestRoundTrip(t *testing.T) {
	store := storage.NewMemoryStore()
	exec := NewExecutor(store, nil)
	ctx := context.Background()
	sessionID := newTestSession(t, store)

	calls := Parse("```function update_quest({\"title\":\"Find the Amulet\",\"description\":\"Lost in the crypt\",\"status\":\"in_progress\"})```")
	out := exec.Execute(ctx, sessionID, calls)
	if len(out.Results) != 1 || !out.Results[0].Success || out.Results[0].Key != "Find the Amulet" {
		t.Fatalf("quest directive failed: %+v", out.Results)
	}

	quests, err := store.GetQuests(ctx, sessionID, interfaces.QuestInProgress)
	if err != nil {
		t.Fatalf("get quests: %v", err)
	}
	if len(quests) != 1 || quests[0].Title != "Find the Amulet" {
		t.Fatalf("quest not stored: %+v", quests)
	}
}

func TestExecuteLocationRequiresName(t *testing.T) {
	store := storage.NewMemoryStore()
	exec := NewExecutor(store, nil)
	sessionID := newTestSession(t, store)

	out := exec.Execute(context.Background(), sessionID, Parse("```function add_world_location({\"description\":\"nameless\"})```"))
	if len(out.Results) != 1 || out.Results[0].Success {
		t.Fatalf("expected failure for nameless location: %+v", out.Results)
	}
}
