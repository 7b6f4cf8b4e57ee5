package storage

import (
	"context"
	"fmt"
	"testing"

	"Loremaster/server/internal/interfaces"
)

func TestSessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	id, err := store.CreateSession(ctx)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	phase, err := store.GetPhase(ctx, id)
	if err != nil || phase != interfaces.PhaseCharacterCreation {
		t.Fatalf("new session phase %q, err %v", phase, err)
	}

	if err := store.SetPhase(ctx, id, interfaces.PhaseAdventure); err != nil {
		t.Fatalf("set phase: %v", err)
	}
	phase, _ = store.GetPhase(ctx, id)
	if phase != interfaces.PhaseAdventure {
		t.Fatalf("phase not updated: %s", phase)
	}

	if phase, _ := store.GetPhase(ctx, "missing"); phase != "" {
		t.Fatalf("unknown session should yield empty phase, got %q", phase)
	}
	if exists, _ := store.SessionExists(ctx, "missing"); exists {
		t.Fatalf("unknown session reported as existing")
	}
}

func TestSaveCharacterMergesFields(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.CreateSession(ctx)

	if _, err := store.SaveCharacter(ctx, id, map[string]interface{}{
		"name": "Elric", "race": "Human",
	}); err != nil {
		t.Fatalf("save character: %v", err)
	}
	if _, err := store.SaveCharacter(ctx, id, map[string]interface{}{
		"class": "Ranger", "hp": 12, "inventory": []interface{}{"longbow"},
	}); err != nil {
		t.Fatalf("save character: %v", err)
	}

	sheet, err := store.GetCharacter(ctx, id)
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if sheet.Name != "Elric" || sheet.Race != "Human" || sheet.Class != "Ranger" {
		t.Fatalf("merge lost fields: %+v", sheet)
	}
	if sheet.Stats["hp"] != float64(12) {
		t.Fatalf("stat not stored: %v", sheet.Stats)
	}
	if len(sheet.Inventory) != 1 || sheet.Inventory[0] != "longbow" {
		t.Fatalf("inventory wrong: %v", sheet.Inventory)
	}
}

func TestGetCharacterNilWhenAbsent(t *testing.T) {
	store := NewMemoryStore()
	id, _ := store.CreateSession(context.Background())

	sheet, err := store.GetCharacter(context.Background(), id)
	if err != nil {
		t.Fatalf("get character: %v", err)
	}
	if sheet != nil {
		t.Fatalf("expected nil sheet, got %+v", sheet)
	}
}

func TestUpsertLocationByName(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.CreateSession(ctx)

	firstID, _ := store.UpsertLocation(ctx, id, map[string]interface{}{
		"name": "Dockside", "type": "district", "description": "old",
	})
	secondID, _ := store.UpsertLocation(ctx, id, map[string]interface{}{
		"name": "Dockside", "type": "district", "description": "new",
	})
	if firstID != secondID {
		t.Fatalf("same-name upsert created a new record")
	}

	locations, _ := store.GetLocations(ctx, id)
	if len(locations) != 1 || locations[0].Description != "new" {
		t.Fatalf("unexpected locations: %+v", locations)
	}
}

func TestUpsertNPCResolvesLocation(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.CreateSession(ctx)

	_, _ = store.UpsertLocation(ctx, id, map[string]interface{}{"name": "Dockside"})
	_, _ = store.UpsertNPC(ctx, id, map[string]interface{}{
		"name": "Grim", "role": "innkeeper", "location": "Dockside",
	})

	npcs, _ := store.GetNPCs(ctx, id)
	if len(npcs) != 1 || npcs[0].Location != "Dockside" {
		t.Fatalf("location not resolved: %+v", npcs)
	}

	// Unknown location names are dropped, not stored dangling
	_, _ = store.UpsertNPC(ctx, id, map[string]interface{}{
		"name": "Vess", "location": "Nowhere",
	})
	npcs, _ = store.GetNPCs(ctx, id)
	if npcs[1].Location != "" {
		t.Fatalf("dangling location reference: %+v", npcs[1])
	}
}

func TestQuestStatusNormalized(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.CreateSession(ctx)

	_, _ = store.UpsertQuest(ctx, id, map[string]interface{}{
		"title": "Find the Amulet", "status": "definitely-not-a-status",
	})
	quests, _ := store.GetQuests(ctx, id, "")
	if len(quests) != 1 || quests[0].Status != interfaces.QuestNotStarted {
		t.Fatalf("status not normalized: %+v", quests)
	}

	_, _ = store.UpsertQuest(ctx, id, map[string]interface{}{
		"title": "Find the Amulet", "status": interfaces.QuestCompleted,
	})
	quests, _ = store.GetQuests(ctx, id, interfaces.QuestCompleted)
	if len(quests) != 1 {
		t.Fatalf("status filter failed: %+v", quests)
	}
}

func TestCombatStateReplace(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.CreateSession(ctx)

	state, _ := store.GetCombatState(ctx, id)
	if state == nil || state.IsInCombat {
		t.Fatalf("fresh session should have zero combat state: %+v", state)
	}

	_, _ = store.SaveCombatState(ctx, id, interfaces.CombatInfo{
		IsInCombat: true,
		Round:      2,
		InitiativeOrder: []interfaces.Combatant{
			{Name: "Elric", Initiative: 17, IsPlayer: true},
		},
	})
	_, _ = store.SaveCombatState(ctx, id, interfaces.CombatInfo{IsInCombat: false})

	state, _ = store.GetCombatState(ctx, id)
	if state.IsInCombat || state.Round != 0 || len(state.InitiativeOrder) != 0 {
		t.Fatalf("combat state not replaced: %+v", state)
	}
}

func TestGetMessagesReturnsMostRecentOldestFirst(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	id, _ := store.CreateSession(ctx)

	for i := 0; i < 30; i++ {
		if _, err := store.AppendMessage(ctx, id, interfaces.RoleUser, fmt.Sprintf("msg-%d", i)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	messages, err := store.GetMessages(ctx, id, 20)
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(messages) != 20 {
		t.Fatalf("expected 20 messages, got %d", len(messages))
	}
	if messages[0].Content != "msg-10" || messages[19].Content != "msg-29" {
		t.Fatalf("window wrong: first %q last %q", messages[0].Content, messages[19].Content)
	}
}

func TestSessionsDoNotShareState(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	a, _ := store.CreateSession(ctx)
	b, _ := store.CreateSession(ctx)

	_, _ = store.UpsertLocation(ctx, a, map[string]interface{}{"name": "Dockside"})

	locations, _ := store.GetLocations(ctx, b)
	if len(locations) != 0 {
		t.Fatalf("state leaked across sessions: %+v", locations)
	}
}
