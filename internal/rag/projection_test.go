package rag

import (
	"strings"
	"testing"
)

func TestCharacterProjectionDeterministic(t *testing.T) {
	data := map[string]interface{}{
		"name":      "Elric",
		"race":      "Human",
		"class":     "Ranger",
		"hp":        12,
		"strength":  14,
		"inventory": []string{"longbow", "rope"},
	}

	first := CharacterProjection(data)
	for i := 0; i < 5; i++ {
		if CharacterProjection(data) != first {
			t.Fatalf("projection not stable on run %d", i)
		}
	}
	if !strings.HasPrefix(first, "Character Elric: a Human Ranger.") {
		t.Fatalf("unexpected prefix: %q", first)
	}
	if !strings.Contains(first, "Inventory: longbow, rope") {
		t.Fatalf("inventory missing: %q", first)
	}
}

func TestCharacterProjectionDefaults(t *testing.T) {
	out := CharacterProjection(map[string]interface{}{"name": "Grim"})
	if !strings.Contains(out, "unknown race") || !strings.Contains(out, "adventurer") {
		t.Fatalf("defaults not applied: %q", out)
	}
}

func TestNPCProjection(t *testing.T) {
	out := NPCProjection(map[string]interface{}{
		"name":        "Grim",
		"description": "A scarred old soldier.",
		"role":        "innkeeper",
		"location":    "Dockside",
	})
	for _, want := range []string{"NPC Grim:", "A scarred old soldier.", "Role: innkeeper.", "Found in Dockside."} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}
}

func TestQuestProjection(t *testing.T) {
	out := QuestProjection(map[string]interface{}{
		"title":       "Find the Amulet",
		"description": "Lost in the crypt.",
		"status":      "in_progress",
	})
	if !strings.HasPrefix(out, "Quest: Find the Amulet.") {
		t.Fatalf("unexpected prefix: %q", out)
	}
	if !strings.Contains(out, "Status: in_progress.") {
		t.Fatalf("status missing: %q", out)
	}
}

func TestConversationProjectionSpeakers(t *testing.T) {
	if out := ConversationProjection("user", "I open the door"); out != "Player: I open the door" {
		t.Fatalf("unexpected user projection: %q", out)
	}
	if out := ConversationProjection("assistant", "It creaks."); out != "Game Master: It creaks." {
		t.Fatalf("unexpected assistant projection: %q", out)
	}
}
