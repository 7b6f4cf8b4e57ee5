package rag

import (
	"fmt"
	"sort"
	"strings"

	"Loremaster/server/internal/interfaces"
)

// Textual projections of game entities: the deterministic one-line summaries
// that get embedded and stored in the memory index. Projections must be a
// pure function of their input so re-indexing an unchanged entity produces
// the same vector.

// CharacterProjection summarizes a character update
func CharacterProjection(data map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Character %s: ", stringField(data, "name"))
	fmt.Fprintf(&b, "a %s %s. ",
		stringFieldDefault(data, "race", "unknown race"),
		stringFieldDefault(data, "class", "adventurer"))

	for _, key := range sortedKeys(data) {
		if key == "name" || key == "race" || key == "class" || key == "inventory" {
			continue
		}
		value := data[key]
		if value == nil || value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %v. ", capitalize(key), value)
	}

	if items, ok := data["inventory"].([]string); ok && len(items) > 0 {
		b.WriteString("Inventory: " + strings.Join(items, ", "))
	}
	return strings.TrimSpace(b.String())
}

// NPCProjection summarizes an NPC
func NPCProjection(data map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "NPC %s: ", stringField(data, "name"))
	if desc := stringField(data, "description"); desc != "" {
		b.WriteString(desc + " ")
	}
	if role := stringField(data, "role"); role != "" {
		fmt.Fprintf(&b, "Role: %s. ", role)
	}
	if location := stringField(data, "location"); location != "" {
		fmt.Fprintf(&b, "Found in %s. ", location)
	}
	if personality := stringField(data, "personality"); personality != "" {
		fmt.Fprintf(&b, "Personality: %s. ", personality)
	}
	return strings.TrimSpace(b.String())
}

// LocationProjection summarizes a location
func LocationProjection(data map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Location %s: ", stringField(data, "name"))
	if desc := stringField(data, "description"); desc != "" {
		b.WriteString(desc + " ")
	}
	if locType := stringField(data, "type"); locType != "" {
		fmt.Fprintf(&b, "Type: %s. ", locType)
	}
	if pois, ok := data["points_of_interest"].([]string); ok && len(pois) > 0 {
		b.WriteString("Points of interest: " + strings.Join(pois, ", "))
	}
	return strings.TrimSpace(b.String())
}

// QuestProjection summarizes a quest
func QuestProjection(data map[string]interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Quest: %s. ", stringField(data, "title"))
	if desc := stringField(data, "description"); desc != "" {
		b.WriteString(desc + " ")
	}
	if status := stringField(data, "status"); status != "" {
		fmt.Fprintf(&b, "Status: %s. ", status)
	}
	if giver := stringField(data, "giver"); giver != "" {
		fmt.Fprintf(&b, "Given by: %s. ", giver)
	}
	if location := stringField(data, "location"); location != "" {
		fmt.Fprintf(&b, "Located in: %s. ", location)
	}
	if reward := stringField(data, "reward"); reward != "" {
		fmt.Fprintf(&b, "Reward: %s. ", reward)
	}
	return strings.TrimSpace(b.String())
}

// ConversationProjection renders one history entry for indexing
func ConversationProjection(role, content string) string {
	speaker := "Game Master"
	if role == interfaces.RoleUser {
		speaker = "Player"
	}
	return speaker + ": " + content
}

func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func stringFieldDefault(data map[string]interface{}, key, fallback string) string {
	if s := stringField(data, key); s != "" {
		return s
	}
	return fallback
}

func sortedKeys(data map[string]interface{}) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
