package prompts

import (
	"fmt"
	"sort"
	"strings"

	"Loremaster/server/internal/interfaces"
)

const (
	maxLocations      = 5
	maxNPCs           = 5
	maxOpenQuests     = 3
	descriptionCutoff = 100
)

// RetrievedContext is the similarity-search output injected into the
// prompt. Entries are the structured payloads stored in the memory index.
type RetrievedContext struct {
	Characters    []map[string]interface{}
	NPCs          []map[string]interface{}
	Locations     []map[string]interface{}
	Quests        []map[string]interface{}
	Conversations []map[string]interface{}
}

func (r *RetrievedContext) empty() bool {
	return r == nil || (len(r.Characters) == 0 && len(r.NPCs) == 0 &&
		len(r.Locations) == 0 && len(r.Quests) == 0 && len(r.Conversations) == 0)
}

// TurnInput carries everything the composer needs for one turn. Composition
// is pure string assembly: identical inputs always yield byte-identical
// output.
type TurnInput struct {
	Phase       interfaces.Phase
	Retrieved   *RetrievedContext
	Character   *interfaces.CharacterSheet
	Locations   []interfaces.LocationInfo
	NPCs        []interfaces.NPCInfo
	Quests      []interfaces.QuestInfo
	Combat      *interfaces.CombatInfo
	History     []interfaces.ChatMessage
	UserMessage string
}

// ComposeTurnPrompt renders the full prompt for one model call: phase
// template, retrieved context, game-state snapshot, history and the
// current player message with a generation cue.
func ComposeTurnPrompt(in TurnInput) string {
	var b strings.Builder

	b.WriteString(SystemPrompt(in.Phase))
	b.WriteString("\n")

	if !in.Retrieved.empty() {
		writeRetrievedContext(&b, in.Retrieved)
	}
	writeCharacterSummary(&b, in.Character)
	writeWorldSummary(&b, in.Locations, in.NPCs, in.Quests)
	writeCombatSummary(&b, in.Combat)
	writeHistory(&b, in.History)

	fmt.Fprintf(&b, "Player: %s\n", in.UserMessage)
	b.WriteString("Game Master:")

	return b.String()
}

func writeRetrievedContext(b *strings.Builder, r *RetrievedContext) {
	b.WriteString("\n## Recent Context Information\n\n")

	if len(r.Characters) > 0 {
		character := r.Characters[0]
		b.WriteString("### Character Information\n")
		fmt.Fprintf(b, "Name: %s\n", payloadString(character, "name", "Unknown"))
		fmt.Fprintf(b, "Race: %s\n", payloadString(character, "race", "Unknown"))
		fmt.Fprintf(b, "Class: %s\n", payloadString(character, "class", "Unknown"))
		if background := payloadString(character, "background", ""); background != "" {
			fmt.Fprintf(b, "Background: %s\n", background)
		}
	}

	if len(r.NPCs) > 0 {
		b.WriteString("\n### Relevant NPCs\n")
		for _, npc := range r.NPCs {
			fmt.Fprintf(b, "- %s: %s", payloadString(npc, "name", "Unknown"), payloadString(npc, "description", ""))
			if role := payloadString(npc, "role", ""); role != "" {
				fmt.Fprintf(b, " (%s)", role)
			}
			b.WriteString("\n")
		}
	}

	if len(r.Locations) > 0 {
		b.WriteString("\n### Relevant Locations\n")
		for _, location := range r.Locations {
			fmt.Fprintf(b, "- %s: %s\n",
				payloadString(location, "name", "Unknown"),
				payloadString(location, "description", ""))
		}
	}

	if len(r.Quests) > 0 {
		b.WriteString("\n### Relevant Quests\n")
		for _, quest := range r.Quests {
			fmt.Fprintf(b, "- %s: %s Status: %s\n",
				payloadString(quest, "title", "Unknown"),
				payloadString(quest, "description", ""),
				payloadString(quest, "status", "unknown"))
		}
	}

	if len(r.Conversations) > 0 {
		b.WriteString("\n### Recent Relevant Conversation\n")
		for _, conv := range r.Conversations {
			content := payloadString(conv, "content", "")
			if content == "" {
				continue
			}
			speaker := "Game Master"
			if payloadString(conv, "role", "") == interfaces.RoleUser {
				speaker = "Player"
			}
			fmt.Fprintf(b, "%s: %s\n", speaker, content)
		}
	}

	b.WriteString("\n")
}

func writeCharacterSummary(b *strings.Builder, sheet *interfaces.CharacterSheet) {
	if sheet == nil || sheet.Name == "" {
		return
	}

	b.WriteString("\n## Character\n")
	fmt.Fprintf(b, "Name: %s\n", sheet.Name)
	if sheet.Race != "" {
		fmt.Fprintf(b, "Race: %s\n", sheet.Race)
	}
	if sheet.Class != "" {
		fmt.Fprintf(b, "Class: %s\n", sheet.Class)
	}
	if sheet.Background != "" {
		fmt.Fprintf(b, "Background: %s\n", sheet.Background)
	}

	keys := make([]string, 0, len(sheet.Stats))
	for key := range sheet.Stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		value := sheet.Stats[key]
		if value == nil || value == "" {
			continue
		}
		fmt.Fprintf(b, "%s: %s\n", key, formatStat(value))
	}

	if len(sheet.Inventory) > 0 {
		b.WriteString("Inventory:\n")
		for _, item := range sheet.Inventory {
			fmt.Fprintf(b, "- %s\n", item)
		}
	}
}

func writeWorldSummary(b *strings.Builder, locations []interfaces.LocationInfo, npcs []interfaces.NPCInfo, quests []interfaces.QuestInfo) {
	openQuests := make([]interfaces.QuestInfo, 0, len(quests))
	for _, quest := range quests {
		if quest.Status == interfaces.QuestNotStarted || quest.Status == interfaces.QuestInProgress {
			openQuests = append(openQuests, quest)
		}
	}

	if len(locations) == 0 && len(npcs) == 0 && len(openQuests) == 0 {
		return
	}

	b.WriteString("\n## World\n")

	if len(locations) > 0 {
		b.WriteString("Locations:\n")
		for i, location := range locations {
			if i == maxLocations {
				break
			}
			fmt.Fprintf(b, "- %s (%s): %s\n", location.Name, location.Type, truncate(location.Description, descriptionCutoff))
		}
	}

	if len(npcs) > 0 {
		b.WriteString("NPCs:\n")
		for i, npc := range npcs {
			if i == maxNPCs {
				break
			}
			fmt.Fprintf(b, "- %s (%s): %s\n", npc.Name, npc.Role, truncate(npc.Description, descriptionCutoff))
		}
	}

	if len(openQuests) > 0 {
		b.WriteString("Quests:\n")
		for i, quest := range openQuests {
			if i == maxOpenQuests {
				break
			}
			fmt.Fprintf(b, "- %s [%s]: %s\n", quest.Title, quest.Status, truncate(quest.Description, descriptionCutoff))
		}
	}
}

func writeCombatSummary(b *strings.Builder, combat *interfaces.CombatInfo) {
	if combat == nil || !combat.IsInCombat {
		return
	}

	b.WriteString("\n## Combat\n")
	fmt.Fprintf(b, "Round: %d\n", combat.Round)
	if combat.CurrentCombatant != "" {
		fmt.Fprintf(b, "Current turn: %s\n", combat.CurrentCombatant)
	}
	if len(combat.InitiativeOrder) > 0 {
		b.WriteString("Initiative order:\n")
		for _, combatant := range combat.InitiativeOrder {
			fmt.Fprintf(b, "%s: %d\n", combatant.Name, combatant.Initiative)
		}
	}
}

func writeHistory(b *strings.Builder, history []interfaces.ChatMessage) {
	if len(history) == 0 {
		b.WriteString("\n")
		return
	}

	b.WriteString("\n")
	for _, msg := range history {
		speaker := "Game Master"
		if msg.Role == interfaces.RoleUser {
			speaker = "Player"
		}
		fmt.Fprintf(b, "%s: %s\n", speaker, msg.Content)
	}
}

// truncate applies a hard character-count cutoff, not word-aware
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func formatStat(v interface{}) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	if items, ok := v.([]string); ok {
		return strings.Join(items, ", ")
	}
	return fmt.Sprint(v)
}

func payloadString(payload map[string]interface{}, key, fallback string) string {
	if v, ok := payload[key]; ok && v != nil {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
		if s := fmt.Sprint(v); s != "" && s != "<nil>" {
			return s
		}
	}
	return fallback
}
