package interfaces

import "fmt"

// Phase represents the game state machine's current state
type Phase string

const (
	PhaseCharacterCreation Phase = "character_creation" // initial state
	PhaseAdventure         Phase = "adventure"          // free exploration
	PhaseCombat            Phase = "combat"             // initiative-ordered combat
)

// Quest status values
const (
	QuestNotStarted = "not_started"
	QuestInProgress = "in_progress"
	QuestCompleted  = "completed"
	QuestFailed     = "failed"
)

// DetailMap holds the open-ended extension fields of an entity. Values are
// restricted to a small closed union: string, float64, bool or []string.
// Anything else is coerced at the store boundary via NormalizeDetails.
type DetailMap map[string]interface{}

// NormalizeDetails coerces arbitrary decoded JSON values into the DetailMap
// union. Numbers become float64, homogeneous string lists stay lists, and
// every other shape is flattened to its string form.
func NormalizeDetails(raw map[string]interface{}) DetailMap {
	if raw == nil {
		return nil
	}
	out := make(DetailMap, len(raw))
	for k, v := range raw {
		out[k] = normalizeDetailValue(v)
	}
	return out
}

func normalizeDetailValue(v interface{}) interface{} {
	switch val := v.(type) {
	case string, bool, float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case []string:
		return val
	case []interface{}:
		items := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				items = append(items, s)
			} else {
				items = append(items, fmt.Sprint(item))
			}
		}
		return items
	case nil:
		return ""
	default:
		return fmt.Sprint(val)
	}
}

// CharacterSheet is the player character for a session
type CharacterSheet struct {
	Name       string    `json:"name"`
	Race       string    `json:"race"`
	Class      string    `json:"class"`
	Background string    `json:"background"`
	Stats      DetailMap `json:"stats"`     // ability scores, hp, level, ...
	Inventory  []string  `json:"inventory"` // ordered item names
}

// LocationInfo describes a world location
type LocationInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        string    `json:"type"`
	Details     DetailMap `json:"details,omitempty"`
}

// NPCInfo describes a non-player character
type NPCInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Role        string    `json:"role"`
	Location    string    `json:"location,omitempty"` // resolved location name
	Details     DetailMap `json:"details,omitempty"`
}

// QuestInfo describes a quest, upserted by title within a session
type QuestInfo struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Details     DetailMap `json:"details,omitempty"`
}

// Combatant is one entry in the initiative order
type Combatant struct {
	Name       string `json:"name"`
	Initiative int    `json:"initiative"`
	IsPlayer   bool   `json:"is_player"`
}

// CombatInfo is the combat state for a session, replace-style upsert
type CombatInfo struct {
	IsInCombat       bool        `json:"is_in_combat"`
	InitiativeOrder  []Combatant `json:"initiative_order"`
	CurrentCombatant string      `json:"current_combatant"`
	Round            int         `json:"round"`
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry of the immutable conversation history
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
