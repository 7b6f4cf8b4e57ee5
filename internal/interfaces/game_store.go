package interfaces

import "context"

// GameStore defines the durable per-session game state contract. Every
// operation is scoped by session id; reads for an unknown session return
// empty values, never an error. All writes are read-after-write consistent
// within a session.
type GameStore interface {
	// CreateSession creates a new session in the character_creation phase
	CreateSession(ctx context.Context) (string, error)

	// GetPhase returns the session's phase, or "" for an unknown session
	GetPhase(ctx context.Context, sessionID string) (Phase, error)

	// SetPhase persists a phase transition
	SetPhase(ctx context.Context, sessionID string, phase Phase) error

	// TouchSession updates the session's last-active timestamp
	TouchSession(ctx context.Context, sessionID string) error

	// SessionExists reports whether the session has been created
	SessionExists(ctx context.Context, sessionID string) (bool, error)

	// SaveCharacter merges the given fields into the session's character,
	// creating it on first write. Fields absent from data are preserved.
	SaveCharacter(ctx context.Context, sessionID string, data map[string]interface{}) (string, error)

	// GetCharacter returns the session's character, or nil if none exists
	GetCharacter(ctx context.Context, sessionID string) (*CharacterSheet, error)

	// UpsertLocation creates or updates a location keyed by name
	UpsertLocation(ctx context.Context, sessionID string, data map[string]interface{}) (string, error)

	// GetLocations lists locations in creation order
	GetLocations(ctx context.Context, sessionID string) ([]LocationInfo, error)

	// UpsertNPC creates or updates an NPC keyed by name; a "location" field
	// is resolved to a stored location by name at write time
	UpsertNPC(ctx context.Context, sessionID string, data map[string]interface{}) (string, error)

	// GetNPCs lists NPCs in creation order
	GetNPCs(ctx context.Context, sessionID string) ([]NPCInfo, error)

	// UpsertQuest creates or updates a quest keyed by title
	UpsertQuest(ctx context.Context, sessionID string, data map[string]interface{}) (string, error)

	// GetQuests lists quests, optionally filtered by status ("" for all)
	GetQuests(ctx context.Context, sessionID string, status string) ([]QuestInfo, error)

	// SaveCombatState replaces the session's combat state
	SaveCombatState(ctx context.Context, sessionID string, state CombatInfo) (string, error)

	// GetCombatState returns the combat state; a session that has never
	// entered combat yields a zero state with IsInCombat false
	GetCombatState(ctx context.Context, sessionID string) (*CombatInfo, error)

	// AppendMessage appends one immutable message to the history
	AppendMessage(ctx context.Context, sessionID, role, content string) (string, error)

	// GetMessages returns up to limit messages, oldest first
	GetMessages(ctx context.Context, sessionID string, limit int) ([]ChatMessage, error)
}
