package models

import "time"

// Session represents one player's game instance and is the tenancy
// boundary for every other entity.
type Session struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Phase      string    `gorm:"size:32;default:character_creation" json:"phase"`
	CreatedAt  time.Time `json:"created_at"`
	LastActive time.Time `json:"last_active"`
}

// Character is the player character, at most one per session
type Character struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID  string    `gorm:"uniqueIndex;size:64" json:"session_id"`
	Name       string    `gorm:"size:255" json:"name"`
	Race       string    `gorm:"size:128" json:"race"`
	Class      string    `gorm:"size:128" json:"class"`
	Background string    `gorm:"type:text" json:"background"`
	Stats      string    `gorm:"type:text" json:"-"` // JSON DetailMap
	Inventory  string    `gorm:"type:text" json:"-"` // JSON []string
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Location is a world location, upserted by name within a session
type Location struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID   string    `gorm:"index;size:64" json:"session_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Type        string    `gorm:"size:64" json:"type"`
	Details     string    `gorm:"type:text" json:"-"` // JSON DetailMap
	CreatedAt   time.Time `json:"created_at"`
}

// NPC is a non-player character, upserted by name within a session
type NPC struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID   string    `gorm:"index;size:64" json:"session_id"`
	Name        string    `gorm:"size:255" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Role        string    `gorm:"size:128" json:"role"`
	Details     string    `gorm:"type:text" json:"-"`  // JSON DetailMap
	LocationID  string    `gorm:"size:64" json:"-"` // resolved from a location name at write time
	CreatedAt   time.Time `json:"created_at"`
}

// Quest is upserted by (session, title)
type Quest struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID   string    `gorm:"index;size:64" json:"session_id"`
	Title       string    `gorm:"size:255" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Status      string    `gorm:"size:32" json:"status"`
	Details     string    `gorm:"type:text" json:"-"` // JSON DetailMap
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CombatState holds the session's combat tracker, replace-style upsert
type CombatState struct {
	ID               string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID        string    `gorm:"uniqueIndex;size:64" json:"session_id"`
	IsInCombat       bool      `json:"is_in_combat"`
	InitiativeOrder  string    `gorm:"type:text" json:"-"` // JSON []Combatant
	CurrentCombatant string    `gorm:"size:255" json:"current_combatant"`
	Round            int       `json:"round"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Message is one immutable entry of the conversation history
type Message struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	SessionID string    `gorm:"index;size:64" json:"session_id"`
	Role      string    `gorm:"size:16" json:"role"` // "user" or "assistant"
	Content   string    `gorm:"type:text" json:"content"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}
