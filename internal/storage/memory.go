package storage

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"Loremaster/server/internal/interfaces"
)

// MemoryStore is an in-memory interfaces.GameStore with the same upsert
// semantics as MySQLStore. It backs the server when no database is
// reachable and the package tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionData
}

type sessionData struct {
	phase      interfaces.Phase
	lastActive time.Time
	character  *interfaces.CharacterSheet
	locations  []interfaces.LocationInfo
	npcs       []interfaces.NPCInfo
	quests     []interfaces.QuestInfo
	combat     *interfaces.CombatInfo
	messages   []interfaces.ChatMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*sessionData)}
}

func (s *MemoryStore) CreateSession(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.sessions[id] = &sessionData{
		phase:      interfaces.PhaseCharacterCreation,
		lastActive: time.Now(),
	}
	return id, nil
}

// session returns the per-session record, creating it implicitly for
// writes to an unknown id (the store does not enforce referential
// integrity).
func (s *MemoryStore) session(sessionID string) *sessionData {
	data, ok := s.sessions[sessionID]
	if !ok {
		data = &sessionData{phase: interfaces.PhaseCharacterCreation, lastActive: time.Now()}
		s.sessions[sessionID] = data
	}
	return data
}

func (s *MemoryStore) GetPhase(ctx context.Context, sessionID string) (interfaces.Phase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok {
		return "", nil
	}
	return data.phase, nil
}

func (s *MemoryStore) SetPhase(ctx context.Context, sessionID string, phase interfaces.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(sessionID).phase = phase
	return nil
}

func (s *MemoryStore) TouchSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session(sessionID).lastActive = time.Now()
	return nil
}

func (s *MemoryStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[sessionID]
	return ok, nil
}

func (s *MemoryStore) SaveCharacter(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.session(sessionID)
	if sess.character == nil {
		sess.character = &interfaces.CharacterSheet{Stats: interfaces.DetailMap{}}
	}
	sheet := sess.character

	for key, value := range interfaces.NormalizeDetails(data) {
		switch key {
		case "name":
			sheet.Name = asString(value)
		case "race":
			sheet.Race = asString(value)
		case "class":
			sheet.Class = asString(value)
		case "background":
			sheet.Background = asString(value)
		case "inventory":
			if items, ok := value.([]string); ok {
				sheet.Inventory = items
			}
		default:
			sheet.Stats[key] = value
		}
	}
	return sessionID + "-character", nil
}

func (s *MemoryStore) GetCharacter(ctx context.Context, sessionID string) (*interfaces.CharacterSheet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok || data.character == nil {
		return nil, nil
	}
	return copySheet(data.character), nil
}

func (s *MemoryStore) UpsertLocation(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := interfaces.NormalizeDetails(data)
	info := interfaces.LocationInfo{
		ID:          uuid.NewString(),
		Name:        asString(details["name"]),
		Description: asString(details["description"]),
		Type:        asString(details["type"]),
	}
	delete(details, "name")
	delete(details, "description")
	delete(details, "type")
	info.Details = details

	sess := s.session(sessionID)
	if info.Name != "" {
		for i := range sess.locations {
			if sess.locations[i].Name == info.Name {
				info.ID = sess.locations[i].ID
				sess.locations[i] = info
				return info.ID, nil
			}
		}
	}
	sess.locations = append(sess.locations, info)
	return info.ID, nil
}

func (s *MemoryStore) GetLocations(ctx context.Context, sessionID string) ([]interfaces.LocationInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]interfaces.LocationInfo(nil), data.locations...), nil
}

func (s *MemoryStore) UpsertNPC(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := interfaces.NormalizeDetails(data)
	info := interfaces.NPCInfo{
		ID:          uuid.NewString(),
		Name:        asString(details["name"]),
		Description: asString(details["description"]),
		Role:        asString(details["role"]),
	}

	sess := s.session(sessionID)
	if locationName := asString(details["location"]); locationName != "" {
		for _, loc := range sess.locations {
			if loc.Name == locationName {
				info.Location = loc.Name
				break
			}
		}
	}

	delete(details, "name")
	delete(details, "description")
	delete(details, "role")
	delete(details, "location")
	info.Details = details

	if info.Name != "" {
		for i := range sess.npcs {
			if sess.npcs[i].Name == info.Name {
				info.ID = sess.npcs[i].ID
				sess.npcs[i] = info
				return info.ID, nil
			}
		}
	}
	sess.npcs = append(sess.npcs, info)
	return info.ID, nil
}

func (s *MemoryStore) GetNPCs(ctx context.Context, sessionID string) ([]interfaces.NPCInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	return append([]interfaces.NPCInfo(nil), data.npcs...), nil
}

func (s *MemoryStore) UpsertQuest(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	details := interfaces.NormalizeDetails(data)
	info := interfaces.QuestInfo{
		ID:          uuid.NewString(),
		Title:       asString(details["title"]),
		Description: asString(details["description"]),
		Status:      normalizeQuestStatus(asString(details["status"])),
	}
	delete(details, "title")
	delete(details, "description")
	delete(details, "status")
	info.Details = details

	sess := s.session(sessionID)
	for i := range sess.quests {
		if sess.quests[i].Title == info.Title {
			info.ID = sess.quests[i].ID
			sess.quests[i] = info
			return info.ID, nil
		}
	}
	sess.quests = append(sess.quests, info)
	return info.ID, nil
}

func (s *MemoryStore) GetQuests(ctx context.Context, sessionID string, status string) ([]interfaces.QuestInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	out := make([]interfaces.QuestInfo, 0, len(data.quests))
	for _, quest := range data.quests {
		if status == "" || quest.Status == status {
			out = append(out, quest)
		}
	}
	return out, nil
}

func (s *MemoryStore) SaveCombatState(ctx context.Context, sessionID string, state interfaces.CombatInfo) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := state
	copied.InitiativeOrder = append([]interfaces.Combatant(nil), state.InitiativeOrder...)
	s.session(sessionID).combat = &copied
	return sessionID + "-combat", nil
}

func (s *MemoryStore) GetCombatState(ctx context.Context, sessionID string) (*interfaces.CombatInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.sessions[sessionID]
	if !ok || data.combat == nil {
		return &interfaces.CombatInfo{}, nil
	}
	copied := *data.combat
	copied.InitiativeOrder = append([]interfaces.Combatant(nil), data.combat.InitiativeOrder...)
	return &copied, nil
}

func (s *MemoryStore) AppendMessage(ctx context.Context, sessionID, role, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.session(sessionID).messages = append(s.session(sessionID).messages,
		interfaces.ChatMessage{Role: role, Content: content})
	return uuid.NewString(), nil
}

func (s *MemoryStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]interfaces.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	data, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	// Most recent messages, returned oldest first
	messages := data.messages
	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return append([]interfaces.ChatMessage(nil), messages...), nil
}

func copySheet(sheet *interfaces.CharacterSheet) *interfaces.CharacterSheet {
	copied := *sheet
	copied.Inventory = append([]string(nil), sheet.Inventory...)
	if sheet.Stats != nil {
		raw, _ := json.Marshal(sheet.Stats)
		copied.Stats = interfaces.DetailMap{}
		_ = json.Unmarshal(raw, &copied.Stats)
	}
	return &copied
}
