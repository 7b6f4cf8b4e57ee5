package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/models"
)

// MySQLStore implements interfaces.GameStore backed by GORM/MySQL
type MySQLStore struct {
	db *gorm.DB
}

func NewMySQLStore(cfg config.MySQLConfig) (*MySQLStore, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.AutoMigrate(
		&models.Session{},
		&models.Character{},
		&models.Location{},
		&models.NPC{},
		&models.Quest{},
		&models.CombatState{},
		&models.Message{},
	); err != nil {
		return nil, err
	}

	return &MySQLStore{db: db}, nil
}

func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *MySQLStore) CreateSession(ctx context.Context) (string, error) {
	now := time.Now()
	session := models.Session{
		ID:         uuid.NewString(),
		Phase:      string(interfaces.PhaseCharacterCreation),
		CreatedAt:  now,
		LastActive: now,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return session.ID, nil
}

func (s *MySQLStore) GetPhase(ctx context.Context, sessionID string) (interfaces.Phase, error) {
	var session models.Session
	err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return interfaces.Phase(session.Phase), nil
}

func (s *MySQLStore) SetPhase(ctx context.Context, sessionID string, phase interfaces.Phase) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("phase", string(phase)).Error
}

func (s *MySQLStore) TouchSession(ctx context.Context, sessionID string) error {
	return s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).
		Update("last_active", time.Now()).Error
}

func (s *MySQLStore) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ?", sessionID).Count(&count).Error
	return count > 0, err
}

// SaveCharacter merges the given fields into the session's character.
// Fields absent from data keep their stored value; merge policy is
// last-write-wins per field.
func (s *MySQLStore) SaveCharacter(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	var existing models.Character
	err := s.db.WithContext(ctx).First(&existing, "session_id = ?", sessionID).Error
	found := err == nil
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	stats := interfaces.DetailMap{}
	var inventory []string
	if found {
		_ = json.Unmarshal([]byte(existing.Stats), &stats)
		_ = json.Unmarshal([]byte(existing.Inventory), &inventory)
	} else {
		existing = models.Character{
			ID:        uuid.NewString(),
			SessionID: sessionID,
			CreatedAt: time.Now(),
		}
	}

	details := interfaces.NormalizeDetails(data)
	for key, value := range details {
		switch key {
		case "name":
			existing.Name = asString(value)
		case "race":
			existing.Race = asString(value)
		case "class":
			existing.Class = asString(value)
		case "background":
			existing.Background = asString(value)
		case "inventory":
			if items, ok := value.([]string); ok {
				inventory = items
			}
		default:
			stats[key] = value
		}
	}

	statsJSON, _ := json.Marshal(stats)
	inventoryJSON, _ := json.Marshal(inventory)
	existing.Stats = string(statsJSON)
	existing.Inventory = string(inventoryJSON)
	existing.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&existing).Error; err != nil {
		return "", fmt.Errorf("failed to save character: %w", err)
	}
	return existing.ID, nil
}

func (s *MySQLStore) GetCharacter(ctx context.Context, sessionID string) (*interfaces.CharacterSheet, error) {
	var row models.Character
	err := s.db.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sheet := &interfaces.CharacterSheet{
		Name:       row.Name,
		Race:       row.Race,
		Class:      row.Class,
		Background: row.Background,
		Stats:      interfaces.DetailMap{},
	}
	_ = json.Unmarshal([]byte(row.Stats), &sheet.Stats)
	_ = json.Unmarshal([]byte(row.Inventory), &sheet.Inventory)
	return sheet, nil
}

func (s *MySQLStore) UpsertLocation(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	details := interfaces.NormalizeDetails(data)
	name := asString(details["name"])

	row := models.Location{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	if name != "" {
		var existing models.Location
		err := s.db.WithContext(ctx).
			First(&existing, "session_id = ? AND name = ?", sessionID, name).Error
		if err == nil {
			row = existing
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}

	row.Name = name
	row.Description = asString(details["description"])
	row.Type = asString(details["type"])
	delete(details, "name")
	delete(details, "description")
	delete(details, "type")
	detailsJSON, _ := json.Marshal(details)
	row.Details = string(detailsJSON)

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return "", fmt.Errorf("failed to save location: %w", err)
	}
	return row.ID, nil
}

func (s *MySQLStore) GetLocations(ctx context.Context, sessionID string) ([]interfaces.LocationInfo, error) {
	var rows []models.Location
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]interfaces.LocationInfo, 0, len(rows))
	for _, row := range rows {
		info := interfaces.LocationInfo{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Type:        row.Type,
		}
		_ = json.Unmarshal([]byte(row.Details), &info.Details)
		out = append(out, info)
	}
	return out, nil
}

func (s *MySQLStore) UpsertNPC(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	details := interfaces.NormalizeDetails(data)
	name := asString(details["name"])

	row := models.NPC{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	if name != "" {
		var existing models.NPC
		err := s.db.WithContext(ctx).
			First(&existing, "session_id = ? AND name = ?", sessionID, name).Error
		if err == nil {
			row = existing
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", err
		}
	}

	row.Name = name
	row.Description = asString(details["description"])
	row.Role = asString(details["role"])

	// Resolve a location reference by name at write time
	if locationName := asString(details["location"]); locationName != "" {
		var location models.Location
		err := s.db.WithContext(ctx).
			First(&location, "session_id = ? AND name = ?", sessionID, locationName).Error
		if err == nil {
			row.LocationID = location.ID
		}
	}

	delete(details, "name")
	delete(details, "description")
	delete(details, "role")
	delete(details, "location")
	detailsJSON, _ := json.Marshal(details)
	row.Details = string(detailsJSON)

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return "", fmt.Errorf("failed to save npc: %w", err)
	}
	return row.ID, nil
}

func (s *MySQLStore) GetNPCs(ctx context.Context, sessionID string) ([]interfaces.NPCInfo, error) {
	var rows []models.NPC
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]interfaces.NPCInfo, 0, len(rows))
	for _, row := range rows {
		info := interfaces.NPCInfo{
			ID:          row.ID,
			Name:        row.Name,
			Description: row.Description,
			Role:        row.Role,
		}
		_ = json.Unmarshal([]byte(row.Details), &info.Details)
		if row.LocationID != "" {
			var location models.Location
			if err := s.db.WithContext(ctx).
				First(&location, "id = ?", row.LocationID).Error; err == nil {
				info.Location = location.Name
			}
		}
		out = append(out, info)
	}
	return out, nil
}

func (s *MySQLStore) UpsertQuest(ctx context.Context, sessionID string, data map[string]interface{}) (string, error) {
	details := interfaces.NormalizeDetails(data)
	title := asString(details["title"])

	row := models.Quest{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	var existing models.Quest
	err := s.db.WithContext(ctx).
		First(&existing, "session_id = ? AND title = ?", sessionID, title).Error
	if err == nil {
		row = existing
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	row.Title = title
	row.Description = asString(details["description"])
	row.Status = normalizeQuestStatus(asString(details["status"]))
	delete(details, "title")
	delete(details, "description")
	delete(details, "status")
	detailsJSON, _ := json.Marshal(details)
	row.Details = string(detailsJSON)
	row.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return "", fmt.Errorf("failed to save quest: %w", err)
	}
	return row.ID, nil
}

func (s *MySQLStore) GetQuests(ctx context.Context, sessionID string, status string) ([]interfaces.QuestInfo, error) {
	query := s.db.WithContext(ctx).Where("session_id = ?", sessionID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []models.Quest
	if err := query.Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]interfaces.QuestInfo, 0, len(rows))
	for _, row := range rows {
		info := interfaces.QuestInfo{
			ID:          row.ID,
			Title:       row.Title,
			Description: row.Description,
			Status:      row.Status,
		}
		_ = json.Unmarshal([]byte(row.Details), &info.Details)
		out = append(out, info)
	}
	return out, nil
}

func (s *MySQLStore) SaveCombatState(ctx context.Context, sessionID string, state interfaces.CombatInfo) (string, error) {
	row := models.CombatState{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		CreatedAt: time.Now(),
	}
	var existing models.CombatState
	err := s.db.WithContext(ctx).First(&existing, "session_id = ?", sessionID).Error
	if err == nil {
		row = existing
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	orderJSON, _ := json.Marshal(state.InitiativeOrder)
	row.IsInCombat = state.IsInCombat
	row.InitiativeOrder = string(orderJSON)
	row.CurrentCombatant = state.CurrentCombatant
	row.Round = state.Round
	row.UpdatedAt = time.Now()

	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return "", fmt.Errorf("failed to save combat state: %w", err)
	}
	return row.ID, nil
}

func (s *MySQLStore) GetCombatState(ctx context.Context, sessionID string) (*interfaces.CombatInfo, error) {
	var row models.CombatState
	err := s.db.WithContext(ctx).First(&row, "session_id = ?", sessionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &interfaces.CombatInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	state := &interfaces.CombatInfo{
		IsInCombat:       row.IsInCombat,
		CurrentCombatant: row.CurrentCombatant,
		Round:            row.Round,
	}
	_ = json.Unmarshal([]byte(row.InitiativeOrder), &state.InitiativeOrder)
	return state, nil
}

func (s *MySQLStore) AppendMessage(ctx context.Context, sessionID, role, content string) (string, error) {
	row := models.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("failed to append message: %w", err)
	}
	return row.ID, nil
}

func (s *MySQLStore) GetMessages(ctx context.Context, sessionID string, limit int) ([]interfaces.ChatMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	// Most recent messages, returned oldest first
	var rows []models.Message
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]interfaces.ChatMessage, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		out = append(out, interfaces.ChatMessage{Role: rows[i].Role, Content: rows[i].Content})
	}
	return out, nil
}

func asString(v interface{}) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func normalizeQuestStatus(status string) string {
	switch status {
	case interfaces.QuestNotStarted, interfaces.QuestInProgress,
		interfaces.QuestCompleted, interfaces.QuestFailed:
		return status
	default:
		return interfaces.QuestNotStarted
	}
}
