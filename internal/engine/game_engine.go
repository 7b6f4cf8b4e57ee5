package engine

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/atomic"

	"Loremaster/server/internal/directive"
	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/prompts"
	"Loremaster/server/internal/rag"
	"Loremaster/server/internal/storage"
)

// TurnResult is the outcome of one completed chat turn.
type TurnResult struct {
	SessionID string                     `json:"session_id"`
	Phase     interfaces.Phase           `json:"game_state"`
	Response  string                     `json:"response"`
	Results   []directive.Result         `json:"function_results"`
	Character *interfaces.CharacterSheet `json:"character,omitempty"`
}

// Options carries the tunable limits for turn processing.
type Options struct {
	HistoryLimit   int
	RetrievalLimit int
}

// GameEngine orchestrates a chat turn: load session state, compose the
// prompt, call the model, execute directives, advance the phase and persist
// the exchange. Index and cache are optional; a nil index disables
// retrieval and mirrored writes, a nil cache disables the history
// fast path.
type GameEngine struct {
	store    interfaces.GameStore
	index    interfaces.MemoryIndex
	gateway  interfaces.ModelGateway
	cache    *storage.RedisCache
	executor *directive.Executor

	historyLimit   int
	retrievalLimit int

	turns atomic.Int64 // completed turns since startup
}

func NewGameEngine(store interfaces.GameStore, index interfaces.MemoryIndex, gw interfaces.ModelGateway, cache *storage.RedisCache, opts Options) *GameEngine {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 20
	}
	if opts.RetrievalLimit <= 0 {
		opts.RetrievalLimit = 3
	}
	return &GameEngine{
		store:          store,
		index:          index,
		gateway:        gw,
		cache:          cache,
		executor:       directive.NewExecutor(store, index),
		historyLimit:   opts.HistoryLimit,
		retrievalLimit: opts.RetrievalLimit,
	}
}

// NewSession creates a fresh session in the character-creation phase.
func (e *GameEngine) NewSession(ctx context.Context) (string, error) {
	return e.store.CreateSession(ctx)
}

// TurnCount reports the number of turns completed since startup.
func (e *GameEngine) TurnCount() int64 {
	return e.turns.Load()
}

// ProcessTurn runs one synchronous turn. The player message is persisted
// before the model is called, so a generation failure still leaves a
// durable record of what the player said.
func (e *GameEngine) ProcessTurn(ctx context.Context, sessionID, message, backendID string) (*TurnResult, error) {
	sessionID, phase, err := e.resolveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history, err := e.loadHistory(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	character, err := e.store.GetCharacter(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load character: %w", err)
	}
	locations, err := e.store.GetLocations(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	npcs, err := e.store.GetNPCs(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load npcs: %w", err)
	}
	quests, err := e.store.GetQuests(ctx, sessionID, "")
	if err != nil {
		return nil, fmt.Errorf("load quests: %w", err)
	}
	combat, err := e.store.GetCombatState(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load combat state: %w", err)
	}

	userMsgID, err := e.store.AppendMessage(ctx, sessionID, interfaces.RoleUser, message)
	if err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}
	e.cacheMessage(ctx, sessionID, interfaces.ChatMessage{Role: interfaces.RoleUser, Content: message})

	prompt := prompts.ComposeTurnPrompt(prompts.TurnInput{
		Phase:       phase,
		Retrieved:   e.retrieve(ctx, sessionID, message),
		Character:   character,
		Locations:   locations,
		NPCs:        npcs,
		Quests:      quests,
		Combat:      combat,
		History:     history,
		UserMessage: message,
	})

	raw, err := e.gateway.Generate(ctx, prompt, backendID)
	if err != nil {
		return nil, err
	}

	calls := directive.Parse(raw)
	outcome := e.executor.Execute(ctx, sessionID, calls)

	visible := directive.Strip(raw, calls)
	visible = directive.GuardPlayerSpeech(visible)

	character, err = e.store.GetCharacter(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("reload character: %w", err)
	}

	next := NextPhase(phase, outcome, visible, character != nil && character.Name != "")
	if next != phase {
		if err := e.store.SetPhase(ctx, sessionID, next); err != nil {
			return nil, fmt.Errorf("persist phase %s: %w", next, err)
		}
		log.Printf("[Engine] session %s phase %s -> %s", sessionID, phase, next)
		phase = next
	}

	replyMsgID, err := e.store.AppendMessage(ctx, sessionID, interfaces.RoleAssistant, visible)
	if err != nil {
		return nil, fmt.Errorf("persist response: %w", err)
	}
	e.cacheMessage(ctx, sessionID, interfaces.ChatMessage{Role: interfaces.RoleAssistant, Content: visible})

	e.indexConversation(ctx, sessionID, userMsgID, interfaces.RoleUser, message)
	e.indexConversation(ctx, sessionID, replyMsgID, interfaces.RoleAssistant, visible)

	if err := e.store.TouchSession(ctx, sessionID); err != nil {
		log.Printf("[Engine] touch session %s: %v", sessionID, err)
	}
	e.turns.Inc()

	return &TurnResult{
		SessionID: sessionID,
		Phase:     phase,
		Response:  visible,
		Results:   outcome.Results,
		Character: character,
	}, nil
}

// resolveSession maps an empty or unknown id to a fresh session.
func (e *GameEngine) resolveSession(ctx context.Context, sessionID string) (string, interfaces.Phase, error) {
	if sessionID != "" {
		exists, err := e.store.SessionExists(ctx, sessionID)
		if err != nil {
			return "", "", fmt.Errorf("check session: %w", err)
		}
		if exists {
			phase, err := e.store.GetPhase(ctx, sessionID)
			if err != nil {
				return "", "", fmt.Errorf("load phase: %w", err)
			}
			if phase == "" {
				phase = interfaces.PhaseCharacterCreation
			}
			return sessionID, phase, nil
		}
	}

	id, err := e.store.CreateSession(ctx)
	if err != nil {
		return "", "", fmt.Errorf("create session: %w", err)
	}
	return id, interfaces.PhaseCharacterCreation, nil
}

func (e *GameEngine) loadHistory(ctx context.Context, sessionID string) ([]interfaces.ChatMessage, error) {
	if e.cache != nil {
		cached, err := e.cache.RecentMessages(ctx, sessionID, e.historyLimit)
		if err != nil {
			log.Printf("[Engine] history cache read %s: %v", sessionID, err)
		} else if cached != nil {
			return cached, nil
		}
	}
	return e.store.GetMessages(ctx, sessionID, e.historyLimit)
}

func (e *GameEngine) cacheMessage(ctx context.Context, sessionID string, msg interfaces.ChatMessage) {
	if e.cache == nil {
		return
	}
	if err := e.cache.CacheMessage(ctx, sessionID, msg); err != nil {
		log.Printf("[Engine] history cache write %s: %v", sessionID, err)
	}
}

// retrieve gathers similarity-ranked context for the prompt. Retrieval
// failures degrade to an empty section and are never surfaced to the
// caller.
func (e *GameEngine) retrieve(ctx context.Context, sessionID, message string) *prompts.RetrievedContext {
	if e.index == nil {
		return nil
	}

	query := func(kind interfaces.RecordKind, k int) []map[string]interface{} {
		payloads, err := e.index.QuerySimilar(ctx, sessionID, kind, message, k)
		if err != nil {
			log.Printf("[Engine] retrieval %s for %s: %v", kind, sessionID, err)
			return nil
		}
		return payloads
	}

	return &prompts.RetrievedContext{
		Characters:    query(interfaces.RecordCharacter, 1),
		NPCs:          query(interfaces.RecordNPC, e.retrievalLimit),
		Locations:     query(interfaces.RecordLocation, e.retrievalLimit),
		Quests:        query(interfaces.RecordQuest, e.retrievalLimit),
		Conversations: query(interfaces.RecordConversation, e.retrievalLimit),
	}
}

func (e *GameEngine) indexConversation(ctx context.Context, sessionID, msgID, role, content string) {
	if e.index == nil || content == "" {
		return
	}
	payload := map[string]interface{}{"role": role, "content": content}
	text := rag.ConversationProjection(role, content)
	if err := e.index.IndexText(ctx, sessionID, interfaces.RecordConversation, msgID, text, payload); err != nil {
		log.Printf("[Engine] conversation index %s: %v", sessionID, err)
	}
}
