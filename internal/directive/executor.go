package directive

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"Loremaster/server/internal/interfaces"
	"Loremaster/server/internal/rag"
)

// Result records the outcome of a single directive execution.
type Result struct {
	Directive string `json:"function"`
	Success   bool   `json:"success"`
	Key       string `json:"key,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Outcome aggregates one turn's directive executions. CombatSet carries the
// last explicit is_in_combat value so the state machine can treat the
// directive as authoritative over phrase heuristics.
type Outcome struct {
	Results          []Result
	CombatSet        *bool
	AdventureStarted bool
}

// Executor dispatches parsed directives against the game store and mirrors
// successful entity writes into the memory index when one is configured.
// Each directive is its own unit of work: a failure is captured in its
// result and later directives still run.
type Executor struct {
	store interfaces.GameStore
	index interfaces.MemoryIndex
}

func NewExecutor(store interfaces.GameStore, index interfaces.MemoryIndex) *Executor {
	return &Executor{store: store, index: index}
}

// Names returns the recognized directive vocabulary.
func Names() []string {
	return []string{
		"update_character",
		"add_world_location",
		"add_npc",
		"update_quest",
		"update_combat_state",
		"start_adventure",
	}
}

// Execute runs every parsed call in order.
func (e *Executor) Execute(ctx context.Context, sessionID string, calls []Call) Outcome {
	var out Outcome
	for _, call := range calls {
		result := e.execute(ctx, sessionID, call, &out)
		if result.Error != "" {
			log.Printf("[Directive] %s failed: %s", call.Name, result.Error)
		}
		out.Results = append(out.Results, result)
	}
	return out
}

func (e *Executor) execute(ctx context.Context, sessionID string, call Call, out *Outcome) Result {
	switch call.Name {
	case "update_character":
		return e.updateCharacter(ctx, sessionID, call)
	case "add_world_location":
		return e.addLocation(ctx, sessionID, call)
	case "add_npc":
		return e.addNPC(ctx, sessionID, call)
	case "update_quest":
		return e.updateQuest(ctx, sessionID, call)
	case "update_combat_state":
		return e.updateCombatState(ctx, sessionID, call, out)
	case "start_adventure":
		out.AdventureStarted = true
		return Result{Directive: call.Name, Success: true}
	default:
		return Result{
			Directive: call.Name,
			Error:     fmt.Sprintf("unknown directive: %s", call.Name),
		}
	}
}

func (e *Executor) updateCharacter(ctx context.Context, sessionID string, call Call) Result {
	args := DecodeArgs(call.RawArgs)
	if _, err := e.store.SaveCharacter(ctx, sessionID, args); err != nil {
		return Result{Directive: call.Name, Error: err.Error()}
	}
	e.mirror(ctx, sessionID, interfaces.RecordCharacter, "character", rag.CharacterProjection(args), args)
	return Result{Directive: call.Name, Success: true, Key: stringArg(args, "name")}
}

func (e *Executor) addLocation(ctx context.Context, sessionID string, call Call) Result {
	args := DecodeArgs(call.RawArgs)
	name := stringArg(args, "name")
	if name == "" {
		return Result{Directive: call.Name, Error: "location requires a name"}
	}
	if _, err := e.store.UpsertLocation(ctx, sessionID, args); err != nil {
		return Result{Directive: call.Name, Error: err.Error()}
	}
	e.mirror(ctx, sessionID, interfaces.RecordLocation, name, rag.LocationProjection(args), args)
	return Result{Directive: call.Name, Success: true, Key: name}
}

func (e *Executor) addNPC(ctx context.Context, sessionID string, call Call) Result {
	args := DecodeArgs(call.RawArgs)
	name := stringArg(args, "name")
	if name == "" {
		return Result{Directive: call.Name, Error: "npc requires a name"}
	}
	if _, err := e.store.UpsertNPC(ctx, sessionID, args); err != nil {
		return Result{Directive: call.Name, Error: err.Error()}
	}
	e.mirror(ctx, sessionID, interfaces.RecordNPC, name, rag.NPCProjection(args), args)
	return Result{Directive: call.Name, Success: true, Key: name}
}

func (e *Executor) updateQuest(ctx context.Context, sessionID string, call Call) Result {
	args := DecodeArgs(call.RawArgs)
	title := stringArg(args, "title")
	if title == "" {
		return Result{Directive: call.Name, Error: "quest requires a title"}
	}
	if _, err := e.store.UpsertQuest(ctx, sessionID, args); err != nil {
		return Result{Directive: call.Name, Error: err.Error()}
	}
	e.mirror(ctx, sessionID, interfaces.RecordQuest, title, rag.QuestProjection(args), args)
	return Result{Directive: call.Name, Success: true, Key: title}
}

func (e *Executor) updateCombatState(ctx context.Context, sessionID string, call Call, out *Outcome) Result {
	state, err := decodeCombatArgs(call.RawArgs)
	if err != nil {
		return Result{Directive: call.Name, Error: err.Error()}
	}
	if _, err := e.store.SaveCombatState(ctx, sessionID, state); err != nil {
		return Result{Directive: call.Name, Error: err.Error()}
	}
	in := state.IsInCombat
	out.CombatSet = &in
	return Result{Directive: call.Name, Success: true}
}

// decodeCombatArgs keeps the initiative-order list structured, which the
// generic DetailMap coercion would flatten. The key-value fallback can only
// recover the scalar fields.
func decodeCombatArgs(raw string) (interfaces.CombatInfo, error) {
	var state interfaces.CombatInfo
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return state, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &state); err == nil {
		return state, nil
	}

	args := DecodeArgs(trimmed)
	state.IsInCombat = stringArg(args, "is_in_combat") == "true"
	state.CurrentCombatant = stringArg(args, "current_combatant")
	if round, ok := args["round"].(string); ok {
		fmt.Sscanf(round, "%d", &state.Round)
	}
	return state, nil
}

func (e *Executor) mirror(ctx context.Context, sessionID string, kind interfaces.RecordKind, key, text string, payload map[string]interface{}) {
	if e.index == nil || text == "" {
		return
	}
	if err := e.index.IndexText(ctx, sessionID, kind, key, text, payload); err != nil {
		log.Printf("[Directive] memory index write failed for %s %q: %v", kind, key, err)
	}
}

func stringArg(args interfaces.DetailMap, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}
