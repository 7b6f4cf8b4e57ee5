package engine

import (
	"strings"

	"Loremaster/server/internal/directive"
	"Loremaster/server/internal/interfaces"
)

// Phrase markers the narrator uses when it forgets to emit a directive.
// Directives always win; these only fire when no directive decided the
// transition this turn.
var (
	adventureReadyPhrases = []string{
		"ready to begin",
		"let the adventure begin",
		"your adventure begins",
	}
	combatStartPhrases = []string{
		"roll for initiative",
		"combat begins",
		"initiative order",
	}
	combatEndPhrases = []string{
		"combat is over",
		"combat ends",
		"the battle is over",
	}
)

// NextPhase computes the session phase after a turn. An explicit
// update_combat_state directive is authoritative; start_adventure comes
// next; text heuristics only apply when neither fired.
func NextPhase(current interfaces.Phase, out directive.Outcome, visible string, characterNamed bool) interfaces.Phase {
	if out.CombatSet != nil {
		if *out.CombatSet {
			return interfaces.PhaseCombat
		}
		return interfaces.PhaseAdventure
	}
	if out.AdventureStarted {
		return interfaces.PhaseAdventure
	}

	lowered := strings.ToLower(visible)
	switch current {
	case interfaces.PhaseCharacterCreation:
		if characterNamed && containsAny(lowered, adventureReadyPhrases) {
			return interfaces.PhaseAdventure
		}
	case interfaces.PhaseAdventure:
		if containsAny(lowered, combatStartPhrases) {
			return interfaces.PhaseCombat
		}
	case interfaces.PhaseCombat:
		if containsAny(lowered, combatEndPhrases) {
			return interfaces.PhaseAdventure
		}
	}
	return current
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
