package engine

import (
	"testing"

	"Loremaster/server/internal/directive"
	"Loremaster/server/internal/interfaces"
)

func TestHeuristicCombatStart(t *testing.T) {
	next := NextPhase(interfaces.PhaseAdventure, directive.Outcome{}, "The orcs charge. Roll for initiative!", true)
	if next != interfaces.PhaseCombat {
		t.Fatalf("expected combat, got %s", next)
	}
}

func TestHeuristicCombatEnd(t *testing.T) {
	next := NextPhase(interfaces.PhaseCombat, directive.Outcome{}, "The battle is over. You catch your breath.", true)
	if next != interfaces.PhaseAdventure {
		t.Fatalf("expected adventure, got %s", next)
	}
}

func TestHeuristicIgnoredOutsideItsPhase(t *testing.T) {
	// Combat-end phrasing during adventure must not bounce the phase.
	next := NextPhase(interfaces.PhaseAdventure, directive.Outcome{}, "That old combat is over now, they say.", true)
	if next != interfaces.PhaseAdventure {
		t.Fatalf("expected adventure, got %s", next)
	}
}

func TestDirectiveOverridesHeuristic(t *testing.T) {
	off := false
	out := directive.Outcome{CombatSet: &off}
	// Text says combat starts but the directive says it ended.
	next := NextPhase(interfaces.PhaseCombat, out, "Roll for initiative!", true)
	if next != interfaces.PhaseAdventure {
		t.Fatalf("directive not authoritative, got %s", next)
	}
}

func TestNoTransitionOnPlainNarration(t *testing.T) {
	next := NextPhase(interfaces.PhaseAdventure, directive.Outcome{}, "You walk down the muddy road.", true)
	if next != interfaces.PhaseAdventure {
		t.Fatalf("unexpected transition to %s", next)
	}
}
