// Package enemy builds enemy combatants from the enemy catalog and picks
// their skills each turn.
package enemy

import (
	"math/rand"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/skirmish/internal/action"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/skill"
)

// Enemy is a hostile combatant driven by a behavior strategy.
type Enemy struct {
	*entity.Combatant

	TypeID        string
	Behavior      string
	SkillWeights  map[string]int
	SkillSequence []string
	ActionSpeed   float64
	Glyph         rune
	Color         tcell.Color

	strategy Strategy
	// seqIndex drives the sequence behavior when no action economy is
	// attached.
	seqIndex int
}

// Join registers the enemy with an action economy at its action speed and
// loads its skill sequence into the economy's queue.
func (e *Enemy) Join(m *action.Manager) {
	e.AttachActions(m, e.ActionSpeed)
	if len(e.SkillSequence) > 0 {
		m.SetSkillSequence(e.ID(), e.SkillSequence)
	}
}

// Eligible returns the known skills that can be used right now and are
// covered by the current action balance.
func (e *Enemy) Eligible() []*skill.Skill {
	points, tracked := e.ActionPoints()
	var out []*skill.Skill
	for _, s := range e.Skills() {
		if !s.CanUse(e) {
			continue
		}
		if tracked && points < s.ActionCost {
			continue
		}
		out = append(out, s)
	}
	return out
}

// ChooseSkill asks the behavior strategy for this turn's skill. A nil
// result means the enemy passes.
func (e *Enemy) ChooseSkill(rng *rand.Rand) *skill.Skill {
	return e.strategy(rng, e, e.Eligible())
}

// nextInSequence returns the next configured skill id and advances the
// sequence, whether or not the returned skill ends up being used.
func (e *Enemy) nextInSequence() string {
	if m := e.Actions(); m != nil {
		if id := m.CycleSkillSequence(e.ID()); id != "" {
			return id
		}
	}
	if len(e.SkillSequence) == 0 {
		return ""
	}
	id := e.SkillSequence[e.seqIndex%len(e.SkillSequence)]
	e.seqIndex = (e.seqIndex + 1) % len(e.SkillSequence)
	return id
}
