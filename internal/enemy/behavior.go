package enemy

import (
	"math/rand"
	"sort"

	"github.com/samdwyer/skirmish/internal/skill"
)

// Behavior names as written in enemy tables.
const (
	BehaviorRandom   = "random"
	BehaviorWeighted = "weighted"
	BehaviorSmart    = "smart"
	BehaviorSequence = "sequence"
)

// lowHealthRatio is the hp fraction below which smart enemies heal.
const lowHealthRatio = 0.3

// Strategy picks a skill from the eligible set. It may return nil.
type Strategy func(rng *rand.Rand, e *Enemy, eligible []*skill.Skill) *skill.Skill

var strategies = map[string]Strategy{
	BehaviorRandom:   chooseRandom,
	BehaviorWeighted: chooseWeighted,
	BehaviorSmart:    chooseSmart,
	BehaviorSequence: chooseSequence,
}

// RegisterBehavior adds or replaces a named strategy.
func RegisterBehavior(name string, s Strategy) {
	strategies[name] = s
}

// LookupBehavior returns the strategy registered under name.
func LookupBehavior(name string) (Strategy, bool) {
	s, ok := strategies[name]
	return s, ok
}

// Behaviors returns every registered behavior name, sorted.
func Behaviors() []string {
	names := make([]string, 0, len(strategies))
	for name := range strategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func chooseRandom(rng *rand.Rand, _ *Enemy, eligible []*skill.Skill) *skill.Skill {
	if len(eligible) == 0 {
		return nil
	}
	return eligible[rng.Intn(len(eligible))]
}

// chooseWeighted samples from a pool holding each eligible skill once per
// point of weight. Unlisted skills weigh 1; zero weight never enters.
func chooseWeighted(rng *rand.Rand, e *Enemy, eligible []*skill.Skill) *skill.Skill {
	if len(eligible) == 0 {
		return nil
	}
	var pool []*skill.Skill
	for _, s := range eligible {
		weight, ok := e.SkillWeights[s.ID]
		if !ok {
			weight = 1
		}
		for i := 0; i < weight; i++ {
			pool = append(pool, s)
		}
	}
	if len(pool) == 0 {
		return eligible[0]
	}
	return pool[rng.Intn(len(pool))]
}

func chooseSmart(rng *rand.Rand, e *Enemy, eligible []*skill.Skill) *skill.Skill {
	if len(eligible) == 0 {
		return nil
	}
	if float64(e.HP()) < float64(e.MaxHP())*lowHealthRatio {
		if heals := filter(eligible, (*skill.Skill).IsHealing); len(heals) > 0 {
			return heals[rng.Intn(len(heals))]
		}
	}
	if attacks := filter(eligible, (*skill.Skill).IsDamaging); len(attacks) > 0 {
		return attacks[rng.Intn(len(attacks))]
	}
	return eligible[rng.Intn(len(eligible))]
}

func chooseSequence(_ *rand.Rand, e *Enemy, eligible []*skill.Skill) *skill.Skill {
	id := e.nextInSequence()
	if len(eligible) == 0 {
		return nil
	}
	for _, s := range eligible {
		if s.ID == id {
			return s
		}
	}
	return eligible[0]
}

func filter(skills []*skill.Skill, keep func(*skill.Skill) bool) []*skill.Skill {
	var out []*skill.Skill
	for _, s := range skills {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
