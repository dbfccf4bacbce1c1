// Package skill binds effects, costs, cooldowns and usage conditions into
// named skills, and provides the validated catalog they are loaded into.
package skill

import (
	"math/rand"
	"slices"

	"github.com/samdwyer/skirmish/internal/effect"
)

// User is any combatant that can use skills. Cooldowns live on the user,
// keyed by skill id, so one Skill value can be shared by every combatant.
type User interface {
	effect.Source
	effect.Target
	ID() string
	Cooldown(skillID string) int
	SetCooldown(skillID string, rounds int)
}

// EnergyUser is a User that pays energy costs.
type EnergyUser interface {
	Energy() int
	SpendEnergy(amount int)
}

// ActionUser is a User that may be backed by an action-point economy.
// tracked is false when no economy is attached, in which case action
// costs do not gate use.
type ActionUser interface {
	ActionPoints() (points float64, tracked bool)
	ConsumeAction(amount float64) bool
}

// Equipped is a User whose equipment can satisfy required_item conditions.
type Equipped interface {
	HasEquippedType(itemType string) bool
}

// Skill is an immutable skill definition.
type Skill struct {
	ID          string
	Name        string
	Description string
	EnergyCost  int
	ActionCost  float64
	Cooldown    int
	Effects     []effect.Effect
	Conditions  []Condition
	Sound       string
	Category    string
	Tags        []string
}

// Result is the outcome of one use. Fields merges every outcome's fields
// in order, so a later effect overwrites an earlier one's key; Outcomes
// keeps each effect's result intact.
type Result struct {
	Success  bool
	Message  string
	Sound    string
	Fields   map[string]any
	Outcomes []effect.Outcome
}

// Messages returns the message of every applied effect, or the plain
// "used" message for a skill without effects.
func (r Result) Messages() []string {
	if len(r.Outcomes) == 0 {
		return []string{r.Message}
	}
	msgs := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		msgs = append(msgs, o.Message)
	}
	return msgs
}

// TotalDamage sums damage across all outcomes.
func (r Result) TotalDamage() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Damage()
	}
	return total
}

// TotalHealing sums healing across all outcomes.
func (r Result) TotalHealing() int {
	total := 0
	for _, o := range r.Outcomes {
		total += o.Healing()
	}
	return total
}

// CanUse reports whether user may use the skill right now.
func (s *Skill) CanUse(user User) bool {
	if user.Cooldown(s.ID) > 0 {
		return false
	}
	if eu, ok := user.(EnergyUser); ok && eu.Energy() < s.EnergyCost {
		return false
	}
	if au, ok := user.(ActionUser); ok {
		if points, tracked := au.ActionPoints(); tracked && points < s.ActionCost {
			return false
		}
	}
	for _, c := range s.Conditions {
		if !c.Holds(user) {
			return false
		}
	}
	return true
}

// Use pays the skill's costs, starts its cooldown and applies every effect
// in order. It does not check CanUse; callers that need the gate check it
// first.
func (s *Skill) Use(rng *rand.Rand, user User, target effect.Target) Result {
	user.SetCooldown(s.ID, s.Cooldown)
	if eu, ok := user.(EnergyUser); ok {
		eu.SpendEnergy(s.EnergyCost)
	}
	if au, ok := user.(ActionUser); ok {
		au.ConsumeAction(s.ActionCost)
	}

	res := Result{
		Success: true,
		Message: user.Name() + " used " + s.Name,
		Sound:   s.SoundHint(),
		Fields:  make(map[string]any),
	}
	for _, e := range s.Effects {
		dst := target
		if e.OnSelf() {
			dst = user
		}
		out := e.Apply(rng, user, dst)
		for k, v := range out.Fields {
			res.Fields[k] = v
		}
		res.Message = out.Message
		res.Outcomes = append(res.Outcomes, out)
	}
	res.Fields["success"] = res.Success
	res.Fields["message"] = res.Message
	return res
}

// UpdateCooldown ticks user's cooldown for this skill down by one round.
func (s *Skill) UpdateCooldown(user User) {
	if cd := user.Cooldown(s.ID); cd > 0 {
		user.SetCooldown(s.ID, cd-1)
	}
}

// ResetCooldown clears user's cooldown for this skill.
func (s *Skill) ResetCooldown(user User) {
	user.SetCooldown(s.ID, 0)
}

// SoundHint is the opaque audio cue for the skill: its sound if set,
// otherwise its category.
func (s *Skill) SoundHint() string {
	if s.Sound != "" {
		return s.Sound
	}
	return s.Category
}

// HasTag reports whether the skill carries tag.
func (s *Skill) HasTag(tag string) bool {
	return slices.Contains(s.Tags, tag)
}

// HasEffect reports whether any effect is of the given kind.
func (s *Skill) HasEffect(kind effect.Kind) bool {
	for _, e := range s.Effects {
		if e.Kind() == kind {
			return true
		}
	}
	return false
}

// IsHealing reports whether the skill heals, by tag or by effect.
func (s *Skill) IsHealing() bool {
	return s.HasTag("healing") || s.HasEffect(effect.KindHealing)
}

// IsDamaging reports whether the skill deals damage, by tag or by effect.
func (s *Skill) IsDamaging() bool {
	return s.HasTag("damage") || s.HasEffect(effect.KindDamage) || s.HasEffect(effect.KindMultiHit)
}
