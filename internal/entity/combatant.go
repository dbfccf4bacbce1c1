// Package entity provides the combatants that fight battles: the shared
// Combatant core, the Player, and the items they carry.
package entity

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/samdwyer/skirmish/internal/action"
	"github.com/samdwyer/skirmish/internal/skill"
)

// Stat names.
const (
	StatStrength     = "strength"
	StatDexterity    = "dexterity"
	StatConstitution = "constitution"
	StatIntelligence = "intelligence"
	StatWisdom       = "wisdom"
)

// StatNames lists every stat in display order.
var StatNames = []string{StatStrength, StatDexterity, StatConstitution, StatIntelligence, StatWisdom}

// Status effects with built-in behavior.
const (
	StatusPoison       = "poison"
	StatusRegeneration = "regeneration"
	StatusStunned      = "stunned"
	StatusSlowed       = "slowed"
)

// BuffDefense is the buff that adds to damage mitigation.
const BuffDefense = "defense"

// Modifier is a timed buff or status effect.
type Modifier struct {
	Value    float64
	Duration int
}

// Combatant is the stat-bearing core shared by players and enemies.
type Combatant struct {
	id    string
	name  string
	Level int

	baseStats   map[string]int
	hp, maxHP   int
	baseDefense int
	// baseDamage is the attack rating shown when nothing is wielded. It
	// never feeds weapon scaling.
	baseDamage int

	equipment map[Slot]*Item
	skills    []*skill.Skill
	cooldowns map[string]int
	buffs     map[string]Modifier
	statuses  map[string]Modifier

	actions *action.Manager
}

// NewCombatant creates a combatant at full health. Missing stats default
// to 0.
func NewCombatant(name string, level int, stats map[string]int, maxHP int) *Combatant {
	c := &Combatant{
		id:        uuid.NewString(),
		name:      name,
		Level:     max(level, 1),
		baseStats: make(map[string]int, len(StatNames)),
		equipment: make(map[Slot]*Item),
		cooldowns: make(map[string]int),
		buffs:     make(map[string]Modifier),
		statuses:  make(map[string]Modifier),
	}
	for k, v := range stats {
		c.baseStats[k] = v
	}
	c.maxHP = max(maxHP, 1)
	c.hp = c.maxHP
	return c
}

// ID returns the unique instance id.
func (c *Combatant) ID() string { return c.id }

// Name returns the display name.
func (c *Combatant) Name() string { return c.name }

// SetName renames the combatant.
func (c *Combatant) SetName(name string) { c.name = name }

// HP returns current hit points.
func (c *Combatant) HP() int { return c.hp }

// MaxHP returns maximum hit points.
func (c *Combatant) MaxHP() int { return c.maxHP }

// IsAlive returns true if the combatant has HP remaining.
func (c *Combatant) IsAlive() bool { return c.hp > 0 }

// SetMaxHP changes max HP. With keepRatio, current HP scales with it;
// otherwise it is only clamped.
func (c *Combatant) SetMaxHP(maxHP int, keepRatio bool) {
	maxHP = max(maxHP, 1)
	if keepRatio && maxHP != c.maxHP {
		c.hp = int(float64(c.hp) * float64(maxHP) / float64(c.maxHP))
	}
	c.maxHP = maxHP
	c.hp = min(c.hp, c.maxHP)
}

// RestoreFull heals to max HP and clears buffs, statuses and cooldowns.
func (c *Combatant) RestoreFull() {
	c.hp = c.maxHP
	clear(c.buffs)
	clear(c.statuses)
	clear(c.cooldowns)
}

// BaseStat returns a stat without equipment bonuses.
func (c *Combatant) BaseStat(name string) int { return c.baseStats[name] }

// RaiseStats adds delta to every base stat.
func (c *Combatant) RaiseStats(delta int) {
	for _, name := range StatNames {
		c.baseStats[name] += delta
	}
}

// Stat returns a stat including equipment bonuses.
func (c *Combatant) Stat(name string) int {
	total := c.baseStats[name]
	for _, item := range c.equipment {
		total += item.StatBonuses[name]
	}
	return total
}

// Stats returns every stat including equipment bonuses.
func (c *Combatant) Stats() map[string]int {
	out := make(map[string]int, len(c.baseStats))
	for name := range c.baseStats {
		out[name] = c.Stat(name)
	}
	return out
}

// SetBaseDefense sets innate damage mitigation.
func (c *Combatant) SetBaseDefense(defense int) { c.baseDefense = defense }

// SetBaseDamage sets the unarmed attack rating.
func (c *Combatant) SetBaseDamage(damage int) { c.baseDamage = damage }

// Defense returns total mitigation: innate, equipped and the defense buff.
func (c *Combatant) Defense() int {
	total := c.baseDefense
	for _, item := range c.equipment {
		total += item.Defense
	}
	if buff, ok := c.buffs[BuffDefense]; ok {
		total += int(buff.Value)
	}
	return total
}

// WeaponDamage returns the wielded weapon's damage, or 0 when unarmed.
func (c *Combatant) WeaponDamage() int {
	if w := c.equipment[SlotWeapon]; w != nil {
		return w.Damage
	}
	return 0
}

// Damage returns the attack rating: weapon damage when armed, the base
// damage otherwise.
func (c *Combatant) Damage() int {
	if w := c.equipment[SlotWeapon]; w != nil {
		return w.Damage
	}
	return c.baseDamage
}

// TakeDamage applies mitigation and returns the damage dealt, at least 1.
// The defense buff is not consumed.
func (c *Combatant) TakeDamage(amount int) int {
	actual := max(1, amount-c.Defense())
	c.hp = max(0, c.hp-actual)
	return actual
}

// Heal restores HP and returns the amount actually healed.
func (c *Combatant) Heal(amount int) int {
	if amount <= 0 {
		return 0
	}
	actual := min(amount, c.maxHP-c.hp)
	c.hp += actual
	return actual
}

// =============================================================================
// Equipment
// =============================================================================

// Equipped returns the item in slot, or nil.
func (c *Combatant) Equipped(slot Slot) *Item { return c.equipment[slot] }

// HasEquippedType reports whether any equipped item has the given type.
func (c *Combatant) HasEquippedType(itemType string) bool {
	for _, item := range c.equipment {
		if item.Type == itemType {
			return true
		}
	}
	return false
}

// equip puts item in its slot and returns whatever it displaced.
func (c *Combatant) equip(item *Item) (*Item, error) {
	if item == nil || !item.IsEquipment() {
		return nil, fmt.Errorf("item cannot be equipped")
	}
	prev := c.equipment[item.Slot]
	c.equipment[item.Slot] = item
	return prev, nil
}

func (c *Combatant) unequip(slot Slot) *Item {
	item := c.equipment[slot]
	delete(c.equipment, slot)
	return item
}

// =============================================================================
// Skills and cooldowns
// =============================================================================

// Skills returns the known skills in learn order.
func (c *Combatant) Skills() []*skill.Skill { return c.skills }

// KnowsSkill reports whether a skill with id is known.
func (c *Combatant) KnowsSkill(id string) bool {
	return c.Skill(id) != nil
}

// Skill returns the known skill with id, or nil.
func (c *Combatant) Skill(id string) *skill.Skill {
	for _, s := range c.skills {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// LearnSkill adds s unless a skill with the same id is already known.
func (c *Combatant) LearnSkill(s *skill.Skill) bool {
	if s == nil || c.KnowsSkill(s.ID) {
		return false
	}
	c.skills = append(c.skills, s)
	return true
}

// Cooldown returns the rounds left before skillID is ready.
func (c *Combatant) Cooldown(skillID string) int { return c.cooldowns[skillID] }

// SetCooldown sets the rounds left before skillID is ready.
func (c *Combatant) SetCooldown(skillID string, rounds int) {
	if rounds <= 0 {
		delete(c.cooldowns, skillID)
		return
	}
	c.cooldowns[skillID] = rounds
}

// TickCooldowns advances every known skill's cooldown by one round.
func (c *Combatant) TickCooldowns() {
	for _, s := range c.skills {
		s.UpdateCooldown(c)
	}
}

// =============================================================================
// Action economy
// =============================================================================

// AttachActions registers the combatant with an action economy.
func (c *Combatant) AttachActions(m *action.Manager, rate float64) {
	c.actions = m
	m.Register(c.id, rate)
}

// DetachActions unregisters the combatant from its action economy.
func (c *Combatant) DetachActions() {
	if c.actions == nil {
		return
	}
	c.actions.Unregister(c.id)
	c.actions = nil
}

// Actions returns the attached economy, or nil.
func (c *Combatant) Actions() *action.Manager { return c.actions }

// ActionPoints reports the current balance and whether an economy is attached.
func (c *Combatant) ActionPoints() (float64, bool) {
	if c.actions == nil {
		return 0, false
	}
	return c.actions.CurrentAction(c.id), true
}

// ConsumeAction spends action points. It succeeds trivially without an economy.
func (c *Combatant) ConsumeAction(amount float64) bool {
	if c.actions == nil {
		return true
	}
	return c.actions.ConsumeAction(c.id, amount)
}

// =============================================================================
// Buffs and status effects
// =============================================================================

// ApplyBuff sets a buff, replacing any buff of the same type.
func (c *Combatant) ApplyBuff(buffType string, value float64, duration int) {
	c.buffs[buffType] = Modifier{Value: value, Duration: duration}
}

// ApplyStatus sets a status effect, replacing any of the same type.
func (c *Combatant) ApplyStatus(statusType string, value float64, duration int) {
	c.statuses[statusType] = Modifier{Value: value, Duration: duration}
}

// Buff returns the active buff of the given type.
func (c *Combatant) Buff(buffType string) (Modifier, bool) {
	m, ok := c.buffs[buffType]
	return m, ok
}

// Status returns the active status effect of the given type.
func (c *Combatant) Status(statusType string) (Modifier, bool) {
	m, ok := c.statuses[statusType]
	return m, ok
}

// Buffs returns a copy of the active buffs.
func (c *Combatant) Buffs() map[string]Modifier { return copyModifiers(c.buffs) }

// Statuses returns a copy of the active status effects.
func (c *Combatant) Statuses() map[string]Modifier { return copyModifiers(c.statuses) }

// UpdateStatusEffects runs one round of buffs and status effects and
// returns what happened. Buffs age first, then statuses apply and age,
// then action-rate modifiers age. Call exactly once per round.
func (c *Combatant) UpdateStatusEffects() []string {
	var messages []string

	for _, name := range sortedModifierKeys(c.buffs) {
		buff := c.buffs[name]
		buff.Duration--
		if buff.Duration <= 0 {
			delete(c.buffs, name)
			messages = append(messages, fmt.Sprintf("%s's %s buff has expired.", c.name, name))
			continue
		}
		c.buffs[name] = buff
	}

	for _, name := range sortedModifierKeys(c.statuses) {
		status := c.statuses[name]
		messages = append(messages, c.applyStatus(name, status)...)
		status.Duration--
		if status.Duration <= 0 {
			delete(c.statuses, name)
			messages = append(messages, fmt.Sprintf("%s is no longer affected by %s.", c.name, name))
			continue
		}
		c.statuses[name] = status
	}

	if c.actions != nil {
		for _, name := range c.actions.UpdateActionModifiers(c.id) {
			messages = append(messages, fmt.Sprintf("%s's %s effect has expired.", c.name, name))
		}
	}
	return messages
}

// applyStatus performs one round of a status effect. Stunned and slowed
// become action-rate modifiers lasting two ticks so they are still in
// force when the next round generates action.
func (c *Combatant) applyStatus(name string, status Modifier) []string {
	switch name {
	case StatusPoison:
		damage := int(status.Value)
		c.hp = max(0, c.hp-damage)
		return []string{fmt.Sprintf("%s takes %d poison damage.", c.name, damage)}
	case StatusRegeneration:
		healed := int(status.Value)
		c.hp = min(c.maxHP, c.hp+healed)
		return []string{fmt.Sprintf("%s regenerates %d health.", c.name, healed)}
	case StatusStunned:
		if c.actions != nil {
			c.actions.AddActionModifier(c.id, action.Stunned, -1.0, 2)
		}
		return []string{fmt.Sprintf("%s is stunned and cannot act.", c.name)}
	case StatusSlowed:
		if c.actions != nil {
			c.actions.AddActionModifier(c.id, StatusSlowed, -status.Value, 2)
		}
		return []string{fmt.Sprintf("%s is slowed and gains action more slowly.", c.name)}
	}
	return nil
}

func copyModifiers(m map[string]Modifier) map[string]Modifier {
	out := make(map[string]Modifier, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedModifierKeys(m map[string]Modifier) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ensure Combatant satisfies the skill capabilities.
var (
	_ skill.User       = (*Combatant)(nil)
	_ skill.ActionUser = (*Combatant)(nil)
	_ skill.Equipped   = (*Combatant)(nil)
)
