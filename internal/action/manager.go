// Package action tracks per-combatant action points: how fast they
// accumulate, timed rate modifiers, spending, and an optional cycling queue
// of preferred skills.
package action

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/samdwyer/skirmish/internal/logger"
)

// Stunned is the modifier name that halts action generation entirely.
const Stunned = "stunned"

// PermanentDuration marks a modifier that never expires.
const PermanentDuration = -1

// Modifier is a named multiplicative rate adjustment. A value of -0.5
// halves the rate for as long as it lasts.
type Modifier struct {
	Value    float64
	Duration int
}

// State is a snapshot of one combatant's action economy.
type State struct {
	BaseRate      float64
	CurrentRate   float64
	CurrentAction float64
	Modifiers     map[string]Modifier
	SkillSequence []string
	NextSkill     string
}

type entry struct {
	baseRate      float64
	currentRate   float64
	currentAction float64
	modifiers     map[string]Modifier
	sequence      []string
	nextSkill     string
}

// Manager owns the action state of every registered combatant. It is safe
// for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]*entry
	log     *logrus.Entry
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		entries: make(map[string]*entry),
		log:     logger.For("action"),
	}
}

// Register adds a combatant with the given base rate. Non-positive rates
// default to 1. Registering an existing id resets its state.
func (m *Manager) Register(id string, baseRate float64) {
	if baseRate <= 0 {
		baseRate = 1.0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = &entry{
		baseRate:    baseRate,
		currentRate: baseRate,
		modifiers:   make(map[string]Modifier),
	}
	m.log.WithFields(logrus.Fields{"entity": id, "base_rate": baseRate}).Debug("registered")
}

// Unregister drops a combatant. Unknown ids are ignored.
func (m *Manager) Unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; ok {
		delete(m.entries, id)
		m.log.WithField("entity", id).Debug("unregistered")
	}
}

// IsRegistered reports whether id is tracked.
func (m *Manager) IsRegistered(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[id]
	return ok
}

// SetActionRate changes the base rate and recomputes the current rate.
func (m *Manager) SetActionRate(id string, baseRate float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	e.baseRate = max(baseRate, 0)
	e.recalculate()
	return true
}

// AddActionModifier sets (or replaces) a named modifier. Use
// PermanentDuration for modifiers that never expire.
func (m *Manager) AddActionModifier(id, name string, value float64, duration int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	e.modifiers[name] = Modifier{Value: value, Duration: duration}
	e.recalculate()
	return true
}

// RemoveActionModifier deletes a named modifier.
func (m *Manager) RemoveActionModifier(id, name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	if _, ok := e.modifiers[name]; !ok {
		return false
	}
	delete(e.modifiers, name)
	e.recalculate()
	return true
}

// UpdateActionModifiers ages every timed modifier by one tick and returns
// the names of those that expired, sorted.
func (m *Manager) UpdateActionModifiers(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil
	}

	var expired []string
	for name, mod := range e.modifiers {
		if mod.Duration <= 0 {
			continue
		}
		mod.Duration--
		if mod.Duration == 0 {
			delete(e.modifiers, name)
			expired = append(expired, name)
			continue
		}
		e.modifiers[name] = mod
	}
	if len(expired) > 0 {
		e.recalculate()
		sort.Strings(expired)
	}
	return expired
}

// IsStunned reports whether id carries the stunned modifier.
func (m *Manager) IsStunned(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	_, stunned := e.modifiers[Stunned]
	return stunned
}

// GenerateAction accrues current_rate * tickTime points and returns the
// new balance. Stunned combatants gain nothing.
func (m *Manager) GenerateAction(id string, tickTime float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return 0
	}
	if _, stunned := e.modifiers[Stunned]; stunned || tickTime <= 0 {
		return e.currentAction
	}
	e.currentAction += e.currentRate * tickTime
	return e.currentAction
}

// ConsumeAction spends amount if the balance covers it. On failure nothing
// changes.
func (m *Manager) ConsumeAction(id string, amount float64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || e.currentAction < amount {
		return false
	}
	e.currentAction -= amount
	if e.currentAction < 0 {
		e.currentAction = 0
	}
	return true
}

// ReduceAction removes up to amount points and returns what was removed.
func (m *Manager) ReduceAction(id string, amount float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || amount <= 0 {
		return 0
	}
	removed := min(amount, e.currentAction)
	e.currentAction -= removed
	return removed
}

// CurrentAction returns the balance for id, or 0 if unknown.
func (m *Manager) CurrentAction(id string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.currentAction
	}
	return 0
}

// ActionRate returns the modified rate for id, or 0 if unknown.
func (m *Manager) ActionRate(id string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.currentRate
	}
	return 0
}

// SetSkillSequence replaces the preferred-skill queue and primes the next
// skill from its head.
func (m *Manager) SetSkillSequence(id string, skills []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	e.sequence = append([]string(nil), skills...)
	e.prime()
	return true
}

// SkillSequence returns a copy of the queue.
func (m *Manager) SkillSequence(id string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return append([]string(nil), e.sequence...)
	}
	return nil
}

// UpdateSkillSequence sets the next skill to the head of the queue without
// rotating it.
func (m *Manager) UpdateSkillSequence(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return ""
	}
	e.prime()
	return e.nextSkill
}

// CycleSkillSequence moves the head of the queue to the back and returns
// the skill that was at the head. The new head becomes the next skill.
func (m *Manager) CycleSkillSequence(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok || len(e.sequence) == 0 {
		return ""
	}
	head := e.sequence[0]
	e.sequence = append(e.sequence[1:], head)
	e.nextSkill = e.sequence[0]
	return head
}

// SetNextSkill overrides the next skill.
func (m *Manager) SetNextSkill(id, skillID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	e.nextSkill = skillID
	return true
}

// NextSkill returns the primed next skill, or "".
func (m *Manager) NextSkill(id string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		return e.nextSkill
	}
	return ""
}

// Snapshot returns a copy of id's state.
func (m *Manager) Snapshot(id string) (State, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return State{}, false
	}
	mods := make(map[string]Modifier, len(e.modifiers))
	for k, v := range e.modifiers {
		mods[k] = v
	}
	return State{
		BaseRate:      e.baseRate,
		CurrentRate:   e.currentRate,
		CurrentAction: e.currentAction,
		Modifiers:     mods,
		SkillSequence: append([]string(nil), e.sequence...),
		NextSkill:     e.nextSkill,
	}, true
}

func (e *entry) recalculate() {
	total := 0.0
	for _, mod := range e.modifiers {
		total += mod.Value
	}
	e.currentRate = max(0, e.baseRate*(1+total))
}

func (e *entry) prime() {
	if len(e.sequence) == 0 {
		e.nextSkill = ""
		return
	}
	e.nextSkill = e.sequence[0]
}
