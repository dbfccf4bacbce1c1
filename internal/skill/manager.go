package skill

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"

	"github.com/samdwyer/skirmish/internal/effect"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/logger"
)

// ErrUnknownSkill is returned when a skill id is not in the catalog.
var ErrUnknownSkill = errors.New("unknown skill")

// EffectRecord is one raw effect entry of a skill record.
type EffectRecord struct {
	Type   string         `mapstructure:"type"`
	Params map[string]any `mapstructure:"params"`
}

// Record is the raw, not yet validated form of a skill.
type Record struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	EnergyCost  int            `mapstructure:"energy_cost"`
	ActionCost  float64        `mapstructure:"action_cost"`
	Cooldown    int            `mapstructure:"cooldown"`
	Effects     []EffectRecord `mapstructure:"effects"`
	Conditions  []Condition    `mapstructure:"conditions"`
	Sound       string         `mapstructure:"sound"`
	Category    string         `mapstructure:"category"`
	Tags        []string       `mapstructure:"tags"`
}

// NewRecord returns a record holding the default action cost and category.
func NewRecord() Record {
	return Record{ActionCost: 5.0, Category: "general"}
}

// DecodeRecord decodes a data-table entry over the defaults.
func DecodeRecord(data map[string]any) (Record, error) {
	rec := NewRecord()
	if err := mapstructure.WeakDecode(data, &rec); err != nil {
		return rec, err
	}
	return rec, nil
}

// ValidationError lists every problem found in a skill definition.
type ValidationError struct {
	SkillID  string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid skill %q: %s", e.SkillID, strings.Join(e.Problems, "; "))
}

// Manager is the skill catalog. Build it once, then share it read-only.
type Manager struct {
	decoders map[effect.Kind]effect.Decoder
	skills   map[string]*Skill
	log      *logrus.Entry
}

// NewManager creates an empty catalog with no effect types registered.
func NewManager() *Manager {
	return &Manager{
		decoders: make(map[effect.Kind]effect.Decoder),
		skills:   make(map[string]*Skill),
		log:      logger.For("skill"),
	}
}

// RegisterEffect wires an effect type name to its decoder.
func (m *Manager) RegisterEffect(kind effect.Kind, dec effect.Decoder) {
	m.decoders[kind] = dec
}

// RegisterDefaultEffects wires the built-in damage, healing, buff, status
// and multi_hit effects.
func (m *Manager) RegisterDefaultEffects() {
	for kind, dec := range effect.Defaults() {
		m.RegisterEffect(kind, dec)
	}
}

// CreateSkill validates rec and registers the result under id, replacing
// any skill with the same id. An invalid record is not registered.
func (m *Manager) CreateSkill(id string, rec Record) (*Skill, error) {
	var problems []string
	if rec.Name == "" {
		problems = append(problems, "Skill data missing required field: name")
	}
	if rec.Description == "" {
		problems = append(problems, "Skill data missing required field: description")
	}
	if rec.EnergyCost < 0 || rec.ActionCost < 0 || rec.Cooldown < 0 {
		problems = append(problems, "Skill costs and cooldown must not be negative")
	}
	if len(rec.Effects) == 0 {
		problems = append(problems, "Skill must have at least one effect")
	}

	effects := make([]effect.Effect, 0, len(rec.Effects))
	for i, er := range rec.Effects {
		if er.Type == "" {
			problems = append(problems, "Effect missing required field: type")
			continue
		}
		if er.Params == nil {
			problems = append(problems, fmt.Sprintf("Effect of type %s missing required field: params", er.Type))
			continue
		}
		dec, ok := m.decoders[effect.Kind(er.Type)]
		if !ok {
			problems = append(problems, "Unknown effect type: "+er.Type)
			continue
		}
		e, err := dec(er.Params)
		if err != nil {
			problems = append(problems, fmt.Sprintf("Effect %d (%s): %v", i+1, er.Type, err))
			continue
		}
		effects = append(effects, e)
	}

	for _, c := range rec.Conditions {
		if p := c.problem(); p != "" {
			problems = append(problems, p)
		}
	}

	if len(problems) > 0 {
		return nil, &ValidationError{SkillID: id, Problems: problems}
	}

	s := &Skill{
		ID:          id,
		Name:        rec.Name,
		Description: rec.Description,
		EnergyCost:  rec.EnergyCost,
		ActionCost:  rec.ActionCost,
		Cooldown:    rec.Cooldown,
		Effects:     effects,
		Conditions:  append([]Condition(nil), rec.Conditions...),
		Sound:       rec.Sound,
		Category:    rec.Category,
		Tags:        append([]string(nil), rec.Tags...),
	}
	m.skills[id] = s
	return s, nil
}

// CreateSkillFromData decodes a raw data-table entry and creates the skill.
func (m *Manager) CreateSkillFromData(id string, data map[string]any) (*Skill, error) {
	rec, err := DecodeRecord(data)
	if err != nil {
		return nil, &ValidationError{SkillID: id, Problems: []string{err.Error()}}
	}
	return m.CreateSkill(id, rec)
}

// LoadAll creates every skill in tables, logging and skipping invalid
// entries. It returns how many skills were registered.
func (m *Manager) LoadAll(tables *gamedata.SkillTables) int {
	for name := range tables.Effects {
		if _, ok := m.decoders[effect.Kind(name)]; !ok {
			m.log.WithField("effect", name).Warn("effect type documented in data has no decoder")
		}
	}

	loaded := 0
	for _, id := range tables.IDs() {
		data, err := tables.Resolve(id)
		if err != nil {
			m.log.WithFields(logrus.Fields{"skill": id, "error": err}).Warn("skipping skill")
			continue
		}
		if _, err := m.CreateSkillFromData(id, data); err != nil {
			m.log.WithFields(logrus.Fields{"skill": id, "error": err}).Warn("skipping invalid skill")
			continue
		}
		loaded++
	}
	m.log.WithField("count", loaded).Info("skills loaded")
	return loaded
}

// Get returns the skill with the given id, or nil.
func (m *Manager) Get(id string) *Skill {
	return m.skills[id]
}

// Lookup returns the skill with the given id or ErrUnknownSkill.
func (m *Manager) Lookup(id string) (*Skill, error) {
	if s := m.skills[id]; s != nil {
		return s, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, id)
}

// GetMultiple returns the skills for ids in order. Unknown ids are skipped.
func (m *Manager) GetMultiple(ids []string) []*Skill {
	result := make([]*Skill, 0, len(ids))
	for _, id := range ids {
		if s := m.skills[id]; s != nil {
			result = append(result, s)
		}
	}
	return result
}

// ByCategory returns every skill in category, sorted by id.
func (m *Manager) ByCategory(category string) []*Skill {
	return m.filter(func(s *Skill) bool { return s.Category == category })
}

// ByTag returns every skill carrying tag, sorted by id.
func (m *Manager) ByTag(tag string) []*Skill {
	return m.filter(func(s *Skill) bool { return s.HasTag(tag) })
}

// All returns every skill sorted by id.
func (m *Manager) All() []*Skill {
	return m.filter(func(*Skill) bool { return true })
}

// Categories returns the distinct categories in use, sorted.
func (m *Manager) Categories() []string {
	seen := make(map[string]bool)
	for _, s := range m.skills {
		seen[s.Category] = true
	}
	return sortedSet(seen)
}

// Tags returns the distinct tags in use, sorted.
func (m *Manager) Tags() []string {
	seen := make(map[string]bool)
	for _, s := range m.skills {
		for _, t := range s.Tags {
			seen[t] = true
		}
	}
	return sortedSet(seen)
}

// Count returns the number of registered skills.
func (m *Manager) Count() int {
	return len(m.skills)
}

func (m *Manager) filter(keep func(*Skill) bool) []*Skill {
	var result []*Skill
	for _, s := range m.skills {
		if keep(s) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func sortedSet(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
