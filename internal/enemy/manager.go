package enemy

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/go-viper/mapstructure/v2"
	"github.com/sirupsen/logrus"

	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/logger"
	"github.com/samdwyer/skirmish/internal/skill"
)

var (
	// ErrUnknownEnemy is returned when an enemy id is not in the catalog.
	ErrUnknownEnemy = errors.New("unknown enemy")
	// ErrNoEnemies is returned when no catalog entry can be spawned.
	ErrNoEnemies = errors.New("no enemies available")
)

const (
	levelTag        = "Lv."
	defaultGlyph    = 'e'
	basicAttackID   = "basic_attack"
	defaultBehavior = BehaviorRandom
)

var defaultColor = tcell.ColorRed

// Record is the decoded form of a resolved enemy table entry.
type Record struct {
	Name          string         `mapstructure:"name"`
	Level         int            `mapstructure:"level"`
	BaseStats     map[string]int `mapstructure:"base_stats"`
	MaxHP         int            `mapstructure:"max_hp"`
	Damage        *int           `mapstructure:"damage"`
	Defense       *int           `mapstructure:"defense"`
	Skills        []string       `mapstructure:"skills"`
	SkillWeights  map[string]int `mapstructure:"skill_weights"`
	SkillSequence []string       `mapstructure:"skill_sequence"`
	ActionSpeed   float64        `mapstructure:"action_speed"`
	Behavior      string         `mapstructure:"behavior"`
	Glyph         string         `mapstructure:"glyph"`
}

// Manager builds enemies from the catalog, binding their skills from the
// skill catalog.
type Manager struct {
	catalog *gamedata.EnemyCatalog
	skills  *skill.Manager
	log     *logrus.Entry
}

// NewManager creates an enemy factory.
func NewManager(catalog *gamedata.EnemyCatalog, skills *skill.Manager) *Manager {
	return &Manager{
		catalog: catalog,
		skills:  skills,
		log:     logger.For("enemy"),
	}
}

// Catalog returns the underlying catalog.
func (m *Manager) Catalog() *gamedata.EnemyCatalog { return m.catalog }

// CreateEnemy builds the enemy with the given id. A positive level
// overrides the table level and rescales level-derived defaults.
func (m *Manager) CreateEnemy(id string, level int) (*Enemy, error) {
	entry := m.catalog.GetByID(id)
	if entry == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEnemy, id)
	}
	return m.FromRecord(id, entry.Data, level)
}

// CreateRandomEnemy spawns a weighted random enemy eligible for
// playerLevel, at the given level (or its table level when level <= 0).
func (m *Manager) CreateRandomEnemy(rng *rand.Rand, level, playerLevel int) (*Enemy, error) {
	entry := gamedata.SpawnRandom(rng, m.catalog.Eligible(playerLevel))
	if entry == nil {
		return nil, ErrNoEnemies
	}
	return m.FromRecord(entry.ID, entry.Data, level)
}

// FromRecord builds an enemy from a resolved record.
func (m *Manager) FromRecord(id string, data gamedata.Record, level int) (*Enemy, error) {
	var rec Record
	if err := mapstructure.WeakDecode(data, &rec); err != nil {
		return nil, fmt.Errorf("enemy %s: %w", id, err)
	}

	if rec.Name == "" {
		rec.Name = id
	}
	rec.Level = max(rec.Level, 1)
	if level > 0 && level != rec.Level {
		rec.Level = level
		rec.Name = renameLevel(rec.Name, level)
	}

	stats := make(map[string]int, len(entity.StatNames))
	for _, name := range entity.StatNames {
		if v, ok := rec.BaseStats[name]; ok {
			stats[name] = v
		} else {
			stats[name] = 8 + rec.Level
		}
	}

	maxHP := rec.MaxHP
	if maxHP <= 0 {
		maxHP = 30 + stats[entity.StatConstitution]*3 + (rec.Level-1)*15
	}

	c := entity.NewCombatant(rec.Name, rec.Level, stats, maxHP)
	c.SetBaseDamage(valueOr(rec.Damage, 2+rec.Level))
	c.SetBaseDefense(valueOr(rec.Defense, rec.Level/2))

	e := &Enemy{
		Combatant:     c,
		TypeID:        id,
		Behavior:      rec.Behavior,
		SkillWeights:  rec.SkillWeights,
		SkillSequence: rec.SkillSequence,
		ActionSpeed:   rec.ActionSpeed,
		Glyph:         defaultGlyph,
		Color:         gamedata.RecordColor(data, defaultColor),
	}
	if e.ActionSpeed <= 0 {
		e.ActionSpeed = 1.0
	}
	if r := []rune(rec.Glyph); len(r) > 0 {
		e.Glyph = r[0]
	}

	if e.Behavior == "" {
		e.Behavior = defaultBehavior
	}
	strategy, ok := LookupBehavior(e.Behavior)
	if !ok {
		m.log.WithFields(logrus.Fields{
			"enemy":    id,
			"behavior": e.Behavior,
			"known":    Behaviors(),
		}).Warn("unknown behavior, using random")
		e.Behavior = defaultBehavior
		strategy = chooseRandom
	}
	e.strategy = strategy

	ids := rec.Skills
	if len(ids) == 0 {
		ids = []string{basicAttackID}
	}
	for _, s := range m.skills.GetMultiple(ids) {
		c.LearnSkill(s)
	}
	if len(c.Skills()) == 0 {
		s, err := m.basicAttack()
		if err != nil {
			return nil, fmt.Errorf("enemy %s: %w", id, err)
		}
		c.LearnSkill(s)
	}

	m.log.WithFields(logrus.Fields{
		"enemy":    id,
		"level":    rec.Level,
		"max_hp":   maxHP,
		"behavior": e.Behavior,
		"skills":   len(c.Skills()),
	}).Debug("enemy created")
	return e, nil
}

// basicAttack returns the catalog's basic attack, creating it if the
// catalog lacks one.
func (m *Manager) basicAttack() (*skill.Skill, error) {
	if s := m.skills.Get(basicAttackID); s != nil {
		return s, nil
	}
	return skill.NewBuilder(basicAttackID).
		Name("Basic Attack").
		Description("A simple attack with your weapon.").
		ActionCost(3).
		Category("attack").
		Tags("damage", "melee").
		Damage(map[string]any{"base_value": 5, "weapon_scaling": 1.0, "stat_scaling": map[string]any{entity.StatStrength: 0.3}}).
		Build(m.skills)
}

// renameLevel replaces the level suffix of names like "Goblin Lv.1".
func renameLevel(name string, level int) string {
	i := strings.LastIndex(name, levelTag)
	if i < 0 {
		return name
	}
	return name[:i] + levelTag + strconv.Itoa(level)
}

func valueOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
