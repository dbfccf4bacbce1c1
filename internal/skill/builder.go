package skill

import "github.com/samdwyer/skirmish/internal/effect"

// Builder assembles a skill record in code.
//
//	s, err := skill.NewBuilder("cleave").
//		Name("Cleave").
//		Description("A wide swing.").
//		ActionCost(6).
//		Damage(map[string]any{"base_value": 8}).
//		Build(manager)
type Builder struct {
	id  string
	rec Record
}

// NewBuilder starts a record with the default cost and category.
func NewBuilder(id string) *Builder {
	return &Builder{id: id, rec: NewRecord()}
}

func (b *Builder) Name(name string) *Builder {
	b.rec.Name = name
	return b
}

func (b *Builder) Description(desc string) *Builder {
	b.rec.Description = desc
	return b
}

func (b *Builder) EnergyCost(cost int) *Builder {
	b.rec.EnergyCost = cost
	return b
}

func (b *Builder) ActionCost(cost float64) *Builder {
	b.rec.ActionCost = cost
	return b
}

func (b *Builder) Cooldown(rounds int) *Builder {
	b.rec.Cooldown = rounds
	return b
}

func (b *Builder) Sound(sound string) *Builder {
	b.rec.Sound = sound
	return b
}

func (b *Builder) Category(category string) *Builder {
	b.rec.Category = category
	return b
}

func (b *Builder) Tags(tags ...string) *Builder {
	b.rec.Tags = append(b.rec.Tags, tags...)
	return b
}

// Effect appends an effect of any registered kind.
func (b *Builder) Effect(kind effect.Kind, params map[string]any) *Builder {
	if params == nil {
		params = map[string]any{}
	}
	b.rec.Effects = append(b.rec.Effects, EffectRecord{Type: string(kind), Params: params})
	return b
}

func (b *Builder) Damage(params map[string]any) *Builder {
	return b.Effect(effect.KindDamage, params)
}

func (b *Builder) Healing(params map[string]any) *Builder {
	return b.Effect(effect.KindHealing, params)
}

func (b *Builder) Buff(buffType string, value float64, duration int) *Builder {
	return b.Effect(effect.KindBuff, map[string]any{
		"buff_type": buffType,
		"value":     value,
		"duration":  duration,
	})
}

func (b *Builder) Status(statusType string, value float64, duration int, chance float64) *Builder {
	return b.Effect(effect.KindStatus, map[string]any{
		"status_type": statusType,
		"value":       value,
		"duration":    duration,
		"chance":      chance,
	})
}

func (b *Builder) MultiHit(params map[string]any) *Builder {
	return b.Effect(effect.KindMultiHit, params)
}

func (b *Builder) MinStat(stat string, value int) *Builder {
	b.rec.Conditions = append(b.rec.Conditions, Condition{Type: ConditionMinStat, Stat: stat, Value: value})
	return b
}

func (b *Builder) RequiredItem(itemType string) *Builder {
	b.rec.Conditions = append(b.rec.Conditions, Condition{Type: ConditionRequiredItem, ItemType: itemType})
	return b
}

// ID returns the id the skill will be registered under.
func (b *Builder) ID() string { return b.id }

// Record returns the assembled record.
func (b *Builder) Record() Record { return b.rec }

// Build validates and registers the skill with m.
func (b *Builder) Build(m *Manager) (*Skill, error) {
	return m.CreateSkill(b.id, b.rec)
}
