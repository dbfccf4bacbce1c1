package effect

import (
	"fmt"
	"math"
	"math/rand"
)

// Scaling is the shared power formula of damage, healing and multi-hit:
// base_value plus weapon and stat contributions, times a variance roll.
type Scaling struct {
	BaseValue     float64            `mapstructure:"base_value"`
	StatScaling   map[string]float64 `mapstructure:"stat_scaling"`
	WeaponScaling float64            `mapstructure:"weapon_scaling"`
	VarianceMin   float64            `mapstructure:"variance_min"`
	VarianceMax   float64            `mapstructure:"variance_max"`
}

// Power returns the pre-variance value for src.
func (s Scaling) Power(src Source, withWeapon bool) float64 {
	power := s.BaseValue
	if withWeapon && s.WeaponScaling > 0 {
		power += float64(int(float64(src.WeaponDamage()) * s.WeaponScaling))
	}
	for stat, scale := range s.StatScaling {
		power += float64(src.Stat(stat)) * scale
	}
	return power
}

func (s Scaling) validate() error {
	if s.VarianceMin < 0 || s.VarianceMax < s.VarianceMin {
		return fmt.Errorf("variance bounds [%v, %v] are invalid", s.VarianceMin, s.VarianceMax)
	}
	return nil
}

// Damage hits the target once.
type Damage struct {
	Scaling `mapstructure:",squash"`
	Text    `mapstructure:",squash"`
	Target  string `mapstructure:"target"`
}

// DecodeDamage builds a Damage effect. Variance defaults to 0.8–1.2.
func DecodeDamage(params map[string]any) (Effect, error) {
	d := &Damage{Scaling: Scaling{VarianceMin: 0.8, VarianceMax: 1.2}}
	if err := decodeParams(params, d); err != nil {
		return nil, err
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return d, checkSide(d.Target)
}

func (d *Damage) Kind() Kind   { return KindDamage }
func (d *Damage) OnSelf() bool { return d.Target == SideSelf }
func (d *Damage) sealed()      {}

// Roll returns the pre-mitigation damage for one use.
func (d *Damage) Roll(rng *rand.Rand, src Source) int {
	return atLeastOne(d.Power(src, true) * roll(rng, d.VarianceMin, d.VarianceMax))
}

func (d *Damage) Apply(rng *rand.Rand, src Source, dst Target) Outcome {
	dealt := dst.TakeDamage(d.Roll(rng, src))
	fields := map[string]any{"damage": dealt}
	return Outcome{
		Kind:    KindDamage,
		Fields:  fields,
		Message: message(d.Text, "{user} deals {damage} damage to {target}!", fields, src, dst),
	}
}

// Healing restores hp. Weapons do not contribute.
type Healing struct {
	Scaling `mapstructure:",squash"`
	Text    `mapstructure:",squash"`
	Target  string `mapstructure:"target"`
}

// DecodeHealing builds a Healing effect. Variance defaults to 0.9–1.1.
func DecodeHealing(params map[string]any) (Effect, error) {
	h := &Healing{Scaling: Scaling{VarianceMin: 0.9, VarianceMax: 1.1}}
	if err := decodeParams(params, h); err != nil {
		return nil, err
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, checkSide(h.Target)
}

func (h *Healing) Kind() Kind   { return KindHealing }
func (h *Healing) OnSelf() bool { return h.Target == SideSelf }
func (h *Healing) sealed()      {}

func (h *Healing) Apply(rng *rand.Rand, src Source, dst Target) Outcome {
	amount := atLeastOne(h.Power(src, false) * roll(rng, h.VarianceMin, h.VarianceMax))
	healed := dst.Heal(amount)
	fields := map[string]any{"healing": healed}
	return Outcome{
		Kind:    KindHealing,
		Fields:  fields,
		Message: message(h.Text, "{user} heals {target} for {healing} health!", fields, src, dst),
	}
}

// MultiHit strikes a variable number of times, each hit scaled by
// damage_scaling raised to the hit index.
type MultiHit struct {
	Scaling       `mapstructure:",squash"`
	MinHits       int     `mapstructure:"min_hits"`
	MaxHits       int     `mapstructure:"max_hits"`
	HitChance     float64 `mapstructure:"hit_chance"`
	DamageScaling float64 `mapstructure:"damage_scaling"`
	Text          `mapstructure:",squash"`
	Target        string  `mapstructure:"target"`
}

// DecodeMultiHit builds a MultiHit effect with one guaranteed hit by default.
func DecodeMultiHit(params map[string]any) (Effect, error) {
	m := &MultiHit{
		Scaling:       Scaling{VarianceMin: 0.8, VarianceMax: 1.2},
		MinHits:       1,
		MaxHits:       1,
		HitChance:     1.0,
		DamageScaling: 1.0,
	}
	if err := decodeParams(params, m); err != nil {
		return nil, err
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	if m.MinHits < 0 || m.MaxHits < m.MinHits {
		return nil, fmt.Errorf("hit range [%d, %d] is invalid", m.MinHits, m.MaxHits)
	}
	return m, checkSide(m.Target)
}

func (m *MultiHit) Kind() Kind   { return KindMultiHit }
func (m *MultiHit) OnSelf() bool { return m.Target == SideSelf }
func (m *MultiHit) sealed()      {}

// HitCount rolls how many strikes land.
func (m *MultiHit) HitCount(rng *rand.Rand) int {
	if m.MinHits == m.MaxHits {
		return m.MinHits
	}
	n := 0
	for i := 0; i < m.MaxHits; i++ {
		if rng.Float64() < m.HitChance {
			n++
		}
	}
	return max(n, m.MinHits)
}

func (m *MultiHit) Apply(rng *rand.Rand, src Source, dst Target) Outcome {
	power := m.Power(src, true)
	count := m.HitCount(rng)

	hits := make([]Hit, 0, count)
	total := 0
	for i := 0; i < count; i++ {
		raw := atLeastOne(power * math.Pow(m.DamageScaling, float64(i)) * roll(rng, m.VarianceMin, m.VarianceMax))
		dealt := dst.TakeDamage(raw)
		total += dealt
		hits = append(hits, Hit{Hit: i + 1, Damage: dealt})
	}

	fields := map[string]any{
		"hits":         count,
		"total_damage": total,
		"damage":       total,
		"hit_results":  hits,
	}
	fallback := "{user} hits {target} {hits} times for {total_damage} total damage!"
	if count == 1 {
		fallback = "{user} hits {target} for {total_damage} damage!"
	}
	return Outcome{
		Kind:    KindMultiHit,
		Fields:  fields,
		Hits:    hits,
		Message: message(m.Text, fallback, fields, src, dst),
	}
}
