// Package effect computes the outcome of a single skill effect: damage,
// healing, buffs, status ailments and multi-hit attacks.
//
// Effects are decoded once from data tables into typed values and then
// applied any number of times. All randomness comes from the caller's
// *rand.Rand so battles are reproducible from a seed.
package effect

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/go-viper/mapstructure/v2"
)

// Kind names an effect variant as written in data tables.
type Kind string

const (
	KindDamage   Kind = "damage"
	KindHealing  Kind = "healing"
	KindBuff     Kind = "buff"
	KindStatus   Kind = "status"
	KindMultiHit Kind = "multi_hit"
)

// Side values for the optional "target" param.
const (
	SideTarget = "target"
	SideSelf   = "self"
)


// Source is the combatant using a skill.
type Source interface {
	Name() string
	Stat(name string) int
	WeaponDamage() int
}

// Target is the combatant receiving an effect. TakeDamage applies the
// target's own mitigation and returns the hp actually lost.
type Target interface {
	Name() string
	TakeDamage(amount int) int
	Heal(amount int) int
	ApplyBuff(buffType string, value float64, duration int)
	ApplyStatus(statusType string, value float64, duration int)
}

// Effect is one decoded effect. The set of implementations is closed:
// Damage, Healing, Buff, Status and MultiHit.
type Effect interface {
	Kind() Kind
	// OnSelf reports whether the effect lands on the user instead of the
	// opposing target.
	OnSelf() bool
	Apply(rng *rand.Rand, src Source, dst Target) Outcome
	sealed()
}

// Hit is one landed strike of a multi-hit effect.
type Hit struct {
	Hit    int `json:"hit"`
	Damage int `json:"damage"`
}

// Outcome is what applying an effect produced. Fields carries the flat
// key/value view consumed by message templates and result merging.
type Outcome struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	Hits    []Hit
}

// Damage returns the hp the effect removed, or 0.
func (o Outcome) Damage() int {
	v, _ := o.Fields["damage"].(int)
	return v
}

// Healing returns the hp the effect restored, or 0.
func (o Outcome) Healing() int {
	v, _ := o.Fields["healing"].(int)
	return v
}

// Decoder builds an Effect from a raw params map.
type Decoder func(params map[string]any) (Effect, error)

// Defaults returns a fresh map of the built-in decoders.
func Defaults() map[Kind]Decoder {
	return map[Kind]Decoder{
		KindDamage:   DecodeDamage,
		KindHealing:  DecodeHealing,
		KindBuff:     DecodeBuff,
		KindStatus:   DecodeStatus,
		KindMultiHit: DecodeMultiHit,
	}
}

// Kinds returns the built-in kinds in sorted order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, 5)
	for k := range Defaults() {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// decodeParams fills out from params, keeping any preset defaults for
// absent keys. Unknown keys are rejected so data typos surface at load.
func decodeParams(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return err
	}
	if t, ok := out.(interface{ setParams(map[string]any) }); ok {
		t.setParams(params)
	}
	return nil
}

func checkSide(side string) error {
	switch side {
	case "", SideTarget, SideSelf:
		return nil
	}
	return fmt.Errorf("target must be %q or %q, got %q", SideTarget, SideSelf, side)
}

// roll draws a multiplier uniformly from [lo, hi].
func roll(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// atLeastOne truncates v and floors the result at 1.
func atLeastOne(v float64) int {
	n := int(v)
	if n < 1 {
		return 1
	}
	return n
}
