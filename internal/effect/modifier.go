package effect

import (
	"fmt"
	"math/rand"
)

// Buff sets a timed bonus on the target. A second application of the same
// buff type replaces the first.
type Buff struct {
	BuffType string  `mapstructure:"buff_type"`
	Value    float64 `mapstructure:"value"`
	Duration int     `mapstructure:"duration"`
	Text     `mapstructure:",squash"`
	Target   string  `mapstructure:"target"`
}

// DecodeBuff builds a Buff effect, defaulting to +1 defense for 3 rounds.
func DecodeBuff(params map[string]any) (Effect, error) {
	b := &Buff{BuffType: "defense", Value: 1, Duration: 3}
	if err := decodeParams(params, b); err != nil {
		return nil, err
	}
	if b.Duration < 1 {
		return nil, fmt.Errorf("buff duration must be at least 1, got %d", b.Duration)
	}
	return b, checkSide(b.Target)
}

func (b *Buff) Kind() Kind   { return KindBuff }
func (b *Buff) OnSelf() bool { return b.Target == SideSelf }
func (b *Buff) sealed()      {}

func (b *Buff) Apply(_ *rand.Rand, src Source, dst Target) Outcome {
	dst.ApplyBuff(b.BuffType, b.Value, b.Duration)
	fields := map[string]any{
		"buff_type": b.BuffType,
		"value":     b.Value,
		"duration":  b.Duration,
	}
	return Outcome{
		Kind:    KindBuff,
		Fields:  fields,
		Message: message(b.Text, "{target} gains {value} {buff_type} for {duration} turns!", fields, src, dst),
	}
}

// Status inflicts a timed ailment (poison, regeneration, stunned, slowed)
// with probability Chance.
type Status struct {
	StatusType string  `mapstructure:"status_type"`
	Value      float64 `mapstructure:"value"`
	Duration   int     `mapstructure:"duration"`
	Chance     float64 `mapstructure:"chance"`
	Text       `mapstructure:",squash"`
	Target     string  `mapstructure:"target"`
}

// DecodeStatus builds a Status effect, defaulting to a certain 1-point
// poison for 3 rounds.
func DecodeStatus(params map[string]any) (Effect, error) {
	s := &Status{StatusType: "poison", Value: 1, Duration: 3, Chance: 1.0}
	if err := decodeParams(params, s); err != nil {
		return nil, err
	}
	if s.Duration < 1 {
		return nil, fmt.Errorf("status duration must be at least 1, got %d", s.Duration)
	}
	if s.Chance < 0 || s.Chance > 1 {
		return nil, fmt.Errorf("status chance must be within [0, 1], got %v", s.Chance)
	}
	return s, checkSide(s.Target)
}

func (s *Status) Kind() Kind   { return KindStatus }
func (s *Status) OnSelf() bool { return s.Target == SideSelf }
func (s *Status) sealed()      {}

func (s *Status) Apply(rng *rand.Rand, src Source, dst Target) Outcome {
	if rng.Float64() > s.Chance {
		fields := map[string]any{"status_applied": false, "status_type": s.StatusType}
		return Outcome{
			Kind:    KindStatus,
			Fields:  fields,
			Message: message(Text{params: s.params}, "{user} failed to apply {status_type} to {target}!", fields, src, dst),
		}
	}

	dst.ApplyStatus(s.StatusType, s.Value, s.Duration)
	fields := map[string]any{
		"status_applied": true,
		"status_type":    s.StatusType,
		"value":          s.Value,
		"duration":       s.Duration,
	}
	return Outcome{
		Kind:    KindStatus,
		Fields:  fields,
		Message: message(s.Text, "{target} is afflicted with {status_type} for {duration} turns!", fields, src, dst),
	}
}
