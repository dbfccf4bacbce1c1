package entity

import (
	"errors"
	"fmt"
	"slices"

	"github.com/samdwyer/skirmish/internal/skill"
)

// MaxSequenceLength is the number of slots in a player's combat sequence.
const MaxSequenceLength = 5

// Player progression constants.
const (
	startingStat     = 10
	startingGold     = 50
	startingExpLevel = 100
	statsPerLevel    = 2
	expGrowth        = 1.5
)

var (
	ErrSequenceFull     = errors.New("combat sequence is full")
	ErrSequencePosition = errors.New("combat sequence position out of range")
	ErrUnknownSkill     = errors.New("skill not known")
	ErrNotInInventory   = errors.New("item not in inventory")
)

// Player is the user-controlled combatant.
type Player struct {
	*Combatant

	Experience        int
	ExperienceToLevel int
	Gold              int
	Inventory         []*Item

	// sequence holds up to MaxSequenceLength skills; nil marks an empty slot.
	sequence []*skill.Skill
}

// NewPlayer creates a level 1 player with starter gear.
func NewPlayer(name string) *Player {
	stats := make(map[string]int, len(StatNames))
	for _, s := range StatNames {
		stats[s] = startingStat
	}
	p := &Player{
		Combatant:         NewCombatant(name, 1, stats, 1),
		ExperienceToLevel: startingExpLevel,
		Gold:              startingGold,
	}
	p.SetMaxHP(p.computeMaxHP(), false)
	p.hp = p.maxHP

	// Starter gear goes straight on; it does not pass through the inventory.
	p.equipment[SlotWeapon] = NewWeapon("Wooden Sword", "sword", 2, 5, nil)
	p.equipment[SlotArmor] = NewArmor("Cloth Tunic", 1, 5, nil)
	return p
}

func (p *Player) computeMaxHP() int {
	return 50 + p.Stat(StatConstitution)*5 + (p.Level-1)*20
}

// =============================================================================
// Combat sequence
// =============================================================================

// CombatSequence returns the sequence slots. Empty slots are nil.
func (p *Player) CombatSequence() []*skill.Skill {
	return slices.Clone(p.sequence)
}

// SequenceAt returns the skill in slot i, or nil if the slot is empty or
// out of range.
func (p *Player) SequenceAt(i int) *skill.Skill {
	if i < 0 || i >= len(p.sequence) {
		return nil
	}
	return p.sequence[i]
}

// SetCombatSequence replaces the sequence with known skills by id. Unknown
// ids are skipped; anything past MaxSequenceLength is dropped.
func (p *Player) SetCombatSequence(ids []string) []string {
	var skipped []string
	p.sequence = p.sequence[:0]
	for _, id := range ids {
		if len(p.sequence) == MaxSequenceLength {
			skipped = append(skipped, id)
			continue
		}
		s := p.Skill(id)
		if s == nil {
			skipped = append(skipped, id)
			continue
		}
		p.sequence = append(p.sequence, s)
	}
	return skipped
}

// AddToCombatSequence places a known skill at position, or appends it when
// position is negative. Slots between the end and position are padded with
// empty slots.
func (p *Player) AddToCombatSequence(id string, position int) error {
	s := p.Skill(id)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnknownSkill, id)
	}
	if position < 0 {
		if len(p.sequence) >= MaxSequenceLength {
			return ErrSequenceFull
		}
		p.sequence = append(p.sequence, s)
		return nil
	}
	if position >= MaxSequenceLength {
		return fmt.Errorf("%w: %d", ErrSequencePosition, position)
	}
	for len(p.sequence) <= position {
		p.sequence = append(p.sequence, nil)
	}
	p.sequence[position] = s
	return nil
}

// ClearSequenceSlot empties slot i.
func (p *Player) ClearSequenceSlot(i int) {
	if i >= 0 && i < len(p.sequence) {
		p.sequence[i] = nil
	}
}

// =============================================================================
// Progression
// =============================================================================

// GainExperience adds exp and levels up as many times as it covers. It
// returns the number of levels gained.
func (p *Player) GainExperience(exp int) int {
	if exp <= 0 {
		return 0
	}
	p.Experience += exp
	levels := 0
	for p.Experience >= p.ExperienceToLevel {
		p.Experience -= p.ExperienceToLevel
		p.LevelUp()
		levels++
	}
	return levels
}

// LevelUp raises level and stats, grows the experience threshold and
// fully heals.
func (p *Player) LevelUp() {
	p.Level++
	p.ExperienceToLevel = int(float64(p.ExperienceToLevel) * expGrowth)
	p.RaiseStats(statsPerLevel)
	p.SetMaxHP(p.computeMaxHP(), false)
	p.hp = p.maxHP
}

// =============================================================================
// Equipment and inventory
// =============================================================================

// Equip moves item from the inventory into its slot. The displaced item,
// if any, goes back to the inventory. HP keeps its ratio to max HP.
func (p *Player) Equip(item *Item) error {
	idx := slices.Index(p.Inventory, item)
	if idx < 0 {
		return ErrNotInInventory
	}
	prev, err := p.equip(item)
	if err != nil {
		return err
	}
	p.Inventory = slices.Delete(p.Inventory, idx, idx+1)
	if prev != nil {
		p.Inventory = append(p.Inventory, prev)
	}
	p.SetMaxHP(p.computeMaxHP(), true)
	return nil
}

// Unequip moves the item in slot back to the inventory.
func (p *Player) Unequip(slot Slot) *Item {
	item := p.unequip(slot)
	if item == nil {
		return nil
	}
	p.Inventory = append(p.Inventory, item)
	p.SetMaxHP(p.computeMaxHP(), true)
	return item
}

// AddItem puts item in the inventory.
func (p *Player) AddItem(item *Item) {
	if item != nil {
		p.Inventory = append(p.Inventory, item)
	}
}

// UseItem consumes a consumable from the inventory and returns the HP healed.
func (p *Player) UseItem(item *Item) (int, error) {
	idx := slices.Index(p.Inventory, item)
	if idx < 0 {
		return 0, ErrNotInInventory
	}
	if !item.IsConsumable() {
		return 0, fmt.Errorf("%s cannot be used", item.Name)
	}
	p.Inventory = slices.Delete(p.Inventory, idx, idx+1)
	return p.Heal(item.Healing), nil
}
