package entity

// Slot is an equipment slot.
type Slot string

const (
	SlotWeapon    Slot = "weapon"
	SlotArmor     Slot = "armor"
	SlotHelmet    Slot = "helmet"
	SlotBoots     Slot = "boots"
	SlotAccessory Slot = "accessory"
)

// Slots lists every equipment slot in display order.
var Slots = []Slot{SlotWeapon, SlotArmor, SlotHelmet, SlotBoots, SlotAccessory}

// ValidSlot reports whether s is an equipment slot.
func ValidSlot(s Slot) bool {
	for _, slot := range Slots {
		if slot == s {
			return true
		}
	}
	return false
}

// Item is anything a player can carry. Equipment has a Slot; consumables
// have Healing and no Slot.
type Item struct {
	Name        string         `json:"name"`
	Value       int            `json:"value"`
	Slot        Slot           `json:"slot,omitempty"`
	Type        string         `json:"type,omitempty"` // e.g. "sword", "potion"
	StatBonuses map[string]int `json:"stat_bonuses,omitempty"`
	Damage      int            `json:"damage,omitempty"`
	Defense     int            `json:"defense,omitempty"`
	Healing     int            `json:"healing,omitempty"`
}

// IsEquipment reports whether the item can be equipped.
func (i *Item) IsEquipment() bool {
	return ValidSlot(i.Slot)
}

// IsConsumable reports whether the item is used up on use.
func (i *Item) IsConsumable() bool {
	return i.Slot == "" && i.Healing > 0
}

// NewWeapon creates a weapon.
func NewWeapon(name, weaponType string, damage, value int, bonuses map[string]int) *Item {
	return &Item{Name: name, Value: value, Slot: SlotWeapon, Type: weaponType, Damage: damage, StatBonuses: bonuses}
}

// NewArmor creates body armor.
func NewArmor(name string, defense, value int, bonuses map[string]int) *Item {
	return &Item{Name: name, Value: value, Slot: SlotArmor, Type: "armor", Defense: defense, StatBonuses: bonuses}
}

// NewHealthPotion creates the Minor Health Potion dropped by defeated enemies.
func NewHealthPotion() *Item {
	return &Item{Name: "Minor Health Potion", Value: 20, Type: "potion", Healing: 30}
}
