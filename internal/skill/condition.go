package skill

// Condition kinds.
const (
	ConditionMinStat      = "min_stat"
	ConditionRequiredItem = "required_item"
)

// Condition is a usage requirement on the user.
type Condition struct {
	Type     string `mapstructure:"type"`
	Stat     string `mapstructure:"stat"`
	Value    int    `mapstructure:"value"`
	ItemType string `mapstructure:"item_type"`
}

// Holds reports whether user meets the condition. Users without equipment
// never satisfy required_item.
func (c Condition) Holds(user User) bool {
	switch c.Type {
	case ConditionMinStat:
		return user.Stat(c.Stat) >= c.Value
	case ConditionRequiredItem:
		eq, ok := user.(Equipped)
		return ok && eq.HasEquippedType(c.ItemType)
	}
	return false
}

// problem describes what is wrong with the condition, or "".
func (c Condition) problem() string {
	switch c.Type {
	case "":
		return "Condition missing required field: type"
	case ConditionMinStat:
		if c.Stat == "" {
			return "Condition min_stat missing required field: stat"
		}
	case ConditionRequiredItem:
		if c.ItemType == "" {
			return "Condition required_item missing required field: item_type"
		}
	default:
		return "Unknown condition type: " + c.Type
	}
	return ""
}
