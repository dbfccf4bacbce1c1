package gamedata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// ParseHexColor converts "#RRGGBB" to a tcell.Color. The leading # is
// optional.
func ParseHexColor(hex string) (tcell.Color, error) {
	digits := strings.TrimPrefix(hex, "#")
	if len(digits) != 6 {
		return tcell.ColorDefault, fmt.Errorf("color %q: want 6 hex digits", hex)
	}
	rgb, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return tcell.ColorDefault, fmt.Errorf("color %q: %w", hex, err)
	}
	return tcell.NewHexColor(int32(rgb)), nil
}

// RecordColor returns the "color" field of a record as a tcell.Color, or
// fallback when the field is absent or malformed.
func RecordColor(rec Record, fallback tcell.Color) tcell.Color {
	hex, _ := rec["color"].(string)
	if hex == "" {
		return fallback
	}
	color, err := ParseHexColor(hex)
	if err != nil {
		return fallback
	}
	return color
}
