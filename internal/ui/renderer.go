package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/entity"
)

const (
	barWidth   = 20
	panelWidth = 38
	headerRows = 7
)

var (
	textStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	dimStyle    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	titleStyle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	hpStyle     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	lowHPStyle  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	actionStyle = tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue)
)

// Renderer handles drawing battles to the screen.
type Renderer struct {
	screen *Screen
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen) *Renderer {
	return &Renderer{screen: screen}
}

// RenderBattle draws both combatants and as much of the battle log as fits.
func (r *Renderer) RenderBattle(m *combat.Manager, footer string) {
	r.screen.Clear()
	_, height := r.screen.Size()

	p := m.Player()
	r.screen.DrawText(0, 0, fmt.Sprintf("%s  Lv.%d  Gold %d  Exp %d/%d",
		p.Name(), p.Level, p.Gold, p.Experience, p.ExperienceToLevel), titleStyle)
	r.drawCombatant(0, 1, p.Combatant, '@', tcell.ColorYellow, m)

	if e := m.Enemy(); e != nil {
		r.screen.DrawText(panelWidth+2, 0, fmt.Sprintf("%s  [%s]", e.Name(), e.Behavior), titleStyle)
		r.drawCombatant(panelWidth+2, 1, e.Combatant, e.Glyph, e.Color, m)
	}

	r.screen.DrawText(0, headerRows-1, strings.Repeat("─", panelWidth*2+2), dimStyle)

	logRows := height - headerRows - 1
	if logRows > 0 {
		for i, line := range m.RecentLog(logRows) {
			r.screen.DrawText(0, headerRows+i, line, textStyle)
		}
	}
	if footer != "" && height > 0 {
		r.screen.DrawText(0, height-1, footer, dimStyle)
	}
	r.screen.Show()
}

func (r *Renderer) drawCombatant(x, y int, c *entity.Combatant, glyph rune, color tcell.Color, m *combat.Manager) {
	r.screen.SetContent(x, y, glyph, tcell.StyleDefault.Foreground(color).Bold(true))

	style := hpStyle
	if c.HP()*10 < c.MaxHP()*3 {
		style = lowHPStyle
	}
	col := r.screen.DrawText(x+2, y, "HP ", textStyle)
	col = r.screen.DrawText(col, y, Bar(c.HP(), c.MaxHP(), barWidth), style)
	r.screen.DrawText(col+1, y, fmt.Sprintf("%d/%d", c.HP(), c.MaxHP()), textStyle)

	if state, ok := m.Actions().Snapshot(c.ID()); ok {
		col = r.screen.DrawText(x+2, y+1, "AP ", textStyle)
		r.screen.DrawText(col, y+1, fmt.Sprintf("%.1f (+%.1f/tick)", state.CurrentAction, state.CurrentRate), actionStyle)
	}

	r.screen.DrawText(x+2, y+2, fmt.Sprintf("DEF %d  DMG %d", c.Defense(), c.Damage()), textStyle)
	if effects := EffectSummary(c); effects != "" {
		r.screen.DrawText(x+2, y+3, effects, dimStyle)
	}
}

// Bar renders a fixed-width gauge of current out of maximum.
func Bar(current, maximum, width int) string {
	if maximum <= 0 || width <= 0 {
		return ""
	}
	filled := min(width, max(0, current*width/maximum))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// EffectSummary lists active buffs and statuses with their remaining
// rounds, e.g. "defense(2) poison(1)".
func EffectSummary(c *entity.Combatant) string {
	var parts []string
	for _, group := range []map[string]entity.Modifier{c.Buffs(), c.Statuses()} {
		names := make([]string, 0, len(group))
		for name := range group {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s(%d)", name, group[name].Duration))
		}
	}
	return strings.Join(parts, " ")
}
