package ui

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/skirmish/internal/action"
	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/enemy"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/skill"
	"github.com/samdwyer/skirmish/internal/telemetry"
)

func TestBar(t *testing.T) {
	tests := []struct {
		cur, max, width int
		want            string
	}{
		{10, 10, 4, "████"},
		{5, 10, 4, "██░░"},
		{0, 10, 4, "░░░░"},
		{15, 10, 4, "████"},
		{1, 0, 4, ""},
	}
	for _, tt := range tests {
		if got := Bar(tt.cur, tt.max, tt.width); got != tt.want {
			t.Errorf("Bar(%d, %d, %d) = %q, want %q", tt.cur, tt.max, tt.width, got, tt.want)
		}
	}
}

func TestEffectSummary(t *testing.T) {
	c := entity.NewCombatant("Dummy", 1, nil, 10)
	if got := EffectSummary(c); got != "" {
		t.Errorf("no effects: %q", got)
	}
	c.ApplyStatus("poison", 2, 3)
	c.ApplyBuff("defense", 5, 2)
	c.ApplyStatus("bleed", 1, 1)
	if got := EffectSummary(c); got != "defense(2) bleed(1) poison(3)" {
		t.Errorf("EffectSummary = %q", got)
	}
}

func rowText(s tcell.Screen, y, width int) string {
	var b strings.Builder
	for x := 0; x < width; x++ {
		r, _, _, _ := s.GetContent(x, y)
		b.WriteRune(r)
	}
	return b.String()
}

func TestRenderBattle(t *testing.T) {
	sim := tcell.NewSimulationScreen("UTF-8")
	screen, err := NewScreenFrom(sim)
	if err != nil {
		t.Fatalf("NewScreenFrom: %v", err)
	}
	defer screen.Close()
	sim.SetSize(80, 24)

	skills := skill.NewManager()
	skills.RegisterDefaultEffects()
	skills.LoadAll(gamedata.MustLoadSkillTables())
	catalog, err := gamedata.NewEnemyCatalog(gamedata.MustLoadEnemyTables())
	if err != nil {
		t.Fatalf("NewEnemyCatalog: %v", err)
	}
	enemies := enemy.NewManager(catalog, skills)
	m := combat.NewManager(combat.DefaultConfig(), entity.NewPlayer("Hero"), action.NewManager(), enemies,
		combat.WithRand(rand.New(rand.NewSource(1))), combat.WithTracer(telemetry.NoopTracer()))

	e, err := enemies.CreateEnemy("rat", 0)
	if err != nil {
		t.Fatalf("CreateEnemy: %v", err)
	}
	if err := m.StartBattle(context.Background(), e); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}

	NewRenderer(screen).RenderBattle(m, "q quit")

	if header := rowText(sim, 0, 80); !strings.Contains(header, "Hero  Lv.1") || !strings.Contains(header, "Giant Rat") {
		t.Errorf("header row = %q", header)
	}
	if log := rowText(sim, headerRows, 80); !strings.HasPrefix(log, "Battle started against Giant Rat!") {
		t.Errorf("first log row = %q", log)
	}
	if footer := rowText(sim, 23, 80); !strings.HasPrefix(footer, "q quit") {
		t.Errorf("footer row = %q", footer)
	}
}
