package game

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samdwyer/skirmish/internal/config"
	"github.com/samdwyer/skirmish/internal/entity"
)

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseFighting, "fighting"},
		{PhaseResults, "results"},
		{PhaseDefeated, "defeated"},
		{Phase(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.expected {
			t.Errorf("Phase(%d).String() = %q, want %q", tt.phase, got, tt.expected)
		}
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Combat.Seed = 42
	cfg.Combat.ActionDelay = 0
	cfg.Combat.Battles = 3
	cfg.Storage.HistoryPath = filepath.Join(t.TempDir(), "history.db")
	return cfg
}

func newTestSession(t *testing.T, cfg *config.Config) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t, testConfig(t))

	p := s.Player()
	if p.Name() != "Hero" {
		t.Errorf("player name = %q, want Hero", p.Name())
	}
	for _, id := range []string{"basic_attack", "defend", "heal"} {
		if !p.KnowsSkill(id) {
			t.Errorf("player should know %s", id)
		}
	}
	if got := len(p.CombatSequence()); got != 3 {
		t.Errorf("sequence length = %d, want 3", got)
	}
	if s.History() == nil {
		t.Error("history should be open when a path is configured")
	}
	if s.Combat().Active() {
		t.Error("no battle should be running before the first one starts")
	}
}

func TestNewSessionSkipsUnknownSkill(t *testing.T) {
	cfg := testConfig(t)
	cfg.Player.Skills = []string{"basic_attack", "no_such_skill"}
	cfg.Player.Sequence = []string{"basic_attack", "no_such_skill"}

	s := newTestSession(t, cfg)

	if s.Player().KnowsSkill("no_such_skill") {
		t.Error("unknown skill should not be learned")
	}
	if got := len(s.Player().Skills()); got != 1 {
		t.Errorf("skills learned = %d, want 1", got)
	}
	if got := len(s.Player().CombatSequence()); got != 1 {
		t.Errorf("sequence length = %d, want 1", got)
	}
}

func TestNewSessionWithoutHistory(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.HistoryPath = ""

	s := newTestSession(t, cfg)
	if s.History() != nil {
		t.Error("history should be disabled with an empty path")
	}
}

func TestRunHeadless(t *testing.T) {
	s := newTestSession(t, testConfig(t))

	var out bytes.Buffer
	if err := s.RunHeadless(context.Background(), &out); err != nil {
		t.Fatalf("RunHeadless: %v", err)
	}

	text := out.String()
	if !strings.Contains(text, "Battle started against") {
		t.Errorf("output missing battle start:\n%s", text)
	}

	fought := s.BattlesFought()
	if fought < 1 || fought > 3 {
		t.Fatalf("BattlesFought = %d, want 1..3", fought)
	}
	if s.Combat().Active() {
		t.Error("no battle should be active after a headless run")
	}
	if s.Phase() == PhaseFighting {
		t.Error("phase should not be fighting after a headless run")
	}
	if s.Phase() == PhaseDefeated && !strings.Contains(text, "Run ended after") {
		t.Errorf("defeat should end the run early:\n%s", text)
	}

	records, err := s.History().Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != fought {
		t.Errorf("history records = %d, want %d", len(records), fought)
	}
}

func TestRunHeadlessCancelled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Combat.ActionDelay = config.Default().Combat.ActionDelay

	s := newTestSession(t, cfg)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.RunHeadless(ctx, &bytes.Buffer{}); err == nil {
		t.Error("RunHeadless should fail on a cancelled context")
	}
}

func TestDrinkPotion(t *testing.T) {
	s := newTestSession(t, testConfig(t))
	p := s.Player()

	if got := s.drinkPotion(); got != 0 {
		t.Errorf("drinkPotion with nothing to drink = %d, want 0", got)
	}

	p.AddItem(entity.NewArmor("Leather Cap", 1, 5, nil))
	p.AddItem(entity.NewHealthPotion())
	p.TakeDamage(41)
	before := p.HP()

	if got := s.drinkPotion(); got != 30 {
		t.Errorf("drinkPotion = %d, want 30", got)
	}
	if p.HP() != before+30 {
		t.Errorf("HP = %d, want %d", p.HP(), before+30)
	}
	if len(p.Inventory) != 1 {
		t.Errorf("inventory = %d items, want the cap only", len(p.Inventory))
	}
}

func TestFooter(t *testing.T) {
	s := newTestSession(t, testConfig(t))
	for _, phase := range []Phase{PhaseFighting, PhaseResults, PhaseDefeated} {
		s.phase = phase
		if !strings.Contains(s.footer(), "[q] quit") {
			t.Errorf("%s footer = %q", phase, s.footer())
		}
	}
}
