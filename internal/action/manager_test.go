package action

import (
	"math"
	"sync"
	"testing"
)

const epsilon = 1e-9

func approx(a, b float64) bool { return math.Abs(a-b) < epsilon }

func TestRegister(t *testing.T) {
	m := NewManager()
	m.Register("hero", 0)

	if !m.IsRegistered("hero") {
		t.Fatal("Expected hero registered")
	}
	if got := m.ActionRate("hero"); got != 1.0 {
		t.Errorf("Expected default rate 1.0, got %v", got)
	}

	m.Unregister("hero")
	if m.IsRegistered("hero") {
		t.Error("Expected hero unregistered")
	}
	if m.CurrentAction("hero") != 0 {
		t.Error("Unknown ids report zero action")
	}
}

func TestGenerateThenConsume(t *testing.T) {
	for _, r := range []float64{0.1, 1, 2.5, 7.3} {
		m := NewManager()
		m.Register("hero", 1.0)

		m.GenerateAction("hero", r)
		if !m.ConsumeAction("hero", r) {
			t.Fatalf("Consume of %v after generating it failed", r)
		}
		if got := m.CurrentAction("hero"); !approx(got, 0) {
			t.Errorf("Expected 0 action after consume, got %v", got)
		}
	}
}

func TestConsumeInsufficient(t *testing.T) {
	m := NewManager()
	m.Register("hero", 2.0)
	m.GenerateAction("hero", 1.0)

	if m.ConsumeAction("hero", 5) {
		t.Error("Consume beyond balance should fail")
	}
	if got := m.CurrentAction("hero"); got != 2.0 {
		t.Errorf("Failed consume must not change balance, got %v", got)
	}
	if m.ConsumeAction("ghost", 0) {
		t.Error("Consume for unknown id should fail")
	}
}

func TestReduceAction(t *testing.T) {
	m := NewManager()
	m.Register("hero", 3.0)
	m.GenerateAction("hero", 1.0)

	if got := m.ReduceAction("hero", 5); got != 3.0 {
		t.Errorf("Expected to remove 3, removed %v", got)
	}
	if m.CurrentAction("hero") != 0 {
		t.Error("Balance must not go negative")
	}
}

func TestModifiers(t *testing.T) {
	m := NewManager()
	m.Register("hero", 2.0)

	m.AddActionModifier("hero", "haste", 0.5, 2)
	m.AddActionModifier("hero", "blessing", 0.25, PermanentDuration)
	if got := m.ActionRate("hero"); !approx(got, 3.5) {
		t.Errorf("Expected rate 3.5, got %v", got)
	}

	if expired := m.UpdateActionModifiers("hero"); len(expired) != 0 {
		t.Errorf("Nothing should expire after one tick, got %v", expired)
	}
	expired := m.UpdateActionModifiers("hero")
	if len(expired) != 1 || expired[0] != "haste" {
		t.Errorf("Expected haste to expire, got %v", expired)
	}
	if got := m.ActionRate("hero"); !approx(got, 2.5) {
		t.Errorf("Expected rate 2.5 after expiry, got %v", got)
	}

	for i := 0; i < 10; i++ {
		m.UpdateActionModifiers("hero")
	}
	state, _ := m.Snapshot("hero")
	if _, ok := state.Modifiers["blessing"]; !ok {
		t.Error("Permanent modifier should never expire")
	}

	if !m.RemoveActionModifier("hero", "blessing") {
		t.Error("Expected blessing removed")
	}
	if got := m.ActionRate("hero"); !approx(got, 2.0) {
		t.Errorf("Expected base rate after removal, got %v", got)
	}
}

func TestRateNeverNegative(t *testing.T) {
	m := NewManager()
	m.Register("hero", 1.0)
	m.AddActionModifier("hero", "slowed", -3, 1)

	if got := m.ActionRate("hero"); got != 0 {
		t.Errorf("Expected rate clamped to 0, got %v", got)
	}
	m.GenerateAction("hero", 1)
	if got := m.CurrentAction("hero"); got != 0 {
		t.Errorf("Expected no action gained, got %v", got)
	}
}

func TestStunnedGeneratesNothing(t *testing.T) {
	m := NewManager()
	m.Register("hero", 5.0)
	m.AddActionModifier("hero", Stunned, -1.0, 1)

	if !m.IsStunned("hero") {
		t.Fatal("Expected hero stunned")
	}
	m.GenerateAction("hero", 1)
	if got := m.CurrentAction("hero"); got != 0 {
		t.Errorf("Stunned entity gained %v action", got)
	}

	m.UpdateActionModifiers("hero")
	if m.IsStunned("hero") {
		t.Error("Stun should expire after its duration")
	}
	m.GenerateAction("hero", 1)
	if got := m.CurrentAction("hero"); got != 5 {
		t.Errorf("Expected 5 action after stun expired, got %v", got)
	}
}

func TestSkillSequence(t *testing.T) {
	m := NewManager()
	m.Register("spider", 1)
	m.SetSkillSequence("spider", []string{"web", "bite", "venom"})

	if got := m.NextSkill("spider"); got != "web" {
		t.Errorf("Expected primed web, got %q", got)
	}

	cycles := []struct {
		used, next string
	}{
		{"web", "bite"},
		{"bite", "venom"},
		{"venom", "web"},
		{"web", "bite"},
	}
	for i, c := range cycles {
		if got := m.CycleSkillSequence("spider"); got != c.used {
			t.Errorf("Cycle %d: expected %q, got %q", i, c.used, got)
		}
		if got := m.NextSkill("spider"); got != c.next {
			t.Errorf("Cycle %d: expected next skill %q, got %q", i, c.next, got)
		}
		if state, _ := m.Snapshot("spider"); state.NextSkill != c.next {
			t.Errorf("Cycle %d: snapshot next skill %q, want %q", i, state.NextSkill, c.next)
		}
	}

	if got := m.SkillSequence("spider"); got[0] != "bite" {
		t.Errorf("Expected queue head bite, got %v", got)
	}
	if got := m.UpdateSkillSequence("spider"); got != "bite" {
		t.Errorf("Expected next skill bite, got %q", got)
	}

	m.SetNextSkill("spider", "venom")
	if got := m.NextSkill("spider"); got != "venom" {
		t.Errorf("Expected override venom, got %q", got)
	}

	m.SetSkillSequence("spider", nil)
	if m.CycleSkillSequence("spider") != "" {
		t.Error("Empty sequence should cycle to empty")
	}
}

func TestSetActionRate(t *testing.T) {
	m := NewManager()
	m.Register("hero", 1)
	m.AddActionModifier("hero", "haste", 1, 3)
	m.SetActionRate("hero", 4)

	if got := m.ActionRate("hero"); got != 8 {
		t.Errorf("Expected rate 8, got %v", got)
	}
	if m.SetActionRate("ghost", 1) {
		t.Error("Unknown id should report false")
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager()
	m.Register("hero", 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.GenerateAction("hero", 1)
				m.ConsumeAction("hero", 0.5)
			}
		}()
	}
	wg.Wait()

	if got := m.CurrentAction("hero"); !approx(got, 400) {
		t.Errorf("Expected 400 action, got %v", got)
	}
}
