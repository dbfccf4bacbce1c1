package combat

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/samdwyer/skirmish/internal/action"
	"github.com/samdwyer/skirmish/internal/enemy"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/skill"
	"github.com/samdwyer/skirmish/internal/telemetry"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeRecorder struct{ battles []Summary }

func (r *fakeRecorder) RecordBattle(_ context.Context, s Summary) error {
	r.battles = append(r.battles, s)
	return nil
}

// fixedSkill deals exactly base damage for the given action cost.
func fixedSkill(id, name string, base float64, cost float64, cooldown int) *skill.Builder {
	return skill.NewBuilder(id).
		Name(name).
		Description("test skill").
		ActionCost(cost).
		Cooldown(cooldown).
		Damage(map[string]any{"base_value": base, "variance_min": 1.0, "variance_max": 1.0})
}

type fixture struct {
	skills  *skill.Manager
	enemies *enemy.Manager
	actions *action.Manager
	player  *entity.Player
	clock   *fakeClock
}

func newFixture(t *testing.T, builders ...*skill.Builder) *fixture {
	t.Helper()
	skills := skill.NewManager()
	skills.RegisterDefaultEffects()
	for _, b := range builders {
		if _, err := b.Build(skills); err != nil {
			t.Fatalf("build %s: %v", b.ID(), err)
		}
	}
	catalog, err := gamedata.NewEnemyCatalog(&gamedata.EnemyTables{})
	if err != nil {
		t.Fatalf("NewEnemyCatalog: %v", err)
	}
	return &fixture{
		skills:  skills,
		enemies: enemy.NewManager(catalog, skills),
		actions: action.NewManager(),
		player:  entity.NewPlayer("Hero"),
		clock:   &fakeClock{t: time.Unix(1_700_000_000, 0)},
	}
}

func (f *fixture) learn(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		s, err := f.skills.Lookup(id)
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		f.player.LearnSkill(s)
	}
}

func (f *fixture) spawn(t *testing.T, rec gamedata.Record) *enemy.Enemy {
	t.Helper()
	e, err := f.enemies.FromRecord("dummy", rec, 1)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	return e
}

func (f *fixture) manager(cfg Config, opts ...Option) *Manager {
	opts = append([]Option{
		WithClock(f.clock.Now),
		WithRand(rand.New(rand.NewSource(1))),
		WithTracer(telemetry.NoopTracer()),
	}, opts...)
	return NewManager(cfg, f.player, f.actions, f.enemies, opts...)
}

func countContaining(lines []string, sub string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, sub) {
			n++
		}
	}
	return n
}

func TestBattleRunsToVictory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedSkill("strike", "Strike", 10, 3, 0))
	f.learn(t, "strike")
	f.player.SetCombatSequence([]string{"strike"})
	f.player.AttachActions(f.actions, 10)

	rec := &fakeRecorder{}
	m := f.manager(Config{ActionDelay: 0, TickTime: 1}, WithRecorder(rec))
	e := f.spawn(t, gamedata.Record{"name": "Dummy", "max_hp": 40, "defense": 0, "skills": []any{"strike"}})
	if err := m.StartBattle(ctx, e); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
	if m.State() != StateActive {
		t.Fatalf("state = %s, want active", m.State())
	}

	finished := false
	for i := 0; i < 50 && !finished; i++ {
		finished = m.Update(ctx)
	}
	if !finished {
		t.Fatal("battle did not finish")
	}
	if !m.Victory() || m.State() != StateFinished {
		t.Fatalf("victory=%v state=%s", m.Victory(), m.State())
	}
	if e.HP() != 0 {
		t.Errorf("enemy HP = %d, want 0", e.HP())
	}

	log := m.Log()
	if log[0] != "Battle started against Dummy!" {
		t.Errorf("first log line = %q", log[0])
	}
	tail := strings.Join(m.RecentLog(3), "\n")
	if !strings.Contains(tail, "Dummy has been defeated!") {
		t.Errorf("log tail does not mention defeat:\n%s", tail)
	}

	r := m.Rewards()
	if r.Experience != e.Level*20 {
		t.Errorf("experience = %d, want %d", r.Experience, e.Level*20)
	}
	if r.Gold < 10 || r.Gold > 20 {
		t.Errorf("gold = %d, want 10..20", r.Gold)
	}
	if f.player.Experience != 20 || f.player.Gold != 50+r.Gold {
		t.Errorf("player exp=%d gold=%d", f.player.Experience, f.player.Gold)
	}
	if f.actions.IsRegistered(e.ID()) {
		t.Error("enemy should leave the action economy")
	}

	if len(rec.battles) != 1 {
		t.Fatalf("recorded %d battles, want 1", len(rec.battles))
	}
	if s := rec.battles[0]; !s.Victory || s.Turns != 8 || s.BattleID != m.BattleID() {
		t.Errorf("summary = %+v", s)
	}

	if !m.Update(ctx) {
		t.Error("Update after the end should report finished")
	}
}

func TestActionDelayGatesUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedSkill("strike", "Strike", 1, 0, 0))
	f.learn(t, "strike")
	f.player.SetCombatSequence([]string{"strike"})

	m := f.manager(Config{ActionDelay: time.Second, TickTime: 1})
	if err := m.StartBattle(ctx, f.spawn(t, gamedata.Record{"name": "Dummy", "max_hp": 40})); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}

	if m.Update(ctx) || m.Turn() != 0 || len(m.Log()) != 1 {
		t.Fatalf("update before delay acted: turn=%d log=%v", m.Turn(), m.Log())
	}
	f.clock.Advance(500 * time.Millisecond)
	if m.Update(ctx) || m.Turn() != 0 {
		t.Fatalf("update at half delay acted: turn=%d", m.Turn())
	}
	f.clock.Advance(500 * time.Millisecond)
	m.Update(ctx)
	if m.Turn() != 1 {
		t.Errorf("turn = %d after full delay, want 1", m.Turn())
	}
	if m.Update(ctx); m.Turn() != 1 {
		t.Errorf("second update without delay acted: turn=%d", m.Turn())
	}
}

func TestCooldownFallback(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		fixedSkill("jab", "Jab", 1, 3, 0),
		fixedSkill("big", "Big", 5, 3, 2),
	)
	f.learn(t, "jab", "big")
	f.player.SetCombatSequence([]string{"big"})
	f.player.AttachActions(f.actions, 10)

	m := f.manager(Config{TickTime: 1})
	if err := m.StartBattle(ctx, f.spawn(t, gamedata.Record{"name": "Wall", "max_hp": 500, "skills": []any{"jab"}})); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}

	for i := 0; i < 5; i++ {
		m.Update(ctx)
	}
	fallbacks := countContaining(m.Log(), "Big on cooldown, using Jab instead")
	if fallbacks != 1 {
		t.Errorf("fallback notices = %d, want 1\n%s", fallbacks, strings.Join(m.Log(), "\n"))
	}
	if cd := f.player.Cooldown("big"); cd != 2 {
		t.Errorf("big cooldown after third player turn = %d, want 2", cd)
	}
}

func TestReadinessPolicyWaits(t *testing.T) {
	ctx := context.Background()

	for _, tt := range []struct {
		policy TurnPolicy
		wantHP int
	}{
		{PolicyAlternate, 90},
		{PolicyReadiness, 100},
	} {
		t.Run(string(tt.policy), func(t *testing.T) {
			f := newFixture(t, fixedSkill("strike", "Strike", 10, 3, 0))
			f.learn(t, "strike")
			f.player.SetCombatSequence([]string{"strike"})

			m := f.manager(Config{TickTime: 1, Policy: tt.policy, PlayerRate: 1})
			e := f.spawn(t, gamedata.Record{"name": "Dummy", "max_hp": 100, "skills": []any{"strike"}})
			if err := m.StartBattle(ctx, e); err != nil {
				t.Fatalf("StartBattle: %v", err)
			}

			m.Update(ctx)
			if e.HP() != tt.wantHP {
				t.Errorf("enemy HP after first turn = %d, want %d", e.HP(), tt.wantHP)
			}
		})
	}
}

func TestStatusEffectsTickOncePerRound(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixedSkill("strike", "Strike", 10, 3, 0))
	f.learn(t, "strike")
	f.player.SetCombatSequence([]string{"strike"})

	m := f.manager(Config{TickTime: 1, Policy: PolicyReadiness, PlayerRate: 1})
	e := f.spawn(t, gamedata.Record{"name": "Dummy", "max_hp": 100, "skills": []any{"strike"}})
	if err := m.StartBattle(ctx, e); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
	e.ApplyStatus(entity.StatusPoison, 5, 3)

	m.Update(ctx)
	if e.HP() != 100 {
		t.Fatalf("poison ticked mid-round: HP = %d", e.HP())
	}
	m.Update(ctx)
	if e.HP() != 95 {
		t.Errorf("HP after one round = %d, want 95", e.HP())
	}
	if countContaining(m.Log(), "Dummy takes 5 poison damage.") != 1 {
		t.Errorf("log = %v", m.Log())
	}
}

func TestNoSkillsConfigured(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(Config{TickTime: 1})
	if err := m.StartBattle(ctx, f.spawn(t, gamedata.Record{"name": "Dummy"})); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}

	m.Update(ctx)
	if countContaining(m.Log(), "Hero has no skills configured!") != 1 {
		t.Errorf("log = %v", m.Log())
	}
}

func TestStartBattleWhileActive(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(Config{TickTime: 1})
	if err := m.StartBattle(ctx, f.spawn(t, gamedata.Record{"name": "A"})); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
	err := m.StartBattle(ctx, f.spawn(t, gamedata.Record{"name": "B"}))
	if !errors.Is(err, ErrBattleInProgress) {
		t.Errorf("err = %v, want ErrBattleInProgress", err)
	}
}

func TestDefeatGrantsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.manager(Config{TickTime: 1})
	if err := m.StartBattle(ctx, f.spawn(t, gamedata.Record{"name": "Dummy"})); err != nil {
		t.Fatalf("StartBattle: %v", err)
	}
	f.player.TakeDamage(1000)

	if !m.Update(ctx) {
		t.Fatal("expected battle to end")
	}
	if m.Victory() || m.Rewards().Experience != 0 || f.player.Gold != 50 {
		t.Errorf("victory=%v rewards=%+v gold=%d", m.Victory(), m.Rewards(), f.player.Gold)
	}
	if countContaining(m.Log(), "Hero has been defeated!") != 1 {
		t.Errorf("log = %v", m.Log())
	}
}

func TestStartNewBattleFromCatalog(t *testing.T) {
	ctx := context.Background()
	skills := skill.NewManager()
	skills.RegisterDefaultEffects()
	skills.LoadAll(gamedata.MustLoadSkillTables())
	catalog, err := gamedata.NewEnemyCatalog(gamedata.MustLoadEnemyTables())
	if err != nil {
		t.Fatalf("NewEnemyCatalog: %v", err)
	}
	player := entity.NewPlayer("Hero")
	m := NewManager(DefaultConfig(), player, action.NewManager(), enemy.NewManager(catalog, skills),
		WithRand(rand.New(rand.NewSource(5))), WithTracer(telemetry.NoopTracer()))

	if err := m.StartNewBattle(ctx, 0); err != nil {
		t.Fatalf("StartNewBattle: %v", err)
	}
	e := m.Enemy()
	if e.Level < 1 || e.Level > 2 {
		t.Errorf("enemy level = %d, want within one of the player", e.Level)
	}
	if e.TypeID != "rat" && e.TypeID != "goblin" {
		t.Errorf("spawned %s for a level 1 player", e.TypeID)
	}
	if !strings.HasPrefix(m.Log()[0], "Battle started against ") {
		t.Errorf("log[0] = %q", m.Log()[0])
	}
}
