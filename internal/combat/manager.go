// Package combat runs a single battle between the player and one enemy.
//
// The battle is poll-driven: every call to Update either does nothing
// (the pacing delay has not elapsed) or resolves exactly one action.
// Turns alternate player, enemy, player, enemy; after each pair every
// cooldown and status effect advances by one round.
package combat

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/samdwyer/skirmish/internal/action"
	"github.com/samdwyer/skirmish/internal/enemy"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/logger"
	"github.com/samdwyer/skirmish/internal/skill"
	"github.com/samdwyer/skirmish/internal/telemetry"
)

// TurnPolicy decides what happens when the acting side cannot afford its
// chosen skill.
type TurnPolicy string

const (
	// PolicyAlternate acts on strict parity; an unusable pick falls back to
	// the first known skill.
	PolicyAlternate TurnPolicy = "alternate"
	// PolicyReadiness passes the turn while the pick is unaffordable.
	PolicyReadiness TurnPolicy = "readiness"
)

// Lifecycle states.
const (
	StateIdle     = "idle"
	StateActive   = "active"
	StateFinished = "finished"
)

const (
	eventStart  = "start"
	eventFinish = "finish"
)

// Reward tuning.
const (
	expPerLevel  = 20
	goldPerLevel = 10
	goldBonusMax = 10
	potionChance = 0.2
)

// ErrBattleInProgress is returned when starting a battle while one is active.
var ErrBattleInProgress = errors.New("battle already in progress")

// Config holds pacing parameters.
type Config struct {
	ActionDelay time.Duration
	TickTime    float64
	Policy      TurnPolicy
	// PlayerRate is used when the player is not yet in the action economy.
	PlayerRate float64
}

// DefaultConfig returns the standard pacing: 0.8s between actions, one
// generation step per action.
func DefaultConfig() Config {
	return Config{
		ActionDelay: 800 * time.Millisecond,
		TickTime:    1.0,
		Policy:      PolicyAlternate,
		PlayerRate:  1.0,
	}
}

// Rewards is what a victory grants.
type Rewards struct {
	Experience int
	Gold       int
	Items      []*entity.Item
}

// Summary describes a finished battle.
type Summary struct {
	BattleID   string
	Player     string
	Enemy      string
	EnemyType  string
	EnemyLevel int
	Victory    bool
	Turns      int
	Rewards    Rewards
	StartedAt  time.Time
	EndedAt    time.Time
}

// Recorder persists finished battles.
type Recorder interface {
	RecordBattle(ctx context.Context, s Summary) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now. The clock must carry a monotonic reading
// for the pacing gate to be immune to wall-clock changes.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRand sets the random source for enemy selection, skills and rewards.
func WithRand(rng *rand.Rand) Option {
	return func(m *Manager) { m.rng = rng }
}

// WithRecorder persists every finished battle.
func WithRecorder(r Recorder) Option {
	return func(m *Manager) { m.recorder = r }
}

// WithTracer overrides the tracer used for combat spans.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// Manager drives battles for one player.
type Manager struct {
	cfg      Config
	player   *entity.Player
	actions  *action.Manager
	enemies  *enemy.Manager
	rng      *rand.Rand
	now      func() time.Time
	recorder Recorder
	tracer   trace.Tracer
	log      *logrus.Entry

	lifecycle *fsm.FSM

	enemy      *enemy.Enemy
	battleID   string
	combatLog  []string
	turn       int
	seqIndex   int
	victory    bool
	rewards    Rewards
	startedAt  time.Time
	lastAction time.Time
}

// NewManager creates a combat manager. The player joins the action
// economy if it has not already.
func NewManager(cfg Config, player *entity.Player, actions *action.Manager, enemies *enemy.Manager, opts ...Option) *Manager {
	if cfg.TickTime <= 0 {
		cfg.TickTime = 1.0
	}
	if cfg.Policy == "" {
		cfg.Policy = PolicyAlternate
	}
	m := &Manager{
		cfg:     cfg,
		player:  player,
		actions: actions,
		enemies: enemies,
		now:     time.Now,
		log:     logger.For("combat"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if m.tracer == nil {
		m.tracer = telemetry.Tracer("combat")
	}
	if player.Actions() == nil {
		player.AttachActions(actions, cfg.PlayerRate)
	}

	m.lifecycle = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{StateIdle, StateFinished}, Dst: StateActive},
			{Name: eventFinish, Src: []string{StateActive}, Dst: StateFinished},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.log.WithFields(logrus.Fields{
					"battle": m.battleID,
					"from":   e.Src,
					"to":     e.Dst,
				}).Debug("battle state changed")
			},
		},
	)
	return m
}

// =============================================================================
// Accessors
// =============================================================================

// State returns the lifecycle state: idle, active or finished.
func (m *Manager) State() string { return m.lifecycle.Current() }

// Active reports whether a battle is in progress.
func (m *Manager) Active() bool { return m.lifecycle.Is(StateActive) }

// Victory reports whether the last finished battle was won.
func (m *Manager) Victory() bool { return m.victory }

// Rewards returns the rewards of the last won battle.
func (m *Manager) Rewards() Rewards { return m.rewards }

// Log returns the battle log.
func (m *Manager) Log() []string { return m.combatLog }

// RecentLog returns up to n of the newest log lines.
func (m *Manager) RecentLog(n int) []string {
	if n >= len(m.combatLog) {
		return m.combatLog
	}
	return m.combatLog[len(m.combatLog)-n:]
}

// Turn returns the number of actions resolved so far.
func (m *Manager) Turn() int { return m.turn }

// BattleID returns the id of the current or last battle.
func (m *Manager) BattleID() string { return m.battleID }

// Player returns the player.
func (m *Manager) Player() *entity.Player { return m.player }

// Enemy returns the current or last enemy.
func (m *Manager) Enemy() *enemy.Enemy { return m.enemy }

// Actions returns the shared action economy.
func (m *Manager) Actions() *action.Manager { return m.actions }

func (m *Manager) logf(format string, args ...any) {
	m.combatLog = append(m.combatLog, fmt.Sprintf(format, args...))
}

// =============================================================================
// Battle lifecycle
// =============================================================================

// StartNewBattle spawns a random enemy and starts a battle against it. A
// non-positive level picks one within a level of the player's.
func (m *Manager) StartNewBattle(ctx context.Context, level int) error {
	if m.Active() {
		return ErrBattleInProgress
	}
	if level <= 0 {
		level = max(1, m.player.Level+m.rng.Intn(3)-1)
	}
	e, err := m.enemies.CreateRandomEnemy(m.rng, level, m.player.Level)
	if err != nil {
		return fmt.Errorf("spawn enemy: %w", err)
	}
	return m.StartBattle(ctx, e)
}

// StartBattle starts a battle against e.
func (m *Manager) StartBattle(ctx context.Context, e *enemy.Enemy) error {
	if m.Active() {
		return ErrBattleInProgress
	}
	if m.enemy != nil {
		m.enemy.DetachActions()
	}
	if !m.actions.IsRegistered(m.player.ID()) {
		m.player.AttachActions(m.actions, m.cfg.PlayerRate)
	}
	e.Join(m.actions)

	m.enemy = e
	m.battleID = uuid.NewString()
	m.combatLog = nil
	m.turn = 0
	m.seqIndex = 0
	m.victory = false
	m.rewards = Rewards{}
	m.startedAt = m.now()
	m.lastAction = m.startedAt

	if err := m.lifecycle.Event(ctx, eventStart); err != nil {
		return fmt.Errorf("start battle: %w", err)
	}

	_, span := m.tracer.Start(ctx, "combat.start")
	span.SetAttributes(
		attribute.String("battle_id", m.battleID),
		attribute.String("enemy", e.Name()),
		attribute.Int("enemy_level", e.Level),
		attribute.Int("player_level", m.player.Level),
	)
	span.End()

	m.log.WithFields(logrus.Fields{
		"battle": m.battleID,
		"enemy":  e.TypeID,
		"level":  e.Level,
	}).Info("battle started")
	m.logf("Battle started against %s!", e.Name())
	return nil
}

// Update advances the battle by at most one action and reports whether
// the battle is over. Calls sooner than the action delay do nothing.
func (m *Manager) Update(ctx context.Context) bool {
	if !m.Active() {
		return true
	}
	now := m.now()
	if now.Sub(m.lastAction) < m.cfg.ActionDelay {
		return false
	}
	m.lastAction = now

	if !m.player.IsAlive() {
		m.logf("%s has been defeated!", m.player.Name())
		m.EndCombat(ctx, false)
		return true
	}
	if !m.enemy.IsAlive() {
		m.logf("%s has been defeated!", m.enemy.Name())
		m.EndCombat(ctx, true)
		return true
	}

	m.actions.GenerateAction(m.player.ID(), m.cfg.TickTime)
	m.actions.GenerateAction(m.enemy.ID(), m.cfg.TickTime)

	if m.turn%2 == 0 {
		m.playerTurn(ctx)
	} else {
		m.enemyTurn(ctx)
	}
	m.turn++

	if m.turn%2 == 0 {
		m.endRound()
	}
	return false
}

// playerTurn uses the skill at the current sequence slot, falling back to
// the first known skill when the slot is empty or the skill unusable.
func (m *Manager) playerTurn(ctx context.Context) {
	p := m.player
	if !p.IsAlive() {
		return
	}
	known := p.Skills()
	seq := p.CombatSequence()
	if len(known) == 0 || len(seq) == 0 {
		m.logf("%s has no skills configured!", p.Name())
		return
	}
	if m.seqIndex >= len(seq) {
		m.seqIndex = 0
	}

	chosen := seq[m.seqIndex]
	if m.cfg.Policy == PolicyReadiness && chosen != nil && !m.affordable(p.Combatant, chosen) {
		m.log.WithField("battle", m.battleID).Debug("player waits for action points")
		return
	}
	if chosen == nil || !chosen.CanUse(p) {
		fallback := known[0]
		if m.cfg.Policy == PolicyReadiness && !m.affordable(p.Combatant, fallback) {
			m.log.WithField("battle", m.battleID).Debug("player waits for action points")
			return
		}
		switch {
		case chosen == nil:
			m.logf("Empty sequence slot, using %s instead", fallback.Name)
		case p.Cooldown(chosen.ID) > 0:
			m.logf("%s on cooldown, using %s instead", chosen.Name, fallback.Name)
		default:
			m.logf("%s cannot be used, using %s instead", chosen.Name, fallback.Name)
		}
		chosen = fallback
	}

	m.act(ctx, p.Combatant, chosen, m.enemy.Combatant)
	m.seqIndex = (m.seqIndex + 1) % len(seq)
}

// enemyTurn lets the enemy's behavior pick a skill. No pick means no action.
func (m *Manager) enemyTurn(ctx context.Context) {
	e := m.enemy
	if !e.IsAlive() {
		return
	}
	if len(e.Skills()) == 0 {
		m.logf("%s has no skills configured!", e.Name())
		return
	}
	chosen := e.ChooseSkill(m.rng)
	if chosen == nil {
		return
	}
	m.act(ctx, e.Combatant, chosen, m.player.Combatant)
}

func (m *Manager) affordable(c *entity.Combatant, s *skill.Skill) bool {
	points, tracked := c.ActionPoints()
	return !tracked || points >= s.ActionCost
}

func (m *Manager) act(ctx context.Context, user *entity.Combatant, s *skill.Skill, target *entity.Combatant) {
	_, span := m.tracer.Start(ctx, "combat.turn")
	defer span.End()

	res := s.Use(m.rng, user, target)
	m.combatLog = append(m.combatLog, res.Messages()...)

	span.SetAttributes(
		attribute.String("battle_id", m.battleID),
		attribute.String("actor", user.Name()),
		attribute.String("skill", s.ID),
		attribute.String("target", target.Name()),
		attribute.Int("turn", m.turn),
		attribute.String("sound", res.Sound),
	)
	if dmg := res.TotalDamage(); dmg > 0 {
		span.SetAttributes(attribute.Int("damage", dmg))
	}
	if heal := res.TotalHealing(); heal > 0 {
		span.SetAttributes(attribute.Int("healing", heal))
	}
}

// endRound ticks cooldowns and status effects for both sides.
func (m *Manager) endRound() {
	m.player.TickCooldowns()
	m.enemy.TickCooldowns()
	m.combatLog = append(m.combatLog, m.player.UpdateStatusEffects()...)
	m.combatLog = append(m.combatLog, m.enemy.UpdateStatusEffects()...)
}

// EndCombat finishes the battle. On victory the rewards are computed and
// applied to the player at once.
func (m *Manager) EndCombat(ctx context.Context, victory bool) {
	if !m.Active() {
		return
	}
	m.victory = victory
	if err := m.lifecycle.Event(ctx, eventFinish); err != nil {
		m.log.WithError(err).Warn("finish battle")
	}

	if victory {
		m.grantRewards()
	}
	m.enemy.DetachActions()

	ended := m.now()
	_, span := m.tracer.Start(ctx, "combat.end")
	outcome := "defeat"
	if victory {
		outcome = "victory"
	}
	span.SetAttributes(
		attribute.String("battle_id", m.battleID),
		attribute.String("outcome", outcome),
		attribute.Int("turns_taken", m.turn),
		attribute.Int("player_hp_remaining", m.player.HP()),
		attribute.Int("experience", m.rewards.Experience),
		attribute.Int("gold", m.rewards.Gold),
	)
	span.End()

	m.log.WithFields(logrus.Fields{
		"battle":  m.battleID,
		"outcome": outcome,
		"turns":   m.turn,
	}).Info("battle ended")

	if m.recorder != nil {
		if err := m.recorder.RecordBattle(ctx, m.summary(ended)); err != nil {
			m.log.WithError(err).Warn("record battle")
		}
	}
}

func (m *Manager) grantRewards() {
	level := m.enemy.Level
	r := Rewards{
		Experience: level * expPerLevel,
		Gold:       level*goldPerLevel + m.rng.Intn(goldBonusMax+1),
	}
	if m.rng.Float64() < potionChance {
		r.Items = append(r.Items, entity.NewHealthPotion())
	}
	m.rewards = r

	p := m.player
	p.Gold += r.Gold
	leveled := p.GainExperience(r.Experience) > 0
	for _, item := range r.Items {
		p.AddItem(item)
	}

	m.logf("Gained %d experience and %d gold!", r.Experience, r.Gold)
	if len(r.Items) > 0 {
		m.logf("Found: %s", strings.Join(itemNames(r.Items), ", "))
	}
	if leveled {
		m.logf("%s leveled up to level %d!", p.Name(), p.Level)
	}
}

func (m *Manager) summary(ended time.Time) Summary {
	return Summary{
		BattleID:   m.battleID,
		Player:     m.player.Name(),
		Enemy:      m.enemy.Name(),
		EnemyType:  m.enemy.TypeID,
		EnemyLevel: m.enemy.Level,
		Victory:    m.victory,
		Turns:      m.turn,
		Rewards:    m.rewards,
		StartedAt:  m.startedAt,
		EndedAt:    ended,
	}
}

func itemNames(items []*entity.Item) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}
