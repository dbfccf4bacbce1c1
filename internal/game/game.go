package game

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samdwyer/skirmish/internal/action"
	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/config"
	"github.com/samdwyer/skirmish/internal/enemy"
	"github.com/samdwyer/skirmish/internal/entity"
	"github.com/samdwyer/skirmish/internal/gamedata"
	"github.com/samdwyer/skirmish/internal/logger"
	"github.com/samdwyer/skirmish/internal/skill"
	"github.com/samdwyer/skirmish/internal/storage"
	"github.com/samdwyer/skirmish/internal/telemetry"
	"github.com/samdwyer/skirmish/internal/ui"
)

// frameInterval is how often the terminal loop polls combat and redraws.
const frameInterval = 50 * time.Millisecond

// Session holds every service of one run: catalogs, the player and the
// battle loop.
type Session struct {
	cfg     *config.Config
	skills  *skill.Manager
	enemies *enemy.Manager
	player  *entity.Player
	combat  *combat.Manager
	history *storage.History
	log     *logrus.Entry

	phase   Phase
	fought  int
	running bool
}

// NewSession loads data tables and builds the services described by cfg.
func NewSession(ctx context.Context, cfg *config.Config) (*Session, error) {
	tracer := telemetry.Tracer("game")
	_, span := tracer.Start(ctx, "gamedata.load")
	defer span.End()

	log := logger.For("game")
	rng, seed := newRand(cfg.Combat.Seed)

	skills := skill.NewManager()
	skills.RegisterDefaultEffects()
	tables, err := gamedata.LoadSkillTables(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("load skills: %w", err)
	}
	skills.LoadAll(tables)

	catalog, err := gamedata.LoadEnemyCatalog(cfg.Data.Dir)
	if err != nil {
		return nil, fmt.Errorf("load enemies: %w", err)
	}
	span.SetAttributes(
		attribute.Int("skills", skills.Count()),
		attribute.Int("enemies", catalog.Count()),
		attribute.Int64("seed", seed),
	)

	player := entity.NewPlayer(cfg.Player.Name)
	for _, id := range cfg.Player.Skills {
		s := skills.Get(id)
		if s == nil {
			log.WithField("skill", id).Warn("player skill not in catalog, skipping")
			continue
		}
		player.LearnSkill(s)
	}
	if skipped := player.SetCombatSequence(cfg.Player.Sequence); len(skipped) > 0 {
		log.WithField("skipped", skipped).Warn("combat sequence entries dropped")
	}

	actions := action.NewManager()
	player.AttachActions(actions, cfg.Player.ActionRate)

	s := &Session{
		cfg:     cfg,
		skills:  skills,
		enemies: enemy.NewManager(catalog, skills),
		player:  player,
		log:     log,
		running: true,
	}

	opts := []combat.Option{combat.WithRand(rng)}
	if cfg.Storage.HistoryPath != "" {
		history, err := storage.Open(cfg.Storage.HistoryPath)
		if err != nil {
			return nil, err
		}
		s.history = history
		opts = append(opts, combat.WithRecorder(history))
	}
	s.combat = combat.NewManager(combatConfig(cfg), player, actions, s.enemies, opts...)

	log.WithFields(logrus.Fields{
		"seed":    seed,
		"skills":  skills.Count(),
		"enemies": catalog.Count(),
		"player":  player.Name(),
	}).Info("session ready")
	return s, nil
}

// Skills returns the skill catalog.
func (s *Session) Skills() *skill.Manager { return s.skills }

// Player returns the session's player.
func (s *Session) Player() *entity.Player { return s.player }

// Combat returns the battle loop.
func (s *Session) Combat() *combat.Manager { return s.combat }

// History returns the battle history, or nil when disabled.
func (s *Session) History() *storage.History { return s.history }

// Phase returns the session phase.
func (s *Session) Phase() Phase { return s.phase }

// BattlesFought returns the number of battles started.
func (s *Session) BattlesFought() int { return s.fought }

// Close releases session resources.
func (s *Session) Close() error {
	if s.history != nil {
		return s.history.Close()
	}
	return nil
}

// Run shows battles in the terminal until the player quits or falls.
func (s *Session) Run(ctx context.Context) error {
	screen, err := ui.NewScreen()
	if err != nil {
		return err
	}
	defer screen.Close()
	renderer := ui.NewRenderer(screen)
	events := screen.Events()

	if err := s.nextBattle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for s.running {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := s.handleEvent(ctx, screen, ev); err != nil {
				return err
			}
		case <-ticker.C:
			if s.phase == PhaseFighting && s.combat.Update(ctx) {
				s.finishBattle()
			}
		}
		renderer.RenderBattle(s.combat, s.footer())
	}
	return nil
}

func (s *Session) handleEvent(ctx context.Context, screen *ui.Screen, ev tcell.Event) error {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		screen.Sync()
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			s.running = false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q', 'Q':
				s.running = false
			case 'n', 'N':
				if s.phase == PhaseResults {
					return s.nextBattle(ctx)
				}
			case 'p', 'P':
				s.drinkPotion()
			}
		}
	}
	return nil
}

func (s *Session) footer() string {
	switch s.phase {
	case PhaseResults:
		return "[n] next battle  [p] potion  [q] quit"
	case PhaseDefeated:
		return "You have fallen.  [q] quit"
	default:
		return "[p] potion  [q] quit"
	}
}
