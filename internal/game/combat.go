package game

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// potionThreshold is the hp fraction below which a potion is drunk
// between battles.
const potionThreshold = 0.5

// nextBattle starts a battle against a random enemy near the player's level.
func (s *Session) nextBattle(ctx context.Context) error {
	if err := s.combat.StartNewBattle(ctx, 0); err != nil {
		return err
	}
	s.fought++
	s.phase = PhaseFighting
	return nil
}

// finishBattle moves to the results or defeated phase.
func (s *Session) finishBattle() {
	if s.combat.Victory() {
		s.phase = PhaseResults
	} else {
		s.phase = PhaseDefeated
	}
	s.log.WithFields(logrus.Fields{
		"battle":  s.combat.BattleID(),
		"victory": s.combat.Victory(),
		"hp":      s.player.HP(),
		"level":   s.player.Level,
	}).Debug("battle finished")
}

// drinkPotion uses the first potion in the inventory. It reports the HP
// restored, or 0 when there is nothing to drink.
func (s *Session) drinkPotion() int {
	for _, item := range s.player.Inventory {
		if !item.IsConsumable() {
			continue
		}
		healed, err := s.player.UseItem(item)
		if err != nil {
			s.log.WithError(err).Warn("use item")
			return 0
		}
		return healed
	}
	return 0
}

// RunHeadless fights up to the configured number of battles without a
// terminal, writing each battle log line to out as it happens. The run
// stops early if the player is defeated.
func (s *Session) RunHeadless(ctx context.Context, out io.Writer) error {
	battles := max(s.cfg.Combat.Battles, 1)
	for i := 0; i < battles; i++ {
		if i > 0 && float64(s.player.HP()) < float64(s.player.MaxHP())*potionThreshold {
			if healed := s.drinkPotion(); healed > 0 {
				fmt.Fprintf(out, "%s drinks a potion and recovers %d health.\n", s.player.Name(), healed)
			}
		}
		if err := s.nextBattle(ctx); err != nil {
			return err
		}
		if err := s.fight(ctx, out); err != nil {
			return err
		}
		s.finishBattle()
		if s.phase == PhaseDefeated {
			fmt.Fprintf(out, "Run ended after %d battles.\n", s.fought)
			return nil
		}
	}
	fmt.Fprintf(out, "%s finished %d battles at level %d with %d gold.\n",
		s.player.Name(), s.fought, s.player.Level, s.player.Gold)
	return nil
}

// fight drives one battle to completion, sleeping out the action delay
// between updates.
func (s *Session) fight(ctx context.Context, out io.Writer) error {
	printed := 0
	flush := func() {
		lines := s.combat.Log()
		for _, line := range lines[printed:] {
			fmt.Fprintln(out, line)
		}
		printed = len(lines)
	}

	delay := s.cfg.Combat.ActionDelay
	for {
		done := s.combat.Update(ctx)
		flush()
		if done {
			return nil
		}
		if delay <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
