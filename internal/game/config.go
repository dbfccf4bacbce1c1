package game

import (
	"math/rand"
	"time"

	"github.com/samdwyer/skirmish/internal/combat"
	"github.com/samdwyer/skirmish/internal/config"
)

// combatConfig translates settings into combat pacing.
func combatConfig(cfg *config.Config) combat.Config {
	return combat.Config{
		ActionDelay: cfg.Combat.ActionDelay,
		TickTime:    cfg.Combat.TickTime,
		Policy:      combat.TurnPolicy(cfg.Combat.TurnPolicy),
		PlayerRate:  cfg.Player.ActionRate,
	}
}

// newRand returns a source for seed. A seed of 0 means a random seed will
// be generated; the seed actually used is returned for logging.
func newRand(seed int64) (*rand.Rand, int64) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed)), seed
}
