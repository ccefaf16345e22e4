package combat

import (
	"math/rand/v2"
	"time"
)

// Rules carries the tunable combat policy.
type Rules struct {
	// Variance widens each hit to damage*(1±Variance), uniformly sampled.
	Variance float64
	// FleeChance is the success probability of a flee attempt.
	FleeChance float64
	// RespawnDelay is how long a defeated enemy stays gone, unless its
	// template overrides it.
	RespawnDelay time.Duration
	// TopContributorBonus reserves single-recipient extras (drop table
	// rolls) for the highest-contribution participant. Gold and XP always
	// go to every contributor regardless.
	TopContributorBonus bool
}

// DefaultRules match the shipped content tuning.
func DefaultRules() Rules {
	return Rules{
		Variance:            0.2,
		FleeChance:          0.5,
		RespawnDelay:        30 * time.Second,
		TopContributorBonus: true,
	}
}

// Damage computes one hit: attack minus defense floored at 1, variance
// applied after the floor, then floored at 1 again. A hit always lands for
// at least a point.
func (r Rules) Damage(rng *rand.Rand, attack, defense int) int {
	raw := attack - defense
	if raw < 1 {
		raw = 1
	}

	if r.Variance > 0 {
		factor := 1 + (rng.Float64()*2-1)*r.Variance
		raw = int(float64(raw)*factor + 0.5)
		if raw < 1 {
			raw = 1
		}
	}

	return raw
}
