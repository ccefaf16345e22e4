package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/RednibCoding/mudden-sub001/internal/combat"
)

// CombatConfig overrides the default combat tuning. Zero values keep the
// defaults, so an empty block is a valid config.
type CombatConfig struct {
	Variance            float64  `json:"variance,omitempty"`
	FleeChance          *float64 `json:"flee_chance,omitempty"`
	RespawnDelay        string   `json:"respawn_delay,omitempty"`
	TopContributorBonus *bool    `json:"top_contributor_bonus,omitempty"`
}

func (c *CombatConfig) validate() error {
	el := errors.NewErrorList()

	if c.Variance < 0 || c.Variance >= 1 {
		el.Add(fmt.Errorf("variance must be in [0, 1)"))
	}
	if c.FleeChance != nil && (*c.FleeChance < 0 || *c.FleeChance > 1) {
		el.Add(fmt.Errorf("flee_chance must be in [0, 1]"))
	}
	if c.RespawnDelay != "" {
		if _, err := time.ParseDuration(c.RespawnDelay); err != nil {
			el.Add(fmt.Errorf("parsing respawn_delay: %w", err))
		}
	}

	return el.Err()
}

func (c *CombatConfig) buildRules() (combat.Rules, error) {
	rules := combat.DefaultRules()

	if c.Variance > 0 {
		rules.Variance = c.Variance
	}
	if c.FleeChance != nil {
		rules.FleeChance = *c.FleeChance
	}
	if c.RespawnDelay != "" {
		d, err := time.ParseDuration(c.RespawnDelay)
		if err != nil {
			return rules, fmt.Errorf("parsing respawn_delay: %w", err)
		}
		rules.RespawnDelay = d
	}
	if c.TopContributorBonus != nil {
		rules.TopContributorBonus = *c.TopContributorBonus
	}

	return rules, nil
}
