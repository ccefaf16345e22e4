package game

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

// EnemyTemplate is the content definition an enemy instance is spawned from.
type EnemyTemplate struct {
	Name       string  `json:"name"`
	Damage     int     `json:"damage"`
	Defense    int     `json:"defense"`
	MaxHealth  int     `json:"max_health"`
	RewardGold int     `json:"reward_gold"`
	RewardXP   int     `json:"reward_xp"`
	Drops      []Drop  `json:"drops,omitempty"`
	Respawn    string  `json:"respawn,omitempty"` // duration, overrides the configured default
}

// Drop is a single weighted entry in an enemy's drop table.
type Drop struct {
	Item   string  `json:"item"`
	Chance float64 `json:"chance"`
}

func (t *EnemyTemplate) Validate() error {
	el := errors.NewErrorList()

	if t.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if t.MaxHealth < 1 {
		el.Add(fmt.Errorf("max_health must be at least 1"))
	}
	if t.Damage < 0 {
		el.Add(fmt.Errorf("damage cannot be negative"))
	}
	if t.Defense < 0 {
		el.Add(fmt.Errorf("defense cannot be negative"))
	}
	if t.RewardGold < 0 || t.RewardXP < 0 {
		el.Add(fmt.Errorf("rewards cannot be negative"))
	}

	if t.Respawn != "" {
		if _, err := time.ParseDuration(t.Respawn); err != nil {
			el.Add(fmt.Errorf("parsing respawn: %w", err))
		}
	}

	for i, d := range t.Drops {
		if d.Item == "" {
			el.Add(fmt.Errorf("drop %d: item is required", i))
		}
		if d.Chance <= 0 || d.Chance > 1 {
			el.Add(fmt.Errorf("drop %d: chance must be in (0, 1]", i))
		}
	}

	return el.Err()
}

// RespawnDelay returns the template's respawn override, or def when unset.
// Validate has already checked the duration parses.
func (t *EnemyTemplate) RespawnDelay(def time.Duration) time.Duration {
	if t.Respawn == "" {
		return def
	}
	d, err := time.ParseDuration(t.Respawn)
	if err != nil {
		return def
	}
	return d
}
