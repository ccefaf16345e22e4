// Package quest tracks kill-objective quests. Progress lives on the player
// record so it persists; the tracker advances it as combat reports kills.
package quest

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// Quest is the stored definition of one quest.
type Quest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Objectives  []KillObjective `json:"objectives"`
	RewardGold  int             `json:"reward_gold"`
	RewardXP    int             `json:"reward_xp"`
}

// KillObjective requires Count kills of the given enemy template.
type KillObjective struct {
	Template storage.Identifier `json:"template"`
	Count    int                `json:"count"`
}

func (q *Quest) Validate() error {
	el := errors.NewErrorList()

	if q.Name == "" {
		el.Add(fmt.Errorf("name must be set"))
	}
	if len(q.Objectives) == 0 {
		el.Add(fmt.Errorf("at least one objective must be set"))
	}
	for i, o := range q.Objectives {
		if o.Template == "" {
			el.Add(fmt.Errorf("objective %d: template must be set", i))
		}
		if o.Count < 1 {
			el.Add(fmt.Errorf("objective %d: count must be at least 1", i))
		}
	}
	if q.RewardGold < 0 {
		el.Add(fmt.Errorf("reward gold must not be negative"))
	}
	if q.RewardXP < 0 {
		el.Add(fmt.Errorf("reward xp must not be negative"))
	}

	return el.Err()
}
