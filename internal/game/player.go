package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// Player is the persisted character record. Combat mutates health, gold and
// experience through PlayerState; the record is what gets flushed to disk.
type Player struct {
	Name       string             `json:"name"`
	Health     int                `json:"health"`
	MaxHealth  int                `json:"max_health"`
	Damage     int                `json:"damage"`
	Defense    int                `json:"defense"`
	Gold       int                `json:"gold"`
	Experience int                `json:"experience"`
	Location   storage.Identifier `json:"location"`

	// Kill counts per quest, indexed in objective order.
	QuestProgress map[storage.Identifier][]int `json:"quest_progress,omitempty"`
}

func (p *Player) Validate() error {
	el := errors.NewErrorList()

	if p.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if p.MaxHealth < 1 {
		el.Add(fmt.Errorf("max_health must be at least 1"))
	}
	if p.Health < 0 || p.Health > p.MaxHealth {
		el.Add(fmt.Errorf("health must be in [0, max_health]"))
	}
	if p.Damage < 0 || p.Defense < 0 {
		el.Add(fmt.Errorf("damage and defense cannot be negative"))
	}
	if p.Location == "" {
		el.Add(fmt.Errorf("location is required"))
	}

	return el.Err()
}

// PlayerState holds the in-world state for a connected player. It is owned
// by the tick goroutine; only the persisted record ever leaves it.
type PlayerState struct {
	ID     storage.Identifier
	ConnID string
	Record *Player

	LocationID storage.Identifier

	// SessionID is a back-reference to the player's combat session, empty
	// when out of combat. The session owns the participant set, not the
	// player.
	SessionID string
}

func (p *PlayerState) IsAlive() bool {
	return p.Record.Health > 0
}

func (p *PlayerState) InCombat() bool {
	return p.SessionID != ""
}

// ApplyDamage reduces health, clamped at zero.
func (p *PlayerState) ApplyDamage(dmg int) {
	p.Record.Health -= dmg
	if p.Record.Health < 0 {
		p.Record.Health = 0
	}
}

// Regenerate restores health, clamped at max.
func (p *PlayerState) Regenerate(amount int) {
	p.Record.Health += amount
	if p.Record.Health > p.Record.MaxHealth {
		p.Record.Health = p.Record.MaxHealth
	}
}
