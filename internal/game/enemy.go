package game

import (
	"time"

	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// EnemyInstance is one spawned enemy at one location. While alive it is
// owned by the world; the combat registry borrows it for the duration of a
// fight.
type EnemyInstance struct {
	InstanceID string
	TemplateID storage.Identifier
	Template   *EnemyTemplate

	Health     int
	MaxHealth  int
	LocationID storage.Identifier
	SpawnedAt  time.Time
}

func (e *EnemyInstance) Name() string {
	return e.Template.Name
}

func (e *EnemyInstance) IsAlive() bool {
	return e.Health > 0
}

// ApplyDamage reduces health, clamped at zero.
func (e *EnemyInstance) ApplyDamage(dmg int) {
	e.Health -= dmg
	if e.Health < 0 {
		e.Health = 0
	}
}

// Regenerate restores health, clamped at max.
func (e *EnemyInstance) Regenerate(amount int) {
	e.Health += amount
	if e.Health > e.MaxHealth {
		e.Health = e.MaxHealth
	}
}
