package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval    string           `json:"tick_interval"`
	QueueCapacity   int              `json:"queue_capacity,omitempty"`
	DefaultLocation string           `json:"default_location"`
	Regen           RegenConfig      `json:"regen"`
	Combat          CombatConfig     `json:"combat"`
	Listeners       []ListenerConfig `json:"listeners"`
	Storage         StorageConfig    `json:"storage"`
	Nats            NatsConfig       `json:"nats"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	d, err := time.ParseDuration(c.TickInterval)
	if err != nil {
		el.Add(fmt.Errorf("parsing tick_interval: %w", err))
	} else if d < 100*time.Millisecond {
		el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
	}

	if c.QueueCapacity < 0 {
		el.Add(fmt.Errorf("queue_capacity cannot be negative"))
	}
	if c.DefaultLocation == "" {
		el.Add(fmt.Errorf("default_location is required"))
	}

	for i, l := range c.Listeners {
		if err := l.validate(); err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Regen.validate())
	el.Add(c.Combat.validate())
	el.Add(c.Storage.validate())
	el.Add(c.Nats.validate())

	return el.Err()
}

type RegenConfig struct {
	Amount     int    `json:"amount,omitempty"`
	EveryTicks uint64 `json:"every_ticks,omitempty"`
}

func (c *RegenConfig) validate() error {
	if c.Amount < 0 {
		return fmt.Errorf("regen amount cannot be negative")
	}
	return nil
}
