package combat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// RespawnTimer defers re-creation of a defeated enemy. The timer lives in
// the registry from the tick the enemy dies until ReadyAt elapses, when a
// fresh instance is spawned and the timer is discarded.
type RespawnTimer struct {
	TemplateID storage.Identifier
	LocationID storage.Identifier
	ReadyAt    time.Time
}

// ProcessRespawns materializes a new enemy for every timer that has come
// due and announces it to the players at the location.
func (r *Registry) ProcessRespawns(now time.Time) {
	if len(r.timers) == 0 {
		return
	}

	var remaining []RespawnTimer
	for _, t := range r.timers {
		if t.ReadyAt.After(now) {
			remaining = append(remaining, t)
			continue
		}

		ei, err := r.world.SpawnEnemy(t.TemplateID, t.LocationID)
		if err != nil {
			// Content changed under us; the timer is unrecoverable.
			slog.Error("respawn failed, discarding timer",
				"template", t.TemplateID, "location", t.LocationID, "error", err)
			continue
		}

		if li := r.world.Location(t.LocationID); li != nil {
			for _, ps := range li.Players() {
				r.sink.Push(ps.ConnID, events.Info{
					Message: fmt.Sprintf("%s has returned.", ei.Name()),
				})
			}
		}
	}
	r.timers = remaining
}
