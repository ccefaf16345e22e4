// Package engine runs the game's tick loop: drain queued commands, apply
// them in arrival order, advance combat, process respawns, regenerate, and
// flush the tick's events to the message bus.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/RednibCoding/mudden-sub001/internal/combat"
	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/quest"
	"github.com/RednibCoding/mudden-sub001/internal/queue"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

const (
	DefaultTickLength = time.Second * 2

	// DefaultRegenAmount is the health restored per regen interval to
	// players and enemies outside combat.
	DefaultRegenAmount = 1
	DefaultRegenEvery  = 5
)

// Publisher provides the ability to publish messages to subjects.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Hooks are optional tick observation points.
type Hooks struct {
	// AfterTick runs on the tick goroutine after each completed tick.
	AfterTick func(n uint64)
}

// Engine owns the tick loop and, through it, all mutable game state. The
// command queue is the only entry point for other goroutines; everything the
// engine touches downstream of Drain is single-threaded.
type Engine struct {
	queue    *queue.Queue
	world    *game.World
	registry *combat.Registry
	tracker  *quest.Tracker
	sink     *events.Sink
	players  storage.Storer[*game.Player]

	publisher       Publisher
	tickLength      time.Duration
	regenAmount     int
	regenEvery      uint64
	defaultLocation storage.Identifier
	hooks           Hooks

	ticks uint64
	saves sync.WaitGroup
}

type EngineOpt func(*Engine)

func WithTickLength(d time.Duration) EngineOpt {
	return func(e *Engine) {
		if d > 0 {
			e.tickLength = d
		}
	}
}

// WithPublisher sets where the tick's outbound events are delivered. Without
// one, events are dropped.
func WithPublisher(p Publisher) EngineOpt {
	return func(e *Engine) {
		e.publisher = p
	}
}

func WithQuestTracker(t *quest.Tracker) EngineOpt {
	return func(e *Engine) {
		e.tracker = t
	}
}

func WithRegen(amount int, everyNTicks uint64) EngineOpt {
	return func(e *Engine) {
		e.regenAmount = amount
		if everyNTicks > 0 {
			e.regenEvery = everyNTicks
		}
	}
}

func WithHooks(h Hooks) EngineOpt {
	return func(e *Engine) {
		e.hooks = h
	}
}

func NewEngine(
	q *queue.Queue,
	w *game.World,
	r *combat.Registry,
	sink *events.Sink,
	players storage.Storer[*game.Player],
	defaultLocation storage.Identifier,
	opts ...EngineOpt,
) *Engine {
	e := &Engine{
		queue:           q,
		world:           w,
		registry:        r,
		sink:            sink,
		players:         players,
		defaultLocation: defaultLocation,
		tickLength:      DefaultTickLength,
		regenAmount:     DefaultRegenAmount,
		regenEvery:      DefaultRegenEvery,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start runs the tick loop until the context is cancelled. Ticks fire at a
// fixed interval; when one overruns, the firings it missed are skipped
// rather than run back to back, so the loop degrades by slowing down instead
// of by bursting.
func (e *Engine) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "engine starting", "tick_length", e.tickLength)

	ticker := time.NewTicker(e.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.saves.Wait()
			slog.InfoContext(ctx, "engine stopped", "ticks", e.ticks)
			return nil
		case now := <-ticker.C:
			start := time.Now()
			e.Tick(now)

			if elapsed := time.Since(start); elapsed > e.tickLength {
				skipped := drainMissed(ticker)
				slog.WarnContext(ctx, "tick overran interval",
					"tick", e.ticks,
					"elapsed", elapsed,
					"interval", e.tickLength,
					"skipped", skipped)
			}
		}
	}
}

// drainMissed discards tick firings that queued up while the previous tick
// ran, so an overrun is followed by a full interval of breathing room rather
// than an immediate back-to-back tick.
func drainMissed(ticker *time.Ticker) int {
	skipped := 0
	for {
		select {
		case <-ticker.C:
			skipped++
		default:
			return skipped
		}
	}
}

// SubmitCommand parses one line of client input and enqueues it for the next
// tick. Safe to call from any goroutine. An empty line is ignored.
func (e *Engine) SubmitCommand(connID, line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	e.queue.Add(queue.Command{
		ConnectionID: connID,
		Verb:         strings.ToLower(fields[0]),
		Args:         fields[1:],
		ReceivedAt:   time.Now(),
	})
}

// Connect enqueues admission of a named player on the given connection.
func (e *Engine) Connect(connID, name string) {
	e.queue.Add(queue.Command{
		ConnectionID: connID,
		Verb:         "connect",
		Args:         []string{name},
		ReceivedAt:   time.Now(),
	})
}

// Disconnect enqueues removal of the connection's player. Called by the
// session when the connection drops, for any reason.
func (e *Engine) Disconnect(connID string) {
	e.queue.Add(queue.Command{
		ConnectionID: connID,
		Verb:         "disconnect",
		ReceivedAt:   time.Now(),
	})
}

// Tick advances the world by one step. Exported so tests can drive the
// engine without the ticker.
func (e *Engine) Tick(now time.Time) {
	e.ticks++

	for _, cmd := range e.queue.Drain() {
		if err := e.apply(cmd); err != nil {
			var ue *UserError
			if errors.As(err, &ue) {
				e.sink.Push(cmd.ConnectionID, events.CommandError{
					ConnectionID: cmd.ConnectionID,
					Reason:       ue.Message,
				})
			} else {
				slog.Error("applying command", "conn", cmd.ConnectionID, "verb", cmd.Verb, "error", err)
			}
		}
	}

	e.registry.Round(now)
	e.registry.ProcessRespawns(now)
	e.reviveDefeated()

	if e.regenAmount > 0 && e.ticks%e.regenEvery == 0 {
		e.world.Regenerate(e.regenAmount, e.registry.InCombat)
	}

	e.flush()

	if e.hooks.AfterTick != nil {
		e.hooks.AfterTick(e.ticks)
	}
}

// reviveDefeated returns players who died this tick to the starting location
// at full health. Combat has already dropped them from their session.
func (e *Engine) reviveDefeated() {
	e.world.ForEachPlayer(func(ps *game.PlayerState) {
		if ps.IsAlive() {
			return
		}
		ps.Record.Health = ps.Record.MaxHealth

		if err := e.world.MovePlayer(ps, e.defaultLocation); err != nil {
			slog.Error("reviving player", "player", ps.ID, "error", err)
			return
		}
		e.saveAsync(ps)
		e.sink.Push(ps.ConnID, events.Info{
			Message: fmt.Sprintf("You come to, battered but alive.\n\n%s",
				e.world.Location(ps.LocationID).Describe(ps.ID)),
		})
	})
}

// flush publishes every event the tick produced to its connection's subject.
func (e *Engine) flush() {
	out := e.sink.Drain()
	if e.publisher == nil {
		return
	}

	for _, o := range out {
		data, err := events.Encode(o.Event)
		if err != nil {
			slog.Error("encoding event", "type", o.Event.EventType(), "error", err)
			continue
		}
		if err := e.publisher.Publish(Subject(o.ConnID), data); err != nil {
			slog.Error("publishing event", "conn", o.ConnID, "error", err)
		}
	}
}

// Subject is the bus subject carrying events for one connection.
func Subject(connID string) string {
	return fmt.Sprintf("conn-%s", connID)
}

// saveAsync persists a snapshot of the player record off the tick thread.
// Saves are fire and forget; a failure is logged and the tick moves on.
func (e *Engine) saveAsync(ps *game.PlayerState) {
	record := *ps.Record
	if ps.Record.QuestProgress != nil {
		record.QuestProgress = make(map[storage.Identifier][]int, len(ps.Record.QuestProgress))
		for k, v := range ps.Record.QuestProgress {
			record.QuestProgress[k] = append([]int(nil), v...)
		}
	}
	id := ps.ID

	e.saves.Add(1)
	go func() {
		defer e.saves.Done()
		if err := e.players.Save(id, &record); err != nil {
			slog.Error("saving player", "player", id, "error", err)
		}
	}()
}
