package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
	"github.com/RednibCoding/mudden-sub001/internal/combat"
	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/quest"
	"github.com/RednibCoding/mudden-sub001/internal/queue"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

type mapStore[T storage.ValidatingSpec] struct {
	mu      sync.Mutex
	records map[storage.Identifier]T
}

func newMapStore[T storage.ValidatingSpec]() *mapStore[T] {
	return &mapStore[T]{records: map[storage.Identifier]T{}}
}

func (s *mapStore[T]) Save(id storage.Identifier, v T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = v
	return nil
}

func (s *mapStore[T]) Get(id storage.Identifier) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

func (s *mapStore[T]) GetAll() map[storage.Identifier]T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records
}

type published struct {
	subject string
	event   events.Event
}

// recordingPublisher decodes what the engine flushes so tests assert on
// typed events instead of raw JSON.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	ev, err := events.Decode(data)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.msgs = append(p.msgs, published{subject: subject, event: ev})
	p.mu.Unlock()
	return nil
}

func (p *recordingPublisher) take() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	msgs := p.msgs
	p.msgs = nil
	return msgs
}

type harness struct {
	engine    *Engine
	world     *game.World
	registry  *combat.Registry
	players   *mapStore[*game.Player]
	publisher *recordingPublisher
}

func newHarness(t *testing.T, opts ...EngineOpt) *harness {
	t.Helper()

	templates := newMapStore[*game.EnemyTemplate]()
	templates.records["rat"] = &game.EnemyTemplate{
		Name: "a sewer rat", Damage: 1, Defense: 0, MaxHealth: 5, RewardGold: 3, RewardXP: 10,
	}
	templates.records["drake"] = &game.EnemyTemplate{
		Name: "a drake", Damage: 100, Defense: 0, MaxHealth: 500,
	}
	templates.records["troll"] = &game.EnemyTemplate{
		Name: "a troll", Damage: 1, Defense: 100, MaxHealth: 500,
	}

	locations := newMapStore[*game.Location]()
	locations.records["village"] = &game.Location{
		Name: "The Village", Exits: map[string]storage.Identifier{"north": "forest"},
	}
	locations.records["forest"] = &game.Location{
		Name: "The Forest", Exits: map[string]storage.Identifier{"south": "village"},
	}

	w, err := game.NewWorld(templates, locations)
	if err != nil {
		t.Fatalf("building world: %v", err)
	}

	sink := events.NewSink()
	registry := combat.NewRegistry(w, combat.Rules{
		Variance:     0,
		FleeChance:   0.5,
		RespawnDelay: 30 * time.Second,
	}, sink, combat.WithRand(rand.New(rand.NewPCG(5, 17))))

	quests := newMapStore[*quest.Quest]()
	players := newMapStore[*game.Player]()
	publisher := &recordingPublisher{}

	opts = append([]EngineOpt{
		WithPublisher(publisher),
		WithQuestTracker(quest.NewTracker(quests, sink)),
	}, opts...)

	return &harness{
		engine:    NewEngine(queue.New(0), w, registry, sink, players, "village", opts...),
		world:     w,
		registry:  registry,
		players:   players,
		publisher: publisher,
	}
}

func (h *harness) connect(t *testing.T, connID, name string) *game.PlayerState {
	t.Helper()
	h.engine.Connect(connID, name)
	h.engine.Tick(time.Now())
	ps := h.world.PlayerByConn(connID)
	if ps == nil {
		t.Fatalf("player %s not admitted", name)
	}
	return ps
}

func eventsOn[T events.Event](msgs []published, subject string) []T {
	var out []T
	for _, m := range msgs {
		if m.subject != subject {
			continue
		}
		if ev, ok := m.event.(T); ok {
			out = append(out, ev)
		}
	}
	return out
}

func TestEngine_ConnectCreatesCharacter(t *testing.T) {
	h := newHarness(t)

	ps := h.connect(t, "c1", "Alice")

	testutil.AssertEqual(t, "normalized id", ps.ID, storage.Identifier("alice"))
	testutil.AssertEqual(t, "placed at default location", ps.LocationID, storage.Identifier("village"))
	testutil.AssertEqual(t, "record persisted", h.players.Get("alice") != nil, true)

	infos := eventsOn[*events.Info](h.publisher.take(), "conn-c1")
	testutil.AssertEqual(t, "welcome sent", len(infos), 1)
}

func TestEngine_ConnectRejectsBadName(t *testing.T) {
	h := newHarness(t)

	h.engine.Connect("c1", "x")
	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "not admitted", h.world.PlayerByConn("c1") == nil, true)
	errs := eventsOn[*events.CommandError](h.publisher.take(), "conn-c1")
	testutil.AssertEqual(t, "rejection sent", len(errs), 1)
}

func TestEngine_ConnectDuplicateName(t *testing.T) {
	h := newHarness(t)

	h.connect(t, "c1", "alice")
	h.engine.Connect("c2", "alice")
	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "second connection refused", h.world.PlayerByConn("c2") == nil, true)
	errs := eventsOn[*events.CommandError](h.publisher.take(), "conn-c2")
	testutil.AssertEqual(t, "refusal sent", len(errs), 1)
}

func TestEngine_UnknownCommand(t *testing.T) {
	h := newHarness(t)
	h.connect(t, "c1", "alice")

	h.engine.SubmitCommand("c1", "dance wildly")
	h.engine.Tick(time.Now())

	errs := eventsOn[*events.CommandError](h.publisher.take(), "conn-c1")
	testutil.AssertEqual(t, "error sent", len(errs), 1)
	testutil.AssertEqual(t, "reason names the verb", errs[0].Reason, "Unknown command: dance")
}

func TestEngine_EmptyTickIsQuiet(t *testing.T) {
	h := newHarness(t)
	h.connect(t, "c1", "alice")
	h.publisher.take()

	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "no events", len(h.publisher.take()), 0)
}

func TestEngine_AttackThroughTheQueue(t *testing.T) {
	h := newHarness(t)
	ps := h.connect(t, "c1", "alice")

	rat, err := h.world.SpawnEnemy("rat", "village")
	if err != nil {
		t.Fatalf("spawning: %v", err)
	}
	h.publisher.take()

	// Starting damage 5 against defense 0 kills the 5 health rat in the
	// same tick the attack lands.
	h.engine.SubmitCommand("c1", "attack rat")
	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "rat dead", rat.Health, 0)
	testutil.AssertEqual(t, "gold paid", ps.Record.Gold, 3)
	testutil.AssertEqual(t, "out of combat", ps.InCombat(), false)

	msgs := h.publisher.take()
	rounds := eventsOn[*events.CombatRound](msgs, "conn-c1")
	testutil.AssertEqual(t, "round reported", len(rounds), 1)
	testutil.AssertEqual(t, "kill credited", rounds[0].Deaths[0].CreditedTo, "Alice")
}

func TestEngine_AttackMissingTarget(t *testing.T) {
	h := newHarness(t)
	h.connect(t, "c1", "alice")
	h.publisher.take()

	h.engine.SubmitCommand("c1", "attack dragon")
	h.engine.Tick(time.Now())

	errs := eventsOn[*events.CommandError](h.publisher.take(), "conn-c1")
	testutil.AssertEqual(t, "error sent", len(errs), 1)
}

func TestEngine_CommandsApplyInArrivalOrder(t *testing.T) {
	h := newHarness(t)
	ps := h.connect(t, "c1", "alice")
	h.publisher.take()

	// Move north then south in one tick; both apply, in order, landing
	// alice back where she started.
	h.engine.SubmitCommand("c1", "go north")
	h.engine.SubmitCommand("c1", "go south")
	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "back at start", ps.LocationID, storage.Identifier("village"))
	infos := eventsOn[*events.Info](h.publisher.take(), "conn-c1")
	testutil.AssertEqual(t, "both moves narrated", len(infos), 2)
}

func TestEngine_MoveBlockedInCombat(t *testing.T) {
	h := newHarness(t)
	ps := h.connect(t, "c1", "alice")

	if _, err := h.world.SpawnEnemy("troll", "village"); err != nil {
		t.Fatalf("spawning: %v", err)
	}
	h.engine.SubmitCommand("c1", "attack troll")
	h.engine.Tick(time.Now())
	h.publisher.take()

	h.engine.SubmitCommand("c1", "go north")
	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "still in the village", ps.Record.Location, storage.Identifier("village"))
	errs := eventsOn[*events.CommandError](h.publisher.take(), "conn-c1")
	testutil.AssertEqual(t, "move refused", len(errs), 1)
}

func TestEngine_DefeatRevivesAtStart(t *testing.T) {
	h := newHarness(t)
	ps := h.connect(t, "c1", "alice")

	if _, err := h.world.SpawnEnemy("drake", "forest"); err != nil {
		t.Fatalf("spawning: %v", err)
	}
	h.engine.SubmitCommand("c1", "go north")
	h.engine.Tick(time.Now())
	h.engine.SubmitCommand("c1", "attack drake")
	h.publisher.take()

	// The drake's retaliation kills alice outright; the same tick revives
	// her at the starting location.
	h.engine.Tick(time.Now())

	testutil.AssertEqual(t, "revived at full health", ps.Record.Health, ps.Record.MaxHealth)
	testutil.AssertEqual(t, "back at the start", ps.LocationID, storage.Identifier("village"))
	testutil.AssertEqual(t, "out of combat", ps.InCombat(), false)

	msgs := h.publisher.take()
	testutil.AssertEqual(t, "defeat reported", len(eventsOn[*events.PlayerDefeated](msgs, "conn-c1")), 1)
	// The attack announcement plus the revival text.
	testutil.AssertEqual(t, "revival narrated", len(eventsOn[*events.Info](msgs, "conn-c1")), 2)
}

func TestEngine_DisconnectSaves(t *testing.T) {
	h := newHarness(t)
	ps := h.connect(t, "c1", "alice")
	ps.Record.Gold = 99

	h.engine.Disconnect("c1")
	h.engine.Tick(time.Now())
	h.engine.saves.Wait()

	testutil.AssertEqual(t, "removed from world", h.world.PlayerByConn("c1") == nil, true)
	saved := h.players.Get("alice")
	testutil.AssertEqual(t, "gold persisted", saved.Gold, 99)
}

func TestEngine_RegenCadence(t *testing.T) {
	h := newHarness(t, WithRegen(2, 3))
	ps := h.connect(t, "c1", "alice")
	ps.Record.Health = 10

	// connect consumed tick 1; ticks 2 and 3 follow, only the third is a
	// regen tick.
	h.engine.Tick(time.Now())
	testutil.AssertEqual(t, "no regen off-cadence", ps.Record.Health, 10)
	h.engine.Tick(time.Now())
	testutil.AssertEqual(t, "regen on the third tick", ps.Record.Health, 12)
}

func TestEngine_SayReachesOnlyTheLocation(t *testing.T) {
	h := newHarness(t)
	h.connect(t, "c1", "alice")
	h.connect(t, "c2", "bob")
	h.connect(t, "c3", "carol")

	// Carol leaves before the shout.
	h.engine.SubmitCommand("c3", "go north")
	h.engine.Tick(time.Now())
	h.publisher.take()

	h.engine.SubmitCommand("c1", "say hello there")
	h.engine.Tick(time.Now())

	msgs := h.publisher.take()
	testutil.AssertEqual(t, "speaker hears themself", len(eventsOn[*events.Info](msgs, "conn-c1")), 1)
	testutil.AssertEqual(t, "neighbor hears it", len(eventsOn[*events.Info](msgs, "conn-c2")), 1)
	testutil.AssertEqual(t, "other location does not", len(eventsOn[*events.Info](msgs, "conn-c3")), 0)
}

func TestEngine_StartStopsOnCancel(t *testing.T) {
	h := newHarness(t, WithTickLength(5*time.Millisecond))

	var ticks atomic.Uint64
	h.engine.hooks.AfterTick = func(n uint64) { ticks.Store(n) }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.engine.Start(ctx) }()

	time.Sleep(60 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("engine did not stop on cancel")
	}

	if ticks.Load() < 3 {
		t.Errorf("expected several ticks, got %d", ticks.Load())
	}
}

func TestDrainMissed(t *testing.T) {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	// Let a firing queue up, as it would during an overrunning tick.
	time.Sleep(25 * time.Millisecond)

	if got := drainMissed(ticker); got < 1 {
		t.Errorf("expected a pending firing to be skipped, got %d", got)
	}
	testutil.AssertEqual(t, "nothing left to skip", drainMissed(ticker), 0)
}
