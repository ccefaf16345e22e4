package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-service"
	"github.com/RednibCoding/mudden-sub001/internal/combat"
	"github.com/RednibCoding/mudden-sub001/internal/display"
	"github.com/RednibCoding/mudden-sub001/internal/engine"
	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/listener"
	"github.com/RednibCoding/mudden-sub001/internal/player"
	"github.com/RednibCoding/mudden-sub001/internal/quest"
	"github.com/RednibCoding/mudden-sub001/internal/queue"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	stores, err := cfg.Storage.BuildStores()
	if err != nil {
		return nil, fmt.Errorf("creating stores: %w", err)
	}

	world, err := game.NewWorld(stores.Enemies, stores.Locations)
	if err != nil {
		return nil, fmt.Errorf("building world: %w", err)
	}

	defaultLoc := storage.Identifier(cfg.DefaultLocation)
	if world.Location(defaultLoc) == nil {
		return nil, fmt.Errorf("default_location %q does not exist", defaultLoc)
	}

	sink := events.NewSink()
	tracker := quest.NewTracker(stores.Quests, sink)

	rules, err := cfg.Combat.buildRules()
	if err != nil {
		return nil, fmt.Errorf("building combat rules: %w", err)
	}
	registry := combat.NewRegistry(world, rules, sink, combat.WithKillNotifier(tracker))

	nats, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	tickInterval, err := time.ParseDuration(cfg.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("parsing tick_interval: %w", err)
	}

	engineOpts := []engine.EngineOpt{
		engine.WithTickLength(tickInterval),
		engine.WithPublisher(nats),
		engine.WithQuestTracker(tracker),
	}
	if cfg.Regen.Amount > 0 {
		engineOpts = append(engineOpts, engine.WithRegen(cfg.Regen.Amount, cfg.Regen.EveryTicks))
	}

	eng := engine.NewEngine(
		queue.New(cfg.QueueCapacity),
		world,
		registry,
		sink,
		stores.Players,
		defaultLoc,
		engineOpts...,
	)

	renderer, err := display.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("building renderer: %w", err)
	}
	sessions := player.NewManager(eng, nats, renderer)
	cm := listener.NewConnectionManager(sessions)

	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lst, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lst
	}

	return service.WorkerList{
		"nats":      nats,
		"engine":    eng,
		"sessions":  sessions,
		"listeners": &listeners,
	}, nil
}
