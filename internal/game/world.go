package game

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// World is the single source of truth for all mutable game state: locations,
// the enemies spawned at them, and the players connected to them.
//
// Everything here is owned by the tick goroutine. Connections never touch the
// world directly; they submit commands through the engine's queue and the
// tick applies them. That ownership rule is what lets the world go without
// locks.
type World struct {
	templates storage.Storer[*EnemyTemplate]
	locations map[storage.Identifier]*LocationInstance
	players   map[storage.Identifier]*PlayerState
	byConn    map[string]storage.Identifier
}

// LocationInstance pairs a location definition with the entities currently
// in it.
type LocationInstance struct {
	ID  storage.Identifier
	Def *Location

	enemies []*EnemyInstance
	players map[storage.Identifier]*PlayerState
}

// NewWorld builds location instances from content, validates cross
// references, and spawns each location's initial enemies.
func NewWorld(templates storage.Storer[*EnemyTemplate], locations storage.Storer[*Location]) (*World, error) {
	w := &World{
		templates: templates,
		locations: make(map[storage.Identifier]*LocationInstance),
		players:   make(map[storage.Identifier]*PlayerState),
		byConn:    make(map[string]storage.Identifier),
	}

	for id, def := range locations.GetAll() {
		w.locations[id] = &LocationInstance{
			ID:      id,
			Def:     def,
			players: make(map[storage.Identifier]*PlayerState),
		}
	}

	for id, li := range w.locations {
		for dir, dest := range li.Def.Exits {
			if _, ok := w.locations[dest]; !ok {
				return nil, fmt.Errorf("location %q: exit %q: %w: %s", id, dir, ErrUnknownLocation, dest)
			}
		}
		for _, s := range li.Def.Spawns {
			for range s.Count {
				if _, err := w.SpawnEnemy(s.Template, id); err != nil {
					return nil, fmt.Errorf("location %q: %w", id, err)
				}
			}
		}
	}

	return w, nil
}

// Location returns the instance for the given id, or nil.
func (w *World) Location(id storage.Identifier) *LocationInstance {
	return w.locations[id]
}

// SpawnEnemy materializes a new enemy instance from a template at a location.
func (w *World) SpawnEnemy(templateID, locationID storage.Identifier) (*EnemyInstance, error) {
	tmpl := w.templates.Get(templateID)
	if tmpl == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, templateID)
	}
	li, ok := w.locations[locationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocation, locationID)
	}

	ei := &EnemyInstance{
		InstanceID: uuid.New().String(),
		TemplateID: templateID,
		Template:   tmpl,
		Health:     tmpl.MaxHealth,
		MaxHealth:  tmpl.MaxHealth,
		LocationID: locationID,
		SpawnedAt:  time.Now(),
	}
	li.enemies = append(li.enemies, ei)

	return ei, nil
}

// RemoveEnemy takes a dead enemy out of its location.
func (w *World) RemoveEnemy(ei *EnemyInstance) {
	li, ok := w.locations[ei.LocationID]
	if !ok {
		return
	}
	for i, e := range li.enemies {
		if e.InstanceID == ei.InstanceID {
			li.enemies = append(li.enemies[:i], li.enemies[i+1:]...)
			return
		}
	}
}

// AddPlayer registers a connected player and places them in their location.
// Falls back to defaultLoc when the record's location no longer exists.
func (w *World) AddPlayer(ps *PlayerState, defaultLoc storage.Identifier) error {
	if _, exists := w.players[ps.ID]; exists {
		return ErrPlayerExists
	}

	li, ok := w.locations[ps.Record.Location]
	if !ok {
		li, ok = w.locations[defaultLoc]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownLocation, defaultLoc)
		}
		ps.Record.Location = defaultLoc
	}
	ps.LocationID = li.ID

	w.players[ps.ID] = ps
	w.byConn[ps.ConnID] = ps.ID
	li.players[ps.ID] = ps

	return nil
}

// RemovePlayer takes a player out of the world, returning their state so
// the caller can schedule a save.
func (w *World) RemovePlayer(id storage.Identifier) (*PlayerState, error) {
	ps, exists := w.players[id]
	if !exists {
		return nil, ErrPlayerNotFound
	}

	if li, ok := w.locations[ps.LocationID]; ok {
		delete(li.players, id)
	}
	delete(w.byConn, ps.ConnID)
	delete(w.players, id)

	return ps, nil
}

// Player returns the state for the given player id, or nil.
func (w *World) Player(id storage.Identifier) *PlayerState {
	return w.players[id]
}

// PlayerByConn returns the player attached to a connection, or nil.
func (w *World) PlayerByConn(connID string) *PlayerState {
	id, ok := w.byConn[connID]
	if !ok {
		return nil
	}
	return w.players[id]
}

// MovePlayer relocates a player between location instances.
func (w *World) MovePlayer(ps *PlayerState, dest storage.Identifier) error {
	to, ok := w.locations[dest]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownLocation, dest)
	}

	if from, ok := w.locations[ps.LocationID]; ok {
		delete(from.players, ps.ID)
	}
	to.players[ps.ID] = ps
	ps.LocationID = dest
	ps.Record.Location = dest

	return nil
}

// ForEachPlayer calls fn for every connected player.
func (w *World) ForEachPlayer(fn func(*PlayerState)) {
	for _, ps := range w.players {
		fn(ps)
	}
}

// Regenerate restores health to out-of-combat players and enemies. Combat
// membership is the registry's knowledge, so it is passed in as a predicate.
func (w *World) Regenerate(amount int, enemyInCombat func(instanceID string) bool) {
	for _, ps := range w.players {
		if !ps.InCombat() && ps.IsAlive() && ps.Record.Health < ps.Record.MaxHealth {
			ps.Regenerate(amount)
		}
	}
	for _, li := range w.locations {
		for _, ei := range li.enemies {
			if !enemyInCombat(ei.InstanceID) && ei.Health < ei.MaxHealth {
				ei.Regenerate(amount)
			}
		}
	}
}

// Enemies returns the enemies currently spawned at the location.
func (li *LocationInstance) Enemies() []*EnemyInstance {
	return li.enemies
}

// FindEnemy resolves a player-typed name to a living enemy at the location.
// Matching is case-insensitive on name prefix, oldest spawn first.
func (li *LocationInstance) FindEnemy(name string) *EnemyInstance {
	name = strings.ToLower(name)
	for _, ei := range li.enemies {
		if !ei.IsAlive() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(ei.Name()), name) {
			return ei
		}
	}
	return nil
}

// Players returns the players at the location.
func (li *LocationInstance) Players() map[storage.Identifier]*PlayerState {
	return li.players
}

// Describe renders the location for the given viewer.
func (li *LocationInstance) Describe(viewer storage.Identifier) string {
	var b strings.Builder

	b.WriteString(li.Def.Name)
	b.WriteString("\n")
	if li.Def.Description != "" {
		b.WriteString(li.Def.Description)
		b.WriteString("\n")
	}

	if len(li.Def.Exits) > 0 {
		dirs := make([]string, 0, len(li.Def.Exits))
		for dir := range li.Def.Exits {
			dirs = append(dirs, dir)
		}
		sort.Strings(dirs)
		b.WriteString(fmt.Sprintf("Exits: %s\n", strings.Join(dirs, ", ")))
	}

	for _, ei := range li.enemies {
		if ei.IsAlive() {
			b.WriteString(fmt.Sprintf("%s is here.\n", ei.Name()))
		}
	}

	for id, ps := range li.players {
		if id == viewer {
			continue
		}
		b.WriteString(fmt.Sprintf("%s is here.\n", ps.Record.Name))
	}

	return b.String()
}
