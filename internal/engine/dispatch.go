package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/RednibCoding/mudden-sub001/internal/combat"
	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/queue"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

var nameRe = regexp.MustCompile(`^[a-z][a-z0-9-]{1,23}$`)

// apply executes one queued command on the tick thread. User mistakes come
// back as *UserError; anything else is a system failure worth logging.
func (e *Engine) apply(cmd queue.Command) error {
	if cmd.Verb == "connect" {
		return e.applyConnect(cmd)
	}

	ps := e.world.PlayerByConn(cmd.ConnectionID)
	if ps == nil {
		// Connection raced its own disconnect; nothing to act on.
		return nil
	}

	switch cmd.Verb {
	case "disconnect":
		return e.applyDisconnect(ps)
	case "attack", "kill":
		return e.applyAttack(ps, cmd.Args)
	case "flee":
		_, err := e.registry.Flee(ps)
		return err
	case "go", "move":
		return e.applyMove(ps, cmd.Args)
	case "look", "l":
		e.sink.Push(ps.ConnID, events.Info{Message: e.world.Location(ps.LocationID).Describe(ps.ID)})
		return nil
	case "say":
		return e.applySay(ps, cmd.Args)
	case "quests":
		return e.applyQuests(ps)
	default:
		return NewUserError(fmt.Sprintf("Unknown command: %s", cmd.Verb))
	}
}

// applyConnect admits a connection as a named player, creating the record on
// first login. Runs on the tick thread like every other command, so world
// membership never races.
func (e *Engine) applyConnect(cmd queue.Command) error {
	if len(cmd.Args) < 1 {
		return NewUserError("A name is required.")
	}

	name := strings.ToLower(cmd.Args[0])
	if !nameRe.MatchString(name) {
		return NewUserError("Names are 2 to 24 letters, digits, or dashes, and start with a letter.")
	}
	id := storage.Identifier(name)

	record := e.players.Get(id)
	if record == nil {
		record = e.newCharacter(cmd.Args[0])
		if err := e.players.Save(id, record); err != nil {
			return fmt.Errorf("saving new character %q: %w", id, err)
		}
		slog.Info("created character", "player", id)
	}

	ps := &game.PlayerState{ID: id, ConnID: cmd.ConnectionID, Record: record}
	if err := e.world.AddPlayer(ps, e.defaultLocation); err != nil {
		if errors.Is(err, game.ErrPlayerExists) {
			return NewUserError(fmt.Sprintf("%s is already playing.", record.Name))
		}
		return fmt.Errorf("adding player %q: %w", id, err)
	}

	e.sink.Push(ps.ConnID, events.Info{
		Message: fmt.Sprintf("Welcome, %s.\n\n%s", record.Name, e.world.Location(ps.LocationID).Describe(ps.ID)),
	})
	return nil
}

func (e *Engine) applyDisconnect(ps *game.PlayerState) error {
	e.registry.RemoveParticipant(ps)

	state, err := e.world.RemovePlayer(ps.ID)
	if err != nil {
		return fmt.Errorf("removing player %q: %w", ps.ID, err)
	}
	e.saveAsync(state)
	return nil
}

func (e *Engine) applyAttack(ps *game.PlayerState, args []string) error {
	if len(args) < 1 {
		return NewUserError("Attack what?")
	}

	target := e.world.Location(ps.LocationID).FindEnemy(strings.Join(args, " "))
	if target == nil {
		return NewUserError(fmt.Sprintf("There is no %s here.", strings.Join(args, " ")))
	}

	err := e.registry.Attack(ps, target)
	switch {
	case err == nil:
		e.sink.Push(ps.ConnID, events.Info{Message: fmt.Sprintf("You attack %s!", target.Name())})
		return nil
	case errors.Is(err, combat.ErrTargetDead):
		return NewUserError(fmt.Sprintf("%s is already dead.", target.Name()))
	case errors.Is(err, combat.ErrDefeated):
		return NewUserError("You are in no condition to fight.")
	case errors.Is(err, combat.ErrBusyElsewhere):
		return NewUserError("You are already fighting elsewhere.")
	default:
		return err
	}
}

func (e *Engine) applyMove(ps *game.PlayerState, args []string) error {
	if len(args) < 1 {
		return NewUserError("Go where?")
	}
	if ps.InCombat() {
		return NewUserError("You cannot walk away mid-fight. Try to flee.")
	}

	dir := strings.ToLower(args[0])
	dest, ok := e.world.Location(ps.LocationID).Def.Exits[dir]
	if !ok {
		return NewUserError(fmt.Sprintf("You cannot go %s from here.", dir))
	}
	if err := e.world.MovePlayer(ps, dest); err != nil {
		return err
	}

	e.sink.Push(ps.ConnID, events.Info{Message: e.world.Location(ps.LocationID).Describe(ps.ID)})
	return nil
}

func (e *Engine) applySay(ps *game.PlayerState, args []string) error {
	if len(args) == 0 {
		return NewUserError("Say what?")
	}
	msg := strings.Join(args, " ")

	for _, other := range e.world.Location(ps.LocationID).Players() {
		if other.ID == ps.ID {
			e.sink.Push(other.ConnID, events.Info{Message: fmt.Sprintf("You say: %s", msg)})
		} else {
			e.sink.Push(other.ConnID, events.Info{Message: fmt.Sprintf("%s says: %s", ps.Record.Name, msg)})
		}
	}
	return nil
}

func (e *Engine) applyQuests(ps *game.PlayerState) error {
	if e.tracker == nil {
		return NewUserError("There are no quests here.")
	}

	var b strings.Builder
	for _, st := range e.tracker.Progress(ps) {
		mark := " "
		if st.Done {
			mark = "*"
		}
		fmt.Fprintf(&b, "[%s] %s\n", mark, st.Name)
		for _, line := range st.Lines {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if b.Len() == 0 {
		return NewUserError("There are no quests here.")
	}

	e.sink.Push(ps.ConnID, events.Info{Message: strings.TrimRight(b.String(), "\n")})
	return nil
}

// newCharacter is the starting record for a first login.
func (e *Engine) newCharacter(name string) *game.Player {
	return &game.Player{
		Name:      name,
		Health:    20,
		MaxHealth: 20,
		Damage:    5,
		Defense:   1,
		Location:  e.defaultLocation,
	}
}
