// Package events defines the outbound event shapes the engine emits each
// tick. Events are addressed to a connection, marshalled to JSON, and carried
// to the player session over the message bus.
package events

import (
	"encoding/json"
	"fmt"
)

// Event is anything the engine can emit to a client.
type Event interface {
	EventType() string
}

// Damage is one resolved hit inside a combat round.
type Damage struct {
	Attacker     string `json:"attacker"`
	Target       string `json:"target"`
	Amount       int    `json:"amount"`
	TargetHealth int    `json:"target_health"`
}

// Death records an enemy removed from a session, with kill credit.
type Death struct {
	InstanceID string `json:"instance_id"`
	Template   string `json:"template"`
	Name       string `json:"name"`
	CreditedTo string `json:"credited_to"`
}

// Reward is one participant's payout from an enemy death.
type Reward struct {
	Player string `json:"player"`
	Gold   int    `json:"gold"`
	XP     int    `json:"xp"`
	Item   string `json:"item,omitempty"`
}

// CombatRound summarizes one round of one session for a participant.
type CombatRound struct {
	SessionID string   `json:"session_id"`
	Damage    []Damage `json:"damage_events"`
	Deaths    []Death  `json:"deaths"`
	Rewards   []Reward `json:"rewards"`
}

func (CombatRound) EventType() string { return "combat_round" }

// CommandError tells the originating connection its command failed.
type CommandError struct {
	ConnectionID string `json:"connection_id"`
	Reason       string `json:"reason"`
}

func (CommandError) EventType() string { return "command_error" }

// Info is plain descriptive text: look output, movement, arrivals.
type Info struct {
	Message string `json:"message"`
}

func (Info) EventType() string { return "info" }

// FleeResult reports a flee attempt's outcome to the one who tried.
type FleeResult struct {
	Player  string `json:"player"`
	Success bool   `json:"success"`
}

func (FleeResult) EventType() string { return "flee_result" }

// PlayerDefeated is sent to a participant whose health reached zero.
type PlayerDefeated struct {
	Player string `json:"player"`
}

func (PlayerDefeated) EventType() string { return "player_defeated" }

// CombatInterrupted is sent to participants of a session torn down after an
// internal fault.
type CombatInterrupted struct {
	SessionID string `json:"session_id"`
}

func (CombatInterrupted) EventType() string { return "combat_interrupted" }

// QuestProgress reports movement on a kill objective.
type QuestProgress struct {
	Quest     string `json:"quest"`
	Objective int    `json:"objective"`
	Have      int    `json:"have"`
	Need      int    `json:"need"`
}

func (QuestProgress) EventType() string { return "quest_progress" }

// QuestComplete reports a finished quest and its payout.
type QuestComplete struct {
	Quest string `json:"quest"`
	Gold  int    `json:"gold"`
	XP    int    `json:"xp"`
}

func (QuestComplete) EventType() string { return "quest_complete" }

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode wraps an event in its type envelope.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", ev.EventType(), err)
	}
	return json.Marshal(envelope{Type: ev.EventType(), Data: data})
}

// Decode unwraps an envelope back into its typed event.
func Decode(b []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("unmarshalling envelope: %w", err)
	}

	var ev Event
	switch env.Type {
	case "combat_round":
		ev = &CombatRound{}
	case "command_error":
		ev = &CommandError{}
	case "info":
		ev = &Info{}
	case "flee_result":
		ev = &FleeResult{}
	case "player_defeated":
		ev = &PlayerDefeated{}
	case "combat_interrupted":
		ev = &CombatInterrupted{}
	case "quest_progress":
		ev = &QuestProgress{}
	case "quest_complete":
		ev = &QuestComplete{}
	default:
		return nil, fmt.Errorf("unknown event type %q", env.Type)
	}

	if err := json.Unmarshal(env.Data, ev); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", env.Type, err)
	}
	return ev, nil
}
