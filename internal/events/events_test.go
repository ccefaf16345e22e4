package events

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	round := CombatRound{
		SessionID: "s-1",
		Damage: []Damage{
			{Attacker: "Alice", Target: "an ogre", Amount: 7, TargetHealth: 23},
		},
		Deaths:  []Death{{InstanceID: "e-1", Template: "ogre", Name: "an ogre", CreditedTo: "Alice"}},
		Rewards: []Reward{{Player: "Alice", Gold: 20, XP: 50}},
	}

	b, err := Encode(round)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := Decode(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, ok := got.(*CombatRound)
	if !ok {
		t.Fatalf("expected *CombatRound, got %T", got)
	}
	testutil.AssertEqual(t, "session id", decoded.SessionID, "s-1")
	testutil.AssertEqual(t, "damage count", len(decoded.Damage), 1)
	testutil.AssertEqual(t, "credited to", decoded.Deaths[0].CreditedTo, "Alice")
	testutil.AssertEqual(t, "reward gold", decoded.Rewards[0].Gold, 20)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"warp_drive","data":{}}`))
	if err == nil {
		t.Error("expected error for unknown event type")
	}
}

func TestSink(t *testing.T) {
	s := NewSink()

	s.Push("c1", Info{Message: "hello"})
	s.Push("c2", CommandError{ConnectionID: "c2", Reason: "bad target"})
	s.Push("", Info{Message: "dropped, no address"})

	testutil.AssertEqual(t, "pending", s.Len(), 2)

	out := s.Drain()
	testutil.AssertEqual(t, "drained", len(out), 2)
	testutil.AssertEqual(t, "order kept", out[0].ConnID, "c1")
	testutil.AssertEqual(t, "empty after drain", s.Len(), 0)

	if got := s.Drain(); got != nil {
		t.Errorf("second drain should be empty, got %v", got)
	}
}
