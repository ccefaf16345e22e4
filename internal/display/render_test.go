package display

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/RednibCoding/mudden-sub001/internal/events"
)

func TestRenderer_Render(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("building renderer: %v", err)
	}

	tests := map[string]struct {
		event events.Event
		exp   string
	}{
		"info": {
			event: &events.Info{Message: "You are in the village."},
			exp:   "You are in the village.",
		},
		"command error": {
			event: &events.CommandError{Reason: "Unknown command: dance"},
			exp:   "Unknown command: dance",
		},
		"flee success": {
			event: &events.FleeResult{Player: "alice", Success: true},
			exp:   "You break away from the fight!",
		},
		"flee failure": {
			event: &events.FleeResult{Player: "alice"},
			exp:   "You fail to get away!",
		},
		"quest progress": {
			event: &events.QuestProgress{Quest: "Boar Cull", Have: 1, Need: 2},
			exp:   "Quest updated: Boar Cull (1/2)",
		},
		"quest complete": {
			event: &events.QuestComplete{Quest: "Boar Cull", Gold: 15, XP: 40},
			exp:   "Quest complete: Boar Cull! You receive 15 gold and 40 experience.",
		},
	}
	for tn, tc := range tests {
		t.Run(tn, func(t *testing.T) {
			got, err := r.Render(tc.event)
			if err != nil {
				t.Fatalf("rendering: %v", err)
			}
			testutil.AssertEqual(t, "text", got, tc.exp)
		})
	}
}

func TestRenderer_RenderCombatRound(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("building renderer: %v", err)
	}

	got, err := r.Render(&events.CombatRound{
		Damage: []events.Damage{
			{Attacker: "alice", Target: "a wild boar", Amount: 8, TargetHealth: 0},
		},
		Deaths: []events.Death{
			{Name: "a wild boar", CreditedTo: "alice"},
		},
		Rewards: []events.Reward{
			{Player: "alice", Gold: 5, XP: 12, Item: "boar-tusk"},
		},
	})
	if err != nil {
		t.Fatalf("rendering: %v", err)
	}

	lines := strings.Split(got, "\n")
	testutil.AssertEqual(t, "three lines", len(lines), 3)
	testutil.AssertEqual(t, "hit line", lines[0], "Alice hits a wild boar for 8 damage.")
	testutil.AssertEqual(t, "death line", lines[1], "A wild boar dies, felled by alice.")
	testutil.AssertEqual(t, "reward line", lines[2], "alice gains 5 gold and 12 experience and picks up boar-tusk.")
}

type unmappedEvent struct{}

func (unmappedEvent) EventType() string { return "unmapped" }

func TestRenderer_UnknownEventIsSilent(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("building renderer: %v", err)
	}

	got, err := r.Render(unmappedEvent{})
	if err != nil {
		t.Fatalf("rendering: %v", err)
	}
	testutil.AssertEqual(t, "no output", got, "")
}

func TestWrap(t *testing.T) {
	long := strings.Repeat("word ", 30)
	for _, line := range strings.Split(Wrap(long), "\n") {
		if len(line) > DefaultWidth {
			t.Errorf("line longer than %d: %q", DefaultWidth, line)
		}
	}
}

func TestCapitalize(t *testing.T) {
	testutil.AssertEqual(t, "lowercase", Capitalize("a wild boar"), "A wild boar")
	testutil.AssertEqual(t, "empty", Capitalize(""), "")
}
