package combat

import (
	"math/rand/v2"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestRules_Damage(t *testing.T) {
	tests := map[string]struct {
		attack  int
		defense int
		exp     int
	}{
		"simple":            {attack: 10, defense: 2, exp: 8},
		"no defense":        {attack: 7, defense: 0, exp: 7},
		"defense equal":     {attack: 5, defense: 5, exp: 1},
		"defense exceeds":   {attack: 3, defense: 50, exp: 1},
		"negative defense":  {attack: 4, defense: -2, exp: 6},
		"minimum both zero": {attack: 0, defense: 0, exp: 1},
	}
	for tn, tc := range tests {
		t.Run(tn, func(t *testing.T) {
			rules := Rules{Variance: 0}
			got := rules.Damage(seededRand(), tc.attack, tc.defense)
			testutil.AssertEqual(t, "damage", got, tc.exp)
		})
	}
}

func TestRules_DamageVariance(t *testing.T) {
	rules := Rules{Variance: 0.2}
	rng := rand.New(rand.NewPCG(3, 9))

	// 10-2 widens to 8*(1±0.2), so every sample lands in [6, 10] after
	// rounding and at least one sample moves off the midpoint.
	varied := false
	for i := 0; i < 1000; i++ {
		got := rules.Damage(rng, 10, 2)
		if got < 6 || got > 10 {
			t.Fatalf("damage %d outside [6, 10]", got)
		}
		if got != 8 {
			varied = true
		}
	}
	if !varied {
		t.Error("variance never moved damage off the midpoint")
	}
}

func TestRules_DamageNeverBelowOne(t *testing.T) {
	rules := Rules{Variance: 0.9}
	rng := rand.New(rand.NewPCG(11, 4))

	// A floored hit of 1 with heavy downward variance rounds to zero
	// before the second floor catches it.
	for i := 0; i < 1000; i++ {
		if got := rules.Damage(rng, 1, 10); got < 1 {
			t.Fatalf("damage %d below minimum", got)
		}
	}
}
