package combat

import "errors"

var (
	// ErrTargetDead covers the conflict where the target died earlier in
	// the same tick, before this command was applied. Treated as a no-op
	// with a notice, never fatal.
	ErrTargetDead = errors.New("target is already dead")

	// ErrDefeated rejects actions from a player at zero health.
	ErrDefeated = errors.New("you are in no condition to fight")

	// ErrNotInCombat rejects a flee with no fight to flee from.
	ErrNotInCombat = errors.New("you are not fighting anything")

	// ErrBusyElsewhere rejects attacking into a different encounter while
	// already bound to one.
	ErrBusyElsewhere = errors.New("already fighting elsewhere")
)
