package game

import (
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// Location is the content definition of one place in the world.
type Location struct {
	Name        string                        `json:"name"`
	Description string                        `json:"description"`
	Exits       map[string]storage.Identifier `json:"exits,omitempty"`
	Spawns      []Spawn                       `json:"spawns,omitempty"`
}

// Spawn declares how many instances of a template live at a location.
type Spawn struct {
	Template storage.Identifier `json:"template"`
	Count    int                `json:"count"`
}

func (l *Location) Validate() error {
	el := errors.NewErrorList()

	if l.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}

	for dir, dest := range l.Exits {
		if dir == "" {
			el.Add(fmt.Errorf("exit direction cannot be empty"))
		}
		if dest == "" {
			el.Add(fmt.Errorf("exit %q: destination is required", dir))
		}
	}

	for i, s := range l.Spawns {
		if s.Template == "" {
			el.Add(fmt.Errorf("spawn %d: template is required", i))
		}
		if s.Count < 1 {
			el.Add(fmt.Errorf("spawn %d: count must be at least 1", i))
		}
	}

	return el.Err()
}
