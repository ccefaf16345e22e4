package quest

import (
	"fmt"
	"sort"

	"github.com/RednibCoding/mudden-sub001/internal/events"
	"github.com/RednibCoding/mudden-sub001/internal/game"
	"github.com/RednibCoding/mudden-sub001/internal/storage"
)

// Tracker advances quest progress from kill reports. Every quest in the
// store is active for every player; a quest whose objectives are all met
// pays out once and then stays satisfied.
//
// The tracker runs on the tick goroutine and holds no state of its own
// beyond the content store; all progress lives on player records.
type Tracker struct {
	quests storage.Storer[*Quest]
	sink   *events.Sink
}

func NewTracker(quests storage.Storer[*Quest], sink *events.Sink) *Tracker {
	return &Tracker{
		quests: quests,
		sink:   sink,
	}
}

// NotifyKill advances every objective matching the killed template. Called
// by the combat engine once per contributing participant per death.
func (t *Tracker) NotifyKill(ps *game.PlayerState, templateID storage.Identifier) {
	for qid, q := range t.quests.GetAll() {
		progress := t.progressFor(ps, qid, q)

		for i, obj := range q.Objectives {
			if obj.Template != templateID || progress[i] >= obj.Count {
				continue
			}
			progress[i]++

			if complete(q, progress) {
				ps.Record.Gold += q.RewardGold
				ps.Record.Experience += q.RewardXP
				t.sink.Push(ps.ConnID, events.QuestComplete{
					Quest: q.Name,
					Gold:  q.RewardGold,
					XP:    q.RewardXP,
				})
			} else {
				t.sink.Push(ps.ConnID, events.QuestProgress{
					Quest:     q.Name,
					Objective: i,
					Have:      progress[i],
					Need:      obj.Count,
				})
			}
		}
	}
}

// progressFor returns the player's counter slice for the quest, creating or
// resizing it if the quest definition changed since it was persisted.
func (t *Tracker) progressFor(ps *game.PlayerState, qid storage.Identifier, q *Quest) []int {
	if ps.Record.QuestProgress == nil {
		ps.Record.QuestProgress = make(map[storage.Identifier][]int)
	}
	progress := ps.Record.QuestProgress[qid]
	if len(progress) != len(q.Objectives) {
		resized := make([]int, len(q.Objectives))
		copy(resized, progress)
		progress = resized
		ps.Record.QuestProgress[qid] = progress
	}
	return progress
}

// complete reports whether every objective counter has reached its target.
// A completing kill is the only moment this flips, so rewards pay exactly
// once.
func complete(q *Quest, progress []int) bool {
	for i, obj := range q.Objectives {
		if progress[i] < obj.Count {
			return false
		}
	}
	return true
}

// Status is one quest's progress line for display.
type Status struct {
	Name        string
	Description string
	Lines       []string
	Done        bool
}

// Progress summarizes every quest for the player, sorted by quest name.
func (t *Tracker) Progress(ps *game.PlayerState) []Status {
	all := t.quests.GetAll()

	ids := make([]storage.Identifier, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return all[ids[i]].Name < all[ids[j]].Name })

	var out []Status
	for _, qid := range ids {
		q := all[qid]
		progress := t.progressFor(ps, qid, q)

		st := Status{Name: q.Name, Description: q.Description, Done: complete(q, progress)}
		for i, obj := range q.Objectives {
			st.Lines = append(st.Lines, fmt.Sprintf("%s: %d/%d", obj.Template, progress[i], obj.Count))
		}
		out = append(out, st)
	}
	return out
}
