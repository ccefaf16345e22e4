package queue

import (
	"log/slog"
	"sync"
	"time"
)

// Command is one line of validated client input waiting for the next tick.
// It is created when the connection submits it and consumed exactly once by
// the tick that drains it.
type Command struct {
	ConnectionID string
	Verb         string
	Args         []string
	ReceivedAt   time.Time
}

// DefaultCapacity bounds the buffer when no capacity is configured.
const DefaultCapacity = 4096

// Queue is the hand-off point between connection goroutines and the tick
// loop. Any number of producers may Add concurrently; the tick thread is the
// only consumer. This is the one synchronization point of the engine -
// everything downstream of Drain runs on the tick thread without locks.
type Queue struct {
	mu       sync.Mutex
	cmds     []Command
	capacity int

	dropCounts map[string]uint64
}

func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		capacity:   capacity,
		dropCounts: make(map[string]uint64),
	}
}

// Add appends a command. It never blocks; when the buffer is at capacity the
// oldest entry is dropped so a runaway client cannot grow memory without
// bound. Returns false if the buffer had to shed an entry to make room.
func (q *Queue) Add(cmd Command) bool {
	q.mu.Lock()

	shed := false
	if len(q.cmds) >= q.capacity {
		victim := q.cmds[0]
		q.cmds = q.cmds[1:]
		shed = true

		count := q.dropCounts[victim.ConnectionID] + 1
		q.dropCounts[victim.ConnectionID] = count
		q.mu.Unlock()

		// Log on power-of-two counts so a flood doesn't also flood the log.
		if count&(count-1) == 0 {
			slog.Warn("command queue over capacity, dropping oldest",
				"conn", victim.ConnectionID,
				"verb", victim.Verb,
				"dropped", count,
				"capacity", q.capacity)
		}
		q.mu.Lock()
	}

	q.cmds = append(q.cmds, cmd)
	q.mu.Unlock()

	return !shed
}

// Drain atomically returns the buffered commands, oldest first, and clears
// the buffer. A concurrent Add is either fully included in this drain or
// fully left for the next one; no command is ever returned twice.
func (q *Queue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.cmds) == 0 {
		return nil
	}

	cmds := q.cmds
	q.cmds = nil
	return cmds
}

// Len reports the current buffer size. Observational only: the value can be
// stale the moment it is read.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.cmds)
}
