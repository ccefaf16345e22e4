package queue

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestQueue_AddAndDrainOrder(t *testing.T) {
	q := New(16)

	for i := 0; i < 5; i++ {
		q.Add(Command{ConnectionID: "c1", Verb: fmt.Sprintf("cmd-%d", i), ReceivedAt: time.Now()})
	}

	testutil.AssertEqual(t, "len before drain", q.Len(), 5)

	cmds := q.Drain()
	testutil.AssertEqual(t, "drained count", len(cmds), 5)
	for i, cmd := range cmds {
		testutil.AssertEqual(t, fmt.Sprintf("order %d", i), cmd.Verb, fmt.Sprintf("cmd-%d", i))
	}

	testutil.AssertEqual(t, "len after drain", q.Len(), 0)
}

func TestQueue_DrainEmptyIsNoop(t *testing.T) {
	q := New(16)

	if got := q.Drain(); got != nil {
		t.Errorf("expected nil from empty drain, got %v", got)
	}
	if got := q.Drain(); got != nil {
		t.Errorf("expected repeated empty drain to stay nil, got %v", got)
	}
}

func TestQueue_CapacityShedsOldest(t *testing.T) {
	q := New(3)

	q.Add(Command{ConnectionID: "c1", Verb: "first"})
	q.Add(Command{ConnectionID: "c1", Verb: "second"})
	q.Add(Command{ConnectionID: "c1", Verb: "third"})

	ok := q.Add(Command{ConnectionID: "c1", Verb: "fourth"})
	if ok {
		t.Error("expected Add over capacity to report shedding")
	}

	cmds := q.Drain()
	testutil.AssertEqual(t, "count at capacity", len(cmds), 3)
	testutil.AssertEqual(t, "oldest dropped", cmds[0].Verb, "second")
	testutil.AssertEqual(t, "newest kept", cmds[2].Verb, "fourth")
}

// Exactly-once delivery under concurrent producers: every added command shows
// up in exactly one drain, and each producer's own commands stay in order.
func TestQueue_ConcurrentProducers(t *testing.T) {
	const producers = 8
	const perProducer = 500

	q := New(producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			conn := fmt.Sprintf("conn-%d", p)
			for i := 0; i < perProducer; i++ {
				q.Add(Command{ConnectionID: conn, Verb: fmt.Sprintf("%d", i)})
			}
		}(p)
	}

	// Drain concurrently with production, like the tick loop does.
	var mu sync.Mutex
	var drained []Command
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			cmds := q.Drain()
			mu.Lock()
			drained = append(drained, cmds...)
			n := len(drained)
			mu.Unlock()
			if n == producers*perProducer {
				return
			}
			time.Sleep(time.Millisecond)
		}
	}()

	wg.Wait()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for drains to observe all commands")
	}

	testutil.AssertEqual(t, "total drained", len(drained), producers*perProducer)

	// No duplicates, and per-connection insertion order is preserved.
	seen := make(map[string]map[string]bool)
	lastPerConn := make(map[string]int)
	for _, cmd := range drained {
		if seen[cmd.ConnectionID] == nil {
			seen[cmd.ConnectionID] = make(map[string]bool)
		}
		if seen[cmd.ConnectionID][cmd.Verb] {
			t.Fatalf("command %s/%s drained twice", cmd.ConnectionID, cmd.Verb)
		}
		seen[cmd.ConnectionID][cmd.Verb] = true

		var idx int
		if _, err := fmt.Sscanf(cmd.Verb, "%d", &idx); err != nil {
			t.Fatalf("unexpected verb %q", cmd.Verb)
		}
		if last, ok := lastPerConn[cmd.ConnectionID]; ok && idx <= last {
			t.Fatalf("connection %s order violated: %d after %d", cmd.ConnectionID, idx, last)
		}
		lastPerConn[cmd.ConnectionID] = idx
	}
}

func TestQueue_DefaultCapacity(t *testing.T) {
	q := New(0)
	testutil.AssertEqual(t, "default capacity", q.capacity, DefaultCapacity)
}
