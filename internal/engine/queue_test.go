package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/blockwatch/internal/event"
)

func TestQueue_PushThenDrain(t *testing.T) {
	q := NewQueue()
	pushed := []event.Event{
		event.New("Steve", event.BlockBroken, 0, 1, 2, 3, 1, "a"),
		event.New("Alex", event.BlockPlaced, 1, 4, 5, 6, 2, "b"),
		event.New("Steve", event.BlockBroken, 0, 1, 2, 3, 1, "a"),
	}
	for _, ev := range pushed {
		q.Push(ev)
	}
	require.Equal(t, 3, q.Len())

	got := q.DrainAll()
	assert.ElementsMatch(t, pushed, got)
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.DrainAll(), "second drain is empty")
}

func TestQueue_DrainedBatchIsNotShared(t *testing.T) {
	q := NewQueue()
	q.Push(event.New("a", event.Chat, 0, 0, 0, 0, 0, "1"))
	batch := q.DrainAll()

	q.Push(event.New("b", event.Chat, 0, 0, 0, 0, 0, "2"))
	require.Len(t, batch, 1)
	assert.Equal(t, "a", batch[0].Actor)
}

func TestQueue_PushAll(t *testing.T) {
	q := NewQueue()
	q.PushAll(nil)
	assert.Equal(t, 0, q.Len())

	q.Push(event.New("a", event.Login, 0, 0, 0, 0, 0, ""))
	q.PushAll([]event.Event{
		event.New("b", event.Login, 0, 0, 0, 0, 0, ""),
		event.New("c", event.Login, 0, 0, 0, 0, 0, ""),
	})
	assert.Equal(t, 3, q.Len())
}

func TestQueue_ConcurrentProducers(t *testing.T) {
	q := NewQueue()
	const producers, perProducer = 32, 250

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				q.Push(event.New(fmt.Sprintf("p%d", p), event.BlockBroken, 0, i, 0, 0, 0, ""))
			}
		}(p)
	}

	// Drain concurrently with producers; nothing may be lost or duplicated.
	seen := make(map[string]int)
	var drainWG sync.WaitGroup
	done := make(chan struct{})
	drainWG.Add(1)
	go func() {
		defer drainWG.Done()
		for {
			for _, ev := range q.DrainAll() {
				seen[fmt.Sprintf("%s/%d", ev.Actor, ev.X)]++
			}
			select {
			case <-done:
				for _, ev := range q.DrainAll() {
					seen[fmt.Sprintf("%s/%d", ev.Actor, ev.X)]++
				}
				return
			default:
			}
		}
	}()

	wg.Wait()
	close(done)
	drainWG.Wait()

	assert.Len(t, seen, producers*perProducer)
	for k, n := range seen {
		assert.Equal(t, 1, n, "event %s", k)
	}
}
