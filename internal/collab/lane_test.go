package collab

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteLaneKeepsOrder(t *testing.T) {
	var (
		l    writeLane
		mu   sync.Mutex
		got  []int
		done sync.WaitGroup
	)
	gate := make(chan struct{})
	done.Add(100)
	l.push(func() { <-gate })
	for i := 0; i < 100; i++ {
		i := i
		l.push(func() {
			defer done.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	close(gate)
	done.Wait()

	require.Len(t, got, 100)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}
