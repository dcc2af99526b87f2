package snowflake

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNode(t *testing.T) {
	_, err := NewNode(-1)
	assert.Error(t, err)
	_, err = NewNode(1024)
	assert.Error(t, err)

	n, err := NewNode(7)
	require.NoError(t, err)
	id := n.Generate()
	assert.Equal(t, int64(7), id.Node())
	assert.WithinDuration(t, time.Now(), id.Time(), time.Second)
}

func TestGenerateUnique(t *testing.T) {
	n, err := NewNode(1)
	require.NoError(t, err)

	const workers, perWorker = 8, 2000
	var mu sync.Mutex
	seen := make(map[ID]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids := make([]ID, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				ids = append(ids, n.Generate())
			}
			mu.Lock()
			for _, id := range ids {
				seen[id] = struct{}{}
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker, "并发生成的ID不应重复")
}

func TestGenerateMonotonic(t *testing.T) {
	n, err := NewNode(2)
	require.NoError(t, err)

	prev := n.Generate()
	for i := 0; i < 10000; i++ {
		id := n.Generate()
		require.Greater(t, id, prev)
		prev = id
	}
	assert.NotEmpty(t, prev.String())
}
