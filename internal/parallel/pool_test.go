package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_Create(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()
	assert.Equal(t, 4, p.Workers())
	assert.True(t, p.IsRunning())

	q := NewWorkerPool(0)
	defer q.Close()
	assert.Equal(t, runtime.GOMAXPROCS(0), q.Workers())
}

func TestWorkerPool_ExecuteAll(t *testing.T) {
	p := NewWorkerPool(3)
	defer p.Close()

	var n atomic.Int64
	work := make([]func(), 100)
	for i := range work {
		work[i] = func() { n.Add(1) }
	}
	p.ExecuteAll(work)
	assert.Equal(t, int64(100), n.Load())

	p.ExecuteAll(nil)
}

func TestWorkerPool_Closed(t *testing.T) {
	p := NewWorkerPool(2)
	p.Close()
	p.Close()
	assert.False(t, p.IsRunning())

	ran := 0
	p.ExecuteAll([]func(){func() { ran++ }, func() { ran++ }})
	assert.Equal(t, 2, ran, "closed pool runs work inline")
}

func TestWorkerPool_ConcurrentCallers(t *testing.T) {
	p := NewWorkerPool(2)
	defer p.Close()

	var n atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			work := make([]func(), 10)
			for i := range work {
				work[i] = func() { n.Add(1) }
			}
			p.ExecuteAll(work)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(80), n.Load())
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name            string
		y0, y1, n, minR int
		want            []Band
	}{
		{"even", 0, 8, 4, 1, []Band{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder", 10, 17, 3, 1, []Band{{10, 13}, {13, 15}, {15, 17}}},
		{"min rows", 0, 10, 8, 4, []Band{{0, 5}, {5, 10}}},
		{"too short", 0, 3, 8, 4, []Band{{0, 3}}},
		{"empty", 5, 5, 4, 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.y0, tt.y1, tt.n, tt.minR))
		})
	}
}

func TestForEachBand(t *testing.T) {
	p := NewWorkerPool(4)
	defer p.Close()

	seen := make([]atomic.Int32, 100)
	p.ForEachBand(0, 100, 1, func(b Band) {
		for y := b.Y0; y < b.Y1; y++ {
			seen[y].Add(1)
		}
	})
	for y := range seen {
		require.Equal(t, int32(1), seen[y].Load(), "row %d", y)
	}
}
