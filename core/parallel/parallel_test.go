package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelizeN_CoversEveryItem(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		workers int
	}{
		{"more items than workers", 103, 4},
		{"more workers than items", 3, 16},
		{"default workers", 50, 0},
		{"empty", 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := make([]int32, tt.items)
			ParallelizeN(tt.items, tt.workers, func(start, end int) {
				for i := start; i < end; i++ {
					atomic.AddInt32(&seen[i], 1)
				}
			})
			for i, n := range seen {
				if n != 1 {
					t.Errorf("item %d visited %d times", i, n)
				}
			}
		})
	}
}

func TestForEach_ReturnsFirstErrorByIndex(t *testing.T) {
	var ran int32
	err := ForEach(10, 3, func(i int) error {
		atomic.AddInt32(&ran, 1)
		if i == 7 || i == 4 {
			return fmt.Errorf("item %d", i)
		}
		return nil
	})
	assert.EqualError(t, err, "item 4")
	assert.Equal(t, int32(10), ran)
}

func TestParallelizeWithThreshold_Sequential(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(5, 10, func(start, end int) {
		calls++
		assert.Equal(t, 0, start)
		assert.Equal(t, 5, end)
	})
	assert.Equal(t, 1, calls)
}
