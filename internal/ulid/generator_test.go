package ulid

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidID(t *testing.T) {
	validULID := GenerateID()

	tests := []struct {
		id       string
		expected bool
	}{
		{validULID, true},
		{"0", false},
		{"invalidulid", false},
		{"01B4E6BXY0PRJ5G420D25MWQY!", false},
		{"01b4e6bxy0prj5g420d25mwqyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidID(tt.id))
		})
	}
}

func TestGenerateUniqueID(t *testing.T) {
	t.Run("uniqueness", func(t *testing.T) {
		assert.NotEqual(t, GenerateID(), GenerateID())
	})

	t.Run("concurrent uniqueness", func(t *testing.T) {
		var wg sync.WaitGroup
		ids := make(map[string]struct{})
		mu := sync.Mutex{}

		numIDs := 10000

		wg.Add(numIDs)
		for i := 0; i < numIDs; i++ {
			go func() {
				defer wg.Done()
				id := GenerateID()
				mu.Lock()
				defer mu.Unlock()
				ids[id] = struct{}{}
			}()
		}

		wg.Wait()

		assert.Equal(t, numIDs, len(ids))
	})
}

func TestMockGenerator(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	MockGenerator(at)
	first := []string{GenerateID(), GenerateID()}
	MockGenerator(at)
	second := []string{GenerateID(), GenerateID()}
	ResetGenerator()

	assert.Equal(t, first, second)
	assert.NotEqual(t, first[0], first[1])
	assert.True(t, ValidID(first[0]))
}
