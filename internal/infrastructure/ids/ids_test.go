package ids

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Monotonic(t *testing.T) {
	generated := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		generated = append(generated, New())
	}

	assert.True(t, sort.StringsAreSorted(generated))
	assert.Len(t, generated[0], 26)
}

func TestTime(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC)
	id := NewAt(at)

	got, err := Time(id)
	require.NoError(t, err)
	assert.True(t, got.Equal(at))

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}
