package id

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	a := New()
	b := New()

	_, err := ulid.ParseStrict(a)
	require.NoError(t, err)
	_, err = ulid.ParseStrict(b)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Less(t, a, b, "IDs generated in sequence sort by creation")
}

func TestNewConcurrent(t *testing.T) {
	t.Parallel()

	const n = 100
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() { ids <- New() }()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
