package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestUUIDGeneratorIssuesDistinctValidIDs(t *testing.T) {
	gen := NewUUIDGenerator()
	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		v := gen.NewID()
		_, err := uuid.Parse(v)
		require.NoError(t, err)
		_, dup := seen[v]
		require.False(t, dup, "duplicate id %s", v)
		seen[v] = struct{}{}
	}
}
