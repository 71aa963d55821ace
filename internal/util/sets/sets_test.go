package sets

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewAddHasDelete(t *testing.T) {
	s := New("a", "b")
	require.True(t, s.Has("a"))
	require.False(t, s.Has("c"))

	s.Add("c")
	require.True(t, s.Has("c"))

	s.Delete("a")
	require.False(t, s.Has("a"))
}

func TestUnionDeduplicates(t *testing.T) {
	s := New("work", "notion")
	u := s.Union(New("notion", "urgent"))

	vals := u.Values()
	sort.Strings(vals)
	require.Equal(t, []string{"notion", "urgent", "work"}, vals)

	// original unchanged
	require.False(t, s.Has("urgent"))
}
