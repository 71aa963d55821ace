package webhook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyUpdateVariants(t *testing.T) {
	for _, et := range []string{
		"page.updated",
		"page.content_updated",
		"page.property_updated",
		"page.properties_updated",
	} {
		c := Classify(et)
		require.Equal(t, ActionUpdate, c.Action, et)
		require.True(t, c.Actionable())
	}
}

func TestClassifyCreate(t *testing.T) {
	c := Classify("page.created")
	require.Equal(t, ActionCreate, c.Action)
	require.True(t, c.Actionable())
}

func TestClassifyDeletedIsDistinct(t *testing.T) {
	c := Classify("page.deleted")
	require.Equal(t, ActionSkipDeleted, c.Action)
	require.False(t, c.Actionable())
	require.NotEmpty(t, c.Reason)
}

func TestClassifyIsTotal(t *testing.T) {
	// Irrelevant, unknown, and degenerate inputs all map to ignore; nothing panics.
	for _, et := range []string{
		"",
		"database.created",
		"database.schema_updated",
		"comment.created",
		"page.locked",
		"???",
	} {
		c := Classify(et)
		require.Equal(t, ActionIgnore, c.Action, et)
		require.Equal(t, "not relevant", c.Reason)
	}
}
