package logfields

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAttrsCarryCanonicalKeys(t *testing.T) {
	require.Equal(t, KeyPageID, PageID("p").Key)
	require.Equal(t, KeyTaskID, TaskID("t").Key)
	require.Equal(t, KeyEventType, EventType("page.created").Key)
	require.Equal(t, KeyStatus, Status(200).Key)
}

func TestErrorAttr(t *testing.T) {
	a := Error(stderrors.New("boom"))
	require.Equal(t, KeyError, a.Key)
	require.Equal(t, "boom", a.Value.String())

	// nil error must not panic and yields an empty value
	require.Equal(t, "", Error(nil).Value.String())
}
