package errors

import (
	stderrors "errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	err := NotionError("page fetch failed").
		WithContext("page_id", "abcd1234").
		Build()

	require.Equal(t, CategoryNotion, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.True(t, err.CanRetry())

	v, ok := err.Context().GetString("page_id")
	require.True(t, ok)
	require.Equal(t, "abcd1234", v)
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := WrapError(cause, CategoryTodoist, "create task failed").Build()

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "create task failed")
	require.Contains(t, err.Error(), "connection refused")
}

func TestValidationErrorDefaultsFatal(t *testing.T) {
	err := ValidationError("missing entity id").Build()
	require.True(t, err.IsFatal())
	require.False(t, err.CanRetry())
}

func TestEnrichmentErrorIsWarning(t *testing.T) {
	err := EnrichmentError("provider timeout").Build()
	require.Equal(t, SeverityWarning, err.Severity())
}

func TestHelpersOnUnclassifiedError(t *testing.T) {
	err := stderrors.New("plain")
	require.False(t, IsClassified(err))
	require.Equal(t, CategoryInternal, GetCategory(err))
	require.Equal(t, SeverityError, GetSeverity(err))
	require.Equal(t, RetryNever, GetRetryStrategy(err))
}

func TestHTTPAdapterStatusMapping(t *testing.T) {
	adapter := NewHTTPErrorAdapter(nil)

	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{ValidationError("bad shape").Build(), http.StatusBadRequest},
		{AuthError("bad signature").Build(), http.StatusUnauthorized},
		{NotionError("upstream down").Build(), http.StatusBadGateway},
		{TodoistError("upstream down").Build(), http.StatusBadGateway},
		{SyncError("orchestration failed").Build(), http.StatusInternalServerError},
		{DaemonError("not running").Build(), http.StatusServiceUnavailable},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		require.Equal(t, tc.status, adapter.StatusCodeFor(tc.err))
	}
}

func TestContextMerge(t *testing.T) {
	a := ErrorContext{"k1": "v1", "k2": "v2"}
	b := ErrorContext{"k2": "override", "k3": "v3"}

	merged := a.Merge(b)
	require.Equal(t, "v1", merged["k1"])
	require.Equal(t, "override", merged["k2"])
	require.Equal(t, "v3", merged["k3"])
}
