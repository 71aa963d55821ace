package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/tasksync/internal/enrich"
	"git.home.luguber.info/inful/tasksync/internal/notion"
	"git.home.luguber.info/inful/tasksync/internal/todoist"
	"git.home.luguber.info/inful/tasksync/internal/webhook"
)

const testPageID = "abcd1234-abcd-1234-abcd-1234abcd1234"

type fakeSource struct {
	page *notion.PageContent
	err  error
}

func (f *fakeSource) GetPage(context.Context, string) (*notion.PageContent, error) {
	return f.page, f.err
}

type fakeDest struct {
	existing *todoist.Task
	findErr  error

	created []todoist.Task
	updated map[string]todoist.Task
	closed  []string
	deleted []string
}

func newFakeDest(existing *todoist.Task) *fakeDest {
	return &fakeDest{existing: existing, updated: map[string]todoist.Task{}}
}

func (f *fakeDest) CreateTask(_ context.Context, t todoist.Task) (*todoist.Task, error) {
	f.created = append(f.created, t)
	t.ID = "900"
	return &t, nil
}

func (f *fakeDest) UpdateTask(_ context.Context, id string, t todoist.Task) error {
	f.updated[id] = t
	return nil
}

func (f *fakeDest) CloseTask(_ context.Context, id string) error {
	f.closed = append(f.closed, id)
	return nil
}

func (f *fakeDest) DeleteTask(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDest) FindTaskByBackref(context.Context, string, string) (*todoist.Task, error) {
	return f.existing, f.findErr
}

type fakeEnricher struct {
	suggestion enrich.Suggestion
	err        error
	calls      int
}

func (f *fakeEnricher) Enrich(context.Context, notion.PageContent) (enrich.Suggestion, error) {
	f.calls++
	return f.suggestion, f.err
}

func testPage() *notion.PageContent {
	return &notion.PageContent{
		ID:       testPageID,
		Title:    "Write report",
		Body:     "Draft the Q3 report",
		Status:   "In progress",
		Priority: 2,
		DueDate:  "2026-09-05",
		Tags:     []string{"work"},
	}
}

func TestSyncCreateComposesTaskAndBackref(t *testing.T) {
	dest := newFakeDest(nil)
	o, err := New(Config{Source: &fakeSource{page: testPage()}, Dest: dest, ProjectID: "42"})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "Évy's Wörkspace", webhook.ActionCreate)
	require.NoError(t, err)
	require.Equal(t, ResultCreated, report.Result)
	require.Equal(t, "900", report.TaskID)

	require.Len(t, dest.created, 1)
	created := dest.created[0]
	require.Equal(t, "Write report", created.Content)
	require.Equal(t, "42", created.ProjectID)
	require.Contains(t, created.Description, "Draft the Q3 report")
	require.Contains(t, created.Description, "notion.so/abcd1234abcd1234abcd1234abcd1234")
	require.Contains(t, created.Description, "Workspace: Évy's Wörkspace")
	require.Equal(t, []string{"evy-s-workspace", "work"}, created.Labels)
	require.Equal(t, "2026-09-05", created.DueString)
}

func TestSyncUpdateFallsBackToCreate(t *testing.T) {
	dest := newFakeDest(nil)
	o, err := New(Config{Source: &fakeSource{page: testPage()}, Dest: dest})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "", webhook.ActionUpdate)
	require.NoError(t, err)
	require.Equal(t, ResultCreated, report.Result)
	require.Len(t, dest.created, 1)
	require.Empty(t, dest.updated)
}

func TestSyncUpdateRewritesExistingTask(t *testing.T) {
	dest := newFakeDest(&todoist.Task{ID: "77"})
	o, err := New(Config{Source: &fakeSource{page: testPage()}, Dest: dest})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "Home", webhook.ActionUpdate)
	require.NoError(t, err)
	require.Equal(t, ResultUpdated, report.Result)
	require.Equal(t, "77", report.TaskID)

	updated, ok := dest.updated["77"]
	require.True(t, ok)
	require.Contains(t, updated.Description, "notion.so/")
	require.Contains(t, updated.Labels, "home")
	require.Empty(t, dest.created)
}

func TestSyncDoneStatusClosesWithoutContentWrite(t *testing.T) {
	page := testPage()
	page.Status = "hecho" // localized done synonym
	dest := newFakeDest(&todoist.Task{ID: "77"})
	o, err := New(Config{Source: &fakeSource{page: page}, Dest: dest})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "", webhook.ActionUpdate)
	require.NoError(t, err)
	require.Equal(t, ResultCompleted, report.Result)
	require.Equal(t, []string{"77"}, dest.closed)
	require.Empty(t, dest.updated)
	require.Empty(t, dest.created)
}

func TestSyncDeleteOnDisinterest(t *testing.T) {
	page := testPage()
	page.MentionedUserIDs = []string{"someone-else"}
	dest := newFakeDest(&todoist.Task{ID: "77"})
	o, err := New(Config{Source: &fakeSource{page: page}, Dest: dest, WatchUserID: "watched-user"})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "", webhook.ActionUpdate)
	require.NoError(t, err)
	require.Equal(t, ResultDeleted, report.Result)
	require.Equal(t, []string{"77"}, dest.deleted)
	require.Empty(t, dest.created)
	require.Empty(t, dest.updated)
}

func TestSyncDisinterestWithNoTaskSkips(t *testing.T) {
	page := testPage()
	dest := newFakeDest(nil)
	o, err := New(Config{Source: &fakeSource{page: page}, Dest: dest, WatchUserID: "watched-user"})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "", webhook.ActionUpdate)
	require.NoError(t, err)
	require.Equal(t, ResultSkipped, report.Result)
	require.Empty(t, dest.deleted)
}

func TestSyncMentionedUserKeepsUpdating(t *testing.T) {
	page := testPage()
	page.MentionedUserIDs = []string{"watched-user"}
	dest := newFakeDest(&todoist.Task{ID: "77"})
	o, err := New(Config{Source: &fakeSource{page: page}, Dest: dest, WatchUserID: "watched-user"})
	require.NoError(t, err)

	report, err := o.Sync(context.Background(), testPageID, "", webhook.ActionUpdate)
	require.NoError(t, err)
	require.Equal(t, ResultUpdated, report.Result)
}

func TestSyncEnrichmentAppliedButTitleUntouched(t *testing.T) {
	dest := newFakeDest(nil)
	enricher := &fakeEnricher{suggestion: enrich.Suggestion{Body: "Polished body", Tags: []string{"refined"}, Priority: 4}}
	o, err := New(Config{Source: &fakeSource{page: testPage()}, Dest: dest, Enricher: enricher})
	require.NoError(t, err)

	_, err = o.Sync(context.Background(), testPageID, "", webhook.ActionCreate)
	require.NoError(t, err)
	require.Equal(t, 1, enricher.calls)

	created := dest.created[0]
	require.Equal(t, "Write report", created.Content)
	require.Contains(t, created.Description, "Polished body")
	require.NotContains(t, created.Description, "Draft the Q3 report")
	require.Contains(t, created.Labels, "refined")
	require.Equal(t, 4, created.Priority)
}

func TestSyncEnrichmentFailureDegradesToRawContent(t *testing.T) {
	dest := newFakeDest(nil)
	enricher := &fakeEnricher{err: errors.New("model unavailable")}
	o, err := New(Config{Source: &fakeSource{page: testPage()}, Dest: dest, Enricher: enricher})
	require.NoError(t, err)

	_, err = o.Sync(context.Background(), testPageID, "", webhook.ActionCreate)
	require.NoError(t, err)
	require.Contains(t, dest.created[0].Description, "Draft the Q3 report")
	require.Equal(t, 2, dest.created[0].Priority)
}

func TestSyncSourceErrorPropagates(t *testing.T) {
	o, err := New(Config{Source: &fakeSource{err: errors.New("notion down")}, Dest: newFakeDest(nil)})
	require.NoError(t, err)

	_, err = o.Sync(context.Background(), testPageID, "", webhook.ActionCreate)
	require.Error(t, err)
}

func TestSanitizeWorkspaceTag(t *testing.T) {
	cases := map[string]string{
		"Évy's Wörkspace": "evy-s-workspace",
		"Personal":        "personal",
		"Q3  Planning!":   "q3-planning",
		"":                "",
		"---":             "",
	}
	for in, want := range cases {
		require.Equal(t, want, SanitizeWorkspaceTag(in), "input %q", in)
	}
}
