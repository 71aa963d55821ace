// Package sync holds the orchestrator that turns a classified page event into
// the matching Todoist mutation: create, update, complete, or delete.
package sync

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/tasksync/internal/enrich"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	"git.home.luguber.info/inful/tasksync/internal/notion"
	"git.home.luguber.info/inful/tasksync/internal/todoist"
	"git.home.luguber.info/inful/tasksync/internal/webhook"
)

// SourceStore is the slice of the Notion adapter the orchestrator reads from.
type SourceStore interface {
	GetPage(ctx context.Context, pageID string) (*notion.PageContent, error)
}

// DestStore is the slice of the Todoist adapter the orchestrator writes to.
type DestStore interface {
	CreateTask(ctx context.Context, t todoist.Task) (*todoist.Task, error)
	UpdateTask(ctx context.Context, id string, t todoist.Task) error
	CloseTask(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
	FindTaskByBackref(ctx context.Context, projectID, pageID string) (*todoist.Task, error)
}

// Result names the terminal outcome of one orchestration run.
type Result string

const (
	ResultCreated   Result = "created"
	ResultUpdated   Result = "updated"
	ResultCompleted Result = "completed"
	ResultDeleted   Result = "deleted"
	ResultSkipped   Result = "skipped"
)

// Report is what one Sync call produced.
type Report struct {
	Result Result
	TaskID string
}

// Config wires the orchestrator's collaborators and policy knobs.
type Config struct {
	Source    SourceStore
	Dest      DestStore
	Enricher  enrich.Enricher // nil disables enrichment
	ProjectID string
	// WatchUserID, when set, turns a page that no longer mentions that user
	// into a delete of the destination task.
	WatchUserID string
	Logger      *slog.Logger
}

// Orchestrator performs one cross-system synchronization per call. It is
// stateless; convergence comes from the back-reference lookup.
type Orchestrator struct {
	source      SourceStore
	dest        DestStore
	enricher    enrich.Enricher
	projectID   string
	watchUserID string
	log         *slog.Logger
}

// New constructs an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Source == nil || cfg.Dest == nil {
		return nil, ferrors.ConfigError("sync orchestrator requires source and destination stores").Build()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		source:      cfg.Source,
		dest:        cfg.Dest,
		enricher:    cfg.Enricher,
		projectID:   cfg.ProjectID,
		watchUserID: cfg.WatchUserID,
		log:         log,
	}, nil
}

// Sync runs the full pipeline for one page. Only ActionCreate and
// ActionUpdate reach this point; the classifier filters everything else.
func (o *Orchestrator) Sync(ctx context.Context, pageID, workspace string, action webhook.Action) (Report, error) {
	page, err := o.source.GetPage(ctx, pageID)
	if err != nil {
		return Report{}, err
	}

	if action == webhook.ActionUpdate {
		if o.watchUserID != "" && !page.MentionsUser(o.watchUserID) {
			return o.deleteOnDisinterest(ctx, pageID)
		}

		existing, err := o.dest.FindTaskByBackref(ctx, o.projectID, pageID)
		if err != nil {
			return Report{}, err
		}
		if existing != nil {
			return o.update(ctx, page, existing, workspace)
		}
		// An update for a page that was never synced becomes a create.
		o.log.Debug("no existing task for update, falling back to create", logfields.PageID(pageID))
	}

	return o.create(ctx, page, workspace)
}

func (o *Orchestrator) create(ctx context.Context, page *notion.PageContent, workspace string) (Report, error) {
	body, tags, priority := o.enriched(ctx, page)
	task := todoist.Task{
		Content:     page.Title,
		Description: composeBody(body, page.ID, workspace),
		Priority:    priority,
		Labels:      composeTags(tags, workspace),
		DueString:   page.DueDate,
		ProjectID:   o.projectID,
	}
	created, err := o.dest.CreateTask(ctx, task)
	if err != nil {
		return Report{}, err
	}
	return Report{Result: ResultCreated, TaskID: created.ID}, nil
}

func (o *Orchestrator) update(ctx context.Context, page *notion.PageContent, existing *todoist.Task, workspace string) (Report, error) {
	// A completed source page closes the task and skips the content write.
	if notion.IsDoneStatus(page.Status) {
		if err := o.dest.CloseTask(ctx, existing.ID); err != nil {
			return Report{}, err
		}
		return Report{Result: ResultCompleted, TaskID: existing.ID}, nil
	}

	body, tags, priority := o.enriched(ctx, page)
	task := todoist.Task{
		Content:     page.Title,
		Description: composeBody(body, page.ID, workspace),
		Priority:    priority,
		Labels:      composeTags(tags, workspace),
		DueString:   page.DueDate,
	}
	if err := o.dest.UpdateTask(ctx, existing.ID, task); err != nil {
		return Report{}, err
	}
	return Report{Result: ResultUpdated, TaskID: existing.ID}, nil
}

func (o *Orchestrator) deleteOnDisinterest(ctx context.Context, pageID string) (Report, error) {
	existing, err := o.dest.FindTaskByBackref(ctx, o.projectID, pageID)
	if err != nil {
		return Report{}, err
	}
	if existing == nil {
		return Report{Result: ResultSkipped}, nil
	}
	if err := o.dest.DeleteTask(ctx, existing.ID); err != nil {
		return Report{}, err
	}
	o.log.Info("deleted task after watch user removal",
		logfields.PageID(pageID), logfields.TaskID(existing.ID))
	return Report{Result: ResultDeleted, TaskID: existing.ID}, nil
}

// enriched runs the optional enrichment pass and merges its suggestion.
// Failures degrade to the raw page content. The title is never changed.
func (o *Orchestrator) enriched(ctx context.Context, page *notion.PageContent) (body string, tags []string, priority int) {
	body, tags, priority = page.Body, page.Tags, page.Priority
	if o.enricher == nil {
		return body, tags, priority
	}
	suggestion, err := o.enricher.Enrich(ctx, *page)
	if err != nil {
		o.log.Warn("enrichment failed, using raw content",
			logfields.PageID(page.ID), logfields.Error(err))
		return body, tags, priority
	}
	if suggestion.Body != "" {
		body = suggestion.Body
	}
	if len(suggestion.Tags) > 0 {
		tags = append(append([]string{}, tags...), suggestion.Tags...)
	}
	if suggestion.Priority > 0 {
		priority = suggestion.Priority
	}
	return body, tags, priority
}
