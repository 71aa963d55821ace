package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"git.home.luguber.info/inful/tasksync/internal/backref"
	"git.home.luguber.info/inful/tasksync/internal/events"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	"git.home.luguber.info/inful/tasksync/internal/metrics"
	"git.home.luguber.info/inful/tasksync/internal/notion"
	"git.home.luguber.info/inful/tasksync/internal/server/responses"
	"git.home.luguber.info/inful/tasksync/internal/todoist"
)

// StatusPusher is the slice of the Notion client the reverse handler needs.
type StatusPusher interface {
	UpdateStatus(ctx context.Context, pageID string, category notion.StatusCategory) error
}

// ReverseHandler serves POST /webhooks/todoist: completion events flow back
// to the source page's status. No debouncing on this pipeline; the caller is
// always waiting for the result.
type ReverseHandler struct {
	pusher  StatusPusher
	secret  func() string
	bus     *events.Bus
	adapter *ferrors.HTTPErrorAdapter
	rec     metrics.Recorder
	log     *slog.Logger
}

// NewReverseHandler constructs the reverse pipeline handler. secret is read
// per request so config reloads take effect without a restart.
func NewReverseHandler(pusher StatusPusher, secret func() string, bus *events.Bus, adapter *ferrors.HTTPErrorAdapter, rec metrics.Recorder, log *slog.Logger) *ReverseHandler {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	if secret == nil {
		secret = func() string { return "" }
	}
	return &ReverseHandler{pusher: pusher, secret: secret, bus: bus, adapter: adapter, rec: rec, log: log}
}

func (h *ReverseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.rec.IncStatusPush("read-error")
		h.adapter.WriteErrorResponse(w, ferrors.WebhookError("failed to read request body").Build())
		return
	}

	if !todoist.ValidateSignature(h.secret(), body, r.Header.Get("X-Todoist-Hmac-SHA256")) {
		h.rec.IncStatusPush("bad-signature")
		h.adapter.WriteErrorResponse(w, ferrors.AuthError("webhook signature mismatch").Build())
		return
	}

	var payload todoist.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.rec.IncStatusPush("decode-error")
		h.adapter.WriteErrorResponse(w, ferrors.ValidationError("malformed webhook payload").Build())
		return
	}
	if payload.EventName == "" || len(payload.EventData) == 0 {
		h.rec.IncStatusPush("shape-error")
		h.adapter.WriteErrorResponse(w, ferrors.ValidationError("webhook payload missing event_name or event_data").Build())
		return
	}

	var category notion.StatusCategory
	switch payload.EventName {
	case "item:completed":
		category = notion.StatusCompleted
	case "item:uncompleted":
		category = notion.StatusInProgress
	default:
		h.rec.IncStatusPush("unsupported-event")
		h.adapter.WriteErrorResponse(w, ferrors.WebhookError("unsupported event type: "+payload.EventName).Build())
		return
	}

	var task todoist.TaskEventData
	if err := json.Unmarshal(payload.EventData, &task); err != nil {
		h.rec.IncStatusPush("decode-error")
		h.adapter.WriteErrorResponse(w, ferrors.ValidationError("malformed event_data").Build())
		return
	}

	pageID, ok := backref.Extract(task.Description + "\n" + task.Content)
	if !ok {
		h.rec.IncStatusPush("skipped")
		writeJSON(w, http.StatusOK, responses.ReverseAck{
			Message: "skipped: no page reference in task",
			TaskID:  task.ID,
		})
		return
	}

	if err := h.pusher.UpdateStatus(r.Context(), pageID, category); err != nil {
		h.rec.IncStatusPush("error")
		h.log.Error("status push failed",
			logfields.PageID(pageID), logfields.TaskID(task.ID), logfields.Error(err))
		h.adapter.WriteErrorResponse(w, err)
		return
	}

	h.rec.IncStatusPush("success")
	h.log.Info("status pushed",
		logfields.PageID(pageID), logfields.TaskID(task.ID),
		logfields.EventType(payload.EventName))
	if h.bus != nil {
		_ = h.bus.Publish(r.Context(), events.StatusPushed{
			TaskID:    task.ID,
			PageID:    pageID,
			EventType: payload.EventName,
			Status:    string(category),
			PushedAt:  time.Now(),
		})
	}
	writeJSON(w, http.StatusOK, responses.ReverseAck{
		Message: "status updated",
		PageID:  pageID,
		TaskID:  task.ID,
		Status:  string(category),
	})
}
