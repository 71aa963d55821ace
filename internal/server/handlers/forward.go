package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"git.home.luguber.info/inful/tasksync/internal/debounce"
	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
	"git.home.luguber.info/inful/tasksync/internal/logfields"
	"git.home.luguber.info/inful/tasksync/internal/metrics"
	"git.home.luguber.info/inful/tasksync/internal/server/responses"
	"git.home.luguber.info/inful/tasksync/internal/webhook"
)

const maxWebhookBody = 1 << 20

// ForwardHandler serves POST /webhooks/notion. It takes the coordinator
// directly; tests inject a fake sync handler into the coordinator instead.
type ForwardHandler struct {
	coord   *debounce.Coordinator
	adapter *ferrors.HTTPErrorAdapter
	rec     metrics.Recorder
	log     *slog.Logger
}

// NewForwardHandler constructs the forward pipeline handler.
func NewForwardHandler(coord *debounce.Coordinator, adapter *ferrors.HTTPErrorAdapter, rec metrics.Recorder, log *slog.Logger) *ForwardHandler {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ForwardHandler{coord: coord, adapter: adapter, rec: rec, log: log}
}

func (h *ForwardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.rec.IncWebhookEvent("forward", "read-error")
		h.adapter.WriteErrorResponse(w, ferrors.WebhookError("failed to read request body").Build())
		return
	}

	if !looksLikeNotion(r) {
		h.rec.IncWebhookEvent("forward", "rejected-source")
		h.adapter.WriteErrorResponse(w, ferrors.WebhookError("request does not look like a Notion delivery").Build())
		return
	}

	msg, err := webhook.Decode(body)
	if err != nil {
		h.rec.IncWebhookEvent("forward", "decode-error")
		h.adapter.WriteErrorResponse(w, err)
		return
	}

	switch m := msg.(type) {
	case webhook.Verification:
		h.log.Info("webhook verification handshake")
		h.rec.IncWebhookEvent("forward", "verification")
		writeJSON(w, http.StatusOK, responses.VerificationAck{VerificationToken: m.Token})

	case webhook.Event:
		h.handleEvent(w, r, m)

	default:
		h.adapter.WriteErrorResponse(w, ferrors.WebhookError("unrecognized webhook payload").Build())
	}
}

func (h *ForwardHandler) handleEvent(w http.ResponseWriter, r *http.Request, ev webhook.Event) {
	if ev.EntityKind != webhook.KindPage {
		h.rec.IncWebhookEvent("forward", "non-page")
		writeJSON(w, http.StatusOK, responses.WebhookAck{
			Message: "ignored: not a page event",
			PageID:  ev.EntityID,
		})
		return
	}

	cls := webhook.Classify(ev.Type)
	switch cls.Action {
	case webhook.ActionSkipDeleted:
		h.log.Info("skipping deleted page", logfields.PageID(ev.EntityID))
		h.rec.IncWebhookEvent("forward", "skip-deleted")
		writeJSON(w, http.StatusOK, responses.WebhookAck{
			Message:     "page deleted, nothing to sync",
			PageID:      ev.EntityID,
			EventAction: string(cls.Action),
		})
		return
	case webhook.ActionIgnore:
		h.rec.IncWebhookEvent("forward", "ignored")
		writeJSON(w, http.StatusOK, responses.WebhookAck{
			Message: "ignored: " + cls.Reason,
			PageID:  ev.EntityID,
		})
		return
	}

	out := h.coord.HandleEvent(r.Context(), ev, cls.Action)
	switch out.Decision {
	case debounce.DecisionScheduled:
		h.rec.IncWebhookEvent("forward", "scheduled")
		writeJSON(w, http.StatusOK, responses.WebhookAck{
			Message:        "sync scheduled",
			PageID:         ev.EntityID,
			EventAction:    string(cls.Action),
			DebounceTimeMS: out.FireIn.Milliseconds(),
		})
	case debounce.DecisionProcessed:
		if out.Err != nil {
			h.rec.IncWebhookEvent("forward", "error")
			h.log.Error("immediate sync failed",
				logfields.PageID(ev.EntityID), logfields.Error(out.Err))
			h.adapter.WriteErrorResponse(w, out.Err)
			return
		}
		h.rec.IncWebhookEvent("forward", "processed")
		writeJSON(w, http.StatusOK, responses.WebhookAck{
			Message:     "sync completed",
			PageID:      ev.EntityID,
			EventAction: string(cls.Action),
		})
	}
}

// looksLikeNotion filters obvious non-Notion traffic. Real deliveries carry a
// notion user agent or a signature header.
func looksLikeNotion(r *http.Request) bool {
	if strings.HasPrefix(strings.ToLower(r.UserAgent()), "notion") {
		return true
	}
	return r.Header.Get("X-Notion-Signature") != ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
