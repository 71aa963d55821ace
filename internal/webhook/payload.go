// Package webhook decodes inbound Notion webhook payloads at the HTTP boundary
// and classifies event types into sync actions. Decoding happens exactly once;
// the rest of the pipeline only ever sees the typed Message variants.
package webhook

import (
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/tasksync/internal/foundation/errors"
)

// EntityKind is the kind of remote object a webhook event refers to.
type EntityKind string

const (
	KindPage     EntityKind = "page"
	KindDatabase EntityKind = "database"
	KindUnknown  EntityKind = "unknown"
)

// Message is the decoded form of an inbound Notion webhook body. Exactly one
// of the concrete variants below is returned by Decode.
type Message interface {
	isMessage()
}

// Verification is the subscription handshake; the caller must echo the token.
type Verification struct {
	Token string
}

func (Verification) isMessage() {}

// Event is a single entity notification, constructed once per request and
// never mutated afterwards.
type Event struct {
	ID            string
	Timestamp     string
	WorkspaceID   string
	WorkspaceName string
	EntityID      string
	EntityKind    EntityKind
	Type          string
	ReceivedAt    time.Time
	// Raw is kept for diagnostics only.
	Raw json.RawMessage
}

func (Event) isMessage() {}

// envelope mirrors the wire shape: current events carry entity.{id,type},
// legacy deliveries carry page.id instead.
type envelope struct {
	VerificationToken string `json:"verification_token"`
	ID                string `json:"id"`
	Timestamp         string `json:"timestamp"`
	WorkspaceID       string `json:"workspace_id"`
	WorkspaceName     string `json:"workspace_name"`
	Type              string `json:"type"`
	Entity            *struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	} `json:"entity"`
	Page *struct {
		ID string `json:"id"`
	} `json:"page"`
}

// Decode parses a raw webhook body into one of the Message variants.
// A body that is neither a verification handshake nor carries an entity or
// legacy page id is a shape error.
func Decode(body []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid JSON payload").Build()
	}

	if env.VerificationToken != "" {
		return Verification{Token: env.VerificationToken}, nil
	}

	evt := Event{
		ID:            env.ID,
		Timestamp:     env.Timestamp,
		WorkspaceID:   env.WorkspaceID,
		WorkspaceName: env.WorkspaceName,
		Type:          env.Type,
		ReceivedAt:    time.Now(),
		Raw:           json.RawMessage(body),
	}

	switch {
	case env.Entity != nil && env.Entity.ID != "":
		evt.EntityID = env.Entity.ID
		switch env.Entity.Type {
		case "page":
			evt.EntityKind = KindPage
		case "database":
			evt.EntityKind = KindDatabase
		default:
			evt.EntityKind = KindUnknown
		}
	case env.Page != nil && env.Page.ID != "":
		// Legacy deliveries only ever referenced pages.
		evt.EntityID = env.Page.ID
		evt.EntityKind = KindPage
	default:
		return nil, ferrors.ValidationError("payload carries neither entity.id nor page.id").Build()
	}

	return evt, nil
}
