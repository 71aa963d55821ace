package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"

	"git.home.luguber.info/inful/tasksync/internal/backref"
	"git.home.luguber.info/inful/tasksync/internal/todoist"
	"git.home.luguber.info/inful/tasksync/internal/webhook"
)

// Manual smoke check for webhook decoding, classification, signature
// validation, and back-reference extraction. Run with: go run debug_webhook.go
func main() {
	// Decode a current-format Notion event
	payload := []byte(`{"id": "ev-1", "type": "page.properties_updated", "workspace_name": "Personal", "entity": {"id": "abcd1234-abcd-1234-abcd-1234abcd1234", "type": "page"}}`)
	msg, err := webhook.Decode(payload)
	if err != nil {
		log.Fatalf("Decode() error: %v", err)
	}
	ev, ok := msg.(webhook.Event)
	if !ok {
		log.Fatalf("expected event, got %T", msg)
	}
	cls := webhook.Classify(ev.Type)
	fmt.Printf("Event type: %s\n", ev.Type)
	fmt.Printf("Entity: %s (%s)\n", ev.EntityID, ev.EntityKind)
	fmt.Printf("Action: %s (actionable: %v)\n", cls.Action, cls.Actionable())

	// Legacy page.id format
	legacy := []byte(`{"id": "ev-2", "type": "page.created", "page": {"id": "abcd9999-abcd-9999-abcd-9999abcd9999"}}`)
	msg, err = webhook.Decode(legacy)
	if err != nil {
		log.Fatalf("Decode(legacy) error: %v", err)
	}
	fmt.Printf("Legacy entity: %s\n", msg.(webhook.Event).EntityID)

	// Todoist signature validation
	body := []byte(`{"event_name": "item:completed"}`)
	mac := hmac.New(sha256.New, []byte("test-secret"))
	mac.Write(body)
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	fmt.Printf("Validation with correct secret: %v\n", todoist.ValidateSignature("test-secret", body, sig))
	fmt.Printf("Validation with wrong secret: %v\n", todoist.ValidateSignature("wrong-secret", body, sig))

	// Back-reference extraction from a task description
	id, found := backref.Extract("origin: https://www.notion.so/My-Task-abcd1234abcd1234abcd1234abcd1234")
	fmt.Printf("Backref found: %v, id: %s\n", found, id)
	fmt.Printf("Encodings: %v\n", backref.Encodings(id))
}
