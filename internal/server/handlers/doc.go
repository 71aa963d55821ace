// Package handlers implements the HTTP endpoints: the forward Notion
// pipeline, the reverse Todoist pipeline, and the diagnostic status and
// health views. Handlers depend on small interfaces so tests can fake the
// coordinator and the API clients.
package handlers
