// Package errors provides classified errors for the sync service: every error
// carries a category (routing), severity (impact), retry strategy, and
// structured context. HTTP handlers map categories to status codes through
// HTTPErrorAdapter so webhook callers see consistent responses.
package errors
