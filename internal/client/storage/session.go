// Package storage defines the client's local persistence boundary.
// Only viewer session state lives here; annotations themselves are
// never persisted — they exist in memory for the lifetime of an open
// document and travel over the event channel.
package storage

import "context"

// Session is the viewer's durable state between runs.
type Session struct {
	// ClientID identifies this viewer across runs. Minted on first
	// use and stamped into payloads as the owner hint.
	ClientID string `json:"client_id"`

	// ServerURL is the last hub this client connected to.
	ServerURL string `json:"server_url"`

	// Document is the shared document identifier, e.g.
	// "shared/example.pdf".
	Document string `json:"document"`

	// Page and Zoom restore the view where the client left off.
	Page int     `json:"page"`
	Zoom float64 `json:"zoom"`
}

// SessionStorage persists the viewer session.
type SessionStorage interface {
	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context) (*Session, error)
	DeleteSession(ctx context.Context) error
}
