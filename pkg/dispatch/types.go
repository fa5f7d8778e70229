package dispatch

import "time"

// Request describes one notification to deliver. Either Token or RecipientID
// must be set; an explicit Token takes precedence over a RecipientID lookup.
// A Request is never mutated after validation.
type Request struct {
	Token       string            `json:"token,omitempty"`
	RecipientID string            `json:"recipientId,omitempty"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
}

// Record is one entry in the dispatch history. It is created the moment the
// provider accepts a send and lives for the process lifetime only.
type Record struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the outcome of a single dispatch attempt.
type Result struct {
	OK                bool
	ProviderMessageID string
	Err               error
}
