package domain

import "time"

// Envelope is the parsed surface of an inbound message: enough to render an
// inbox row without touching the raw bytes again.
type Envelope struct {
	MessageID string    `json:"message_id"`
	From      string    `json:"from"`
	To        []string  `json:"to"`
	Subject   string    `json:"subject"`
	Date      time.Time `json:"date"`
	Preview   string    `json:"preview"`
}

// Message is a stored inbound email. The raw RFC822 bytes live in the blob
// store under BlobKey; the document here carries only envelope metadata.
type Message struct {
	ID         string    `json:"id"`
	AliasID    string    `json:"alias_id"`
	UserID     string    `json:"user_id"`
	Envelope   Envelope  `json:"envelope"`
	BlobKey    string    `json:"-"`
	SizeBytes  int64     `json:"size_bytes"`
	ReceivedAt time.Time `json:"received_at"`
}
