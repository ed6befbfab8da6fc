package domain

import "context"

// ─── Service Interfaces ─────────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// KeyValue abstracts the persistent local key-value area backing the
// record store. Writes are full-value and last-write-wins.
type KeyValue interface {
	// Get returns the stored value and whether the key exists.
	Get(key string) (value string, ok bool, err error)

	// Set stores the full value for key, replacing any previous value.
	Set(key, value string) error

	// Delete removes the key. Missing keys are a no-op.
	Delete(key string) error
}

// ChatCompleter abstracts the chat-completion backend used for AI
// message rewrites. Implementations must honor ctx cancellation.
type ChatCompleter interface {
	// Complete sends a system+user prompt pair and returns the generated
	// text. A response with no content path yields "" and a nil error.
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// DownloadSink receives generated documents (calendar files, backups,
// rendered images) and offers them to the user. The core never depends
// on a specific download mechanism.
type DownloadSink interface {
	Offer(filename, mimeType string, data []byte) error
}
