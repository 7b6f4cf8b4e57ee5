package interfaces

import "context"

// RecordKind identifies which collection a memory record belongs to
type RecordKind string

const (
	RecordCharacter    RecordKind = "characters"
	RecordNPC          RecordKind = "npcs"
	RecordLocation     RecordKind = "locations"
	RecordQuest        RecordKind = "quests"
	RecordConversation RecordKind = "conversations"
)

// MemoryIndex is the optional similarity-search collaborator. Records are
// denormalized textual projections of entities keyed by (session, kind,
// natural key) so repeated writes for the same entity replace the old point.
// The engine must degrade gracefully when no index is configured: a nil
// MemoryIndex simply disables retrieval and mirrored writes.
type MemoryIndex interface {
	// IndexText embeds text and upserts it with its structured payload
	IndexText(ctx context.Context, sessionID string, kind RecordKind, naturalKey, text string, payload map[string]interface{}) error

	// QuerySimilar returns up to k payloads ranked by descending similarity
	QuerySimilar(ctx context.Context, sessionID string, kind RecordKind, queryText string, k int) ([]map[string]interface{}, error)

	// QueryRecent returns up to k payloads ordered by recency, newest first
	QueryRecent(ctx context.Context, sessionID string, kind RecordKind, k int) ([]map[string]interface{}, error)
}
