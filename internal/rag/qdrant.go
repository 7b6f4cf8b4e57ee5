package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"Loremaster/server/internal/config"
	"Loremaster/server/internal/interfaces"
)

// Payload field names inside each stored point
const (
	fieldSession   = "session_id"
	fieldKey       = "natural_key"
	fieldText      = "text"
	fieldData      = "data" // JSON-encoded structured payload
	fieldTimestamp = "timestamp"
)

// QdrantIndex implements interfaces.MemoryIndex on a Qdrant instance.
// Each record kind gets its own collection; a point's id is derived from
// (session, kind, natural key) so repeated indexing of the same entity
// replaces the previous point.
type QdrantIndex struct {
	client     *qdrant.Client
	embedding  *EmbeddingService
	vectorSize uint64
}

func NewQdrantIndex(cfg config.QdrantConfig, embedding *EmbeddingService) (*QdrantIndex, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to qdrant: %w", err)
	}

	return &QdrantIndex{
		client:     client,
		embedding:  embedding,
		vectorSize: uint64(cfg.VectorSize),
	}, nil
}

// EnsureCollections creates the per-kind collections if missing
func (q *QdrantIndex) EnsureCollections(ctx context.Context) error {
	kinds := []interfaces.RecordKind{
		interfaces.RecordCharacter,
		interfaces.RecordNPC,
		interfaces.RecordLocation,
		interfaces.RecordQuest,
		interfaces.RecordConversation,
	}
	for _, kind := range kinds {
		exists, err := q.client.CollectionExists(ctx, string(kind))
		if err != nil {
			return fmt.Errorf("failed to check collection %s: %w", kind, err)
		}
		if exists {
			continue
		}
		err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: string(kind),
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     q.vectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection %s: %w", kind, err)
		}
	}
	return nil
}

func (q *QdrantIndex) Close() error {
	return q.client.Close()
}

func pointID(sessionID string, kind interfaces.RecordKind, naturalKey string) string {
	seed := fmt.Sprintf("%s/%s/%s", sessionID, kind, naturalKey)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

func (q *QdrantIndex) IndexText(ctx context.Context, sessionID string, kind interfaces.RecordKind, naturalKey, text string, payload map[string]interface{}) error {
	vector, err := q.embedding.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed record: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: string(kind),
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewID(pointID(sessionID, kind, naturalKey)),
			Vectors: qdrant.NewVectors(vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				fieldSession:   sessionID,
				fieldKey:       naturalKey,
				fieldText:      text,
				fieldData:      string(data),
				fieldTimestamp: float64(time.Now().UnixNano()),
			}),
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}
	return nil
}

func (q *QdrantIndex) QuerySimilar(ctx context.Context, sessionID string, kind interfaces.RecordKind, queryText string, k int) ([]map[string]interface{}, error) {
	vector, err := q.embedding.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: string(kind),
		Query:          qdrant.NewQuery(vector...),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(fieldSession, sessionID)},
		},
		Limit:       qdrant.PtrOf(uint64(k)),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", kind, err)
	}

	out := make([]map[string]interface{}, 0, len(points))
	for _, point := range points {
		if payload := decodePayload(point.Payload); payload != nil {
			out = append(out, payload)
		}
	}
	return out, nil
}

func (q *QdrantIndex) QueryRecent(ctx context.Context, sessionID string, kind interfaces.RecordKind, k int) ([]map[string]interface{}, error) {
	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: string(kind),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch(fieldSession, sessionID)},
		},
		Limit:       qdrant.PtrOf(uint32(historyScanWindow(k))),
		WithPayload: qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll %s: %w", kind, err)
	}

	type timed struct {
		ts      float64
		payload map[string]interface{}
	}
	entries := make([]timed, 0, len(points))
	for _, point := range points {
		payload := decodePayload(point.Payload)
		if payload == nil {
			continue
		}
		var ts float64
		if v, ok := point.Payload[fieldTimestamp]; ok {
			ts = v.GetDoubleValue()
		}
		entries = append(entries, timed{ts: ts, payload: payload})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ts > entries[j].ts })

	if len(entries) > k {
		entries = entries[:k]
	}
	out := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.payload)
	}
	return out, nil
}

// historyScanWindow over-fetches so the newest k survive the sort even
// when the scroll order is arbitrary
func historyScanWindow(k int) int {
	if k < 20 {
		return 100
	}
	return k * 5
}

// decodePayload turns a stored point's payload back into the structured
// record that was indexed
func decodePayload(payload map[string]*qdrant.Value) map[string]interface{} {
	raw, ok := payload[fieldData]
	if !ok {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw.GetStringValue()), &out); err != nil {
		return nil
	}
	return out
}
