package mongodb

import (
	"encoding/base64"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// sanitize converts a decoded BSON value into a JSON-safe value: ObjectIDs
// become hex strings, dates become RFC 3339 strings, binary becomes base64.
// Callers never see a driver-native type.
func sanitize(v any) any {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time().UTC().Format(time.RFC3339)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case primitive.Timestamp:
		return time.Unix(int64(t.T), 0).UTC().Format(time.RFC3339)
	case primitive.Decimal128:
		return t.String()
	case primitive.Binary:
		return base64.StdEncoding.EncodeToString(t.Data)
	case primitive.Regex:
		return t.Pattern
	case bson.M:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = sanitize(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = sanitize(val)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = sanitize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = sanitize(val)
		}
		return out
	default:
		return v
	}
}

// sanitizeDocs sanitizes a result set, returning an empty (non-nil) slice
// for empty results so the payload serializes as [] rather than null.
func sanitizeDocs(docs []bson.M) []any {
	out := make([]any, len(docs))
	for i, doc := range docs {
		out[i] = sanitize(doc)
	}
	return out
}

// idString renders an inserted ID in canonical string form.
func idString(id any) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	if s, ok := id.(string); ok {
		return s
	}
	// Remaining cases (int64 keys etc.) round-trip through sanitize.
	if s, ok := sanitize(id).(string); ok {
		return s
	}
	return fmt.Sprintf("%v", id)
}
