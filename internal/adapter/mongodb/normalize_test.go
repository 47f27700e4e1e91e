package mongodb

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSanitizeNestedDocument(t *testing.T) {
	oid := primitive.NewObjectID()
	when := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	doc := bson.M{
		"_id":     oid,
		"created": primitive.NewDateTimeFromTime(when),
		"tags":    bson.A{"a", primitive.NewObjectID()},
		"nested": bson.M{
			"ref": oid,
		},
		"payload": primitive.Binary{Data: []byte("hi")},
		"price":   int64(42),
	}

	out := sanitize(doc).(map[string]any)

	if out["_id"] != oid.Hex() {
		t.Errorf("_id = %v", out["_id"])
	}
	if out["created"] != "2024-05-01T12:00:00Z" {
		t.Errorf("created = %v", out["created"])
	}
	nested := out["nested"].(map[string]any)
	if nested["ref"] != oid.Hex() {
		t.Errorf("nested ref = %v", nested["ref"])
	}
	tags := out["tags"].([]any)
	if _, ok := tags[1].(string); !ok {
		t.Errorf("ObjectID in array not stringified: %T", tags[1])
	}
	if out["payload"] != "aGk=" {
		t.Errorf("binary = %v", out["payload"])
	}
	if out["price"] != int64(42) {
		t.Errorf("plain value changed: %v", out["price"])
	}
}

func TestSanitizedOutputIsJSONSerializable(t *testing.T) {
	doc := bson.M{
		"_id":  primitive.NewObjectID(),
		"ts":   primitive.Timestamp{T: 1714564800},
		"dec":  primitive.NewDecimal128(0, 123),
		"list": bson.A{bson.D{{Key: "k", Value: primitive.NewObjectID()}}},
	}

	if _, err := json.Marshal(sanitize(doc)); err != nil {
		t.Fatalf("sanitized document not JSON-serializable: %v", err)
	}
}

func TestSanitizeDocsEmpty(t *testing.T) {
	out := sanitizeDocs(nil)
	if out == nil {
		t.Fatal("empty result should serialize as [], not null")
	}
	data, _ := json.Marshal(out)
	if string(data) != "[]" {
		t.Errorf("marshaled = %s", data)
	}
}
