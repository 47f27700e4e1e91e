package tool

import (
	"encoding/json"

	"toolbridge/internal/adapter/mongodb"
	"toolbridge/internal/domain"
)

// Collection is optional in every schema: the executor falls back to the
// configured default collection when it is omitted.

const mongoFindSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"collection": {"type": "string", "minLength": 1},
		"query": {"type": "object"},
		"sort": {
			"type": "object",
			"additionalProperties": {"type": "integer", "enum": [1, -1]}
		},
		"limit": {"type": "integer", "minimum": 0},
		"skip": {"type": "integer", "minimum": 0}
	}
}`

const mongoInsertSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["documents"],
	"properties": {
		"collection": {"type": "string", "minLength": 1},
		"documents": {
			"oneOf": [
				{"type": "object"},
				{"type": "array", "items": {"type": "object"}, "minItems": 1}
			]
		}
	}
}`

const mongoUpdateSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["filter", "update"],
	"properties": {
		"collection": {"type": "string", "minLength": 1},
		"filter": {"type": "object"},
		"update": {"type": "object"},
		"upsert": {"type": "boolean"}
	}
}`

const mongoDeleteSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["filter"],
	"properties": {
		"collection": {"type": "string", "minLength": 1},
		"filter": {"type": "object"},
		"multi": {"type": "boolean"}
	}
}`

const mongoAggregateSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["pipeline"],
	"properties": {
		"collection": {"type": "string", "minLength": 1},
		"pipeline": {"type": "array", "items": {"type": "object"}, "minItems": 1}
	}
}`

const mongoNoArgsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"properties": {}
}`

const mongoStatsSchema = `{
	"type": "object",
	"additionalProperties": false,
	"required": ["collection"],
	"properties": {
		"collection": {"type": "string", "minLength": 1}
	}
}`

// MongoDBTools builds the document-database tool set bound to exec.
func MongoDBTools(exec *mongodb.Executor) []domain.Tool {
	return []domain.Tool{
		&definition{
			name:        "mongodb_find",
			description: "Query documents in a MongoDB collection with optional filter, sort, limit and skip.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoFindSchema),
			run:         typed(exec.Find),
		},
		&definition{
			name:        "mongodb_insert",
			description: "Insert a document or an array of documents into a MongoDB collection.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoInsertSchema),
			run:         typed(exec.Insert),
		},
		&definition{
			name:        "mongodb_update",
			description: "Update documents matching a filter. Set upsert to insert when nothing matches.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoUpdateSchema),
			run:         typed(exec.Update),
		},
		&definition{
			name:        "mongodb_delete",
			description: "Delete documents matching a filter. Deletes all matches unless multi is false.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoDeleteSchema),
			run:         typed(exec.Delete),
		},
		&definition{
			name:        "mongodb_aggregate",
			description: "Run an aggregation pipeline against a MongoDB collection.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoAggregateSchema),
			run:         typed(exec.Aggregate),
		},
		&definition{
			name:        "mongodb_get_collections",
			description: "List the collections in the configured database.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoNoArgsSchema),
			run:         noArgs(exec.ListCollections),
		},
		&definition{
			name:        "mongodb_get_collection_stats",
			description: "Get storage statistics for a collection.",
			backend:     domain.BackendMongoDB,
			parameters:  json.RawMessage(mongoStatsSchema),
			run:         typed(exec.CollectionStats),
		},
	}
}
