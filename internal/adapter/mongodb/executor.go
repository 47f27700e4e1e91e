package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"toolbridge/internal/domain"
	"toolbridge/internal/infra/config"
)

// Executor implements the database operation set over a connection pool.
// It owns argument bounds (find limit, pipeline depth) and converts driver
// results and errors into JSON-safe payloads and domain sentinels.
type Executor struct {
	pool              *Pool
	database          string
	defaultCollection string
	callTimeout       time.Duration
	maxFindLimit      int
	maxPipelineDepth  int
	logger            *slog.Logger
}

// NewExecutor creates an Executor over pool using the configured bounds.
func NewExecutor(pool *Pool, cfg config.MongoDBConfig, limits config.LimitsConfig, logger *slog.Logger) *Executor {
	return &Executor{
		pool:              pool,
		database:          cfg.Database,
		defaultCollection: cfg.DefaultCollection,
		callTimeout:       cfg.CallTimeout,
		maxFindLimit:      limits.MaxFindLimit,
		maxPipelineDepth:  limits.MaxPipelineDepth,
		logger:            logger,
	}
}

// FindArgs are the arguments of the find operation.
type FindArgs struct {
	Collection string         `json:"collection"`
	Query      map[string]any `json:"query,omitempty"`
	Sort       map[string]int `json:"sort,omitempty"`
	Limit      int64          `json:"limit,omitempty"`
	Skip       int64          `json:"skip,omitempty"`
}

// InsertArgs are the arguments of the insert operation. Documents accepts a
// single object or an array of objects.
type InsertArgs struct {
	Collection string `json:"collection"`
	Documents  any    `json:"documents"`
}

// UpdateArgs are the arguments of the update operation.
type UpdateArgs struct {
	Collection string         `json:"collection"`
	Filter     map[string]any `json:"filter"`
	Update     map[string]any `json:"update"`
	Upsert     bool           `json:"upsert,omitempty"`
}

// DeleteArgs are the arguments of the delete operation.
type DeleteArgs struct {
	Collection string         `json:"collection"`
	Filter     map[string]any `json:"filter"`
	Multi      *bool          `json:"multi,omitempty"` // nil means true, matching delete_many semantics
}

// AggregateArgs are the arguments of the aggregate operation.
type AggregateArgs struct {
	Collection string           `json:"collection"`
	Pipeline   []map[string]any `json:"pipeline"`
}

// CollectionStatsArgs name the collection to inspect.
type CollectionStatsArgs struct {
	Collection string `json:"collection"`
}

// Find queries documents with optional sort, limit and skip.
func (e *Executor) Find(ctx context.Context, args FindArgs) (any, error) {
	coll, err := e.collectionName(args.Collection)
	if err != nil {
		return nil, err
	}
	if args.Limit < 0 {
		return nil, domain.NewDomainError("mongodb.find", domain.ErrValidation, "limit must be non-negative")
	}
	// An omitted limit still gets the ceiling; result sets are always bounded.
	if args.Limit == 0 || args.Limit > int64(e.maxFindLimit) {
		args.Limit = int64(e.maxFindLimit)
	}
	if args.Skip < 0 {
		return nil, domain.NewDomainError("mongodb.find", domain.ErrValidation, "skip must be non-negative")
	}

	filter := args.Query
	if filter == nil {
		filter = map[string]any{}
	}

	return e.withConn(ctx, "mongodb.find", func(ctx context.Context, db Database) (any, error) {
		docs, err := db.Collection(coll).Find(ctx, filter, FindParams{
			Sort:  sortSpec(args.Sort),
			Limit: args.Limit,
			Skip:  args.Skip,
		})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collection": coll,
			"query":      filter,
			"count":      len(docs),
			"results":    sanitizeDocs(docs),
		}, nil
	})
}

// Insert writes one or many documents, stamping created_at/updated_at.
func (e *Executor) Insert(ctx context.Context, args InsertArgs) (any, error) {
	coll, err := e.collectionName(args.Collection)
	if err != nil {
		return nil, err
	}

	docs, err := normalizeDocuments(args.Documents)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for _, doc := range docs {
		doc["created_at"] = now
		doc["updated_at"] = now
	}

	return e.withConn(ctx, "mongodb.insert", func(ctx context.Context, db Database) (any, error) {
		c := db.Collection(coll)

		var ids []string
		if len(docs) == 1 {
			res, err := c.InsertOne(ctx, docs[0])
			if err != nil {
				return nil, err
			}
			ids = []string{idString(res.InsertedID)}
		} else {
			anyDocs := make([]any, len(docs))
			for i, d := range docs {
				anyDocs[i] = d
			}
			res, err := c.InsertMany(ctx, anyDocs)
			if err != nil {
				return nil, err
			}
			ids = make([]string, len(res.InsertedIDs))
			for i, id := range res.InsertedIDs {
				ids[i] = idString(id)
			}
		}

		return map[string]any{
			"collection":     coll,
			"operation":      "insert",
			"inserted_count": len(ids),
			"inserted_ids":   ids,
			"acknowledged":   true,
		}, nil
	})
}

// Update applies an update spec to all documents matching filter.
// updated_at is forced into the $set clause.
func (e *Executor) Update(ctx context.Context, args UpdateArgs) (any, error) {
	coll, err := e.collectionName(args.Collection)
	if err != nil {
		return nil, err
	}
	if args.Filter == nil {
		return nil, domain.NewDomainError("mongodb.update", domain.ErrValidation, "filter is required")
	}
	if len(args.Update) == 0 {
		return nil, domain.NewDomainError("mongodb.update", domain.ErrValidation, "update spec is required")
	}

	update := make(map[string]any, len(args.Update))
	for k, v := range args.Update {
		update[k] = v
	}
	set, _ := update["$set"].(map[string]any)
	if set == nil {
		set = map[string]any{}
	}
	set["updated_at"] = time.Now().UTC()
	update["$set"] = set

	return e.withConn(ctx, "mongodb.update", func(ctx context.Context, db Database) (any, error) {
		res, err := db.Collection(coll).UpdateMany(ctx, args.Filter, update, args.Upsert)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collection":     coll,
			"operation":      "update",
			"matched_count":  res.MatchedCount,
			"modified_count": res.ModifiedCount,
			"upserted_count": res.UpsertedCount,
			"acknowledged":   true,
		}, nil
	})
}

// Delete removes documents matching filter. Multi defaults to true.
func (e *Executor) Delete(ctx context.Context, args DeleteArgs) (any, error) {
	coll, err := e.collectionName(args.Collection)
	if err != nil {
		return nil, err
	}
	if args.Filter == nil {
		return nil, domain.NewDomainError("mongodb.delete", domain.ErrValidation, "filter is required")
	}

	multi := args.Multi == nil || *args.Multi

	return e.withConn(ctx, "mongodb.delete", func(ctx context.Context, db Database) (any, error) {
		c := db.Collection(coll)
		var res *mongo.DeleteResult
		var err error
		if multi {
			res, err = c.DeleteMany(ctx, args.Filter)
		} else {
			res, err = c.DeleteOne(ctx, args.Filter)
		}
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collection":    coll,
			"operation":     "delete",
			"deleted_count": res.DeletedCount,
			"acknowledged":  true,
		}, nil
	})
}

// Aggregate runs a pipeline as given, stage order preserved. Pipelines
// deeper than the configured ceiling are rejected before touching the
// backend.
func (e *Executor) Aggregate(ctx context.Context, args AggregateArgs) (any, error) {
	coll, err := e.collectionName(args.Collection)
	if err != nil {
		return nil, err
	}
	if len(args.Pipeline) == 0 {
		return nil, domain.NewDomainError("mongodb.aggregate", domain.ErrValidation, "pipeline must not be empty")
	}
	if len(args.Pipeline) > e.maxPipelineDepth {
		return nil, domain.NewDomainError("mongodb.aggregate", domain.ErrValidation,
			fmt.Sprintf("pipeline has %d stages, max is %d", len(args.Pipeline), e.maxPipelineDepth))
	}

	pipeline := make([]any, len(args.Pipeline))
	for i, stage := range args.Pipeline {
		pipeline[i] = stage
	}

	return e.withConn(ctx, "mongodb.aggregate", func(ctx context.Context, db Database) (any, error) {
		docs, err := db.Collection(coll).Aggregate(ctx, pipeline)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collection": coll,
			"operation":  "aggregate",
			"count":      len(docs),
			"results":    sanitizeDocs(docs),
		}, nil
	})
}

// ListCollections returns the database's collection names.
func (e *Executor) ListCollections(ctx context.Context) (any, error) {
	return e.withConn(ctx, "mongodb.list_collections", func(ctx context.Context, db Database) (any, error) {
		names, err := db.ListCollectionNames(ctx)
		if err != nil {
			return nil, err
		}
		if names == nil {
			names = []string{}
		}
		return map[string]any{
			"database":    e.database,
			"collections": names,
			"count":       len(names),
		}, nil
	})
}

// CollectionStats returns size and index statistics for a collection.
func (e *Executor) CollectionStats(ctx context.Context, args CollectionStatsArgs) (any, error) {
	coll, err := e.collectionName(args.Collection)
	if err != nil {
		return nil, err
	}

	return e.withConn(ctx, "mongodb.collection_stats", func(ctx context.Context, db Database) (any, error) {
		stats, err := db.CollStats(ctx, coll)
		if err != nil {
			return nil, err
		}
		count, err := db.Collection(coll).CountDocuments(ctx, map[string]any{})
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"collection":  coll,
			"count":       count,
			"size":        sanitize(stats["size"]),
			"storageSize": sanitize(stats["storageSize"]),
			"avgObjSize":  sanitize(stats["avgObjSize"]),
			"indexes":     sanitize(stats["nindexes"]),
			"indexSizes":  sanitize(stats["indexSizes"]),
		}, nil
	})
}

// HealthCheck pings through the pool.
func (e *Executor) HealthCheck(ctx context.Context) error {
	return e.pool.HealthCheck(ctx)
}

func (e *Executor) collectionName(name string) (string, error) {
	if name != "" {
		return name, nil
	}
	if e.defaultCollection != "" {
		return e.defaultCollection, nil
	}
	return "", domain.NewDomainError("mongodb", domain.ErrValidation, "collection is required")
}

// withConn runs fn with a pooled connection, translating driver errors and
// poisoning the connection on transport-level failures.
func (e *Executor) withConn(ctx context.Context, op string, fn func(ctx context.Context, db Database) (any, error)) (any, error) {
	h, err := e.pool.Acquire(ctx)
	if err != nil {
		return nil, domain.WrapOp(op, err)
	}
	defer e.pool.Release(h)

	ctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	out, err := fn(ctx, h.Conn().Database())
	if err != nil {
		if mongo.IsNetworkError(err) {
			h.Poison()
			return nil, domain.NewDomainError(op, domain.ErrBackendUnavailable, err.Error())
		}
		if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.NewDomainError(op, domain.ErrTransient, err.Error())
		}
		return nil, domain.NewDomainError(op, domain.ErrFatal, err.Error())
	}
	return out, nil
}

// normalizeDocuments accepts an object or array of objects.
func normalizeDocuments(raw any) ([]map[string]any, error) {
	switch v := raw.(type) {
	case map[string]any:
		return []map[string]any{v}, nil
	case []any:
		if len(v) == 0 {
			return nil, domain.NewDomainError("mongodb.insert", domain.ErrValidation, "documents must not be empty")
		}
		docs := make([]map[string]any, len(v))
		for i, item := range v {
			doc, ok := item.(map[string]any)
			if !ok {
				return nil, domain.NewDomainError("mongodb.insert", domain.ErrValidation,
					fmt.Sprintf("document at index %d is not an object", i))
			}
			docs[i] = doc
		}
		return docs, nil
	default:
		return nil, domain.NewDomainError("mongodb.insert", domain.ErrValidation, "documents must be an object or array of objects")
	}
}

// sortSpec converts a {"field": 1|-1} mapping to a deterministic bson.D,
// ordered by field name.
func sortSpec(m map[string]int) bson.D {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := make(bson.D, 0, len(keys))
	for _, k := range keys {
		d = append(d, bson.E{Key: k, Value: m[k]})
	}
	return d
}
