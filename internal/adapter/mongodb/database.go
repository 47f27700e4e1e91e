package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Database is the slice of driver surface the executor needs. Cursors are
// materialized inside the implementation so fakes stay trivial.
type Database interface {
	Collection(name string) Collection
	ListCollectionNames(ctx context.Context) ([]string, error)
	CollStats(ctx context.Context, collection string) (bson.M, error)
}

// FindParams narrows driver find options to what the tools expose.
type FindParams struct {
	Sort  bson.D
	Limit int64
	Skip  int64
}

// Collection is the per-collection operation surface.
type Collection interface {
	Find(ctx context.Context, filter any, p FindParams) ([]bson.M, error)
	InsertOne(ctx context.Context, doc any) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, docs []any) (*mongo.InsertManyResult, error)
	UpdateMany(ctx context.Context, filter, update any, upsert bool) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter any) (*mongo.DeleteResult, error)
	DeleteMany(ctx context.Context, filter any) (*mongo.DeleteResult, error)
	Aggregate(ctx context.Context, pipeline any) ([]bson.M, error)
	CountDocuments(ctx context.Context, filter any) (int64, error)
}

type mongoDatabase struct {
	db *mongo.Database
}

func (d *mongoDatabase) Collection(name string) Collection {
	return &mongoCollection{coll: d.db.Collection(name)}
}

func (d *mongoDatabase) ListCollectionNames(ctx context.Context) ([]string, error) {
	return d.db.ListCollectionNames(ctx, bson.D{})
}

func (d *mongoDatabase) CollStats(ctx context.Context, collection string) (bson.M, error) {
	var stats bson.M
	cmd := bson.D{{Key: "collStats", Value: collection}}
	if err := d.db.RunCommand(ctx, cmd).Decode(&stats); err != nil {
		return nil, err
	}
	return stats, nil
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Find(ctx context.Context, filter any, p FindParams) ([]bson.M, error) {
	opts := options.Find()
	if len(p.Sort) > 0 {
		opts.SetSort(p.Sort)
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}
	if p.Skip > 0 {
		opts.SetSkip(p.Skip)
	}

	cursor, err := c.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc any) (*mongo.InsertOneResult, error) {
	return c.coll.InsertOne(ctx, doc)
}

func (c *mongoCollection) InsertMany(ctx context.Context, docs []any) (*mongo.InsertManyResult, error) {
	return c.coll.InsertMany(ctx, docs)
}

func (c *mongoCollection) UpdateMany(ctx context.Context, filter, update any, upsert bool) (*mongo.UpdateResult, error) {
	return c.coll.UpdateMany(ctx, filter, update, options.Update().SetUpsert(upsert))
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.coll.DeleteOne(ctx, filter)
}

func (c *mongoCollection) DeleteMany(ctx context.Context, filter any) (*mongo.DeleteResult, error) {
	return c.coll.DeleteMany(ctx, filter)
}

func (c *mongoCollection) Aggregate(ctx context.Context, pipeline any) ([]bson.M, error) {
	cursor, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (c *mongoCollection) CountDocuments(ctx context.Context, filter any) (int64, error) {
	return c.coll.CountDocuments(ctx, filter)
}
