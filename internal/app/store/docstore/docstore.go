// internal/app/store/docstore/docstore.go
//
// Package docstore holds the small helpers every content store repeats:
// typed finds, not-found mapping and id-scoped updates and deletes.
package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned by every store when an id does not exist.
var ErrNotFound = errors.New("not found")

// MapErr converts mongo.ErrNoDocuments to ErrNotFound.
func MapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

// Get decodes the document with the given id.
func Get[T any](ctx context.Context, c *mongo.Collection, id primitive.ObjectID) (T, error) {
	var out T
	err := c.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
	return out, MapErr(err)
}

// FindOne decodes the first document matching filter.
func FindOne[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOneOptions) (T, error) {
	var out T
	err := c.FindOne(ctx, filter, opts...).Decode(&out)
	return out, MapErr(err)
}

// Find decodes every document matching filter. The result is never nil so
// it encodes as [] in JSON.
func Find[T any](ctx context.Context, c *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SetByID applies $set and returns the updated document.
func SetByID[T any](ctx context.Context, c *mongo.Collection, id primitive.ObjectID, set bson.M) (T, error) {
	return UpdateByID[T](ctx, c, id, bson.M{"$set": set})
}

// UpdateByID applies update (a document or pipeline) and returns the result.
func UpdateByID[T any](ctx context.Context, c *mongo.Collection, id primitive.ObjectID, update any) (T, error) {
	var out T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&out)
	return out, MapErr(err)
}

// DeleteByID removes one document, returning ErrNotFound when nothing matched.
func DeleteByID(ctx context.Context, c *mongo.Collection, id primitive.ObjectID) error {
	res, err := c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Toggle flips a boolean field and returns the updated document.
func Toggle[T any](ctx context.Context, c *mongo.Collection, id primitive.ObjectID, field string, now any) (T, error) {
	update := mongo.Pipeline{{{Key: "$set", Value: bson.M{
		field:        bson.M{"$not": bson.A{"$" + field}},
		"updated_at": now,
	}}}}
	return UpdateByID[T](ctx, c, id, update)
}

// CountBy groups documents by field and returns counts per value.
func CountBy(ctx context.Context, c *mongo.Collection, field string) (map[string]int64, error) {
	cur, err := c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$" + field, "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
			N  int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.N
	}
	return out, cur.Err()
}
