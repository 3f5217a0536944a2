package schema

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoIndexes lists the indexes every mongodb collection needs, keyed by
// collection name
var MongoIndexes = map[string][]mongo.IndexModel{
	HelperLocationCollection: {
		{
			Keys:    bson.D{{Key: "helper_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("helper_id_unique"),
		},
		{
			// $nearSphere needs a 2dsphere index on the GeoJSON point
			Keys:    bson.D{{Key: "location", Value: "2dsphere"}},
			Options: options.Index().SetName("location_2dsphere"),
		},
		{
			Keys:    bson.D{{Key: "ts", Value: -1}},
			Options: options.Index().SetName("ts_desc"),
		},
	},
}

// EnsureMongoIndexes creates the missing indexes of every collection.
// Creating an index that already exists is a no-op.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range MongoIndexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("index %s: %w", collection, err)
		}
	}
	return nil
}
