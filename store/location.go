package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/helpme-app/helpme-api/schema"
)

// HelperLocation - interface for the last reported positions of helpers
type HelperLocation interface {
	UpsertHelperLocation(ctx context.Context, helperID string, loc schema.Location) error
	HelperLocations(ctx context.Context, helperIDs []string) (map[string]schema.Location, error)
	NearestHelpers(ctx context.Context, distance int, loc schema.Location) ([]string, error)
}

// UpsertHelperLocation - save the latest position of a helper
func (m *mongoDB) UpsertHelperLocation(ctx context.Context, helperID string, loc schema.Location) error {
	c := m.client.Database(m.database).Collection(schema.HelperLocationCollection)

	position := schema.HelperPosition{
		HelperID:  helperID,
		Location:  schema.NewGeoJSONPoint(loc),
		Address:   loc.Address,
		Timestamp: time.Now().UTC().Unix(),
	}

	_, err := c.UpdateOne(ctx,
		bson.M{"helper_id": helperID},
		bson.M{"$set": position},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		log.WithField("helper", helperID).Errorf("upsert helper location with error: %s", err)
		return err
	}

	return nil
}

// HelperLocations - last known coordinates of the given helpers
func (m *mongoDB) HelperLocations(ctx context.Context, helperIDs []string) (map[string]schema.Location, error) {
	c := m.client.Database(m.database).Collection(schema.HelperLocationCollection)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := c.Find(ctx, helperLocationsQuery(helperIDs))
	if err != nil {
		log.Errorf("query helper locations with error: %s", err)
		return nil, err
	}
	defer cur.Close(ctx)

	locations := make(map[string]schema.Location)
	for cur.Next(ctx) {
		var p schema.HelperPosition
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode helper position with error: %s", err)
		}
		locations[p.HelperID] = p.ToLocation()
	}

	log.Debugf("found %d locations for %d helpers", len(locations), len(helperIDs))
	return locations, cur.Err()
}

// NearestHelpers - helpers within a distance in meters, nearest first
func (m *mongoDB) NearestHelpers(ctx context.Context, distance int, loc schema.Location) ([]string, error) {
	c := m.client.Database(m.database).Collection(schema.HelperLocationCollection)

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := c.Find(ctx, distanceQuery(distance, loc))
	if err != nil {
		log.Errorf("query nearest helpers with error: %s", err)
		return nil, fmt.Errorf("nearest helpers query with error: %s", err)
	}
	defer cur.Close(ctx)

	ids := make([]string, 0)
	for cur.Next(ctx) {
		var p schema.HelperPosition
		if err := cur.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode helper position with error: %s", err)
		}
		ids = append(ids, p.HelperID)
	}

	log.Debugf("nearest helpers query gets %d helpers: %v", len(ids), ids)
	return ids, cur.Err()
}

func helperLocationsQuery(helperIDs []string) bson.D {
	arr := bson.A{}
	for _, id := range helperIDs {
		arr = append(arr, id)
	}

	return bson.D{{
		Key:   "helper_id",
		Value: bson.D{{Key: "$in", Value: arr}},
	}}
}

// $nearSphere provides documents from nearest to farthest
// reference: https://docs.mongodb.com/manual/reference/operator/query/nearSphere/#op._S_nearSphere
func distanceQuery(distance int, loc schema.Location) bson.D {
	return bson.D{{
		Key: "location",
		Value: bson.D{{
			Key: "$nearSphere",
			Value: bson.D{
				{Key: "$geometry", Value: schema.NewGeoJSONPoint(loc)},
				{Key: "$maxDistance", Value: distance},
			},
		}},
	}}
}
