// File: database/repository/slot/indexes.go
package slotRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the time_slots collection.
func (r *mongoSlotRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on slot ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// One slot per (date, time, service); also the day-query pattern
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "time", Value: 1}, {Key: "serviceType", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("date_time_service_idx"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "serviceType", Value: 1}, {Key: "available", Value: 1}},
			Options: options.Index().SetName("date_service_available_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create slot indexes: %w", err)
	}
	return nil
}
