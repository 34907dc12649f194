// File: database/repository/booking/indexes.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the bookings collection.
func (r *mongoBookingRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Occupancy query pattern
		{
			Keys:    bson.D{{Key: "timeSlotId", Value: 1}, {Key: "paymentStatus", Value: 1}},
			Options: options.Index().SetName("slot_payment_idx"),
		},
		// One-free-per-day guard scan
		{
			Keys:    bson.D{{Key: "customerEmail", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetName("customer_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "stripeSessionId", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("stripe_session_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}
