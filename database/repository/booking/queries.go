// File: database/repository/booking/queries.go
package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"icehaus/models"
)

func (r *mongoBookingRepo) ActiveBySlot(ctx context.Context, slotID string) ([]models.Booking, error) {
	filter := bson.M{
		"timeSlotId":    slotID,
		"status":        bson.M{"$ne": models.StatusCancelled},
		"paymentStatus": bson.M{"$in": []string{models.PaymentPaid, models.PaymentPending}},
	}
	return r.findBookings(ctx, filter, nil)
}

func (r *mongoBookingRepo) FreeEntitlementOnDate(ctx context.Context, customerEmail, date string) ([]models.Booking, error) {
	// A free entitlement booking is paid with nothing actually charged.
	filter := bson.M{
		"customerEmail": customerEmail,
		"date":          date,
		"status":        bson.M{"$ne": models.StatusCancelled},
		"paymentStatus": models.PaymentPaid,
		"finalAmount":   bson.M{"$in": []interface{}{int64(0), nil}},
	}
	return r.findBookings(ctx, filter, nil)
}

func (r *mongoBookingRepo) ByCustomer(ctx context.Context, userID, email string) ([]models.Booking, error) {
	var clauses []bson.M
	if userID != "" {
		clauses = append(clauses, bson.M{"userId": userID})
	}
	if email != "" {
		clauses = append(clauses, bson.M{"customerEmail": email})
	}
	if len(clauses) == 0 {
		return nil, fmt.Errorf("customer lookup requires a user id or email")
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}})
	return r.findBookings(ctx, bson.M{"$or": clauses}, opts)
}

func (r *mongoBookingRepo) findBookings(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var cursor *mongo.Cursor
	var err error
	if opts != nil {
		cursor, err = r.coll.Find(ctx, filter, opts)
	} else {
		cursor, err = r.coll.Find(ctx, filter)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
