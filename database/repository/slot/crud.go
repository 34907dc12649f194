// File: database/repository/slot/crud.go
package slotRepo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"icehaus/models"
)

func (r *mongoSlotRepo) CreateMany(ctx context.Context, slots []models.TimeSlot) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	docs := make([]interface{}, len(slots))
	for i, slot := range slots {
		if slot.ID == "" {
			slot.ID = uuid.New().String()
		}
		docs[i] = slot
	}

	res, err := r.coll.InsertMany(ctx, docs, &options.InsertManyOptions{Ordered: boolPtr(true)})
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(res.InsertedIDs))
	for i, raw := range res.InsertedIDs {
		switch v := raw.(type) {
		case string:
			ids[i] = v
		case uuid.UUID:
			ids[i] = v.String()
		case primitive.ObjectID:
			ids[i] = v.Hex()
		default:
			return nil, errors.New("unexpected type for inserted ID")
		}
	}
	return ids, nil
}

func (r *mongoSlotRepo) GetByID(ctx context.Context, slotID string) (*models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var slot models.TimeSlot
	err := r.coll.FindOne(ctx, bson.M{"id": slotID}).Decode(&slot)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *mongoSlotRepo) GetByDate(ctx context.Context, date string) ([]models.TimeSlot, error) {
	return r.findSlots(ctx, bson.M{"date": date})
}

func (r *mongoSlotRepo) GetByDateAndService(ctx context.Context, date, serviceType string) ([]models.TimeSlot, error) {
	return r.findSlots(ctx, bson.M{"date": date, "serviceType": serviceType})
}

func (r *mongoSlotRepo) findSlots(ctx context.Context, filter bson.M) ([]models.TimeSlot, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var slots []models.TimeSlot
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// IsNotFound reports whether err means the slot does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

func boolPtr(b bool) *bool { return &b }
