package slotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrVersionConflict is returned when a conditional occupancy update loses
// the race against a concurrent writer, or would breach the slot's
// capacity or private hold.
var ErrVersionConflict = errors.New("slot version conflict")

// availableExpr derives the available flag from the document being
// written, so the flag can never lag the occupancy it summarizes.
var availableExpr = bson.M{"$and": bson.A{
	bson.M{"$ne": bson.A{"$privateHold", true}},
	bson.M{"$lt": bson.A{"$occupiedSeats", "$capacity"}},
}}

// ReserveSeats conditionally takes guestCount seats. The filter carries
// the capacity invariant itself: a write that would oversell the slot, or
// land on a held slot, matches nothing even when the version is current.
func (repo *mongoSlotRepo) ReserveSeats(ctx context.Context, slotID string, guestCount int, private bool, currentVersion int) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"id":          slotID,
		"version":     currentVersion,
		"privateHold": bson.M{"$ne": true},
	}
	if private {
		filter["occupiedSeats"] = 0
	} else {
		filter["$expr"] = bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$occupiedSeats", guestCount}},
			"$capacity",
		}}
	}

	fields := bson.M{
		"occupiedSeats": bson.M{"$add": bson.A{"$occupiedSeats", guestCount}},
		"version":       bson.M{"$add": bson.A{"$version", 1}},
	}
	if private {
		fields["privateHold"] = true
	}
	update := bson.A{
		bson.M{"$set": fields},
		bson.M{"$set": bson.M{"available": availableExpr}},
	}

	res, err := repo.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve slot seats: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (repo *mongoSlotRepo) ReleaseSeats(ctx context.Context, slotID string, guestCount int, private bool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// $max floors the count at zero so a double release cannot drive
	// occupancy negative.
	fields := bson.M{
		"occupiedSeats": bson.M{"$max": bson.A{0,
			bson.M{"$subtract": bson.A{"$occupiedSeats", guestCount}},
		}},
		"version": bson.M{"$add": bson.A{"$version", 1}},
	}
	if private {
		fields["privateHold"] = false
	}
	update := bson.A{
		bson.M{"$set": fields},
		bson.M{"$set": bson.M{"available": availableExpr}},
	}

	res, err := repo.coll.UpdateOne(ctx, bson.M{"id": slotID}, update)
	if err != nil {
		return fmt.Errorf("failed to release slot seats: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("slot %s not found during release", slotID)
	}
	return nil
}
