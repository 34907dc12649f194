// File: database/repository/slot/interface.go
package slotRepo

import (
	"context"

	"icehaus/database"
	"icehaus/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// SlotRepository persists time slots and applies occupancy changes with
// optimistic concurrency (conditional updates on the slot's version).
type SlotRepository interface {
	CreateMany(ctx context.Context, slots []models.TimeSlot) ([]string, error)
	GetByID(ctx context.Context, slotID string) (*models.TimeSlot, error)
	GetByDate(ctx context.Context, date string) ([]models.TimeSlot, error)
	GetByDateAndService(ctx context.Context, date, serviceType string) ([]models.TimeSlot, error)
	// ReserveSeats adds guestCount to occupiedSeats (setting the private
	// hold when asked) only if the slot's version still equals
	// currentVersion. Returns ErrVersionConflict when another writer got
	// there first.
	ReserveSeats(ctx context.Context, slotID string, guestCount int, private bool, currentVersion int) error
	// ReleaseSeats subtracts guestCount from occupiedSeats, clearing the
	// private hold and never dropping occupancy below zero.
	ReleaseSeats(ctx context.Context, slotID string, guestCount int, private bool) error
	EnsureIndexes() error
}

type mongoSlotRepo struct {
	coll *mongo.Collection
}

// NewMongoSlotRepo constructs a new MongoDB SlotRepository.
func NewMongoSlotRepo() SlotRepository {
	db := database.MongoClient.Database("icehaus")
	return &mongoSlotRepo{
		coll: db.Collection("time_slots"),
	}
}
