package repository

import (
	"context"
	"fmt"
	"time"

	"tourify/database"
	"tourify/models"
	"tourify/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BookingRepo stores bookings.
type BookingRepo struct {
	*Mongo[models.Booking]
	coll *mongo.Collection
}

// NewBookingRepo creates the booking repository and ensures its indexes.
func NewBookingRepo() *BookingRepo {
	coll := database.Collection("bookings")
	repo := &BookingRepo{
		Mongo: NewMongo[models.Booking](coll, "tour", "user"),
		coll:  coll,
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("failed to create booking indexes: %v", err)
	}
	return repo
}

func (r *BookingRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tour", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}
