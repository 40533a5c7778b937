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

// RatingStats is the aggregate over all reviews of one tour.
type RatingStats struct {
	AvgRating  float64 `bson:"avgRating"`
	NumRatings int     `bson:"numRatings"`
}

// ReviewStatsSource computes the rating aggregate for a tour. Implemented by
// ReviewRepo with a server-side aggregation; faked in tests.
type ReviewStatsSource interface {
	RatingStats(ctx context.Context, tourID string) (RatingStats, error)
}

// ReviewRepo stores reviews. The unique (user, tour) index enforces one
// review per user per tour.
type ReviewRepo struct {
	*Mongo[models.Review]
	coll *mongo.Collection
}

// NewReviewRepo creates the review repository and ensures its indexes.
func NewReviewRepo() *ReviewRepo {
	coll := database.Collection("reviews")
	repo := &ReviewRepo{
		Mongo: NewMongo[models.Review](coll, "tour", "user"),
		coll:  coll,
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("failed to create review indexes: %v", err)
	}
	return repo
}

func (r *ReviewRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "tour", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tour", Value: 1}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// RatingStats computes count and mean rating over all reviews of a tour as
// a single server-side aggregation. A tour with no reviews yields the zero
// stats value.
func (r *ReviewRepo) RatingStats(ctx context.Context, tourID string) (RatingStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tour": tourID}}},
		{{Key: "$group", Value: bson.M{
			"_id":        "$tour",
			"numRatings": bson.M{"$sum": 1},
			"avgRating":  bson.M{"$avg": "$rating"},
		}}},
	}

	var results []RatingStats
	if err := r.Aggregate(ctx, pipeline, &results); err != nil {
		return RatingStats{}, fmt.Errorf("failed to aggregate ratings for tour %s: %w", tourID, err)
	}
	if len(results) == 0 {
		return RatingStats{}, nil
	}
	return results[0], nil
}
