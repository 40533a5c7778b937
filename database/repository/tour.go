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

// TourRepo stores tours. Beyond the generic collection surface it owns the
// direct write path for the derived rating fields and the reporting/geo
// aggregations.
type TourRepo struct {
	*Mongo[models.Tour]
	coll *mongo.Collection
}

// NewTourRepo creates the tour repository and ensures its indexes.
func NewTourRepo() *TourRepo {
	coll := database.Collection("tours")
	repo := &TourRepo{
		Mongo: NewMongo[models.Tour](coll, "ratingsAverage", "ratingsQuantity"),
		coll:  coll,
	}
	if err := repo.ensureIndexes(); err != nil {
		utils.GetLogger().Sugar().Warnf("failed to create tour indexes: %v", err)
	}
	return repo
}

func (r *TourRepo) ensureIndexes() error {
	ctx, cancel := newContext(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "price", Value: 1}, {Key: "ratingsAverage", Value: -1}}},
		{Keys: bson.D{{Key: "startLocation", Value: "2dsphere"}}},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// SetRatingStats writes the derived rating aggregate onto a tour. This is
// the only write path for those fields; the generic update strips them.
func (r *TourRepo) SetRatingStats(ctx context.Context, tourID string, avg float64, quantity int) error {
	ctx, cancel := newContext(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"ratingsAverage":  avg,
		"ratingsQuantity": quantity,
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"id": tourID}, update)
	if err != nil {
		return fmt.Errorf("failed to set rating stats for tour %s: %w", tourID, err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats groups non-secret tours by difficulty with rating and price summaries.
func (r *TourRepo) Stats(ctx context.Context) ([]models.TourStats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"secretTour": bson.M{"$ne": true}, "ratingsAverage": bson.M{"$gte": 0}}}},
		{{Key: "$group", Value: bson.M{
			"_id":        bson.M{"$toLower": "$difficulty"},
			"numTours":   bson.M{"$sum": 1},
			"numRatings": bson.M{"$sum": "$ratingsQuantity"},
			"avgRating":  bson.M{"$avg": "$ratingsAverage"},
			"avgPrice":   bson.M{"$avg": "$price"},
			"minPrice":   bson.M{"$min": "$price"},
			"maxPrice":   bson.M{"$max": "$price"},
		}}},
		{{Key: "$sort", Value: bson.M{"avgPrice": 1}}},
	}

	var stats []models.TourStats
	if err := r.Aggregate(ctx, pipeline, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// MonthlyPlan unwinds tour start dates within a year into per-month counts.
func (r *TourRepo) MonthlyPlan(ctx context.Context, year int) ([]models.MonthlyPlanEntry, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)

	pipeline := mongo.Pipeline{
		{{Key: "$unwind", Value: "$startDates"}},
		{{Key: "$match", Value: bson.M{"startDates": bson.M{"$gte": from, "$lte": to}}}},
		{{Key: "$group", Value: bson.M{
			"_id":           bson.M{"$month": "$startDates"},
			"numTourStarts": bson.M{"$sum": 1},
			"tours":         bson.M{"$push": "$name"},
		}}},
		{{Key: "$addFields", Value: bson.M{"month": "$_id"}}},
		{{Key: "$project", Value: bson.M{"_id": 0}}},
		{{Key: "$sort", Value: bson.M{"numTourStarts": -1}}},
	}

	var plan []models.MonthlyPlanEntry
	if err := r.Aggregate(ctx, pipeline, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Within finds tours whose start location lies inside a sphere of the given
// radius (in radians) around the center point.
func (r *TourRepo) Within(ctx context.Context, lat, lng, radius float64) ([]models.Tour, error) {
	ctx, cancel := newContext(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{"startLocation": bson.M{
		"$geoWithin": bson.M{"$centerSphere": bson.A{bson.A{lng, lat}, radius}},
	}}

	cursor, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to run geo query: %w", err)
	}
	defer cursor.Close(ctx)

	tours := []models.Tour{}
	if err := cursor.All(ctx, &tours); err != nil {
		return nil, fmt.Errorf("failed to decode tours: %w", err)
	}
	return tours, nil
}

// Distances computes the distance from a point to every tour start location.
// The multiplier converts meters to the caller's unit.
func (r *TourRepo) Distances(ctx context.Context, lat, lng, multiplier float64) ([]models.TourDistance, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.M{
			"near":               bson.M{"type": "Point", "coordinates": bson.A{lng, lat}},
			"distanceField":      "distance",
			"distanceMultiplier": multiplier,
		}}},
		{{Key: "$project", Value: bson.M{"id": 1, "name": 1, "distance": 1}}},
	}

	var distances []models.TourDistance
	if err := r.Aggregate(ctx, pipeline, &distances); err != nil {
		return nil, err
	}
	return distances, nil
}
