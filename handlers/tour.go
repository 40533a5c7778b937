package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"tourify/database/repository"
	"tourify/models"
	tourService "tourify/services/tour"
	"tourify/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Earth radii used to turn a distance into the radians $centerSphere wants.
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
)

// TourHandler serves the tour endpoints.
type TourHandler struct {
	factory *Factory[models.Tour, models.TourUpdate]
	svc     *tourService.Service
}

// NewTourHandler wires the tour CRUD factory and the reporting service.
func NewTourHandler(coll repository.Collection[models.Tour], svc *tourService.Service) *TourHandler {
	factory := &Factory[models.Tour, models.TourUpdate]{
		Coll: coll,
		Name: "tour",
		Scope: func(c *gin.Context) bson.M {
			return bson.M{"secretTour": bson.M{"$ne": true}}
		},
		Sanitize: func(c *gin.Context, tour *models.Tour) {
			tour.Slug = utils.Slugify(tour.Name)
			// Derived fields start from their defaults no matter what the
			// payload claimed.
			tour.RatingsAverage = 0
			tour.RatingsQuantity = 0
			tour.Reviews = nil
		},
		PatchHook: func(patch bson.M) {
			if name, ok := patch["name"].(string); ok {
				patch["slug"] = utils.Slugify(name)
			}
		},
		Lookup: mongo.Pipeline{
			{{Key: "$lookup", Value: bson.M{
				"from":         "reviews",
				"localField":   "id",
				"foreignField": "tour",
				"as":           "reviews",
			}}},
		},
	}
	return &TourHandler{factory: factory, svc: svc}
}

func (h *TourHandler) GetAllTours(c *gin.Context) { h.factory.GetAll(c) }
func (h *TourHandler) GetTour(c *gin.Context)     { h.factory.GetOne(c) }

// CreateTour creates a tour and drops the alias cache.
func (h *TourHandler) CreateTour(c *gin.Context) {
	h.factory.CreateOne(c)
	if len(c.Errors) == 0 {
		h.svc.InvalidateTopTours(c.Request.Context())
	}
}

// UpdateTour updates a tour and drops the alias cache.
func (h *TourHandler) UpdateTour(c *gin.Context) {
	h.factory.UpdateOne(c)
	if len(c.Errors) == 0 {
		h.svc.InvalidateTopTours(c.Request.Context())
	}
}

// DeleteTour removes a tour and drops the alias cache so the deleted tour
// stops being served before the TTL runs out.
func (h *TourHandler) DeleteTour(c *gin.Context) {
	h.factory.DeleteOne(c)
	if len(c.Errors) == 0 {
		h.svc.InvalidateTopTours(c.Request.Context())
	}
}

// GetTopTours serves the top-5-cheap alias through the redis cache.
func (h *TourHandler) GetTopTours(c *gin.Context) {
	tours, err := h.svc.TopTours(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(tours), "data": tours})
}

// GetTourStats serves the per-difficulty statistics aggregation.
func (h *TourHandler) GetTourStats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": stats})
}

// GetMonthlyPlan serves the start-date plan for one year.
func (h *TourHandler) GetMonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		utils.Fail(c, utils.BadRequest("Please provide a valid year"))
		return
	}
	plan, err := h.svc.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(plan), "data": plan})
}

// GetToursWithin serves /tours-within/:distance/center/:latlng/unit/:unit.
func (h *TourHandler) GetToursWithin(c *gin.Context) {
	lat, lng, ok := parseLatLng(c.Param("latlng"))
	if !ok {
		utils.Fail(c, utils.BadRequest("Please provide latitude and longitude in the format lat,lng"))
		return
	}
	distance, err := strconv.ParseFloat(c.Param("distance"), 64)
	if err != nil || distance < 0 {
		utils.Fail(c, utils.BadRequest("Please provide a valid distance"))
		return
	}

	radius := distance / earthRadiusMiles
	if c.Param("unit") == "km" {
		radius = distance / earthRadiusKm
	}

	tours, err := h.svc.Within(c.Request.Context(), lat, lng, radius)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(tours), "data": tours})
}

// GetDistances serves /distances/:latlng/unit/:unit.
func (h *TourHandler) GetDistances(c *gin.Context) {
	lat, lng, ok := parseLatLng(c.Param("latlng"))
	if !ok {
		utils.Fail(c, utils.BadRequest("Please provide latitude and longitude in the format lat,lng"))
		return
	}

	multiplier := 0.000621371 // meters to miles
	if c.Param("unit") == "km" {
		multiplier = 0.001
	}

	distances, err := h.svc.Distances(c.Request.Context(), lat, lng, multiplier)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": distances})
}

func parseLatLng(raw string) (lat, lng float64, ok bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLng != nil {
		return 0, 0, false
	}
	return lat, lng, true
}
