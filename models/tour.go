package models

import "time"

// Location is a GeoJSON point with tour-facing metadata.
type Location struct {
	Type        string    `json:"type" bson:"type"`
	Coordinates []float64 `json:"coordinates" bson:"coordinates"`
	Address     string    `json:"address,omitempty" bson:"address,omitempty"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Day         int       `json:"day,omitempty" bson:"day,omitempty"`
}

// Tour is a bookable tour. RatingsAverage and RatingsQuantity are derived
// from reviews and must never be written through the generic update path;
// the rating aggregator owns them.
type Tour struct {
	Base            `bson:",inline"`
	Name            string      `json:"name" bson:"name" binding:"required,min=10,max=40"`
	Slug            string      `json:"slug" bson:"slug"`
	Duration        int         `json:"duration" bson:"duration" binding:"required,gt=0"`
	MaxGroupSize    int         `json:"maxGroupSize" bson:"maxGroupSize" binding:"required,gt=0"`
	Difficulty      string      `json:"difficulty" bson:"difficulty" binding:"required,oneof=easy medium difficult"`
	RatingsAverage  float64     `json:"ratingsAverage" bson:"ratingsAverage"`
	RatingsQuantity int         `json:"ratingsQuantity" bson:"ratingsQuantity"`
	Price           float64     `json:"price" bson:"price" binding:"required,gt=0"`
	PriceDiscount   float64     `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty" binding:"omitempty,gt=0"`
	Summary         string      `json:"summary" bson:"summary" binding:"required"`
	Description     string      `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover      string      `json:"imageCover,omitempty" bson:"imageCover,omitempty"`
	Images          []string    `json:"images,omitempty" bson:"images,omitempty"`
	StartDates      []time.Time `json:"startDates,omitempty" bson:"startDates,omitempty"`
	StartLocation   *Location   `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations       []Location  `json:"locations,omitempty" bson:"locations,omitempty"`
	SecretTour      bool        `json:"secretTour,omitempty" bson:"secretTour"`

	// Reviews is populated by a $lookup on single-tour reads; it is never
	// stored on the tour document itself.
	Reviews []Review `json:"reviews,omitempty" bson:"reviews,omitempty"`
}

// TourUpdate is the partial payload accepted by the tour update path.
// Derived rating fields are deliberately absent.
type TourUpdate struct {
	Name          *string     `json:"name,omitempty" bson:"name,omitempty" binding:"omitempty,min=10,max=40"`
	Duration      *int        `json:"duration,omitempty" bson:"duration,omitempty" binding:"omitempty,gt=0"`
	MaxGroupSize  *int        `json:"maxGroupSize,omitempty" bson:"maxGroupSize,omitempty" binding:"omitempty,gt=0"`
	Difficulty    *string     `json:"difficulty,omitempty" bson:"difficulty,omitempty" binding:"omitempty,oneof=easy medium difficult"`
	Price         *float64    `json:"price,omitempty" bson:"price,omitempty" binding:"omitempty,gt=0"`
	PriceDiscount *float64    `json:"priceDiscount,omitempty" bson:"priceDiscount,omitempty" binding:"omitempty,gt=0"`
	Summary       *string     `json:"summary,omitempty" bson:"summary,omitempty"`
	Description   *string     `json:"description,omitempty" bson:"description,omitempty"`
	ImageCover    *string     `json:"imageCover,omitempty" bson:"imageCover,omitempty"`
	Images        []string    `json:"images,omitempty" bson:"images,omitempty"`
	StartDates    []time.Time `json:"startDates,omitempty" bson:"startDates,omitempty"`
	StartLocation *Location   `json:"startLocation,omitempty" bson:"startLocation,omitempty"`
	Locations     []Location  `json:"locations,omitempty" bson:"locations,omitempty"`
	SecretTour    *bool       `json:"secretTour,omitempty" bson:"secretTour,omitempty"`
}
