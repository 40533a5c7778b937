package models

// Review is one user's rating of one tour. The (user, tour) pair is unique:
// a second review by the same user on the same tour is rejected as a
// duplicate. Every review mutation triggers a recomputation of the owning
// tour's rating aggregate.
type Review struct {
	Base   `bson:",inline"`
	Review string `json:"review" bson:"review" binding:"required"`
	Rating int    `json:"rating" bson:"rating" binding:"required,min=1,max=5"`
	Tour   string `json:"tour" bson:"tour"`
	User   string `json:"user" bson:"user"`
}

// ReviewUpdate is the partial payload accepted by the review update path.
// The tour and user references are immutable once written.
type ReviewUpdate struct {
	Review *string `json:"review,omitempty" bson:"review,omitempty"`
	Rating *int    `json:"rating,omitempty" bson:"rating,omitempty" binding:"omitempty,min=1,max=5"`
}
