package models

// Booking records a purchased tour. It is created either directly by an
// admin or by the Stripe webhook after a confirmed payment.
type Booking struct {
	Base  `bson:",inline"`
	Tour  string  `json:"tour" bson:"tour" binding:"required"`
	User  string  `json:"user" bson:"user" binding:"required"`
	Price float64 `json:"price" bson:"price" binding:"required,gt=0"`
	Paid  bool    `json:"paid" bson:"paid"`
}

// BookingUpdate is the partial payload accepted by the admin booking update path.
type BookingUpdate struct {
	Price *float64 `json:"price,omitempty" bson:"price,omitempty" binding:"omitempty,gt=0"`
	Paid  *bool    `json:"paid,omitempty" bson:"paid,omitempty"`
}
