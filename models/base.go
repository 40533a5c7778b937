package models

import "time"

// Base carries the server-assigned identity and timestamps shared by every
// persisted document. The id is a UUID string assigned on create.
type Base struct {
	ID        string    `json:"id" bson:"id"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// SetID assigns the document id. Called by the repository on create.
func (b *Base) SetID(id string) {
	b.ID = id
}

// Touch stamps creation and update times.
func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}
