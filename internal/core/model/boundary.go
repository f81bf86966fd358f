package model

import (
	"errors"
	"time"

	"trackmate/internal/core/util"
)

// BoundaryVertexCount is fixed by the drawing flow: the user places four
// markers and the polygon closes back to the first one.
const BoundaryVertexCount = 4

var ErrBoundaryVertices = errors.New("boundary requires exactly 4 vertices")

// LatLng is a bare coordinate pair used by boundary vertices.
type LatLng struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Boundary is a user-drawn quadrilateral safe zone. Vertices are stored in
// click order; no simplicity check is enforced by construction.
type Boundary struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userid"`
	Vertices  []LatLng  `json:"vertices" bson:"vertices"`
	CreatedAt time.Time `json:"createdAt" bson:"createdat"`
}

func NewBoundary(userID string, vertices []LatLng) (*Boundary, error) {
	if len(vertices) != BoundaryVertexCount {
		return nil, ErrBoundaryVertices
	}
	b := &Boundary{
		ID:        util.GenerateID(),
		UserID:    userID,
		Vertices:  make([]LatLng, BoundaryVertexCount),
		CreatedAt: time.Now().UTC(),
	}
	copy(b.Vertices, vertices)
	return b, nil
}
