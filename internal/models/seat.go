// internal/models/seat.go
package models

import "github.com/google/uuid"

// Seat is a fixed player slot within one match. Index never changes once the
// match has been created.
type Seat struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Index     int       `json:"index"`
	Connected bool      `json:"connected"`
}
