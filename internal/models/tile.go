// internal/models/tile.go
package models

import "fmt"

// MaxPip is the highest pip value on a double-six set.
const MaxPip = 6

// Tile is one physical domino. Two tiles are the same physical tile when they hold
// the same unordered pair of pips, so [3,5] and [5,3] are equal for ownership purposes.
type Tile struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Key returns the canonical (low, high) form of the tile.
func (t Tile) Key() Tile {
	if t.A > t.B {
		return Tile{A: t.B, B: t.A}
	}
	return t
}

// Same reports whether both tiles identify the same physical domino.
func (t Tile) Same(other Tile) bool {
	return t.Key() == other.Key()
}

func (t Tile) IsDouble() bool {
	return t.A == t.B
}

// Pips is the total pip count of the tile, used for hand scoring.
func (t Tile) Pips() int {
	return t.A + t.B
}

// Has reports whether either half of the tile shows v.
func (t Tile) Has(v int) bool {
	return t.A == v || t.B == v
}

// Valid reports whether both halves are in [0, MaxPip].
func (t Tile) Valid() bool {
	return t.A >= 0 && t.A <= MaxPip && t.B >= 0 && t.B <= MaxPip
}

func (t Tile) String() string {
	return fmt.Sprintf("%d|%d", t.A, t.B)
}

// End names one extremity of the line of play.
type End string

const (
	EndLeft  End = "left"
	EndRight End = "right"
)

func (e End) Valid() bool {
	return e == EndLeft || e == EndRight
}

// PlacedTile is a tile as it sits on the board. Left and Right are the pips facing the
// left and right side of the line after orientation. End records the side the tile was
// attached to; it is empty for the opening tile of a round.
type PlacedTile struct {
	Tile  Tile `json:"tile"`
	Left  int  `json:"left"`
	Right int  `json:"right"`
	End   End  `json:"end,omitempty"`
}
