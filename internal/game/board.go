// internal/game/board.go
package game

import "github.com/jason-s-yu/domino/internal/models"

// Board is the line of play. It is the only record of the open ends.
type Board struct {
	tiles []models.PlacedTile
}

func NewBoard() *Board {
	return &Board{}
}

// Tiles returns a copy of the line from left to right.
func (b *Board) Tiles() []models.PlacedTile {
	out := make([]models.PlacedTile, len(b.tiles))
	copy(out, b.tiles)
	return out
}

func (b *Board) Len() int {
	return len(b.tiles)
}

func (b *Board) Empty() bool {
	return len(b.tiles) == 0
}

// Ends returns the exposed pip at each extremity. ok is false on an empty board.
func (b *Board) Ends() (left, right int, ok bool) {
	if len(b.tiles) == 0 {
		return 0, 0, false
	}
	return b.tiles[0].Left, b.tiles[len(b.tiles)-1].Right, true
}

// End returns the exposed pip of one extremity.
func (b *Board) End(end models.End) (int, bool) {
	left, right, ok := b.Ends()
	if !ok {
		return 0, false
	}
	if end == models.EndLeft {
		return left, true
	}
	return right, true
}

// CanPlay reports whether t may be attached at end. Any tile opens an empty board.
func (b *Board) CanPlay(t models.Tile, end models.End) bool {
	if !end.Valid() || !t.Valid() {
		return false
	}
	v, ok := b.End(end)
	if !ok {
		return true
	}
	return t.Has(v)
}

// CanPlayAnywhere reports whether t fits at either end.
func (b *Board) CanPlayAnywhere(t models.Tile) bool {
	return b.CanPlay(t, models.EndLeft) || b.CanPlay(t, models.EndRight)
}

// Place attaches t at end. The pip matching the open value faces its neighbour and
// the other pip becomes the new open value. The opening tile keeps the orientation given.
func (b *Board) Place(t models.Tile, end models.End) (models.PlacedTile, error) {
	if !b.CanPlay(t, end) {
		return models.PlacedTile{}, ErrIllegalMove
	}

	if b.Empty() {
		p := models.PlacedTile{Tile: t, Left: t.A, Right: t.B}
		b.tiles = append(b.tiles, p)
		return p, nil
	}

	v, _ := b.End(end)
	hidden, exposed := t.A, t.B
	if t.A != v {
		hidden, exposed = t.B, t.A
	}

	p := models.PlacedTile{Tile: t, End: end}
	if end == models.EndLeft {
		p.Left, p.Right = exposed, hidden
		b.tiles = append([]models.PlacedTile{p}, b.tiles...)
	} else {
		p.Left, p.Right = hidden, exposed
		b.tiles = append(b.tiles, p)
	}
	return p, nil
}
