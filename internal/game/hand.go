// internal/game/hand.go
package game

import (
	"math/rand"

	"github.com/jason-s-yu/domino/internal/models"
)

// holds reports whether the hand owns the physical tile t.
func holds(hand []models.Tile, t models.Tile) bool {
	for _, h := range hand {
		if h.Same(t) {
			return true
		}
	}
	return false
}

// removeTile returns the hand without t. The second return is false when t was not held.
func removeTile(hand []models.Tile, t models.Tile) ([]models.Tile, bool) {
	for i, h := range hand {
		if h.Same(t) {
			out := make([]models.Tile, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			out = append(out, hand[i+1:]...)
			return out, true
		}
	}
	return hand, false
}

func pipSum(hand []models.Tile) int {
	sum := 0
	for _, t := range hand {
		sum += t.Pips()
	}
	return sum
}

// drawRandom picks a tile uniformly from the boneyard. The boneyard is unordered,
// so the last tile is swapped into the hole instead of shifting.
func drawRandom(boneyard []models.Tile, rng *rand.Rand) (models.Tile, []models.Tile) {
	i := rng.Intn(len(boneyard))
	t := boneyard[i]
	last := len(boneyard) - 1
	rest := make([]models.Tile, last)
	copy(rest, boneyard[:last])
	if i != last {
		rest[i] = boneyard[last]
	}
	return t, rest
}

func cloneTiles(tiles []models.Tile) []models.Tile {
	out := make([]models.Tile, len(tiles))
	copy(out, tiles)
	return out
}

func cloneHands(hands [][]models.Tile) [][]models.Tile {
	out := make([][]models.Tile, len(hands))
	for i, h := range hands {
		out[i] = cloneTiles(h)
	}
	return out
}
