// internal/game/tiles.go
package game

import (
	"math/rand"
	"time"

	"github.com/jason-s-yu/domino/internal/models"
)

const (
	// HandSize is the number of tiles dealt to every seat.
	HandSize = 7
	MinSeats = 2
	MaxSeats = 4
)

// FullSet returns the 28 tiles of a double-six set in canonical order.
func FullSet() []models.Tile {
	set := make([]models.Tile, 0, 28)
	for i := 0; i <= models.MaxPip; i++ {
		for j := i; j <= models.MaxPip; j++ {
			set = append(set, models.Tile{A: i, B: j})
		}
	}
	return set
}

// ValidSeatCount reports whether n seats can be dealt a full hand each.
func ValidSeatCount(n int) bool {
	return n >= MinSeats && n <= MaxSeats
}

// Deal shuffles a fresh set and hands out HandSize tiles per seat, round-robin.
// The tiles left over form the boneyard. Nothing outside the returned slices is touched.
func Deal(seatCount int, rng *rand.Rand) ([][]models.Tile, []models.Tile, error) {
	if !ValidSeatCount(seatCount) {
		return nil, nil, ErrInvalidSeatCount
	}
	if rng == nil {
		rng = newRand()
	}

	tiles := FullSet()
	rng.Shuffle(len(tiles), func(i, j int) {
		tiles[i], tiles[j] = tiles[j], tiles[i]
	})

	hands := make([][]models.Tile, seatCount)
	for i := range hands {
		hands[i] = make([]models.Tile, 0, HandSize)
	}
	dealt := HandSize * seatCount
	for i := 0; i < dealt; i++ {
		hands[i%seatCount] = append(hands[i%seatCount], tiles[i])
	}

	boneyard := make([]models.Tile, len(tiles)-dealt)
	copy(boneyard, tiles[dealt:])
	return hands, boneyard, nil
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
