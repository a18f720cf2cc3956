// internal/game/rules.go
package game

import "github.com/jason-s-yu/domino/internal/models"

// TargetScore ends the match once any seat's cumulative score reaches it.
const TargetScore = 100

// StartingSeat picks who opens a round. A seeded override (the winner of a blocked
// round) always leads. Otherwise the holder of the highest double leads, scanning
// [6,6] down to [0,0], and seat 0 leads when nobody holds a double.
func StartingSeat(hands [][]models.Tile, override *int) int {
	if override != nil && *override >= 0 && *override < len(hands) {
		return *override
	}
	for v := models.MaxPip; v >= 0; v-- {
		double := models.Tile{A: v, B: v}
		for seat, hand := range hands {
			if holds(hand, double) {
				return seat
			}
		}
	}
	return 0
}

// HasLegalMove reports whether any tile of the hand fits the board.
func HasLegalMove(hand []models.Tile, board *Board) bool {
	for _, t := range hand {
		if board.CanPlayAnywhere(t) {
			return true
		}
	}
	return false
}

// IsBlocked reports a "short": the boneyard is empty and no seat can play.
func IsBlocked(hands [][]models.Tile, boneyard []models.Tile, board *Board) bool {
	if len(boneyard) > 0 || board.Empty() {
		return false
	}
	for _, hand := range hands {
		if HasLegalMove(hand, board) {
			return false
		}
	}
	return true
}

// PipSums returns each hand's pip total.
func PipSums(hands [][]models.Tile) []int {
	sums := make([]int, len(hands))
	for i, h := range hands {
		sums[i] = pipSum(h)
	}
	return sums
}

// ScoreRound is winner-take-all: the winner receives the pip totals of every other
// hand, its own pips are not counted, and every other seat scores 0.
func ScoreRound(pipSums []int, winner int) []int {
	scores := make([]int, len(pipSums))
	for seat, sum := range pipSums {
		if seat != winner {
			scores[winner] += sum
		}
	}
	return scores
}

// lowestIndex returns the index of the smallest value, ties going to the lowest index.
func lowestIndex(values []int) int {
	best := 0
	for i, v := range values {
		if v < values[best] {
			best = i
		}
	}
	return best
}

// BlockWinner is the seat with the lowest remaining pip total.
func BlockWinner(pipSums []int) int {
	return lowestIndex(pipSums)
}

// MatchWinner is the seat with the lowest cumulative score. Reaching the target
// ends the match but the lowest total wins it.
func MatchWinner(scores []int) int {
	return lowestIndex(scores)
}

// ReachedTarget reports whether any cumulative score is at or past TargetScore.
func ReachedTarget(scores []int) bool {
	for _, s := range scores {
		if s >= TargetScore {
			return true
		}
	}
	return false
}
