package domain

const (
	// DeadwoodCap bounds any hand's counted points.
	DeadwoodCap = 80
	// DropPenalty is added to a player's cumulative score for dropping
	// before their first draw of the round.
	DropPenalty = 20
	// DisconnectPenalty is added once per disconnect event, in any phase.
	DisconnectPenalty = 60
	// FaceCardPoints is the value of 10s and court cards.
	FaceCardPoints = 10
)

// CardPoints returns the point value of a single card: J/Q/K/10 count 10,
// 2 through 9 their face value, the Ace the configured aceValue (1 or 10),
// and printed jokers 0.
func CardPoints(c Card, aceValue int) int {
	switch {
	case c.Joker:
		return 0
	case c.Rank == RankAce:
		return aceValue
	case c.Rank >= Rank(9): // 10, J, Q, K
		return FaceCardPoints
	default:
		return int(c.Rank) + 1
	}
}

// NaiveHandPoints sums the point value of every card in the hand, capped at
// the deadwood cap. It is a rough pre-validation estimate, not the
// authoritative deadwood score.
func NaiveHandPoints(hand []Card, aceValue int) int {
	total := 0
	for _, c := range hand {
		total += CardPoints(c, aceValue)
	}
	return capPoints(total)
}

// DeadwoodPoints scores only the ungrouped remainder of a hand, with wild
// jokers counting zero alongside printed jokers, capped at the deadwood cap.
func DeadwoodPoints(ungrouped []Card, wildRank Rank, wildRevealed bool, aceValue int) int {
	total := 0
	for _, c := range ungrouped {
		if c.IsWild(wildRank, wildRevealed) {
			continue
		}
		total += CardPoints(c, aceValue)
	}
	return capPoints(total)
}

func capPoints(points int) int {
	if points > DeadwoodCap {
		return DeadwoodCap
	}
	return points
}
