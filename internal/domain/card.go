package domain

import "strconv"

// Suit identifies one of the four French suits. Printed jokers carry no suit.
type Suit string

const (
	Spades   Suit = "S"
	Hearts   Suit = "H"
	Diamonds Suit = "D"
	Clubs    Suit = "C"
)

// Suits lists the four suits in deck-construction order.
var Suits = []Suit{Spades, Hearts, Diamonds, Clubs}

// Rank is the zero-based rank index of a card: A=0, 2=1 .. 10=9, J=10, Q=11, K=12.
type Rank int

const (
	RankAce   Rank = 0
	RankJack  Rank = 10
	RankQueen Rank = 11
	RankKing  Rank = 12

	// RankCount is the number of distinct ranks in a suit.
	RankCount = 13

	// RankNone marks the absent rank of a printed joker.
	RankNone Rank = -1
)

// rankLabels maps rank indexes to their display labels.
var rankLabels = [RankCount]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}

// String returns the display label for the rank ("A", "2".."10", "J", "Q", "K").
func (r Rank) String() string {
	if r < 0 || r >= RankCount {
		return "?"
	}
	return rankLabels[r]
}

// Card is a single playing card. It is an immutable value: printed jokers
// have Joker set and carry neither rank nor suit.
type Card struct {
	Suit  Suit `json:"suit,omitempty"`
	Rank  Rank `json:"rank"`
	Joker bool `json:"joker"` // printed joker
}

// PrintedJoker returns the printed joker card value.
func PrintedJoker() Card {
	return Card{Rank: RankNone, Joker: true}
}

// IsWild reports whether the card counts as a joker under the current table
// rules: printed jokers always, wild-rank cards only once the wild rank is revealed.
func (c Card) IsWild(wildRank Rank, wildRevealed bool) bool {
	if c.Joker {
		return true
	}
	return wildRevealed && c.Rank == wildRank
}

// String renders the card for error messages and logs, e.g. "7H" or "Joker".
func (c Card) String() string {
	if c.Joker {
		return "Joker"
	}
	return c.Rank.String() + string(c.Suit)
}

// CardsString renders a card group as "[7H 8H 9H]" for validation messages.
func CardsString(cards []Card) string {
	out := "["
	for i, c := range cards {
		if i > 0 {
			out += " "
		}
		out += c.String()
	}
	return out + "]"
}

// RemoveCards removes the specified cards from a hand and returns the updated hand.
func RemoveCards(hand []Card, toRemove []Card) []Card {
	if len(toRemove) == 0 || len(hand) == 0 {
		return hand
	}

	removeCounts := make(map[Card]int, len(toRemove))
	for _, card := range toRemove {
		removeCounts[card]++
	}

	updated := make([]Card, 0, len(hand))
	for _, card := range hand {
		if count, ok := removeCounts[card]; ok && count > 0 {
			removeCounts[card] = count - 1
			continue
		}
		updated = append(updated, card)
	}

	return updated
}

// ContainsCards reports whether hand contains every card of subset, counting
// duplicates (multi-deck hands can legitimately hold identical cards).
func ContainsCards(hand []Card, subset []Card) bool {
	counts := make(map[Card]int, len(hand))
	for _, card := range hand {
		counts[card]++
	}
	for _, card := range subset {
		if counts[card] == 0 {
			return false
		}
		counts[card]--
	}
	return true
}

// ParseRank converts a display label back to a rank index. Used by config
// to read the wild joker rank. Returns RankNone for unknown labels.
func ParseRank(label string) Rank {
	for i, l := range rankLabels {
		if l == label {
			return Rank(i)
		}
	}
	if n, err := strconv.Atoi(label); err == nil && n >= 1 && n <= 13 {
		return Rank(n - 1)
	}
	return RankNone
}
