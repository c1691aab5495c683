package domain

import "math/rand"

const (
	// CardsPerHand is the number of cards dealt to every player.
	CardsPerHand = 13
	// JokersPerDeck is the number of printed jokers added per deck when enabled.
	JokersPerDeck = 2
	// MinPlayers and MaxPlayers bound the seats a deal supports.
	MinPlayers = 2
	MaxPlayers = 6
)

// NewDeck returns the deterministic unshuffled card set for the given number
// of decks, appending two printed jokers per deck when enabled.
func NewDeck(decks int, printedJokers bool) []Card {
	if decks <= 0 {
		decks = 1
	}
	size := decks * 52
	if printedJokers {
		size += decks * JokersPerDeck
	}
	deck := make([]Card, 0, size)
	for d := 0; d < decks; d++ {
		for _, s := range Suits {
			for r := Rank(0); r < RankCount; r++ {
				deck = append(deck, Card{Suit: s, Rank: r})
			}
		}
	}
	if printedJokers {
		for i := 0; i < decks*JokersPerDeck; i++ {
			deck = append(deck, PrintedJoker())
		}
	}
	return deck
}

// ShuffleDeck returns a seeded Fisher-Yates shuffle of the given deck.
// Identical seeds produce identical orders, which keeps dealt rounds
// replayable for audit.
func ShuffleDeck(deck []Card, seed int64) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// DealResult is the output of dealing a shuffled deck to seated players.
type DealResult struct {
	Hands   map[string][]Card
	Stock   []Card
	Discard []Card // top of the pile is the last element
}

// Deal hands 13 cards round-robin to each player in seating order, leaves the
// remainder as stock, and seeds the discard pile by drawing from stock until a
// non-joker is revealed. Jokers turned over during the reveal stay in the
// discard pile beneath the revealed card rather than returning to stock.
func Deal(playerIDs []string, deck []Card) (*DealResult, error) {
	if len(playerIDs) < MinPlayers || len(playerIDs) > MaxPlayers {
		return nil, Errorf(KindConfig, "player count must be between %d and %d, got %d", MinPlayers, MaxPlayers, len(playerIDs))
	}
	if need := len(playerIDs)*CardsPerHand + 1; len(deck) < need {
		return nil, Errorf(KindConfig, "deck of %d cards cannot deal %d players", len(deck), len(playerIDs))
	}

	hands := make(map[string][]Card, len(playerIDs))
	for _, id := range playerIDs {
		hands[id] = make([]Card, 0, CardsPerHand+1)
	}

	stock := make([]Card, len(deck))
	copy(stock, deck)

	for i := 0; i < CardsPerHand; i++ {
		for _, id := range playerIDs {
			hands[id] = append(hands[id], stock[0])
			stock = stock[1:]
		}
	}

	// Seed the discard pile. Appending keeps revealed jokers beneath the
	// first non-joker, which ends up on top of the pile.
	var discard []Card
	for len(stock) > 0 {
		card := stock[0]
		stock = stock[1:]
		discard = append(discard, card)
		if !card.Joker {
			break
		}
	}

	return &DealResult{Hands: hands, Stock: stock, Discard: discard}, nil
}
