package domain

// MeldType tags a validated card group.
type MeldType string

const (
	MeldPureSequence MeldType = "pure_sequence"
	MeldSequence     MeldType = "sequence"
	MeldSet          MeldType = "set"
)

// IsSequence reports whether the cards form a run of one suit. Printed jokers,
// and wild-rank cards once the wild rank is revealed, may substitute for any
// missing rank inside the run. At least two natural cards are required to
// anchor it, and the Ace may sit either low (A-2-3) or high across the
// wraparound (Q-K-A, K-A-2).
func IsSequence(cards []Card, wildRank Rank, wildRevealed bool) bool {
	if len(cards) < 3 {
		return false
	}

	var naturals []Card
	for _, c := range cards {
		if !c.IsWild(wildRank, wildRevealed) {
			naturals = append(naturals, c)
		}
	}
	if len(naturals) < 2 {
		return false
	}

	suit := naturals[0].Suit
	for _, c := range naturals[1:] {
		if c.Suit != suit {
			return false
		}
	}

	ranks := make([]Rank, len(naturals))
	for i, c := range naturals {
		ranks[i] = c.Rank
	}
	return fitsWindow(ranks, len(cards))
}

// fitsWindow reports whether the ranks are pairwise distinct and fit inside a
// window no larger than the group size. Windows may cross the Ace boundary,
// which is what admits Q-K-A and K-A-2 runs.
func fitsWindow(ranks []Rank, size int) bool {
	seen := make(map[Rank]bool, len(ranks))
	for _, r := range ranks {
		if seen[r] {
			return false
		}
		seen[r] = true
	}

	for start := 0; start < RankCount; start++ {
		inside := 0
		for _, r := range ranks {
			offset := (int(r) - start + RankCount) % RankCount
			if offset < size {
				inside++
			}
		}
		if inside == len(ranks) {
			return true
		}
	}
	return false
}

// IsPureSequence reports whether the cards form a sequence without any joker
// substitution. Printed jokers disqualify outright. A wild-rank card is
// tolerated only when it occupies its own face position: same suit as the run
// and raw ranks, wild included, forming one contiguous run. An off-suit wild
// card, or one covering a rank gap, is substituting and makes the sequence
// impure.
func IsPureSequence(cards []Card, wildRank Rank, wildRevealed bool) bool {
	for _, c := range cards {
		if c.Joker {
			return false
		}
	}
	if !IsSequence(cards, wildRank, wildRevealed) {
		return false
	}

	suit := cards[0].Suit
	raw := make([]Rank, len(cards))
	for i, c := range cards {
		if c.Suit != suit {
			return false
		}
		raw[i] = c.Rank
	}
	// Distinct ranks fitting a window of exactly the group size means the
	// run is gap-free.
	return fitsWindow(raw, len(raw))
}

// IsSet reports whether the cards form a set: 3 or 4 cards of a single rank
// with pairwise-distinct suits, printed jokers filling the remaining slots.
func IsSet(cards []Card) bool {
	if len(cards) < 3 || len(cards) > 4 {
		return false
	}

	var naturals []Card
	for _, c := range cards {
		if !c.Joker {
			naturals = append(naturals, c)
		}
	}
	if len(naturals) == 0 {
		return false
	}

	rank := naturals[0].Rank
	suits := make(map[Suit]bool, len(naturals))
	for _, c := range naturals {
		if c.Rank != rank {
			return false
		}
		if suits[c.Suit] {
			return false
		}
		suits[c.Suit] = true
	}
	return true
}

// ClassifyMeld returns the strongest type the group satisfies, preferring
// pure sequence over sequence over set. The boolean is false when the group
// is not a valid meld of any type.
func ClassifyMeld(cards []Card, wildRank Rank, wildRevealed bool) (MeldType, bool) {
	switch {
	case IsPureSequence(cards, wildRank, wildRevealed):
		return MeldPureSequence, true
	case IsSequence(cards, wildRank, wildRevealed):
		return MeldSequence, true
	case IsSet(cards):
		return MeldSet, true
	}
	return "", false
}

// CheckDeclaration validates a full 13-card declaration and returns a typed
// rejection for the first violation found: every meld must be a sequence or a
// set of at least 3 cards, the melds must cover exactly 13 cards, at least one
// meld must be a pure sequence, and there must be at least two melds.
func CheckDeclaration(melds [][]Card, wildRank Rank, wildRevealed bool) error {
	total := 0
	havePure := false
	for _, m := range melds {
		if len(m) < 3 {
			return Errorf(KindMeld, "group %s needs at least 3 cards", CardsString(m))
		}
		seq := IsSequence(m, wildRank, wildRevealed)
		if !seq && !IsSet(m) {
			return Errorf(KindMeld, "group %s is neither a sequence nor a set", CardsString(m))
		}
		if seq && IsPureSequence(m, wildRank, wildRevealed) {
			havePure = true
		}
		total += len(m)
	}
	if total != CardsPerHand {
		return Errorf(KindShape, "melds must cover exactly %d cards, got %d", CardsPerHand, total)
	}
	if !havePure {
		return Errorf(KindRule, "at least one pure sequence is required")
	}
	if len(melds) < 2 {
		return Errorf(KindRule, "at least 2 melds are required")
	}
	return nil
}

// ValidateHand is the (ok, reason) form of CheckDeclaration. On success the
// reason is "Valid hand"; on failure it is the first violation's reason.
func ValidateHand(melds [][]Card, wildRank Rank, wildRevealed bool) (bool, string) {
	if err := CheckDeclaration(melds, wildRank, wildRevealed); err != nil {
		return false, ReasonOf(err)
	}
	return true, "Valid hand"
}
