package domain

// OrganizedHand is a best-effort partitioning of a hand into melds plus the
// ungrouped deadwood remainder.
type OrganizedHand struct {
	PureSequences   [][]Card `json:"pure_sequences"`
	ImpureSequences [][]Card `json:"impure_sequences"`
	Sets            [][]Card `json:"sets"`
	Ungrouped       []Card   `json:"ungrouped"`
}

// Organize decomposes a hand into melds following a priority hierarchy:
// pure sequences first, then impure sequences, then sets, with larger melds
// preferred within each pass. The output buckets partition the input multiset
// exactly, and every emitted meld satisfies its category's validator.
//
// This is a greedy heuristic, not a deadwood-minimizing solver: committing to
// the first largest meld found can strand cards a smarter split would have
// grouped. Each pass scans O(C(n,4)+C(n,3)) subsets with n <= 14, which is
// cheap enough for per-declaration use.
func Organize(hand []Card, wildRank Rank, wildRevealed bool) OrganizedHand {
	organized := OrganizedHand{}
	if len(hand) == 0 {
		return organized
	}

	// Working copy of the hand
	pool := make([]Card, len(hand))
	copy(pool, hand)

	organized.PureSequences, pool = extractMelds(pool, func(group []Card) bool {
		return IsPureSequence(group, wildRank, wildRevealed)
	})

	organized.ImpureSequences, pool = extractMelds(pool, func(group []Card) bool {
		return IsSequence(group, wildRank, wildRevealed) && !IsPureSequence(group, wildRank, wildRevealed)
	})

	organized.Sets, pool = extractMelds(pool, IsSet)

	organized.Ungrouped = pool

	return organized
}

// extractMelds repeatedly removes the first valid 4-card, then 3-card, group
// from the pool until no subset satisfies the predicate.
func extractMelds(pool []Card, valid func([]Card) bool) ([][]Card, []Card) {
	var melds [][]Card
	for {
		meld := findFirstMeld(pool, valid)
		if meld == nil {
			break
		}
		melds = append(melds, meld)
		pool = RemoveCards(pool, meld)
	}
	return melds, pool
}

// findFirstMeld scans subsets of the pool in ascending combination-index
// order, 4-card groups before 3-card groups, and returns the first one the
// predicate accepts.
func findFirstMeld(pool []Card, valid func([]Card) bool) []Card {
	for _, size := range []int{4, 3} {
		if len(pool) < size {
			continue
		}
		if meld := findCombination(pool, size, valid); meld != nil {
			return meld
		}
	}
	return nil
}

// findCombination walks all index combinations of the given size in ascending
// order and returns the first accepted group.
func findCombination(pool []Card, size int, valid func([]Card) bool) []Card {
	idx := make([]int, size)
	for i := range idx {
		idx[i] = i
	}
	group := make([]Card, size)
	for {
		for i, j := range idx {
			group[i] = pool[j]
		}
		if valid(group) {
			out := make([]Card, size)
			copy(out, group)
			return out
		}

		// Advance to the next combination in lexicographic order.
		i := size - 1
		for i >= 0 && idx[i] == len(pool)-size+i {
			i--
		}
		if i < 0 {
			return nil
		}
		idx[i]++
		for j := i + 1; j < size; j++ {
			idx[j] = idx[j-1] + 1
		}
	}
}
