package app

import (
	"rummy/internal/domain"
)

// Rules carries the table-rule knobs the engine consults on every action.
// Zero values are normalized by NewService. The penalty fields are pointers
// so a deliberate zero-penalty table stays distinguishable from an unset one.
type Rules struct {
	Decks               int
	PrintedJokers       bool
	AceValue            int
	WildJokerRank       domain.Rank
	WildRevealed        bool
	DrawFromDiscard     bool
	DropPenalty         *int // nil means the standard penalty
	DisconnectPenalty   *int // nil means the standard penalty
	DisqualifyThreshold int
}

// Service contains the round use-cases operating on table state. Every
// mutating method holds the table's action lock for its full duration, so
// concurrent client requests serialize into whole actions.
type Service struct {
	rules             Rules
	dropPenalty       int
	disconnectPenalty int
}

// NewService constructs a Service, filling unset rule fields with defaults.
func NewService(rules Rules) *Service {
	if rules.Decks <= 0 {
		rules.Decks = 2
	}
	if rules.AceValue != 1 && rules.AceValue != 10 {
		rules.AceValue = 10
	}
	if rules.DisqualifyThreshold <= 0 {
		rules.DisqualifyThreshold = domain.DefaultDisqualifyThreshold
	}

	s := &Service{rules: rules, dropPenalty: domain.DropPenalty, disconnectPenalty: domain.DisconnectPenalty}
	if rules.DropPenalty != nil {
		s.dropPenalty = *rules.DropPenalty
	}
	if rules.DisconnectPenalty != nil {
		s.disconnectPenalty = *rules.DisconnectPenalty
	}
	return s
}

// Rules returns the normalized rule set the service runs under.
func (s *Service) Rules() Rules {
	return s.rules
}

// StartRound deals a fresh round for every non-eliminated seat. The seed
// makes the shuffle, and therefore the whole round, replayable.
func (s *Service) StartRound(t *domain.Table, seed int64) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	if t.Round != nil && !t.Round.Phase.Terminal() {
		return nil, domain.Errorf(domain.KindState, "a round is already in progress")
	}

	seats := t.ActiveSeats()
	deck := domain.NewDeck(s.rules.Decks, s.rules.PrintedJokers)
	dealt, err := domain.Deal(seats, domain.ShuffleDeck(deck, seed))
	if err != nil {
		return nil, err
	}

	t.RoundNumber++

	players := make(map[string]*domain.PlayerRoundStatus, len(seats))
	for _, id := range seats {
		players[id] = &domain.PlayerRoundStatus{UserID: id, Hand: dealt.Hands[id]}
	}

	round := &domain.RoundState{
		RoundNumber:   t.RoundNumber,
		Phase:         domain.PhaseAwaitingDraw,
		Stock:         dealt.Stock,
		Discard:       dealt.Discard,
		Seats:         seats,
		TurnIndex:     (t.RoundNumber - 1) % len(seats), // rotate the opening turn
		Players:       players,
		WildJokerRank: s.rules.WildJokerRank,
		WildRevealed:  s.rules.WildRevealed,
		DeckSize:      len(deck),
	}
	t.Round = round

	discardTop, _ := round.DiscardTop()
	wildLabel := ""
	if s.rules.WildRevealed {
		wildLabel = s.rules.WildJokerRank.String()
	}

	events := make([]Event, 0, len(seats)+2)
	events = append(events, Event{
		Kind: EventRoundStarted,
		Payload: RoundStartedPayload{
			RoundNumber:   round.RoundNumber,
			Seats:         seats,
			StockCount:    len(round.Stock),
			DiscardTop:    discardTop,
			WildJokerRank: wildLabel,
		},
	})
	for _, id := range seats {
		events = append(events, Event{
			Kind:       EventHandDealt,
			Payload:    HandDealtPayload{UserID: id, Hand: players[id].Hand},
			Recipients: []string{id},
		})
	}
	events = append(events, Event{
		Kind:    EventTurnAdvanced,
		Payload: TurnAdvancedPayload{ActivePlayerID: round.ActivePlayerID()},
	})
	return events, nil
}

// Draw moves one card from the stock, or the discard top when table rules
// permit, into the active player's hand. Drawing from an empty stock aborts
// the round.
func (s *Service) Draw(t *domain.Table, userID string, fromDiscard bool) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	round, ps, err := s.requireTurn(t, userID, domain.PhaseAwaitingDraw)
	if err != nil {
		return nil, err
	}

	var card domain.Card
	if fromDiscard {
		if !s.rules.DrawFromDiscard {
			return nil, domain.Errorf(domain.KindRule, "drawing from the discard pile is not allowed at this table")
		}
		top, ok := round.DiscardTop()
		if !ok {
			return nil, domain.Errorf(domain.KindRule, "the discard pile is empty")
		}
		card = top
		round.Discard = round.Discard[:len(round.Discard)-1]
	} else {
		if len(round.Stock) == 0 {
			round.Phase = domain.PhaseAborted
			return []Event{{
				Kind:    EventRoundAborted,
				Payload: RoundAbortedPayload{RoundNumber: round.RoundNumber, Reason: "stock exhausted"},
			}}, nil
		}
		card = round.Stock[0]
		round.Stock = round.Stock[1:]
	}

	ps.Hand = append(ps.Hand, card)
	ps.HasDrawn = true
	round.Phase = domain.PhaseAwaitingDiscard

	return []Event{{
		Kind:       EventCardDrawn,
		Payload:    CardDrawnPayload{UserID: userID, Card: card, FromDiscard: fromDiscard, StockCount: len(round.Stock)},
		Recipients: []string{userID},
	}}, nil
}

// Discard removes the given card from the active player's hand onto the
// discard pile and advances the turn to the next live player.
func (s *Service) Discard(t *domain.Table, userID string, card domain.Card) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	round, ps, err := s.requireTurn(t, userID, domain.PhaseAwaitingDiscard)
	if err != nil {
		return nil, err
	}

	if !domain.ContainsCards(ps.Hand, []domain.Card{card}) {
		return nil, domain.Errorf(domain.KindRule, "card %s is not in your hand", card)
	}

	ps.Hand = domain.RemoveCards(ps.Hand, []domain.Card{card})
	ps.HasDrawn = false
	round.Discard = append(round.Discard, card)
	round.Phase = domain.PhaseAwaitingDraw
	next := round.AdvanceTurn()

	return []Event{
		{Kind: EventCardDiscarded, Payload: CardDiscardedPayload{UserID: userID, Card: card}},
		{Kind: EventTurnAdvanced, Payload: TurnAdvancedPayload{ActivePlayerID: next}},
	}, nil
}

// LockMelds stores an advisory grouping for the player without ending the
// round. The grouping is not validated against meld rules; it only has to be
// made of cards the player actually holds.
func (s *Service) LockMelds(t *domain.Table, userID string, melds [][]domain.Card) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	round := t.Round
	if round == nil || round.Phase.Terminal() {
		return nil, domain.Errorf(domain.KindState, "no open round")
	}
	ps := round.Player(userID)
	if ps == nil {
		return nil, domain.Errorf(domain.KindRule, "player %s is not seated in this round", userID)
	}
	if !ps.Live() {
		return nil, domain.Errorf(domain.KindState, "player %s has left the round", userID)
	}
	if !domain.ContainsCards(ps.Hand, flatten(melds)) {
		return nil, domain.Errorf(domain.KindRule, "locked melds contain cards not in your hand")
	}

	locked := make([][]domain.Card, len(melds))
	for i, m := range melds {
		locked[i] = append([]domain.Card(nil), m...)
	}
	ps.LockedMelds = locked

	return []Event{{
		Kind:    EventPlayerMeldsUpdate,
		Payload: PlayerMeldsUpdatedPayload{PlayerID: userID, Melds: locked},
	}}, nil
}

// DropBeforeDraw lets the active player leave the round for a fixed penalty
// before drawing. It is rejected when two or fewer players remain seated.
func (s *Service) DropBeforeDraw(t *domain.Table, userID string) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	round, ps, err := s.requireTurn(t, userID, domain.PhaseAwaitingDraw)
	if err != nil {
		return nil, err
	}

	if round.LiveCount() <= 2 {
		return nil, domain.Errorf(domain.KindRule, "dropping requires at least 3 seated players")
	}

	ps.Dropped = true
	ps.RoundScore = s.dropPenalty
	newScore := t.AddScore(userID, s.dropPenalty)
	next := round.AdvanceTurn()

	return []Event{
		{Kind: EventPlayerDropped, Payload: PlayerDroppedPayload{PlayerID: userID, NewScore: newScore}},
		{Kind: EventTurnAdvanced, Payload: TurnAdvancedPayload{ActivePlayerID: next}},
	}, nil
}

// Disconnect applies the irrevocable disconnect penalty once, removes the
// player from turn order, and advances the turn if they were active. When too
// few players remain the round is aborted.
func (s *Service) Disconnect(t *domain.Table, userID string) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	round := t.Round
	if round == nil || round.Phase.Terminal() {
		return nil, domain.Errorf(domain.KindState, "no open round")
	}
	ps := round.Player(userID)
	if ps == nil {
		return nil, domain.Errorf(domain.KindRule, "player %s is not seated in this round", userID)
	}
	if ps.Disconnected {
		return nil, domain.Errorf(domain.KindState, "player %s already disconnected", userID)
	}

	wasActive := round.ActivePlayerID() == userID
	ps.Disconnected = true
	ps.RoundScore = s.disconnectPenalty
	t.AddScore(userID, s.disconnectPenalty)

	events := []Event{{
		Kind:    EventPlayerLeft,
		Payload: PlayerLeftPayload{PlayerID: userID, Penalty: s.disconnectPenalty},
	}}

	if round.LiveCount() < 2 {
		round.Phase = domain.PhaseAborted
		events = append(events, Event{
			Kind:    EventRoundAborted,
			Payload: RoundAbortedPayload{RoundNumber: round.RoundNumber, Reason: "not enough players to continue"},
		})
		return events, nil
	}

	if wasActive {
		// A disconnect mid-discard leaves the 14th card in the dead hand,
		// which conservation still accounts for.
		round.Phase = domain.PhaseAwaitingDraw
		next := round.AdvanceTurn()
		events = append(events, Event{
			Kind:    EventTurnAdvanced,
			Payload: TurnAdvancedPayload{ActivePlayerID: next},
		})
	}
	return events, nil
}

// Declare validates the active player's claimed melds over 13 of their 14
// cards, conceptually discarding the 14th. On success the round terminates,
// every other hand is auto-organized and deadwood-scored, and the declarer
// scores zero. On failure the round state is untouched and the reason is
// returned for display.
func (s *Service) Declare(t *domain.Table, userID string, melds [][]domain.Card) ([]Event, error) {
	t.Lock()
	defer t.Unlock()

	round, ps, err := s.requireTurn(t, userID, domain.PhaseAwaitingDiscard)
	if err != nil {
		return nil, err
	}

	declared := flatten(melds)
	if !domain.ContainsCards(ps.Hand, declared) {
		return nil, domain.Errorf(domain.KindMeld, "declared melds contain cards not in your hand")
	}
	if err := domain.CheckDeclaration(melds, round.WildJokerRank, round.WildRevealed); err != nil {
		return nil, err
	}

	// The card left over after the declared 13 is discarded.
	leftover := domain.RemoveCards(ps.Hand, declared)
	round.Discard = append(round.Discard, leftover...)
	ps.Hand = declared
	ps.LockedMelds = melds
	ps.RoundScore = 0

	round.Phase = domain.PhaseDeclared
	round.WinnerID = userID

	scores := map[string]int{userID: 0}
	revealed := map[string][]domain.Card{userID: ps.Hand}
	organized := map[string]domain.OrganizedHand{}

	for _, seat := range round.Seats {
		if seat == userID {
			continue
		}
		other := round.Players[seat]
		revealed[seat] = other.Hand
		org := domain.Organize(other.Hand, round.WildJokerRank, round.WildRevealed)
		organized[seat] = org
		if other.Live() {
			points := domain.DeadwoodPoints(org.Ungrouped, round.WildJokerRank, round.WildRevealed, s.rules.AceValue)
			other.RoundScore = points
			t.AddScore(seat, points)
		}
		// Dropped and disconnected players keep their fixed penalty as the
		// round score; it was applied when the event happened.
		scores[seat] = other.RoundScore
	}

	return []Event{{
		Kind: EventRoundDeclared,
		Payload: RoundDeclaredPayload{
			WinnerUserID:   userID,
			RoundNumber:    round.RoundNumber,
			Scores:         scores,
			RevealedHands:  revealed,
			OrganizedMelds: organized,
		},
	}}, nil
}

// requireTurn checks that a round is open in the given phase and that the
// actor holds the turn.
func (s *Service) requireTurn(t *domain.Table, userID string, phase domain.Phase) (*domain.RoundState, *domain.PlayerRoundStatus, error) {
	round := t.Round
	if round == nil || round.Phase.Terminal() {
		return nil, nil, domain.Errorf(domain.KindState, "no open round")
	}
	if round.Phase != phase {
		return nil, nil, domain.Errorf(domain.KindState, "action not allowed in phase %s", round.Phase)
	}
	ps := round.Player(userID)
	if ps == nil {
		return nil, nil, domain.Errorf(domain.KindRule, "player %s is not seated in this round", userID)
	}
	if round.ActivePlayerID() != userID {
		return nil, nil, domain.Errorf(domain.KindTurn, "it is not %s's turn", userID)
	}
	if !ps.Live() {
		return nil, nil, domain.Errorf(domain.KindState, "player %s has left the round", userID)
	}
	return round, ps, nil
}

func flatten(melds [][]domain.Card) []domain.Card {
	var out []domain.Card
	for _, m := range melds {
		out = append(out, m...)
	}
	return out
}
