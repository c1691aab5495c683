package nakama

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"

	"rummy/internal/app"
	"rummy/internal/config"
	"rummy/internal/domain"
	"rummy/internal/ports"
)

// TableState holds the authoritative runtime state for one Nakama match.
// Nakama serializes all match callbacks onto a single loop, so fields are
// only ever touched from that loop; the engine's own table lock additionally
// guards every round mutation.
type TableState struct {
	TableID   string                      `json:"table_id"`
	Rules     config.TableRules           `json:"rules"`
	Joined    []string                    `json:"joined"` // seating order, first joiner owns the table
	OwnerID   string                      `json:"owner_id"`
	Tick      int64                       `json:"tick"`
	Table     *domain.Table               `json:"-"`
	App       *app.Service                `json:"-"`
	Store     ports.RoundStorePort        `json:"-"`
	Presences map[string]runtime.Presence `json:"-"`

	// Turn-timeout bookkeeping. Zero deadline means no timeout armed.
	TurnDeadline int64  `json:"turn_deadline"`
	DeadlineFor  string `json:"deadline_for"`
}

func (ts *TableState) openSeats() int {
	return domain.MaxPlayers - len(ts.Joined)
}

func (ts *TableState) isSeated(userID string) bool {
	for _, id := range ts.Joined {
		if id == userID {
			return true
		}
	}
	return false
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit loads table rules, builds the engine service and advertises an
// open lobby label.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	rulesPath := ""
	if env, ok := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string); ok {
		rulesPath = env["rummy_rules_path"]
	}
	rules, err := config.Load(rulesPath)
	if err != nil {
		logger.Warn("MatchInit: falling back to default rules: %v", err)
		rules = config.Default()
	}

	tableID, _ := params["table_id"].(string)
	if tableID == "" {
		tableID = uuid.NewString()
	}

	state := &TableState{
		TableID:   tableID,
		Rules:     rules,
		App:       app.NewService(rules.EngineRules()),
		Store:     NewNakamaRoundStore(nk),
		Presences: make(map[string]runtime.Presence),
	}

	labelBytes, err := json.Marshal(Label{Open: state.openSeats(), Game: "rummy", Phase: "lobby"})
	if err != nil {
		logger.Error("MatchInit: failed to marshal label: %v", err)
		return nil, 0, ""
	}

	tickRate := 1 // one tick per second keeps the turn timeout in seconds
	return state, tickRate, string(labelBytes)
}

// MatchJoinAttempt admits players while seats remain and always readmits
// seated players reconnecting mid-round.
func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	ts, ok := state.(*TableState)
	if !ok {
		return state, false, "state not found"
	}

	if ts.isSeated(presence.GetUserId()) {
		return state, true, ""
	}
	if ts.Table != nil {
		return state, false, "table_in_progress"
	}
	if ts.openSeats() <= 0 {
		return state, false, "table_full"
	}
	return state, true, ""
}

// MatchJoin seats new arrivals, assigns the owner and announces the join.
func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ts, ok := state.(*TableState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		ts.Presences[uid] = p

		if ts.isSeated(uid) {
			logger.Debug("MatchJoin: %s reconnected", uid)
			continue
		}

		ts.Joined = append(ts.Joined, uid)
		if ts.OwnerID == "" {
			ts.OwnerID = uid
		}

		evt, _ := json.Marshal(map[string]any{
			"user_id": uid,
			"seat":    len(ts.Joined),
			"owner":   uid == ts.OwnerID,
		})
		_ = dispatcher.BroadcastMessage(OpPlayerJoined, evt, nil, nil, true)
	}

	mh.updateLabel(ts, dispatcher, logger)
	return ts
}

// MatchLeave frees lobby seats, or routes mid-round departures through the
// engine's disconnect action so the penalty and turn advance apply.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	ts, ok := state.(*TableState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		uid := p.GetUserId()
		delete(ts.Presences, uid)

		if ts.Table == nil {
			// Still in the lobby: free the seat entirely.
			for i, id := range ts.Joined {
				if id == uid {
					ts.Joined = append(ts.Joined[:i], ts.Joined[i+1:]...)
					break
				}
			}
			if ts.OwnerID == uid {
				ts.OwnerID = ""
				if len(ts.Joined) > 0 {
					ts.OwnerID = ts.Joined[0]
				}
			}
			continue
		}

		events, err := ts.App.Disconnect(ts.Table, uid)
		if err != nil {
			logger.Debug("MatchLeave: disconnect for %s not applied: %v", uid, err)
			continue
		}
		mh.publishEvents(ts, dispatcher, logger, events)
		mh.persist(ctx, ts, logger, events)
		mh.armTurnTimeout(ts)
	}

	if len(ts.Presences) == 0 {
		logger.Info("MatchLeave: terminating empty table %s", ts.TableID)
		return nil
	}

	mh.updateLabel(ts, dispatcher, logger)
	return ts
}

// MatchLoop dispatches player messages into the engine and enforces the turn
// timeout.
func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	ts, ok := state.(*TableState)
	if !ok {
		return state
	}
	ts.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(ctx, ts, dispatcher, logger, msg)
	}

	mh.checkTurnTimeout(ctx, ts, dispatcher, logger)
	return ts
}

func (mh *matchHandler) handleMessage(ctx context.Context, ts *TableState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, msg runtime.MatchData) {
	uid := msg.GetUserId()

	// Every opcode except start needs a live table; reject instead of
	// swallowing pre-round actions.
	switch msg.GetOpCode() {
	case OpDraw, OpDiscard, OpLockMelds, OpDrop, OpDeclare:
		if ts.Table == nil {
			mh.sendRejected(ts, dispatcher, logger, uid, domain.Errorf(domain.KindState, "no round has been started at this table"))
			return
		}
	}

	var events []app.Event
	var err error

	switch msg.GetOpCode() {
	case OpStartRound:
		events, err = mh.handleStartRound(ts, dispatcher, logger, uid)
	case OpDraw:
		var req drawRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = ts.App.Draw(ts.Table, uid, req.FromDiscard)
		}
	case OpDiscard:
		var req discardRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = ts.App.Discard(ts.Table, uid, req.Card)
		}
	case OpLockMelds:
		var req meldsRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = ts.App.LockMelds(ts.Table, uid, req.Melds)
		}
	case OpDrop:
		events, err = ts.App.DropBeforeDraw(ts.Table, uid)
	case OpDeclare:
		var req meldsRequest
		if err = json.Unmarshal(msg.GetData(), &req); err == nil {
			events, err = ts.App.Declare(ts.Table, uid, req.Melds)
		}
	default:
		logger.Warn("MatchLoop: unknown opcode %d from %s", msg.GetOpCode(), uid)
		return
	}

	if err != nil {
		logger.Debug("MatchLoop: %s action rejected: %v", uid, err)
		mh.sendRejected(ts, dispatcher, logger, uid, err)
		return
	}

	mh.publishEvents(ts, dispatcher, logger, events)
	mh.persist(ctx, ts, logger, events)
	mh.armTurnTimeout(ts)
	mh.updateLabel(ts, dispatcher, logger)
}

func (mh *matchHandler) handleStartRound(ts *TableState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, uid string) ([]app.Event, error) {
	if uid != ts.OwnerID {
		return nil, domain.Errorf(domain.KindRule, "only the table owner can start a round")
	}
	if ts.Table == nil {
		if len(ts.Joined) < domain.MinPlayers {
			return nil, domain.Errorf(domain.KindConfig, "need at least %d players to start", domain.MinPlayers)
		}
		ts.Table = domain.NewTable(ts.TableID, ts.Joined, ts.Rules.DisqualifyThreshold)
	}
	return ts.App.StartRound(ts.Table, time.Now().UnixNano())
}

// publishEvents fans engine events out through the notifier port.
func (mh *matchHandler) publishEvents(ts *TableState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, events []app.Event) {
	notifier := NewDispatcherNotifier(dispatcher, logger, ts.Presences)
	for _, ev := range events {
		if err := notifier.Publish(ts.TableID, string(ev.Kind), ev.Payload, ev.Recipients); err != nil {
			logger.Error("publishEvents: %s: %v", ev.Kind, err)
		}
	}
}

// persist snapshots the round after a successful action and appends the score
// deltas the action produced. The round snapshot is one atomic write.
func (mh *matchHandler) persist(ctx context.Context, ts *TableState, logger runtime.Logger, events []app.Event) {
	if ts.Store == nil || ts.Table == nil || ts.Table.Round == nil {
		return
	}
	round := ts.Table.Round
	if err := ts.Store.SaveRoundState(ctx, ts.TableID, round.RoundNumber, round); err != nil {
		logger.Error("persist: save round %d: %v", round.RoundNumber, err)
	}

	for _, ev := range events {
		switch p := ev.Payload.(type) {
		case app.PlayerDroppedPayload:
			mh.appendScore(ctx, ts, logger, p.PlayerID, ts.Rules.DropPenalty)
		case app.PlayerLeftPayload:
			mh.appendScore(ctx, ts, logger, p.PlayerID, p.Penalty)
		case app.RoundDeclaredPayload:
			for uid, score := range p.Scores {
				if uid == p.WinnerUserID {
					continue
				}
				// Drop and disconnect deltas were appended when they
				// happened; only live hands owe deadwood now.
				if ps := round.Players[uid]; ps != nil && ps.Live() {
					mh.appendScore(ctx, ts, logger, uid, score)
				}
			}
		}
	}
}

func (mh *matchHandler) appendScore(ctx context.Context, ts *TableState, logger runtime.Logger, userID string, delta int) {
	if delta == 0 {
		return
	}
	if err := ts.Store.AppendCumulativeScore(ctx, ts.TableID, userID, delta); err != nil {
		logger.Error("appendScore: %s += %d: %v", userID, delta, err)
	}
}

// armTurnTimeout re-arms the deadline whenever the turn or phase changed.
func (mh *matchHandler) armTurnTimeout(ts *TableState) {
	if ts.Rules.TurnTimeoutSeconds <= 0 || ts.Table == nil || ts.Table.Round == nil {
		return
	}
	round := ts.Table.Round
	if round.Phase.Terminal() {
		ts.TurnDeadline = 0
		ts.DeadlineFor = ""
		return
	}
	active := round.ActivePlayerID()
	if active != ts.DeadlineFor || ts.TurnDeadline == 0 {
		ts.DeadlineFor = active
		ts.TurnDeadline = ts.Tick + int64(ts.Rules.TurnTimeoutSeconds)
	}
}

// checkTurnTimeout forces a neutral action for a player who ran out the
// clock: a drop where the rules allow it, otherwise a draw-and-discard of the
// drawn card.
func (mh *matchHandler) checkTurnTimeout(ctx context.Context, ts *TableState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	if ts.TurnDeadline == 0 || ts.Tick < ts.TurnDeadline || ts.Table == nil || ts.Table.Round == nil {
		return
	}
	round := ts.Table.Round
	if round.Phase.Terminal() {
		ts.TurnDeadline = 0
		return
	}

	active := round.ActivePlayerID()
	logger.Info("checkTurnTimeout: %s timed out in phase %s", active, round.Phase)

	var events []app.Event

	if round.Phase == domain.PhaseAwaitingDraw {
		if round.LiveCount() > 2 {
			dropped, err := ts.App.DropBeforeDraw(ts.Table, active)
			if err != nil {
				logger.Error("checkTurnTimeout: drop failed for %s: %v", active, err)
				ts.TurnDeadline = 0
				return
			}
			events = dropped
		} else {
			drawn, err := ts.App.Draw(ts.Table, active, false)
			if err != nil {
				logger.Error("checkTurnTimeout: draw failed for %s: %v", active, err)
				ts.TurnDeadline = 0
				return
			}
			events = drawn
		}
	}

	// If the player now owes a discard (either they stalled there or the
	// forced draw above landed them there), throw back the newest card.
	if !round.Phase.Terminal() && round.Phase == domain.PhaseAwaitingDiscard && round.ActivePlayerID() == active {
		hand := round.Players[active].Hand
		discarded, err := ts.App.Discard(ts.Table, active, hand[len(hand)-1])
		if err != nil {
			logger.Error("checkTurnTimeout: discard failed for %s: %v", active, err)
		} else {
			events = append(events, discarded...)
		}
	}

	mh.publishEvents(ts, dispatcher, logger, events)
	mh.persist(ctx, ts, logger, events)
	ts.TurnDeadline = 0
	ts.DeadlineFor = ""
	mh.armTurnTimeout(ts)
}

// sendRejected reports a refused action back to its sender only.
func (mh *matchHandler) sendRejected(ts *TableState, dispatcher runtime.MatchDispatcher, logger runtime.Logger, userID string, actionErr error) {
	payload, err := json.Marshal(actionRejectedEvent{
		Kind:    string(domain.KindOf(actionErr)),
		Message: domain.ReasonOf(actionErr),
	})
	if err != nil {
		logger.Error("sendRejected: marshal: %v", err)
		return
	}
	presence, ok := ts.Presences[userID]
	if !ok {
		logger.Warn("sendRejected: presence for %s not found", userID)
		return
	}
	_ = dispatcher.BroadcastMessage(OpActionRejected, payload, []runtime.Presence{presence}, nil, true)
}

func (mh *matchHandler) updateLabel(ts *TableState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	phase := "lobby"
	open := ts.openSeats()
	if ts.Table != nil {
		phase = "playing"
		open = 0
	}
	labelBytes, err := json.Marshal(Label{Open: open, Game: "rummy", Phase: phase})
	if err != nil {
		logger.Error("updateLabel: marshal: %v", err)
		return
	}
	if err := dispatcher.MatchLabelUpdate(string(labelBytes)); err != nil {
		logger.Error("updateLabel: update: %v", err)
	}
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, reason int) interface{} {
	logger.Debug("MatchTerminate: reason %d", reason)
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	return state, ""
}
