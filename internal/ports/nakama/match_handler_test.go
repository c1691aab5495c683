package nakama

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/heroiclabs/nakama-common/runtime"

	"rummy/internal/app"
	"rummy/internal/config"
	"rummy/internal/domain"
)

// noopLogger implements runtime.Logger for tests that only need to satisfy the interface.
type noopLogger struct{}

func (noopLogger) Debug(string, ...interface{}) {}
func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}
func (noopLogger) WithField(string, interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) WithFields(map[string]interface{}) runtime.Logger {
	return noopLogger{}
}
func (noopLogger) Fields() map[string]interface{} {
	return nil
}

// mockDispatcher records match dispatcher calls for assertions.
type mockDispatcher struct {
	broadcastCount int
	labelUpdates   int
	lastOpCode     int64
	lastData       []byte
	lastLabel      string
}

func (md *mockDispatcher) BroadcastMessage(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	md.broadcastCount++
	md.lastOpCode = opCode
	md.lastData = append([]byte(nil), data...)
	return nil
}

func (md *mockDispatcher) BroadcastMessageDeferred(opCode int64, data []byte, presences []runtime.Presence, sender runtime.Presence, reliable bool) error {
	return nil
}

func (md *mockDispatcher) MatchKick(presences []runtime.Presence) error {
	return nil
}

func (md *mockDispatcher) MatchLabelUpdate(label string) error {
	md.labelUpdates++
	md.lastLabel = label
	return nil
}

// fakePresence implements runtime.Presence for a connected test user.
type fakePresence struct {
	userID string
}

func (fp fakePresence) GetUserId() string    { return fp.userID }
func (fp fakePresence) GetSessionId() string { return "session-" + fp.userID }
func (fp fakePresence) GetNodeId() string    { return "node" }
func (fp fakePresence) GetHidden() bool      { return false }
func (fp fakePresence) GetPersistence() bool { return true }
func (fp fakePresence) GetUsername() string  { return fp.userID }
func (fp fakePresence) GetStatus() string    { return "" }
func (fp fakePresence) GetReason() runtime.PresenceReason {
	return runtime.PresenceReasonUnknown
}

// fakeMatchData wraps a client message for handleMessage.
type fakeMatchData struct {
	fakePresence
	opCode int64
	data   []byte
}

func (fm fakeMatchData) GetOpCode() int64      { return fm.opCode }
func (fm fakeMatchData) GetData() []byte       { return fm.data }
func (fm fakeMatchData) GetReliable() bool     { return true }
func (fm fakeMatchData) GetReceiveTime() int64 { return 0 }

// mockRoundStore records persistence calls for assertions.
type mockRoundStore struct {
	saves  int
	scores map[string]int
}

func (ms *mockRoundStore) LoadRoundState(ctx context.Context, tableID string, roundNo int) (*domain.RoundState, error) {
	return nil, nil
}

func (ms *mockRoundStore) SaveRoundState(ctx context.Context, tableID string, roundNo int, state *domain.RoundState) error {
	ms.saves++
	return nil
}

func (ms *mockRoundStore) AppendCumulativeScore(ctx context.Context, tableID string, userID string, delta int) error {
	if ms.scores == nil {
		ms.scores = make(map[string]int)
	}
	ms.scores[userID] += delta
	return nil
}

func newLobbyState(joined ...string) *TableState {
	rules := config.Default()
	owner := ""
	if len(joined) > 0 {
		owner = joined[0]
	}
	return &TableState{
		TableID:   "table-1",
		Rules:     rules,
		Joined:    joined,
		OwnerID:   owner,
		App:       app.NewService(rules.EngineRules()),
		Store:     &mockRoundStore{},
		Presences: make(map[string]runtime.Presence),
	}
}

func TestOpenSeats(t *testing.T) {
	ts := newLobbyState("p1", "p2")
	if got := ts.openSeats(); got != domain.MaxPlayers-2 {
		t.Errorf("openSeats() = %d, want %d", got, domain.MaxPlayers-2)
	}
	if !ts.isSeated("p1") || ts.isSeated("ghost") {
		t.Error("isSeated misreported membership")
	}
}

func TestHandleStartRound(t *testing.T) {
	mh := &matchHandler{}

	t.Run("OwnerOnly", func(t *testing.T) {
		ts := newLobbyState("p1", "p2")
		_, err := mh.handleStartRound(ts, &mockDispatcher{}, noopLogger{}, "p2")
		if domain.KindOf(err) != domain.KindRule {
			t.Errorf("non-owner start kind = %q, want rule", domain.KindOf(err))
		}
	})

	t.Run("NeedsTwoPlayers", func(t *testing.T) {
		ts := newLobbyState("p1")
		_, err := mh.handleStartRound(ts, &mockDispatcher{}, noopLogger{}, "p1")
		if domain.KindOf(err) != domain.KindConfig {
			t.Errorf("lone start kind = %q, want config", domain.KindOf(err))
		}
	})

	t.Run("DealsRound", func(t *testing.T) {
		ts := newLobbyState("p1", "p2", "p3")
		events, err := mh.handleStartRound(ts, &mockDispatcher{}, noopLogger{}, "p1")
		if err != nil {
			t.Fatalf("handleStartRound() error = %v", err)
		}
		if ts.Table == nil || ts.Table.Round == nil {
			t.Fatal("no table or round created")
		}
		if len(events) == 0 || events[0].Kind != app.EventRoundStarted {
			t.Errorf("first event = %v, want round_started", events)
		}
	})
}

func TestHandleMessageBeforeRoundRejects(t *testing.T) {
	mh := &matchHandler{}

	for _, tt := range []struct {
		name   string
		opCode int64
		data   []byte
	}{
		{name: "Draw", opCode: OpDraw, data: []byte(`{"from_discard":false}`)},
		{name: "Discard", opCode: OpDiscard, data: []byte(`{"card":{"rank":4,"suit":"H"}}`)},
		{name: "Drop", opCode: OpDrop},
		{name: "Declare", opCode: OpDeclare, data: []byte(`{"melds":[]}`)},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ts := newLobbyState("p1", "p2")
			ts.Presences["p1"] = fakePresence{userID: "p1"}
			md := &mockDispatcher{}

			mh.handleMessage(context.Background(), ts, md, noopLogger{}, fakeMatchData{
				fakePresence: fakePresence{userID: "p1"},
				opCode:       tt.opCode,
				data:         tt.data,
			})

			if md.broadcastCount != 1 || md.lastOpCode != OpActionRejected {
				t.Fatalf("broadcasts = %d opcode = %d, want one rejection", md.broadcastCount, md.lastOpCode)
			}
			var rejection actionRejectedEvent
			if err := json.Unmarshal(md.lastData, &rejection); err != nil {
				t.Fatalf("unmarshal rejection: %v", err)
			}
			if rejection.Kind != string(domain.KindState) {
				t.Errorf("rejection kind = %q, want state", rejection.Kind)
			}
		})
	}
}

func TestPublishEventsRoutesThroughDispatcher(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2")
	md := &mockDispatcher{}

	events := []app.Event{
		{Kind: app.EventTurnAdvanced, Payload: app.TurnAdvancedPayload{ActivePlayerID: "p1"}},
		// Private event whose recipient is offline: suppressed, not broadcast.
		{Kind: app.EventHandDealt, Payload: app.HandDealtPayload{UserID: "p2"}, Recipients: []string{"p2"}},
	}
	mh.publishEvents(ts, md, noopLogger{}, events)

	if md.broadcastCount != 1 {
		t.Fatalf("broadcastCount = %d, want 1", md.broadcastCount)
	}
	if md.lastOpCode != OpTurnAdvanced {
		t.Errorf("lastOpCode = %d, want %d", md.lastOpCode, OpTurnAdvanced)
	}

	var payload app.TurnAdvancedPayload
	if err := json.Unmarshal(md.lastData, &payload); err != nil {
		t.Fatalf("unmarshal broadcast payload: %v", err)
	}
	if payload.ActivePlayerID != "p1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestNotifierRejectsUnknownEvent(t *testing.T) {
	n := NewDispatcherNotifier(&mockDispatcher{}, noopLogger{}, nil)
	if err := n.Publish("t1", "no_such_event", nil, nil); err == nil {
		t.Error("Publish() accepted an unknown event name")
	}
}

func TestPersistAppendsScoreDeltas(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2", "p3")
	store := &mockRoundStore{}
	ts.Store = store

	if _, err := mh.handleStartRound(ts, &mockDispatcher{}, noopLogger{}, "p1"); err != nil {
		t.Fatalf("handleStartRound() error = %v", err)
	}

	events, err := ts.App.DropBeforeDraw(ts.Table, "p1")
	if err != nil {
		t.Fatalf("DropBeforeDraw() error = %v", err)
	}
	mh.persist(context.Background(), ts, noopLogger{}, events)

	if store.saves == 0 {
		t.Error("persist did not snapshot the round")
	}
	if got := store.scores["p1"]; got != ts.Rules.DropPenalty {
		t.Errorf("appended score for p1 = %d, want %d", got, ts.Rules.DropPenalty)
	}
}

func TestArmTurnTimeout(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2")
	ts.Tick = 100

	if _, err := mh.handleStartRound(ts, &mockDispatcher{}, noopLogger{}, "p1"); err != nil {
		t.Fatalf("handleStartRound() error = %v", err)
	}

	mh.armTurnTimeout(ts)
	if ts.DeadlineFor != "p1" {
		t.Errorf("DeadlineFor = %q, want p1", ts.DeadlineFor)
	}
	if want := ts.Tick + int64(ts.Rules.TurnTimeoutSeconds); ts.TurnDeadline != want {
		t.Errorf("TurnDeadline = %d, want %d", ts.TurnDeadline, want)
	}

	// Re-arming for the same player keeps the original deadline.
	ts.Tick = 110
	mh.armTurnTimeout(ts)
	if ts.TurnDeadline != 100+int64(ts.Rules.TurnTimeoutSeconds) {
		t.Errorf("re-arm moved the deadline to %d", ts.TurnDeadline)
	}

	// A terminal round clears it.
	ts.Table.Round.Phase = domain.PhaseAborted
	mh.armTurnTimeout(ts)
	if ts.TurnDeadline != 0 || ts.DeadlineFor != "" {
		t.Errorf("terminal round left deadline %d for %q", ts.TurnDeadline, ts.DeadlineFor)
	}
}

func TestArmTurnTimeoutDisabled(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2")
	ts.Rules.TurnTimeoutSeconds = 0

	if _, err := mh.handleStartRound(ts, &mockDispatcher{}, noopLogger{}, "p1"); err != nil {
		t.Fatalf("handleStartRound() error = %v", err)
	}
	mh.armTurnTimeout(ts)
	if ts.TurnDeadline != 0 {
		t.Errorf("TurnDeadline = %d, want 0 with timeout disabled", ts.TurnDeadline)
	}
}

func TestCheckTurnTimeoutForcesPlay(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2")
	md := &mockDispatcher{}

	if _, err := mh.handleStartRound(ts, md, noopLogger{}, "p1"); err != nil {
		t.Fatalf("handleStartRound() error = %v", err)
	}
	round := ts.Table.Round

	mh.armTurnTimeout(ts)
	ts.Tick = ts.TurnDeadline

	// Two players: the stalled turn is force-played as draw-and-discard,
	// not a drop.
	mh.checkTurnTimeout(context.Background(), ts, md, noopLogger{})

	if round.Players["p1"].Dropped {
		t.Error("two-player timeout dropped the player")
	}
	if got := round.ActivePlayerID(); got != "p2" {
		t.Errorf("active player after timeout = %q, want p2", got)
	}
	if round.CardCount() != round.DeckSize {
		t.Errorf("CardCount() = %d, want %d", round.CardCount(), round.DeckSize)
	}
	if ts.DeadlineFor != "p2" {
		t.Errorf("deadline re-armed for %q, want p2", ts.DeadlineFor)
	}
}

func TestCheckTurnTimeoutDropsWhenAllowed(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2", "p3")
	md := &mockDispatcher{}

	if _, err := mh.handleStartRound(ts, md, noopLogger{}, "p1"); err != nil {
		t.Fatalf("handleStartRound() error = %v", err)
	}
	round := ts.Table.Round

	mh.armTurnTimeout(ts)
	ts.Tick = ts.TurnDeadline
	mh.checkTurnTimeout(context.Background(), ts, md, noopLogger{})

	if !round.Players["p1"].Dropped {
		t.Error("three-player timeout did not drop the player")
	}
	if got := ts.Table.CumulativeScores["p1"]; got != ts.Rules.DropPenalty {
		t.Errorf("cumulative score = %d, want drop penalty %d", got, ts.Rules.DropPenalty)
	}
}

func TestEventOpCodes(t *testing.T) {
	tests := []struct {
		kind app.EventKind
		want int64
	}{
		{app.EventRoundStarted, OpRoundStarted},
		{app.EventHandDealt, OpHandDealt},
		{app.EventCardDrawn, OpCardDrawn},
		{app.EventCardDiscarded, OpCardDiscarded},
		{app.EventPlayerMeldsUpdate, OpMeldsUpdated},
		{app.EventPlayerDropped, OpPlayerDropped},
		{app.EventPlayerLeft, OpPlayerLeft},
		{app.EventTurnAdvanced, OpTurnAdvanced},
		{app.EventRoundDeclared, OpRoundDeclared},
		{app.EventRoundAborted, OpRoundAborted},
	}
	for _, tt := range tests {
		got, ok := eventOpCode(tt.kind)
		if !ok || got != tt.want {
			t.Errorf("eventOpCode(%q) = %d, %v, want %d", tt.kind, got, ok, tt.want)
		}
	}
	if _, ok := eventOpCode("bogus"); ok {
		t.Error("eventOpCode accepted an unknown kind")
	}
}

func TestUpdateLabel(t *testing.T) {
	mh := &matchHandler{}
	ts := newLobbyState("p1", "p2")
	md := &mockDispatcher{}

	mh.updateLabel(ts, md, noopLogger{})
	var label Label
	if err := json.Unmarshal([]byte(md.lastLabel), &label); err != nil {
		t.Fatalf("unmarshal label: %v", err)
	}
	if label.Phase != "lobby" || label.Open != domain.MaxPlayers-2 {
		t.Errorf("lobby label = %+v", label)
	}

	if _, err := mh.handleStartRound(ts, md, noopLogger{}, "p1"); err != nil {
		t.Fatalf("handleStartRound() error = %v", err)
	}
	mh.updateLabel(ts, md, noopLogger{})
	if err := json.Unmarshal([]byte(md.lastLabel), &label); err != nil {
		t.Fatalf("unmarshal label: %v", err)
	}
	if label.Phase != "playing" || label.Open != 0 {
		t.Errorf("playing label = %+v", label)
	}
}
