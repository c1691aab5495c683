package nakama

// MatchNameRummy is the authoritative match handler name registered with Nakama.
const MatchNameRummy = "rummy_table"

// MatchLabelKeyOpenSeats is the label key quick-match queries filter on.
const MatchLabelKeyOpenSeats = "open"

// Op codes for client messages and server events.
const (
	// Client -> Server
	OpStartRound int64 = 1
	OpDraw       int64 = 2
	OpDiscard    int64 = 3
	OpLockMelds  int64 = 4
	OpDrop       int64 = 5
	OpDeclare    int64 = 6

	// Server -> Client events
	OpPlayerJoined   int64 = 101
	OpPlayerLeft     int64 = 102
	OpRoundStarted   int64 = 103
	OpHandDealt      int64 = 104 // sent privately
	OpCardDrawn      int64 = 105 // sent privately
	OpCardDiscarded  int64 = 106
	OpMeldsUpdated   int64 = 107
	OpPlayerDropped  int64 = 108
	OpTurnAdvanced   int64 = 109
	OpRoundDeclared  int64 = 110
	OpRoundAborted   int64 = 111
	OpActionRejected int64 = 120
)
