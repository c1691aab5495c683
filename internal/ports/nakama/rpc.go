package nakama

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/heroiclabs/nakama-common/runtime"
)

// RpcFindTable is the RPC id clients call to find or create a joinable table.
const RpcFindTable = "find_table"

// rpcFindTable searches for a table with open seats; when none exists it
// creates a fresh one with a generated table id.
//
// Payload: unused. Returns: the match ID as a plain string.
func rpcFindTable(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, payload string) (string, error) {
	userID, _ := ctx.Value(runtime.RUNTIME_CTX_USER_ID).(string)

	limit := 1
	authoritative := true
	labelQuery := fmt.Sprintf("+label.%s:>=1 +label.game:rummy", MatchLabelKeyOpenSeats)
	minSize := 0
	maxSize := 6

	matches, err := nk.MatchList(ctx, limit, authoritative, "", &minSize, &maxSize, labelQuery)
	if err != nil {
		logger.Error("rpcFindTable [user:%s]: failed to list matches: %v", userID, err)
		return "", err
	}

	if len(matches) > 0 {
		matchID := matches[0].MatchId
		logger.Info("rpcFindTable [user:%s]: found table %s", userID, matchID)
		return matchID, nil
	}

	params := map[string]interface{}{"table_id": uuid.NewString()}
	matchID, err := nk.MatchCreate(ctx, MatchNameRummy, params)
	if err != nil {
		logger.Error("rpcFindTable [user:%s]: failed to create table: %v", userID, err)
		return "", err
	}

	logger.Info("rpcFindTable [user:%s]: created table %s", userID, matchID)
	return matchID, nil
}

// RegisterRPCs wires all RPC handlers with the initializer.
func RegisterRPCs(initializer runtime.Initializer) error {
	return initializer.RegisterRpc(RpcFindTable, rpcFindTable)
}
