package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"rummy/internal/app"
	"rummy/internal/config"
	"rummy/internal/domain"
)

// rummy-sim runs seeded rounds offline against the engine. The same seed
// always replays the same deal and, with the naive strategy below, the same
// round, which makes it useful for auditing rule changes.
func main() {
	var (
		seed    = flag.Int64("seed", time.Now().UnixNano(), "shuffle seed; identical seeds replay identical rounds")
		players = flag.Int("players", 4, "number of seated players (2-6)")
		rounds  = flag.Int("rounds", 1, "rounds to play")
		rules   = flag.String("rules", "", "optional table rules file")
		level   = flag.String("log-level", "info", "log level (debug, info, warn, error)")
	)
	flag.Parse()

	logger := log.New(os.Stdout)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)
	if lvl, err := log.ParseLevel(*level); err == nil {
		logger.SetLevel(lvl)
	}

	tableRules, err := config.Load(*rules)
	if err != nil {
		logger.Fatal("load rules", "err", err)
	}

	seats := make([]string, *players)
	for i := range seats {
		seats[i] = fmt.Sprintf("player-%d", i+1)
	}

	svc := app.NewService(tableRules.EngineRules())
	table := domain.NewTable(uuid.NewString(), seats, tableRules.DisqualifyThreshold)
	logger.Info("table created", "id", table.ID, "players", *players, "seed", *seed)

	for r := 0; r < *rounds; r++ {
		if len(table.ActiveSeats()) < domain.MinPlayers {
			logger.Warn("table finished early", "remaining", len(table.ActiveSeats()))
			break
		}
		if err := playRound(logger, svc, table, *seed+int64(r)); err != nil {
			logger.Fatal("round failed", "round", table.RoundNumber, "err", err)
		}
	}

	for _, seat := range table.Seats {
		logger.Info("final score", "player", seat, "points", table.CumulativeScores[seat], "eliminated", table.Eliminated(seat))
	}
}

func playRound(logger *log.Logger, svc *app.Service, table *domain.Table, seed int64) error {
	events, err := svc.StartRound(table, seed)
	if err != nil {
		return err
	}
	logEvents(logger, events)

	round := table.Round
	rules := svc.Rules()
	logger.Info("round started", "round", round.RoundNumber, "stock", len(round.Stock))

	for !round.Phase.Terminal() {
		active := round.ActivePlayerID()

		events, err = svc.Draw(table, active, false)
		if err != nil {
			return err
		}
		logEvents(logger, events)
		if round.Phase.Terminal() {
			break
		}

		hand := round.Players[active].Hand
		org := domain.Organize(hand, round.WildJokerRank, round.WildRevealed)

		if len(org.Ungrouped) == 1 {
			melds := append(append(org.PureSequences, org.ImpureSequences...), org.Sets...)
			events, err = svc.Declare(table, active, melds)
			if err == nil {
				logEvents(logger, events)
				logger.Info("declared", "winner", active, "round", round.RoundNumber)
				break
			}
			logger.Debug("declaration rejected", "player", active, "reason", domain.ReasonOf(err))
		}

		events, err = svc.Discard(table, active, pickDiscard(hand, org, rules.AceValue, round))
		if err != nil {
			return err
		}
		logEvents(logger, events)
	}

	if round.Phase == domain.PhaseAborted {
		logger.Warn("round aborted", "round", round.RoundNumber)
	}
	return nil
}

// pickDiscard throws the most expensive ungrouped card, falling back to the
// newest card when everything is melded.
func pickDiscard(hand []domain.Card, org domain.OrganizedHand, aceValue int, round *domain.RoundState) domain.Card {
	if len(org.Ungrouped) == 0 {
		return hand[len(hand)-1]
	}
	worst := org.Ungrouped[0]
	worstPoints := -1
	for _, c := range org.Ungrouped {
		if c.IsWild(round.WildJokerRank, round.WildRevealed) {
			continue
		}
		if p := domain.CardPoints(c, aceValue); p > worstPoints {
			worst, worstPoints = c, p
		}
	}
	return worst
}

func logEvents(logger *log.Logger, events []app.Event) {
	for _, ev := range events {
		logger.Debug("event", "kind", ev.Kind, "payload", fmt.Sprintf("%+v", ev.Payload))
	}
}
