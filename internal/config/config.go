package config

import (
	"fmt"

	"github.com/spf13/viper"

	"rummy/internal/app"
	"rummy/internal/domain"
)

// TableRules is the externally supplied rule set for a table. Every field has
// a default so an empty config file yields a playable table.
type TableRules struct {
	Decks               int    `mapstructure:"decks"`
	PrintedJokers       bool   `mapstructure:"printedJokers"`
	AceValue            int    `mapstructure:"aceValue"`
	WildJokerRank       string `mapstructure:"wildJokerRank"` // "" means no wild rank is revealed
	DrawFromDiscard     bool   `mapstructure:"drawFromDiscard"`
	DropPenalty         int    `mapstructure:"dropPenalty"`
	DisconnectPenalty   int    `mapstructure:"disconnectPenalty"`
	DisqualifyThreshold int    `mapstructure:"disqualifyThreshold"`
	TurnTimeoutSeconds  int    `mapstructure:"turnTimeoutSeconds"` // 0 disables the timeout
}

// Default returns the rule set used when no config file is provided.
func Default() TableRules {
	return TableRules{
		Decks:               2,
		PrintedJokers:       true,
		AceValue:            10,
		DrawFromDiscard:     true,
		DropPenalty:         domain.DropPenalty,
		DisconnectPenalty:   domain.DisconnectPenalty,
		DisqualifyThreshold: domain.DefaultDisqualifyThreshold,
		TurnTimeoutSeconds:  45,
	}
}

// Load reads table rules from the given file. A missing path returns the
// defaults; a present but unreadable or invalid file is an error.
func Load(path string) (TableRules, error) {
	rules := Default()
	if path == "" {
		return rules, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("decks", rules.Decks)
	v.SetDefault("printedJokers", rules.PrintedJokers)
	v.SetDefault("aceValue", rules.AceValue)
	v.SetDefault("drawFromDiscard", rules.DrawFromDiscard)
	v.SetDefault("dropPenalty", rules.DropPenalty)
	v.SetDefault("disconnectPenalty", rules.DisconnectPenalty)
	v.SetDefault("disqualifyThreshold", rules.DisqualifyThreshold)
	v.SetDefault("turnTimeoutSeconds", rules.TurnTimeoutSeconds)

	if err := v.ReadInConfig(); err != nil {
		return rules, fmt.Errorf("read table rules: %w", err)
	}
	if err := v.Unmarshal(&rules); err != nil {
		return rules, fmt.Errorf("unmarshal table rules: %w", err)
	}
	if err := validate(rules); err != nil {
		return rules, err
	}
	return rules, nil
}

func validate(rules TableRules) error {
	if rules.Decks < 1 || rules.Decks > 4 {
		return domain.Errorf(domain.KindConfig, "decks must be between 1 and 4, got %d", rules.Decks)
	}
	if rules.AceValue != 1 && rules.AceValue != 10 {
		return domain.Errorf(domain.KindConfig, "aceValue must be 1 or 10, got %d", rules.AceValue)
	}
	if rules.WildJokerRank != "" && domain.ParseRank(rules.WildJokerRank) == domain.RankNone {
		return domain.Errorf(domain.KindConfig, "unknown wildJokerRank %q", rules.WildJokerRank)
	}
	return nil
}

// EngineRules converts the file shape to the engine's rule set. The wild
// joker rank counts as revealed exactly when one is configured.
func (tr TableRules) EngineRules() app.Rules {
	wildRank := domain.RankNone
	revealed := false
	if tr.WildJokerRank != "" {
		wildRank = domain.ParseRank(tr.WildJokerRank)
		revealed = wildRank != domain.RankNone
	}
	return app.Rules{
		Decks:               tr.Decks,
		PrintedJokers:       tr.PrintedJokers,
		AceValue:            tr.AceValue,
		WildJokerRank:       wildRank,
		WildRevealed:        revealed,
		DrawFromDiscard:     tr.DrawFromDiscard,
		DropPenalty:         &tr.DropPenalty,
		DisconnectPenalty:   &tr.DisconnectPenalty,
		DisqualifyThreshold: tr.DisqualifyThreshold,
	}
}
