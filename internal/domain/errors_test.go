package domain

import (
	"errors"
	"testing"
)

func TestEngineErrorRoundTrip(t *testing.T) {
	err := Errorf(KindTurn, "it is %s's turn", "p2")

	if got := KindOf(err); got != KindTurn {
		t.Errorf("KindOf() = %q, want %q", got, KindTurn)
	}
	if got := ReasonOf(err); got != "it is p2's turn" {
		t.Errorf("ReasonOf() = %q", got)
	}
	if got := err.Error(); got != "turn: it is p2's turn" {
		t.Errorf("Error() = %q", got)
	}
}

func TestKindOfForeignError(t *testing.T) {
	err := errors.New("plain")
	if got := KindOf(err); got != "" {
		t.Errorf("KindOf(plain error) = %q, want empty", got)
	}
	if got := ReasonOf(err); got != "plain" {
		t.Errorf("ReasonOf(plain error) = %q, want %q", got, "plain")
	}
	if got := KindOf(nil); got != "" {
		t.Errorf("KindOf(nil) = %q, want empty", got)
	}
}
