package matchdto

import (
	"errors"
	"fmt"
	"testing"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/match"
	"github.com/park285/wager-chess/internal/matchsvc"
	"github.com/park285/wager-chess/internal/wallet"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err       error
		code      string
		retryable bool
	}{
		{fmt.Errorf("e2e5: %w", board.ErrIllegalMove), CodeIllegalMove, false},
		{match.ErrNotYourTurn, CodeNotYourTurn, false},
		{matchsvc.ErrMatchNotFound, CodeMatchNotFound, false},
		{fmt.Errorf("%w: %w", match.ErrMatchAlreadyTerminal, matchsvc.ErrAlreadySettled), CodeMatchAlreadyTerminal, false},
		{fmt.Errorf("%w: alice", wallet.ErrInsufficientFunds), CodeInsufficientFunds, false},
		{match.ErrNoPendingDrawOffer, CodeNoPendingDrawOffer, false},
		{match.ErrDrawOfferBySameSide, CodeDrawOfferBySameSide, false},
		{matchsvc.ErrVersionConflict, CodeConflict, true},
		{errors.New("boom"), CodeInternal, false},
	}
	for _, c := range cases {
		got := FromError(c.err)
		if got == nil || got.Code != c.code || got.Retryable != c.retryable {
			t.Fatalf("FromError(%v) = %+v, want %s", c.err, got, c.code)
		}
	}
	if FromError(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
	wrapped := fmt.Errorf("handler: %w", DomainError{Code: CodeStaleSearch})
	if got := FromError(wrapped); got.Code != CodeStaleSearch {
		t.Fatalf("domain error not preserved: %+v", got)
	}
}

func TestMoveRequest(t *testing.T) {
	req, err := ParseMoveRequest(" E7E8n ")
	if err != nil {
		t.Fatalf("ParseMoveRequest: %v", err)
	}
	mv, err := req.ToService()
	if err != nil {
		t.Fatalf("ToService: %v", err)
	}
	if mv.From.String() != "e7" || mv.To.String() != "e8" || mv.Promotion != board.Knight {
		t.Fatalf("unexpected move %+v", mv)
	}
	noPromo, err := MoveRequest{From: "e2", To: "e4"}.ToService()
	if err != nil || noPromo.Promotion != board.NoKind {
		t.Fatalf("plain move: %+v, %v", noPromo, err)
	}
	for _, bad := range []MoveRequest{{From: "z9", To: "e4"}, {From: "e2", To: "e4", Promotion: "x"}} {
		if _, err := bad.ToService(); err == nil {
			t.Fatalf("%+v should fail", bad)
		}
	}
	if _, err := ParseMoveRequest("e2"); !errors.Is(err, board.ErrInvalidMove) {
		t.Fatalf("short text err = %v", err)
	}
}

func TestFromSession(t *testing.T) {
	s, err := match.New(match.Config{ID: "m1", White: match.Participant{ID: "alice"}, Black: match.Participant{ID: "house", Computer: true}, WhiteStake: 10, BlackStake: 10})
	if err != nil {
		t.Fatalf("match.New: %v", err)
	}
	if err := s.Resign(board.White); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	st := FromSession(s)
	if st.Computer != "black" || st.Winner != "black" || st.Outcome != "resigned" || st.Status != "RESIGNED" || st.EndedAt == nil {
		t.Fatalf("unexpected state %+v", st)
	}
	if FromSession(nil) != nil {
		t.Fatalf("nil session should map to nil")
	}
}
