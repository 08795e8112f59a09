package match

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/park285/wager-chess/internal/chess/board"
)

func newSession(t *testing.T, fen string) *Session {
	t.Helper()
	cfg := Config{
		ID:         "m1",
		White:      Participant{ID: "alice"},
		Black:      Participant{ID: "bob"},
		WhiteStake: 100,
		BlackStake: 100,
	}
	if fen != "" {
		p, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		cfg.Initial = &p
	}
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func uciMove(t *testing.T, s *Session, text string) board.Move {
	t.Helper()
	m, err := board.ParseUCI(s.Current(), text)
	if err != nil {
		t.Fatalf("ParseUCI(%s): %v", text, err)
	}
	return m
}

func playAll(t *testing.T, s *Session, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if _, err := s.SubmitMove(s.Turn(), uciMove(t, s, mv)); err != nil {
			t.Fatalf("SubmitMove(%s): %v", mv, err)
		}
	}
}

func TestNewValidates(t *testing.T) {
	bad := []Config{
		{ID: "", White: Participant{ID: "a"}, Black: Participant{ID: "b"}},
		{ID: "x", White: Participant{ID: "a"}, Black: Participant{ID: "a"}},
		{ID: "x", White: Participant{ID: "a"}, Black: Participant{ID: ""}},
		{ID: "x", White: Participant{ID: "a"}, Black: Participant{ID: "b"}, WhiteStake: -1},
		{ID: "x", White: Participant{ID: "a", Computer: true}, Black: Participant{ID: "b", Computer: true}},
	}
	for _, cfg := range bad {
		if _, err := New(cfg); !errors.Is(err, ErrInvalidMatch) {
			t.Fatalf("New(%+v) err = %v", cfg, err)
		}
	}
	s := newSession(t, "")
	if s.Pot != 200 || s.Status != StatusActive || len(s.Positions) != 1 || s.Version != 1 {
		t.Fatalf("unexpected new session: pot=%d status=%s positions=%d version=%d", s.Pot, s.Status, len(s.Positions), s.Version)
	}
}

func TestFoolsMateEndsMatch(t *testing.T) {
	s := newSession(t, "")
	playAll(t, s, "f2f3", "e7e5", "g2g4", "d8h4")
	if s.Status != StatusCheckmate {
		t.Fatalf("status = %s, want CHECKMATE", s.Status)
	}
	if s.Outcome == nil || *s.Outcome != Checkmate(board.Black) {
		t.Fatalf("outcome = %v", s.Outcome)
	}
	if !s.InCheck || s.EndedAt.IsZero() {
		t.Fatalf("expected in-check flag and end time")
	}

	version := s.Version
	if _, err := s.SubmitMove(board.White, board.Move{From: board.E1, To: board.F1}); !errors.Is(err, ErrMatchAlreadyTerminal) {
		t.Fatalf("move after mate err = %v", err)
	}
	if err := s.Resign(board.White); !errors.Is(err, ErrMatchAlreadyTerminal) {
		t.Fatalf("resign after mate err = %v", err)
	}
	if err := s.OfferDraw(board.White); !errors.Is(err, ErrMatchAlreadyTerminal) {
		t.Fatalf("draw offer after mate err = %v", err)
	}
	if s.Version != version {
		t.Fatalf("rejected operations changed version")
	}
}

func TestRejectedMovesLeaveSessionUnchanged(t *testing.T) {
	s := newSession(t, "")
	before := s.ToRecord()

	if _, err := s.SubmitMove(board.Black, uciMoveFor(t, "e2e4")); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("black first err = %v", err)
	}
	if _, err := s.SubmitMove(board.White, uciMoveFor(t, "e2e5")); !errors.Is(err, board.ErrIllegalMove) {
		t.Fatalf("illegal move err = %v", err)
	}
	if diff := cmp.Diff(before, s.ToRecord()); diff != "" {
		t.Fatalf("session changed (-before +after):\n%s", diff)
	}
}

// uciMoveFor builds a bare from/to move without consulting a position.
func uciMoveFor(t *testing.T, text string) board.Move {
	t.Helper()
	from, err := board.ParseSquare(text[:2])
	if err != nil {
		t.Fatalf("ParseSquare: %v", err)
	}
	to, err := board.ParseSquare(text[2:4])
	if err != nil {
		t.Fatalf("ParseSquare: %v", err)
	}
	return board.Move{From: from, To: to}
}

func TestInCheckIsInformational(t *testing.T) {
	s := newSession(t, "")
	playAll(t, s, "e2e4", "f7f6", "d1h5")
	if !s.InCheck || s.Status != StatusActive {
		t.Fatalf("in check = %v status = %s", s.InCheck, s.Status)
	}
	playAll(t, s, "g7g6")
	if s.InCheck {
		t.Fatalf("check should clear after a blocking move")
	}
}

func TestDrawOfferLifecycle(t *testing.T) {
	s := newSession(t, "")
	if err := s.RespondDraw(board.Black, true); !errors.Is(err, ErrNoPendingDrawOffer) {
		t.Fatalf("respond without offer err = %v", err)
	}
	if err := s.OfferDraw(board.White); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	if err := s.OfferDraw(board.Black); !errors.Is(err, ErrDrawAlreadyPending) {
		t.Fatalf("second offer err = %v", err)
	}
	if err := s.RespondDraw(board.White, true); !errors.Is(err, ErrDrawOfferBySameSide) {
		t.Fatalf("self answer err = %v", err)
	}
	if err := s.RespondDraw(board.Black, false); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if s.DrawOffer != nil || s.Status != StatusActive {
		t.Fatalf("decline should clear the offer and keep playing")
	}

	if err := s.OfferDraw(board.White); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	playAll(t, s, "e2e4")
	if s.DrawOffer != nil {
		t.Fatalf("a move should clear the pending offer")
	}

	if err := s.OfferDraw(board.Black); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	if err := s.RespondDraw(board.White, true); err != nil {
		t.Fatalf("accept: %v", err)
	}
	if s.Status != StatusDraw || s.Outcome == nil || s.Outcome.Kind != OutcomeDrawAgreed {
		t.Fatalf("status = %s outcome = %v", s.Status, s.Outcome)
	}

	want := []DrawResult{DrawDeclined, DrawLapsed, DrawAccepted}
	if len(s.DrawHistory) != len(want) {
		t.Fatalf("draw history = %+v", s.DrawHistory)
	}
	for i, r := range want {
		if s.DrawHistory[i].Result != r {
			t.Fatalf("draw history[%d] = %s, want %s", i, s.DrawHistory[i].Result, r)
		}
	}
	if s.DrawHistory[2].By != board.Black || s.DrawHistory[2].Ply != 1 {
		t.Fatalf("last offer = %+v", s.DrawHistory[2])
	}
}

func TestThreefoldOnThirdOccurrence(t *testing.T) {
	s := newSession(t, "")
	shuffle := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3", "g8f6", "f3g1", "f6g8"}
	for i, mv := range shuffle {
		if s.Status != StatusActive {
			t.Fatalf("match ended early after %d plies: %s", i, s.Status)
		}
		playAll(t, s, mv)
	}
	if s.Status != StatusDraw || s.Outcome.Kind != OutcomeDrawRepetition {
		t.Fatalf("status = %s outcome = %v", s.Status, s.Outcome)
	}
}

func TestStalemateAndInsufficientMaterial(t *testing.T) {
	s := newSession(t, "7k/8/6K1/8/8/8/8/5Q2 w - - 0 1")
	playAll(t, s, "f1f7")
	if s.Status != StatusStalemate || s.Outcome.Decisive() {
		t.Fatalf("status = %s outcome = %v", s.Status, s.Outcome)
	}

	s = newSession(t, "4k3/8/8/8/8/8/3q4/4K3 w - - 0 1")
	if !s.InCheck {
		t.Fatalf("initial check not reported")
	}
	playAll(t, s, "e1d2")
	if s.Status != StatusDraw || s.Outcome.Kind != OutcomeDrawInsufficientMaterial {
		t.Fatalf("status = %s outcome = %v", s.Status, s.Outcome)
	}
}

func TestResignAndTimeout(t *testing.T) {
	s := newSession(t, "")
	if err := s.Resign(board.White); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	if s.Status != StatusResigned || *s.Outcome != Resigned(board.Black) {
		t.Fatalf("status = %s outcome = %v", s.Status, s.Outcome)
	}

	s = newSession(t, "")
	if err := s.OfferDraw(board.White); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}
	if err := s.ClaimTimeout(board.Black); err != nil {
		t.Fatalf("ClaimTimeout: %v", err)
	}
	if s.Status != StatusTimeout || *s.Outcome != Timeout(board.White) {
		t.Fatalf("status = %s outcome = %v", s.Status, s.Outcome)
	}
	if s.DrawOffer != nil || s.DrawHistory[0].Result != DrawLapsed {
		t.Fatalf("ending the match should lapse the pending offer")
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	s := newSession(t, "8/P7/8/8/8/8/8/k6K w - - 0 1")
	got, err := s.SubmitMove(board.White, uciMoveFor(t, "a7a8"))
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if got.Promotion != board.Queen {
		t.Fatalf("promotion = %s, want queen", got.Promotion)
	}
}

func TestMarkSettledOnce(t *testing.T) {
	s := newSession(t, "")
	if err := s.MarkSettled(nil); !errors.Is(err, ErrInvalidMatch) {
		t.Fatalf("settle active match err = %v", err)
	}
	if err := s.Resign(board.Black); err != nil {
		t.Fatalf("Resign: %v", err)
	}
	credits := []Credit{{Player: "alice", Amount: 200}}
	if err := s.MarkSettled(credits); err != nil {
		t.Fatalf("MarkSettled: %v", err)
	}
	if err := s.MarkSettled(credits); !errors.Is(err, ErrInvalidMatch) {
		t.Fatalf("second settle err = %v", err)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	s := newSession(t, "")
	playAll(t, s, "e2e4", "d7d5", "e4d5", "g8f6")
	if err := s.OfferDraw(board.White); err != nil {
		t.Fatalf("OfferDraw: %v", err)
	}

	raw, err := json.Marshal(s.ToRecord())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if diff := cmp.Diff(s.ToRecord(), back.ToRecord()); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
	if back.Current() != s.Current() || len(back.Positions) != len(s.Positions) {
		t.Fatalf("replayed history differs")
	}

	finished := newSession(t, "")
	playAll(t, finished, "f2f3", "e7e5", "g2g4", "d8h4")
	again, err := FromRecord(finished.ToRecord())
	if err != nil {
		t.Fatalf("FromRecord(finished): %v", err)
	}
	if *again.Outcome != Checkmate(board.Black) || again.Status != StatusCheckmate {
		t.Fatalf("outcome lost: %v %s", again.Outcome, again.Status)
	}
}

func TestFromRecordRejectsTampering(t *testing.T) {
	s := newSession(t, "")
	playAll(t, s, "e2e4", "e7e5")

	illegal := s.ToRecord()
	illegal.Moves = append(illegal.Moves, "e4e5")
	illegal.FEN = ""
	if _, err := FromRecord(illegal); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("illegal move err = %v", err)
	}

	wrongFEN := s.ToRecord()
	wrongFEN.FEN = board.StartFEN
	if _, err := FromRecord(wrongFEN); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("fen mismatch err = %v", err)
	}

	pot := s.ToRecord()
	pot.Pot = 1_000
	if _, err := FromRecord(pot); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("pot mismatch err = %v", err)
	}

	status := s.ToRecord()
	status.Status = StatusCheckmate
	if _, err := FromRecord(status); !errors.Is(err, ErrCorruptRecord) {
		t.Fatalf("status without outcome err = %v", err)
	}
}

func TestOutcomeJSON(t *testing.T) {
	raw, err := json.Marshal(Stalemate())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"kind":"stalemate"}` {
		t.Fatalf("stalemate json = %s", raw)
	}
	var o Outcome
	if err := json.Unmarshal([]byte(`{"kind":"resigned","winner":"black"}`), &o); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if o != Resigned(board.Black) {
		t.Fatalf("outcome = %v", o)
	}
	if err := json.Unmarshal([]byte(`{"kind":"abandoned"}`), &o); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}
