package match

import (
	"encoding/json"
	"fmt"

	"github.com/park285/wager-chess/internal/chess/board"
)

// Status is the lifecycle state of a match. Every status other than
// StatusActive is terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCheckmate Status = "CHECKMATE"
	StatusStalemate Status = "STALEMATE"
	StatusDraw      Status = "DRAW"
	StatusResigned  Status = "RESIGNED"
	StatusTimeout   Status = "TIMEOUT"
)

func (s Status) Terminal() bool { return s != StatusActive }

type OutcomeKind string

const (
	OutcomeCheckmate                OutcomeKind = "checkmate"
	OutcomeStalemate                OutcomeKind = "stalemate"
	OutcomeDrawAgreed               OutcomeKind = "draw_agreed"
	OutcomeDrawRepetition           OutcomeKind = "draw_repetition"
	OutcomeDrawInsufficientMaterial OutcomeKind = "draw_insufficient_material"
	OutcomeResigned                 OutcomeKind = "resigned"
	OutcomeTimeout                  OutcomeKind = "timeout"
)

// Outcome is how a match ended. Winner is meaningful only when Decisive.
type Outcome struct {
	Kind   OutcomeKind
	Winner board.Color
}

func Checkmate(winner board.Color) Outcome { return Outcome{Kind: OutcomeCheckmate, Winner: winner} }
func Resigned(winner board.Color) Outcome  { return Outcome{Kind: OutcomeResigned, Winner: winner} }
func Timeout(winner board.Color) Outcome   { return Outcome{Kind: OutcomeTimeout, Winner: winner} }
func Stalemate() Outcome                   { return Outcome{Kind: OutcomeStalemate} }
func DrawAgreed() Outcome                  { return Outcome{Kind: OutcomeDrawAgreed} }
func DrawRepetition() Outcome              { return Outcome{Kind: OutcomeDrawRepetition} }
func DrawInsufficientMaterial() Outcome    { return Outcome{Kind: OutcomeDrawInsufficientMaterial} }

func (o Outcome) Decisive() bool {
	switch o.Kind {
	case OutcomeCheckmate, OutcomeResigned, OutcomeTimeout:
		return true
	}
	return false
}

func (o Outcome) Status() Status {
	switch o.Kind {
	case OutcomeCheckmate:
		return StatusCheckmate
	case OutcomeStalemate:
		return StatusStalemate
	case OutcomeResigned:
		return StatusResigned
	case OutcomeTimeout:
		return StatusTimeout
	default:
		return StatusDraw
	}
}

func (o Outcome) String() string {
	if o.Decisive() {
		return fmt.Sprintf("%s (%s wins)", o.Kind, o.Winner)
	}
	return string(o.Kind)
}

type outcomeJSON struct {
	Kind   OutcomeKind `json:"kind"`
	Winner string      `json:"winner,omitempty"`
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	out := outcomeJSON{Kind: o.Kind}
	if o.Decisive() {
		out.Winner = o.Winner.String()
	}
	return json.Marshal(out)
}

func (o *Outcome) UnmarshalJSON(b []byte) error {
	var in outcomeJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	res := Outcome{Kind: in.Kind}
	switch in.Kind {
	case OutcomeCheckmate, OutcomeResigned, OutcomeTimeout:
		w, err := board.ParseColor(in.Winner)
		if err != nil {
			return fmt.Errorf("outcome %s: %w", in.Kind, err)
		}
		res.Winner = w
	case OutcomeStalemate, OutcomeDrawAgreed, OutcomeDrawRepetition, OutcomeDrawInsufficientMaterial:
	default:
		return fmt.Errorf("unknown outcome kind %q", in.Kind)
	}
	*o = res
	return nil
}
