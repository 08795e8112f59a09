package matchdto

import (
	"fmt"
	"strings"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/matchsvc"
)

// MoveRequest is the wire form of a move: {"from":"e7","to":"e8","promotion":"q"}.
// An omitted promotion on a promoting move means queen.
type MoveRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// ParseMoveRequest accepts UCI text such as "e2e4" or "e7e8n".
func ParseMoveRequest(text string) (MoveRequest, error) {
	t := strings.ToLower(strings.TrimSpace(text))
	if len(t) != 4 && len(t) != 5 {
		return MoveRequest{}, fmt.Errorf("%w: %q", board.ErrInvalidMove, text)
	}
	return MoveRequest{From: t[:2], To: t[2:4], Promotion: t[4:]}, nil
}

func (r MoveRequest) ToService() (matchsvc.MoveRequest, error) {
	from, err := board.ParseSquare(r.From)
	if err != nil {
		return matchsvc.MoveRequest{}, err
	}
	to, err := board.ParseSquare(r.To)
	if err != nil {
		return matchsvc.MoveRequest{}, err
	}
	out := matchsvc.MoveRequest{From: from, To: to}
	if p := strings.TrimSpace(r.Promotion); p != "" {
		kind, err := board.ParsePieceKind(p)
		if err != nil {
			return matchsvc.MoveRequest{}, fmt.Errorf("%w: promotion %q", board.ErrInvalidMove, p)
		}
		out.Promotion = kind
	}
	return out, nil
}
