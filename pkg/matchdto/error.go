package matchdto

import (
	"context"
	"errors"

	"github.com/park285/wager-chess/internal/chess"
	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/chess/search"
	"github.com/park285/wager-chess/internal/match"
	"github.com/park285/wager-chess/internal/matchsvc"
	"github.com/park285/wager-chess/internal/wager"
	"github.com/park285/wager-chess/internal/wallet"
)

const (
	CodeIllegalMove          = "ILLEGAL_MOVE"
	CodeInvalidMove          = "INVALID_MOVE"
	CodeNotYourTurn          = "NOT_YOUR_TURN"
	CodeMatchNotFound        = "MATCH_NOT_FOUND"
	CodeMatchAlreadyTerminal = "MATCH_ALREADY_TERMINAL"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeNoPendingDrawOffer   = "NO_PENDING_DRAW_OFFER"
	CodeDrawOfferBySameSide  = "DRAW_OFFER_BY_SAME_SIDE"
	CodeDrawAlreadyPending   = "DRAW_ALREADY_PENDING"
	CodeNoLegalMoves         = "NO_LEGAL_MOVES"
	CodeSearchTimedOut       = "SEARCH_TIMED_OUT"
	CodeNotParticipant       = "NOT_PARTICIPANT"
	CodeNotComputerTurn      = "NOT_COMPUTER_TURN"
	CodeStaleSearch          = "STALE_SEARCH"
	CodeConflict             = "CONCURRENT_UPDATE"
	CodeSettlementFailed     = "SETTLEMENT_FAILED"
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnavailable          = "UNAVAILABLE"
	CodeInternal             = "INTERNAL"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "match service error"
}

var errorCodes = []struct {
	target    error
	code      string
	retryable bool
}{
	{board.ErrIllegalMove, CodeIllegalMove, false},
	{board.ErrInvalidMove, CodeInvalidMove, false},
	{board.ErrInvalidSquare, CodeInvalidMove, false},
	{board.ErrInvalidFEN, CodeInvalidRequest, false},
	{match.ErrNotYourTurn, CodeNotYourTurn, false},
	{match.ErrMatchAlreadyTerminal, CodeMatchAlreadyTerminal, false},
	{match.ErrNoPendingDrawOffer, CodeNoPendingDrawOffer, false},
	{match.ErrDrawOfferBySameSide, CodeDrawOfferBySameSide, false},
	{match.ErrDrawAlreadyPending, CodeDrawAlreadyPending, false},
	{match.ErrInvalidMatch, CodeInvalidRequest, false},
	{matchsvc.ErrMatchNotFound, CodeMatchNotFound, false},
	{matchsvc.ErrNotParticipant, CodeNotParticipant, false},
	{matchsvc.ErrNotComputerTurn, CodeNotComputerTurn, false},
	{matchsvc.ErrStaleSearch, CodeStaleSearch, true},
	{matchsvc.ErrVersionConflict, CodeConflict, true},
	{matchsvc.ErrSettlementFailed, CodeSettlementFailed, true},
	{matchsvc.ErrInvalidRequest, CodeInvalidRequest, false},
	{wallet.ErrInsufficientFunds, CodeInsufficientFunds, false},
	{wallet.ErrInvalidAmount, CodeInvalidRequest, false},
	{wager.ErrInvalidStake, CodeInvalidRequest, false},
	{search.ErrNoLegalMoves, CodeNoLegalMoves, false},
	{search.ErrSearchTimedOut, CodeSearchTimedOut, true},
	{chess.ErrUnknownPreset, CodeInvalidRequest, false},
	{chess.ErrPoolClosed, CodeUnavailable, false},
	{context.DeadlineExceeded, CodeUnavailable, true},
	{context.Canceled, CodeUnavailable, true},
}

// FromError maps an error returned by the match service to a stable code.
// A nil error yields nil.
func FromError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de DomainError
	if errors.As(err, &de) {
		return &de
	}
	for _, c := range errorCodes {
		if errors.Is(err, c.target) {
			return &DomainError{Code: c.code, Message: err.Error(), Retryable: c.retryable}
		}
	}
	return &DomainError{Code: CodeInternal, Message: err.Error()}
}
