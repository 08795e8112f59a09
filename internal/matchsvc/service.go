// Package matchsvc is the entry point callers use to run wagered matches.
// It owns escrow, per-match serialisation, the computer opponent's turns
// and settlement, and tells the archive and event sinks what happened.
package matchsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/wager-chess/internal/archive"
	"github.com/park285/wager-chess/internal/chess"
	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/events"
	"github.com/park285/wager-chess/internal/match"
	"github.com/park285/wager-chess/internal/obslog"
	"github.com/park285/wager-chess/internal/wager"
	"github.com/park285/wager-chess/internal/wallet"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrNotParticipant   = errors.New("player is not in this match")
	ErrNotComputerTurn  = errors.New("not the computer's turn")
	ErrStaleSearch      = errors.New("match changed while the computer was thinking")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrAlreadySettled   = errors.New("match already settled")
	ErrSettlementFailed = errors.New("settlement failed")
)

const DefaultHouseAccount = "house"

// MoveChooser picks the computer's move; *chess.Engine implements it.
type MoveChooser interface {
	Choose(ctx context.Context, req chess.ChooseRequest) (chess.ChooseResult, error)
}

type Config struct {
	Store   Store
	Wallet  wallet.Wallet
	Engine  MoveChooser
	Ledger  wager.Ledger
	Archive archive.Archive
	Events  events.Sink
	// HouseAccount plays the computer side and backs its stake.
	HouseAccount      string
	DefaultDifficulty string
	Logger            *zap.Logger
	NewID             func() string
}

type Service struct {
	store   Store
	wallet  wallet.Wallet
	engine  MoveChooser
	ledger  wager.Ledger
	archive archive.Archive
	events  events.Sink
	house   string
	level   string
	logger  *zap.Logger
	newID   func() string
	locks   *keyedMutex
}

func New(cfg Config) (*Service, error) {
	if cfg.Store == nil || cfg.Wallet == nil || cfg.Engine == nil {
		return nil, fmt.Errorf("%w: store, wallet and engine are required", ErrInvalidRequest)
	}
	s := &Service{
		store:   cfg.Store,
		wallet:  cfg.Wallet,
		engine:  cfg.Engine,
		ledger:  cfg.Ledger,
		archive: cfg.Archive,
		events:  cfg.Events,
		house:   strings.TrimSpace(cfg.HouseAccount),
		level:   cfg.DefaultDifficulty,
		logger:  cfg.Logger,
		newID:   cfg.NewID,
		locks:   newKeyedMutex(),
	}
	if s.house == "" {
		s.house = DefaultHouseAccount
	}
	if s.level == "" {
		s.level = chess.DefaultDifficulty
	}
	if _, err := chess.GetPreset(s.level); err != nil {
		return nil, err
	}
	if s.events == nil {
		s.events = events.Nop()
	}
	if s.logger == nil {
		s.logger = obslog.L()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s, nil
}

// Result is the outcome of one successful operation.
type Result struct {
	Session *match.Session
	// Move is set for move operations.
	Move *board.Move
	// Settlement is non-nil once the match has been paid out.
	Settlement []match.Credit
	// SettlementPending means the match ended but a wallet credit failed;
	// Settle retries it.
	SettlementPending bool
	Event             events.StateUpdate
	Search            *chess.ChooseResult
}

type CreateRequest struct {
	White string
	Black string
	// Computer names the side played by the engine. That side's id is the
	// house account and White/Black for it is ignored.
	Computer   *board.Color
	Stake      int64
	Difficulty string
	// FEN optionally starts from a custom position.
	FEN string
}

func (s *Service) CreateMatch(ctx context.Context, req CreateRequest) (Result, error) {
	if req.Stake < 0 {
		return Result{}, fmt.Errorf("%w: stake must be >= 0", ErrInvalidRequest)
	}
	white := match.Participant{ID: strings.TrimSpace(req.White)}
	black := match.Participant{ID: strings.TrimSpace(req.Black)}
	difficulty := ""
	if req.Computer != nil {
		house := match.Participant{ID: s.house, Computer: true}
		if *req.Computer == board.White {
			white = house
		} else {
			black = house
		}
		name := req.Difficulty
		if name == "" {
			name = s.level
		}
		preset, err := chess.GetPreset(name)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		difficulty = preset.Name
	}
	if (!white.Computer && white.ID == s.house) || (!black.Computer && black.ID == s.house) {
		return Result{}, fmt.Errorf("%w: the house account cannot play", ErrInvalidRequest)
	}

	cfg := match.Config{
		ID:         s.newID(),
		White:      white,
		Black:      black,
		WhiteStake: req.Stake,
		BlackStake: req.Stake,
		Difficulty: difficulty,
	}
	if strings.TrimSpace(req.FEN) != "" {
		pos, err := board.ParseFEN(req.FEN)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		cfg.Initial = &pos
	}
	sess, err := match.New(cfg)
	if err != nil {
		return Result{}, err
	}

	unlock, err := s.locks.Lock(ctx, sess.ID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	taken, err := s.escrow(ctx, sess)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Save(ctx, sess, 0); err != nil {
		s.refund(ctx, sess.ID, taken)
		return Result{}, fmt.Errorf("save new match: %w", err)
	}

	s.logger.Info("match_create",
		zap.String("match_id", sess.ID),
		zap.String("white", sess.White.ID),
		zap.String("black", sess.Black.ID),
		zap.Int64("pot", sess.Pot),
		zap.String("difficulty", sess.Difficulty),
	)
	ev := s.publish(ctx, events.KindCreated, sess)
	return Result{Session: sess.Clone(), Event: ev}, nil
}

func escrowRef(matchID, player string) string { return "escrow:" + matchID + ":" + player }
func refundRef(matchID, player string) string { return "refund:" + matchID + ":" + player }
func settleRef(matchID, player string) string { return "settle:" + matchID + ":" + player }

// escrow debits both stakes. A failed debit returns the ones already taken.
func (s *Service) escrow(ctx context.Context, sess *match.Session) ([]wager.Debit, error) {
	debits, err := s.ledger.Escrow(
		wager.Stake{Player: sess.White.ID, Amount: sess.WhiteStake},
		wager.Stake{Player: sess.Black.ID, Amount: sess.BlackStake},
	)
	if err != nil {
		return nil, err
	}
	taken := make([]wager.Debit, 0, len(debits))
	for _, d := range debits {
		if err := s.wallet.Debit(ctx, d.Player, d.Amount, escrowRef(sess.ID, d.Player)); err != nil {
			s.logger.Warn("match_escrow_failed",
				zap.String("match_id", sess.ID),
				zap.String("player", d.Player),
				zap.Int64("amount", d.Amount),
				zap.Error(err),
			)
			s.refund(ctx, sess.ID, taken)
			return nil, err
		}
		taken = append(taken, d)
	}
	return taken, nil
}

func (s *Service) refund(ctx context.Context, matchID string, taken []wager.Debit) {
	for _, d := range taken {
		if err := s.wallet.Credit(ctx, d.Player, d.Amount, refundRef(matchID, d.Player)); err != nil {
			s.logger.Error("match_refund_failed",
				zap.String("match_id", matchID),
				zap.String("player", d.Player),
				zap.Int64("amount", d.Amount),
				zap.Error(err),
			)
		}
	}
}

// MoveRequest is a move submission; Promotion is optional.
type MoveRequest struct {
	From      board.Square
	To        board.Square
	Promotion board.PieceKind
}

func (s *Service) SubmitMove(ctx context.Context, matchID, playerID string, req MoveRequest) (Result, error) {
	var played board.Move
	res, err := s.mutate(ctx, matchID, playerID, func(sess *match.Session, color board.Color) (events.Kind, error) {
		m, err := sess.SubmitMove(color, board.Move{From: req.From, To: req.To, Promotion: req.Promotion})
		if err != nil {
			return "", err
		}
		played = m
		return events.KindMove, nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Move = &played
	return res, nil
}

// OfferDraw records an offer. The computer declines every offer at once.
func (s *Service) OfferDraw(ctx context.Context, matchID, playerID string) (Result, error) {
	return s.mutate(ctx, matchID, playerID, func(sess *match.Session, color board.Color) (events.Kind, error) {
		if err := sess.OfferDraw(color); err != nil {
			return "", err
		}
		if sess.Player(color.Other()).Computer {
			if err := sess.RespondDraw(color.Other(), false); err != nil {
				return "", err
			}
			return events.KindDrawDeclined, nil
		}
		return events.KindDrawOffered, nil
	})
}

func (s *Service) RespondDraw(ctx context.Context, matchID, playerID string, accept bool) (Result, error) {
	return s.mutate(ctx, matchID, playerID, func(sess *match.Session, color board.Color) (events.Kind, error) {
		if err := sess.RespondDraw(color, accept); err != nil {
			return "", err
		}
		return events.KindDrawDeclined, nil
	})
}

func (s *Service) Resign(ctx context.Context, matchID, playerID string) (Result, error) {
	return s.mutate(ctx, matchID, playerID, func(sess *match.Session, color board.Color) (events.Kind, error) {
		return events.KindFinished, sess.Resign(color)
	})
}

// ClaimTimeout ends the match against flagged. The caller owns the clocks
// and is trusted; no participant check is made.
func (s *Service) ClaimTimeout(ctx context.Context, matchID string, flagged board.Color) (Result, error) {
	return s.mutate(ctx, matchID, "", func(sess *match.Session, _ board.Color) (events.Kind, error) {
		return events.KindFinished, sess.ClaimTimeout(flagged)
	})
}

// RequestAIMove searches outside the match lock, then applies the move only
// if nobody touched the match in the meantime.
func (s *Service) RequestAIMove(ctx context.Context, matchID string) (Result, error) {
	unlock, err := s.locks.Lock(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	sess, err := s.store.Load(ctx, matchID)
	unlock()
	if err != nil {
		return Result{}, err
	}
	if sess.Status.Terminal() {
		return Result{}, match.ErrMatchAlreadyTerminal
	}
	cc, ok := sess.ComputerColor()
	if !ok || cc != sess.Turn() {
		return Result{}, ErrNotComputerTurn
	}
	seen := sess.Version

	choice, err := s.engine.Choose(ctx, chess.ChooseRequest{PresetName: sess.Difficulty, Position: sess.Current()})
	if err != nil {
		return Result{}, err
	}

	var played board.Move
	res, err := s.mutate(ctx, matchID, "", func(cur *match.Session, _ board.Color) (events.Kind, error) {
		if cur.Version != seen {
			return "", ErrStaleSearch
		}
		m, err := cur.SubmitMove(cc, choice.Move)
		if err != nil {
			return "", err
		}
		played = m
		return events.KindMove, nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Move = &played
	res.Search = &choice
	return res, nil
}

func (s *Service) Get(ctx context.Context, matchID string) (*match.Session, error) {
	return s.store.Load(ctx, matchID)
}

// LegalMoves lists the side to move's legal moves, optionally only those
// from one square (board.NoSquare for all).
func (s *Service) LegalMoves(ctx context.Context, matchID string, from board.Square) ([]board.Move, error) {
	sess, err := s.store.Load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if sess.Status.Terminal() {
		return []board.Move{}, nil
	}
	if from == board.NoSquare {
		return board.LegalMoves(sess.Current()), nil
	}
	return board.LegalMovesFrom(sess.Current(), from), nil
}

func (s *Service) ActiveByPlayer(ctx context.Context, playerID string) ([]*match.Session, error) {
	ids, err := s.store.ActiveIDs(ctx, playerID)
	if err != nil {
		return nil, err
	}
	out := make([]*match.Session, 0, len(ids))
	for _, id := range ids {
		sess, err := s.store.Load(ctx, id)
		if errors.Is(err, ErrMatchNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, nil
}

// Settle retries the payout of a finished match whose settlement failed.
func (s *Service) Settle(ctx context.Context, matchID string) (Result, error) {
	unlock, err := s.locks.Lock(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	sess, err := s.store.Load(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	if !sess.Status.Terminal() {
		return Result{}, fmt.Errorf("%w: match %s is still active", ErrInvalidRequest, matchID)
	}
	if sess.Settled {
		return Result{}, fmt.Errorf("%w: %w", match.ErrMatchAlreadyTerminal, ErrAlreadySettled)
	}
	if err := s.settle(ctx, sess); err != nil {
		return Result{}, err
	}
	ev := s.publish(ctx, events.KindSettled, sess)
	return Result{Session: sess.Clone(), Settlement: sess.Settlement, Event: ev}, nil
}

// mutate runs fn on a copy of the stored session under the match lock and
// commits it. playerID "" skips the participant check (system callers).
func (s *Service) mutate(ctx context.Context, matchID, playerID string, fn func(*match.Session, board.Color) (events.Kind, error)) (Result, error) {
	unlock, err := s.locks.Lock(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	defer unlock()

	stored, err := s.store.Load(ctx, matchID)
	if err != nil {
		return Result{}, err
	}
	var color board.Color
	if playerID != "" {
		c, ok := stored.ColorOf(playerID)
		if !ok || stored.Player(c).Computer {
			return Result{}, ErrNotParticipant
		}
		color = c
	}

	sess := stored.Clone()
	kind, err := fn(sess, color)
	if err != nil {
		return Result{}, err
	}
	if err := s.store.Save(ctx, sess, stored.Version); err != nil {
		return Result{}, err
	}
	if m, ok := sess.LastMove(); ok && len(sess.Moves) > len(stored.Moves) {
		s.logger.Info("match_move",
			zap.String("match_id", sess.ID),
			zap.String("move", m.UCI()),
			zap.String("status", string(sess.Status)),
			zap.Bool("in_check", sess.InCheck),
			zap.Int64("version", sess.Version),
		)
	}

	res := Result{}
	if sess.Status.Terminal() {
		kind = events.KindFinished
		s.logger.Info("match_finish",
			zap.String("match_id", sess.ID),
			zap.String("outcome", sess.Outcome.String()),
			zap.Int("plies", len(sess.Moves)),
		)
		if err := s.settle(ctx, sess); err != nil {
			res.SettlementPending = true
			kind = events.KindSettleFailure
		}
	}
	res.Session = sess.Clone()
	res.Settlement = sess.Settlement
	res.Event = s.publish(ctx, kind, sess)
	return res, nil
}

// settle pays out a terminal, unsettled session that is already saved.
// Credits carry per-player references, so a retry after a partial failure
// never pays twice.
func (s *Service) settle(ctx context.Context, sess *match.Session) error {
	credits, err := s.ledger.Settle(sess)
	if err != nil {
		return s.settleFailed(sess, err)
	}
	for _, c := range credits {
		if err := s.wallet.Credit(ctx, c.Player, c.Amount, settleRef(sess.ID, c.Player)); err != nil {
			return s.settleFailed(sess, err)
		}
	}
	settled := sess.Clone()
	if err := settled.MarkSettled(credits); err != nil {
		return s.settleFailed(sess, err)
	}
	if err := s.store.Save(ctx, settled, sess.Version); err != nil {
		return s.settleFailed(sess, err)
	}
	*sess = *settled
	s.logger.Info("match_settle",
		zap.String("match_id", sess.ID),
		zap.Int64("pot", sess.Pot),
		zap.Any("credits", credits),
	)
	s.archiveResult(ctx, sess)
	return nil
}

func (s *Service) settleFailed(sess *match.Session, err error) error {
	s.logger.Error("match_settle_failed", zap.String("match_id", sess.ID), zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrSettlementFailed, sess.ID, err)
}

func (s *Service) archiveResult(ctx context.Context, sess *match.Session) {
	if s.archive == nil {
		return
	}
	r, err := archive.FromSession(sess)
	if err == nil {
		err = s.archive.SaveResult(ctx, r)
	}
	if err != nil {
		s.logger.Error("match_archive_failed", zap.String("match_id", sess.ID), zap.Error(err))
	}
}

func (s *Service) publish(ctx context.Context, kind events.Kind, sess *match.Session) events.StateUpdate {
	u := events.FromSession(kind, sess)
	if err := s.events.Publish(ctx, u); err != nil {
		s.logger.Warn("match_event_failed",
			zap.String("match_id", sess.ID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
	}
	return u
}
