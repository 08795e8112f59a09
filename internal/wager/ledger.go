// Package wager turns match outcomes into coin movements. It never touches
// balances itself; it only produces the debit and credit instructions that a
// wallet carries out.
package wager

import (
	"errors"
	"fmt"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/match"
)

var (
	ErrPotMismatch  = errors.New("pot does not equal stakes")
	ErrInvalidStake = errors.New("invalid stake")
	ErrNotFinished  = errors.New("match has no outcome")
)

// Stake is one side's contribution to the pot.
type Stake struct {
	Player string
	Amount int64
}

type Credit = match.Credit

// Debit is an escrow instruction taken at match creation.
type Debit struct {
	Player string
	Amount int64
}

// Ledger carries the house fee policy. The zero value takes no fee.
type Ledger struct {
	// FeeBasisPoints is taken from decisive pots only; 250 = 2.5%.
	FeeBasisPoints int64
	FeeAccount     string
}

const maxBasisPoints = 10_000

func (l Ledger) validate() error {
	if l.FeeBasisPoints < 0 || l.FeeBasisPoints > maxBasisPoints {
		return fmt.Errorf("fee basis points %d out of range 0-%d", l.FeeBasisPoints, maxBasisPoints)
	}
	if l.FeeBasisPoints > 0 && l.FeeAccount == "" {
		return errors.New("fee account required when a fee is set")
	}
	return nil
}

// Escrow returns the debits to take before a match starts. Zero stakes
// produce no debit.
func (l Ledger) Escrow(white, black Stake) ([]Debit, error) {
	if err := checkStakes(white, black); err != nil {
		return nil, err
	}
	out := make([]Debit, 0, 2)
	for _, s := range []Stake{white, black} {
		if s.Amount > 0 {
			out = append(out, Debit{Player: s.Player, Amount: s.Amount})
		}
	}
	return out, nil
}

// ComputeSettlement pays the whole pot, less the fee, to the winner of a
// decisive outcome and returns each stake on a draw. The credits always sum
// to pot. Zero-amount lines are omitted and each player gets at most one
// line, so a fee account that also won receives a single credit.
func (l Ledger) ComputeSettlement(outcome match.Outcome, pot int64, white, black Stake) ([]Credit, error) {
	if err := l.validate(); err != nil {
		return nil, err
	}
	if err := checkStakes(white, black); err != nil {
		return nil, err
	}
	if pot != white.Amount+black.Amount {
		return nil, fmt.Errorf("%w: pot %d, stakes %d+%d", ErrPotMismatch, pot, white.Amount, black.Amount)
	}

	credits := make([]Credit, 0, 2)
	add := func(player string, amount int64) {
		if amount <= 0 {
			return
		}
		for i := range credits {
			if credits[i].Player == player {
				credits[i].Amount += amount
				return
			}
		}
		credits = append(credits, Credit{Player: player, Amount: amount})
	}

	if !outcome.Decisive() {
		add(white.Player, white.Amount)
		add(black.Player, black.Amount)
		return credits, nil
	}

	winner := white
	if outcome.Winner != board.White {
		winner = black
	}
	fee := pot * l.FeeBasisPoints / maxBasisPoints
	add(winner.Player, pot-fee)
	add(l.FeeAccount, fee)
	return credits, nil
}

// Settle computes the payout for a finished session.
func (l Ledger) Settle(s *match.Session) ([]Credit, error) {
	if s.Outcome == nil {
		return nil, ErrNotFinished
	}
	return l.ComputeSettlement(*s.Outcome, s.Pot,
		Stake{Player: s.White.ID, Amount: s.WhiteStake},
		Stake{Player: s.Black.ID, Amount: s.BlackStake},
	)
}

func checkStakes(white, black Stake) error {
	if white.Amount < 0 || black.Amount < 0 {
		return fmt.Errorf("%w: negative amount", ErrInvalidStake)
	}
	if white.Player == "" || black.Player == "" {
		return fmt.Errorf("%w: player required", ErrInvalidStake)
	}
	return nil
}

// Total sums credit amounts.
func Total(credits []Credit) int64 {
	var n int64
	for _, c := range credits {
		n += c.Amount
	}
	return n
}
