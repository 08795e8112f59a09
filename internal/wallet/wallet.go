// Package wallet moves coins between player balances. Every mutation carries
// a reference; replaying a reference that was already applied is a no-op, so
// callers may retry settlement after a crash without paying twice.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidAccount    = errors.New("invalid account")
)

type Wallet interface {
	Debit(ctx context.Context, player string, amount int64, ref string) error
	Credit(ctx context.Context, player string, amount int64, ref string) error
	Balance(ctx context.Context, player string) (int64, error)
}

func checkArgs(player string, amount int64, ref string) error {
	if strings.TrimSpace(player) == "" {
		return fmt.Errorf("%w: player required", ErrInvalidAccount)
	}
	if amount <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	if strings.TrimSpace(ref) == "" {
		return fmt.Errorf("%w: reference required", ErrInvalidAmount)
	}
	return nil
}

// Memory is an in-process wallet for tests and the local CLI.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int64
	applied  map[string]struct{}
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[string]int64), applied: make(map[string]struct{})}
}

// Deposit seeds a balance outside the reference log.
func (m *Memory) Deposit(player string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[player] += amount
}

func (m *Memory) Debit(_ context.Context, player string, amount int64, ref string) error {
	if err := checkArgs(player, amount, ref); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applied[ref]; ok {
		return nil
	}
	if m.balances[player] < amount {
		return fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientFunds, player, m.balances[player], amount)
	}
	m.balances[player] -= amount
	m.applied[ref] = struct{}{}
	return nil
}

func (m *Memory) Credit(_ context.Context, player string, amount int64, ref string) error {
	if err := checkArgs(player, amount, ref); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.applied[ref]; ok {
		return nil
	}
	m.balances[player] += amount
	m.applied[ref] = struct{}{}
	return nil
}

func (m *Memory) Balance(_ context.Context, player string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[player], nil
}
