package chess

import (
	"context"
	"errors"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
	"github.com/park285/wager-chess/internal/chess/search"
	"go.uber.org/zap"
)

var (
	ErrUnknownPreset = errors.New("unknown chess preset")
	ErrInvalidPreset = errors.New("invalid chess preset")
)

// Engine runs searches for the computer opponent on a bounded worker pool.
type Engine struct {
	pool   *Pool
	logger *zap.Logger
}

type EngineConfig struct {
	Workers int
	Logger  *zap.Logger
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		pool:   NewPool(PoolConfig{PerPresetCapacity: cfg.Workers}),
		logger: logger,
	}
}

type ChooseRequest struct {
	PresetName string
	Position   board.Position
}

type ChooseResult struct {
	Preset   DifficultyPreset
	Move     board.Move
	Score    int
	Depth    int
	Nodes    int64
	TimedOut bool
	Duration time.Duration
	Waited   time.Duration
}

// Choose picks the computer's move. Budget exhaustion is not an error: the
// result carries TimedOut and the deepest completed iteration's move.
func (e *Engine) Choose(ctx context.Context, req ChooseRequest) (ChooseResult, error) {
	preset, err := GetPreset(req.PresetName)
	if err != nil {
		return ChooseResult{}, err
	}

	queued := time.Now()
	w, err := e.pool.Acquire(ctx, preset.Name)
	if err != nil {
		return ChooseResult{}, err
	}
	defer e.pool.Release(w)
	waited := time.Since(queued)

	res, err := search.ChooseMove(ctx, req.Position, limitsFromPreset(preset))
	if err != nil {
		return ChooseResult{}, err
	}
	w.bucket.record(res.Nodes)

	if res.TimedOut {
		e.logger.Warn("search_budget_exhausted",
			zap.String("preset", preset.Name),
			zap.Int("completed_depth", res.Depth),
			zap.Int64("nodes", res.Nodes),
			zap.Duration("elapsed", res.Elapsed),
			zap.Error(res.Err()),
		)
	}
	e.logger.Debug("search_done",
		zap.String("preset", preset.Name),
		zap.Int("worker", w.id),
		zap.String("move", res.Move.UCI()),
		zap.Int("score", res.Score),
		zap.Int("depth", res.Depth),
		zap.Int64("nodes", res.Nodes),
		zap.Duration("waited", waited),
	)

	return ChooseResult{
		Preset:   preset,
		Move:     res.Move,
		Score:    res.Score,
		Depth:    res.Depth,
		Nodes:    res.Nodes,
		TimedOut: res.TimedOut,
		Duration: res.Elapsed,
		Waited:   waited,
	}, nil
}

func (e *Engine) Stats() map[string]PoolStats { return e.pool.Stats() }

func (e *Engine) Close() error {
	if e.pool == nil {
		return nil
	}
	return e.pool.Close()
}
