package chess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/park285/wager-chess/internal/chess/board"
)

func TestGetPresetTiers(t *testing.T) {
	cases := map[string]int{
		"easy":     2,
		"medium":   3,
		"hard":     4,
		"":         3,
		"Beginner": 2,
		"master":   4,
	}
	for name, depth := range cases {
		p, err := GetPreset(name)
		if err != nil {
			t.Fatalf("GetPreset(%q): %v", name, err)
		}
		if p.DepthCap != depth {
			t.Fatalf("GetPreset(%q).DepthCap = %d, want %d", name, p.DepthCap, depth)
		}
	}
	if _, err := GetPreset("grandmaster"); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("unknown preset err = %v", err)
	}
}

func TestValidatePreset(t *testing.T) {
	bad := []DifficultyPreset{
		{Name: "", DepthCap: 2},
		{Name: "x", DepthCap: 0},
		{Name: "x", DepthCap: 99},
		{Name: "x", DepthCap: 2, MoveTimeMillis: -1},
		{Name: "x", DepthCap: 2, NodeCap: -5},
	}
	for _, p := range bad {
		if err := ValidatePreset(p); !errors.Is(err, ErrInvalidPreset) {
			t.Fatalf("ValidatePreset(%+v) = %v", p, err)
		}
	}
	s, err := FormatLimits(DifficultyPreset{Name: "x", DepthCap: 3, MoveTimeMillis: 250})
	if err != nil {
		t.Fatalf("FormatLimits: %v", err)
	}
	if s != "depth 3 movetime 250" {
		t.Fatalf("FormatLimits = %q", s)
	}
}

func TestLoadPresetFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	doc := "presets:\n  - name: Blitz\n    depth: 1\n    move_time_ms: 100\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	names, err := LoadPresetFile(path)
	if err != nil {
		t.Fatalf("LoadPresetFile: %v", err)
	}
	if len(names) != 1 || names[0] != "blitz" {
		t.Fatalf("names = %v", names)
	}
	p, err := GetPreset("blitz")
	if err != nil || p.DepthCap != 1 || p.MoveTimeMillis != 100 {
		t.Fatalf("GetPreset(blitz) = %+v, %v", p, err)
	}

	badPath := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badPath, []byte("presets:\n  - name: broken\n    depth: 0\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPresetFile(badPath); !errors.Is(err, ErrInvalidPreset) {
		t.Fatalf("invalid file err = %v", err)
	}
	if _, err := GetPreset("broken"); err == nil {
		t.Fatalf("invalid preset must not be installed")
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	pool := NewPool(PoolConfig{PerPresetCapacity: 1})
	ctx := context.Background()
	w, err := pool.Acquire(ctx, "easy")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer cancel()
	if _, err := pool.Acquire(waitCtx, "easy"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second acquire err = %v, want deadline exceeded", err)
	}
	other, err := pool.Acquire(ctx, "hard")
	if err != nil {
		t.Fatalf("other preset should have its own bucket: %v", err)
	}
	pool.Release(other)

	done := make(chan *Worker, 1)
	go func() {
		got, err := pool.Acquire(ctx, "easy")
		if err != nil {
			done <- nil
			return
		}
		done <- got
	}()
	pool.Release(w)
	select {
	case got := <-done:
		if got == nil || got.id != w.id {
			t.Fatalf("expected released worker to be reused")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("acquire did not resume after release")
	}

	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := pool.Acquire(ctx, "easy"); !errors.Is(err, ErrPoolClosed) {
		t.Fatalf("acquire after close err = %v", err)
	}
}

func TestEngineChoose(t *testing.T) {
	e := NewEngine(EngineConfig{Workers: 2})
	defer e.Close()
	p, err := board.ParseFEN("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	res, err := e.Choose(context.Background(), ChooseRequest{PresetName: "easy", Position: p})
	if err != nil {
		t.Fatalf("Choose: %v", err)
	}
	if res.Move.UCI() != "a1a8" || res.Preset.Name != Easy {
		t.Fatalf("Choose = %s with %s", res.Move.UCI(), res.Preset.Name)
	}
	if st := e.Stats()[Easy]; st.Searches != 1 || st.Workers != 1 {
		t.Fatalf("stats = %+v", st)
	}

	if _, err := e.Choose(context.Background(), ChooseRequest{PresetName: "nope", Position: p}); !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("unknown preset err = %v", err)
	}
}

func TestEngineStatsAccumulatePerPreset(t *testing.T) {
	e := NewEngine(EngineConfig{Workers: 1})
	defer e.Close()
	p := board.StartingPosition()
	var nodes int64
	for i := 0; i < 3; i++ {
		res, err := e.Choose(context.Background(), ChooseRequest{PresetName: Easy, Position: p})
		if err != nil {
			t.Fatalf("Choose: %v", err)
		}
		nodes += res.Nodes
	}
	st := e.Stats()[Easy]
	if st.Searches != 3 || st.Workers != 1 || st.Nodes != nodes {
		t.Fatalf("stats = %+v, want 3 searches on 1 worker with %d nodes", st, nodes)
	}
}
