package chess

import (
	"strconv"
	"strings"
	"time"

	"github.com/park285/wager-chess/internal/chess/search"
)

func limitsFromPreset(p DifficultyPreset) search.Limits {
	return search.Limits{
		Depth:    p.DepthCap,
		Nodes:    int64(p.NodeCap),
		MoveTime: time.Duration(p.MoveTimeMillis) * time.Millisecond,
	}
}

// FormatLimits renders a preset's budget as "depth 3 movetime 3000 nodes
// 400000", omitting unset caps.
func FormatLimits(p DifficultyPreset) (string, error) {
	if err := ValidatePreset(p); err != nil {
		return "", err
	}
	args := []string{"depth", strconv.Itoa(p.DepthCap)}
	if p.MoveTimeMillis > 0 {
		args = append(args, "movetime", strconv.Itoa(p.MoveTimeMillis))
	}
	if p.NodeCap > 0 {
		args = append(args, "nodes", strconv.Itoa(p.NodeCap))
	}
	return strings.Join(args, " "), nil
}
