package chess

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

// DifficultyPreset bounds the computer opponent's search. DepthCap counts
// plies including the computer's own move.
type DifficultyPreset struct {
	Name           string `yaml:"name"`
	DepthCap       int    `yaml:"depth"`
	MoveTimeMillis int    `yaml:"move_time_ms"`
	NodeCap        int    `yaml:"node_cap"`
}

const (
	Easy   = "easy"
	Medium = "medium"
	Hard   = "hard"

	DefaultDifficulty = Medium
	maxDepthCap       = 8
)

var presetMu sync.RWMutex

var DefaultPresets = map[string]DifficultyPreset{
	Easy: {
		Name:           Easy,
		DepthCap:       2,
		MoveTimeMillis: 1000,
		NodeCap:        50_000,
	},
	Medium: {
		Name:           Medium,
		DepthCap:       3,
		MoveTimeMillis: 3000,
		NodeCap:        400_000,
	},
	Hard: {
		Name:           Hard,
		DepthCap:       4,
		MoveTimeMillis: 8000,
		NodeCap:        3_000_000,
	},
}

var presetAliases = map[string]string{
	"beginner":     Easy,
	"intermediate": Medium,
	"advanced":     Hard,
	"master":       Hard,
}

func normalizePresetName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return DefaultDifficulty
	}
	if alias, ok := presetAliases[n]; ok {
		return alias
	}
	return n
}

// GetPreset resolves a difficulty name or alias. The empty name selects
// DefaultDifficulty.
func GetPreset(name string) (DifficultyPreset, error) {
	key := normalizePresetName(name)
	presetMu.RLock()
	p, ok := DefaultPresets[key]
	presetMu.RUnlock()
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	return p, nil
}

// PresetNames lists the configured difficulties in depth order.
func PresetNames() []string {
	presetMu.RLock()
	list := make([]DifficultyPreset, 0, len(DefaultPresets))
	for _, p := range DefaultPresets {
		list = append(list, p)
	}
	presetMu.RUnlock()
	sort.Slice(list, func(i, j int) bool {
		if list[i].DepthCap != list[j].DepthCap {
			return list[i].DepthCap < list[j].DepthCap
		}
		return list[i].Name < list[j].Name
	})
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.Name
	}
	return out
}

type presetFile struct {
	Presets []DifficultyPreset `yaml:"presets"`
}

// LoadPresetFile reads a YAML document of the form
//
//	presets:
//	  - name: hard
//	    depth: 5
//	    move_time_ms: 10000
//
// and installs every entry. Nothing is installed when any entry is invalid.
func LoadPresetFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}
	var doc presetFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse preset file: %w", err)
	}
	for i := range doc.Presets {
		doc.Presets[i].Name = strings.ToLower(strings.TrimSpace(doc.Presets[i].Name))
		if err := ValidatePreset(doc.Presets[i]); err != nil {
			return nil, fmt.Errorf("preset %d: %w", i, err)
		}
	}
	names := make([]string, 0, len(doc.Presets))
	presetMu.Lock()
	for _, p := range doc.Presets {
		DefaultPresets[p.Name] = p
		names = append(names, p.Name)
	}
	presetMu.Unlock()
	return names, nil
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return fmt.Errorf("%w: name required", ErrInvalidPreset)
	case p.DepthCap <= 0 || p.DepthCap > maxDepthCap:
		return fmt.Errorf("%w: depth %d out of range 1-%d", ErrInvalidPreset, p.DepthCap, maxDepthCap)
	case p.MoveTimeMillis < 0:
		return fmt.Errorf("%w: move time must be >= 0: %d", ErrInvalidPreset, p.MoveTimeMillis)
	case p.NodeCap < 0:
		return fmt.Errorf("%w: node cap must be >= 0: %d", ErrInvalidPreset, p.NodeCap)
	}
	return nil
}
