package environ

import (
	"math"
	"time"
)

// Category identifies the class of host the process is running on.
type Category string

const (
	// CategoryPiBoard is the purpose-built small board the device ships on
	// (current generation Raspberry Pi class hardware).
	CategoryPiBoard Category = "pi-board"
	// CategoryGenericBoard covers other ARM single-board computers.
	CategoryGenericBoard Category = "generic-board"
	// CategoryMacDesktop covers macOS development hosts.
	CategoryMacDesktop Category = "mac-desktop"
	// CategoryLinuxDesktop covers desktop-class POSIX hosts.
	CategoryLinuxDesktop Category = "linux-desktop"
	// CategoryGeneric is the fallback for everything else.
	CategoryGeneric Category = "generic"
)

// Mode selects the listening posture; each mode indexes the profile's
// multiplier table.
type Mode int

const (
	ModeNormal Mode = iota
	ModeWordGame
	ModeLanguageGame
	ModeInterruptCheck
)

func (m Mode) String() string {
	switch m {
	case ModeWordGame:
		return "word-game"
	case ModeLanguageGame:
		return "language-game"
	case ModeInterruptCheck:
		return "interrupt-check"
	default:
		return "normal"
	}
}

// Modes lists every listening mode, for table-driven coverage.
var Modes = []Mode{ModeNormal, ModeWordGame, ModeLanguageGame, ModeInterruptCheck}

// Profile is the immutable tuned-threshold record for one host category.
// Build it once via Probe and treat it as read-only.
type Profile struct {
	Category                   Category
	BaseEnergyThreshold        int
	CalibrationDuration        time.Duration
	ChunkDurationMultiplier    float64
	SilenceToleranceMultiplier float64
	modeMultipliers            map[Mode]float64
}

// EffectiveThreshold returns the energy threshold tuned for a mode.
func (p Profile) EffectiveThreshold(mode Mode) int {
	return int(math.Round(float64(p.BaseEnergyThreshold) * p.ModeMultiplier(mode)))
}

// ModeMultiplier returns the sensitivity multiplier for a mode, 1.0 when the
// mode is unknown.
func (p Profile) ModeMultiplier(mode Mode) float64 {
	if m, ok := p.modeMultipliers[mode]; ok {
		return m
	}
	return 1.0
}

// ChunkDuration scales a base chunk duration by the host multiplier.
func (p Profile) ChunkDuration(base time.Duration) time.Duration {
	return time.Duration(float64(base) * p.ChunkDurationMultiplier)
}

// SilenceTolerance scales a caller-supplied silence threshold by the host
// multiplier.
func (p Profile) SilenceTolerance(threshold time.Duration) time.Duration {
	return time.Duration(float64(threshold) * p.SilenceToleranceMultiplier)
}

// profiles holds the tuned defaults per category. Multipliers are ordered
// normal, word game, language game, interrupt check.
var profiles = map[Category]Profile{
	CategoryPiBoard: {
		Category:                   CategoryPiBoard,
		BaseEnergyThreshold:        150,
		CalibrationDuration:        1200 * time.Millisecond,
		ChunkDurationMultiplier:    1.2,
		SilenceToleranceMultiplier: 1.3,
		modeMultipliers: map[Mode]float64{
			ModeNormal:         1.0,
			ModeWordGame:       0.8,
			ModeLanguageGame:   1.1,
			ModeInterruptCheck: 0.6,
		},
	},
	CategoryGenericBoard: {
		Category:                   CategoryGenericBoard,
		BaseEnergyThreshold:        120,
		CalibrationDuration:        time.Second,
		ChunkDurationMultiplier:    1.0,
		SilenceToleranceMultiplier: 1.2,
		modeMultipliers: map[Mode]float64{
			ModeNormal:         1.0,
			ModeWordGame:       0.7,
			ModeLanguageGame:   1.2,
			ModeInterruptCheck: 0.5,
		},
	},
	CategoryMacDesktop: {
		Category:                   CategoryMacDesktop,
		BaseEnergyThreshold:        300,
		CalibrationDuration:        800 * time.Millisecond,
		ChunkDurationMultiplier:    1.0,
		SilenceToleranceMultiplier: 1.0,
		modeMultipliers: map[Mode]float64{
			ModeNormal:         1.0,
			ModeWordGame:       0.83,
			ModeLanguageGame:   1.0,
			ModeInterruptCheck: 0.67,
		},
	},
	CategoryLinuxDesktop: {
		Category:                   CategoryLinuxDesktop,
		BaseEnergyThreshold:        200,
		CalibrationDuration:        time.Second,
		ChunkDurationMultiplier:    1.1,
		SilenceToleranceMultiplier: 1.1,
		modeMultipliers: map[Mode]float64{
			ModeNormal:         1.0,
			ModeWordGame:       0.75,
			ModeLanguageGame:   1.15,
			ModeInterruptCheck: 0.6,
		},
	},
	CategoryGeneric: {
		Category:                   CategoryGeneric,
		BaseEnergyThreshold:        250,
		CalibrationDuration:        800 * time.Millisecond,
		ChunkDurationMultiplier:    1.0,
		SilenceToleranceMultiplier: 1.0,
		modeMultipliers: map[Mode]float64{
			ModeNormal:         1.0,
			ModeWordGame:       0.8,
			ModeLanguageGame:   1.1,
			ModeInterruptCheck: 0.65,
		},
	},
}

// ProfileFor returns the tuned profile for a category, falling back to the
// generic profile for unknown categories.
func ProfileFor(category Category) Profile {
	if p, ok := profiles[category]; ok {
		return p
	}
	return profiles[CategoryGeneric]
}

// Categories lists every documented host category.
func Categories() []Category {
	return []Category{
		CategoryPiBoard,
		CategoryGenericBoard,
		CategoryMacDesktop,
		CategoryLinuxDesktop,
		CategoryGeneric,
	}
}
