package environ

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveThreshold_MatchesTunedTable(t *testing.T) {
	tests := []struct {
		category Category
		mode     Mode
		want     int
	}{
		{CategoryPiBoard, ModeNormal, 150},
		{CategoryPiBoard, ModeWordGame, 120},
		{CategoryPiBoard, ModeLanguageGame, 165},
		{CategoryPiBoard, ModeInterruptCheck, 90},

		{CategoryGenericBoard, ModeNormal, 120},
		{CategoryGenericBoard, ModeWordGame, 84},
		{CategoryGenericBoard, ModeLanguageGame, 144},
		{CategoryGenericBoard, ModeInterruptCheck, 60},

		{CategoryMacDesktop, ModeNormal, 300},
		{CategoryMacDesktop, ModeWordGame, 249},
		{CategoryMacDesktop, ModeLanguageGame, 300},
		{CategoryMacDesktop, ModeInterruptCheck, 201},

		{CategoryLinuxDesktop, ModeNormal, 200},
		{CategoryLinuxDesktop, ModeWordGame, 150},
		{CategoryLinuxDesktop, ModeLanguageGame, 230},
		{CategoryLinuxDesktop, ModeInterruptCheck, 120},

		{CategoryGeneric, ModeNormal, 250},
		{CategoryGeneric, ModeWordGame, 200},
		{CategoryGeneric, ModeLanguageGame, 275},
		{CategoryGeneric, ModeInterruptCheck, 163},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+tt.mode.String(), func(t *testing.T) {
			got := ProfileFor(tt.category).EffectiveThreshold(tt.mode)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileFor_UnknownCategoryFallsBack(t *testing.T) {
	p := ProfileFor(Category("toaster"))
	assert.Equal(t, CategoryGeneric, p.Category)
	assert.Equal(t, 250, p.BaseEnergyThreshold)
}

func TestModeMultiplier_UnknownModeIsNeutral(t *testing.T) {
	p := ProfileFor(CategoryPiBoard)
	assert.Equal(t, 1.0, p.ModeMultiplier(Mode(99)))
}

func TestChunkDurationAndSilenceTolerance(t *testing.T) {
	p := ProfileFor(CategoryPiBoard)

	assert.Equal(t, 2400*time.Millisecond, p.ChunkDuration(2*time.Second))
	assert.Equal(t, 2600*time.Millisecond, p.SilenceTolerance(2*time.Second))

	neutral := ProfileFor(CategoryMacDesktop)
	assert.Equal(t, 2*time.Second, neutral.ChunkDuration(2*time.Second))
	assert.Equal(t, 2*time.Second, neutral.SilenceTolerance(2*time.Second))
}

func TestCategories_AllHaveProfiles(t *testing.T) {
	for _, c := range Categories() {
		p := ProfileFor(c)
		assert.Equal(t, c, p.Category)
		assert.Positive(t, p.BaseEnergyThreshold)
		assert.Positive(t, p.CalibrationDuration)
		for _, m := range Modes {
			assert.Positive(t, p.EffectiveThreshold(m))
		}
	}
}
