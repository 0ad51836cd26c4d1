package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name                                   string
		perfect, goodEarly, goodLate, bad, miss int
		want                                   float64
	}{
		{"all perfect", 1000, 0, 0, 0, 0, 1.0},
		{"all miss", 0, 0, 0, 0, 1000, 0.0},
		{"all bad", 0, 0, 0, 1000, 0, 0.0},
		{"all good", 0, 500, 500, 0, 0, 0.65},
		{"half perfect half miss", 500, 0, 0, 0, 500, 0.5},
		{"no notes", 0, 0, 0, 0, 0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Accuracy(tt.perfect, tt.goodEarly, tt.goodLate, tt.bad, tt.miss)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAccuracy_MissStrictlyLowers(t *testing.T) {
	full := Accuracy(1000, 0, 0, 0, 0)
	withMiss := Accuracy(999, 0, 0, 0, 1)
	assert.Less(t, withMiss, full)
}

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		accuracy  float64
		maxCombo  int
		noteCount int
		want      int
	}{
		{"perfect full combo", 1.0, 1000, 1000, 1_000_000},
		{"zero accuracy zero combo", 0.0, 0, 1000, 0},
		{"full accuracy broken combo", 1.0, 500, 1000, 950_000},
		{"no notes", 1.0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Score(tt.accuracy, tt.maxCombo, tt.noteCount))
		})
	}
}

func TestScore_ComboBreakingReducesScore(t *testing.T) {
	// Same accuracy, lower combo: score must drop.
	full := Score(0.95, 1000, 1000)
	broken := Score(0.95, 400, 1000)
	assert.Less(t, broken, full)
}

func TestIsFullCombo(t *testing.T) {
	assert.True(t, IsFullCombo(1000, 1000))
	assert.False(t, IsFullCombo(999, 1000))
	assert.False(t, IsFullCombo(0, 1000))
}

func TestComboBounds(t *testing.T) {
	tests := []struct {
		name               string
		noteCount, bad, miss int
		wantMin, wantMax   int
	}{
		{"no breaks", 1000, 0, 0, 1000, 1000},
		{"one miss", 1000, 0, 1, 500, 999},
		{"one bad one miss", 1000, 1, 1, 333, 998},
		{"all miss", 10, 0, 10, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			min, max := ComboBounds(tt.noteCount, tt.bad, tt.miss)
			assert.Equal(t, tt.wantMin, min)
			assert.Equal(t, tt.wantMax, max)
		})
	}
}

func TestRksFactor(t *testing.T) {
	// Reference windows give exactly 1.
	assert.InDelta(t, 1.0, RksFactor(80, 160), 1e-9)

	// Stricter windows give more credit, lenient ones less.
	assert.Greater(t, RksFactor(40, 80), 1.0)
	assert.Less(t, RksFactor(160, 320), 1.0)

	// Degenerate windows earn nothing.
	assert.Zero(t, RksFactor(0, 160))
	assert.Zero(t, RksFactor(80, -1))
}

func TestRks(t *testing.T) {
	// Below the accuracy floor there is no rating.
	assert.Zero(t, Rks(0.69, 16.0, 0, 1))

	// Perfect play on a chart equals its difficulty at factor 1, no deviation.
	assert.InDelta(t, 16.0, Rks(1.0, 16.0, 0, 1), 1e-9)

	// Monotonic in accuracy.
	assert.Less(t, Rks(0.95, 16.0, 0, 1), Rks(0.99, 16.0, 0, 1))

	// Scales with difficulty.
	assert.Less(t, Rks(0.98, 10.0, 0, 1), Rks(0.98, 16.0, 0, 1))

	// Inconsistent timing is penalized at equal accuracy.
	assert.Less(t, Rks(0.98, 16.0, 50, 1), Rks(0.98, 16.0, 0, 1))

	// Zero floor.
	assert.GreaterOrEqual(t, Rks(0.7, 0.1, 10000, 0.1), 0.0)
}

func TestBaseExperience_TiersMonotonic(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{1_000_000, 20},
		{999_999, 14},
		{960_000, 14},
		{959_999, 9},
		{920_000, 9},
		{919_999, 5},
		{880_000, 5},
		{879_999, 1},
		{0, 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseExperience(tt.score), "score %d", tt.score)
	}

	// Each tier strictly exceeds the next one down.
	assert.Greater(t, BaseExperience(1_000_000), BaseExperience(980_000))
	assert.Greater(t, BaseExperience(980_000), BaseExperience(940_000))
	assert.Greater(t, BaseExperience(940_000), BaseExperience(900_000))
	assert.Greater(t, BaseExperience(900_000), BaseExperience(500_000))
}

func TestLeaderboardBonus(t *testing.T) {
	// Maximal near rank 1, decaying toward the cutoff, zero beyond.
	first := LeaderboardBonus(16.0, 1)
	tenth := LeaderboardBonus(16.0, 10)
	last := LeaderboardBonus(16.0, LeaderboardBonusCutoff)

	assert.Greater(t, first, tenth)
	assert.Greater(t, tenth, last)
	assert.Greater(t, last, 0.0)
	assert.Zero(t, LeaderboardBonus(16.0, LeaderboardBonusCutoff+1))
	assert.Zero(t, LeaderboardBonus(16.0, 0))

	// Grows with chart difficulty at equal rank.
	assert.Greater(t, LeaderboardBonus(16.0, 5), LeaderboardBonus(10.0, 5))
}

func TestExperienceDelta(t *testing.T) {
	// Top tier at reference factor.
	assert.Equal(t, int64(20), ExperienceDelta(20, 1.0, 0, true))

	// Bonus adds before truncation.
	assert.Equal(t, int64(25), ExperienceDelta(20, 1.0, 5.4, true))

	// Truncation, not rounding.
	assert.Equal(t, int64(13), ExperienceDelta(14, 0.99, 0, true))
}

func TestExperienceDelta_UnrankedDampening(t *testing.T) {
	// The unranked award is a tenth of the ranked one before the single
	// final truncation.
	tests := []struct {
		base   int
		factor float64
		bonus  float64
	}{
		{20, 1.0, 0},
		{14, 1.2, 3.5},
		{9, 0.8, 0},
		{1, 1.0, 0},
	}

	for _, tt := range tests {
		ranked := ExperienceDelta(tt.base, tt.factor, tt.bonus, true)
		unranked := ExperienceDelta(tt.base, tt.factor, tt.bonus, false)
		total := float64(tt.base)*tt.factor + tt.bonus
		assert.Equal(t, int64(total), ranked)
		assert.Equal(t, int64(total*0.1), unranked)
	}
}

func TestScoring_PerfectPlayScenario(t *testing.T) {
	// Chart with 1000 notes, difficulty 10, all perfect, full combo.
	const noteCount = 1000

	accuracy := Accuracy(noteCount, 0, 0, 0, 0)
	assert.InDelta(t, 1.0, accuracy, 1e-9)

	score := Score(accuracy, noteCount, noteCount)
	assert.Equal(t, MaxScore, score)

	assert.True(t, IsFullCombo(noteCount, noteCount))

	factor := RksFactor(80, 160)
	rks := Rks(accuracy, 10.0, 0, factor)
	assert.InDelta(t, 10.0, rks, 1e-9)

	assert.Equal(t, 20, BaseExperience(score))

	// With a rank-1 placement the bonus lands on top of the tier award.
	delta := ExperienceDelta(BaseExperience(score), factor, LeaderboardBonus(10.0, 1), true)
	assert.Equal(t, int64(120), delta)
}
