package services

import "math"

// Scoring constants. These implement the platform's published scoring
// contract; changing any of them breaks comparability of historical
// leaderboards, so they are all in one place.
const (
	// MaxScore is the score of a perfect full-combo play
	MaxScore = 1_000_000

	// goodWeight is the fractional hit credit for a good judgment,
	// early or late
	goodWeight = 0.65

	// accuracyWeight and comboWeight split the score between accuracy
	// and combo retention
	accuracyWeight = 0.9
	comboWeight    = 0.1

	// refPerfectJudgment and refGoodJudgment are the reference timing
	// windows (milliseconds); the rks factor of the reference
	// configuration is exactly 1
	refPerfectJudgment = 80
	refGoodJudgment    = 160

	// minRksAccuracy is the accuracy below which a play earns no rating
	minRksAccuracy = 0.7

	// stdDevDecay controls how hard timing inconsistency is penalized
	stdDevDecay = 500.0

	// LeaderboardBonusCutoff is the worst rank that still earns an
	// experience bonus
	LeaderboardBonusCutoff = 1000

	// unrankedExperienceScale dampens experience from unranked charts
	unrankedExperienceScale = 0.1
)

// Accuracy computes the hit ratio in [0, 1]. A good counts as a fractional
// hit, bad and miss count as zero.
func Accuracy(perfect, goodEarly, goodLate, bad, miss int) float64 {
	total := perfect + goodEarly + goodLate + bad + miss
	if total == 0 {
		return 0
	}
	return (float64(perfect) + goodWeight*float64(goodEarly+goodLate)) / float64(total)
}

// Score computes the integer score in [0, MaxScore] from accuracy and combo
// retention. Full accuracy and full combo are both required to reach MaxScore.
func Score(accuracy float64, maxCombo, noteCount int) int {
	if noteCount == 0 {
		return 0
	}
	raw := MaxScore * (accuracyWeight*accuracy + comboWeight*float64(maxCombo)/float64(noteCount))
	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

// IsFullCombo reports whether the play never dropped its combo. The combo is
// full exactly when it spans every judged note.
func IsFullCombo(maxCombo, judgmentCount int) bool {
	return maxCombo == judgmentCount
}

// ComboBounds returns the achievable range for the maximum combo given the
// number of combo-breaking judgments. Every bad or miss breaks a combo, so
// the maximum is bounded above by the unbroken notes and below by the
// pigeonhole bound across the broken segments.
func ComboBounds(noteCount, bad, miss int) (min, max int) {
	breaks := bad + miss
	return noteCount / (breaks + 1), noteCount - breaks
}

// RksFactor normalizes rating credit by how lenient the player's timing
// windows are. The reference windows give a factor of exactly 1; stricter
// windows give proportionally more credit.
func RksFactor(perfectJudgment, goodJudgment int) float64 {
	if perfectJudgment <= 0 || goodJudgment <= 0 {
		return 0
	}
	return math.Sqrt(float64(refPerfectJudgment) / float64(perfectJudgment) *
		float64(refGoodJudgment) / float64(goodJudgment))
}

// Rks computes the skill-rating contribution of a single play. Below 70%
// accuracy it is zero; above, it grows quadratically with accuracy, scales
// with chart difficulty, and decays with timing inconsistency.
func Rks(accuracy, difficulty, stdDeviation, factor float64) float64 {
	if accuracy < minRksAccuracy {
		return 0
	}
	base := (100*accuracy - 55) / 45
	return base * base * difficulty * math.Exp(-stdDeviation/stdDevDecay) * factor
}

// BaseExperience returns the experience tier for a score
func BaseExperience(score int) int {
	switch {
	case score == MaxScore:
		return 20
	case score >= 960_000:
		return 14
	case score >= 920_000:
		return 9
	case score >= 880_000:
		return 5
	default:
		return 1
	}
}

// LeaderboardBonus returns the extra experience for a top placement on a
// chart's rks leaderboard: a power law that is maximal near rank 1, decays
// toward the cutoff, and is zero beyond it.
func LeaderboardBonus(difficulty float64, rank int) float64 {
	if rank < 1 || rank > LeaderboardBonusCutoff {
		return 0
	}
	return difficulty * difficulty * math.Pow(float64(rank), -0.4)
}

// ExperienceDelta combines the tier, the rks factor and any leaderboard bonus
// into the final experience award. Unranked charts earn 10%. Truncation
// happens once, at the end, so the unranked award is exactly a tenth of the
// ranked one before rounding.
func ExperienceDelta(base int, factor, bonus float64, ranked bool) int64 {
	total := float64(base)*factor + bonus
	if !ranked {
		total *= unrankedExperienceScale
	}
	return int64(total)
}
