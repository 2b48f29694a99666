// Package gamification implements the XP, reward and badge rules
// shared by the platform family, plus the achievement listing service
// behind the achievements API.
package gamification

// levelThresholds[n] is the cumulative XP required to reach level n+1.
// Levels are 1-based; level 1 needs no XP.
var levelThresholds = [...]int{
	0, 100, 250, 500, 1000, 2000, 3500, 5500, 8000, 11000,
	15000, 20000, 26000, 33000, 41000, 50000,
}

// MaxLevel is the highest reachable level.
const MaxLevel = len(levelThresholds)

// LevelForXP returns the level reached with the given cumulative XP.
func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	level := 1
	for i, threshold := range levelThresholds {
		if xp >= threshold {
			level = i + 1
		} else {
			break
		}
	}
	return level
}

// XPForLevel returns the cumulative XP required to reach the level.
// Levels below 2 need no XP; levels above MaxLevel are clamped.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return levelThresholds[level-1]
}

// XPToNextLevel returns how much XP is missing until the next level,
// or 0 at MaxLevel.
func XPToNextLevel(xp int) int {
	level := LevelForXP(xp)
	if level >= MaxLevel {
		return 0
	}
	return levelThresholds[level] - xp
}

// TokenReward returns the token payout for the nth completed action in
// a streak. Rewards follow the Fibonacci sequence capped at the tenth
// step, so streaks grow the payout quickly but not without bound.
func TokenReward(step int) int {
	if step < 1 {
		return 0
	}
	if step > 10 {
		step = 10
	}
	a, b := 1, 1
	for i := 2; i < step; i++ {
		a, b = b, a+b
	}
	if step == 1 {
		return 1
	}
	return b
}

// BadgeCriteria is a badge's eligibility rule. All non-zero fields
// must be satisfied.
type BadgeCriteria struct {
	MinXP            int
	MinLevel         int
	MinActions       int
	RequiredFeatures []string
}

// UserProgress is the progress snapshot badges are judged against.
type UserProgress struct {
	XP           int
	ActionsCount int
	Features     map[string]bool
}

// EligibleForBadge reports whether the progress satisfies the criteria.
func EligibleForBadge(progress UserProgress, criteria BadgeCriteria) bool {
	if progress.XP < criteria.MinXP {
		return false
	}
	if LevelForXP(progress.XP) < criteria.MinLevel {
		return false
	}
	if progress.ActionsCount < criteria.MinActions {
		return false
	}
	for _, feature := range criteria.RequiredFeatures {
		if !progress.Features[feature] {
			return false
		}
	}
	return true
}
