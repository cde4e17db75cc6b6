package gamification

// PointsPerLevel is the width of one level.
const PointsPerLevel = 100

// LevelFor returns the level for a point total.
func LevelFor(totalPoints int) int {
	if totalPoints < 0 {
		totalPoints = 0
	}
	return totalPoints/PointsPerLevel + 1
}

// LevelProgress describes how far a student is through their current level.
type LevelProgress struct {
	Level       int
	IntoLevel   int // points earned since the level started
	ToNextLevel int // points still needed for the next level
	PercentDone int // 0-99
}

// ProgressFor computes LevelProgress for a point total.
func ProgressFor(totalPoints int) LevelProgress {
	if totalPoints < 0 {
		totalPoints = 0
	}
	into := totalPoints % PointsPerLevel
	return LevelProgress{
		Level:       LevelFor(totalPoints),
		IntoLevel:   into,
		ToNextLevel: PointsPerLevel - into,
		PercentDone: into * 100 / PointsPerLevel,
	}
}
