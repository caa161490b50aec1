package missions

// XPPerLevel is the XP needed for each level step
const XPPerLevel = 100

// Progress is a user's XP/level pair. Level always equals LevelForXP(XP)
// after an award.
type Progress struct {
	XP    int `json:"xp"`
	Level int `json:"level"`
}

// LevelForXP returns floor(xp/100)+1; negative xp counts as zero
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// XPToNextLevel is the XP still missing to reach the level after p.Level
func XPToNextLevel(p Progress) int {
	return p.Level*XPPerLevel - p.XP
}

// Award adds xp and recomputes the level. Level never decreases.
func Award(p Progress, xp int) (Progress, bool) {
	if xp < 0 {
		xp = 0
	}
	next := Progress{XP: p.XP + xp, Level: LevelForXP(p.XP + xp)}
	if next.Level < p.Level {
		next.Level = p.Level
	}
	return next, next.Level > p.Level
}
