package gamification

// BadgeName identifies an achievement in the fixed badge catalog.
type BadgeName string

const (
	BadgeCentury     BadgeName = "Century"
	BadgeChampion    BadgeName = "Champion"
	BadgeLegend      BadgeName = "Legend"
	BadgeWeekWarrior BadgeName = "Week Warrior"
	BadgeMonthMaster BadgeName = "Month Master"
	BadgeRisingStar  BadgeName = "Rising Star"
	BadgeSuperstar   BadgeName = "Superstar"
)

// AllBadges returns the catalog in display order.
func AllBadges() []BadgeName {
	return []BadgeName{
		BadgeCentury, BadgeChampion, BadgeLegend,
		BadgeWeekWarrior, BadgeMonthMaster,
		BadgeRisingStar, BadgeSuperstar,
	}
}

// Description returns the text shown with the badge.
func (b BadgeName) Description() string {
	switch b {
	case BadgeCentury:
		return "Earned 100 points"
	case BadgeChampion:
		return "Earned 500 points"
	case BadgeLegend:
		return "Earned 1000 points"
	case BadgeWeekWarrior:
		return "Studied 7 days in a row"
	case BadgeMonthMaster:
		return "Studied 30 days in a row"
	case BadgeRisingStar:
		return "Reached level 5"
	case BadgeSuperstar:
		return "Reached level 10"
	default:
		return string(b)
	}
}

// Icon returns the display icon for the badge.
func (b BadgeName) Icon() string {
	switch b {
	case BadgeCentury:
		return "💯"
	case BadgeChampion:
		return "🏆"
	case BadgeLegend:
		return "👑"
	case BadgeWeekWarrior:
		return "🔥"
	case BadgeMonthMaster:
		return "📅"
	case BadgeRisingStar:
		return "⭐"
	case BadgeSuperstar:
		return "🌟"
	default:
		return "✦"
	}
}
