package gamification

// Metric is the profile value a badge rule compares against.
type Metric string

const (
	MetricPoints Metric = "points"
	MetricStreak Metric = "streak"
	MetricLevel  Metric = "level"
)

// Rule unlocks Badge once Metric reaches Threshold.
type Rule struct {
	Badge     BadgeName
	Metric    Metric
	Threshold int
}

// DefaultRules returns the badge rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{BadgeCentury, MetricPoints, 100},
		{BadgeChampion, MetricPoints, 500},
		{BadgeLegend, MetricPoints, 1000},
		{BadgeWeekWarrior, MetricStreak, 7},
		{BadgeMonthMaster, MetricStreak, 30},
		{BadgeRisingStar, MetricLevel, 5},
		{BadgeSuperstar, MetricLevel, 10},
	}
}

// Snapshot is the slice of a profile that badge rules look at.
type Snapshot struct {
	TotalPoints   int
	Level         int
	CurrentStreak int
}

func (s Snapshot) value(m Metric) int {
	switch m {
	case MetricPoints:
		return s.TotalPoints
	case MetricStreak:
		return s.CurrentStreak
	case MetricLevel:
		return s.Level
	default:
		return 0
	}
}

// Evaluator maps snapshots to newly unlocked badges. It holds no state
// beyond its rule table and is safe for concurrent use.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator returns an Evaluator over rules. A nil slice means DefaultRules.
func NewEvaluator(rules []Rule) *Evaluator {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Evaluator{rules: rules}
}

// Evaluate returns every badge whose threshold snap meets and that is not
// in held, in rule order. Each badge appears at most once.
func (e *Evaluator) Evaluate(snap Snapshot, held map[BadgeName]bool) []BadgeName {
	var unlocked []BadgeName
	seen := make(map[BadgeName]bool)
	for _, r := range e.rules {
		if held[r.Badge] || seen[r.Badge] {
			continue
		}
		if snap.value(r.Metric) >= r.Threshold {
			unlocked = append(unlocked, r.Badge)
			seen[r.Badge] = true
		}
	}
	return unlocked
}

// Goal is a badge not yet earned and how far away it is.
type Goal struct {
	Badge     BadgeName
	Metric    Metric
	Threshold int
	Current   int
}

// Remaining is how much Metric still has to grow.
func (g Goal) Remaining() int {
	return max(g.Threshold-g.Current, 0)
}

// Upcoming lists the closest unearned badge for each metric.
func (e *Evaluator) Upcoming(snap Snapshot, held map[BadgeName]bool) []Goal {
	best := make(map[Metric]Goal)
	var order []Metric
	for _, r := range e.rules {
		if held[r.Badge] || snap.value(r.Metric) >= r.Threshold {
			continue
		}
		g, ok := best[r.Metric]
		if !ok {
			order = append(order, r.Metric)
		}
		if !ok || r.Threshold < g.Threshold {
			best[r.Metric] = Goal{Badge: r.Badge, Metric: r.Metric, Threshold: r.Threshold, Current: snap.value(r.Metric)}
		}
	}
	goals := make([]Goal, 0, len(order))
	for _, m := range order {
		goals = append(goals, best[m])
	}
	return goals
}
