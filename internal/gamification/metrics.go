package gamification

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts ledger activity. A nil *Metrics records nothing.
type Metrics struct {
	points  *prometheus.CounterVec
	awards  *prometheus.CounterVec
	badges  *prometheus.CounterVec
	resets  prometheus.Counter
	streaks prometheus.Histogram
}

// NewMetrics creates the ledger collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		points: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examcoach",
			Subsystem: "ledger",
			Name:      "points_awarded_total",
			Help:      "Points added to student totals, by reason.",
		}, []string{"reason"}),
		awards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examcoach",
			Subsystem: "ledger",
			Name:      "awards_total",
			Help:      "Point-earning events processed, by outcome.",
		}, []string{"outcome"}),
		badges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examcoach",
			Subsystem: "ledger",
			Name:      "badges_awarded_total",
			Help:      "Badges unlocked, by badge name.",
		}, []string{"badge"}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "examcoach",
			Subsystem: "ledger",
			Name:      "streak_resets_total",
			Help:      "Awards that reset an existing streak back to 1.",
		}),
		streaks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "examcoach",
			Subsystem: "ledger",
			Name:      "current_streak_days",
			Help:      "Current streak observed after each award.",
			Buckets:   []float64{1, 2, 3, 5, 7, 14, 30, 60, 100},
		}),
	}
	reg.MustRegister(m.points, m.awards, m.badges, m.resets, m.streaks)
	return m
}

func (m *Metrics) observe(res *Result) {
	if m == nil {
		return
	}
	m.awards.WithLabelValues("ok").Inc()
	m.points.WithLabelValues(res.Reason).Add(float64(res.Points))
	for _, b := range res.NewBadges {
		m.badges.WithLabelValues(b.Name).Inc()
	}
	if res.StreakReset {
		m.resets.Inc()
	}
	m.streaks.Observe(float64(res.Profile.CurrentStreak))
}

func (m *Metrics) failed(outcome string) {
	if m == nil {
		return
	}
	m.awards.WithLabelValues(outcome).Inc()
}
