package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	XPAwarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "adaptly_xp_awarded_total",
			Help: "Total XP credited to ledgers",
		},
	)
	AchievementsUnlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptly_achievements_unlocked_total",
			Help: "Total achievements unlocked, by category",
		},
		[]string{"category"},
	)
	ActivitiesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptly_activities_recorded_total",
			Help: "Total activity records appended, by kind",
		},
		[]string{"kind"},
	)
	Migrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptly_migrations_total",
			Help: "Guest to account migrations, by result",
		},
		[]string{"result"},
	)
	Pushes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adaptly_push_notifications_total",
			Help: "Push notification deliveries, by result",
		},
		[]string{"result"},
	)
)

// Register adds the domain collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(XPAwarded, AchievementsUnlocked, ActivitiesRecorded, Migrations, Pushes)
}
