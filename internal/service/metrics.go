package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LedgerOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prison_ledger_operations_total",
			Help: "Ledger operations by op, currency and result",
		},
		[]string{"op", "currency", "result"},
	)
	LadderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prison_ladder_transitions_total",
			Help: "Ladder transitions by transition and result",
		},
		[]string{"transition", "result"},
	)
	ProfileSaves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prison_profile_saves_total",
			Help: "Profile saves by result",
		},
		[]string{"result"},
	)
	ProfileLoads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prison_profile_loads_total",
			Help: "Profile loads by result (ok, new, fallback)",
		},
		[]string{"result"},
	)
	OnlinePlayers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prison_online_players",
			Help: "Players with a live session",
		},
	)
	DirtyProfiles = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "prison_dirty_profiles",
			Help: "Profiles waiting to be saved",
		},
	)
)

func init() {
	prometheus.MustRegister(LedgerOps)
	prometheus.MustRegister(LadderTransitions)
	prometheus.MustRegister(ProfileSaves)
	prometheus.MustRegister(ProfileLoads)
	prometheus.MustRegister(OnlinePlayers)
	prometheus.MustRegister(DirtyProfiles)
}

func result(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
