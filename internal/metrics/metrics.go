package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every collector exported on /metrics.
var Registry = prometheus.NewRegistry()

var (
	Transactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_ledger_transactions_total",
			Help: "Ledger transactions applied, by kind",
		},
		[]string{"kind"},
	)

	LevelUps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resellboost_level_ups_total",
		Help: "Level advances applied",
	})

	PrestigeGates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "resellboost_prestige_gates_total",
		Help: "Users stopped at a prestige gate",
	})

	Commissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_commissions_total",
			Help: "Commissions booked, by pathway",
		},
		[]string{"pathway"},
	)

	CommissionCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_commission_credits_total",
			Help: "Credits paid as commission, by pathway",
		},
		[]string{"pathway"},
	)

	Cashouts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_cashouts_total",
			Help: "Cashout requests, by outcome",
		},
		[]string{"outcome"},
	)

	SubscriptionLapses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_subscription_lapses_total",
			Help: "Expired entitlements processed, by entitlement",
		},
		[]string{"entitlement"},
	)

	ModerationVerdicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_moderation_verdicts_total",
			Help: "Moderation verdicts, by action",
		},
		[]string{"action"},
	)

	Giveaways = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_giveaways_total",
			Help: "Giveaway lifecycle events, by event",
		},
		[]string{"event"},
	)

	AIDecodeFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resellboost_ai_decode_failures_total",
			Help: "AI replies that could not be decoded, by pathway",
		},
		[]string{"pathway"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		Transactions,
		LevelUps,
		PrestigeGates,
		Commissions,
		CommissionCredits,
		Cashouts,
		SubscriptionLapses,
		ModerationVerdicts,
		Giveaways,
		AIDecodeFailures,
	)
}
