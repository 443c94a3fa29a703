package main

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	metricsOnce sync.Once

	goalsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartfit",
			Name:      "goals_computed_total",
			Help:      "Count of goal calculations by goal type.",
		},
		[]string{"goal_type"},
	)

	inputsRejected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartfit",
			Name:      "inputs_rejected_total",
			Help:      "Count of biometric submissions rejected by validation.",
		},
	)

	reportsRendered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "smartfit",
			Name:      "reports_rendered_total",
			Help:      "Count of PDF coaching reports rendered.",
		},
	)

	chatReplies = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartfit",
			Name:      "chat_replies_total",
			Help:      "Count of chat replies by route and outcome.",
		},
		[]string{"route", "outcome"},
	)

	replyRatings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "smartfit",
			Name:      "reply_ratings_total",
			Help:      "Count of coach reply ratings by score.",
		},
		[]string{"rating"},
	)
)

// registerMetrics registers the collectors with the default registry (idempotent).
func registerMetrics() {
	metricsOnce.Do(func() {
		prometheus.MustRegister(goalsComputed, inputsRejected, reportsRendered, chatReplies, replyRatings)
	})
}

func incGoalsComputed(g goalType) {
	goalsComputed.WithLabelValues(string(g)).Inc()
}

func incInputsRejected() {
	inputsRejected.Inc()
}

func incReportsRendered() {
	reportsRendered.Inc()
}

func incChatReply(route, outcome string) {
	chatReplies.WithLabelValues(route, outcome).Inc()
}

func incReplyRating(rating int) {
	replyRatings.WithLabelValues(strconv.Itoa(rating)).Inc()
}
