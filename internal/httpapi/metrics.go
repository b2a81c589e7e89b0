package httpapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	marksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rollbook_attendance_marks_total",
		Help: "Attendance records upserted, by status.",
	}, []string{"status"})

	loginFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rollbook_login_failures_total",
		Help: "Rejected login attempts.",
	})
)
