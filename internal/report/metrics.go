package report

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/advisory-guard/internal/model"
)

var (
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisory_reports_total",
		Help: "Validation reports produced, by overall status",
	}, []string{"status"})

	checksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "advisory_checks_total",
		Help: "Validation check results, by check id and status",
	}, []string{"check", "status"})

	validateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "advisory_validate_duration_seconds",
		Help:    "Time to build one validation report",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
	})
)

func observe(rep *model.ValidationReport, elapsed time.Duration) {
	reportsTotal.WithLabelValues(string(rep.OverallStatus)).Inc()
	for _, c := range rep.AllChecks() {
		checksTotal.WithLabelValues(c.ID, string(c.Status)).Inc()
	}
	validateDuration.Observe(elapsed.Seconds())
}
