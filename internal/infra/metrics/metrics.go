package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Portal collects counters for portal operations. A nil *Portal is valid and
// records nothing.
type Portal struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	stages   *prometheus.CounterVec
}

func NewPortal(reg prometheus.Registerer) *Portal {
	p := &Portal{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "operations_total",
			Help:      "Portal operations by result.",
		}, []string{"op", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "portal",
			Name:      "operation_seconds",
			Help:      "Wall time of portal operations.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80, 160},
		}, []string{"op"}),
		stages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Name:      "placement_stage_total",
			Help:      "Last stage reached by order placements.",
		}, []string{"stage"}),
	}
	if reg != nil {
		reg.MustRegister(p.ops, p.duration, p.stages)
	}
	return p
}

// Observe records one finished operation started at start.
func (p *Portal) Observe(op string, ok bool, start time.Time) {
	if p == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "fail"
	}
	p.ops.WithLabelValues(op, result).Inc()
	p.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (p *Portal) Stage(stage string) {
	if p == nil {
		return
	}
	p.stages.WithLabelValues(stage).Inc()
}
