package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPortalCounters(t *testing.T) {
	p := NewPortal(prometheus.NewRegistry())

	p.Observe("availability", true, time.Now())
	p.Observe("availability", false, time.Now())
	p.Observe("availability", false, time.Now())
	p.Stage("OrderVerified")

	assert.Equal(t, 1.0, testutil.ToFloat64(p.ops.WithLabelValues("availability", "ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(p.ops.WithLabelValues("availability", "fail")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.stages.WithLabelValues("OrderVerified")))
}

func TestNilPortalIsNoop(t *testing.T) {
	var p *Portal
	assert.NotPanics(t, func() {
		p.Observe("tracking", true, time.Now())
		p.Stage("Submitted")
	})
}
