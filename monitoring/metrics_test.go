package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMonitor_TrackRateLimitFailOpen(t *testing.T) {
	m := NewMonitor()

	before := testutil.ToFloat64(rateLimitStoreErrors.WithLabelValues("scan"))
	m.TrackRateLimitFailOpen("scan")
	m.TrackRateLimitFailOpen("scan")

	assert.Equal(t, before+2, testutil.ToFloat64(rateLimitStoreErrors.WithLabelValues("scan")))
}

func TestMonitor_TrackScan(t *testing.T) {
	m := NewMonitor()

	before := testutil.ToFloat64(scanOperations.WithLabelValues("accepted"))
	m.TrackScan("accepted")

	assert.Equal(t, before+1, testutil.ToFloat64(scanOperations.WithLabelValues("accepted")))
}
