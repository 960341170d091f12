package monitoring

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.IncPagesCrawled()
	m.IncPagesCrawled()
	m.AddRecordsExtracted(20)
	m.IncErrorsTotal("parse")
	m.IncPublishAttempt("status")
	m.AddRecordsWritten("csv", 3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesCrawled.WithLabelValues()))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.RecordsExtracted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorsTotal.WithLabelValues("parse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishAttempts.WithLabelValues("status")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsWritten.WithLabelValues("csv")))
}

func TestNewMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}
