// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons, used as the "reason" label.
const (
	reasonQueueFull = "queue_full"
	reasonInvalid   = "invalid"
	reasonEncode    = "encode"
	reasonAppend    = "append"
	reasonShutdown  = "shutdown"
)

// metrics holds the recorder's collectors. Labelled children are
// resolved once so the Record path does no map lookups or allocation.
type metrics struct {
	recorded       prometheus.Counter
	appended       prometheus.Counter
	dropped        *prometheus.CounterVec
	queueDepth     prometheus.GaugeFunc
	appendDuration prometheus.Histogram

	droppedQueueFull prometheus.Counter
	droppedInvalid   prometheus.Counter
	droppedEncode    prometheus.Counter
	droppedAppend    prometheus.Counter
	droppedShutdown  prometheus.Counter
}

func newMetrics(queueDepth func() float64) *metrics {
	m := &metrics{
		recorded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tustats_recorder_events_recorded_total",
			Help: "Records accepted onto the recorder queue",
		}),
		appended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tustats_recorder_events_appended_total",
			Help: "Records durably appended to the stats store",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tustats_recorder_events_dropped_total",
			Help: "Records discarded before reaching the store, by reason",
		}, []string{"reason"}),
		queueDepth: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "tustats_recorder_queue_depth",
			Help: "Records waiting for the background writer",
		}, queueDepth),
		appendDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tustats_recorder_append_duration_seconds",
			Help:    "Store append latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.droppedQueueFull = m.dropped.WithLabelValues(reasonQueueFull)
	m.droppedInvalid = m.dropped.WithLabelValues(reasonInvalid)
	m.droppedEncode = m.dropped.WithLabelValues(reasonEncode)
	m.droppedAppend = m.dropped.WithLabelValues(reasonAppend)
	m.droppedShutdown = m.dropped.WithLabelValues(reasonShutdown)
	return m
}

// register adds every collector or none: on failure the ones already
// registered are removed again.
func (m *metrics) register(registerer prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.recorded, m.appended, m.dropped, m.queueDepth, m.appendDuration,
	}
	for i, collector := range collectors {
		if err := registerer.Register(collector); err != nil {
			for _, registered := range collectors[:i] {
				registerer.Unregister(registered)
			}
			return err
		}
	}
	return nil
}

func (m *metrics) droppedFor(reason string) prometheus.Counter {
	switch reason {
	case reasonQueueFull:
		return m.droppedQueueFull
	case reasonInvalid:
		return m.droppedInvalid
	case reasonEncode:
		return m.droppedEncode
	case reasonAppend:
		return m.droppedAppend
	default:
		return m.droppedShutdown
	}
}
