// SPDX-FileCopyrightText: Copyright 2026 The vmcp Authors
// SPDX-License-Identifier: Apache-2.0

package pool

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the pool's prometheus collectors. A Pool constructed with
// NewMetrics(nil) skips registration, which keeps tests free of global
// registry collisions.
type metrics struct {
	instancesTotal   prometheus.Gauge
	instancesActive  prometheus.Gauge
	instancesIdle    prometheus.Gauge
	evictionsTotal   prometheus.Counter
	capacityRejected prometheus.Counter
}

// NewMetrics builds the pool's collectors and registers them with reg. A nil
// registerer is a valid no-op choice (e.g. in tests).
func NewMetrics(reg prometheus.Registerer) *metrics { //nolint:revive // unexported type returned intentionally within package
	m := &metrics{
		instancesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vmcp", Subsystem: "pool", Name: "instances_total",
			Help: "Total pooled outbound instances.",
		}),
		instancesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vmcp", Subsystem: "pool", Name: "instances_active",
			Help: "Pooled outbound instances with at least one referencing client.",
		}),
		instancesIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vmcp", Subsystem: "pool", Name: "instances_idle",
			Help: "Pooled outbound instances with zero referencing clients, pending eviction.",
		}),
		evictionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vmcp", Subsystem: "pool", Name: "evictions_total",
			Help: "Outbound instances evicted by the idle sweep.",
		}),
		capacityRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vmcp", Subsystem: "pool", Name: "capacity_rejected_total",
			Help: "Allocation attempts rejected after ceilings and an idle sweep both failed to make room.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.instancesTotal, m.instancesActive, m.instancesIdle, m.evictionsTotal, m.capacityRejected)
	}
	return m
}
