// control/collector.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus export of MetricsRegistry counters.

package control

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes every counter of a MetricsRegistry as
// hiosock_<name>_total. Counters registered after construction are
// exported too.
type Collector struct {
	reg       *MetricsRegistry
	namespace string
}

// NewCollector wraps reg for registration with a prometheus.Registerer.
func NewCollector(reg *MetricsRegistry) *Collector {
	return &Collector{reg: reg, namespace: "hiosock"}
}

// Describe implements prometheus.Collector. The collector is unchecked
// because the counter set grows at runtime.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.reg.GetSnapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		desc := prometheus.NewDesc(
			prometheus.BuildFQName(c.namespace, "", k+"_total"),
			"hioload-sock counter "+k+".",
			nil, nil,
		)
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(snap[k]))
	}
}

var _ prometheus.Collector = (*Collector)(nil)
