// Package statistics exports live control-loop state as Prometheus gauges,
// grounded on fan2go's custom-Collector pattern (one Desc per metric, a
// Collect callback that reads live state rather than pushing updates).
package statistics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/yuri-rage/pit-ninja/internal/pitcontrol"
)

const namespace = "pitmasterd"

// Register registers collector with the default Prometheus registry.
func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}

// PitCollector exports the most recent StatusSnapshot as a set of gauges.
// It never mutates the snapshot it was handed; the orchestrator is
// responsible for feeding it fresh values as they arrive.
type PitCollector struct {
	latest func() *pitcontrol.StatusSnapshot

	pitTemp   *prometheus.Desc
	setPoint  *prometheus.Desc
	pidOutput *prometheus.Desc
	fanPct    *prometheus.Desc
	servoPct  *prometheus.Desc
	mode      *prometheus.Desc
	numProbes *prometheus.Desc
}

// NewPitCollector builds a collector that calls latest on every Prometheus
// scrape to obtain the current snapshot. latest may return nil before the
// first tick has produced one.
func NewPitCollector(latest func() *pitcontrol.StatusSnapshot) *PitCollector {
	const subsystem = "pit"
	return &PitCollector{
		latest: latest,
		pitTemp: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "temperature"),
			"Fused pit temperature in the configured unit", nil, nil),
		setPoint: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "set_point"),
			"Target pit temperature", nil, nil),
		pidOutput: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "pid_output"),
			"Raw PID output percentage", nil, nil),
		fanPct: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "fan_percent"),
			"Committed fan duty percentage", nil, nil),
		servoPct: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "servo_percent"),
			"Committed damper position percentage", nil, nil),
		mode: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "mode"),
			"Current controller mode, as its ordinal value", nil, nil),
		numProbes: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystem, "connected_probes"),
			"Number of probes currently contributing to fusion", nil, nil),
	}
}

func (c *PitCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.pitTemp
	ch <- c.setPoint
	ch <- c.pidOutput
	ch <- c.fanPct
	ch <- c.servoPct
	ch <- c.mode
	ch <- c.numProbes
}

func (c *PitCollector) Collect(ch chan<- prometheus.Metric) {
	snap := c.latest()
	if snap == nil {
		return
	}
	if snap.PitTemp != nil {
		ch <- prometheus.MustNewConstMetric(c.pitTemp, prometheus.GaugeValue, *snap.PitTemp)
	}
	ch <- prometheus.MustNewConstMetric(c.setPoint, prometheus.GaugeValue, snap.SetPoint)
	ch <- prometheus.MustNewConstMetric(c.pidOutput, prometheus.GaugeValue, snap.PidOutput)
	ch <- prometheus.MustNewConstMetric(c.fanPct, prometheus.GaugeValue, float64(snap.FanPct))
	ch <- prometheus.MustNewConstMetric(c.servoPct, prometheus.GaugeValue, float64(snap.ServoPct))
	ch <- prometheus.MustNewConstMetric(c.mode, prometheus.GaugeValue, float64(snap.Mode))
	ch <- prometheus.MustNewConstMetric(c.numProbes, prometheus.GaugeValue, float64(snap.NumProbes))
}

// ProbeBatteryCollector exports the battery percentage of every currently
// tracked probe, keyed by MAC.
type ProbeBatteryCollector struct {
	latest  func() map[string]uint8
	battery *prometheus.Desc
}

func NewProbeBatteryCollector(latest func() map[string]uint8) *ProbeBatteryCollector {
	return &ProbeBatteryCollector{
		latest: latest,
		battery: prometheus.NewDesc(prometheus.BuildFQName(namespace, "probe", "battery_percent"),
			"Battery percentage of a connected probe", []string{"mac"}, nil),
	}
}

func (c *ProbeBatteryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.battery
}

func (c *ProbeBatteryCollector) Collect(ch chan<- prometheus.Metric) {
	for mac, pct := range c.latest() {
		ch <- prometheus.MustNewConstMetric(c.battery, prometheus.GaugeValue, float64(pct), mac)
	}
}
