// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Scan outcome labels.
const (
	OutcomeSessionOpened = "session_opened"
	OutcomeSessionClosed = "session_closed"
	OutcomeStudentMarked = "student_marked"
	OutcomeRejected      = "rejected"
	OutcomeError         = "error"
)

// Recorder is the interface the engine and workers report through.
type Recorder interface {
	RecordScan(outcome string)
	RecordAttendanceMark()
	RecordRosterReset()
	RecordResetFailure()
}

// Collector implements Recorder on Prometheus counters.
type Collector struct {
	scans        *prometheus.CounterVec
	marks        prometheus.Counter
	rosterResets prometheus.Counter
	resetFails   prometheus.Counter
}

// NewCollector builds a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "classattend_scans_total",
			Help: "Fingerprint scans by outcome",
		}, []string{"outcome"}),
		marks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classattend_attendance_marks_total",
			Help: "Students marked present",
		}),
		rosterResets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classattend_roster_resets_total",
			Help: "Roster resets performed after report downloads",
		}),
		resetFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "classattend_reset_failures_total",
			Help: "Background reset jobs that failed",
		}),
	}
	reg.MustRegister(c.scans, c.marks, c.rosterResets, c.resetFails)
	return c
}

func (c *Collector) RecordScan(outcome string) { c.scans.WithLabelValues(outcome).Inc() }
func (c *Collector) RecordAttendanceMark()     { c.marks.Inc() }
func (c *Collector) RecordRosterReset()        { c.rosterResets.Inc() }
func (c *Collector) RecordResetFailure()       { c.resetFails.Inc() }

// Nop discards all metrics; used in tests.
type Nop struct{}

func (Nop) RecordScan(string)       {}
func (Nop) RecordAttendanceMark()   {}
func (Nop) RecordRosterReset()      {}
func (Nop) RecordResetFailure()     {}
