package logger

import "fmt"

// ProgressSink receives phase and log events from a reconciliation run.
// Both calls are fire-and-forget with no backpressure; the caller typically
// forwards them to a UI over a channel.
type ProgressSink interface {
	EmitProgress(phase string, percent int)
	EmitLog(message string)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) EmitProgress(string, int) {}
func (NopSink) EmitLog(string)           {}

// LogSink forwards events to a Logger. It is the default sink for CLI runs.
type LogSink struct {
	Logger Logger
}

func (s LogSink) EmitProgress(phase string, percent int) {
	s.Logger.WithFields(Fields{"phase": phase, "percent": percent}).Info("Progress")
}

func (s LogSink) EmitLog(message string) {
	s.Logger.Info(message)
}

// PhaseReporter reports one phase's progress as a monotonic 0-100 percentage
// quantized to 10-point buckets, remapped onto the sub-range of overall
// progress the phase owns. Duplicate bucket values are suppressed, so each
// bucket transition is reported at most once.
type PhaseReporter struct {
	sink  ProgressSink
	phase string
	// Sub-range of overall progress this phase maps onto.
	lo, hi     int
	total      int
	processed  int
	lastBucket int
}

// NewPhaseReporter creates a reporter for a phase covering the [lo, hi]
// slice of overall progress, with total units of work.
func NewPhaseReporter(sink ProgressSink, phase string, lo, hi, total int) *PhaseReporter {
	if sink == nil {
		sink = NopSink{}
	}
	return &PhaseReporter{
		sink:       sink,
		phase:      phase,
		lo:         lo,
		hi:         hi,
		total:      total,
		lastBucket: -1,
	}
}

// Begin announces the phase at its starting percentage.
func (p *PhaseReporter) Begin() {
	p.sink.EmitProgress(p.phase, p.lo)
}

// Step records one completed unit of work and emits the bucket transition if
// one occurred.
func (p *PhaseReporter) Step() {
	p.processed++
	if p.total <= 0 {
		return
	}
	raw := p.processed * 100 / p.total
	p.emitBucket((raw / 10) * 10)
}

// Finish forces the terminal bucket so the phase always ends at its upper
// bound even when total was zero.
func (p *PhaseReporter) Finish() {
	p.emitBucket(100)
}

func (p *PhaseReporter) emitBucket(bucket int) {
	if bucket == p.lastBucket {
		return
	}
	p.lastBucket = bucket

	mapped := p.lo + (bucket*(p.hi-p.lo)+50)/100
	if mapped < p.lo {
		mapped = p.lo
	} else if mapped > p.hi {
		mapped = p.hi
	}

	p.sink.EmitProgress(p.phase, mapped)
	p.sink.EmitLog(fmt.Sprintf("%s progress: %d%% (%d/%d records processed)",
		p.phase, bucket, p.processed, p.total))
}
