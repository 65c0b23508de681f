package uglc

import (
	"io"
	"log"

	"github.com/pkg/errors"
)

// DriverMode selects how the Driver relates frames to Pipeline/Accumulator
// instances (section 4.9).
type DriverMode int

const (
	// ModeIsolated processes every frame with a fresh Pipeline and
	// Accumulator.
	ModeIsolated DriverMode = iota
	// ModeJoined processes every frame through one shared Pipeline and
	// Accumulator, offsetting each frame's times so the joined stream
	// stays monotonic.
	ModeJoined
)

// DefaultJoinGap is the default Δ (section 6), the minimum separation
// enforced between consecutive frames' resolved time ranges in joined
// mode.
const DefaultJoinGap = int64(100)

// Stats tracks cumulative hit accounting across a Driver run (SPEC_FULL.md
// supplemented feature 1, grounded on original_source/tjb/pipeline/
// driver.py's cnt_in/cnt_out counters). HitsIn counts hits enqueued into
// the pipeline head; HitsOut counts hits that reached the Accumulator.
// HitsIn - HitsOut is the count still buffered somewhere in the pipeline
// at any point during a run.
type Stats struct {
	HitsIn  int64
	HitsOut int64
}

// countingSink wraps a Sink, incrementing a caller-owned counter on every
// Enqueue. Reproduces original_source/tjb/pipeline/pipeline.py's Counter
// class without threading a counter argument through every stage.
type countingSink struct {
	inner Sink
	count *int64
}

func newCountingSink(inner Sink, count *int64) *countingSink {
	return &countingSink{inner: inner, count: count}
}

func (c *countingSink) Enqueue(h *Hit) error {
	*c.count++
	return c.inner.Enqueue(h)
}

func (c *countingSink) EndOfStream() error {
	return c.inner.EndOfStream()
}

// assertMonotonicSink is a debug-only Sink decorator asserting that
// resolved_time is non-decreasing across every hit it sees, failing with
// OutOfOrder otherwise. Reproduces original_source/tjb/pipeline/
// pipeline.py's EnforceOrdering utility (SPEC_FULL.md supplemented feature
// 2); it is not part of the production topology, only of pipeline
// property tests that check the "outputs of every stage are non-
// decreasing" invariant at an internal merge point.
type assertMonotonicSink struct {
	stage   string
	sink    Sink
	hasTime bool
	last    int64
}

func assertMonotonic(stage string, sink Sink) *assertMonotonicSink {
	return &assertMonotonicSink{stage: stage, sink: sink}
}

func (a *assertMonotonicSink) Enqueue(h *Hit) error {
	t := h.ResolvedTime()
	if a.hasTime && t < a.last {
		return newPipelineErrorAt(OutOfOrder, a.stage, h.Channel, t, "resolved_time regressed (debug assertion)")
	}
	a.hasTime, a.last = true, t
	return a.sink.Enqueue(h)
}

func (a *assertMonotonicSink) EndOfStream() error {
	return a.sink.EndOfStream()
}

// Driver owns the Reader -> Pipeline -> Accumulator -> Consumer wiring
// and drives it to completion in either mode (section 4.9).
type Driver struct {
	Geo      Geometry
	Config   Config
	Consumer Consumer
	Mode     DriverMode
	JoinGap  int64
	Clock    Clock

	stats Stats
}

// NewDriver builds a Driver. clock may be nil, in which case RealClock is
// used.
func NewDriver(geo Geometry, cfg Config, consumer Consumer, mode DriverMode, joinGap int64, clock Clock) *Driver {
	if clock == nil {
		clock = RealClock
	}
	return &Driver{Geo: geo, Config: cfg, Consumer: consumer, Mode: mode, JoinGap: joinGap, Clock: clock}
}

// Stats returns the cumulative hit counters as of the last processed
// frame.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Run drives reader to completion in the Driver's configured mode.
func (d *Driver) Run(reader Reader) error {
	if d.Mode == ModeJoined {
		return d.runJoined(reader)
	}
	return d.runIsolated(reader)
}

func (d *Driver) runIsolated(reader Reader) error {
	idx := 0
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read frame")
		}

		sw := NewStopwatch(d.Clock)
		if err := d.processIsolatedFrame(frame); err != nil {
			return errors.Wrapf(err, "process frame %s (index %d)", frame.ID, idx)
		}
		log.Printf("frame %s done in %s: hits_in=%d hits_out=%d", frame.ID, sw.Elapsed(), d.stats.HitsIn, d.stats.HitsOut)
		idx++
	}
}

func (d *Driver) processIsolatedFrame(frame *Frame) error {
	tMin, tMax, err := frame.TimeBounds()
	if err != nil {
		return err
	}

	acc := NewAccumulator(d.Consumer)
	out := newCountingSink(acc, &d.stats.HitsOut)

	pipe, err := NewPipeline(frame.Population(), d.Geo, d.Config, out)
	if err != nil {
		return errors.Wrap(err, "build pipeline")
	}

	acc.ExpectFrame(frame.ID, frame.Channels, tMin, tMax)
	group := &Group{ID: frame.ID, Offset: 0}
	for _, h := range frame.Hits(group) {
		d.stats.HitsIn++
		if err := pipe.Enqueue(h); err != nil {
			return err
		}
	}
	return pipe.EndOfStream()
}

func (d *Driver) runJoined(reader Reader) error {
	population, err := peekJoinedPopulation(reader)
	if err != nil {
		return err
	}
	if err := reader.Reset(); err != nil {
		return errors.Wrap(err, "reset reader for joined pass")
	}

	acc := NewAccumulator(d.Consumer)
	out := newCountingSink(acc, &d.stats.HitsOut)
	pipe, err := NewPipeline(population, d.Geo, d.Config, out)
	if err != nil {
		return errors.Wrap(err, "build pipeline")
	}

	joinGap := d.JoinGap
	if joinGap == 0 {
		joinGap = DefaultJoinGap
	}

	var lastPit int64
	first := true
	idx := 0
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Wrap(err, "read frame")
		}

		sw := NewStopwatch(d.Clock)
		tMin, tMax, err := frame.TimeBounds()
		if err != nil {
			return errors.Wrapf(err, "frame %s (index %d)", frame.ID, idx)
		}

		var offset int64
		if !first {
			offset = lastPit - tMin + joinGap
		}
		first = false
		lastPit = tMax + offset

		acc.ExpectFrame(frame.ID, frame.Channels, tMin, tMax)
		group := &Group{ID: frame.ID, Offset: offset}
		for _, h := range frame.Hits(group) {
			d.stats.HitsIn++
			if err := pipe.Enqueue(h); err != nil {
				return errors.Wrapf(err, "frame %s (index %d)", frame.ID, idx)
			}
		}
		log.Printf("frame %s enqueued in %s: offset=%d hits_in=%d hits_out=%d", frame.ID, sw.Elapsed(), offset, d.stats.HitsIn, d.stats.HitsOut)
		idx++
	}

	if err := pipe.EndOfStream(); err != nil {
		return errors.Wrap(err, "final end_of_stream")
	}
	log.Printf("joined run complete: frames=%d hits_in=%d hits_out=%d", idx, d.stats.HitsIn, d.stats.HitsOut)
	return nil
}

// peekJoinedPopulation iterates reader once, collecting the union of
// every channel across every frame, without retaining the frames
// themselves: joined mode must know the full Population before building
// its one Pipeline (section 4.9), but need not hold every frame in memory
// to do so (SPEC_FULL.md supplemented feature 4).
func peekJoinedPopulation(reader Reader) (*Population, error) {
	var channels []ChannelId
	for {
		frame, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read frame during population peek")
		}
		for c := range frame.Channels {
			channels = append(channels, c)
		}
	}
	return NewPopulation(channels), nil
}
