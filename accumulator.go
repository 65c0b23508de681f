package uglc

import "fmt"

// Accumulator slices the pipeline's single global-time-ordered output
// stream back into per-frame FrameResults and hands each completed one to
// a Consumer, in input order (section 4.8). It implements Sink so it can
// be wired directly as the terminal sink of a Pipeline.
//
// Bucketing uses raw_time, not resolved_time: in joined mode the pipeline
// operates on offset (resolved) times, but frame bounds are captured in
// raw coordinates at ExpectFrame time, so the Accumulator must compare
// apples to apples.
type Accumulator struct {
	consumer Consumer
	pending  []*FrameResult
	done     bool
}

// NewAccumulator creates an Accumulator delivering completed frames to
// consumer.
func NewAccumulator(consumer Consumer) *Accumulator {
	return &Accumulator{consumer: consumer}
}

// ExpectFrame registers a frame about to be pushed into the pipeline head,
// with the raw_time bounds [tStart, tEnd] supplied by the caller (the
// Driver passes the pulse extremes from Frame.TimeBounds). The Driver
// calls this exactly once per frame, before enqueueing any of that
// frame's hits.
func (a *Accumulator) ExpectFrame(id string, original map[ChannelId][]Pulse, tStart, tEnd int64) {
	a.pending = append(a.pending, newFrameResult(id, original, tStart, tEnd))
}

// Enqueue implements Sink: it receives hits from the pipeline tail in
// global time order and files each one against the earliest pending frame
// whose [t_start, t_end] (in raw_time) it falls within, popping and
// delivering any frame(s) that hit's raw_time has already passed.
func (a *Accumulator) Enqueue(h *Hit) error {
	if a.done {
		return newPipelineErrorAt(EOSAfterEnqueue, "accumulator", h.Channel, h.RawTime(), "enqueue after end_of_stream")
	}

	t := h.RawTime()
	for len(a.pending) > 0 {
		front := a.pending[0]
		if t < front.TStart {
			return newPipelineErrorAt(HitPredatesFrame, "accumulator", h.Channel, t,
				fmt.Sprintf("predates frame %s (t_start=%d)", front.ID, front.TStart))
		}
		if t > front.TEnd {
			a.pending = a.pending[1:]
			if err := a.consumer.Consume(front); err != nil {
				return err
			}
			continue
		}
		front.append(h)
		return nil
	}
	return newPipelineErrorAt(OrphanHit, "accumulator", h.Channel, t, "no pending frame")
}

// EndOfStream requires exactly one pending frame to remain; it is handed
// to the consumer and the Accumulator is marked done.
func (a *Accumulator) EndOfStream() error {
	if a.done {
		return newPipelineError(DuplicateEOS, "accumulator", "end_of_stream called twice")
	}
	a.done = true
	if len(a.pending) != 1 {
		return newPipelineError(EOSAccumulatorMismatch, "accumulator",
			fmt.Sprintf("pending frame count = %d, want 1", len(a.pending)))
	}
	front := a.pending[0]
	a.pending = nil
	return a.consumer.Consume(front)
}
