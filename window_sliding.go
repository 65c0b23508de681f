package uglc

// SlidingWindow buffers a time-ordered stream of hits and releases each
// one downstream once it falls more than W ticks behind the most recently
// seen resolved_time. It is the leaf-most stage in the topology: SMLC
// wraps it directly, and MMLC implements the richer window-of-windows
// variant described in section 4.4 using the same eviction discipline.
//
// Unlike the teacher's wall-clock SlidingWindow (which slides on a ticker
// and can hold several overlapping windows at once), this is a single
// trailing window keyed off the event-time of each arriving hit: there is
// no wall-clock, no goroutine, and no overlap. Grounded on
// original_source/tjb/uglc/slidingwindow.py, translated from its Python
// deque-based enque/eos pair into the Sink contract.
type SlidingWindow struct {
	guard  eosGuard
	sink   Sink
	length int64

	hits     []*Hit
	currTime int64
	hasTime  bool
}

// NewSlidingWindow creates a SlidingWindow of the given length (in ticks)
// forwarding evicted hits to sink.
func NewSlidingWindow(stage string, length int64, sink Sink) *SlidingWindow {
	return &SlidingWindow{
		guard:  eosGuard{stage: stage},
		sink:   sink,
		length: length,
	}
}

// Enqueue implements Sink. It enforces monotonic resolved_time, evicts
// every hit now more than `length` ticks behind the new current time, and
// appends the new hit to the back of the window.
//
// On exit, for every hit b still buffered: currTime - b.ResolvedTime() <=
// length (section 4.2 invariant).
func (w *SlidingWindow) Enqueue(h *Hit) error {
	if err := w.guard.checkEnqueue(); err != nil {
		return err
	}

	t := h.ResolvedTime()
	if w.hasTime && t < w.currTime {
		return newPipelineErrorAt(OutOfOrder, w.guard.stage, h.Channel, t,
			"resolved_time regressed")
	}
	w.currTime = t
	w.hasTime = true

	for len(w.hits) > 0 && w.currTime-w.hits[0].ResolvedTime() > w.length {
		old := w.hits[0]
		w.hits = w.hits[1:]
		if err := w.sink.Enqueue(old); err != nil {
			return err
		}
	}

	w.hits = append(w.hits, h)
	return nil
}

// EndOfStream flushes every remaining buffered hit, in insertion (time)
// order, then propagates end_of_stream to the sink exactly once.
func (w *SlidingWindow) EndOfStream() error {
	if err := w.guard.checkEOS(); err != nil {
		return err
	}
	for _, h := range w.hits {
		if err := w.sink.Enqueue(h); err != nil {
			return err
		}
	}
	w.hits = nil
	return w.sink.EndOfStream()
}

// Window returns the hits currently buffered, in time order. Exposed for
// SMLC, which needs to inspect (and retroactively mark) the live window
// after every enqueue rather than only what gets evicted.
func (w *SlidingWindow) Window() []*Hit {
	return w.hits
}
