package uglc

// Sink is the stage contract every pipeline component implements (section
// 4.1). It replaces the source's duck-typed {enqueue, eos} object with a
// small interface; because the pipeline graph is built once at
// construction and never reshaped, dispatch need only be virtual, not
// dynamic, past initialization (section 9).
//
// Implementations must enforce:
//   - EndOfStream is idempotent-forbidden: a second call is a fatal error.
//   - No Enqueue call is legal after EndOfStream.
//   - EndOfStream must flush every buffered hit, in time order, to each
//     downstream sink before propagating EndOfStream to it, and must
//     propagate EndOfStream to each downstream exactly once.
type Sink interface {
	// Enqueue accepts one hit. It may buffer it, forward it immediately,
	// or forward zero or more previously buffered hits as a side effect.
	Enqueue(h *Hit) error

	// EndOfStream signals that no further hits will arrive.
	EndOfStream() error
}

// eosGuard centralizes the idempotent-forbidden / no-enqueue-after-eos
// bookkeeping so every stage doesn't have to hand-roll it.
type eosGuard struct {
	stage string
	done  bool
}

func (g *eosGuard) checkEnqueue() error {
	if g.done {
		return newPipelineError(EOSAfterEnqueue, g.stage, "enqueue after end_of_stream")
	}
	return nil
}

func (g *eosGuard) checkEOS() error {
	if g.done {
		return newPipelineError(DuplicateEOS, g.stage, "end_of_stream called twice")
	}
	g.done = true
	return nil
}
