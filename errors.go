package uglc

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind enumerates the fatal error classes defined by the pipeline's
// error handling design. Every error the pipeline raises is fatal at the
// process level: there is no local recovery, by design (section 5,
// "Cancellation and timeouts: none").
type ErrorKind int

const (
	// OutOfOrder: a stream alleged to be monotonic delivered a time regression.
	OutOfOrder ErrorKind = iota
	// UnknownChannel: a Demux received a hit for an unplumbed key.
	UnknownChannel
	// DuplicateEOS: a stage received end_of_stream twice.
	DuplicateEOS
	// EOSAfterEnqueue: enqueue after end_of_stream.
	EOSAfterEnqueue
	// OrphanHit: Accumulator received a hit with no pending frame.
	OrphanHit
	// HitPredatesFrame: Accumulator received a hit whose raw_time is less
	// than the front frame's t_start.
	HitPredatesFrame
	// EOSAccumulatorMismatch: end_of_stream with pending-frame count != 1.
	EOSAccumulatorMismatch
	// DeficientFrame: input frame has no pulses.
	DeficientFrame
	// UnsupportedDevice: geometry returned a type the configs do not cover.
	UnsupportedDevice
)

// String names the error kind, used in %s/%v formatting.
func (k ErrorKind) String() string {
	switch k {
	case OutOfOrder:
		return "OutOfOrder"
	case UnknownChannel:
		return "UnknownChannel"
	case DuplicateEOS:
		return "DuplicateEOS"
	case EOSAfterEnqueue:
		return "EOSAfterEnqueue"
	case OrphanHit:
		return "OrphanHit"
	case HitPredatesFrame:
		return "HitPredatesFrame"
	case EOSAccumulatorMismatch:
		return "EOSAccumulatorMismatch"
	case DeficientFrame:
		return "DeficientFrame"
	case UnsupportedDevice:
		return "UnsupportedDevice"
	default:
		return "Unknown"
	}
}

// PipelineError reports a fatal pipeline error together with the offending
// entities (stage name, channel, times) needed to bisect it, mirroring the
// teacher's StreamError[T] in spirit (item + processor name + cause) but
// carrying a fixed error Kind instead of a generic item, since every
// pipeline error is one of a closed set of kinds (section 7).
type PipelineError struct {
	Kind    ErrorKind
	Stage   string
	Channel *ChannelId
	Time    *int64
	Detail  string
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	msg := fmt.Sprintf("%s at %s", e.Kind, e.Stage)
	if e.Channel != nil {
		msg += fmt.Sprintf(" channel=%s", *e.Channel)
	}
	if e.Time != nil {
		msg += fmt.Sprintf(" time=%d", *e.Time)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// newPipelineError builds a PipelineError and wraps it with pkg/errors so
// the stack trace is anchored at the failing Enqueue/EndOfStream call
// rather than only at the point the Driver later aborts the process.
func newPipelineError(kind ErrorKind, stage string, detail string) error {
	return errors.WithStack(&PipelineError{Kind: kind, Stage: stage, Detail: detail})
}

func newPipelineErrorAt(kind ErrorKind, stage string, ch ChannelId, t int64, detail string) error {
	return errors.WithStack(&PipelineError{Kind: kind, Stage: stage, Channel: &ch, Time: &t, Detail: detail})
}

// AsPipelineError unwraps err (which may have been wrapped by pkg/errors
// any number of times) into its underlying *PipelineError, if any.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
