// Package testing provides declarative builders and assertions for tests
// written outside package uglc, mirroring the teacher's sibling testing
// package (zoobzio/streamz/testing). It imports uglc, so uglc's own
// in-package tests cannot import it and keep their own local helpers.
package testing

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/icecube-uglc/uglc"
)

// DefaultGroup is a zero-offset Group suitable for tests that don't care
// about join-mode time offsetting.
var DefaultGroup = &uglc.Group{ID: "test", Offset: 0}

// Hit builds a Hit on DefaultGroup for channel (string, module, pmt) at
// the given resolved time.
func Hit(str, mod, pmt int, t int64) *uglc.Hit {
	return HitIn(DefaultGroup, str, mod, pmt, t)
}

// HitIn builds a Hit on an explicit Group, for tests exercising join-mode
// offsetting.
func HitIn(group *uglc.Group, str, mod, pmt int, t int64) *uglc.Hit {
	return &uglc.Hit{
		Group:   group,
		Channel: uglc.ChannelId{StringID: str, ModuleID: mod, PMTID: pmt},
		Pulse:   uglc.Pulse{RawTime: t - group.Offset},
	}
}

// Channel builds a ChannelId, saving callers a struct literal.
func Channel(str, mod, pmt int) uglc.ChannelId {
	return uglc.ChannelId{StringID: str, ModuleID: mod, PMTID: pmt}
}

// Population builds a Population from a flat list of (string, module,
// pmt) triples.
func Population(triples ...[3]int) *uglc.Population {
	channels := make([]uglc.ChannelId, len(triples))
	for i, tr := range triples {
		channels[i] = uglc.ChannelId{StringID: tr[0], ModuleID: tr[1], PMTID: tr[2]}
	}
	return uglc.NewPopulation(channels)
}

// RecordingSink is a Sink that records every hit it receives and whether
// EndOfStream was called, for assertions in unit tests exercising a single
// stage in isolation.
type RecordingSink struct {
	Hits []*uglc.Hit
	EOS  bool
}

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

// Enqueue implements uglc.Sink.
func (r *RecordingSink) Enqueue(h *uglc.Hit) error {
	r.Hits = append(r.Hits, h)
	return nil
}

// EndOfStream implements uglc.Sink.
func (r *RecordingSink) EndOfStream() error {
	r.EOS = true
	return nil
}

// Times returns the resolved times of every recorded hit, in the order
// received.
func (r *RecordingSink) Times() []int64 {
	times := make([]int64, len(r.Hits))
	for i, h := range r.Hits {
		times[i] = h.ResolvedTime()
	}
	return times
}

// RecordingConsumer is a Consumer that records every FrameResult it
// receives, for Driver/Accumulator integration tests.
type RecordingConsumer struct {
	Frames []*uglc.FrameResult
}

// NewRecordingConsumer creates an empty RecordingConsumer.
func NewRecordingConsumer() *RecordingConsumer {
	return &RecordingConsumer{}
}

// Consume implements uglc.Consumer.
func (r *RecordingConsumer) Consume(fr *uglc.FrameResult) error {
	r.Frames = append(r.Frames, fr)
	return nil
}

// AssertNonDecreasing fails the test if times is not sorted
// non-decreasingly.
func AssertNonDecreasing(t *testing.T, times []int64) {
	t.Helper()
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			t.Errorf("times not non-decreasing at index %d: %v", i, times)
			return
		}
	}
}

// AssertMarks fails the test if hit.SMLC/MMLC don't match the expected
// values.
func AssertMarks(t *testing.T, h *uglc.Hit, wantSMLC, wantMMLC bool) {
	t.Helper()
	if h.SMLC != wantSMLC {
		t.Errorf("hit %s: smlc=%v, want %v", h.Channel, h.SMLC, wantSMLC)
	}
	if h.MMLC != wantMMLC {
		t.Errorf("hit %s: mmlc=%v, want %v", h.Channel, h.MMLC, wantMMLC)
	}
}

// AssertTimesEqual fails the test with a structural diff if got and want
// differ, for assertions that want more than a single mismatched index
// reported.
func AssertTimesEqual(t *testing.T, got, want []int64) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("times mismatch (-want +got):\n%s", diff)
	}
}
