package uglc

import (
	"fmt"
	"sort"
)

// Frame is the Reader boundary's input unit (section 6): a frame id and a
// map from channel to its time-ordered pulse sequence, as produced by the
// out-of-scope file/frame reader. The concrete `injest` package adapts a
// newline-delimited JSON document into this shape.
type Frame struct {
	ID       string
	Channels map[ChannelId][]Pulse
}

// sortedChannelIds returns the channels of m in deterministic
// (lexicographic) order, so both iteration disciplines below are
// reproducible across runs (section 9).
func sortedChannelIds(m map[ChannelId][]Pulse) []ChannelId {
	ids := make([]ChannelId, 0, len(m))
	for c := range m {
		ids = append(ids, c)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// Hits iterates the frame depth-first: channel by channel, in each
// channel's own pulse order, wrapping every pulse into a Hit bound to
// group (section 6).
func (f *Frame) Hits(group *Group) []*Hit {
	var hits []*Hit
	for _, c := range sortedChannelIds(f.Channels) {
		for _, p := range f.Channels[c] {
			hits = append(hits, &Hit{Group: group, Channel: c, Pulse: p})
		}
	}
	return hits
}

// HitsBreadthFirst iterates the frame round-robin across channels instead
// of channel-by-channel. The pipeline is correct under either discipline
// because the per-module sorter re-orders regardless (section 6); kept
// alongside Hits so property tests can confirm that equivalence directly
// (see SPEC_FULL.md, "Breadth-first frame iteration").
func (f *Frame) HitsBreadthFirst(group *Group) []*Hit {
	ids := sortedChannelIds(f.Channels)
	var hits []*Hit
	for i := 0; ; i++ {
		any := false
		for _, c := range ids {
			pulses := f.Channels[c]
			if i < len(pulses) {
				hits = append(hits, &Hit{Group: group, Channel: c, Pulse: pulses[i]})
				any = true
			}
		}
		if !any {
			return hits
		}
	}
}

// Population returns the Population this frame alone would plumb a
// Pipeline for.
func (f *Frame) Population() *Population {
	channels := make([]ChannelId, 0, len(f.Channels))
	for c := range f.Channels {
		channels = append(channels, c)
	}
	return NewPopulation(channels)
}

// TimeBounds returns the (t_min, t_max) raw_time extremes across every
// pulse in the frame, failing with DeficientFrame if the frame carries no
// pulses at all (section 7).
func (f *Frame) TimeBounds() (int64, int64, error) {
	var tMin, tMax int64
	seen := false
	for _, pulses := range f.Channels {
		for _, p := range pulses {
			if !seen {
				tMin, tMax, seen = p.RawTime, p.RawTime, true
				continue
			}
			if p.RawTime < tMin {
				tMin = p.RawTime
			}
			if p.RawTime > tMax {
				tMax = p.RawTime
			}
		}
	}
	if !seen {
		return 0, 0, newPipelineError(DeficientFrame, "frame", fmt.Sprintf("frame %s has no pulses", f.ID))
	}
	return tMin, tMax, nil
}

// FrameResult is what the Accumulator hands to the Consumer: the original
// frame metadata plus every Hit it collected, in emission (global time)
// order, with running SMLC/MMLC counts (section 3).
type FrameResult struct {
	ID       string
	Original map[ChannelId][]Pulse
	TStart   int64
	TEnd     int64
	Hits     []*Hit

	SMLCCount int
	MMLCCount int
}

func newFrameResult(id string, original map[ChannelId][]Pulse, tStart, tEnd int64) *FrameResult {
	return &FrameResult{ID: id, Original: original, TStart: tStart, TEnd: tEnd}
}

// append records h against this frame, bumping SMLCCount/MMLCCount if its
// flags are set (section 4.8).
func (fr *FrameResult) append(h *Hit) {
	fr.Hits = append(fr.Hits, h)
	if h.SMLC {
		fr.SMLCCount++
	}
	if h.MMLC {
		fr.MMLCCount++
	}
}

// Reader is the external boundary producing a lazy sequence of Frames
// (section 6). Next returns (nil, io.EOF) once exhausted. Reset rewinds
// to the beginning, used by the Driver's joined-mode population peek
// (SPEC_FULL.md supplemented feature 4): the reader is iterated once to
// learn the union Population, then rewound and iterated again to actually
// drive the pipeline, since neither pass may be skipped without either
// buffering every frame in memory or building the pipeline blind.
type Reader interface {
	Next() (*Frame, error)
	Reset() error
}

// Consumer is the external boundary that persists or otherwise handles a
// completed frame (section 6). The core pipeline never depends on a
// concrete Consumer; it is out of scope.
type Consumer interface {
	Consume(*FrameResult) error
}
