// Package uglc implements the Upgrade Local Coincidence (UGLC) streaming
// dataflow core for a neutrino-telescope detector. It decides and marks two
// per-hit coincidence flags, SMLC (single-module local coincidence) and
// MMLC (multi-module local coincidence), while reassembling a per-channel
// time-ordered input into a single global time-ordered output, grouped back
// into the frames it arrived in.
//
// The core abstraction is Sink, the push-style stage contract: every stage
// of the pipeline (demultiplexer, merge sorter, SMLC/MMLC engine,
// accumulator) accepts hits one at a time via Enqueue and is told when the
// stream is done via EndOfStream. The pipeline graph is wired once, at
// construction, and never reshaped; there is no concurrency inside it; a
// single call to the head's Enqueue can cascade arbitrarily many downstream
// forwards before returning.
//
// Basic usage:
//
//	geo := uglc.NewStaticGeometry(deviceTypes)
//	pipe, err := uglc.NewPipeline(population, geo, uglc.DefaultConfigs(), sink)
//	for _, hit := range hits {
//		if err := pipe.Enqueue(hit); err != nil { ... }
//	}
//	if err := pipe.EndOfStream(); err != nil { ... }
package uglc

import "fmt"

// ChannelId identifies one photodetector readout channel (an OMKey) by
// (string, module, pmt). It is a value type: hashable, comparable, and
// totally ordered lexicographically on (StringID, ModuleID, PMTID).
type ChannelId struct {
	StringID int
	ModuleID int
	PMTID    int
}

// String implements fmt.Stringer for error messages and logging.
func (c ChannelId) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.StringID, c.ModuleID, c.PMTID)
}

// Less reports whether c sorts lexicographically before other. Used only
// to make pipeline construction order deterministic (section 9, "Iteration
// order over unordered channel sets"); it plays no part in time ordering.
func (c ChannelId) Less(other ChannelId) bool {
	if c.StringID != other.StringID {
		return c.StringID < other.StringID
	}
	if c.ModuleID != other.ModuleID {
		return c.ModuleID < other.ModuleID
	}
	return c.PMTID < other.PMTID
}

// Module returns the ModuleId this channel belongs to.
func (c ChannelId) Module() ModuleId {
	return ModuleId{StringID: c.StringID, ModuleID: c.ModuleID}
}

// StringId returns the StringId this channel belongs to.
func (c ChannelId) StringId() StringId {
	return StringId{StringID: c.StringID}
}

// ModuleId identifies a physical sensor housing by (string, module); it is
// the projection of ChannelId that drops the PMT component.
type ModuleId struct {
	StringID int
	ModuleID int
}

// String implements fmt.Stringer.
func (m ModuleId) String() string {
	return fmt.Sprintf("(%d,%d)", m.StringID, m.ModuleID)
}

// Less orders ModuleIds lexicographically, for deterministic plumbing.
func (m ModuleId) Less(other ModuleId) bool {
	if m.StringID != other.StringID {
		return m.StringID < other.StringID
	}
	return m.ModuleID < other.ModuleID
}

// StringId identifies a vertical cable hosting many modules.
type StringId struct {
	StringID int
}

// String implements fmt.Stringer.
func (s StringId) String() string {
	return fmt.Sprintf("%d", s.StringID)
}

// Less orders StringIds, for deterministic plumbing.
func (s StringId) Less(other StringId) bool {
	return s.StringID < other.StringID
}

// Pulse is a single detected event as delivered by the Reader boundary.
// RawTime is in ticks and is interpreted only relative to its own Group's
// t_offset; Payload is opaque to the pipeline (calibration data, charge,
// flags the physics layer cares about, none of which affect coincidence
// marking).
type Pulse struct {
	RawTime int64
	Payload any
}

// Group is shared by every Hit manufactured from the same input frame. It
// is immutable once constructed and carries the time offset the Driver
// assigned in joined mode (zero in isolated mode).
type Group struct {
	ID      string
	Offset  int64
}

// Hit is the pipeline-internal wrapper around a Pulse: a Pulse joined to
// its originating Group and channel, carrying the two coincidence flags
// the pipeline computes. A Hit has exactly one owner at any time (the
// stage whose buffer currently holds it); a stage that enqueues a Hit
// downstream must not retain its own reference to it.
type Hit struct {
	Group   *Group
	Channel ChannelId
	Pulse   Pulse
	SMLC    bool
	MMLC    bool
}

// ResolvedTime is the canonical ordering key used by every stage once a
// Hit has passed the first merge: raw pulse time plus the frame group's
// offset.
func (h *Hit) ResolvedTime() int64 {
	return h.Pulse.RawTime + h.Group.Offset
}

// RawTime is the pulse's original, un-offset timestamp. Only the
// Accumulator uses it, to bucket a Hit back into the frame it came from
// even when resolved_time has been shifted by join-mode offsetting.
func (h *Hit) RawTime() int64 {
	return h.Pulse.RawTime
}

// markSMLC and markMMLC are idempotent: once set, a flag is never cleared
// (section 3 invariant: "smlc/mmlc flags are monotonic").
func (h *Hit) markSMLC() { h.SMLC = true }
func (h *Hit) markMMLC() { h.MMLC = true }
