package uglc

import "fmt"

// SMLCConfig holds the per-device-type single-module local coincidence
// parameters: the sliding window length (ticks) and the multiplicity
// threshold. Defaults mirror original_source/tjb/uglc/smlc.py's SMLCConfig
// lookup table.
type SMLCConfig struct {
	WindowLength int64
	Multiplicity int
}

// SMLC marks hits SMLC=true when the sliding window over one module's
// time-ordered stream currently holds at least Multiplicity hits. It does
// not itself release or reorder hits; it only marks whatever SlidingWindow
// already holds, and relies on SlidingWindow's own eviction to forward
// them downstream in time order (section 4.3).
type SMLC struct {
	module ModuleId
	config SMLCConfig
	window *SlidingWindow
}

// NewSMLC creates an SMLC engine for the given module, forwarding evicted
// (and possibly marked) hits to sink.
func NewSMLC(module ModuleId, config SMLCConfig, sink Sink) *SMLC {
	stage := fmt.Sprintf("smlc[%s]", module)
	return &SMLC{
		module: module,
		config: config,
		window: NewSlidingWindow(stage, config.WindowLength, sink),
	}
}

// Enqueue feeds the hit through the sliding window, then re-examines the
// (now trimmed) window: if it holds Multiplicity or more hits, every hit
// currently in it is marked SMLC, including ones marked on an earlier
// pass (marking is idempotent; see section 4.3's "Rationale").
func (s *SMLC) Enqueue(h *Hit) error {
	if err := s.window.Enqueue(h); err != nil {
		return err
	}
	s.examine()
	return nil
}

func (s *SMLC) examine() {
	window := s.window.Window()
	if len(window) >= s.config.Multiplicity {
		for _, h := range window {
			h.markSMLC()
		}
	}
}

// EndOfStream flushes the underlying window, preserving whatever marks
// each still-buffered hit has accumulated.
func (s *SMLC) EndOfStream() error {
	return s.window.EndOfStream()
}

// defaultSMLCConfigs returns the built-in per-device-type SMLC defaults
// (DEGG {250,4}, MDOM {100,2}), matching original_source's SMLCConfig
// lookup. Used when no config file overrides them (see geometry.go).
func defaultSMLCConfigs() map[DeviceType]SMLCConfig {
	return map[DeviceType]SMLCConfig{
		DEGG: {WindowLength: 250, Multiplicity: 4},
		MDOM: {WindowLength: 100, Multiplicity: 2},
	}
}
