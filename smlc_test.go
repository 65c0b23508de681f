package uglc

import "testing"

func smlcHit(mod ModuleId, t int64) *Hit {
	return &Hit{Group: &Group{}, Channel: ChannelId{StringID: mod.StringID, ModuleID: mod.ModuleID, PMTID: 0}, Pulse: Pulse{RawTime: t}}
}

// S1: SMLC trigger at multiplicity, but each hit falls out of the window
// before multiplicity is reached -> nothing marked.
func TestSMLC_S1_NoTrigger(t *testing.T) {
	mod := ModuleId{StringID: 1, ModuleID: 1}
	sink := NewRecordingSinkForTest()
	s := NewSMLC(mod, SMLCConfig{WindowLength: 100, Multiplicity: 2}, sink)

	for _, tt := range []int64{10, 50, 200} {
		if err := s.Enqueue(smlcHit(mod, tt)); err != nil {
			t.Fatalf("enqueue %d: %v", tt, err)
		}
	}
	if err := s.EndOfStream(); err != nil {
		t.Fatal(err)
	}

	if len(sink.hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(sink.hits))
	}
	for _, h := range sink.hits {
		if h.SMLC {
			t.Errorf("hit at %d unexpectedly marked smlc", h.RawTime())
		}
	}
}

// S2: SMLC trigger within window: all three end up marked.
func TestSMLC_S2_Trigger(t *testing.T) {
	mod := ModuleId{StringID: 1, ModuleID: 1}
	sink := NewRecordingSinkForTest()
	s := NewSMLC(mod, SMLCConfig{WindowLength: 100, Multiplicity: 2}, sink)

	for _, tt := range []int64{10, 50, 80} {
		if err := s.Enqueue(smlcHit(mod, tt)); err != nil {
			t.Fatalf("enqueue %d: %v", tt, err)
		}
	}
	if err := s.EndOfStream(); err != nil {
		t.Fatal(err)
	}

	if len(sink.hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(sink.hits))
	}
	for _, h := range sink.hits {
		if !h.SMLC {
			t.Errorf("hit at %d expected smlc=true", h.RawTime())
		}
	}
}

func TestSMLC_SingleChannelMultiplicityOne(t *testing.T) {
	mod := ModuleId{StringID: 1, ModuleID: 1}
	sink := NewRecordingSinkForTest()
	s := NewSMLC(mod, SMLCConfig{WindowLength: 10, Multiplicity: 1}, sink)

	if err := s.Enqueue(smlcHit(mod, 5)); err != nil {
		t.Fatal(err)
	}
	if err := s.EndOfStream(); err != nil {
		t.Fatal(err)
	}
	if len(sink.hits) != 1 || !sink.hits[0].SMLC {
		t.Fatalf("expected single marked hit, got %+v", sink.hits)
	}
}

func TestSMLC_RetroactiveMarkIsIdempotent(t *testing.T) {
	// A hit marked on one pass keeps its mark even after a later pass
	// that, by itself, would not re-trigger the multiplicity condition.
	mod := ModuleId{StringID: 1, ModuleID: 1}
	sink := NewRecordingSinkForTest()
	s := NewSMLC(mod, SMLCConfig{WindowLength: 1000, Multiplicity: 2}, sink)

	h1 := smlcHit(mod, 0)
	h2 := smlcHit(mod, 1)
	if err := s.Enqueue(h1); err != nil {
		t.Fatal(err)
	}
	if err := s.Enqueue(h2); err != nil {
		t.Fatal(err)
	}
	if !h1.SMLC || !h2.SMLC {
		t.Fatalf("expected both hits marked after multiplicity reached")
	}
	if err := s.EndOfStream(); err != nil {
		t.Fatal(err)
	}
	if !h1.SMLC || !h2.SMLC {
		t.Fatalf("marks must remain set through eviction")
	}
}
