package uglc

import "testing"

func TestChannelDemuxRoutesByChannel(t *testing.T) {
	a := NewRecordingSinkForTest()
	b := NewRecordingSinkForTest()
	chanA := ChannelId{StringID: 1, ModuleID: 1, PMTID: 0}
	chanB := ChannelId{StringID: 1, ModuleID: 2, PMTID: 0}

	d := NewChannelDemux(map[ChannelId]Sink{chanA: a, chanB: b})

	if err := d.Enqueue(&Hit{Group: &Group{}, Channel: chanA, Pulse: Pulse{RawTime: 10}}); err != nil {
		t.Fatal(err)
	}
	if err := d.Enqueue(&Hit{Group: &Group{}, Channel: chanB, Pulse: Pulse{RawTime: 20}}); err != nil {
		t.Fatal(err)
	}

	if len(a.hits) != 1 || a.hits[0].RawTime() != 10 {
		t.Errorf("expected chanA sink to get the t=10 hit, got %v", a.times())
	}
	if len(b.hits) != 1 || b.hits[0].RawTime() != 20 {
		t.Errorf("expected chanB sink to get the t=20 hit, got %v", b.times())
	}

	if err := d.EndOfStream(); err != nil {
		t.Fatal(err)
	}
	if !a.eos || !b.eos {
		t.Error("expected end_of_stream to propagate to every sink")
	}
}

func TestChannelDemuxUnknownChannel(t *testing.T) {
	known := ChannelId{StringID: 1, ModuleID: 1, PMTID: 0}
	unknown := ChannelId{StringID: 9, ModuleID: 9, PMTID: 0}
	d := NewChannelDemux(map[ChannelId]Sink{known: NewRecordingSinkForTest()})

	err := d.Enqueue(&Hit{Group: &Group{}, Channel: unknown, Pulse: Pulse{RawTime: 1}})
	pe, ok := AsPipelineError(err)
	if !ok || pe.Kind != UnknownChannel {
		t.Fatalf("expected UnknownChannel, got %v", err)
	}
}

func TestStringDemuxRoutesByString(t *testing.T) {
	s1 := NewRecordingSinkForTest()
	s2 := NewRecordingSinkForTest()
	d := NewStringDemux(map[StringId]Sink{
		{StringID: 1}: s1,
		{StringID: 2}: s2,
	})

	h := &Hit{Group: &Group{}, Channel: ChannelId{StringID: 2, ModuleID: 3, PMTID: 0}, Pulse: Pulse{RawTime: 5}}
	if err := d.Enqueue(h); err != nil {
		t.Fatal(err)
	}
	if len(s2.hits) != 1 {
		t.Errorf("expected the hit routed to string 2's sink")
	}
	if len(s1.hits) != 0 {
		t.Errorf("expected string 1's sink untouched")
	}
}

func TestDemuxEOSPropagatesOnceEach(t *testing.T) {
	a := NewRecordingSinkForTest()
	d := NewChannelDemux(map[ChannelId]Sink{{StringID: 1}: a})
	if err := d.EndOfStream(); err != nil {
		t.Fatal(err)
	}
	err := d.EndOfStream()
	pe, ok := AsPipelineError(err)
	if !ok || pe.Kind != DuplicateEOS {
		t.Fatalf("expected DuplicateEOS, got %v", err)
	}
}
