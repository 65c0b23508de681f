package uglc

import "testing"

func mergeHit(t int64) *Hit {
	return &Hit{Group: &Group{}, Channel: ChannelId{StringID: 1, ModuleID: 1, PMTID: 1}, Pulse: Pulse{RawTime: t}}
}

// S4 (K-way merge stability): A=[1,3,5], B=[2,2,6], C=[4,4,4].
func TestPairHeapSorter_S4(t *testing.T) {
	sink := NewRecordingSinkForTest()
	sorter, err := NewPairHeapSorter([]string{"A", "B", "C"}, sink)
	if err != nil {
		t.Fatal(err)
	}

	streams := map[string][]int64{
		"A": {1, 3, 5},
		"B": {2, 2, 6},
		"C": {4, 4, 4},
	}
	for key, times := range streams {
		in, err := sorter.InputFor(key)
		if err != nil {
			t.Fatal(err)
		}
		for _, tt := range times {
			if err := in.Enqueue(mergeHit(tt)); err != nil {
				t.Fatalf("enqueue %s/%d: %v", key, tt, err)
			}
		}
		if err := in.EndOfStream(); err != nil {
			t.Fatalf("eos %s: %v", key, err)
		}
	}

	want := []int64{1, 2, 2, 3, 4, 4, 4, 5, 6}
	got := sink.times()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if !sink.eos {
		t.Error("expected exactly one terminal end_of_stream")
	}
}

func testMergeStreamSizes(t *testing.T, n int) {
	t.Helper()
	sink := NewRecordingSinkForTest()
	keys := make([]int, n)
	for i := range keys {
		keys[i] = i
	}
	sorter, err := NewPairHeapSorter(keys, sink)
	if err != nil {
		t.Fatal(err)
	}

	var want []int64
	for _, k := range keys {
		in, err := sorter.InputFor(k)
		if err != nil {
			t.Fatal(err)
		}
		for j := 0; j < 3; j++ {
			tt := int64(k*10 + j)
			want = append(want, tt)
			if err := in.Enqueue(mergeHit(tt)); err != nil {
				t.Fatal(err)
			}
		}
		if err := in.EndOfStream(); err != nil {
			t.Fatal(err)
		}
	}

	if len(sink.hits) != len(want) {
		t.Fatalf("n=%d: got %d hits, want %d", n, len(sink.hits), len(want))
	}
	got := sink.times()
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("n=%d: output not non-decreasing at %d: %v", n, i, got)
		}
	}
	if !sink.eos {
		t.Fatalf("n=%d: expected terminal end_of_stream", n)
	}
}

func TestPairHeapSorter_StreamCounts(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 7} {
		testMergeStreamSizes(t, n)
	}
}

func TestPairHeapSorter_NoKeys(t *testing.T) {
	sink := NewRecordingSinkForTest()
	_, err := NewPairHeapSorter([]int{}, sink)
	if err == nil {
		t.Fatal("expected error building a sorter with no input keys")
	}
}

func TestPairHeapSorter_UnknownKey(t *testing.T) {
	sink := NewRecordingSinkForTest()
	sorter, err := NewPairHeapSorter([]int{1}, sink)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sorter.InputFor(2); err == nil {
		t.Fatal("expected error for an unplumbed key")
	}
}
