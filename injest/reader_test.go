package injest

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/icecube-uglc/uglc"
)

func writeNDJSON(t *testing.T, lines ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "frames.ndjson")
	var body string
	for _, l := range lines {
		body += l + "\n"
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReader_DecodesFramesInOrder(t *testing.T) {
	path := writeNDJSON(t,
		`{"frame_id":"f1","channels":[{"string":1,"module":1,"pmt":0,"pulses":[{"raw_time":10},{"raw_time":20}]}]}`,
		`{"frame_id":"f2","channels":[{"string":1,"module":2,"pmt":0,"pulses":[{"raw_time":5}]}]}`,
	)

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	f1, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if f1.ID != "f1" {
		t.Errorf("expected frame f1, got %s", f1.ID)
	}
	ch := uglc.ChannelId{StringID: 1, ModuleID: 1, PMTID: 0}
	pulses, ok := f1.Channels[ch]
	if !ok || len(pulses) != 2 || pulses[0].RawTime != 10 || pulses[1].RawTime != 20 {
		t.Fatalf("unexpected pulses for f1 channel: %+v", f1.Channels)
	}

	f2, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if f2.ID != "f2" {
		t.Errorf("expected frame f2, got %s", f2.ID)
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after last frame, got %v", err)
	}
}

func TestReader_ResetRewindsToFirstFrame(t *testing.T) {
	path := writeNDJSON(t,
		`{"frame_id":"only","channels":[{"string":1,"module":1,"pmt":0,"pulses":[{"raw_time":1}]}]}`,
	)

	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.Next(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}

	if err := r.Reset(); err != nil {
		t.Fatal(err)
	}
	f, err := r.Next()
	if err != nil {
		t.Fatal(err)
	}
	if f.ID != "only" {
		t.Fatalf("expected Reset to rewind to the first frame, got %s", f.ID)
	}
}

func TestReader_OpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.ndjson"))
	if err == nil {
		t.Fatal("expected an error opening a nonexistent file")
	}
}
