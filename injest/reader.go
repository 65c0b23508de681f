// Package injest is the concrete adapter standing in for the out-of-scope
// file/frame reader described by uglc's Reader boundary (section 6): it
// decodes a newline-delimited JSON document of frame dumps, giving the
// pipeline something concrete to drive end-to-end and to test against.
package injest

import (
	"io"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/icecube-uglc/uglc"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// wireFrame is the on-disk shape of one line: a frame id and its channel
// map, flattened to a slice since JSON object keys can't be structured
// ChannelIds.
type wireFrame struct {
	FrameID  string        `json:"frame_id"`
	Channels []wireChannel `json:"channels"`
}

type wireChannel struct {
	String int         `json:"string"`
	Module int         `json:"module"`
	PMT    int         `json:"pmt"`
	Pulses []wirePulse `json:"pulses"`
}

type wirePulse struct {
	RawTime int64       `json:"raw_time"`
	Payload interface{} `json:"payload"`
}

func (wf wireFrame) toFrame() *uglc.Frame {
	channels := make(map[uglc.ChannelId][]uglc.Pulse, len(wf.Channels))
	for _, c := range wf.Channels {
		id := uglc.ChannelId{StringID: c.String, ModuleID: c.Module, PMTID: c.PMT}
		pulses := make([]uglc.Pulse, len(c.Pulses))
		for i, p := range c.Pulses {
			pulses[i] = uglc.Pulse{RawTime: p.RawTime, Payload: p.Payload}
		}
		channels[id] = pulses
	}
	return &uglc.Frame{ID: wf.FrameID, Channels: channels}
}

// Reader implements uglc.Reader over a file of newline-delimited JSON
// frame dumps, one JSON object per frame.
type Reader struct {
	path string
	f    *os.File
	dec  *jsoniter.Decoder
}

// Open opens path and returns a Reader positioned at the first frame.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	return &Reader{path: path, f: f, dec: jsonAPI.NewDecoder(f)}, nil
}

// Next implements uglc.Reader, decoding one frame per call.
func (r *Reader) Next() (*uglc.Frame, error) {
	if !r.dec.More() {
		return nil, io.EOF
	}
	var wf wireFrame
	if err := r.dec.Decode(&wf); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, errors.Wrapf(err, "decode frame from %s", r.path)
	}
	return wf.toFrame(), nil
}

// Reset implements uglc.Reader by seeking the underlying file back to the
// start and rebuilding the decoder, so the Driver's joined-mode population
// peek can rewind without buffering every frame in memory.
func (r *Reader) Reset() error {
	if _, err := r.f.Seek(0, io.SeekStart); err != nil {
		return errors.Wrapf(err, "seek %s", r.path)
	}
	r.dec = jsonAPI.NewDecoder(r.f)
	return nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.f.Close()
}
