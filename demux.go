package uglc

import "fmt"

// keyFunc extracts the routing key a Demux uses to pick a hit's sink.
type keyFunc[K comparable] func(*Hit) K

// Demux is the generic per-key demultiplexer described in section 4.5: it
// is constructed with a key -> sink mapping and routes every enqueued hit
// to the sink for its key, failing fatally if the key was never plumbed.
// ChannelDemux and StringDemux below are its two instantiations.
type Demux[K comparable] struct {
	guard   eosGuard
	extract keyFunc[K]
	sinks   map[K]Sink
	keyName func(K) string
}

// newDemux builds a Demux over the given key -> sink map.
func newDemux[K comparable](stage string, extract keyFunc[K], sinks map[K]Sink, keyName func(K) string) *Demux[K] {
	return &Demux[K]{
		guard:   eosGuard{stage: stage},
		extract: extract,
		sinks:   sinks,
		keyName: keyName,
	}
}

// Enqueue routes h to sinks[key_extract(h)], failing with UnknownChannel
// if the key was never plumbed (section 4.5, section 3 invariant: "The
// Population used to plumb the pipeline must be a superset of every
// ChannelId that will ever be enqueued").
func (d *Demux[K]) Enqueue(h *Hit) error {
	if err := d.guard.checkEnqueue(); err != nil {
		return err
	}
	key := d.extract(h)
	sink, ok := d.sinks[key]
	if !ok {
		return newPipelineErrorAt(UnknownChannel, d.guard.stage, h.Channel, h.ResolvedTime(),
			fmt.Sprintf("no sink plumbed for key %s", d.keyName(key)))
	}
	return sink.Enqueue(h)
}

// EndOfStream propagates end_of_stream to every sink exactly once, in
// deterministic order (keys sorted by their string representation).
func (d *Demux[K]) EndOfStream() error {
	if err := d.guard.checkEOS(); err != nil {
		return err
	}
	for _, k := range sortedKeys(d.sinks, d.keyName) {
		if err := d.sinks[k].EndOfStream(); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys returns the keys of m sorted by their string representation,
// so end_of_stream propagation order (and hence any tie-break it might
// observe) is reproducible across runs (section 9, "Iteration order over
// unordered channel sets").
func sortedKeys[K comparable](m map[K]Sink, keyName func(K) string) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keyName(keys[j-1]) > keyName(keys[j]); j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// NewChannelDemux builds a Demux routing by ChannelId, the head of the
// pipeline (section 4.7 step 6: "ChannelDemux routing ChannelId -> S1m
// input").
func NewChannelDemux(sinks map[ChannelId]Sink) *Demux[ChannelId] {
	return newDemux("channel-demux", func(h *Hit) ChannelId { return h.Channel },
		sinks, func(k ChannelId) string { return k.String() })
}

// NewStringDemux builds a Demux routing by StringId, used between the
// per-module merge and the per-string MMLC set (section 4.7 step 3).
func NewStringDemux(sinks map[StringId]Sink) *Demux[StringId] {
	return newDemux("string-demux", func(h *Hit) StringId { return h.Channel.StringId() },
		sinks, func(k StringId) string { return k.String() })
}
