package uglc

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// mergeInfinity is the sentinel time used to mark end-of-stream items
// flowing through the merge tree; it always sorts last, so every real hit
// is forwarded before the stream that produced it is allowed to close.
const mergeInfinity = math.MaxInt64

// mergeItem is a tagged item flowing through the merge tree: either a real
// (time, hit) pair or the end-of-stream sentinel. Section 9's design notes
// call for representing this as a sum type rather than a nullable pair;
// the eos flag plays that role here, with time pinned to mergeInfinity so
// the same comparison code handles both cases uniformly.
type mergeItem struct {
	time int64
	hit  *Hit
	eos  bool
}

// mergeNode is one node of the pairing tree built by PairHeapSorter. Every
// non-root node has exactly one peer (its sibling) and one sink (its
// parent); both references are cyclic-looking only in the sense that peer
// is mutual, but both sides are fully constructed before either is used
// (section 9), so there is no initialization-order hazard.
type mergeNode struct {
	items      []mergeItem
	peer       *mergeNode
	sink       *mergeNode
	isTerminal bool
	output     Sink // set only on the terminal (root) node
}

// push delivers item to this node. Terminal nodes translate it straight
// to the external Sink; internal nodes buffer it and attempt to release.
func (n *mergeNode) push(item mergeItem) error {
	if n.isTerminal {
		if item.eos {
			return n.output.EndOfStream()
		}
		return n.output.Enqueue(item.hit)
	}
	n.items = append(n.items, item)
	return n.release()
}

// release implements the propagation rule of section 4.6: while both this
// node's buffer and its peer's buffer are non-empty, pop whichever side
// has the earlier time (ties favor this side) and forward it to sink.
func (n *mergeNode) release() error {
	for len(n.items) > 0 && len(n.peer.items) > 0 {
		var winner mergeItem
		if n.items[0].time <= n.peer.items[0].time {
			winner = n.items[0]
			n.items = n.items[1:]
		} else {
			winner = n.peer.items[0]
			n.peer.items = n.peer.items[1:]
		}
		if err := n.sink.push(winner); err != nil {
			return err
		}
	}
	return nil
}

// buildMergeTree pairs nodes left-to-right; an odd one out is re-paired
// with the last accumulated parent, so no node is ever left without a
// peer. It recurses until one node remains, which becomes the terminal
// (root) node (section 4.6).
func buildMergeTree(nodes []*mergeNode) *mergeNode {
	if len(nodes) == 1 {
		nodes[0].isTerminal = true
		return nodes[0]
	}

	var acc []*mergeNode
	i := 0
	for i < len(nodes) {
		a := nodes[i]
		i++
		var b *mergeNode
		if i < len(nodes) {
			b = nodes[i]
			i++
		} else {
			b = a
			a = acc[len(acc)-1]
			acc = acc[:len(acc)-1]
		}

		parent := &mergeNode{}
		a.peer, b.peer = b, a
		a.sink, b.sink = parent, parent
		acc = append(acc, parent)
	}
	return buildMergeTree(acc)
}

// mergeLeaf adapts one input stream (a leaf of the merge tree) to the
// public Sink contract: it translates Enqueue/EndOfStream into the
// (time, hit) / sentinel items the tree's internal nodes operate on.
type mergeLeaf struct {
	guard eosGuard
	node  *mergeNode
}

func (l *mergeLeaf) Enqueue(h *Hit) error {
	if err := l.guard.checkEnqueue(); err != nil {
		return err
	}
	return l.node.push(mergeItem{time: h.ResolvedTime(), hit: h})
}

func (l *mergeLeaf) EndOfStream() error {
	if err := l.guard.checkEOS(); err != nil {
		return err
	}
	return l.node.push(mergeItem{time: mergeInfinity, eos: true})
}

// PairHeapSorter merges N statically-known input streams, each already
// non-decreasing in resolved_time, into a single non-decreasing output
// stream, online and incrementally, at O(log N) cost per output hit
// (section 4.6). Grounded directly on
// original_source/tjb/pipeline/pipeline.py's PairHeapSorter, translating
// its cyclic peer/parent InputNode graph into mergeNodes linked by plain
// peer/sink pointers (section 9, "Cyclic parent/peer references").
type PairHeapSorter[K comparable] struct {
	inputs map[K]*mergeLeaf
}

// NewPairHeapSorter builds a sorter over the given keys (in the order
// given; callers should pass a deterministically sorted key slice, per
// section 9), forwarding the merged output to sink.
func NewPairHeapSorter[K comparable](keys []K, sink Sink) (*PairHeapSorter[K], error) {
	if len(keys) == 0 {
		return nil, errors.New("pair heap sorter: no input keys to plumb")
	}

	leaves := make([]*mergeNode, len(keys))
	for i := range leaves {
		leaves[i] = &mergeNode{}
	}
	root := buildMergeTree(leaves)
	root.output = sink

	inputs := make(map[K]*mergeLeaf, len(keys))
	for i, k := range keys {
		inputs[k] = &mergeLeaf{guard: eosGuard{stage: "merge-leaf"}, node: leaves[i]}
	}
	return &PairHeapSorter[K]{inputs: inputs}, nil
}

// InputFor returns the Sink an upstream stage should enqueue hits for key
// into, failing if key was never plumbed.
func (s *PairHeapSorter[K]) InputFor(key K) (Sink, error) {
	in, ok := s.inputs[key]
	if !ok {
		return nil, errors.Errorf("pair heap sorter: not plumbed for %v", fmt.Sprint(key))
	}
	return in, nil
}
