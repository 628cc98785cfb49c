package tree

import "github.com/bits-and-blooms/bitset"

// Dfs is a depth-first walker over the tree. It yields each node reachable
// from the start exactly once, pushing the targets of a popped node's
// outgoing edges in adjacency order. The walker is finite and single-use.
type Dfs[N, E any] struct {
	tree       *Tree[N, E]
	stack      []NodeIndex
	discovered *bitset.BitSet
}

// NewDfs creates a walker starting from the given node.
func NewDfs[N, E any](t *Tree[N, E], start NodeIndex) *Dfs[N, E] {
	d := &Dfs[N, E]{
		tree:       t,
		stack:      make([]NodeIndex, 0, t.NodeCount()),
		discovered: bitset.New(uint(t.NodeCount())),
	}
	d.stack = append(d.stack, start)
	return d
}

// Next returns the next node in depth-first order, or false when the
// traversal is done. An error here means the tree is corrupted; it cannot
// happen if the start node is valid and the link arrays are intact.
func (d *Dfs[N, E]) Next() (NodeIndex, bool, error) {
	for len(d.stack) > 0 {
		node := d.stack[len(d.stack)-1]
		d.stack = d.stack[:len(d.stack)-1]
		if d.discovered.Test(uint(node)) {
			continue
		}
		d.discovered.Set(uint(node))

		it, err := d.tree.OutgoingFrom(node)
		if err != nil {
			return 0, false, err
		}
		for edge, ok := it.Next(); ok; edge, ok = it.Next() {
			target, err := d.tree.TargetOf(edge)
			if err != nil {
				return 0, false, err
			}
			if !d.discovered.Test(uint(target)) {
				d.stack = append(d.stack, target)
			}
		}
		return node, true, nil
	}
	return 0, false, nil
}

// Visited reports how many nodes the walker has discovered so far.
func (d *Dfs[N, E]) Visited() int {
	return int(d.discovered.Count())
}
