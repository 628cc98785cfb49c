// Package tree implements the dialogue graph as a set of flat parallel
// arrays with intrusive singly-linked adjacency lists. Nodes and edges are
// addressed by dense indices; removal compacts the arrays by swapping in the
// last element, so indices are only stable between mutations. The layout
// keeps the whole structure contiguous and trivially serializable.
package tree

import (
	"errors"
	"math"
)

// NodeIndex addresses a node in the tree's dense node array.
type NodeIndex uint32

// EdgeIndex addresses an edge in the tree's dense edge array.
type EdgeIndex uint32

// PlacementIndex is the zero-based position of an edge within its source
// node's outgoing-edge ordering.
type PlacementIndex uint32

// End is the reserved sentinel meaning "no further link". Using the maximum
// representable index instead of an optional type keeps the link arrays flat.
const End = math.MaxUint32

var (
	// ErrInvalidNodeIndex reports an out-of-range node index. No mutation
	// occurred.
	ErrInvalidNodeIndex = errors.New("tree: invalid node index")
	// ErrInvalidEdgeIndex reports an out-of-range edge index. No mutation
	// occurred.
	ErrInvalidEdgeIndex = errors.New("tree: invalid edge index")
	// ErrNodeInUse rejects removal of a node that still has outgoing edges
	// or is the target of an edge.
	ErrNodeInUse = errors.New("tree: node is in use")
	// ErrInvalidEdgeLinks signals a corrupted adjacency chain. Not
	// recoverable by the caller.
	ErrInvalidEdgeLinks = errors.New("tree: invalid outgoing edge links")
	// ErrNodesFull is returned when the node array cannot grow further.
	ErrNodesFull = errors.New("tree: node list is full")
)

// Tree is a directed graph of dialogue nodes (payload N) connected by player
// choices (payload E). All arrays are owned exclusively by the Tree;
// nodeLinks[n] holds the first outgoing edge of node n and edgeLinks[e]
// holds the next outgoing edge after e, both End-terminated.
type Tree[N, E any] struct {
	nodes       []N
	edges       []E
	nodeLinks   []EdgeIndex
	edgeLinks   []EdgeIndex
	edgeSources []NodeIndex
	edgeTargets []NodeIndex
}

// New creates an empty tree with storage preallocated for the given number
// of nodes and edges.
func New[N, E any](nodeCapacity, edgeCapacity int) *Tree[N, E] {
	return &Tree[N, E]{
		nodes:       make([]N, 0, nodeCapacity),
		edges:       make([]E, 0, edgeCapacity),
		nodeLinks:   make([]EdgeIndex, 0, nodeCapacity),
		edgeLinks:   make([]EdgeIndex, 0, edgeCapacity),
		edgeSources: make([]NodeIndex, 0, edgeCapacity),
		edgeTargets: make([]NodeIndex, 0, edgeCapacity),
	}
}

// FromParts reconstructs a tree from its serialized arrays, e.g. when
// loading a project from a store. The link arrays must be index-aligned with
// the node and edge arrays; every entry is validated before the tree is
// assembled.
func FromParts[N, E any](nodes []N, edges []E, heads, links []EdgeIndex, sources, targets []NodeIndex) (*Tree[N, E], error) {
	if len(heads) != len(nodes) {
		return nil, ErrInvalidNodeIndex
	}
	if len(links) != len(edges) || len(sources) != len(edges) || len(targets) != len(edges) {
		return nil, ErrInvalidEdgeIndex
	}
	for _, h := range heads {
		if h != End && int(h) >= len(edges) {
			return nil, ErrInvalidEdgeLinks
		}
	}
	for _, l := range links {
		if l != End && int(l) >= len(edges) {
			return nil, ErrInvalidEdgeLinks
		}
	}
	for i := range sources {
		if int(sources[i]) >= len(nodes) || int(targets[i]) >= len(nodes) {
			return nil, ErrInvalidNodeIndex
		}
	}
	t := New[N, E](len(nodes), len(edges))
	t.nodes = append(t.nodes, nodes...)
	t.edges = append(t.edges, edges...)
	t.nodeLinks = append(t.nodeLinks, heads...)
	t.edgeLinks = append(t.edgeLinks, links...)
	t.edgeSources = append(t.edgeSources, sources...)
	t.edgeTargets = append(t.edgeTargets, targets...)
	return t, nil
}

// Clone returns a deep copy of the tree.
func (t *Tree[N, E]) Clone() *Tree[N, E] {
	c := New[N, E](len(t.nodes), len(t.edges))
	c.nodes = append(c.nodes, t.nodes...)
	c.edges = append(c.edges, t.edges...)
	c.nodeLinks = append(c.nodeLinks, t.nodeLinks...)
	c.edgeLinks = append(c.edgeLinks, t.edgeLinks...)
	c.edgeSources = append(c.edgeSources, t.edgeSources...)
	c.edgeTargets = append(c.edgeTargets, t.edgeTargets...)
	return c
}

// Clear removes all nodes and edges.
func (t *Tree[N, E]) Clear() {
	t.nodes = t.nodes[:0]
	t.edges = t.edges[:0]
	t.nodeLinks = t.nodeLinks[:0]
	t.edgeLinks = t.edgeLinks[:0]
	t.edgeSources = t.edgeSources[:0]
	t.edgeTargets = t.edgeTargets[:0]
}

// NodeCount returns the number of nodes.
func (t *Tree[N, E]) NodeCount() int { return len(t.nodes) }

// EdgeCount returns the number of edges.
func (t *Tree[N, E]) EdgeCount() int { return len(t.edges) }

// Nodes returns the node payloads in index order. The slice aliases the
// tree's storage and is invalidated by the next mutation.
func (t *Tree[N, E]) Nodes() []N { return t.nodes }

// Edges returns the edge payloads in index order. The slice aliases the
// tree's storage and is invalidated by the next mutation.
func (t *Tree[N, E]) Edges() []E { return t.edges }

// Heads returns the first-outgoing-edge array, index-aligned with Nodes.
// Read-only view for persistence.
func (t *Tree[N, E]) Heads() []EdgeIndex { return t.nodeLinks }

// Links returns the next-edge array, index-aligned with Edges. Read-only
// view for persistence.
func (t *Tree[N, E]) Links() []EdgeIndex { return t.edgeLinks }

// Sources returns the edge source array, index-aligned with Edges.
// Read-only view for persistence.
func (t *Tree[N, E]) Sources() []NodeIndex { return t.edgeSources }

// Targets returns the edge target array, index-aligned with Edges.
// Read-only view for persistence.
func (t *Tree[N, E]) Targets() []NodeIndex { return t.edgeTargets }

// Node returns a pointer to the payload of the node at index.
func (t *Tree[N, E]) Node(index NodeIndex) (*N, error) {
	if int(index) >= len(t.nodes) {
		return nil, ErrInvalidNodeIndex
	}
	return &t.nodes[index], nil
}

// Edge returns a pointer to the payload of the edge at index.
func (t *Tree[N, E]) Edge(index EdgeIndex) (*E, error) {
	if int(index) >= len(t.edges) {
		return nil, ErrInvalidEdgeIndex
	}
	return &t.edges[index], nil
}

// SourceOf returns the source node of an edge.
func (t *Tree[N, E]) SourceOf(index EdgeIndex) (NodeIndex, error) {
	if int(index) >= len(t.edgeSources) {
		return 0, ErrInvalidEdgeIndex
	}
	return t.edgeSources[index], nil
}

// TargetOf returns the target node of an edge.
func (t *Tree[N, E]) TargetOf(index EdgeIndex) (NodeIndex, error) {
	if int(index) >= len(t.edgeTargets) {
		return 0, ErrInvalidEdgeIndex
	}
	return t.edgeTargets[index], nil
}

// AddNode appends a node and returns the insert event.
func (t *Tree[N, E]) AddNode(node N) (NodeInsert[N], error) {
	// End and End-1 are reserved so a valid index can never collide with
	// the sentinel.
	if len(t.nodes) >= End-1 {
		return NodeInsert[N]{}, ErrNodesFull
	}
	t.nodes = append(t.nodes, node)
	t.nodeLinks = append(t.nodeLinks, End)
	return NodeInsert[N]{Index: NodeIndex(len(t.nodes) - 1), Node: node}, nil
}

// EditNode replaces the payload of an existing node, capturing the old and
// new values in the returned event.
func (t *Tree[N, E]) EditNode(index NodeIndex, node N) (NodeEdit[N], error) {
	if int(index) >= len(t.nodes) {
		return NodeEdit[N]{}, ErrInvalidNodeIndex
	}
	old := t.nodes[index]
	t.nodes[index] = node
	return NodeEdit[N]{Index: index, From: old, To: node}, nil
}

// RemoveNode removes a node that has no outgoing edges and is not the
// target of any edge. The freed slot is filled by swapping in the last node;
// edge endpoints referencing the displaced node are re-pointed.
func (t *Tree[N, E]) RemoveNode(index NodeIndex) (NodeRemove[N], error) {
	if int(index) >= len(t.nodes) {
		return NodeRemove[N]{}, ErrInvalidNodeIndex
	}
	// Checking the adjacency head is cheaper than scanning edgeSources.
	inUse := t.nodeLinks[index] != End
	for _, target := range t.edgeTargets {
		if target == index {
			inUse = true
			break
		}
	}
	if inUse {
		return NodeRemove[N]{}, ErrNodeInUse
	}

	swapped := NodeIndex(len(t.nodes) - 1)
	removed := t.nodes[index]
	t.nodes[index] = t.nodes[swapped]
	t.nodes = t.nodes[:swapped]
	t.nodeLinks[index] = t.nodeLinks[swapped]
	t.nodeLinks = t.nodeLinks[:swapped]

	repoint(t.edgeSources, swapped, index)
	repoint(t.edgeTargets, swapped, index)

	return NodeRemove[N]{Index: index, Node: removed}, nil
}

// InsertNode places a node at a specific index, clamped to the current node
// count. Used to undo a node removal. The node previously occupying the slot
// is swapped to the end and all endpoint references follow the swap.
func (t *Tree[N, E]) InsertNode(node N, desired NodeIndex) (NodeInsert[N], error) {
	clamped := min(desired, NodeIndex(len(t.nodes)))

	added, err := t.AddNode(node)
	if err != nil {
		return NodeInsert[N]{}, err
	}
	swap := added.Index

	if swap != clamped {
		t.nodes[swap], t.nodes[clamped] = t.nodes[clamped], t.nodes[swap]
		t.nodeLinks[swap], t.nodeLinks[clamped] = t.nodeLinks[clamped], t.nodeLinks[swap]
		exchange(t.edgeSources, swap, clamped)
		exchange(t.edgeTargets, swap, clamped)
	}

	return NodeInsert[N]{Index: clamped, Node: node}, nil
}

// AddEdge creates an edge from source to target and splices it onto the tail
// of the source's adjacency chain. Walking to the tail is O(degree); the
// payoff is that no per-node container is needed.
func (t *Tree[N, E]) AddEdge(source, target NodeIndex, edge E) (EdgeInsert[E], error) {
	if int(source) >= len(t.nodes) || int(target) >= len(t.nodes) {
		return EdgeInsert[E]{}, ErrInvalidNodeIndex
	}

	t.edges = append(t.edges, edge)
	t.edgeSources = append(t.edgeSources, source)
	t.edgeTargets = append(t.edgeTargets, target)
	t.edgeLinks = append(t.edgeLinks, End)
	index := EdgeIndex(len(t.edges) - 1)

	slot := &t.nodeLinks[source]
	placement := PlacementIndex(0)
	for steps := 0; *slot != End; steps++ {
		if steps > len(t.edges) {
			return EdgeInsert[E]{}, ErrInvalidEdgeLinks
		}
		slot = &t.edgeLinks[*slot]
		placement++
	}
	*slot = index

	return EdgeInsert[E]{
		Source:    source,
		Target:    target,
		Index:     index,
		Placement: placement,
		Edge:      edge,
	}, nil
}

// EditEdge replaces the payload of an existing edge. Endpoints cannot be
// changed; remove and re-add the edge instead.
func (t *Tree[N, E]) EditEdge(index EdgeIndex, edge E) (EdgeEdit[E], error) {
	if int(index) >= len(t.edges) {
		return EdgeEdit[E]{}, ErrInvalidEdgeIndex
	}
	old := t.edges[index]
	t.edges[index] = edge
	return EdgeEdit[E]{Index: index, From: old, To: edge}, nil
}

// RemoveEdge removes an edge, recording its source, target and placement so
// the removal can be undone exactly. The edge is spliced out of its source's
// adjacency chain, swap-removed from the arrays, and any links referencing
// the displaced last edge are re-pointed.
func (t *Tree[N, E]) RemoveEdge(index EdgeIndex) (EdgeRemove[E], error) {
	if int(index) >= len(t.edges) {
		return EdgeRemove[E]{}, ErrInvalidEdgeIndex
	}

	source := t.edgeSources[index]
	target := t.edgeTargets[index]
	placement, err := t.PlacementOf(source, index)
	if err != nil {
		return EdgeRemove[E]{}, err
	}

	// Splice out: every link pointing at the removed edge now points at
	// whatever the removed edge pointed at.
	next := t.edgeLinks[index]
	repoint(t.nodeLinks, index, next)
	repoint(t.edgeLinks, index, next)

	swapped := EdgeIndex(len(t.edges) - 1)
	removed := t.edges[index]
	t.edges[index] = t.edges[swapped]
	t.edges = t.edges[:swapped]
	t.edgeLinks[index] = t.edgeLinks[swapped]
	t.edgeLinks = t.edgeLinks[:swapped]
	t.edgeSources[index] = t.edgeSources[swapped]
	t.edgeSources = t.edgeSources[:swapped]
	t.edgeTargets[index] = t.edgeTargets[swapped]
	t.edgeTargets = t.edgeTargets[:swapped]

	repoint(t.nodeLinks, swapped, index)
	repoint(t.edgeLinks, swapped, index)

	return EdgeRemove[E]{
		Source:    source,
		Target:    target,
		Index:     index,
		Placement: placement,
		Edge:      removed,
	}, nil
}

// InsertEdge places an edge at a specific array index and a specific
// placement within its source's adjacency chain. Used to undo an edge
// removal. The desired index is clamped to the current edge count.
func (t *Tree[N, E]) InsertEdge(source, target NodeIndex, edge E, desiredIndex EdgeIndex, desiredPlacement PlacementIndex) (EdgeInsert[E], error) {
	clamped := min(desiredIndex, EdgeIndex(len(t.edges)))

	added, err := t.AddEdge(source, target, edge)
	if err != nil {
		return EdgeInsert[E]{}, err
	}
	swap := added.Index

	if swap != clamped {
		t.edges[swap], t.edges[clamped] = t.edges[clamped], t.edges[swap]
		t.edgeLinks[swap], t.edgeLinks[clamped] = t.edgeLinks[clamped], t.edgeLinks[swap]
		t.edgeSources[swap], t.edgeSources[clamped] = t.edgeSources[clamped], t.edgeSources[swap]
		t.edgeTargets[swap], t.edgeTargets[clamped] = t.edgeTargets[clamped], t.edgeTargets[swap]
		exchange(t.nodeLinks, swap, clamped)
		exchange(t.edgeLinks, swap, clamped)
	}

	move, err := t.EditLinkOrder(source, clamped, desiredPlacement)
	if err != nil {
		return EdgeInsert[E]{}, err
	}

	return EdgeInsert[E]{
		Source:    source,
		Target:    target,
		Index:     clamped,
		Placement: move.To,
		Edge:      edge,
	}, nil
}

// PlacementOf returns the position of an edge within the outgoing chain of
// source. ErrInvalidEdgeLinks if the edge is not outgoing from source.
func (t *Tree[N, E]) PlacementOf(source NodeIndex, index EdgeIndex) (PlacementIndex, error) {
	it, err := t.OutgoingFrom(source)
	if err != nil {
		return 0, err
	}
	placement := PlacementIndex(0)
	for edge, ok := it.Next(); ok; edge, ok = it.Next() {
		if edge == index {
			return placement, nil
		}
		placement++
	}
	return 0, ErrInvalidEdgeLinks
}

// Degree returns the number of outgoing edges of a node.
func (t *Tree[N, E]) Degree(source NodeIndex) (int, error) {
	it, err := t.OutgoingFrom(source)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, ok := it.Next(); ok; _, ok = it.Next() {
		n++
	}
	return n, nil
}

// EditLinkOrder moves an edge to a new placement within its source's
// adjacency chain. The placement governs the order choices are presented to
// the player; desired placements past the end of the chain are clamped.
func (t *Tree[N, E]) EditLinkOrder(source NodeIndex, index EdgeIndex, desired PlacementIndex) (LinkMove, error) {
	current, err := t.PlacementOf(source, index)
	if err != nil {
		return LinkMove{}, err
	}

	// Unlink from the current position, checking both the head pointer and
	// interior next pointers.
	next := t.edgeLinks[index]
	repoint(t.nodeLinks, index, next)
	repoint(t.edgeLinks, index, next)

	placed, err := t.insertLink(source, index, desired)
	if err != nil {
		return LinkMove{}, err
	}

	return LinkMove{Source: source, Index: index, From: current, To: placed}, nil
}

// insertLink splices an unlinked edge into the outgoing chain of source at
// the desired placement, clamped to the current chain length. The link slot
// at that placement is re-pointed to the edge, and the edge inherits the
// slot's previous value.
func (t *Tree[N, E]) insertLink(source NodeIndex, index EdgeIndex, desired PlacementIndex) (PlacementIndex, error) {
	degree, err := t.Degree(source)
	if err != nil {
		return 0, err
	}
	clamped := min(desired, PlacementIndex(degree))

	slot := &t.nodeLinks[source]
	for i := PlacementIndex(0); i < clamped; i++ {
		if *slot == End {
			return 0, ErrInvalidEdgeLinks
		}
		slot = &t.edgeLinks[*slot]
	}
	t.edgeLinks[index] = *slot
	*slot = index

	return clamped, nil
}

// OutgoingFrom returns an iterator over the outgoing edge indices of a node
// in adjacency order. The iterator is finite and is invalidated by any
// mutation; recreate it to restart.
func (t *Tree[N, E]) OutgoingFrom(index NodeIndex) (*OutgoingEdges, error) {
	if int(index) >= len(t.nodes) {
		return nil, ErrInvalidNodeIndex
	}
	return &OutgoingEdges{
		links: t.edgeLinks,
		next:  t.nodeLinks[index],
		guard: len(t.edgeLinks),
	}, nil
}

// OutgoingEdges walks an adjacency chain. The guard bounds the walk by the
// edge count so a corrupted (cyclic) chain terminates instead of spinning.
type OutgoingEdges struct {
	links []EdgeIndex
	next  EdgeIndex
	guard int
}

// Next returns the next outgoing edge index, or false when the chain ends.
func (it *OutgoingEdges) Next() (EdgeIndex, bool) {
	if it.next == End || it.guard < 0 {
		return 0, false
	}
	current := it.next
	it.next = it.links[current]
	it.guard--
	return current, true
}

// Collect drains the iterator into a slice.
func (it *OutgoingEdges) Collect() []EdgeIndex {
	var out []EdgeIndex
	for edge, ok := it.Next(); ok; edge, ok = it.Next() {
		out = append(out, edge)
	}
	return out
}

// repoint replaces every reference to old with new. Shared by node and edge
// removal so the swap-remove patch loop exists exactly once.
func repoint[I ~uint32](refs []I, old, new I) {
	for i := range refs {
		if refs[i] == old {
			refs[i] = new
		}
	}
}

// exchange swaps every reference to a with b and vice versa. Used after an
// insert swaps two array rows, which invalidates references in both
// directions.
func exchange[I ~uint32](refs []I, a, b I) {
	for i := range refs {
		switch refs[i] {
		case a:
			refs[i] = b
		case b:
			refs[i] = a
		}
	}
}
