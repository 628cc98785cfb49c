package tree

// Mutation events. Every mutating tree operation returns one of these,
// carrying exactly the data needed to reconstruct or invert the mutation
// after the fact. The editor's history is built out of them.

// NodeInsert records a node insertion.
type NodeInsert[N any] struct {
	Index NodeIndex
	Node  N
}

// NodeRemove records a node removal.
type NodeRemove[N any] struct {
	Index NodeIndex
	Node  N
}

// NodeEdit records a node payload replacement.
type NodeEdit[N any] struct {
	Index NodeIndex
	From  N
	To    N
}

// EdgeInsert records an edge insertion, including the placement within the
// source's adjacency chain so the ordering can be reproduced.
type EdgeInsert[E any] struct {
	Source    NodeIndex
	Target    NodeIndex
	Index     EdgeIndex
	Placement PlacementIndex
	Edge      E
}

// EdgeRemove records an edge removal, including the placement within the
// source's adjacency chain so undo restores the exact ordering.
type EdgeRemove[E any] struct {
	Source    NodeIndex
	Target    NodeIndex
	Index     EdgeIndex
	Placement PlacementIndex
	Edge      E
}

// EdgeEdit records an edge payload replacement.
type EdgeEdit[E any] struct {
	Index EdgeIndex
	From  E
	To    E
}

// LinkMove records a move of an edge from one placement in its source's
// adjacency chain to another.
type LinkMove struct {
	Source NodeIndex
	Index  EdgeIndex
	From   PlacementIndex
	To     PlacementIndex
}
