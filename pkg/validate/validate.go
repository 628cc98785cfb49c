// Package validate implements the full-story consistency check: every node
// and edge section must lie within the text buffer, hash-match its slice,
// reference only known name keys, and carry requirements and effects whose
// keys exist in the right table.
package validate

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/kittclouds/arbor/pkg/script"
	"github.com/kittclouds/arbor/pkg/tree"
)

// Node checks a single dialogue node against the story's text and tables.
func Node(s *script.Story, index tree.NodeIndex) error {
	dialogue, err := s.Tree.Node(index)
	if err != nil {
		return err
	}
	slice, err := dialogue.Section.Slice(s.Text)
	if err != nil {
		return err
	}
	return script.ValidateNode(slice, s.Names)
}

// Edge checks a single choice edge against the story's text and tables.
func Edge(s *script.Story, index tree.EdgeIndex) error {
	choice, err := s.Tree.Edge(index)
	if err != nil {
		return err
	}
	slice, err := choice.Section.Slice(s.Text)
	if err != nil {
		return err
	}
	if err := script.ValidateEdge(slice, s.Names); err != nil {
		return err
	}
	if err := choice.Requirement.Validate(s.Names, s.Vals); err != nil {
		return err
	}
	return choice.Effect.Validate(s.Names, s.Vals)
}

// Run checks every node and edge of the story. The checks are read-only and
// independent, so they fan out in index chunks across the given number of
// workers (GOMAXPROCS if workers < 1). The first failure wins; remaining
// chunks finish their current item and stop.
func Run(s *script.Story, workers int) error {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	var (
		wg   sync.WaitGroup
		once sync.Once
		fail error
	)
	report := func(err error) {
		once.Do(func() { fail = err })
	}

	for _, c := range chunks(s.Tree.NodeCount(), workers) {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if err := Node(s, tree.NodeIndex(i)); err != nil {
					report(fmt.Errorf("node %d: %w", i, err))
					return
				}
			}
		}(c.lo, c.hi)
	}
	for _, c := range chunks(s.Tree.EdgeCount(), workers) {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				if err := Edge(s, tree.EdgeIndex(i)); err != nil {
					report(fmt.Errorf("edge %d: %w", i, err))
					return
				}
			}
		}(c.lo, c.hi)
	}

	wg.Wait()
	return fail
}

type span struct {
	lo, hi int
}

// chunks splits [0, n) into at most k contiguous spans of near-equal size.
func chunks(n, k int) []span {
	if n == 0 {
		return nil
	}
	if k > n {
		k = n
	}
	out := make([]span, 0, k)
	size := n / k
	rem := n % k
	lo := 0
	for i := 0; i < k; i++ {
		hi := lo + size
		if i < rem {
			hi++
		}
		out = append(out, span{lo: lo, hi: hi})
		lo = hi
	}
	return out
}
