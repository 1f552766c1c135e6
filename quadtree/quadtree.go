// Package quadtree implements a point-quadtree over a fixed root AABB,
// rebuilt from scratch every tick and used to find overlapping
// entities in near-linear time (world's collision sweep, spec.md
// §4.5). Leaves hold up to the builder's leaf capacity (DefaultMaxData
// unless WithMaxData overrides it); once full, a leaf
// subdivides its AABB at the midpoint into four equal children and
// redistributes its points.
package quadtree

import "github.com/Grissess/RANKS/geometry"

// DefaultMaxData is the default leaf capacity before subdivision.
const DefaultMaxData = 4

// Point pairs a 2D position with an arbitrary caller value (typically
// a reference back to the tank or bullet that sits there).
type Point[T any] struct {
	Pos   geometry.Pair
	Value T
}

// Builder configures and constructs a fresh tree root.
type Builder[T any] struct {
	bound   geometry.AABB
	maxData int
}

// FromBound starts a builder over the given root bound, with the
// default leaf capacity.
func FromBound[T any](bound geometry.AABB) Builder[T] {
	return Builder[T]{bound: bound, maxData: DefaultMaxData}
}

// WithMaxData overrides the leaf capacity.
func (b Builder[T]) WithMaxData(maxData int) Builder[T] {
	b.maxData = maxData
	return b
}

// Build returns an empty root node ready to receive points via AddPt.
func (b Builder[T]) Build() *Node[T] {
	return &Node[T]{bound: b.bound, maxData: b.maxData}
}

// children are the four equal sub-quadrants of a node's bound, named
// by sign of (x, y) offset from the midpoint: pp (+,+), pn (+,-),
// np (-,+), nn (-,-). Iteration order across children is always
// pp, pn, np, nn (spec.md §4.5) — tests that depend on collision
// determinism rely on this order.
type children[T any] struct {
	pp, pn, np, nn *Node[T]
}

func (c *children[T]) all() [4]*Node[T] {
	return [4]*Node[T]{c.pp, c.pn, c.np, c.nn}
}

// Node is one quadtree node. A node with children holds no points
// directly — all points live in leaves.
type Node[T any] struct {
	bound    geometry.AABB
	children *children[T]
	data     []Point[T]
	maxData  int
}

// Bound returns the node's AABB.
func (n *Node[T]) Bound() geometry.AABB {
	return n.bound
}

func (n *Node[T]) deriveChild(bound geometry.AABB) *Node[T] {
	return &Node[T]{bound: bound, maxData: n.maxData}
}

func (n *Node[T]) subdivide() {
	halfDim := n.bound.Dim.Scale(0.5)
	mid := n.bound.Org.Add(halfDim)

	c := &children[T]{
		pp: n.deriveChild(geometry.NewAABB(mid, halfDim)),
		pn: n.deriveChild(geometry.NewAABB(geometry.Pair{X: mid.X, Y: n.bound.Org.Y}, halfDim)),
		np: n.deriveChild(geometry.NewAABB(geometry.Pair{X: n.bound.Org.X, Y: mid.Y}, halfDim)),
		nn: n.deriveChild(geometry.NewAABB(n.bound.Org, halfDim)),
	}

	old := n.data
	n.data = nil
	n.children = c
	for _, datum := range old {
		if !n.addToChildren(datum) {
			panic("quadtree: couldn't insert a point into any quadtree child!")
		}
	}
}

func (n *Node[T]) addToChildren(datum Point[T]) bool {
	for _, child := range n.children.all() {
		if child.AddPt(datum.Pos, datum.Value) {
			return true
		}
	}
	return false
}

// AddPt inserts a point into the tree, refusing points outside the
// node's bound. Returns false if pos lies outside bound.
func (n *Node[T]) AddPt(pos geometry.Pair, value T) bool {
	if !n.bound.Contains(pos) {
		return false
	}

	if n.children == nil && len(n.data) >= n.maxData {
		n.subdivide()
	}

	if n.children != nil {
		if !n.addToChildren(Point[T]{Pos: pos, Value: value}) {
			panic("quadtree: couldn't insert a point into any quadtree child")
		}
		return true
	}

	n.data = append(n.data, Point[T]{Pos: pos, Value: value})
	return true
}

// Query returns every (point, value) pair stored within the query box,
// via a depth-first, stack-based traversal that prunes children whose
// bound does not intersect the query. Iteration order within a node is
// insertion order; order across children is pp, pn, np, nn.
func (n *Node[T]) Query(box geometry.AABB) []Point[T] {
	var results []Point[T]
	stack := []*Node[T]{n}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, datum := range top.data {
			if box.Contains(datum.Pos) {
				results = append(results, datum)
			}
		}

		if top.children != nil {
			// Push in reverse (nn, np, pn, pp) so the LIFO stack pops
			// them back out in the documented pp, pn, np, nn order.
			all := top.children.all()
			for i := len(all) - 1; i >= 0; i-- {
				child := all[i]
				if _, ok := box.Intersect(child.bound); ok {
					stack = append(stack, child)
				}
			}
		}
	}
	return results
}
