// Package balance rebuilds maximal homogeneous +/* clusters into
// bounded-depth trees in place, so that a differentiator or JIT walking the
// graph afterward never recurses as deep as the original left-chained
// construction. Every traversal
// here uses an explicit slice-backed stack rather than native recursion,
// since a single accumulation loop can hand the balancer a chain tens of
// thousands of nodes deep.
package balance

import (
	"math"

	"github.com/fncas-lang/fncas/node"
	"github.com/fncas-lang/fncas/vars"
)

// Balance walks the graph reachable from root, rebalancing every maximal
// +/* cluster whose observed depth exceeds the 1+ceil(log2(leafCount))
// bound. Clusters are rebuilt in place: the root of each cluster keeps its
// original node index, so every other Ref pointing at that index (including
// root itself) stays valid. Balance is idempotent: calling it again on its
// own output is a no-op, since the rebuilt cluster is already within bound.
func Balance(ctx *vars.Context, root node.Ref) node.Ref {
	b := &balancer{ctx: ctx, visited: make(map[uint64]bool)}
	b.walk(root)
	return root
}

type balancer struct {
	ctx     *vars.Context
	visited map[uint64]bool
}

func isClusterTag(t node.Tag) bool { return t == node.Add || t == node.Mul }

// walk drives the whole-graph traversal with an explicit stack. Each popped
// ref is either the root of a +/* cluster (handled wholesale by
// rebalanceCluster, which also queues the cluster's external leaves for
// further walking), another operator's two operands, or a function's single
// argument.
func (b *balancer) walk(root node.Ref) {
	stack := []node.Ref{root}
	for len(stack) > 0 {
		ref := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !ref.IsNodeIndex() {
			continue
		}
		idx := ref.AsNodeIndex()
		if b.visited[idx] {
			continue
		}
		rec := b.ctx.Node(idx)
		tag := rec.Tag()

		if isClusterTag(tag) {
			leaves := b.rebalanceCluster(idx, tag)
			stack = append(stack, leaves...)
			continue
		}

		b.visited[idx] = true
		if tag.IsOp() {
			lhs, rhs := rec.Operands()
			stack = append(stack, lhs, rhs)
		} else if tag.IsFn() {
			stack = append(stack, rec.Primary())
		}
	}
}

type clusterItem struct {
	ref   node.Ref
	depth int
}

// collectCluster performs a preorder, explicit-stack descent through every
// node sharing tag starting at rootIdx, returning the cluster's internal
// node indices (so their slots can be reused), its external leaves in
// stable left-to-right order, and the deepest leaf's depth (root counts as
// depth 1).
func (b *balancer) collectCluster(rootIdx uint64, tag node.Tag) (clusterIdx []uint64, leaves []node.Ref, maxDepth int) {
	stack := []clusterItem{{ref: node.IndexRef(rootIdx), depth: 1}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if it.ref.IsNodeIndex() {
			idx := it.ref.AsNodeIndex()
			rec := b.ctx.Node(idx)
			if rec.Tag() == tag {
				clusterIdx = append(clusterIdx, idx)
				lhs, rhs := rec.Operands()
				// Push rhs then lhs so lhs is popped (and thus visited)
				// first, preserving left-to-right order in leaves.
				stack = append(stack, clusterItem{ref: rhs, depth: it.depth + 1}, clusterItem{ref: lhs, depth: it.depth + 1})
				continue
			}
		}
		leaves = append(leaves, it.ref)
		if it.depth > maxDepth {
			maxDepth = it.depth
		}
	}
	return clusterIdx, leaves, maxDepth
}

// balancedDepthBound returns 1+ceil(log2(leafCount)), the max leaf depth a
// perfectly balanced cluster over leafCount leaves exhibits. The epsilon
// guards against ceil nudging an exact power of two up by one due to
// floating-point rounding in Log2.
func balancedDepthBound(leafCount int) int {
	if leafCount <= 1 {
		return 1
	}
	return 1 + int(math.Ceil(math.Log2(float64(leafCount))-1e-9))
}

// rebalanceCluster collects the cluster rooted at rootIdx and, if its depth
// exceeds bound, rebuilds it as a pairwise-combine balanced tree reusing the
// cluster's own node slots (rootIdx last, so the cluster root keeps its
// index). It returns the cluster's external leaves so the caller can queue
// them for further traversal, whether or not a rebuild happened.
func (b *balancer) rebalanceCluster(rootIdx uint64, tag node.Tag) []node.Ref {
	clusterIdx, leaves, maxDepth := b.collectCluster(rootIdx, tag)
	for _, idx := range clusterIdx {
		b.visited[idx] = true
	}

	if maxDepth > balancedDepthBound(len(leaves)) {
		b.rebuild(rootIdx, tag, clusterIdx, leaves)
	}
	return leaves
}

// rebuild constructs a balanced binary tree over leaves (stable left-to-right
// order preserved) by repeatedly combining adjacent pairs, carrying any odd
// leftover to the next level unmerged. Every combine step consumes one slot
// from clusterIdx; rootIdx is reserved for the very last combine, so the
// cluster's root node keeps its original index.
func (b *balancer) rebuild(rootIdx uint64, tag node.Tag, clusterIdx []uint64, leaves []node.Ref) {
	others := make([]uint64, 0, len(clusterIdx)-1)
	for _, idx := range clusterIdx {
		if idx != rootIdx {
			others = append(others, idx)
		}
	}
	pos := 0
	nextSlot := func() uint64 {
		if pos < len(others) {
			idx := others[pos]
			pos++
			return idx
		}
		return rootIdx
	}

	level := leaves
	for len(level) > 1 {
		next := make([]node.Ref, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 >= len(level) {
				next = append(next, level[i])
				break
			}
			slot := nextSlot()
			b.ctx.SetNode(slot, combineRecord(tag, level[i], level[i+1]))
			next = append(next, node.IndexRef(slot))
		}
		level = next
	}
}

// combineRecord builds the Record for lhs `tag` rhs, placing operands the same
// way the builder does: whichever operand is an inlined double goes in the
// primary slot, with flipped recording whether that was the right-hand side.
func combineRecord(tag node.Tag, lhs, rhs node.Ref) node.Record {
	lhsInline := lhs.IsInlineDouble()
	rhsInline := rhs.IsInlineDouble()
	if lhsInline && rhsInline {
		panic("balance: both operands are constants; fold them before balancing")
	}
	var secondary, primary node.Ref
	var flipped bool
	if lhsInline && !rhsInline {
		primary, secondary = lhs, rhs
		flipped = true
	} else {
		secondary, primary = lhs, rhs
		flipped = false
	}
	return node.NewRecord(tag, flipped, secondary, primary)
}
