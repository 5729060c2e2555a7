package vars

import (
	"fmt"
	"sort"
)

// Kind is the variant type of one TreeNode.
type Kind int

const (
	Unset Kind = iota
	VectorKind
	IntMapKind
	StringMapKind
	LeafKind
)

func (k Kind) String() string {
	switch k {
	case Unset:
		return "unset"
	case VectorKind:
		return "vector"
	case IntMapKind:
		return "int_map"
	case StringMapKind:
		return "string_map"
	case LeafKind:
		return "leaf"
	default:
		return "invalid"
	}
}

// TreeNode is one node of the hierarchical variable namespace: a vector, an
// int-keyed or string-keyed map, an unresolved placeholder, or a leaf
// variable. Parent back-references let a leaf reconstruct its full path for
// debug naming and for error messages.
type TreeNode struct {
	ctx    *Context
	kind   Kind
	parent *TreeNode
	key    any // int or string key within parent, nil for root

	vector []*TreeNode
	intMap map[int]*TreeNode
	strMap map[string]*TreeNode

	// Leaf fields.
	varIndex int // -1 until the first assignment
	value    float64
	assigned bool
	constant bool
}

func newTreeNode(ctx *Context, parent *TreeNode, key any) *TreeNode {
	return &TreeNode{ctx: ctx, parent: parent, key: key, varIndex: -1}
}

func (n *TreeNode) requireMutable() {
	if n.ctx.frozen {
		panic(ErrFrozen)
	}
}

// Index accesses (and lazily creates) the i-th child: either a dense vector
// slot (if DenseDoubleVector was called on n) or a sparse int-map entry.
func (n *TreeNode) Index(i int) *TreeNode {
	switch n.kind {
	case Unset:
		n.requireMutable()
		n.kind = IntMapKind
		n.intMap = make(map[int]*TreeNode)
	case VectorKind:
		if i < 0 || i >= len(n.vector) {
			panic(ErrIndexOutOfRange)
		}
		return n.vector[i]
	case IntMapKind:
		// fall through to lookup/create below
	default:
		panic(ErrKindMismatch)
	}
	if child, ok := n.intMap[i]; ok {
		return child
	}
	n.requireMutable()
	child := newTreeNode(n.ctx, n, i)
	n.intMap[i] = child
	return child
}

// Key accesses (and lazily creates) a string-keyed child.
func (n *TreeNode) Key(s string) *TreeNode {
	switch n.kind {
	case Unset:
		n.requireMutable()
		n.kind = StringMapKind
		n.strMap = make(map[string]*TreeNode)
	case StringMapKind:
		// fall through
	default:
		panic(ErrKindMismatch)
	}
	if child, ok := n.strMap[s]; ok {
		return child
	}
	n.requireMutable()
	child := newTreeNode(n.ctx, n, s)
	n.strMap[s] = child
	return child
}

// DenseDoubleVector turns n into a fixed-size dense vector of size elements,
// each an independent leaf-to-be. Re-requesting the same size is a no-op;
// any other call on an already-typed node is a mismatch.
func (n *TreeNode) DenseDoubleVector(size int) *TreeNode {
	if size < 1 || size > 1_000_000 {
		panic(ErrDenseVectorSize)
	}
	switch n.kind {
	case Unset:
		n.requireMutable()
		n.kind = VectorKind
		n.vector = make([]*TreeNode, size)
		for i := range n.vector {
			n.vector[i] = newTreeNode(n.ctx, n, i)
		}
	case VectorKind:
		if len(n.vector) != size {
			panic(ErrKindMismatch)
		}
	default:
		panic(ErrKindMismatch)
	}
	return n
}

// Assign sets a leaf's starting value. The first assignment allocates a
// fresh dense variable index in declaration order; re-assigning the same
// value is a no-op, re-assigning a different value fails.
func (n *TreeNode) Assign(v float64) *TreeNode {
	switch n.kind {
	case Unset:
		n.requireMutable()
		n.kind = LeafKind
	case LeafKind:
		// fall through
	default:
		panic(ErrNotLeaf)
	}
	if n.assigned {
		if n.value != v {
			panic(ErrReassignDifferent)
		}
		return n
	}
	n.requireMutable()
	n.value = v
	n.assigned = true
	n.varIndex = n.ctx.allocVarIndex(n)
	return n
}

// SetConstant marks the leaf as constant, optionally assigning v first.
// Constants still get a dense index and appear in x0, but the differentiator
// treats them as having zero derivative.
func (n *TreeNode) SetConstant(v ...float64) *TreeNode {
	if len(v) > 1 {
		panic("vars: SetConstant takes at most one value")
	}
	if len(v) == 1 {
		n.Assign(v[0])
	} else if n.kind == Unset {
		n.requireMutable()
		n.kind = LeafKind
		n.value = 0
		n.assigned = true
		n.varIndex = n.ctx.allocVarIndex(n)
	} else if n.kind != LeafKind {
		panic(ErrNotLeaf)
	}
	n.requireMutable()
	n.constant = true
	n.ctx.varConst[n.varIndex] = true
	return n
}

// IsConstant reports the leaf's constant flag.
func (n *TreeNode) IsConstant() bool { return n.constant }

// Context returns the owning Context.
func (n *TreeNode) Context() *Context { return n.ctx }

// VarIndex returns the leaf's dense variable index. Panics if n is not an
// assigned leaf.
func (n *TreeNode) VarIndex() int {
	if n.kind != LeafKind || !n.assigned {
		panic(ErrNotLeaf)
	}
	return n.varIndex
}

// Path reconstructs the leaf's fully-qualified name, e.g. x[2]["foo"].
func (n *TreeNode) Path() string {
	if n.parent == nil {
		return "x"
	}
	prefix := n.parent.Path()
	switch k := n.key.(type) {
	case int:
		return fmt.Sprintf("%s[%d]", prefix, k)
	case string:
		return fmt.Sprintf("%s[%q]", prefix, k)
	default:
		return prefix + "[?]"
	}
}

// walkCanonical visits every leaf reachable from n in canonical key order:
// vector children by index, int-map children by ascending key, string-map
// children lexicographically. The frozen Config's tree dump lists children
// in this same order; its X0, Names and Constant vectors are indexed by
// dense variable index instead, which is fixed at first-assignment time.
func (n *TreeNode) walkCanonical(visit func(*TreeNode)) {
	switch n.kind {
	case LeafKind:
		visit(n)
	case VectorKind:
		for _, c := range n.vector {
			c.walkCanonical(visit)
		}
	case IntMapKind:
		n.walkSortedIntKeys(func(_ int, c *TreeNode) { c.walkCanonical(visit) })
	case StringMapKind:
		n.walkSortedStringKeys(func(_ string, c *TreeNode) { c.walkCanonical(visit) })
	case Unset:
		// no leaves beneath an unset node
	}
}

// walkSortedIntKeys visits an IntMapKind node's children in ascending key
// order.
func (n *TreeNode) walkSortedIntKeys(visit func(int, *TreeNode)) {
	keys := make([]int, 0, len(n.intMap))
	for k := range n.intMap {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		visit(k, n.intMap[k])
	}
}

// walkSortedStringKeys visits a StringMapKind node's children in
// lexicographic key order.
func (n *TreeNode) walkSortedStringKeys(visit func(string, *TreeNode)) {
	keys := make([]string, 0, len(n.strMap))
	for k := range n.strMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		visit(k, n.strMap[k])
	}
}
