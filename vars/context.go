package vars

import (
	"log"

	"github.com/fncas-lang/fncas/node"
)

// Debug gates verbose logging of context mutations.
var Debug = false

func logf(format string, args ...any) {
	if Debug {
		log.Printf("[vars] "+format, args...)
	}
}

// Context is the owner of one expression graph: the variable tree, the
// append-only node array, and the frozen/open lifecycle state. A Context is
// single-goroutine; its Open/Close pair enforces that at most one round of
// construction is active on it at a time, with no nesting.
type Context struct {
	root   *TreeNode
	nodes  []node.Record
	frozen bool
	opened bool

	debugNames bool

	varStart []float64
	varConst []bool
	varLeaf  []*TreeNode
}

// NewContext allocates a fresh, open expression context.
func NewContext() *Context {
	c := &Context{}
	c.root = newTreeNode(c, nil, nil)
	c.Open()
	return c
}

// SetDebugNames records a leaf path tracking flag for diagnostics. Names are
// always reconstructible via TreeNode.Path(), and Freeze fills the Names
// vector whether or not the flag is set; nothing else reads it.
func (c *Context) SetDebugNames(on bool) { c.debugNames = on }

// Open marks the context active. Calling Open twice without an intervening
// Close stands in for "nesting" and panics.
func (c *Context) Open() {
	if c.opened {
		panic(ErrContextAlreadyOpen)
	}
	c.opened = true
	logf("opened")
}

// Close marks the context inactive. A closed context rejects further
// mutation; JIT objects and compiled functions built against a Config
// snapshot taken before Close remain valid (the Config is immutable and
// does not reference the live Context), but any new Config requires a
// fresh Freeze on a re-Opened context.
func (c *Context) Close() {
	c.requireOpen()
	c.opened = false
	logf("closed")
}

func (c *Context) requireOpen() {
	if !c.opened {
		panic(ErrContextNotOpen)
	}
}

// Vars returns the root of the variable tree.
func (c *Context) Vars() *TreeNode {
	c.requireOpen()
	return c.root
}

// Frozen reports whether Freeze has been called.
func (c *Context) Frozen() bool { return c.frozen }

// Opened reports whether the context is currently open. JIT compilation
// requires both Frozen() and Opened(): closing (or never reopening) a
// context that outstanding JIT objects were built against is how this
// module represents destroying the variables context out from under them;
// Go has no destructors, so this is the caller-checkable stand-in.
func (c *Context) Opened() bool { return c.opened }

// allocVarIndex is called by TreeNode.Assign on first assignment.
func (c *Context) allocVarIndex(leaf *TreeNode) int {
	idx := len(c.varStart)
	c.varStart = append(c.varStart, leaf.value)
	c.varConst = append(c.varConst, leaf.constant)
	c.varLeaf = append(c.varLeaf, leaf)
	logf("variable %d allocated at %s", idx, leaf.Path())
	return idx
}

// AppendNode appends a new node record and returns a Ref to it. Panics if
// the context is frozen.
func (c *Context) AppendNode(rec node.Record) node.Ref {
	c.requireOpen()
	if c.frozen {
		panic(ErrFrozen)
	}
	idx := uint64(len(c.nodes))
	c.nodes = append(c.nodes, rec)
	return node.IndexRef(idx)
}

// Node reads a node record by index.
func (c *Context) Node(idx uint64) node.Record {
	if idx >= uint64(len(c.nodes)) {
		panic("vars: node index out of range")
	}
	return c.nodes[idx]
}

// SetNode overwrites an existing node record in place. Used only by the
// tree balancer, which reuses slots rather than allocating new ones, so
// this is safe even on a frozen context (freezing only bars growing the array).
func (c *Context) SetNode(idx uint64, rec node.Record) {
	if idx >= uint64(len(c.nodes)) {
		panic("vars: node index out of range")
	}
	c.nodes[idx] = rec
}

// NodeCount returns the number of node records allocated so far.
func (c *Context) NodeCount() int { return len(c.nodes) }

// NumVars returns the number of declared (assigned) variables.
func (c *Context) NumVars() int { return len(c.varStart) }

// IsConstant reports whether variable index i was marked constant.
func (c *Context) IsConstant(i int) bool { return c.varConst[i] }

// Unfreeze re-opens a frozen context for a fresh round of node appends. Any
// Config previously returned by Freeze remains a valid, independent
// snapshot in its own right, but it is no longer safe to build new JIT
// objects against the live Context until Freeze is called again; callers
// that reuse one Context across independent expressions call Unfreeze
// between rounds.
func (c *Context) Unfreeze() {
	c.requireOpen()
	if !c.frozen {
		panic(ErrNotFrozen)
	}
	c.frozen = false
	logf("unfrozen")
}

// Freeze stops further node/variable allocation and returns an immutable
// snapshot of the variable configuration: the starting point, names,
// constant flags, and a serializable tree dump, indexed by each variable's
// dense index.
func (c *Context) Freeze() *Config {
	c.requireOpen()
	if c.frozen {
		panic(ErrFrozen)
	}
	c.frozen = true

	n := len(c.varStart)
	cfg := &Config{
		N:        n,
		X0:       make([]float64, n),
		Names:    make([]string, n),
		Constant: make([]bool, n),
	}
	copy(cfg.X0, c.varStart)
	copy(cfg.Constant, c.varConst)
	for i, leaf := range c.varLeaf {
		cfg.Names[i] = leaf.Path()
	}
	cfg.Tree = dumpTree(c.root)
	cfg.totalNodes = len(c.nodes)
	logf("frozen with %d variables, %d nodes", n, len(c.nodes))
	return cfg
}
