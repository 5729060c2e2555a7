package vars

// Config is the immutable snapshot produced by Context.Freeze: the starting
// point, per-variable names and constant flags (indexed by dense variable
// index), and a serializable tree dump. It outlives the Context logically;
// JIT call contexts are built against a Config, while compiling still reads
// node records from the live, frozen Context.
type Config struct {
	N        int
	X0       []float64
	Names    []string
	Constant []bool
	Tree     *TreeDump

	totalNodes int
}

// TotalNodes returns the size of the node array at freeze time; the JIT
// scratch buffer must be sized TotalNodes()+1.
func (c *Config) TotalNodes() int { return c.totalNodes }

// TreeDumpKind tags one TreeDump node with its variant in the U/V/I/S/X
// checkpoint grammar.
type TreeDumpKind int

const (
	DumpUnset TreeDumpKind = iota
	DumpVector
	DumpIntMap
	DumpStringMap
	DumpLeaf
)

// TreeDump is a recursive, JSON-serializable rendering of a variable tree,
// used by the checkpoint package. Keys within IntChildren and StringChildren
// are kept in ascending / lexicographic order (the same canonical order
// Freeze walks the live tree in).
type TreeDump struct {
	Kind TreeDumpKind

	VectorChildren []*TreeDump
	IntKeys        []int
	IntChildren    []*TreeDump
	StringKeys     []string
	StringChildren []*TreeDump

	// Leaf fields.
	LeafIndex  int
	StartValue float64
	HasStart   bool
	IsConstant bool
}

func dumpTree(n *TreeNode) *TreeDump {
	switch n.kind {
	case Unset:
		return &TreeDump{Kind: DumpUnset}
	case LeafKind:
		return &TreeDump{
			Kind:       DumpLeaf,
			LeafIndex:  n.varIndex,
			StartValue: n.value,
			HasStart:   n.assigned,
			IsConstant: n.constant,
		}
	case VectorKind:
		d := &TreeDump{Kind: DumpVector, VectorChildren: make([]*TreeDump, len(n.vector))}
		for i, c := range n.vector {
			d.VectorChildren[i] = dumpTree(c)
		}
		return d
	case IntMapKind:
		d := &TreeDump{Kind: DumpIntMap}
		n.walkSortedIntKeys(func(k int, c *TreeNode) {
			d.IntKeys = append(d.IntKeys, k)
			d.IntChildren = append(d.IntChildren, dumpTree(c))
		})
		return d
	case StringMapKind:
		d := &TreeDump{Kind: DumpStringMap}
		n.walkSortedStringKeys(func(k string, c *TreeNode) {
			d.StringKeys = append(d.StringKeys, k)
			d.StringChildren = append(d.StringChildren, dumpTree(c))
		})
		return d
	default:
		panic("vars: unknown tree node kind")
	}
}
