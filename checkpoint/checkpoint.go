// Package checkpoint (de)serializes a frozen vars.Config as JSON. Each tree
// node is rendered as exactly one of "u" (unset), "v" (vector), "i" (int
// map), "s" (string map), or "x" (leaf), with map keys in ascending /
// lexicographic order.
package checkpoint

import (
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/fncas-lang/fncas/vars"
)

// Write renders cfg as the checkpoint JSON document.
func Write(cfg *vars.Config) ([]byte, error) {
	var a fastjson.Arena

	x0 := a.NewArray()
	for i, v := range cfg.X0 {
		x0.SetArrayItem(i, a.NewNumberFloat64(v))
	}

	names := a.NewArray()
	for i, s := range cfg.Names {
		names.SetArrayItem(i, a.NewString(s))
	}

	constant := a.NewArray()
	for i, c := range cfg.Constant {
		if c {
			constant.SetArrayItem(i, a.NewTrue())
		} else {
			constant.SetArrayItem(i, a.NewFalse())
		}
	}

	root := a.NewObject()
	root.Set("n", a.NewNumberInt(cfg.N))
	root.Set("x0", x0)
	root.Set("names", names)
	root.Set("constant", constant)
	root.Set("tree", encodeTree(&a, cfg.Tree))

	return root.MarshalTo(nil), nil
}

func encodeTree(a *fastjson.Arena, d *vars.TreeDump) *fastjson.Value {
	if d == nil || d.Kind == vars.DumpUnset {
		obj := a.NewObject()
		obj.Set("u", a.NewTrue())
		return obj
	}

	obj := a.NewObject()
	switch d.Kind {
	case vars.DumpVector:
		z := a.NewArray()
		for i, c := range d.VectorChildren {
			z.SetArrayItem(i, encodeTree(a, c))
		}
		body := a.NewObject()
		body.Set("z", z)
		obj.Set("v", body)
	case vars.DumpIntMap:
		z := a.NewObject()
		for i, k := range d.IntKeys {
			z.Set(fmt.Sprintf("%d", k), encodeTree(a, d.IntChildren[i]))
		}
		body := a.NewObject()
		body.Set("z", z)
		obj.Set("i", body)
	case vars.DumpStringMap:
		z := a.NewObject()
		for i, k := range d.StringKeys {
			z.Set(k, encodeTree(a, d.StringChildren[i]))
		}
		body := a.NewObject()
		body.Set("z", z)
		obj.Set("s", body)
	case vars.DumpLeaf:
		leaf := a.NewObject()
		leaf.Set("i", a.NewNumberInt(d.LeafIndex))
		if d.HasStart {
			leaf.Set("x", a.NewNumberFloat64(d.StartValue))
		}
		if d.IsConstant {
			leaf.Set("c", a.NewTrue())
		}
		obj.Set("x", leaf)
	default:
		panic("checkpoint: unknown tree dump kind")
	}
	return obj
}

// Read parses a checkpoint JSON document back into a vars.Config.
func Read(data []byte) (*vars.Config, error) {
	v, err := fastjson.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: parse: %w", err)
	}

	n := v.GetInt("n")
	cfg := &vars.Config{N: n}

	for _, item := range v.GetArray("x0") {
		cfg.X0 = append(cfg.X0, item.GetFloat64())
	}
	for _, item := range v.GetArray("names") {
		cfg.Names = append(cfg.Names, string(item.GetStringBytes()))
	}
	for _, item := range v.GetArray("constant") {
		cfg.Constant = append(cfg.Constant, item.Type() == fastjson.TypeTrue)
	}

	tree, err := decodeTree(v.Get("tree"))
	if err != nil {
		return nil, err
	}
	cfg.Tree = tree

	return cfg, nil
}

func decodeTree(v *fastjson.Value) (*vars.TreeDump, error) {
	if v == nil {
		return &vars.TreeDump{Kind: vars.DumpUnset}, nil
	}
	if obj := v.Get("u"); obj != nil {
		return &vars.TreeDump{Kind: vars.DumpUnset}, nil
	}
	if body := v.Get("v"); body != nil {
		items := body.GetArray("z")
		d := &vars.TreeDump{Kind: vars.DumpVector, VectorChildren: make([]*vars.TreeDump, len(items))}
		for i, item := range items {
			c, err := decodeTree(item)
			if err != nil {
				return nil, err
			}
			d.VectorChildren[i] = c
		}
		return d, nil
	}
	if body := v.Get("i"); body != nil {
		obj := body.GetObject("z")
		d := &vars.TreeDump{Kind: vars.DumpIntMap}
		var readErr error
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if readErr != nil {
				return
			}
			var k int
			if _, err := fmt.Sscanf(string(key), "%d", &k); err != nil {
				readErr = fmt.Errorf("checkpoint: bad int key %q: %w", key, err)
				return
			}
			c, err := decodeTree(val)
			if err != nil {
				readErr = err
				return
			}
			d.IntKeys = append(d.IntKeys, k)
			d.IntChildren = append(d.IntChildren, c)
		})
		if readErr != nil {
			return nil, readErr
		}
		return d, nil
	}
	if body := v.Get("s"); body != nil {
		obj := body.GetObject("z")
		d := &vars.TreeDump{Kind: vars.DumpStringMap}
		var readErr error
		obj.Visit(func(key []byte, val *fastjson.Value) {
			if readErr != nil {
				return
			}
			c, err := decodeTree(val)
			if err != nil {
				readErr = err
				return
			}
			d.StringKeys = append(d.StringKeys, string(key))
			d.StringChildren = append(d.StringChildren, c)
		})
		if readErr != nil {
			return nil, readErr
		}
		return d, nil
	}
	if leaf := v.Get("x"); leaf != nil {
		d := &vars.TreeDump{
			Kind:      vars.DumpLeaf,
			LeafIndex: leaf.GetInt("i"),
		}
		if sv := leaf.Get("x"); sv != nil {
			d.HasStart = true
			d.StartValue = sv.GetFloat64()
		}
		if cv := leaf.Get("c"); cv != nil {
			d.IsConstant = cv.Type() == fastjson.TypeTrue
		}
		return d, nil
	}
	return nil, fmt.Errorf("checkpoint: unrecognized tree node %s", v.Type())
}
