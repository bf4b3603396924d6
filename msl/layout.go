package msl

import (
	"github.com/nattos/shadergraph/abi"
	"github.com/nattos/shadergraph/ir"
)

// layout is the result of Component D.2's two allocation passes: the
// flat globals buffer and the resource binding table.
type layout struct {
	varMap           map[string]int // id -> float offset into b_globals
	globalBufferSize int            // bytes, max(flatCount*4, 16)
	resourceBindings map[string]int
	usedBuiltins     map[string]bool
	usedResourceSizes map[string]bool
}

// computeLayout implements spec.md §4.D.2. reach is the reachable
// function set from Component D.1 (topologically ordered); infer
// holds each reachable function's *ir.InferenceResult keyed by
// function id, as computed by Compile's own AnalyzeFunction pass.
func computeLayout(doc *ir.Document, reach []ir.FunctionDef, infer map[string]*ir.InferenceResult) (*layout, error) {
	l := &layout{
		varMap:            map[string]int{},
		resourceBindings:  map[string]int{},
		usedBuiltins:      map[string]bool{},
		usedResourceSizes: map[string]bool{},
	}

	flat := 0
	alloc := func(id string, t ir.DataType) error {
		if _, ok := l.varMap[id]; ok {
			return nil
		}
		size, err := abi.FlatSize(doc, t)
		if err != nil {
			return err
		}
		l.varMap[id] = flat
		flat += size
		return nil
	}

	// 1. Global inputs, in document order.
	for _, in := range doc.Inputs {
		if _, isTex := in.Type.(ir.Opaque); isTex {
			continue // textures are resource-bound, not flat-buffer backed
		}
		if err := alloc(in.ID, in.Type); err != nil {
			return nil, err
		}
	}

	// 2. Used CPU-allowed builtins and buffer resource sizes, deduped
	// across every reachable function; the entry function's own inputs
	// get no slot here.
	for _, fn := range reach {
		res := infer[fn.ID]
		if res == nil {
			continue
		}
		for name := range res.UsedBuiltins {
			l.usedBuiltins[name] = true
		}
		for name := range res.UsedResourceSizes {
			l.usedResourceSizes[name] = true
		}
	}
	for name := range l.usedBuiltins {
		if !ir.BuiltinCPUAllowed[name] {
			continue
		}
		if err := alloc(name, ir.Scalar{Kind: ir.ScalarFloat}); err != nil {
			return nil, err
		}
	}
	for name := range l.usedResourceSizes {
		if res, ok := doc.ResourceByID(name); ok && res.Kind != ir.ResourceTexture2D {
			if err := alloc(name, ir.Vector{Size: 2, Kind: ir.ScalarFloat}); err != nil {
				return nil, err
			}
		}
	}

	// 3. Every function's local variables, in declaration order.
	for _, fn := range reach {
		for _, lv := range fn.LocalVars {
			if err := alloc(lv.Name, lv.Type); err != nil {
				return nil, err
			}
		}
	}

	// 4. Any var_set target not already mapped (a node-level local
	// introduced by assignment rather than a declared LocalVar).
	for _, fn := range reach {
		res := infer[fn.ID]
		for _, n := range fn.Nodes {
			if n.Op != ir.OpVarSet {
				continue
			}
			target, ok := n.Args["name"]
			if !ok || target.Kind != ir.RefNode {
				continue
			}
			if _, ok := l.varMap[target.RefID]; ok {
				continue
			}
			var t ir.DataType
			if res != nil {
				t = res.Types[n.ID]
			}
			if t == nil {
				t = ir.Scalar{Kind: ir.ScalarFloat}
			}
			if err := alloc(target.RefID, t); err != nil {
				return nil, err
			}
		}
	}

	l.globalBufferSize = flat * 4
	if l.globalBufferSize < 16 {
		l.globalBufferSize = 16
	}

	// Resource bindings: 0 reserved for globals, then texture-typed
	// global inputs, then every remaining resource in document order.
	// Output resources get no tier of their own.
	binding := 1
	for _, in := range doc.Inputs {
		if _, isTex := in.Type.(ir.Opaque); isTex {
			l.resourceBindings[in.ID] = binding
			binding++
		}
	}
	assigned := map[string]bool{}
	for id := range l.resourceBindings {
		assigned[id] = true
	}
	for _, r := range doc.Resources {
		if assigned[r.ID] {
			continue
		}
		l.resourceBindings[r.ID] = binding
		binding++
	}

	return l, nil
}
