package msl

import (
	"fmt"

	"github.com/nattos/shadergraph/ir"
)

// computeReachable performs the Component D.1 DFS over call_func
// edges starting at the entry point, detecting direct or indirect
// recursion and returning a topologically ordered function list (the
// entry point itself included, last).
func computeReachable(doc *ir.Document) ([]ir.FunctionDef, error) {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := map[string]int{}
	var order []ir.FunctionDef

	var visit func(id string, path []string) error
	visit = func(id string, path []string) error {
		switch state[id] {
		case black:
			return nil
		case gray:
			return fmt.Errorf("Recursion detected: %v -> %s", path, id)
		}
		state[id] = gray
		fn, ok := doc.FunctionByID(id)
		if !ok {
			return fmt.Errorf("msl: call_func references unknown function %q", id)
		}
		for _, n := range fn.Nodes {
			if n.Op != ir.OpCallFunc {
				continue
			}
			var callee string
			if ref, ok := n.Args["function"]; ok {
				callee = ref.RefID
			}
			if callee == "" {
				continue
			}
			if err := visit(callee, append(append([]string{}, path...), id)); err != nil {
				return err
			}
		}
		state[id] = black
		order = append(order, *fn)
		return nil
	}

	if err := visit(doc.EntryPoint, nil); err != nil {
		return nil, err
	}
	return order, nil
}

// stage is the kind of Metal function the entry point lowers to.
// spec.md §4.D.3 allows either a compute kernel or a vertex/fragment
// stage function pair; since a §3.2 Document names exactly one
// entryPoint, this backend resolves which via doc.Meta["stage"]
// (one of "kernel", "vertex", "fragment"), defaulting to "kernel"
// when unset — an Open Question the distilled spec leaves implicit
// (recorded in DESIGN.md).
type stage uint8

const (
	stageKernel stage = iota
	stageVertex
	stageFragment
)

func resolveStage(doc *ir.Document) stage {
	switch doc.Meta["stage"] {
	case "vertex":
		return stageVertex
	case "fragment":
		return stageFragment
	default:
		return stageKernel
	}
}

// writeFunction emits a non-entry callee as an inline MSL function
// taking b_globals as its implicit first parameter (spec.md §4.D.5
// call_func threading).
func (w *Writer) writeFunction(fn *ir.FunctionDef) error {
	retType := "void"
	if len(fn.Outputs) > 0 {
		retType = w.typeName(fn.Outputs[0].Type)
	}
	params := []string{"device float* b_globals"}
	for _, in := range fn.Inputs {
		params = append(params, fmt.Sprintf("%s %s", w.typeName(in.Type), w.sanitizeId(fn.ID+".in."+in.Name)))
	}
	w.writef("inline %s %s(%s) {", retType, w.sanitizeId(fn.ID), joinArgs(params))
	w.pushIndent()
	if err := w.writeFunctionBody(fn); err != nil {
		return err
	}
	w.popIndent()
	w.writeLine("}")
	w.writeLine("")
	return nil
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
