package msl

import (
	"fmt"

	"github.com/nattos/shadergraph/ir"
)

// Compile generates MSL source and a layout Manifest from a validated
// IR document (spec.md §4.D, §6.3). Callers are expected to have
// already run ir.Validate and rejected any document with error-level
// diagnostics — Compile itself only returns an error for the
// generator-only failure modes spec.md §7 reserves for generation:
// recursion, an unresolved struct reference, or an opcode reaching
// the lowerer unsupported.
func Compile(doc *ir.Document, opts Options) (string, Manifest, error) {
	opts = opts.resolved()

	reach, err := computeReachable(doc)
	if err != nil {
		return "", Manifest{}, err
	}

	infer := map[string]*ir.InferenceResult{}
	for i := range reach {
		res, diags := ir.AnalyzeFunction(doc, &reach[i])
		if ir.HasErrors(diags) {
			return "", Manifest{}, fmt.Errorf("msl: function %q failed inference during generation: %v", reach[i].ID, diags)
		}
		infer[reach[i].ID] = res
	}

	l, err := computeLayout(doc, reach, infer)
	if err != nil {
		return "", Manifest{}, err
	}

	w := newWriter(doc, opts, reach, infer, l)
	if err := w.writeModule(); err != nil {
		return "", Manifest{}, err
	}

	return w.String(), Manifest{
		ResourceBindings: l.resourceBindings,
		GlobalBufferSize: l.globalBufferSize,
		VarMap:           l.varMap,
	}, nil
}
