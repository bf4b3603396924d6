package harness

import "github.com/nattos/shadergraph/ir"

// Readback runs doc's entryPoint against a backend and returns the
// named local's value, the common execute-then-inspect sequence the
// conformance suite (and a real host harness) performs once per
// scenario (spec.md §4.F). It exists as its own function — rather than
// being inlined at every call site — so it has a single call shape a
// test can double out with MockTestBackend to assert the driving
// sequence (Execute then GetVar) without depending on a working
// backend.
func Readback(b TestBackend, doc *ir.Document, entryPoint string, inputs Inputs, varID string) (Value, error) {
	ctx, err := b.Execute(doc, entryPoint, inputs)
	if err != nil {
		return Value{}, err
	}
	v, _ := ctx.GetVar(varID)
	return v, nil
}
