// Package harness defines the backend-neutral conformance contract
// (spec.md §4.F): the interfaces a host test suite drives every
// registered backend through, and the value/resource shapes a backend
// hands back for readback. It owns no execution logic of its own —
// harness/interpreter provides the reference oracle, msl.Compile (plus
// a GPU driver this repo doesn't ship) would back a generator
// implementation, and harness/mock_backend.go provides a gomock double
// for tests that only care how the harness drives a backend, not which
// backend.
package harness

import "github.com/nattos/shadergraph/ir"

// Value is a flattened numeric result: one float64 per component, in
// declaration order (scalar = length 1, vecN = length N, matNxN =
// length N*N). Bool locals/inputs round-trip as 0.0/1.0.
type Value struct {
	Data []float64
}

// ScalarValue wraps a single float64 as a Value.
func ScalarValue(f float64) Value { return Value{Data: []float64{f}} }

// Float returns the first component, 0 if Value carries none. Safe to
// call on any Value; the scalar case (spec.md §8 S6) is the common one.
func (v Value) Float() float64 {
	if len(v.Data) == 0 {
		return 0
	}
	return v.Data[0]
}

// Resource is a host-visible view of one resource's state after a run
// (spec.md §4.F: "resources (id → {width, height, data})"). Buffers
// report Height==0; Data is the flat element-major float encoding the
// abi package would pack onto the device.
type Resource struct {
	Width, Height int
	Data          []float64
}

// Inputs is the host-supplied value set execute() feeds a document's
// global inputs, keyed by GlobalInput id.
type Inputs map[string]Value

// Context is the running state produced by createContext/execute
// (spec.md §4.F). It is intentionally narrow: every backend — the
// interpreter oracle, a generator-backed dispatch context, or a mock —
// exposes exactly this much to the conformance suite.
type Context interface {
	// Resources returns every resource the context tracks, keyed by id.
	Resources() map[string]Resource
	// GetResource returns one resource by id.
	GetResource(id string) (Resource, bool)
	// GetVar returns a local variable's value after a run, keyed by
	// name within the executed entry function.
	GetVar(id string) (Value, bool)
}

// TestBackend is the contract every backend under conformance test
// implements (spec.md §4.F): createContext(ir) → ctx, run(ctx, entry),
// and the execute(ir, entry, inputs) convenience that does both and
// seeds global inputs in one call.
type TestBackend interface {
	CreateContext(doc *ir.Document) (Context, error)
	Run(ctx Context, entryPoint string) error
	Execute(doc *ir.Document, entryPoint string, inputs Inputs) (Context, error)
}
