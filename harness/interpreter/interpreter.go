// Package interpreter is the reference oracle backend the conformance
// suite (harness/conformance) checks every generator backend against
// (spec.md §4.F, §4.F+). It implements harness.TestBackend by walking
// a function's execution chain the same way the generator does —
// entry-node discovery via ir.ReconstructEdges/ir.IsPure, pure values
// evaluated lazily on demand — but interpreting nodes directly instead
// of lowering them to target source.
//
// This is deliberately not a general shader interpreter: it covers the
// math/vector arithmetic, control flow, variable, and buffer opcodes
// the repository's own conformance scenarios (spec.md §8 S5, S6) and
// property suite exercise, and returns an "unsupported op" error for
// anything else rather than guessing. Matrix/quaternion/struct/array/
// atomic/texture/command opcodes are out of scope for the oracle; the
// msl backend is the one contractually complete generator for those
// (spec.md §1 Out-of-scope, SPEC_FULL §4.F+).
package interpreter

import (
	"fmt"
	"math"

	"github.com/nattos/shadergraph/harness"
	"github.com/nattos/shadergraph/ir"
)

const maxCallDepth = 256

// Backend is the interpreter's harness.TestBackend implementation. It
// carries no state of its own; all per-run state lives on context.
type Backend struct{}

// New returns an interpreter Backend.
func New() *Backend { return &Backend{} }

func (b *Backend) CreateContext(doc *ir.Document) (harness.Context, error) {
	return newContext(doc, nil), nil
}

func (b *Backend) Run(ctx harness.Context, entryPoint string) error {
	c, ok := ctx.(*context)
	if !ok {
		return fmt.Errorf("interpreter: context %T was not created by this backend", ctx)
	}
	return c.run(entryPoint)
}

func (b *Backend) Execute(doc *ir.Document, entryPoint string, inputs harness.Inputs) (harness.Context, error) {
	c := newContext(doc, inputs)
	if err := c.run(entryPoint); err != nil {
		return nil, err
	}
	return c, nil
}

// resourceState is the interpreter's mutable view of one ResourceDef:
// a flat float64 buffer plus the dimensions needed to answer
// resource_get_size and to report back through harness.Resource.
type resourceState struct {
	def      *ir.ResourceDef
	elemSize int
	width    int
	height   int
	data     []float64
}

// context is the interpreter's harness.Context: resource state plus
// the most recently executed entry function's locals, readable after
// run() returns (spec.md §4.F getVar).
type context struct {
	doc       *ir.Document
	inputs    harness.Inputs
	resources map[string]*resourceState
	locals    map[string]harness.Value
}

func newContext(doc *ir.Document, inputs harness.Inputs) *context {
	c := &context{doc: doc, inputs: inputs, resources: map[string]*resourceState{}, locals: map[string]harness.Value{}}
	for i := range doc.Resources {
		c.resources[doc.Resources[i].ID] = newResourceState(&doc.Resources[i])
	}
	return c
}

func newResourceState(def *ir.ResourceDef) *resourceState {
	rs := &resourceState{def: def}
	switch def.Kind {
	case ir.ResourceBuffer, ir.ResourceAtomicCounter:
		rs.elemSize = flatSize(def.DataType)
		if rs.elemSize == 0 {
			rs.elemSize = 1
		}
		count := def.Size.Count
		if count == 0 {
			count = 1
		}
		rs.width = count
		rs.data = make([]float64, count*rs.elemSize)
	case ir.ResourceTexture2D:
		w, h := def.Size.Width, def.Size.Height
		if w == 0 {
			w = 1
		}
		if h == 0 {
			h = 1
		}
		rs.width, rs.height = w, h
		rs.data = make([]float64, w*h*4)
	}
	return rs
}

func (c *context) Resources() map[string]harness.Resource {
	out := make(map[string]harness.Resource, len(c.resources))
	for id, rs := range c.resources {
		out[id] = harness.Resource{Width: rs.width, Height: rs.height, Data: append([]float64(nil), rs.data...)}
	}
	return out
}

func (c *context) GetResource(id string) (harness.Resource, bool) {
	rs, ok := c.resources[id]
	if !ok {
		return harness.Resource{}, false
	}
	return harness.Resource{Width: rs.width, Height: rs.height, Data: append([]float64(nil), rs.data...)}, true
}

func (c *context) GetVar(id string) (harness.Value, bool) {
	v, ok := c.locals[id]
	return v, ok
}

// run executes entryPoint to completion and snapshots its locals into
// c.locals for readback (spec.md §4.F, §8 S6).
func (c *context) run(entryPoint string) error {
	fn, ok := c.doc.FunctionByID(entryPoint)
	if !ok {
		return fmt.Errorf("interpreter: unknown entry point %q", entryPoint)
	}
	fr := newFrame(c, fn, 0)
	if _, err := fr.exec(entryNodeID(fn)); err != nil {
		return err
	}
	for name, v := range fr.locals {
		c.locals[name] = v
	}
	return nil
}

// frame is one function activation: its locals (seeded from LocalVar
// initial values and, for the entry function, nothing else — call_func
// arguments seed a callee's locals by input name instead), the
// reconstructed edge sets, and the call depth used to detect
// recursion cycles the validator's static check would also catch
// (spec.md §8 S5).
type frame struct {
	c      *context
	fn     *ir.FunctionDef
	depth  int
	locals map[string]harness.Value
	exec   map[string][]ir.ExecEdge
}

func newFrame(c *context, fn *ir.FunctionDef, depth int) *frame {
	fr := &frame{c: c, fn: fn, depth: depth, locals: map[string]harness.Value{}}
	for _, lv := range fn.LocalVars {
		if lv.Initial != nil {
			fr.locals[lv.Name] = literalValue(lv.Initial)
		} else {
			fr.locals[lv.Name] = harness.Value{Data: make([]float64, flatSize(lv.Type))}
		}
	}
	_, execEdges := ir.ReconstructEdges(fn, ir.Schema)
	fr.exec = ir.OutgoingExecEdges(execEdges)
	return fr
}

// entryNodeID finds the (single, by convention of the §8 scenarios)
// executable node with no incoming execution edge — the chain head the
// generator's entryNodes would also start from for a straight-line
// kernel body.
func entryNodeID(fn *ir.FunctionDef) string {
	_, exec := ir.ReconstructEdges(fn, ir.Schema)
	incoming := ir.IncomingExecEdges(exec)
	for _, n := range fn.Nodes {
		if ir.IsPure(n.Op) {
			continue
		}
		if len(incoming[n.ID]) == 0 {
			return n.ID
		}
	}
	return ""
}

// returnSignal unwinds exec() back to the call_func site once a
// func_return has executed, carrying the returned value with it.
type returnSignal struct {
	val harness.Value
}

func (returnSignal) Error() string { return "interpreter: func_return outside a call frame" }

// exec walks the execution chain starting at nodeID, evaluating every
// executable node's side effects in order, until the chain runs out or
// a func_return unwinds it.
func (fr *frame) exec(nodeID string) (harness.Value, error) {
	for nodeID != "" {
		n, ok := fr.fn.NodeByID(nodeID)
		if !ok {
			return harness.Value{}, fmt.Errorf("interpreter: %s: unknown node %q on exec chain", fr.fn.ID, nodeID)
		}
		next, err := fr.step(n)
		if err != nil {
			if rs, ok := err.(returnSignal); ok {
				return rs.val, nil
			}
			return harness.Value{}, err
		}
		nodeID = next
	}
	return harness.Value{}, nil
}

// step executes one executable node and returns the id of the next
// node on the chain (empty if the chain ends here).
func (fr *frame) step(n *ir.Node) (string, error) {
	switch n.Op {
	case ir.OpVarSet:
		ref, ok := n.Args["name"]
		if !ok {
			return "", fmt.Errorf("interpreter: var_set %q missing target", n.ID)
		}
		val, err := fr.eval(n.Args["val"])
		if err != nil {
			return "", err
		}
		fr.locals[ref.RefID] = val
		return execOut(n), nil

	case ir.OpBufferStore:
		bufRef, val, idx, err := fr.resolveBufferAccess(n, "buffer", "index", "value")
		if err != nil {
			return "", err
		}
		rs := fr.c.resources[bufRef]
		if rs == nil {
			return "", fmt.Errorf("interpreter: buffer_store: unknown resource %q", bufRef)
		}
		if idx < 0 || (idx+1)*rs.elemSize > len(rs.data) {
			return "", fmt.Errorf("interpreter: buffer_store: index %d out of range for %q", idx, bufRef)
		}
		copy(rs.data[idx*rs.elemSize:(idx+1)*rs.elemSize], padOrTruncate(val.Data, rs.elemSize))
		return execOut(n), nil

	case ir.OpFlowBranch:
		cond, err := fr.eval(n.Args["cond"])
		if err != nil {
			return "", err
		}
		if cond.Float() != 0 {
			return derefPort(n.ExecTrue), nil
		}
		return derefPort(n.ExecFalse), nil

	case ir.OpFlowLoop:
		return "", fr.runLoop(n)

	case ir.OpCallFunc:
		_, err := fr.evalNode(n)
		if err != nil {
			return "", err
		}
		return execOut(n), nil

	case ir.OpFuncReturn:
		val, err := fr.eval(n.Args["val"])
		if err != nil {
			return "", err
		}
		return "", returnSignal{val: val}

	default:
		return "", fmt.Errorf("interpreter: unsupported executable op %q reached the oracle", n.Op)
	}
}

// runLoop drives a flow_loop's body to completion, re-evaluating the
// loop-variant body every iteration (spec.md §5: pure nodes recompute
// per scope, so a loop re-reads whatever its body mutates) before
// falling through to exec_completed.
func (fr *frame) runLoop(n *ir.Node) error {
	count := 0
	if v, ok := n.Literal["count"].(float64); ok {
		count = int(v)
	} else if start, sok := n.Literal["start"].(float64); sok {
		if end, eok := n.Literal["end"].(float64); eok {
			count = int(end - start)
		}
	}
	body := derefPort(n.ExecBody)
	for i := 0; i < count; i++ {
		if body == "" {
			break
		}
		if _, err := fr.exec(body); err != nil {
			return err
		}
	}
	if completed := derefPort(n.ExecCompleted); completed != "" {
		_, err := fr.exec(completed)
		return err
	}
	return nil
}

func execOut(n *ir.Node) string { return derefPort(n.ExecOut) }

func derefPort(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// resolveBufferAccess reads the identifier + value + integer-index
// triple that buffer_store/buffer_load share.
func (fr *frame) resolveBufferAccess(n *ir.Node, bufArg, idxArg, valArg string) (string, harness.Value, int, error) {
	bufRef, ok := n.Args[bufArg]
	if !ok {
		return "", harness.Value{}, 0, fmt.Errorf("interpreter: %s: missing %q", n.ID, bufArg)
	}
	idxVal, err := fr.eval(n.Args[idxArg])
	if err != nil {
		return "", harness.Value{}, 0, err
	}
	var val harness.Value
	if valArg != "" {
		val, err = fr.eval(n.Args[valArg])
		if err != nil {
			return "", harness.Value{}, 0, err
		}
	}
	return bufRef.RefID, val, int(idxVal.Float()), nil
}

// eval resolves a ValueRef: a literal, or a reference to a node,
// local, global input, or builtin, with an optional inline swizzle
// applied last.
func (fr *frame) eval(ref ir.ValueRef) (harness.Value, error) {
	base, err := fr.resolveBase(ref)
	if err != nil {
		return harness.Value{}, err
	}
	if ref.Swizzle != "" {
		return swizzle(base, ref.Swizzle)
	}
	return base, nil
}

func (fr *frame) resolveBase(ref ir.ValueRef) (harness.Value, error) {
	if ref.Kind == ir.RefLiteral {
		return literalValue(ref.Literal), nil
	}
	if n, ok := fr.fn.NodeByID(ref.RefID); ok {
		return fr.evalNode(n)
	}
	if v, ok := fr.locals[ref.RefID]; ok {
		return v, nil
	}
	if in, ok := fr.c.doc.InputByID(ref.RefID); ok {
		if v, ok := fr.c.inputs[ref.RefID]; ok {
			return v, nil
		}
		if in.Default != nil {
			return literalValue(in.Default), nil
		}
		return harness.Value{Data: make([]float64, flatSize(in.Type))}, nil
	}
	if v, ok := builtinDefault(ref.RefID); ok {
		return v, nil
	}
	return harness.Value{}, fmt.Errorf("interpreter: unresolved reference %q", ref.RefID)
}

// evalNode evaluates a pure node's result, or executes a call_func
// node and returns its callee's func_return value (call_func is
// executable but also produces a value at the call site, spec.md §3.3
// and msl's lowerExpr's OpCallFunc case).
func (fr *frame) evalNode(n *ir.Node) (harness.Value, error) {
	if n.Op == ir.OpCallFunc {
		return fr.callFunc(n)
	}
	arg := func(name string) (harness.Value, error) { return fr.eval(n.Args[name]) }
	binary := func(f func(a, b float64) float64) (harness.Value, error) {
		a, err := arg("a")
		if err != nil {
			return harness.Value{}, err
		}
		b, err := arg("b")
		if err != nil {
			return harness.Value{}, err
		}
		return zipComponents(a, b, f), nil
	}
	unary := func(name string, f func(float64) float64) (harness.Value, error) {
		v, err := arg(name)
		if err != nil {
			return harness.Value{}, err
		}
		return mapComponents(v, f), nil
	}

	switch n.Op {
	case ir.OpLiteral, ir.OpConstGet:
		return rawLiteralValue(n.Literal["value"]), nil
	case ir.OpVarGet:
		ref, ok := n.Args["name"]
		if !ok {
			return harness.Value{}, fmt.Errorf("interpreter: var_get %q missing target", n.ID)
		}
		return fr.resolveBase(ir.ValueRef{Kind: ir.RefNode, RefID: ref.RefID})
	case ir.OpBuiltinGet:
		name, _ := n.Literal["name"].(string)
		if v, ok := builtinDefault(name); ok {
			return v, nil
		}
		return harness.Value{Data: []float64{0}}, nil
	case ir.OpLoopIndex:
		// The oracle runs loop bodies sequentially without a thread
		// grid; loop_index outside a dispatch context is always 0.
		return harness.Value{Data: []float64{0}}, nil

	case ir.OpMathAdd:
		return binary(func(a, b float64) float64 { return a + b })
	case ir.OpMathSub:
		return binary(func(a, b float64) float64 { return a - b })
	case ir.OpMathMul:
		return binary(func(a, b float64) float64 { return a * b })
	case ir.OpMathDiv:
		return binary(safeDiv)
	case ir.OpMathMod:
		return binary(math.Mod)
	case ir.OpMathPow:
		return binary(math.Pow)
	case ir.OpMathMin:
		return binary(math.Min)
	case ir.OpMathMax:
		return binary(math.Max)
	case ir.OpMathAtan2:
		return binary(math.Atan2)
	case ir.OpMathGt:
		return binary(boolFn(func(a, b float64) bool { return a > b }))
	case ir.OpMathLt:
		return binary(boolFn(func(a, b float64) bool { return a < b }))
	case ir.OpMathGe:
		return binary(boolFn(func(a, b float64) bool { return a >= b }))
	case ir.OpMathLe:
		return binary(boolFn(func(a, b float64) bool { return a <= b }))
	case ir.OpMathEq:
		return binary(boolFn(func(a, b float64) bool { return a == b }))
	case ir.OpMathNeq:
		return binary(boolFn(func(a, b float64) bool { return a != b }))
	case ir.OpMathAnd:
		return binary(boolFn(func(a, b float64) bool { return a != 0 && b != 0 }))
	case ir.OpMathOr:
		return binary(boolFn(func(a, b float64) bool { return a != 0 || b != 0 }))
	case ir.OpMathXor:
		return binary(boolFn(func(a, b float64) bool { return (a != 0) != (b != 0) }))
	case ir.OpMathNeg:
		return unary("x", func(a float64) float64 { return -a })
	case ir.OpMathNot:
		return unary("a", func(a float64) float64 {
			if a != 0 {
				return 0
			}
			return 1
		})
	case ir.OpMathAbs:
		return unary("x", math.Abs)
	case ir.OpMathSqrt:
		return unary("x", math.Sqrt)
	case ir.OpMathSin:
		return unary("x", math.Sin)
	case ir.OpMathCos:
		return unary("x", math.Cos)
	case ir.OpMathTan:
		return unary("x", math.Tan)
	case ir.OpMathFloor:
		return unary("x", math.Floor)
	case ir.OpMathCeil:
		return unary("x", math.Ceil)
	case ir.OpMathFract:
		return unary("x", func(a float64) float64 { return a - math.Floor(a) })
	case ir.OpMathExp:
		return unary("x", math.Exp)
	case ir.OpMathLog:
		return unary("x", math.Log)
	case ir.OpMathPi:
		return harness.ScalarValue(math.Pi), nil
	case ir.OpMathE:
		return harness.ScalarValue(math.E), nil
	case ir.OpMathClamp:
		x, err := arg("x")
		if err != nil {
			return harness.Value{}, err
		}
		lo, err := arg("min")
		if err != nil {
			return harness.Value{}, err
		}
		hi, err := arg("max")
		if err != nil {
			return harness.Value{}, err
		}
		return zip3Components(x, lo, hi, func(v, lo, hi float64) float64 { return math.Min(math.Max(v, lo), hi) }), nil
	case ir.OpMathMix:
		a, err := arg("a")
		if err != nil {
			return harness.Value{}, err
		}
		b, err := arg("b")
		if err != nil {
			return harness.Value{}, err
		}
		t, err := arg("t")
		if err != nil {
			return harness.Value{}, err
		}
		return zip3Components(a, b, t, func(a, b, t float64) float64 { return a + (b-a)*t }), nil
	case ir.OpMathStep:
		edge, err := arg("edge")
		if err != nil {
			return harness.Value{}, err
		}
		x, err := arg("x")
		if err != nil {
			return harness.Value{}, err
		}
		return zipComponents(edge, x, func(edge, x float64) float64 {
			if x < edge {
				return 0
			}
			return 1
		}), nil
	case ir.OpMathSmoothstep:
		e0, err := arg("edge0")
		if err != nil {
			return harness.Value{}, err
		}
		e1, err := arg("edge1")
		if err != nil {
			return harness.Value{}, err
		}
		x, err := arg("x")
		if err != nil {
			return harness.Value{}, err
		}
		return zip3Components(e0, e1, x, smoothstep), nil
	case ir.OpColorMix:
		base, err := arg("base")
		if err != nil {
			return harness.Value{}, err
		}
		blend, err := arg("blend")
		if err != nil {
			return harness.Value{}, err
		}
		t, err := arg("t")
		if err != nil {
			return harness.Value{}, err
		}
		return zip3Components(base, blend, t, func(a, b, t float64) float64 { return a + (b-a)*t }), nil

	case ir.OpVecConstruct:
		return fr.evalVecConstruct(n)
	case ir.OpVecSwizzle:
		v, err := arg("vec")
		if err != nil {
			return harness.Value{}, err
		}
		mask, _ := n.Literal["channels"].(string)
		return swizzle(v, mask)
	case ir.OpVecGetElement:
		src, err := arg("source")
		if err != nil {
			return harness.Value{}, err
		}
		idx, err := arg("index")
		if err != nil {
			return harness.Value{}, err
		}
		i := int(idx.Float())
		if i < 0 || i >= len(src.Data) {
			return harness.Value{}, fmt.Errorf("interpreter: vec_get_element %q: index %d out of range", n.ID, i)
		}
		return harness.ScalarValue(src.Data[i]), nil
	case ir.OpVecLength:
		v, err := arg("v")
		if err != nil {
			return harness.Value{}, err
		}
		var sum float64
		for _, c := range v.Data {
			sum += c * c
		}
		return harness.ScalarValue(math.Sqrt(sum)), nil
	case ir.OpVecNormalize:
		v, err := arg("v")
		if err != nil {
			return harness.Value{}, err
		}
		var sum float64
		for _, c := range v.Data {
			sum += c * c
		}
		length := math.Sqrt(sum)
		return mapComponents(v, func(c float64) float64 { return safeDiv(c, length) }), nil
	case ir.OpVecDot:
		a, err := arg("a")
		if err != nil {
			return harness.Value{}, err
		}
		b, err := arg("b")
		if err != nil {
			return harness.Value{}, err
		}
		var sum float64
		for i := range a.Data {
			sum += a.Data[i] * b.Data[i]
		}
		return harness.ScalarValue(sum), nil
	case ir.OpVecDistance:
		a, err := arg("a")
		if err != nil {
			return harness.Value{}, err
		}
		b, err := arg("b")
		if err != nil {
			return harness.Value{}, err
		}
		var sum float64
		for i := range a.Data {
			d := a.Data[i] - b.Data[i]
			sum += d * d
		}
		return harness.ScalarValue(math.Sqrt(sum)), nil
	case ir.OpVecCross:
		a, err := arg("a")
		if err != nil {
			return harness.Value{}, err
		}
		b, err := arg("b")
		if err != nil {
			return harness.Value{}, err
		}
		if len(a.Data) != 3 || len(b.Data) != 3 {
			return harness.Value{}, fmt.Errorf("interpreter: vec_cross %q: requires float3 operands", n.ID)
		}
		return harness.Value{Data: []float64{
			a.Data[1]*b.Data[2] - a.Data[2]*b.Data[1],
			a.Data[2]*b.Data[0] - a.Data[0]*b.Data[2],
			a.Data[0]*b.Data[1] - a.Data[1]*b.Data[0],
		}}, nil
	case ir.OpVecReflect:
		i, err := arg("i")
		if err != nil {
			return harness.Value{}, err
		}
		norm, err := arg("n")
		if err != nil {
			return harness.Value{}, err
		}
		var dot float64
		for idx := range i.Data {
			dot += i.Data[idx] * norm.Data[idx]
		}
		return mapComponentsIndexed(i, func(idx int, v float64) float64 { return v - 2*dot*norm.Data[idx] }), nil

	case ir.OpStaticCastFloat, ir.OpStaticCastFloat2, ir.OpStaticCastFloat3, ir.OpStaticCastFloat4:
		v, err := arg("x")
		if err != nil {
			return harness.Value{}, err
		}
		return v, nil
	case ir.OpStaticCastInt, ir.OpStaticCastInt2, ir.OpStaticCastInt3, ir.OpStaticCastInt4:
		v, err := arg("x")
		if err != nil {
			return harness.Value{}, err
		}
		return mapComponents(v, safeCastInt), nil

	case ir.OpBufferLoad:
		bufRef, ok := n.Args["buffer"]
		if !ok {
			return harness.Value{}, fmt.Errorf("interpreter: buffer_load %q missing buffer", n.ID)
		}
		idxVal, err := arg("index")
		if err != nil {
			return harness.Value{}, err
		}
		rs := fr.c.resources[bufRef.RefID]
		if rs == nil {
			return harness.Value{}, fmt.Errorf("interpreter: buffer_load: unknown resource %q", bufRef.RefID)
		}
		idx := int(idxVal.Float())
		if idx < 0 || (idx+1)*rs.elemSize > len(rs.data) {
			return harness.Value{}, fmt.Errorf("interpreter: buffer_load %q: index %d out of range", n.ID, idx)
		}
		return harness.Value{Data: append([]float64(nil), rs.data[idx*rs.elemSize:(idx+1)*rs.elemSize]...)}, nil

	case ir.OpResourceGetSize:
		resRef, ok := n.Args["resource"]
		if !ok {
			return harness.Value{}, fmt.Errorf("interpreter: resource_get_size %q missing resource", n.ID)
		}
		rs := fr.c.resources[resRef.RefID]
		if rs == nil {
			return harness.Value{}, fmt.Errorf("interpreter: resource_get_size: unknown resource %q", resRef.RefID)
		}
		if rs.def.Kind == ir.ResourceTexture2D {
			return harness.Value{Data: []float64{float64(rs.width), float64(rs.height)}}, nil
		}
		return harness.Value{Data: []float64{float64(rs.width), 0}}, nil

	default:
		return harness.Value{}, fmt.Errorf("interpreter: unsupported op %q reached the oracle", n.Op)
	}
}

// callFunc evaluates a call_func node: resolve the callee, build its
// activation frame from the caller's named arguments (missing args
// default to zero, matching the generator's lowerCallFunc), run its
// body, and return whatever func_return produced.
func (fr *frame) callFunc(n *ir.Node) (harness.Value, error) {
	if fr.depth+1 >= maxCallDepth {
		return harness.Value{}, fmt.Errorf("interpreter: Recursion detected calling %q", n.ID)
	}
	ref, ok := n.Args["function"]
	if !ok {
		return harness.Value{}, fmt.Errorf("interpreter: call_func %q missing target function", n.ID)
	}
	callee, ok := fr.c.doc.FunctionByID(ref.RefID)
	if !ok {
		return harness.Value{}, fmt.Errorf("interpreter: call_func %q: unknown function %q", n.ID, ref.RefID)
	}
	callFrame := newFrame(fr.c, callee, fr.depth+1)
	for _, in := range callee.Inputs {
		if argRef, ok := n.Args[in.Name]; ok {
			v, err := fr.eval(argRef)
			if err != nil {
				return harness.Value{}, err
			}
			callFrame.locals[in.Name] = v
		} else {
			callFrame.locals[in.Name] = harness.Value{Data: make([]float64, flatSize(in.Type))}
		}
	}
	return callFrame.exec(entryNodeID(callee))
}

func (fr *frame) evalVecConstruct(n *ir.Node) (harness.Value, error) {
	typeName, _ := n.Literal["type"].(string)
	size := vectorConstructSize(typeName)
	order := []string{"x", "y", "z", "w"}
	data := make([]float64, 0, size)
	for i := 0; i < size; i++ {
		v, err := fr.eval(n.Args[order[i]])
		if err != nil {
			return harness.Value{}, err
		}
		data = append(data, v.Float())
	}
	return harness.Value{Data: data}, nil
}

func vectorConstructSize(typeName string) int {
	switch typeName {
	case "float3", "int3":
		return 3
	case "float4", "int4":
		return 4
	default:
		return 2
	}
}

func rawLiteralValue(raw any) harness.Value {
	switch v := raw.(type) {
	case float64:
		return harness.ScalarValue(v)
	case bool:
		if v {
			return harness.ScalarValue(1)
		}
		return harness.ScalarValue(0)
	case string:
		return harness.Value{}
	case []any:
		data := make([]float64, 0, len(v))
		for _, e := range v {
			if f, ok := e.(float64); ok {
				data = append(data, f)
			}
		}
		return harness.Value{Data: data}
	default:
		return harness.Value{}
	}
}

func literalValue(lit ir.LiteralValue) harness.Value {
	switch v := lit.(type) {
	case ir.LitFloat:
		return harness.ScalarValue(float64(v))
	case ir.LitBool:
		if v {
			return harness.ScalarValue(1)
		}
		return harness.ScalarValue(0)
	case ir.LitVector:
		return harness.Value{Data: append([]float64(nil), []float64(v)...)}
	default:
		return harness.Value{}
	}
}

// builtinDefault supplies the zero-dispatch values the oracle reports
// for shader builtins (spec.md §6.4) when a test doesn't override
// them via a real dispatch grid: the invocation, grid and index
// builtins all read as zero, num_workgroups and output_size included.
func builtinDefault(name string) (harness.Value, bool) {
	switch name {
	case "global_invocation_id", "num_workgroups", "output_size":
		return harness.Value{Data: []float64{0, 0, 0}}, true
	case "normalized_global_invocation_id":
		return harness.Value{Data: []float64{0, 0, 0}}, true
	case "frag_coord":
		return harness.Value{Data: []float64{0, 0, 0, 0}}, true
	case "vertex_index":
		return harness.ScalarValue(0), true
	case "front_facing":
		return harness.ScalarValue(0), true
	case "time", "delta_time", "bpm", "beat_number", "beat_delta":
		return harness.ScalarValue(0), true
	}
	return harness.Value{}, false
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// safeCastInt wraps two's-complement at ±2^31 (spec.md §9 design
// note): truncate toward zero, then reduce into int32 range the same
// way the generator's safe_cast_int helper does.
func safeCastInt(f float64) float64 {
	const mod = 1 << 32
	i := int64(math.Trunc(f))
	i %= mod
	if i >= (1 << 31) {
		i -= mod
	} else if i < -(1 << 31) {
		i += mod
	}
	return float64(i)
}

func smoothstep(edge0, edge1, x float64) float64 {
	t := (x - edge0) / (edge1 - edge0)
	t = math.Min(math.Max(t, 0), 1)
	return t * t * (3 - 2*t)
}

func boolFn(f func(a, b float64) bool) func(a, b float64) float64 {
	return func(a, b float64) float64 {
		if f(a, b) {
			return 1
		}
		return 0
	}
}

// zipComponents applies f componentwise, broadcasting a scalar operand
// against a vector one (shader-style scalar/vector mixed math).
func zipComponents(a, b harness.Value, f func(a, b float64) float64) harness.Value {
	n := len(a.Data)
	if len(b.Data) > n {
		n = len(b.Data)
	}
	if n == 0 {
		n = 1
	}
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = f(componentAt(a, i), componentAt(b, i))
	}
	return harness.Value{Data: data}
}

func zip3Components(a, b, c harness.Value, f func(a, b, c float64) float64) harness.Value {
	n := len(a.Data)
	if len(b.Data) > n {
		n = len(b.Data)
	}
	if len(c.Data) > n {
		n = len(c.Data)
	}
	if n == 0 {
		n = 1
	}
	data := make([]float64, n)
	for i := 0; i < n; i++ {
		data[i] = f(componentAt(a, i), componentAt(b, i), componentAt(c, i))
	}
	return harness.Value{Data: data}
}

func mapComponents(v harness.Value, f func(float64) float64) harness.Value {
	data := make([]float64, len(v.Data))
	for i, c := range v.Data {
		data[i] = f(c)
	}
	return harness.Value{Data: data}
}

func mapComponentsIndexed(v harness.Value, f func(int, float64) float64) harness.Value {
	data := make([]float64, len(v.Data))
	for i, c := range v.Data {
		data[i] = f(i, c)
	}
	return harness.Value{Data: data}
}

func componentAt(v harness.Value, i int) float64 {
	if len(v.Data) == 0 {
		return 0
	}
	if len(v.Data) == 1 {
		return v.Data[0]
	}
	if i >= len(v.Data) {
		return v.Data[len(v.Data)-1]
	}
	return v.Data[i]
}

func padOrTruncate(data []float64, n int) []float64 {
	if len(data) == n {
		return data
	}
	out := make([]float64, n)
	copy(out, data)
	return out
}

// flatSize mirrors the abi package's getTypeFlatSize (spec.md §4.E)
// closely enough for the oracle's own zero-initialization needs:
// scalar=1, vecN=N, matNxN=N*N; everything else the oracle doesn't
// evaluate defaults to 1 so a zero-valued local still round-trips as
// a single float.
func flatSize(t ir.DataType) int {
	switch v := t.(type) {
	case ir.Scalar:
		return 1
	case ir.Vector:
		return int(v.Size)
	case ir.Matrix:
		return int(v.Size) * int(v.Size)
	case ir.Array:
		return v.Size * flatSize(v.Elem)
	default:
		return 1
	}
}

func swizzle(v harness.Value, mask string) (harness.Value, error) {
	if mask == "" {
		return v, nil
	}
	data := make([]float64, 0, len(mask))
	for _, ch := range mask {
		idx, ok := swizzleIndex(ch)
		if !ok || idx >= len(v.Data) {
			return harness.Value{}, fmt.Errorf("interpreter: invalid swizzle component %q", string(ch))
		}
		data = append(data, v.Data[idx])
	}
	return harness.Value{Data: data}, nil
}

func swizzleIndex(ch rune) (int, bool) {
	switch ch {
	case 'x', 'r':
		return 0, true
	case 'y', 'g':
		return 1, true
	case 'z', 'b':
		return 2, true
	case 'w', 'a':
		return 3, true
	default:
		return 0, false
	}
}
