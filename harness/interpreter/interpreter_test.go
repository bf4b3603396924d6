package interpreter_test

import (
	"strings"
	"testing"

	"github.com/nattos/shadergraph/harness"
	"github.com/nattos/shadergraph/harness/interpreter"
	"github.com/nattos/shadergraph/ir"
)

func runMain(t *testing.T, doc *ir.Document) harness.Context {
	t.Helper()
	ctx, err := interpreter.New().Execute(doc, doc.EntryPoint, nil)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return ctx
}

func singleNodeDoc(local ir.LocalVar, nodes []ir.Node) *ir.Document {
	return &ir.Document{
		EntryPoint: "main",
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader, LocalVars: []ir.LocalVar{local}, Nodes: nodes},
		},
	}
}

func strPtr(s string) *string { return &s }

func setNode(val ir.ValueRef) []ir.Node {
	return []ir.Node{
		{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  val,
		}},
	}
}

func TestVarSetAndGetRoundTrip(t *testing.T) {
	doc := singleNodeDoc(
		ir.LocalVar{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}},
		setNode(ir.ValueRef{Kind: ir.RefLiteral, Literal: ir.LitFloat(42)}),
	)
	ctx := runMain(t, doc)
	v, ok := ctx.GetVar("res")
	if !ok || v.Float() != 42 {
		t.Fatalf("GetVar(res) = %v, %v; want 42, true", v, ok)
	}
}

func TestMathAddMulChain(t *testing.T) {
	doc := singleNodeDoc(
		ir.LocalVar{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}},
		[]ir.Node{
			{ID: "a", Op: ir.OpLiteral, Literal: map[string]any{"value": 2.0, "type": "float"}},
			{ID: "b", Op: ir.OpLiteral, Literal: map[string]any{"value": 3.0, "type": "float"}},
			{ID: "mul", Op: ir.OpMathMul, Args: map[string]ir.ValueRef{
				"a": {Kind: ir.RefNode, RefID: "a"},
				"b": {Kind: ir.RefNode, RefID: "b"},
			}},
			{ID: "add", Op: ir.OpMathAdd, Args: map[string]ir.ValueRef{
				"a": {Kind: ir.RefNode, RefID: "mul"},
				"b": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
			}},
			{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
				"name": {Kind: ir.RefNode, RefID: "res"},
				"val":  {Kind: ir.RefNode, RefID: "add"},
			}},
		},
	)
	ctx := runMain(t, doc)
	v, _ := ctx.GetVar("res")
	if v.Float() != 7 {
		t.Fatalf("res = %v, want 7 (2*3+1)", v.Float())
	}
}

func TestSafeDivByZeroReturnsZero(t *testing.T) {
	doc := singleNodeDoc(
		ir.LocalVar{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}},
		[]ir.Node{
			{ID: "div", Op: ir.OpMathDiv, Args: map[string]ir.ValueRef{
				"a": {Kind: ir.RefLiteral, Literal: ir.LitFloat(5)},
				"b": {Kind: ir.RefLiteral, Literal: ir.LitFloat(0)},
			}},
			{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
				"name": {Kind: ir.RefNode, RefID: "res"},
				"val":  {Kind: ir.RefNode, RefID: "div"},
			}},
		},
	)
	ctx := runMain(t, doc)
	v, _ := ctx.GetVar("res")
	if v.Float() != 0 {
		t.Fatalf("5/0 = %v, want 0 (safe_div)", v.Float())
	}
}

func TestFlowBranchTakesTrueArm(t *testing.T) {
	execTrue, execFalse := "set_true", "set_false"
	doc := singleNodeDoc(
		ir.LocalVar{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}},
		[]ir.Node{
			{ID: "branch", Op: ir.OpFlowBranch, Args: map[string]ir.ValueRef{
				"cond": {Kind: ir.RefLiteral, Literal: ir.LitBool(true)},
			}, ExecTrue: &execTrue, ExecFalse: &execFalse},
			{ID: "set_true", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
				"name": {Kind: ir.RefNode, RefID: "res"},
				"val":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
			}},
			{ID: "set_false", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
				"name": {Kind: ir.RefNode, RefID: "res"},
				"val":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(0)},
			}},
		},
	)
	ctx := runMain(t, doc)
	v, _ := ctx.GetVar("res")
	if v.Float() != 1 {
		t.Fatalf("res = %v, want 1 (true arm)", v.Float())
	}
}

func TestFlowLoopRunsBodyCountTimes(t *testing.T) {
	execBody, execCompleted := "incr", ""
	doc := singleNodeDoc(
		ir.LocalVar{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}, Initial: ir.LitFloat(0)},
		[]ir.Node{
			{ID: "loop", Op: ir.OpFlowLoop, Literal: map[string]any{"count": 4.0}, ExecBody: &execBody, ExecCompleted: &execCompleted},
			{ID: "one", Op: ir.OpLiteral, Literal: map[string]any{"value": 1.0, "type": "float"}},
			{ID: "add", Op: ir.OpMathAdd, Args: map[string]ir.ValueRef{
				"a": {Kind: ir.RefNode, RefID: "res"},
				"b": {Kind: ir.RefNode, RefID: "one"},
			}},
			{ID: "incr", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
				"name": {Kind: ir.RefNode, RefID: "res"},
				"val":  {Kind: ir.RefNode, RefID: "add"},
			}},
		},
	)
	ctx := runMain(t, doc)
	v, _ := ctx.GetVar("res")
	if v.Float() != 4 {
		t.Fatalf("res = %v, want 4 after 4 loop iterations", v.Float())
	}
}

func TestBufferStoreThenLoadRoundTrip(t *testing.T) {
	doc := &ir.Document{
		EntryPoint: "main",
		Resources: []ir.ResourceDef{
			{ID: "buf", Kind: ir.ResourceBuffer, DataType: ir.Scalar{Kind: ir.ScalarFloat},
				Size: ir.ResourceSize{Mode: ir.SizeFixed, Count: 4}, Persistence: ir.Persistence{CPUAccess: true}},
		},
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader, LocalVars: []ir.LocalVar{
				{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}},
			}, Nodes: []ir.Node{
				{ID: "store", Op: ir.OpBufferStore, Args: map[string]ir.ValueRef{
					"buffer": {Kind: ir.RefNode, RefID: "buf"},
					"index":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
					"value":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(9)},
				}, ExecOut: strPtr("load")},
				{ID: "loadval", Op: ir.OpBufferLoad, Args: map[string]ir.ValueRef{
					"buffer": {Kind: ir.RefNode, RefID: "buf"},
					"index":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
				}},
				{ID: "load", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
					"name": {Kind: ir.RefNode, RefID: "res"},
					"val":  {Kind: ir.RefNode, RefID: "loadval"},
				}},
			}},
		},
	}
	ctx := runMain(t, doc)
	v, _ := ctx.GetVar("res")
	if v.Float() != 9 {
		t.Fatalf("buffer round trip = %v, want 9", v.Float())
	}
	res, ok := ctx.GetResource("buf")
	if !ok || res.Data[2] != 9 {
		t.Fatalf("GetResource(buf).Data[2] = %v, %v; want 9, true", res, ok)
	}
}

func TestBufferStoreOutOfRangeErrors(t *testing.T) {
	doc := &ir.Document{
		EntryPoint: "main",
		Resources: []ir.ResourceDef{
			{ID: "buf", Kind: ir.ResourceBuffer, DataType: ir.Scalar{Kind: ir.ScalarFloat},
				Size: ir.ResourceSize{Mode: ir.SizeFixed, Count: 2}},
		},
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader, Nodes: []ir.Node{
				{ID: "store", Op: ir.OpBufferStore, Args: map[string]ir.ValueRef{
					"buffer": {Kind: ir.RefNode, RefID: "buf"},
					"index":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(5)},
					"value":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(100)},
				}},
			}},
		},
	}
	_, err := interpreter.New().Execute(doc, "main", nil)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected an out-of-range error, got %v", err)
	}
}

func TestVecSwizzleInvalidComponentErrors(t *testing.T) {
	doc := singleNodeDoc(
		ir.LocalVar{Name: "res", Type: ir.Vector{Size: 2, Kind: ir.ScalarFloat}},
		[]ir.Node{
			{ID: "v", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
				"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
				"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
			}, Literal: map[string]any{"type": "float2"}},
			{ID: "swiz", Op: ir.OpVecSwizzle, Args: map[string]ir.ValueRef{
				"vec": {Kind: ir.RefNode, RefID: "v"},
			}, Literal: map[string]any{"channels": "xq"}},
			{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
				"name": {Kind: ir.RefNode, RefID: "res"},
				"val":  {Kind: ir.RefNode, RefID: "swiz"},
			}},
		},
	)
	_, err := interpreter.New().Execute(doc, "main", nil)
	if err == nil || !strings.Contains(err.Error(), "invalid swizzle component") {
		t.Fatalf("expected an invalid swizzle component error, got %v", err)
	}
}
