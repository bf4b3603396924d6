package msl_test

import (
	"strings"
	"testing"

	"github.com/nattos/shadergraph/ir"
	"github.com/nattos/shadergraph/msl"
)

func TestFlowBranchLinearizesBothArms(t *testing.T) {
	execTrue, execFalse := "set_true", "set_false"
	doc := buildKernel([]ir.Node{
		{ID: "cond", Op: ir.OpLiteral, Literal: map[string]any{"value": 1.0, "type": "float"}},
		{ID: "branch", Op: ir.OpFlowBranch, Args: map[string]ir.ValueRef{
			"cond": {Kind: ir.RefNode, RefID: "cond"},
		}, ExecTrue: &execTrue, ExecFalse: &execFalse},
		{ID: "set_true", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
		}},
		{ID: "set_false", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(0)},
		}},
	}, []ir.LocalVar{{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}}})

	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(code, "if (") || !strings.Contains(code, "} else {") {
		t.Fatalf("expected an if/else lowering, got:\n%s", code)
	}
}

func TestFlowLoopLinearizesCounterAndBody(t *testing.T) {
	execBody, execCompleted := "incr", ""
	doc := buildKernel([]ir.Node{
		{ID: "loop", Op: ir.OpFlowLoop, Literal: map[string]any{"count": 4.0}, ExecBody: &execBody, ExecCompleted: &execCompleted},
		{ID: "incr", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
		}},
	}, []ir.LocalVar{{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}}})

	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(code, "for (int") {
		t.Fatalf("expected a for-loop lowering, got:\n%s", code)
	}
}
