package msl_test

import (
	"strings"
	"testing"

	"github.com/nattos/shadergraph/ir"
	"github.com/nattos/shadergraph/msl"
)

func TestVecConstructOrdersComponentsRegardlessOfArgOrder(t *testing.T) {
	// declared out of (y, x) order — lowering must still emit x before y.
	doc := buildKernel([]ir.Node{
		{ID: "v", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
			"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
			"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
		}, Literal: map[string]any{"type": "float2"}},
		{ID: "swiz", Op: ir.OpVecSwizzle, Args: map[string]ir.ValueRef{
			"vec": {Kind: ir.RefNode, RefID: "v"},
		}, Literal: map[string]any{"channels": "yx"}},
		{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  {Kind: ir.RefNode, RefID: "swiz"},
		}},
	}, []ir.LocalVar{{Name: "res", Type: ir.Vector{Size: 2, Kind: ir.ScalarFloat}}})

	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	mustContain(t, code, "float2(1")
	mustContain(t, code, ".yx")
}

func TestCallFuncThreadsGlobalsAndDefaultsMissingArgs(t *testing.T) {
	exec := "set"
	doc := &ir.Document{
		EntryPoint: "main",
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader, LocalVars: []ir.LocalVar{
				{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}},
			}, Nodes: []ir.Node{
				{ID: "call", Op: ir.OpCallFunc, Args: map[string]ir.ValueRef{
					"function": {Kind: ir.RefNode, RefID: "helper"},
				}},
				{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
					"name": {Kind: ir.RefNode, RefID: "res"},
					"val":  {Kind: ir.RefNode, RefID: "call"},
				}},
			}},
			{ID: "helper", Tag: ir.FunctionShader,
				Inputs:  []ir.FunctionIO{{Name: "x", Type: ir.Scalar{Kind: ir.ScalarFloat}}},
				Outputs: []ir.FunctionIO{{Name: "out", Type: ir.Scalar{Kind: ir.ScalarFloat}}},
				Nodes: []ir.Node{
					{ID: "ret", Op: ir.OpFuncReturn, Args: map[string]ir.ValueRef{
						"val": {Kind: ir.RefLiteral, Literal: ir.LitFloat(0)},
					}},
				},
			},
		},
	}
	doc.Functions[0].Nodes[0].ExecOut = &exec

	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !strings.Contains(code, "b_globals") {
		t.Fatalf("expected b_globals threaded through call_func, got:\n%s", code)
	}
	mustContain(t, code, "0.0f")
}
