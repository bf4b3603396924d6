package msl_test

import (
	"strings"
	"testing"

	"github.com/nattos/shadergraph/ir"
	"github.com/nattos/shadergraph/msl"
)

// buildKernel assembles a minimal one-function kernel document: a
// local "res" set to a literal, stored back via the epilogue.
func buildKernel(nodes []ir.Node, locals []ir.LocalVar) *ir.Document {
	return &ir.Document{
		EntryPoint: "main",
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader, LocalVars: locals, Nodes: nodes},
		},
	}
}

func mustContain(t *testing.T, code, substr string) {
	t.Helper()
	if !strings.Contains(code, substr) {
		t.Fatalf("expected generated MSL to contain %q, got:\n%s", substr, code)
	}
}

func TestCompileEmitsKernelSignature(t *testing.T) {
	exec := "set"
	doc := buildKernel([]ir.Node{
		{ID: "lit", Op: ir.OpLiteral, Literal: map[string]any{"value": 3.14, "type": "float"}},
		{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  {Kind: ir.RefNode, RefID: "lit"},
		}},
	}, []ir.LocalVar{{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}}})
	doc.Functions[0].Nodes[0].ExecOut = &exec

	code, manifest, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	mustContain(t, code, "kernel void")
	mustContain(t, code, "thread_position_in_grid")
	if manifest.GlobalBufferSize < 16 {
		t.Fatalf("globalBufferSize = %d, want >= 16", manifest.GlobalBufferSize)
	}
	if _, ok := manifest.VarMap["res"]; !ok {
		t.Fatalf("varMap missing local 'res': %+v", manifest.VarMap)
	}
}

func TestCompileRecursionDetected(t *testing.T) {
	doc := &ir.Document{
		EntryPoint: "a",
		Functions: []ir.FunctionDef{
			{ID: "a", Tag: ir.FunctionShader, Nodes: []ir.Node{
				{ID: "call", Op: ir.OpCallFunc, Args: map[string]ir.ValueRef{
					"function": {Kind: ir.RefNode, RefID: "b"},
				}},
			}},
			{ID: "b", Tag: ir.FunctionShader, Nodes: []ir.Node{
				{ID: "call", Op: ir.OpCallFunc, Args: map[string]ir.ValueRef{
					"function": {Kind: ir.RefNode, RefID: "a"},
				}},
			}},
		},
	}
	_, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err == nil || !strings.Contains(err.Error(), "Recursion detected") {
		t.Fatalf("expected recursion error, got %v", err)
	}
}

func TestCompileBinaryMathLowersToSafeDiv(t *testing.T) {
	exec := "set"
	doc := buildKernel([]ir.Node{
		{ID: "a", Op: ir.OpLiteral, Literal: map[string]any{"value": 1.0, "type": "float"}},
		{ID: "b", Op: ir.OpLiteral, Literal: map[string]any{"value": 2.0, "type": "float"}},
		{ID: "div", Op: ir.OpMathDiv, Args: map[string]ir.ValueRef{
			"a": {Kind: ir.RefNode, RefID: "a"},
			"b": {Kind: ir.RefNode, RefID: "b"},
		}},
		{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
			"name": {Kind: ir.RefNode, RefID: "res"},
			"val":  {Kind: ir.RefNode, RefID: "div"},
		}},
	}, []ir.LocalVar{{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}}})
	doc.Functions[0].Nodes[2].ExecOut = &exec

	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	mustContain(t, code, "safe_div(")
}
