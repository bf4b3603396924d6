package msl_test

import (
	"testing"

	"github.com/nattos/shadergraph/ir"
	"github.com/nattos/shadergraph/msl"
)

func TestCompileUnpacksStructGlobalInput(t *testing.T) {
	doc := &ir.Document{
		EntryPoint: "main",
		Structs: []ir.StructDef{
			{ID: "Params", Members: []ir.StructMember{
				{Name: "scale", Type: ir.Scalar{Kind: ir.ScalarFloat}},
				{Name: "offset", Type: ir.Vector{Size: 2, Kind: ir.ScalarFloat}},
			}},
		},
		Inputs: []ir.GlobalInput{
			{ID: "params", Type: ir.StructRef{ID: "Params"}},
		},
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader},
		},
	}
	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	mustContain(t, code, "Params{")
	mustContain(t, code, "float2(inputs[")
}

func TestCompileUnpacksFixedArrayGlobalInput(t *testing.T) {
	doc := &ir.Document{
		EntryPoint: "main",
		Inputs: []ir.GlobalInput{
			{ID: "weights", Type: ir.Array{Elem: ir.Scalar{Kind: ir.ScalarFloat}, Size: 3}},
		},
		Functions: []ir.FunctionDef{
			{ID: "main", Tag: ir.FunctionShader},
		},
	}
	code, _, err := msl.Compile(doc, msl.DefaultOptions())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	mustContain(t, code, "array<float, 3>{")
}
