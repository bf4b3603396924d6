package ir_test

import (
	"strings"
	"testing"

	"github.com/nattos/shadergraph/ir"
)

// buildDoc is a tiny helper constructing a single-function document
// around nodes the caller supplies, wiring in the given resources and
// structs. Most scenarios in spec.md §8 need only one function.
func buildDoc(fn ir.FunctionDef, resources []ir.ResourceDef, structs []ir.StructDef) *ir.Document {
	return &ir.Document{
		EntryPoint: fn.ID,
		Resources:  resources,
		Structs:    structs,
		Functions:  []ir.FunctionDef{fn},
	}
}

func diagContains(diags []ir.Diagnostic, substr string) bool {
	for _, d := range diags {
		if strings.Contains(d.Message, substr) {
			return true
		}
	}
	return false
}

// S1: swizzle correctness and out-of-bounds component rejection.
func TestSwizzleCorrectness(t *testing.T) {
	fn := ir.FunctionDef{
		ID:  "main",
		Tag: ir.FunctionShader,
		Nodes: []ir.Node{
			{ID: "v", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
				"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
				"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
			}, Literal: map[string]any{"type": "float2"}},
			{ID: "swiz", Op: ir.OpVecSwizzle, Args: map[string]ir.ValueRef{
				"vec": {Kind: ir.RefNode, RefID: "v"},
			}, Literal: map[string]any{"channels": "yx"}},
		},
	}
	doc := buildDoc(fn, nil, nil)
	res, diags := ir.AnalyzeFunction(doc, &doc.Functions[0])
	if ir.HasErrors(diags) {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	got := res.Types["swiz"]
	want := ir.Vector{Size: 2, Kind: ir.ScalarFloat}
	if !ir.TypesEqual(got, want) {
		t.Fatalf("swiz type = %v, want %v", got, want)
	}
}

func TestSwizzleInvalidComponent(t *testing.T) {
	fn := ir.FunctionDef{
		ID:  "main",
		Tag: ir.FunctionShader,
		Nodes: []ir.Node{
			{ID: "v", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
				"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
				"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
			}, Literal: map[string]any{"type": "float2"}},
			{ID: "swiz", Op: ir.OpVecSwizzle, Args: map[string]ir.ValueRef{
				"vec": {Kind: ir.RefNode, RefID: "v"},
			}, Literal: map[string]any{"channels": "xq"}},
		},
	}
	doc := buildDoc(fn, nil, nil)
	_, diags := ir.AnalyzeFunction(doc, &doc.Functions[0])
	if !diagContains(diags, "Invalid swizzle component") {
		t.Fatalf("expected invalid swizzle diagnostic, got %v", diags)
	}
}

// S2: recursive struct detection.
func TestRecursiveStructDetected(t *testing.T) {
	structs := []ir.StructDef{
		{ID: "A", Members: []ir.StructMember{{Name: "b", Type: ir.StructRef{ID: "B"}}}},
		{ID: "B", Members: []ir.StructMember{{Name: "a", Type: ir.StructRef{ID: "A"}}}},
	}
	doc := &ir.Document{
		EntryPoint: "main",
		Structs:    structs,
		Functions:  []ir.FunctionDef{{ID: "main", Tag: ir.FunctionShader}},
	}
	diags := ir.Validate(doc)
	if !diagContains(diags, "Recursive struct definition detected") {
		t.Fatalf("expected recursive struct diagnostic, got %v", diags)
	}
}

// S3: static out-of-bounds buffer_store.
func TestStaticOOBBufferStore(t *testing.T) {
	resources := []ir.ResourceDef{
		{ID: "buf", Kind: ir.ResourceBuffer, DataType: ir.Scalar{Kind: ir.ScalarFloat}, Size: ir.ResourceSize{Mode: ir.SizeFixed, Count: 2}},
	}
	fn := ir.FunctionDef{
		ID:  "main",
		Tag: ir.FunctionShader,
		Nodes: []ir.Node{
			{ID: "store", Op: ir.OpBufferStore, Args: map[string]ir.ValueRef{
				"buffer": {Kind: ir.RefNode, RefID: "buf"},
				"index":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(5)},
				"value":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(100)},
			}},
		},
	}
	doc := buildDoc(fn, resources, nil)
	diags := ir.Validate(doc)
	if !diagContains(diags, "Static OOB") {
		t.Fatalf("expected Static OOB diagnostic, got %v", diags)
	}
}

// S4: buffer element type mismatch.
func TestBufferTypeMismatch(t *testing.T) {
	resources := []ir.ResourceDef{
		{ID: "b_int", Kind: ir.ResourceBuffer, DataType: ir.Scalar{Kind: ir.ScalarInt}, Size: ir.ResourceSize{Mode: ir.SizeFixed, Count: 4}},
	}
	fn := ir.FunctionDef{
		ID:  "main",
		Tag: ir.FunctionShader,
		Nodes: []ir.Node{
			{ID: "store", Op: ir.OpBufferStore, Args: map[string]ir.ValueRef{
				"buffer": {Kind: ir.RefNode, RefID: "b_int"},
				"index":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(0)},
				"value":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
			}},
		},
	}
	doc := buildDoc(fn, resources, nil)
	diags := ir.Validate(doc)
	if !diagContains(diags, "expects 'int', got 'float'") {
		t.Fatalf("expected buffer type mismatch diagnostic, got %v", diags)
	}
}

// S7: mixed int/float vector strict rejection.
func TestMixedVectorStrictReject(t *testing.T) {
	fn := ir.FunctionDef{
		ID:  "main",
		Tag: ir.FunctionShader,
		Nodes: []ir.Node{
			{ID: "a", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
				"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
				"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
			}, Literal: map[string]any{"type": "int2"}},
			{ID: "b", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
				"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
				"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
			}, Literal: map[string]any{"type": "float2"}},
			{ID: "sum", Op: ir.OpMathAdd, Args: map[string]ir.ValueRef{
				"a": {Kind: ir.RefNode, RefID: "a"},
				"b": {Kind: ir.RefNode, RefID: "b"},
			}},
		},
	}
	doc := buildDoc(fn, nil, nil)
	_, diags := ir.AnalyzeFunction(doc, &doc.Functions[0])
	if !diagContains(diags, "cannot implicitly convert between 'int2' and 'float2'") {
		t.Fatalf("expected strict-vector diagnostic, got %v", diags)
	}
}

// Atomic ops must target an atomic_counter resource.
func TestAtomicTargetMustBeCounter(t *testing.T) {
	resources := []ir.ResourceDef{
		{ID: "buf", Kind: ir.ResourceBuffer, DataType: ir.Scalar{Kind: ir.ScalarInt}, Size: ir.ResourceSize{Mode: ir.SizeFixed, Count: 1}},
	}
	fn := ir.FunctionDef{
		ID:  "main",
		Tag: ir.FunctionShader,
		Nodes: []ir.Node{
			{ID: "inc", Op: ir.OpAtomicAdd, Args: map[string]ir.ValueRef{
				"resource": {Kind: ir.RefNode, RefID: "buf"},
				"value":    {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
			}},
		},
	}
	doc := buildDoc(fn, resources, nil)
	diags := ir.Validate(doc)
	if !diagContains(diags, "is not an atomic_counter") {
		t.Fatalf("expected atomic target diagnostic, got %v", diags)
	}
}

func TestEntryPointMissingIsError(t *testing.T) {
	doc := &ir.Document{EntryPoint: "", Functions: nil}
	diags := ir.Validate(doc)
	if !diagContains(diags, "no entryPoint") {
		t.Fatalf("expected missing entryPoint diagnostic, got %v", diags)
	}
}
