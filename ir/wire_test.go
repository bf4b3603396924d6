package ir_test

import (
	"testing"

	"github.com/nattos/shadergraph/ir"
)

func TestParseTypeStringPrimitives(t *testing.T) {
	cases := map[string]ir.DataType{
		"float":    ir.Scalar{Kind: ir.ScalarFloat},
		"int3":     ir.Vector{Size: 3, Kind: ir.ScalarInt},
		"float4x4": ir.Matrix{Size: 4},
		"texture2d": ir.Opaque{Kind: ir.OpaqueTexture2D},
	}
	for in, want := range cases {
		got, err := ir.ParseTypeString(in)
		if err != nil {
			t.Fatalf("ParseTypeString(%q): %v", in, err)
		}
		if !ir.TypesEqual(got, want) {
			t.Errorf("ParseTypeString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseTypeStringComposite(t *testing.T) {
	got, err := ir.ParseTypeString("array<float3, 4>")
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := got.(ir.Array)
	if !ok || arr.Size != 4 {
		t.Fatalf("got %v", got)
	}
	if !ir.TypesEqual(arr.Elem, ir.Vector{Size: 3, Kind: ir.ScalarFloat}) {
		t.Fatalf("elem = %v", arr.Elem)
	}

	dyn, err := ir.ParseTypeString("float[]")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := dyn.(ir.DynamicArray); !ok {
		t.Fatalf("expected DynamicArray, got %T", dyn)
	}
}

func TestFromWireInlineSwizzleAndArgsBag(t *testing.T) {
	docJSON := []byte(`{
		"version": "1",
		"entryPoint": "main",
		"inputs": [],
		"resources": [],
		"structs": [],
		"functions": [
			{
				"id": "main",
				"tag": "shader",
				"nodes": [
					{"id": "v", "op": "float2", "x": 1, "y": 2},
					{"id": "swiz", "op": "vec_swizzle", "args": {"vec": "v.yx"}, "channels": "xy"}
				]
			}
		]
	}`)
	doc, err := ir.FromWire(docJSON)
	if err != nil {
		t.Fatalf("FromWire: %v", err)
	}
	fn, ok := doc.FunctionByID("main")
	if !ok {
		t.Fatal("missing function main")
	}
	n, ok := fn.NodeByID("swiz")
	if !ok {
		t.Fatal("missing node swiz")
	}
	if n.Op != ir.OpVecSwizzle {
		t.Fatalf("op = %v", n.Op)
	}
	ref, ok := n.Args["vec"]
	if !ok || ref.RefID != "v" || ref.Swizzle != "yx" {
		t.Fatalf("vec arg = %+v", ref)
	}
	if n.Literal["channels"] != "xy" {
		t.Fatalf("channels literal = %v", n.Literal["channels"])
	}

	vNode, ok := fn.NodeByID("v")
	if !ok {
		t.Fatal("missing node v")
	}
	if vNode.Op != ir.OpVecConstruct {
		t.Fatalf("v op = %v, want vec_construct", vNode.Op)
	}
	if vNode.Literal["type"] != "float2" {
		t.Fatalf("v type literal = %v", vNode.Literal["type"])
	}
}

func TestFromWireRejectsDottedNodeID(t *testing.T) {
	docJSON := []byte(`{
		"entryPoint": "main",
		"functions": [
			{"id": "main", "tag": "shader", "nodes": [{"id": "bad.id", "op": "literal", "value": 1}]}
		]
	}`)
	if _, err := ir.FromWire(docJSON); err == nil {
		t.Fatal("expected error for dotted node id")
	}
}
