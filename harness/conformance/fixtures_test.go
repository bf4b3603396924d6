package conformance_test

import "github.com/nattos/shadergraph/ir"

// swizzleDoc builds the §8 S1 scenario: float2(x=1,y=2) swizzled 'yx'
// stored into a float2 local.
func swizzleDoc() *ir.Document {
	return &ir.Document{
		EntryPoint: "main",
		Functions: []ir.FunctionDef{
			{
				ID:  "main",
				Tag: ir.FunctionShader,
				LocalVars: []ir.LocalVar{
					{Name: "res", Type: ir.Vector{Size: 2, Kind: ir.ScalarFloat}},
				},
				Nodes: []ir.Node{
					{ID: "v", Op: ir.OpVecConstruct, Args: map[string]ir.ValueRef{
						"x": {Kind: ir.RefLiteral, Literal: ir.LitFloat(1)},
						"y": {Kind: ir.RefLiteral, Literal: ir.LitFloat(2)},
					}, Literal: map[string]any{"type": "float2"}},
					{ID: "swiz", Op: ir.OpVecSwizzle, Args: map[string]ir.ValueRef{
						"vec": {Kind: ir.RefNode, RefID: "v"},
					}, Literal: map[string]any{"channels": "yx"}},
					{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
						"name": {Kind: ir.RefNode, RefID: "res"},
						"val":  {Kind: ir.RefNode, RefID: "swiz"},
					}},
				},
			},
		},
	}
}

// squareCallDoc builds the §8 S5 scenario: fn_main calls fn_square(5)
// and stores the result into buffer 'buf' at index 0; expected 25.
func squareCallDoc() *ir.Document {
	return &ir.Document{
		EntryPoint: "fn_main",
		Resources: []ir.ResourceDef{
			{ID: "buf", Kind: ir.ResourceBuffer, DataType: ir.Scalar{Kind: ir.ScalarFloat},
				Size:        ir.ResourceSize{Mode: ir.SizeFixed, Count: 1},
				Persistence: ir.Persistence{CPUAccess: true}},
		},
		Functions: []ir.FunctionDef{
			{
				ID:  "fn_main",
				Tag: ir.FunctionShader,
				Nodes: []ir.Node{
					{ID: "call", Op: ir.OpCallFunc, Args: map[string]ir.ValueRef{
						"function": {Kind: ir.RefNode, RefID: "fn_square"},
						"x":        {Kind: ir.RefLiteral, Literal: ir.LitFloat(5)},
					}, ExecOut: strPtr("store")},
					{ID: "store", Op: ir.OpBufferStore, Args: map[string]ir.ValueRef{
						"buffer": {Kind: ir.RefNode, RefID: "buf"},
						"index":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(0)},
						"value":  {Kind: ir.RefNode, RefID: "call"},
					}},
				},
			},
			{
				ID:      "fn_square",
				Tag:     ir.FunctionShader,
				Inputs:  []ir.FunctionIO{{Name: "x", Type: ir.Scalar{Kind: ir.ScalarFloat}}},
				Outputs: []ir.FunctionIO{{Name: "out", Type: ir.Scalar{Kind: ir.ScalarFloat}}},
				Nodes: []ir.Node{
					{ID: "mul", Op: ir.OpMathMul, Args: map[string]ir.ValueRef{
						"a": {Kind: ir.RefNode, RefID: "x"},
						"b": {Kind: ir.RefNode, RefID: "x"},
					}},
					{ID: "ret", Op: ir.OpFuncReturn, Args: map[string]ir.ValueRef{
						"val": {Kind: ir.RefNode, RefID: "mul"},
					}},
				},
			},
		},
	}
}

// recursiveCallDoc builds the §8 S5 cycle case: a calls b, b calls a.
func recursiveCallDoc() *ir.Document {
	return &ir.Document{
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
}

// readbackDoc builds the §8 S6 scenario: local res:float=0; kernel sets
// res=3.14.
func readbackDoc() *ir.Document {
	return &ir.Document{
		EntryPoint: "main",
		Functions: []ir.FunctionDef{
			{
				ID:  "main",
				Tag: ir.FunctionShader,
				LocalVars: []ir.LocalVar{
					{Name: "res", Type: ir.Scalar{Kind: ir.ScalarFloat}, Initial: ir.LitFloat(0)},
				},
				Nodes: []ir.Node{
					{ID: "set", Op: ir.OpVarSet, Args: map[string]ir.ValueRef{
						"name": {Kind: ir.RefNode, RefID: "res"},
						"val":  {Kind: ir.RefLiteral, Literal: ir.LitFloat(3.14)},
					}},
				},
			},
		},
	}
}

func strPtr(s string) *string { return &s }
