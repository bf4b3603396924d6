package msl

import (
	"fmt"
	"strings"

	"github.com/nattos/shadergraph/abi"
	"github.com/nattos/shadergraph/ir"
)

// writeEntryPoint emits the entry point as either a compute kernel or
// a vertex/fragment stage function (spec.md §4.D.3), depending on
// resolveStage(w.doc).
func (w *Writer) writeEntryPoint(fn *ir.FunctionDef) error {
	switch resolveStage(w.doc) {
	case stageVertex:
		return w.writeStageFunction(fn, "vertex")
	case stageFragment:
		return w.writeStageFunction(fn, "fragment")
	default:
		return w.writeKernel(fn)
	}
}

func (w *Writer) writeKernel(fn *ir.FunctionDef) error {
	params := []string{"device float* b_globals [[buffer(0)]]"}
	for _, in := range w.doc.Inputs {
		if b, ok := w.layout.resourceBindings[in.ID]; ok {
			params = append(params, fmt.Sprintf("%s %s [[texture(%d)]]", w.typeName(in.Type), w.sanitizeId(in.ID), b))
		}
	}
	for _, r := range w.doc.Resources {
		if _, already := w.layout.resourceBindings[r.ID]; !already {
			continue
		}
		switch r.Kind {
		case ir.ResourceTexture2D:
			access := "sample, read"
			if w.resourceIsWritten(r.ID) {
				access = "read_write"
			}
			params = append(params, fmt.Sprintf("texture2d<float, access::%s> %s [[texture(%d)]]", access, w.sanitizeId(r.ID), w.layout.resourceBindings[r.ID]))
		case ir.ResourceBuffer, ir.ResourceAtomicCounter:
			params = append(params, fmt.Sprintf("device %s* %s [[buffer(%d)]]", w.typeName(elemOrInt(r)), w.sanitizeId(r.ID), w.layout.resourceBindings[r.ID]))
		}
	}
	params = append(params, "uint3 gid [[thread_position_in_grid]]")
	if w.needsTPG {
		params = append(params, "uint3 tpg [[threads_per_grid]]")
	}

	w.writef("kernel void %s(", w.sanitizeId(fn.ID))
	w.pushIndent()
	for i, p := range params {
		suffix := ","
		if i == len(params)-1 {
			suffix = ") {"
		}
		w.writef("%s%s", p, suffix)
	}
	w.pushIndent()
	w.writeKernelPreamble(fn)
	if err := w.writeFunctionBody(fn); err != nil {
		return err
	}
	w.popIndent()
	w.popIndent()
	w.writeLine("}")
	return nil
}

func elemOrInt(r ir.ResourceDef) ir.DataType {
	if r.DataType != nil {
		return r.DataType
	}
	return ir.Scalar{Kind: ir.ScalarInt}
}

func (w *Writer) resourceIsWritten(id string) bool {
	for _, fn := range w.reach {
		for _, n := range fn.Nodes {
			if n.Op != ir.OpTextureStore {
				continue
			}
			if ref, ok := n.Args["texture"]; ok && ref.RefID == id {
				return true
			}
		}
	}
	return false
}

// writeKernelPreamble unpacks globals and builtins into typed locals
// before the linearized body runs (spec.md §4.D.3).
func (w *Writer) writeKernelPreamble(fn *ir.FunctionDef) {
	w.writeLine("device float* inputs = b_globals;")
	for _, in := range w.doc.Inputs {
		if _, isTex := in.Type.(ir.Opaque); isTex {
			continue
		}
		offset := w.layout.varMap[in.ID]
		w.writef("%s %s = %s;", w.typeName(in.Type), w.sanitizeId(in.ID), w.unpackExpr(in.Type, offset))
	}
	if w.needsOutputSize {
		off := w.layout.varMap["output_size"]
		w.writef("int3 v_output_size = int3(int(inputs[%d]), int(inputs[%d]), int(inputs[%d]));", off, off+1, off+2)
	}
	for id := range w.layout.usedResourceSizes {
		if res, ok := w.doc.ResourceByID(id); ok && res.Kind != ir.ResourceTexture2D {
			off := w.layout.varMap[id]
			w.writef("float2 v_res_size_%s = float2(inputs[%d], inputs[%d]);", w.sanitizeId(id), off, off+1)
		}
	}
}

// unpackExpr formats the flat-buffer unpack expression for a scalar,
// vector, or matrix global input starting at offset; struct and
// fixed-array inputs recurse member-by-member.
func (w *Writer) unpackExpr(t ir.DataType, offset int) string {
	switch v := t.(type) {
	case ir.Scalar:
		if v.Kind == ir.ScalarBool {
			return fmt.Sprintf("(inputs[%d] != 0.0)", offset)
		}
		if v.Kind == ir.ScalarInt {
			return fmt.Sprintf("int(inputs[%d])", offset)
		}
		return fmt.Sprintf("inputs[%d]", offset)
	case ir.Vector:
		lanes := make([]string, v.Size)
		for i := range lanes {
			if v.Kind == ir.ScalarInt {
				lanes[i] = fmt.Sprintf("int(inputs[%d])", offset+i)
			} else {
				lanes[i] = fmt.Sprintf("inputs[%d]", offset+i)
			}
		}
		return fmt.Sprintf("%s(%s)", w.typeName(t), strings.Join(lanes, ", "))
	case ir.Matrix:
		n := int(v.Size)
		cols := make([]string, n)
		for col := 0; col < n; col++ {
			lanes := make([]string, n)
			for row := 0; row < n; row++ {
				lanes[row] = fmt.Sprintf("inputs[%d]", offset+col*n+row)
			}
			cols[col] = fmt.Sprintf("float%d(%s)", n, strings.Join(lanes, ", "))
		}
		return fmt.Sprintf("%s(%s)", w.typeName(t), strings.Join(cols, ", "))
	case ir.StructRef:
		sd, ok := w.doc.StructByID(v.ID)
		if !ok {
			return fmt.Sprintf("/* unresolved struct %s */ {}", v.ID)
		}
		members := make([]string, len(sd.Members))
		memberOffset := offset
		for i, m := range sd.Members {
			members[i] = w.unpackExpr(m.Type, memberOffset)
			n, err := abi.FlatSize(w.doc, m.Type)
			if err != nil {
				n = 0
			}
			memberOffset += n
		}
		return fmt.Sprintf("%s{%s}", w.typeName(t), strings.Join(members, ", "))
	case ir.Array:
		elemSize, err := abi.FlatSize(w.doc, v.Elem)
		if err != nil {
			elemSize = 0
		}
		elems := make([]string, v.Size)
		for i := range elems {
			elems[i] = w.unpackExpr(v.Elem, offset+i*elemSize)
		}
		return fmt.Sprintf("%s{%s}", w.typeName(t), strings.Join(elems, ", "))
	default:
		return fmt.Sprintf("/* unsupported global input type %s */ {}", t.String())
	}
}

// writeStageFunction emits the entry as a vertex or fragment Metal
// function. Vertex receives a bare vertex id; fragment receives the
// vertex stage's output struct as [[stage_in]] — this backend
// conservatively names that struct the entry's single declared
// output struct, since a single-entryPoint Document (§3.2) cannot
// itself distinguish a paired VS/FS the way a multi-entry-point
// shader module would.
func (w *Writer) writeStageFunction(fn *ir.FunctionDef, kind string) error {
	retType := "void"
	if len(fn.Outputs) > 0 {
		retType = w.typeName(fn.Outputs[0].Type)
	}
	var params []string
	if kind == "vertex" {
		params = append(params, "uint vid [[vertex_id]]")
	} else {
		params = append(params, fmt.Sprintf("%s in [[stage_in]]", retTypeOrVoid(retType)))
	}
	if w.layout.globalBufferSize > 0 {
		params = append(params, "constant float* inputs [[buffer(0)]]")
	}
	access := "const device"
	if kind != "vertex" {
		access = "device"
	}
	binding := 1
	for _, r := range w.doc.Resources {
		b, ok := w.layout.resourceBindings[r.ID]
		if !ok {
			continue
		}
		binding = b
		switch r.Kind {
		case ir.ResourceTexture2D:
			params = append(params, fmt.Sprintf("texture2d<float> %s [[texture(%d)]]", w.sanitizeId(r.ID), binding))
		default:
			params = append(params, fmt.Sprintf("%s %s* %s [[buffer(%d)]]", access, w.typeName(elemOrInt(r)), w.sanitizeId(r.ID), binding))
		}
	}

	w.writef("%s %s %s(%s) {", kind, retType, w.sanitizeId(fn.ID), strings.Join(params, ", "))
	w.pushIndent()
	if err := w.writeFunctionBody(fn); err != nil {
		return err
	}
	w.popIndent()
	w.writeLine("}")
	return nil
}

func retTypeOrVoid(t string) string {
	if t == "void" {
		return "void*"
	}
	return t
}
