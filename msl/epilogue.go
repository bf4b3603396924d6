package msl

import (
	"fmt"

	"github.com/nattos/shadergraph/ir"
)

// writeLocalsEpilogue writes every local variable with a mapped
// globals-buffer offset back to b_globals (spec.md §4.D.6). Array
// locals are skipped — they aren't blittable through the flat float
// plane the marshaller assumes.
func (w *Writer) writeLocalsEpilogue(fn *ir.FunctionDef) {
	for _, lv := range fn.LocalVars {
		offset, ok := w.layout.varMap[lv.Name]
		if !ok {
			continue
		}
		name := w.localVarName(fn, lv.Name)
		switch t := lv.Type.(type) {
		case ir.Scalar:
			w.writef("b_globals[%d] = %s;", offset, floatCast(t, name))
		case ir.Vector:
			for i := 0; i < int(t.Size); i++ {
				w.writef("b_globals[%d] = %s;", offset+i, floatCastLane(t, name, i))
			}
		case ir.Matrix:
			n := int(t.Size)
			for col := 0; col < n; col++ {
				for row := 0; row < n; row++ {
					w.writef("b_globals[%d] = %s[%d][%d];", offset+col*n+row, name, col, row)
				}
			}
		default:
			// Array/StructRef/DynamicArray locals are not blittable
			// through the flat float plane and are skipped.
		}
	}
}

func floatCast(t ir.Scalar, expr string) string {
	if t.Kind == ir.ScalarBool {
		return fmt.Sprintf("(%s ? 1.0 : 0.0)", expr)
	}
	return fmt.Sprintf("float(%s)", expr)
}

func floatCastLane(t ir.Vector, expr string, i int) string {
	lane := fmt.Sprintf("%s.%c", expr, "xyzw"[i])
	if t.Kind == ir.ScalarInt {
		return fmt.Sprintf("float(%s)", lane)
	}
	return lane
}
