package msl

import (
	"fmt"

	"github.com/nattos/shadergraph/ir"
)

// typeName returns the MSL spelling of t. Struct names are resolved
// through the Writer's registered struct name so a struct's emitted
// `struct S_<id> { ... }` declaration and every use of it agree.
func (w *Writer) typeName(t ir.DataType) string {
	switch v := t.(type) {
	case ir.Scalar:
		switch v.Kind {
		case ir.ScalarFloat:
			return "float"
		case ir.ScalarInt:
			return "int"
		case ir.ScalarBool:
			return "bool"
		}
	case ir.Vector:
		base := "float"
		if v.Kind == ir.ScalarInt {
			base = "int"
		}
		return fmt.Sprintf("%s%d", base, v.Size)
	case ir.Matrix:
		return fmt.Sprintf("float%dx%d", v.Size, v.Size)
	case ir.Opaque:
		switch v.Kind {
		case ir.OpaqueTexture2D:
			return "texture2d<float>"
		case ir.OpaqueSampler:
			return "sampler"
		default:
			return "device void*"
		}
	case ir.StructRef:
		return w.structNames[v.ID]
	case ir.Array:
		return fmt.Sprintf("array<%s, %d>", w.typeName(v.Elem), v.Size)
	case ir.DynamicArray:
		return fmt.Sprintf("device %s*", w.typeName(v.Elem))
	}
	return "void"
}

// zeroLiteral returns the MSL spelling of t's default-constructed
// value, used for struct_construct's missing-member default
// (spec.md §4.D.5; call_func's missing-argument default is the
// literal 0.0f regardless of the declared type, handled separately).
func (w *Writer) zeroLiteral(t ir.DataType) string {
	switch t.(type) {
	case ir.Scalar, ir.Vector, ir.Matrix:
		return "{}"
	default:
		return fmt.Sprintf("%s{}", w.typeName(t))
	}
}
