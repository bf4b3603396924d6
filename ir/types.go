package ir

import "fmt"

// DataType is the closed set of value types a node, input, local
// variable, or resource element can carry (spec.md §3.1). It mirrors
// the teacher's TypeInner closed-interface pattern (ir/ir.go in
// gogpu-naga): a marker method plus a small set of concrete structs
// consumers type-switch over.
type DataType interface {
	dataType()
	// String returns the canonical spelling used both in diagnostics
	// and as the MSL/identifier-safe type name fragment.
	String() string
}

// ScalarKind is the element kind of a Scalar or the lane kind of a
// Vector/Matrix.
type ScalarKind uint8

const (
	ScalarFloat ScalarKind = iota
	ScalarInt
	ScalarBool
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarFloat:
		return "float"
	case ScalarInt:
		return "int"
	case ScalarBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Scalar is a scalar DataType: float, int, or bool.
type Scalar struct {
	Kind ScalarKind
}

func (Scalar) dataType()        {}
func (s Scalar) String() string { return s.Kind.String() }

// Vector is a fixed-size vector DataType: float2|3|4 or int2|3|4.
// Boolean vectors never appear as a declarable DataType; they only
// occur as intermediate comparison results inside the generator.
type Vector struct {
	Size uint8 // 2, 3, or 4
	Kind ScalarKind
}

func (Vector) dataType() {}
func (v Vector) String() string {
	return fmt.Sprintf("%s%d", v.Kind.String(), v.Size)
}

// Matrix is a fixed-size square float matrix DataType: float3x3 or
// float4x4.
type Matrix struct {
	Size uint8 // 3 or 4
}

func (Matrix) dataType() {}
func (m Matrix) String() string {
	return fmt.Sprintf("float%dx%d", m.Size, m.Size)
}

// OpaqueKind identifies the flavor of an Opaque DataType.
type OpaqueKind uint8

const (
	OpaqueString OpaqueKind = iota
	OpaqueTexture2D
	OpaqueSampler
)

// Opaque is a host-only or GPU-opaque DataType: string, texture2d, or
// sampler. These never appear inside a flat buffer layout (abi
// package) except as resource bindings.
type Opaque struct {
	Kind OpaqueKind
}

func (Opaque) dataType() {}
func (o Opaque) String() string {
	switch o.Kind {
	case OpaqueString:
		return "string"
	case OpaqueTexture2D:
		return "texture2d"
	case OpaqueSampler:
		return "sampler"
	default:
		return "invalid"
	}
}

// StructRef names a StructDef by id. Resolving it to the actual
// StructDef (for member lookup or size accounting) always goes
// through a Document.
type StructRef struct {
	ID string
}

func (StructRef) dataType()     {}
func (s StructRef) String() string { return s.ID }

// Array is a fixed-length array<T, N> DataType.
type Array struct {
	Elem DataType
	Size int
}

func (Array) dataType() {}
func (a Array) String() string {
	return fmt.Sprintf("array<%s, %d>", a.Elem.String(), a.Size)
}

// DynamicArray is a runtime-sized T[] DataType. Legal only in
// input-position (a global input's declared type), never as a local
// variable or struct member type (spec.md §3.2 FunctionDef.localVars
// comment; §4.E marshalling notes).
type DynamicArray struct {
	Elem DataType
}

func (DynamicArray) dataType() {}
func (d DynamicArray) String() string {
	return d.Elem.String() + "[]"
}

// IsNumeric reports whether t is a scalar or vector of float or int
// (never bool, never matrix/opaque/composite).
func IsNumeric(t DataType) bool {
	switch v := t.(type) {
	case Scalar:
		return v.Kind == ScalarFloat || v.Kind == ScalarInt
	case Vector:
		return v.Kind == ScalarFloat || v.Kind == ScalarInt
	default:
		return false
	}
}

// IsFloatFamily reports whether t is float, floatN, or a float matrix.
func IsFloatFamily(t DataType) bool {
	switch v := t.(type) {
	case Scalar:
		return v.Kind == ScalarFloat
	case Vector:
		return v.Kind == ScalarFloat
	case Matrix:
		return true
	default:
		return false
	}
}

// IsIntFamily reports whether t is int or intN.
func IsIntFamily(t DataType) bool {
	switch v := t.(type) {
	case Scalar:
		return v.Kind == ScalarInt
	case Vector:
		return v.Kind == ScalarInt
	default:
		return false
	}
}

// VectorSize returns the lane count of t if it is a Vector, else 0.
func VectorSize(t DataType) int {
	if v, ok := t.(Vector); ok {
		return int(v.Size)
	}
	return 0
}

// SameShapeMixedFamily reports whether a and b are vectors of equal
// dimensionality where one is float-family and the other int-family,
// i.e. they are "the same shape" modulo int/float (the condition the
// strict binary override in §4.C.2 step 4 rejects).
func SameShapeMixedFamily(a, b DataType) bool {
	av, aok := a.(Vector)
	bv, bok := b.(Vector)
	if aok && bok {
		return av.Size == bv.Size && av.Kind != bv.Kind && (av.Kind == ScalarFloat || av.Kind == ScalarInt) && (bv.Kind == ScalarFloat || bv.Kind == ScalarInt)
	}
	return false
}

// TypesEqual reports structural equality of two DataTypes.
func TypesEqual(a, b DataType) bool {
	if a == nil || b == nil {
		return a == b
	}
	switch av := a.(type) {
	case Scalar:
		bv, ok := b.(Scalar)
		return ok && av.Kind == bv.Kind
	case Vector:
		bv, ok := b.(Vector)
		return ok && av.Kind == bv.Kind && av.Size == bv.Size
	case Matrix:
		bv, ok := b.(Matrix)
		return ok && av.Size == bv.Size
	case Opaque:
		bv, ok := b.(Opaque)
		return ok && av.Kind == bv.Kind
	case StructRef:
		bv, ok := b.(StructRef)
		return ok && av.ID == bv.ID
	case Array:
		bv, ok := b.(Array)
		return ok && av.Size == bv.Size && TypesEqual(av.Elem, bv.Elem)
	case DynamicArray:
		bv, ok := b.(DynamicArray)
		return ok && TypesEqual(av.Elem, bv.Elem)
	default:
		return false
	}
}

// TextureFormat is the closed enum of pixel formats resources may
// declare, with the bidirectional integer mapping spec.md §6.1 fixes
// for the runtime (host ABI) representation.
type TextureFormat uint8

const (
	FormatUnknown TextureFormat = iota
	FormatRGBA8
	FormatRGBA16F
	FormatRGBA32F
	FormatR8
	FormatR16F
	FormatR32F
)

var textureFormatNames = map[TextureFormat]string{
	FormatUnknown: "unknown",
	FormatRGBA8:   "rgba8",
	FormatRGBA16F: "rgba16f",
	FormatRGBA32F: "rgba32f",
	FormatR8:      "r8",
	FormatR16F:    "r16f",
	FormatR32F:    "r32f",
}

var textureFormatValues = func() map[string]TextureFormat {
	m := make(map[string]TextureFormat, len(textureFormatNames))
	for k, v := range textureFormatNames {
		m[v] = k
	}
	return m
}()

func (f TextureFormat) String() string { return textureFormatNames[f] }

// ParseTextureFormat resolves the wire-form string name to its
// TextureFormat, reporting ok=false for anything outside the closed
// enum.
func ParseTextureFormat(s string) (TextureFormat, bool) {
	f, ok := textureFormatValues[s]
	return f, ok
}

// FilterMode is a sampler's filtering mode (spec.md §4.C.1).
type FilterMode uint8

const (
	FilterNearest FilterMode = iota
	FilterLinear
)

// WrapMode is a sampler's addressing mode (spec.md §4.C.1).
type WrapMode uint8

const (
	WrapClamp WrapMode = iota
	WrapRepeat
	WrapMirror
)
