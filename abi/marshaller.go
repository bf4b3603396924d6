// Package abi implements the Host ABI Marshaller (spec.md §4.E): flat
// float32 packing/unpacking between host-side Go values and the
// device-side globals buffer (b_globals) the MSL generator lays out.
// The marshaller never decides byte offsets itself — it is handed a
// varMap (id -> float offset) computed by msl.Layout and only does the
// value<->float-plane conversion, mirroring the separation of concerns
// spec.md §4.D.2/§4.E draws between layout and marshalling.
package abi

import (
	"fmt"

	"github.com/nattos/shadergraph/ir"
)

// FlatSize returns a DataType's footprint in 32-bit float lanes
// (spec.md §4.E getTypeFlatSize): scalar=1, vecN=N, mat3x3=9,
// mat4x4=16, struct=sum of member sizes, array<T,N>=N*size(T).
// DynamicArray has no fixed flat size; callers that need its
// on-the-wire footprint must add 1 (for the length prefix) to
// len*FlatSize(elem) themselves (see PackDynamic).
func FlatSize(doc *ir.Document, t ir.DataType) (int, error) {
	switch v := t.(type) {
	case ir.Scalar:
		return 1, nil
	case ir.Vector:
		return int(v.Size), nil
	case ir.Matrix:
		return int(v.Size) * int(v.Size), nil
	case ir.StructRef:
		sd, ok := doc.StructByID(v.ID)
		if !ok {
			return 0, fmt.Errorf("abi: unknown struct %q", v.ID)
		}
		total := 0
		for _, m := range sd.Members {
			n, err := FlatSize(doc, m.Type)
			if err != nil {
				return 0, err
			}
			total += n
		}
		return total, nil
	case ir.Array:
		elemSize, err := FlatSize(doc, v.Elem)
		if err != nil {
			return 0, err
		}
		return v.Size * elemSize, nil
	case ir.Opaque:
		return 0, fmt.Errorf("abi: opaque type %q has no flat size", v.String())
	case ir.DynamicArray:
		return 0, fmt.Errorf("abi: dynamic array has no fixed flat size; use PackDynamic/UnpackDynamic")
	default:
		return 0, fmt.Errorf("abi: unsupported type %T", t)
	}
}

// Pack flattens a host Go value (float64, bool, []float64, or
// map[string]any for a struct — the natural decoding of JSON into
// `any`) into buf starting at offset, per t's shape. It is the
// counterpart to Unpack and guarantees Unpack(Pack(v, t), t) == v for
// every representable v (spec.md §4.E, testable property 3).
func Pack(buf []float32, offset int, doc *ir.Document, t ir.DataType, v any) error {
	switch tv := t.(type) {
	case ir.Scalar:
		f, err := toFloat(v)
		if err != nil {
			return err
		}
		buf[offset] = float32(f)
		return nil
	case ir.Vector:
		vals, err := toFloatSlice(v)
		if err != nil {
			return err
		}
		if len(vals) != int(tv.Size) {
			return fmt.Errorf("abi: vector literal has %d components, want %d", len(vals), tv.Size)
		}
		for i, f := range vals {
			buf[offset+i] = float32(f)
		}
		return nil
	case ir.Matrix:
		vals, err := toFloatSlice(v)
		if err != nil {
			return err
		}
		n := int(tv.Size) * int(tv.Size)
		if len(vals) != n {
			return fmt.Errorf("abi: matrix literal has %d components, want %d", len(vals), n)
		}
		for i, f := range vals {
			buf[offset+i] = float32(f)
		}
		return nil
	case ir.StructRef:
		sd, ok := doc.StructByID(tv.ID)
		if !ok {
			return fmt.Errorf("abi: unknown struct %q", tv.ID)
		}
		m, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("abi: struct %q: expected map[string]any, got %T", tv.ID, v)
		}
		cur := offset
		for _, mem := range sd.Members {
			size, err := FlatSize(doc, mem.Type)
			if err != nil {
				return err
			}
			if err := Pack(buf, cur, doc, mem.Type, m[mem.Name]); err != nil {
				return fmt.Errorf("abi: struct %q.%s: %w", tv.ID, mem.Name, err)
			}
			cur += size
		}
		return nil
	case ir.Array:
		elems, ok := v.([]any)
		if !ok {
			return fmt.Errorf("abi: array: expected []any, got %T", v)
		}
		elemSize, err := FlatSize(doc, tv.Elem)
		if err != nil {
			return err
		}
		cur := offset
		for i := 0; i < tv.Size; i++ {
			var elem any
			if i < len(elems) {
				elem = elems[i]
			}
			if err := Pack(buf, cur, doc, tv.Elem, elem); err != nil {
				return fmt.Errorf("abi: array[%d]: %w", i, err)
			}
			cur += elemSize
		}
		return nil
	default:
		return fmt.Errorf("abi: cannot pack type %T", t)
	}
}

// Unpack reads a DataType back out of buf at offset into a native Go
// value: float64 for scalars, []float64 for vectors/matrices,
// map[string]any for structs, []any for arrays.
func Unpack(buf []float32, offset int, doc *ir.Document, t ir.DataType) (any, error) {
	switch tv := t.(type) {
	case ir.Scalar:
		return float64(buf[offset]), nil
	case ir.Vector:
		out := make([]float64, tv.Size)
		for i := range out {
			out[i] = float64(buf[offset+i])
		}
		return out, nil
	case ir.Matrix:
		n := int(tv.Size) * int(tv.Size)
		out := make([]float64, n)
		for i := range out {
			out[i] = float64(buf[offset+i])
		}
		return out, nil
	case ir.StructRef:
		sd, ok := doc.StructByID(tv.ID)
		if !ok {
			return nil, fmt.Errorf("abi: unknown struct %q", tv.ID)
		}
		out := map[string]any{}
		cur := offset
		for _, mem := range sd.Members {
			size, err := FlatSize(doc, mem.Type)
			if err != nil {
				return nil, err
			}
			v, err := Unpack(buf, cur, doc, mem.Type)
			if err != nil {
				return nil, err
			}
			out[mem.Name] = v
			cur += size
		}
		return out, nil
	case ir.Array:
		elemSize, err := FlatSize(doc, tv.Elem)
		if err != nil {
			return nil, err
		}
		out := make([]any, tv.Size)
		cur := offset
		for i := range out {
			v, err := Unpack(buf, cur, doc, tv.Elem)
			if err != nil {
				return nil, err
			}
			out[i] = v
			cur += elemSize
		}
		return out, nil
	default:
		return nil, fmt.Errorf("abi: cannot unpack type %T", t)
	}
}

// PackDynamic encodes a T[] input as [len, elem_0, elem_1, ...]
// (spec.md §4.E), writing 1+N*elemSize lanes starting at offset
// and returning the total lane count consumed.
func PackDynamic(buf []float32, offset int, doc *ir.Document, elem ir.DataType, values []any) (int, error) {
	elemSize, err := FlatSize(doc, elem)
	if err != nil {
		return 0, err
	}
	buf[offset] = float32(len(values))
	cur := offset + 1
	for i, v := range values {
		if err := Pack(buf, cur, doc, elem, v); err != nil {
			return 0, fmt.Errorf("abi: dynamic array[%d]: %w", i, err)
		}
		cur += elemSize
	}
	return 1 + len(values)*elemSize, nil
}

// UnpackDynamic is PackDynamic's inverse.
func UnpackDynamic(buf []float32, offset int, doc *ir.Document, elem ir.DataType) ([]any, error) {
	n := int(buf[offset])
	elemSize, err := FlatSize(doc, elem)
	if err != nil {
		return nil, err
	}
	out := make([]any, n)
	cur := offset + 1
	for i := 0; i < n; i++ {
		v, err := Unpack(buf, cur, doc, elem)
		if err != nil {
			return nil, err
		}
		out[i] = v
		cur += elemSize
	}
	return out, nil
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("abi: cannot convert %T to float", v)
	}
}

func toFloatSlice(v any) ([]float64, error) {
	switch x := v.(type) {
	case []float64:
		return x, nil
	case []any:
		out := make([]float64, len(x))
		for i, e := range x {
			f, err := toFloat(e)
			if err != nil {
				return nil, err
			}
			out[i] = f
		}
		return out, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("abi: cannot convert %T to []float64", v)
	}
}
