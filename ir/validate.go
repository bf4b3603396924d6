package ir

import (
	"fmt"
	"strings"
)

// validate.go is Component C.1 + orchestration (spec.md §4.C.1,
// §4.C.3): structural checks that don't require type inference, wired
// together with schema.go/edges.go/infer.go behind the single
// Validate entry point.

// Validate runs every structural check and the full type-inference
// pass over doc, returning every diagnostic found. It never panics or
// stops early: validation is a pure function from Document to a
// Diagnostic list (spec.md §7).
func Validate(doc *Document) []Diagnostic {
	v := &validator{doc: doc}
	v.checkStructs()
	v.checkResources()
	v.checkGlobalInputs()
	v.checkEntryPoint()

	for i := range doc.Functions {
		fn := &doc.Functions[i]
		v.checkFunctionShape(fn)
		res, diags := AnalyzeFunction(doc, fn)
		v.diags = append(v.diags, diags...)
		v.checkFunctionNodes(fn, res)
	}
	v.checkDrawTargetAliasing()

	return v.diags
}

type validator struct {
	doc   *Document
	diags []Diagnostic
}

func (v *validator) err(fnID, nodeID string, cat Category, format string, args ...any) {
	v.diags = append(v.diags, errorf(fnID, nodeID, cat, format, args...))
}

func (v *validator) checkEntryPoint() {
	if v.doc.EntryPoint == "" {
		v.err("", "", CategoryStructural, "document has no entryPoint")
		return
	}
	if _, ok := v.doc.FunctionByID(v.doc.EntryPoint); !ok {
		v.err("", "", CategoryReference, "entryPoint %q does not name a function", v.doc.EntryPoint)
	}
}

func (v *validator) checkResources() {
	for _, r := range v.doc.Resources {
		switch r.Kind {
		case ResourceBuffer:
			if r.DataType == nil {
				v.err("", "", CategorySchema, "buffer %q: missing dataType", r.ID)
			}
		case ResourceAtomicCounter:
			if s, ok := r.DataType.(Scalar); !ok || s.Kind != ScalarInt {
				v.err("", "", CategoryType, "atomic_counter %q: dataType must be int", r.ID)
			}
		case ResourceTexture2D:
			if r.Format == FormatUnknown {
				v.err("", "", CategorySchema, "texture %q: unrecognized format", r.ID)
			}
		}
		switch r.Size.Mode {
		case SizeReference:
			if _, ok := v.doc.ResourceByID(r.Size.Ref); !ok {
				v.err("", "", CategoryReference, "resource %q: size.ref %q does not exist", r.ID, r.Size.Ref)
			}
		}
	}
}

func (v *validator) checkGlobalInputs() {
	for _, in := range v.doc.Inputs {
		if err := v.resolveTypeRefs(in.Type); err != nil {
			v.err("", "", CategoryReference, "input %q: %v", in.ID, err)
		}
		if in.Default == nil {
			continue
		}
		if !defaultCompatible(in.Type, in.Default) {
			v.err("", "", CategoryType, "input %q: default value is not compatible with declared type %q", in.ID, in.Type.String())
		}
	}
}

func defaultCompatible(t DataType, lit LiteralValue) bool {
	switch tv := t.(type) {
	case Scalar:
		switch lit.(type) {
		case LitFloat, LitBool:
			return true
		default:
			return false
		}
	case Vector:
		lv, ok := lit.(LitVector)
		return ok && len(lv) == int(tv.Size)
	case Matrix:
		lv, ok := lit.(LitVector)
		return ok && len(lv) == int(tv.Size)*int(tv.Size)
	case Opaque:
		_, ok := lit.(LitString)
		return ok || tv.Kind != OpaqueString
	default:
		return true
	}
}

// resolveTypeRefs walks a DataType and checks that any embedded
// StructRef resolves.
func (v *validator) resolveTypeRefs(t DataType) error {
	switch x := t.(type) {
	case StructRef:
		if _, ok := v.doc.StructByID(x.ID); !ok {
			return fmt.Errorf("unknown struct %q", x.ID)
		}
	case Array:
		return v.resolveTypeRefs(x.Elem)
	case DynamicArray:
		return v.resolveTypeRefs(x.Elem)
	}
	return nil
}

// checkStructs verifies every member type resolves and the struct
// dependency graph is acyclic (spec.md §3.1, §4.C.1).
func (v *validator) checkStructs() {
	for _, s := range v.doc.Structs {
		for _, m := range s.Members {
			if err := v.resolveTypeRefs(m.Type); err != nil {
				v.err("", "", CategoryReference, "struct %q member %q: %v", s.ID, m.Name, err)
			}
		}
	}

	state := map[string]int{} // 0=unvisited 1=on-stack 2=done
	var stack []string
	var visit func(id string) bool
	visit = func(id string) bool {
		if state[id] == 2 {
			return false
		}
		if state[id] == 1 {
			cyclePath := append(append([]string{}, stack...), id)
			v.err("", "", CategoryStructural, "Recursive struct definition detected: %s", strings.Join(cyclePath, " -> "))
			return true
		}
		state[id] = 1
		stack = append(stack, id)
		sd, ok := v.doc.StructByID(id)
		if ok {
			for _, m := range sd.Members {
				if ref, ok := m.Type.(StructRef); ok {
					if visit(ref.ID) {
						stack = stack[:len(stack)-1]
						state[id] = 2
						return true
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = 2
		return false
	}
	for _, s := range v.doc.Structs {
		if state[s.ID] == 0 {
			visit(s.ID)
		}
	}
}

// checkFunctionShape validates IO/local types resolve and cpu-only
// constraints hold (spec.md §4.C.1).
func (v *validator) checkFunctionShape(fn *FunctionDef) {
	for _, io := range fn.Inputs {
		if err := v.resolveTypeRefs(io.Type); err != nil {
			v.err(fn.ID, "", CategoryReference, "input %q: %v", io.Name, err)
		}
		if _, ok := io.Type.(DynamicArray); ok {
			v.err(fn.ID, "", CategorySchema, "function input %q: dynamic arrays are input-position-only at document scope", io.Name)
		}
	}
	for _, io := range fn.Outputs {
		if err := v.resolveTypeRefs(io.Type); err != nil {
			v.err(fn.ID, "", CategoryReference, "output %q: %v", io.Name, err)
		}
	}
	for _, lv := range fn.LocalVars {
		if err := v.resolveTypeRefs(lv.Type); err != nil {
			v.err(fn.ID, "", CategoryReference, "local %q: %v", lv.Name, err)
		}
		if _, ok := lv.Type.(DynamicArray); ok {
			v.err(fn.ID, "", CategorySchema, "local %q: dynamic arrays are not legal as a local variable type", lv.Name)
		}
	}
}

// checkFunctionNodes runs the remaining per-node structural checks
// that need the already-computed inference result (spec.md §4.C.1).
func (v *validator) checkFunctionNodes(fn *FunctionDef, res *InferenceResult) {
	locals := map[string]bool{}
	for _, lv := range fn.LocalVars {
		locals[lv.Name] = true
	}
	inputs := map[string]bool{}
	for _, io := range fn.Inputs {
		inputs[io.Name] = true
	}
	globals := map[string]bool{}
	for _, gi := range v.doc.Inputs {
		globals[gi.ID] = true
	}

	for _, n := range fn.Nodes {
		if strings.Contains(n.ID, ".") {
			v.err(fn.ID, n.ID, CategoryStructural, "node id contains '.'")
		}

		schema, ok := Schema[n.Op]
		if !ok {
			continue // already reported by infer.go as CategorySchema
		}

		if fn.Tag == FunctionCPU && schema.CPUOnly == false && n.Op == OpBuiltinGet {
			name, _ := n.Literal["name"].(string)
			if !BuiltinCPUAllowed[name] {
				v.err(fn.ID, n.ID, CategoryStructural, "cpu function may not use builtin %q", name)
			}
		}
		if fn.Tag == FunctionShader && schema.CPUOnly {
			v.err(fn.ID, n.ID, CategoryStructural, "op %q is cpuOnly and may not appear in a shader function", n.Op)
		}

		switch n.Op {
		case OpVarGet, OpVarSet:
			argName := "name"
			ref, ok := n.Args[argName]
			if ok && ref.Kind == RefNode {
				if !locals[ref.RefID] && !inputs[ref.RefID] && !globals[ref.RefID] {
					v.err(fn.ID, n.ID, CategoryReference, "%q does not name a local, input, or global variable", ref.RefID)
				}
			}
		}

		if schema.PrimaryResource != "" {
			if ref, ok := n.Args[schema.PrimaryResource]; ok && ref.Kind == RefNode {
				res, exists := v.doc.ResourceByID(ref.RefID)
				if !exists {
					v.err(fn.ID, n.ID, CategoryReference, "unknown resource %q", ref.RefID)
				} else {
					v.checkAtomicTarget(fn, n, res)
					v.checkStaticOOB(fn, n, res)
				}
			}
		}

		if n.Op == OpBufferStore || n.Op == OpBufferLoad {
			v.checkBufferTypeMatch(fn, n, res)
		}
	}
}

func (v *validator) checkAtomicTarget(fn *FunctionDef, n Node, res *ResourceDef) {
	switch n.Op {
	case OpAtomicLoad, OpAtomicStore, OpAtomicAdd, OpAtomicSub, OpAtomicMin, OpAtomicMax, OpAtomicExchange:
		if res.Kind != ResourceAtomicCounter {
			v.err(fn.ID, n.ID, CategoryStructural, "atomic op target %q is not an atomic_counter", res.ID)
		}
	}
}

// checkStaticOOB implements spec.md §4.C.1's bounds check and the S3
// scenario: a compile-time-integer index into a fixed-size resource
// that is negative or >= the resource's element count is an error.
func (v *validator) checkStaticOOB(fn *FunctionDef, n Node, res *ResourceDef) {
	if res.Size.Mode != SizeFixed {
		return
	}
	indexArg, ok := n.Args["index"]
	if !ok || indexArg.Kind != RefLiteral {
		return
	}
	f, ok := indexArg.Literal.(LitFloat)
	if !ok {
		return
	}
	idx := int(f)
	limit := res.Size.Count
	if idx < 0 || idx >= limit {
		v.err(fn.ID, n.ID, CategoryBounds, "Static OOB: index %d out of range for resource %q (size %d)", idx, res.ID, limit)
	}
}

// checkBufferTypeMatch implements spec.md S4: storing a value whose
// inferred type doesn't match the buffer's declared element type is an
// error. Loads are not checked here.
func (v *validator) checkBufferTypeMatch(fn *FunctionDef, n Node, res *InferenceResult) {
	schema := Schema[n.Op]
	ref, ok := n.Args[schema.PrimaryResource]
	if !ok || ref.Kind != RefNode {
		return
	}
	bufRes, ok := v.doc.ResourceByID(ref.RefID)
	if !ok || bufRes.Kind != ResourceBuffer || bufRes.DataType == nil {
		return
	}
	if n.Op == OpBufferStore {
		valArg, ok := n.Args["value"]
		if !ok {
			return
		}
		var valType DataType
		if valArg.Kind == RefNode {
			valType = res.Types[valArg.RefID]
		} else {
			valType = literalType(valArg.Literal)
		}
		if valType == nil || isAny(valType) {
			return
		}
		if !TypesEqual(valType, bufRes.DataType) {
			v.err(fn.ID, n.ID, CategoryType, "Buffer '%s' expects '%s', got '%s'", bufRes.ID, bufRes.DataType.String(), valType.String())
		}
	}
}

// checkDrawTargetAliasing implements spec.md §4.C.1: a cmd_draw's
// render target cannot be read (as a texture/buffer/resource-size) by
// the vertex/fragment functions it invokes, transitively through
// call_func.
func (v *validator) checkDrawTargetAliasing() {
	readSets := map[string]map[string]bool{} // functionID -> resource ids read
	var collect func(fnID string, visiting map[string]bool) map[string]bool
	collect = func(fnID string, visiting map[string]bool) map[string]bool {
		if r, ok := readSets[fnID]; ok {
			return r
		}
		if visiting[fnID] {
			return map[string]bool{}
		}
		visiting[fnID] = true
		reads := map[string]bool{}
		fn, ok := v.doc.FunctionByID(fnID)
		if !ok {
			return reads
		}
		for _, n := range fn.Nodes {
			switch n.Op {
			case OpTextureSample, OpTextureLoad, OpBufferLoad, OpResourceGetSize, OpResourceGetFormat:
				schema := Schema[n.Op]
				if ref, ok := n.Args[schema.PrimaryResource]; ok && ref.Kind == RefNode {
					reads[ref.RefID] = true
				}
			case OpCallFunc:
				if ref, ok := n.Args["function"]; ok && ref.Kind == RefNode {
					for r := range collect(ref.RefID, visiting) {
						reads[r] = true
					}
				}
			}
		}
		readSets[fnID] = reads
		return reads
	}

	for _, fn := range v.doc.Functions {
		for _, n := range fn.Nodes {
			if n.Op != OpCmdDraw {
				continue
			}
			targetRef, ok := n.Args["target"]
			if !ok || targetRef.Kind != RefNode {
				continue
			}
			pipeline, _ := n.Literal["pipeline"].(map[string]any)
			for _, key := range []string{"vertex", "fragment"} {
				fnID, ok := pipeline[key].(string)
				if !ok || fnID == "" {
					continue
				}
				reads := collect(fnID, map[string]bool{})
				if reads[targetRef.RefID] {
					v.err(fn.ID, n.ID, CategoryStructural,
						"cmd_draw render target %q is read by %q function %q; use output_size instead",
						targetRef.RefID, key, fnID)
				}
			}
		}
	}
}
