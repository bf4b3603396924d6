package ir

// infer.go is Component C.2 (spec.md §4.C.2): per-function bidirectional
// type inference with a two-pass overload matcher, a strict override
// for mixed-family vector math, and the output-type special cases the
// spec calls out by opcode.

// AnyType is the cycle-breaking sentinel: it is installed in a
// function's type cache before a node's dependencies are resolved, so
// a self-referential cache hit during a later step's recursion never
// infinite-loops; it is always overwritten once the real type is
// known (spec.md §4.C.2: "insert any as a sentinel before descending,
// then overwrite").
type AnyType struct{}

func (AnyType) dataType()     {}
func (AnyType) String() string { return "any" }

func isAny(t DataType) bool {
	_, ok := t.(AnyType)
	return ok
}

// strictBinaryOps is the set of binary math/comparison opcodes for
// which mixed int/float vector operands are rejected even though the
// pass-2 coercion lattice would otherwise accept them (spec.md
// §4.C.2 step 4).
var strictBinaryOps = map[OpCode]bool{
	OpMathAdd: true, OpMathSub: true, OpMathMul: true, OpMathDiv: true,
	OpMathMod: true, OpMathPow: true, OpMathMin: true, OpMathMax: true,
	OpMathAtan2: true,
	OpMathGt:    true, OpMathLt: true, OpMathGe: true, OpMathLe: true,
	OpMathEq: true, OpMathNeq: true,
}

// InferenceResult is analyzeFunction's product (spec.md §4.C.3).
type InferenceResult struct {
	Types             map[string]DataType
	UsedBuiltins      map[string]bool
	UsedResourceSizes map[string]bool
}

type inferrer struct {
	doc   *Document
	fn    *FunctionDef
	cache map[string]DataType
	diags *[]Diagnostic

	nodesByID   map[string]*Node
	locals      map[string]*LocalVar
	fnInputs    map[string]*FunctionIO
	globalInput map[string]*GlobalInput
	resources   map[string]*ResourceDef

	usedBuiltins      map[string]bool
	usedResourceSizes map[string]bool
}

// AnalyzeFunction runs type inference over every node of fn, returning
// the per-node type cache plus the builtin/resource-size usage sets
// the Marshaller and generator preamble need (spec.md §4.C.2, §4.C.3).
func AnalyzeFunction(doc *Document, fn *FunctionDef) (*InferenceResult, []Diagnostic) {
	inf := &inferrer{
		doc:               doc,
		fn:                fn,
		cache:             map[string]DataType{},
		nodesByID:         map[string]*Node{},
		locals:            map[string]*LocalVar{},
		fnInputs:          map[string]*FunctionIO{},
		globalInput:       map[string]*GlobalInput{},
		resources:         map[string]*ResourceDef{},
		usedBuiltins:      map[string]bool{},
		usedResourceSizes: map[string]bool{},
	}
	var diags []Diagnostic
	inf.diags = &diags

	for i := range fn.Nodes {
		inf.nodesByID[fn.Nodes[i].ID] = &fn.Nodes[i]
	}
	for i := range fn.LocalVars {
		inf.locals[fn.LocalVars[i].Name] = &fn.LocalVars[i]
	}
	for i := range fn.Inputs {
		inf.fnInputs[fn.Inputs[i].Name] = &fn.Inputs[i]
	}
	for i := range doc.Inputs {
		inf.globalInput[doc.Inputs[i].ID] = &doc.Inputs[i]
	}
	for i := range doc.Resources {
		inf.resources[doc.Resources[i].ID] = &doc.Resources[i]
	}

	for _, n := range fn.Nodes {
		inf.resolve(n.ID)
	}

	return &InferenceResult{
		Types:             inf.cache,
		UsedBuiltins:      inf.usedBuiltins,
		UsedResourceSizes: inf.usedResourceSizes,
	}, diags
}

func (inf *inferrer) err(nodeID string, cat Category, format string, args ...any) {
	*inf.diags = append(*inf.diags, errorf(inf.fn.ID, nodeID, cat, format, args...))
}

// resolve returns node id's inferred type, memoized in inf.cache.
func (inf *inferrer) resolve(nodeID string) DataType {
	if t, ok := inf.cache[nodeID]; ok {
		return t
	}
	node, ok := inf.nodesByID[nodeID]
	if !ok {
		return AnyType{}
	}
	inf.cache[nodeID] = AnyType{}
	t := inf.computeNodeType(node)
	inf.cache[nodeID] = t
	return t
}

// resolveRef resolves one ValueRef to a DataType: a node reference
// recurses into resolve(); a local/input/global reference returns its
// declared type; a resource reference returns the resource's element
// or opaque type; a literal resolves by shape. Swizzle is applied last.
func (inf *inferrer) resolveRef(nodeID string, ref ValueRef) DataType {
	var base DataType
	switch ref.Kind {
	case RefLiteral:
		base = literalType(ref.Literal)
	case RefNode:
		if _, ok := inf.nodesByID[ref.RefID]; ok {
			base = inf.resolve(ref.RefID)
		} else if lv, ok := inf.locals[ref.RefID]; ok {
			base = lv.Type
		} else if io, ok := inf.fnInputs[ref.RefID]; ok {
			base = io.Type
		} else if gi, ok := inf.globalInput[ref.RefID]; ok {
			base = gi.Type
		} else if res, ok := inf.resources[ref.RefID]; ok {
			base = resourceElementType(res)
		} else {
			// May legitimately name a function, not a typed value
			// (call_func.function, cmd_dispatch.function, flow_loop's
			// own id via loop_index.loop): the structural validator
			// checks existence; inference has nothing further to say.
			return AnyType{}
		}
	default:
		return AnyType{}
	}
	if ref.Swizzle != "" {
		return inf.resolveSwizzle(nodeID, base, ref.Swizzle)
	}
	return base
}

func resourceElementType(res *ResourceDef) DataType {
	switch res.Kind {
	case ResourceTexture2D:
		return Opaque{Kind: OpaqueTexture2D}
	case ResourceAtomicCounter:
		return Scalar{Kind: ScalarInt}
	default:
		if res.DataType != nil {
			return res.DataType
		}
		return Scalar{Kind: ScalarFloat}
	}
}

func literalType(lit LiteralValue) DataType {
	switch v := lit.(type) {
	case LitFloat:
		return Scalar{Kind: ScalarFloat}
	case LitBool:
		return Scalar{Kind: ScalarBool}
	case LitString:
		return Opaque{Kind: OpaqueString}
	case LitVector:
		return vectorLiteralType(len(v))
	default:
		return AnyType{}
	}
}

func vectorLiteralType(n int) DataType {
	switch n {
	case 1:
		return Scalar{Kind: ScalarFloat}
	case 2:
		return Vector{Size: 2, Kind: ScalarFloat}
	case 3:
		return Vector{Size: 3, Kind: ScalarFloat}
	case 4:
		return Vector{Size: 4, Kind: ScalarFloat}
	case 9:
		return Matrix{Size: 3}
	case 16:
		return Matrix{Size: 4}
	default:
		return Array{Elem: Scalar{Kind: ScalarFloat}, Size: n}
	}
}

// swizzleIndex maps a single channel letter to its lane index; xyzw
// and rgba are interchangeable spellings (spec.md §3.3).
func swizzleIndex(c byte) (int, bool) {
	switch c {
	case 'x', 'r':
		return 0, true
	case 'y', 'g':
		return 1, true
	case 'z', 'b':
		return 2, true
	case 'w', 'a':
		return 3, true
	default:
		return 0, false
	}
}

// resolveSwizzle implements §8 property 6 / testable scenario S1:
// the result has length == len(mask) (scalar if 1), base family
// matching the source vector, and out-of-range components are
// rejected with a diagnostic.
func (inf *inferrer) resolveSwizzle(nodeID string, base DataType, mask string) DataType {
	v, ok := base.(Vector)
	if !ok {
		inf.err(nodeID, CategoryType, "cannot swizzle non-vector type %q", base.String())
		return AnyType{}
	}
	for i := 0; i < len(mask); i++ {
		idx, valid := swizzleIndex(mask[i])
		if !valid {
			inf.err(nodeID, CategoryType, "Invalid swizzle component %q", string(mask[i]))
			return AnyType{}
		}
		if idx >= int(v.Size) {
			inf.err(nodeID, CategoryType, "swizzle component %q out of range for %s", string(mask[i]), v.String())
			return AnyType{}
		}
	}
	if len(mask) == 1 {
		return Scalar{Kind: v.Kind}
	}
	return Vector{Size: uint8(len(mask)), Kind: v.Kind}
}

// --- overload matching ------------------------------------------------

func typeMatches(provided DataType, want SigType, pass int) bool {
	switch want.Kind {
	case SigAny:
		return true
	case SigProtocolStruct:
		_, ok := provided.(StructRef)
		return ok
	case SigProtocolArray:
		switch provided.(type) {
		case Array, DynamicArray:
			return true
		default:
			return false
		}
	}
	wc := want.Concrete
	if TypesEqual(provided, wc) {
		return true
	}
	if isAny(provided) {
		return true
	}
	if pass >= 1 {
		if ps, ok := provided.(Scalar); ok {
			if wsc, ok2 := wc.(Scalar); ok2 {
				if (ps.Kind == ScalarInt && wsc.Kind == ScalarFloat) || (ps.Kind == ScalarFloat && wsc.Kind == ScalarInt) {
					return true
				}
			}
		}
	}
	if pass >= 2 {
		if pv, ok := provided.(Vector); ok {
			if wv, ok2 := wc.(Vector); ok2 {
				if pv.Size == wv.Size && pv.Kind != wv.Kind &&
					(pv.Kind == ScalarInt || pv.Kind == ScalarFloat) &&
					(wv.Kind == ScalarInt || wv.Kind == ScalarFloat) {
					return true
				}
			}
		}
	}
	return false
}

// matchSignature finds the first signature whose Inputs exactly match
// provided's key set with pass-appropriate coercion (spec.md §4.C.2
// step 3).
func matchSignature(sigs []Signature, provided map[string]DataType, pass int) (Signature, bool) {
	for _, sig := range sigs {
		if len(sig.Inputs) != len(provided) {
			continue
		}
		ok := true
		for k, want := range sig.Inputs {
			pt, has := provided[k]
			if !has || !typeMatches(pt, want, pass) {
				ok = false
				break
			}
		}
		if ok {
			return sig, true
		}
	}
	return Signature{}, false
}

// computeNodeType implements spec.md §4.C.2 steps 1-5 for one node.
func (inf *inferrer) computeNodeType(node *Node) DataType {
	schema, hasSchema := Schema[node.Op]
	if !hasSchema {
		inf.err(node.ID, CategorySchema, "unknown opcode %q", node.Op)
		return AnyType{}
	}

	provided := map[string]DataType{}
	for argName, ref := range node.Args {
		provided[argName] = inf.resolveRef(node.ID, ref)
	}

	if node.Op == OpBuiltinGet {
		if name, _ := node.Literal["name"].(string); name != "" {
			inf.usedBuiltins[name] = true
		}
	}
	if node.Op == OpResourceGetSize {
		if ref, ok := node.Args["resource"]; ok && ref.Kind == RefNode {
			inf.usedResourceSizes[ref.RefID] = true
		}
	}

	var matched Signature
	matchedOK := false
	if len(schema.Signatures) > 0 && !hasWildcardSignature(schema.Signatures) {
		matched, matchedOK = matchSignature(schema.Signatures, provided, 1)
		if !matchedOK {
			matched, matchedOK = matchSignature(schema.Signatures, provided, 2)
		}
		if !matchedOK {
			inf.err(node.ID, CategoryType, "no overload of %q matches the provided argument types", node.Op)
			return AnyType{}
		}
		if strictBinaryOps[node.Op] {
			a, aok := provided["a"]
			b, bok := provided["b"]
			if aok && bok && SameShapeMixedFamily(a, b) {
				inf.err(node.ID, CategoryType, "cannot implicitly convert between '%s' and '%s'", a.String(), b.String())
				return AnyType{}
			}
		}
	}

	return inf.resolveOutputType(node, schema, provided, matched)
}

func hasWildcardSignature(sigs []Signature) bool {
	for _, s := range sigs {
		if s.Variadic {
			return true
		}
	}
	return false
}

// resolveOutputType applies the opcode-specific output overrides
// (spec.md §4.C.2 step 5), falling back to the matched signature's
// output for ordinary ops.
func (inf *inferrer) resolveOutputType(node *Node, schema OpSchema, provided map[string]DataType, matched Signature) DataType {
	switch node.Op {
	case OpVarSet:
		if t, ok := provided["val"]; ok {
			return t
		}
		return AnyType{}

	case OpBuiltinGet:
		name, _ := node.Literal["name"].(string)
		if t, ok := BuiltinTypes[name]; ok {
			return t
		}
		inf.err(node.ID, CategoryReference, "unknown builtin %q", name)
		return AnyType{}

	case OpLiteral:
		if typeStr, ok := node.Literal["type"].(string); ok && typeStr != "" {
			t, err := ParseTypeString(typeStr)
			if err != nil {
				inf.err(node.ID, CategorySchema, "literal: %v", err)
				return AnyType{}
			}
			return t
		}
		return literalRawType(node.Literal["value"])

	case OpConstGet:
		if typeStr, ok := node.Literal["type"].(string); ok && typeStr != "" {
			t, err := ParseTypeString(typeStr)
			if err == nil {
				return t
			}
		}
		return literalRawType(node.Literal["value"])

	case OpMatIdentity:
		if size, ok := node.Literal["size"].(float64); ok && int(size) == 3 {
			return Matrix{Size: 3}
		}
		return Matrix{Size: 4}

	case OpMatTranspose, OpMatInverse:
		if t, ok := provided["m"]; ok {
			return t
		}
		return AnyType{}

	case OpStructConstruct:
		typeStr, _ := node.Literal["type"].(string)
		if typeStr == "" {
			inf.err(node.ID, CategorySchema, "struct_construct: missing type")
			return AnyType{}
		}
		if _, ok := inf.doc.StructByID(typeStr); !ok {
			inf.err(node.ID, CategoryReference, "unknown struct %q", typeStr)
		}
		return StructRef{ID: typeStr}

	case OpArrayConstruct:
		return inf.resolveArrayConstructType(node)

	case OpVarGet:
		ref, ok := node.Args["name"]
		if !ok {
			return AnyType{}
		}
		return inf.resolveRef(node.ID, ref)

	case OpBufferLoad:
		return inf.resolveBufferElementType(node, "buffer")

	case OpAtomicLoad, OpAtomicStore, OpAtomicAdd, OpAtomicSub, OpAtomicMin, OpAtomicMax, OpAtomicExchange:
		return Scalar{Kind: ScalarInt}

	case OpArrayExtract:
		src, ok := provided["array"]
		if !ok {
			return AnyType{}
		}
		switch a := src.(type) {
		case Array:
			return a.Elem
		case DynamicArray:
			return a.Elem
		case Vector:
			return Scalar{Kind: a.Kind}
		default:
			inf.err(node.ID, CategoryType, "array_extract: %q is not an array", src.String())
			return AnyType{}
		}

	case OpStructExtract:
		src, ok := node.Args["source"]
		if !ok {
			return AnyType{}
		}
		structID := inf.concreteStructID(provided["source"])
		member, _ := node.Literal["member"].(string)
		if structID == "" {
			return AnyType{}
		}
		sd, ok := inf.doc.StructByID(structID)
		if !ok {
			inf.err(node.ID, CategoryReference, "unknown struct %q", structID)
			return AnyType{}
		}
		for _, m := range sd.Members {
			if m.Name == member {
				return m.Type
			}
		}
		_ = src
		inf.err(node.ID, CategoryReference, "struct %q has no member %q", structID, member)
		return AnyType{}

	case OpVecSwizzle:
		vecType, ok := provided["vec"]
		if !ok {
			return AnyType{}
		}
		mask, _ := node.Literal["channels"].(string)
		return inf.resolveSwizzle(node.ID, vecType, mask)

	case OpVecConstruct:
		return inf.resolveVecConstructType(node)

	case OpMatConstruct:
		return inf.resolveMatConstructType(node)

	case OpCallFunc:
		return inf.resolveCallFuncType(node)

	case OpResourceGetFormat:
		return Scalar{Kind: ScalarInt}
	}

	if matched.Output.Kind == SigAny {
		return AnyType{}
	}
	return matched.Output.Concrete
}

func literalRawType(v any) DataType {
	switch x := v.(type) {
	case float64:
		return Scalar{Kind: ScalarFloat}
	case bool:
		return Scalar{Kind: ScalarBool}
	case string:
		return Opaque{Kind: OpaqueString}
	case []any:
		return vectorLiteralType(len(x))
	default:
		return Scalar{Kind: ScalarFloat}
	}
}

func (inf *inferrer) concreteStructID(t DataType) string {
	if sr, ok := t.(StructRef); ok {
		return sr.ID
	}
	return ""
}

func (inf *inferrer) resolveBufferElementType(node *Node, argName string) DataType {
	ref, ok := node.Args[argName]
	if !ok {
		return AnyType{}
	}
	res, ok := inf.resources[ref.RefID]
	if !ok {
		inf.err(node.ID, CategoryReference, "unknown resource %q", ref.RefID)
		return AnyType{}
	}
	if res.Kind != ResourceBuffer {
		inf.err(node.ID, CategoryType, "%q is not a buffer resource", ref.RefID)
		return AnyType{}
	}
	return res.DataType
}

func (inf *inferrer) resolveArrayConstructType(node *Node) DataType {
	n := 0
	if lengthV, ok := node.Literal["length"].(float64); ok {
		n = int(lengthV)
	}
	var elem DataType = Scalar{Kind: ScalarFloat}
	if fill, ok := node.Literal["fill"]; ok && fill != nil {
		elem = inf.literalOrRefType(node.ID, fill)
	} else if values, ok := node.Literal["values"].([]any); ok {
		if n == 0 {
			n = len(values)
		}
		if len(values) > 0 {
			elem = inf.literalOrRefType(node.ID, values[0])
		}
	}
	if values, ok := node.Literal["values"].([]any); ok && n == 0 {
		n = len(values)
	}
	return Array{Elem: elem, Size: n}
}

// literalOrRefType resolves one raw JSON value from a Literal bag
// (e.g. array_construct's fill/values, which may themselves be an id
// reference string) into a DataType, without going through the
// Args/ValueRef machinery (those fields are schema-typed as static
// config, not data edges, so they bypass ReconstructEdges entirely).
func (inf *inferrer) literalOrRefType(nodeID string, v any) DataType {
	switch x := v.(type) {
	case float64:
		return Scalar{Kind: ScalarFloat}
	case bool:
		return Scalar{Kind: ScalarBool}
	case string:
		if idPattern.MatchString(x) {
			ref := ValueRef{Kind: RefNode, RefID: x}
			return inf.resolveRef(nodeID, ref)
		}
		return Opaque{Kind: OpaqueString}
	case []any:
		return vectorLiteralType(len(x))
	default:
		return Scalar{Kind: ScalarFloat}
	}
}

// resolveVecConstructType validates that the variadic component-group
// keys (x, xy, xyz, xyzw, y, yz, yzw, z, zw, w) partition the target
// dimension exactly once (spec.md §4.C.2 step 5, last bullet).
func (inf *inferrer) resolveVecConstructType(node *Node) DataType {
	typeStr, _ := node.Literal["type"].(string)
	target, err := ParseTypeString(typeStr)
	if err != nil {
		inf.err(node.ID, CategorySchema, "vec_construct: %v", err)
		return AnyType{}
	}
	v, ok := target.(Vector)
	if !ok {
		inf.err(node.ID, CategorySchema, "vec_construct: target %q is not a vector type", typeStr)
		return AnyType{}
	}
	covered := make([]bool, v.Size)
	for key, ref := range node.Args {
		groupIdx, groupLen, ok := vectorComponentGroup(key)
		if !ok {
			inf.err(node.ID, CategorySchema, "vec_construct: unrecognized component group %q", key)
			continue
		}
		argType := inf.resolveRef(node.ID, ref)
		if !isAny(argType) {
			switch {
			case groupLen == 1 && VectorSize(argType) != 0:
				inf.err(node.ID, CategoryType, "vec_construct: %q expects a scalar, got %s", key, argType.String())
			case groupLen > 1 && VectorSize(argType) != 0 && VectorSize(argType) != groupLen:
				inf.err(node.ID, CategoryType, "vec_construct: %q expects a %d-vector, got %s", key, groupLen, argType.String())
			}
		}
		for i := 0; i < groupLen; i++ {
			idx := groupIdx + i
			if idx >= len(covered) {
				continue
			}
			if covered[idx] {
				inf.err(node.ID, CategorySchema, "vec_construct: component %d covered more than once", idx)
			}
			covered[idx] = true
		}
	}
	for i, c := range covered {
		if !c {
			inf.err(node.ID, CategorySchema, "vec_construct: component %d is not covered by any argument", i)
		}
	}
	return v
}

// vectorComponentGroup maps a wire component-group key to its start
// index and length within a float2/3/4 or int2/3/4 target.
func vectorComponentGroup(key string) (start, length int, ok bool) {
	groups := map[string][2]int{
		"x": {0, 1}, "y": {1, 1}, "z": {2, 1}, "w": {3, 1},
		"xy": {0, 2}, "yz": {1, 2}, "zw": {2, 2},
		"xyz": {0, 3}, "yzw": {1, 3},
		"xyzw": {0, 4},
	}
	g, ok := groups[key]
	if !ok {
		return 0, 0, false
	}
	return g[0], g[1], true
}

func (inf *inferrer) resolveMatConstructType(node *Node) DataType {
	typeStr, _ := node.Literal["type"].(string)
	if typeStr == "" {
		// size-keyed construction: count provided column args.
		n := len(node.Args)
		if n <= 3 {
			return Matrix{Size: 3}
		}
		return Matrix{Size: 4}
	}
	t, err := ParseTypeString(typeStr)
	if err != nil {
		inf.err(node.ID, CategorySchema, "mat_construct: %v", err)
		return AnyType{}
	}
	return t
}

func (inf *inferrer) resolveCallFuncType(node *Node) DataType {
	ref, ok := node.Args["function"]
	if !ok {
		return AnyType{}
	}
	callee, ok := inf.doc.FunctionByID(ref.RefID)
	if !ok {
		inf.err(node.ID, CategoryReference, "unknown function %q", ref.RefID)
		return AnyType{}
	}
	if len(callee.Outputs) == 0 {
		return AnyType{}
	}
	return callee.Outputs[0].Type
}
