package ir

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// wire.go is the JSON adapter (spec.md §6.1, §9 design note): it
// normalizes the loose on-wire document (inline swizzle suffixes,
// args.*/values.* key aliasing, dotted type strings) into the
// canonical Document once, at load time. Static per-op configuration
// is kept, keyed by argument name, in Node.Literal.

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// FromWire parses a JSON-encoded IR document into its canonical form.
// It performs only shape/syntax normalization; semantic validation
// (type resolution, structural checks) is Validate's job.
func FromWire(data []byte) (*Document, error) {
	var raw wireDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ir: decode document: %w", err)
	}

	doc := &Document{
		Version:    raw.Version,
		Meta:       raw.Meta,
		EntryPoint: raw.EntryPoint,
	}

	for _, wi := range raw.Inputs {
		in, err := wi.toCanonical()
		if err != nil {
			return nil, fmt.Errorf("ir: input %q: %w", wi.ID, err)
		}
		doc.Inputs = append(doc.Inputs, in)
	}
	for _, ws := range raw.Structs {
		sd, err := ws.toCanonical()
		if err != nil {
			return nil, fmt.Errorf("ir: struct %q: %w", ws.ID, err)
		}
		doc.Structs = append(doc.Structs, sd)
	}
	for _, wr := range raw.Resources {
		rd, err := wr.toCanonical()
		if err != nil {
			return nil, fmt.Errorf("ir: resource %q: %w", wr.ID, err)
		}
		doc.Resources = append(doc.Resources, rd)
	}
	for _, wf := range raw.Functions {
		fd, err := wf.toCanonical()
		if err != nil {
			return nil, fmt.Errorf("ir: function %q: %w", wf.ID, err)
		}
		doc.Functions = append(doc.Functions, fd)
	}
	return doc, nil
}

// --- top-level wire shapes -------------------------------------------------

type wireDocument struct {
	Version    string            `json:"version"`
	Meta       map[string]string `json:"meta"`
	EntryPoint string            `json:"entryPoint"`
	Inputs     []wireInput       `json:"inputs"`
	Resources  []wireResource    `json:"resources"`
	Structs    []wireStruct      `json:"structs"`
	Functions  []wireFunction    `json:"functions"`
	// Edges, if present, is intentionally ignored (spec.md §6.1: node
	// connectivity is implicit and "edges[]", if present, is ignored on
	// input and never serialized).
	Edges json.RawMessage `json:"edges"`
}

type wireInput struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Default json.RawMessage   `json:"default"`
	UIHint  map[string]string `json:"uiHint"`
}

func (w wireInput) toCanonical() (GlobalInput, error) {
	t, err := ParseTypeString(w.Type)
	if err != nil {
		return GlobalInput{}, err
	}
	gi := GlobalInput{ID: w.ID, Type: t, UIHint: w.UIHint}
	if len(w.Default) > 0 && string(w.Default) != "null" {
		var v any
		if err := json.Unmarshal(w.Default, &v); err != nil {
			return GlobalInput{}, fmt.Errorf("default: %w", err)
		}
		lit, err := literalFromRawValue(v)
		if err != nil {
			return GlobalInput{}, fmt.Errorf("default: %w", err)
		}
		gi.Default = lit
	}
	return gi, nil
}

type wireStructMember struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type wireStruct struct {
	ID      string             `json:"id"`
	Members []wireStructMember `json:"members"`
}

func (w wireStruct) toCanonical() (StructDef, error) {
	sd := StructDef{ID: w.ID}
	for _, m := range w.Members {
		t, err := ParseTypeString(m.Type)
		if err != nil {
			return StructDef{}, fmt.Errorf("member %q: %w", m.Name, err)
		}
		sd.Members = append(sd.Members, StructMember{Name: m.Name, Type: t})
	}
	return sd, nil
}

type wireResourceSize struct {
	Mode   string  `json:"mode"`
	Count  *int    `json:"count"`
	Width  *int    `json:"width"`
	Height *int    `json:"height"`
	Scale  *float64 `json:"scale"`
	Ref    string  `json:"ref"`
}

type wirePersistence struct {
	Retain          bool            `json:"retain"`
	ClearOnResize   bool            `json:"clearOnResize"`
	ClearEveryFrame bool            `json:"clearEveryFrame"`
	ClearValue      json.RawMessage `json:"clearValue"`
	CPUAccess       bool            `json:"cpuAccess"`
}

type wireResource struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	DataType    string           `json:"dataType"`
	Format      string           `json:"format"`
	Filter      string           `json:"filter"`
	Wrap        string           `json:"wrap"`
	Size        wireResourceSize `json:"size"`
	Persistence wirePersistence  `json:"persistence"`
}

func (w wireResource) toCanonical() (ResourceDef, error) {
	rd := ResourceDef{ID: w.ID}
	switch w.Kind {
	case "texture2d":
		rd.Kind = ResourceTexture2D
	case "buffer":
		rd.Kind = ResourceBuffer
	case "atomic_counter":
		rd.Kind = ResourceAtomicCounter
	default:
		return ResourceDef{}, fmt.Errorf("unknown resource kind %q", w.Kind)
	}
	if w.DataType != "" {
		t, err := ParseTypeString(w.DataType)
		if err != nil {
			return ResourceDef{}, err
		}
		rd.DataType = t
	}
	if w.Format != "" {
		f, ok := ParseTextureFormat(w.Format)
		if !ok {
			return ResourceDef{}, fmt.Errorf("unknown texture format %q", w.Format)
		}
		rd.Format = f
	}
	switch w.Filter {
	case "", "nearest":
		rd.Filter = FilterNearest
	case "linear":
		rd.Filter = FilterLinear
	default:
		return ResourceDef{}, fmt.Errorf("unknown filter %q", w.Filter)
	}
	switch w.Wrap {
	case "", "clamp":
		rd.Wrap = WrapClamp
	case "repeat":
		rd.Wrap = WrapRepeat
	case "mirror":
		rd.Wrap = WrapMirror
	default:
		return ResourceDef{}, fmt.Errorf("unknown wrap %q", w.Wrap)
	}

	switch w.Size.Mode {
	case "fixed":
		rd.Size.Mode = SizeFixed
		if w.Size.Count != nil {
			rd.Size.Count = *w.Size.Count
		}
		if w.Size.Width != nil {
			rd.Size.Width = *w.Size.Width
		}
		if w.Size.Height != nil {
			rd.Size.Height = *w.Size.Height
		}
	case "viewport":
		rd.Size.Mode = SizeViewport
		rd.Size.Scale = 1.0
		if w.Size.Scale != nil {
			rd.Size.Scale = *w.Size.Scale
		}
	case "reference":
		rd.Size.Mode = SizeReference
		rd.Size.Ref = w.Size.Ref
	case "cpu_driven":
		rd.Size.Mode = SizeCPUDriven
	default:
		return ResourceDef{}, fmt.Errorf("unknown resource size mode %q", w.Size.Mode)
	}

	rd.Persistence = Persistence{
		Retain:          w.Persistence.Retain,
		ClearOnResize:   w.Persistence.ClearOnResize,
		ClearEveryFrame: w.Persistence.ClearEveryFrame,
		CPUAccess:       w.Persistence.CPUAccess,
	}
	if len(w.Persistence.ClearValue) > 0 && string(w.Persistence.ClearValue) != "null" {
		var v any
		if err := json.Unmarshal(w.Persistence.ClearValue, &v); err != nil {
			return ResourceDef{}, fmt.Errorf("persistence.clearValue: %w", err)
		}
		lit, err := literalFromRawValue(v)
		if err != nil {
			return ResourceDef{}, err
		}
		rd.Persistence.ClearValue = lit
	}
	return rd, nil
}

type wireIOBinding struct {
	Builtin  string `json:"builtin"`
	Location *int   `json:"location"`
}

type wireFunctionIO struct {
	Name    string        `json:"name"`
	Type    string        `json:"type"`
	Binding wireIOBinding `json:"binding"`
}

type wireLocalVar struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Initial json.RawMessage `json:"initialValue"`
}

type wireFunction struct {
	ID        string           `json:"id"`
	Tag       string           `json:"tag"`
	Inputs    []wireFunctionIO `json:"inputs"`
	Outputs   []wireFunctionIO `json:"outputs"`
	LocalVars []wireLocalVar   `json:"localVars"`
	Nodes     []wireNode       `json:"nodes"`
}

func (w wireFunction) toCanonical() (FunctionDef, error) {
	fd := FunctionDef{ID: w.ID}
	switch w.Tag {
	case "cpu":
		fd.Tag = FunctionCPU
	case "shader", "":
		fd.Tag = FunctionShader
	default:
		return FunctionDef{}, fmt.Errorf("unknown function tag %q", w.Tag)
	}
	for _, io := range w.Inputs {
		c, err := io.toCanonical()
		if err != nil {
			return FunctionDef{}, fmt.Errorf("input %q: %w", io.Name, err)
		}
		fd.Inputs = append(fd.Inputs, c)
	}
	for _, io := range w.Outputs {
		c, err := io.toCanonical()
		if err != nil {
			return FunctionDef{}, fmt.Errorf("output %q: %w", io.Name, err)
		}
		fd.Outputs = append(fd.Outputs, c)
	}
	for _, lv := range w.LocalVars {
		t, err := ParseTypeString(lv.Type)
		if err != nil {
			return FunctionDef{}, fmt.Errorf("local %q: %w", lv.Name, err)
		}
		l := LocalVar{Name: lv.Name, Type: t}
		if len(lv.Initial) > 0 && string(lv.Initial) != "null" {
			var v any
			if err := json.Unmarshal(lv.Initial, &v); err != nil {
				return FunctionDef{}, fmt.Errorf("local %q initialValue: %w", lv.Name, err)
			}
			lit, err := literalFromRawValue(v)
			if err != nil {
				return FunctionDef{}, fmt.Errorf("local %q initialValue: %w", lv.Name, err)
			}
			l.Initial = lit
		}
		fd.LocalVars = append(fd.LocalVars, l)
	}
	for _, wn := range w.Nodes {
		n, err := wn.toCanonical()
		if err != nil {
			return FunctionDef{}, fmt.Errorf("node %q: %w", wn.ID, err)
		}
		fd.Nodes = append(fd.Nodes, n)
	}
	return fd, nil
}

func (io wireFunctionIO) toCanonical() (FunctionIO, error) {
	t, err := ParseTypeString(io.Type)
	if err != nil {
		return FunctionIO{}, err
	}
	return FunctionIO{
		Name: io.Name,
		Type: t,
		Binding: IOBinding{
			Builtin:  io.Binding.Builtin,
			Location: io.Binding.Location,
		},
	}, nil
}

// wireNode captures a node's freeform properties without a fixed Go
// struct: Props holds every top-level key plus whatever was hoisted
// out of nested "args"/"values" bags.
type wireNode struct {
	ID    string
	Op    string
	Meta  map[string]string
	Props map[string]any
}

func (wn *wireNode) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	id, _ := m["id"].(string)
	op, _ := m["op"].(string)
	wn.ID = id
	wn.Op = op
	delete(m, "id")
	delete(m, "op")
	if metaRaw, ok := m["meta"]; ok {
		delete(m, "meta")
		if metaMap, ok := metaRaw.(map[string]any); ok {
			wn.Meta = map[string]string{}
			for k, v := range metaMap {
				if s, ok := v.(string); ok {
					wn.Meta[k] = s
				}
			}
		}
	}
	// Hoist args.*/values.* bags: explicit top-level keys win over
	// "args", which wins over "values" (spec.md §9: "alternate
	// args.*/values.* keys" — the precedence among the three is an
	// Open Question the spec leaves unstated; resolved here as
	// most-specific-wins).
	hoisted := map[string]any{}
	if valuesBag, ok := m["values"].(map[string]any); ok {
		for k, v := range valuesBag {
			hoisted[k] = v
		}
	}
	delete(m, "values")
	if argsBag, ok := m["args"].(map[string]any); ok {
		for k, v := range argsBag {
			hoisted[k] = v
		}
	}
	delete(m, "args")
	for k, v := range m {
		hoisted[k] = v
	}
	wn.Props = hoisted
	return nil
}

// swizzleSuffix is the full legal swizzle alphabet (both xyzw and
// rgba spellings are accepted on input; edges.go/infer.go normalize
// to the xyzw index space).
const swizzleSuffix = "xyzwrgba"

// splitInlineSwizzle splits "nodeId.mask" into ("nodeId", "mask"). It
// returns ok=false if s contains no '.' or the suffix after the last
// '.' is not composed entirely of swizzle letters (in which case the
// '.' is presumed to belong to something else and s is left whole —
// though node/var ids themselves may never contain '.', per §3.3).
func splitInlineSwizzle(s string) (base, mask string, ok bool) {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return s, "", false
	}
	base, mask = s[:i], s[i+1:]
	if mask == "" {
		return s, "", false
	}
	for _, c := range mask {
		if !strings.ContainsRune(swizzleSuffix, c) {
			return s, "", false
		}
	}
	return base, mask, true
}

// looksLikeIdentifier reports whether s is shaped like a bare id
// (optionally with an inline-swizzle suffix stripped first).
func looksLikeIdentifier(s string) bool {
	base, _, hasSwizzle := splitInlineSwizzle(s)
	if hasSwizzle {
		return idPattern.MatchString(base)
	}
	return idPattern.MatchString(s)
}

func (wn wireNode) toCanonical() (Node, error) {
	n := Node{ID: wn.ID, Op: OpCode(wn.Op), Meta: wn.Meta}
	if strings.Contains(wn.ID, ".") {
		return Node{}, fmt.Errorf("node id %q contains '.'", wn.ID)
	}

	resolvedOp, vectorCtorType := resolveWireOp(wn.Op)
	n.Op = resolvedOp

	schema, hasSchema := Schema[resolvedOp]

	n.Args = map[string]ValueRef{}
	n.Literal = map[string]any{}
	if vectorCtorType != "" {
		n.Literal["type"] = vectorCtorType
	}

	for key, port := range map[string]**string{
		PortExecIn:        &n.ExecIn,
		PortExecOut:       &n.ExecOut,
		PortExecTrue:      &n.ExecTrue,
		PortExecFalse:     &n.ExecFalse,
		PortExecBody:      &n.ExecBody,
		PortExecCompleted: &n.ExecCompleted,
	} {
		if raw, ok := wn.Props[key]; ok {
			if s, ok := raw.(string); ok && s != "" {
				v := s
				*port = &v
			}
		}
	}

	if !hasSchema {
		// Unknown opcode: keep whatever was given as opaque literal
		// config so the validator can report a precise "unknown op"
		// diagnostic instead of silently dropping data.
		for k, v := range wn.Props {
			if isExecPortKey(k) {
				continue
			}
			n.Literal[k] = v
		}
		return n, nil
	}

	argNames := schema.ArgNames
	for _, argName := range argNames {
		if argName == "*" {
			continue
		}
		raw, present := wn.Props[argName]
		if !present {
			continue
		}
		if schema.LiteralArgs[argName] {
			n.Literal[argName] = raw
			continue
		}
		ref, err := resolveValueRef(argName, raw, schema.IdentifierArgs[argName])
		if err != nil {
			return Node{}, fmt.Errorf("node %q arg %q: %w", wn.ID, argName, err)
		}
		n.Args[argName] = ref
	}

	// Variadic "*" group: every remaining property not already
	// consumed as a named arg, an exec port, or "type"/"meta" becomes
	// a positional variadic data arg keyed by its own property name
	// (vec/mat/struct constructors key by swizzle-component-group or
	// member name; call_func keys by the callee's parameter name).
	if hasWildcard(argNames) {
		named := map[string]bool{}
		for _, a := range argNames {
			named[a] = true
		}
		keys := make([]string, 0, len(wn.Props))
		for k := range wn.Props {
			if named[k] || isExecPortKey(k) || k == "type" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ref, err := resolveValueRef(k, wn.Props[k], false)
			if err != nil {
				return Node{}, fmt.Errorf("node %q arg %q: %w", wn.ID, k, err)
			}
			n.Args[k] = ref
		}
	}

	return n, nil
}

func hasWildcard(names []string) bool {
	for _, n := range names {
		if n == "*" {
			return true
		}
	}
	return false
}

func isExecPortKey(k string) bool {
	switch k {
	case PortExecIn, PortExecOut, PortExecTrue, PortExecFalse, PortExecBody, PortExecCompleted:
		return true
	default:
		return false
	}
}

// resolveWireOp maps the wire opcode spelling onto its canonical
// OpCode, collapsing the per-dimension vector constructor spellings
// (float2, float3, float4, int2, int3, int4) onto OpVecConstruct and
// returning the concrete target type name to stash in Literal["type"].
func resolveWireOp(op string) (OpCode, string) {
	if variadicVectorConstructOps[op] {
		return OpVecConstruct, op
	}
	return OpCode(op), ""
}

// resolveValueRef canonicalizes one node property into a ValueRef,
// per spec.md §4.C.2 step 1: strings that look like ids become data
// references (with optional inline swizzle stripped); numbers become
// float literals; booleans become bool literals; arrays of numbers
// become vector literals; a string that doesn't parse as an id (when
// forceIdentifier is false) becomes a string literal. A missing (null)
// value, a non-numeric array element, or any other shape is an error.
func resolveValueRef(argName string, raw any, forceIdentifier bool) (ValueRef, error) {
	switch v := raw.(type) {
	case string:
		base, mask, hasSwizzle := splitInlineSwizzle(v)
		if forceIdentifier || idPattern.MatchString(base) {
			if !idPattern.MatchString(base) {
				return ValueRef{}, fmt.Errorf("invalid identifier %q", v)
			}
			ref := ValueRef{Kind: RefNode, RefID: base}
			if hasSwizzle {
				ref.Swizzle = mask
			}
			return ref, nil
		}
		return ValueRef{Kind: RefLiteral, Literal: LitString(v)}, nil
	case float64:
		return ValueRef{Kind: RefLiteral, Literal: LitFloat(v)}, nil
	case bool:
		return ValueRef{Kind: RefLiteral, Literal: LitBool(v)}, nil
	case []any:
		vec := make(LitVector, 0, len(v))
		for _, e := range v {
			f, ok := e.(float64)
			if !ok {
				return ValueRef{}, fmt.Errorf("%s: array literal must contain only numbers", argName)
			}
			vec = append(vec, f)
		}
		return ValueRef{Kind: RefLiteral, Literal: vec}, nil
	case nil:
		return ValueRef{}, fmt.Errorf("%s: missing value", argName)
	default:
		return ValueRef{}, fmt.Errorf("%s: unsupported value shape %T", argName, v)
	}
}

func literalFromRawValue(v any) (LiteralValue, error) {
	switch x := v.(type) {
	case float64:
		return LitFloat(x), nil
	case bool:
		return LitBool(x), nil
	case string:
		return LitString(x), nil
	case []any:
		vec := make(LitVector, 0, len(x))
		for _, e := range x {
			f, ok := e.(float64)
			if !ok {
				return nil, fmt.Errorf("array literal must contain only numbers")
			}
			vec = append(vec, f)
		}
		return vec, nil
	default:
		return nil, fmt.Errorf("unsupported literal shape %T", v)
	}
}

// ParseTypeString parses a wire-form type spelling into a DataType
// (spec.md §3.1, §6.1): scalars, fixed vectors, matrices, opaque
// types, a struct id, array<T,N>, or T[].
func ParseTypeString(s string) (DataType, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "float":
		return Scalar{Kind: ScalarFloat}, nil
	case "int":
		return Scalar{Kind: ScalarInt}, nil
	case "bool":
		return Scalar{Kind: ScalarBool}, nil
	case "float2":
		return Vector{Size: 2, Kind: ScalarFloat}, nil
	case "float3":
		return Vector{Size: 3, Kind: ScalarFloat}, nil
	case "float4":
		return Vector{Size: 4, Kind: ScalarFloat}, nil
	case "int2":
		return Vector{Size: 2, Kind: ScalarInt}, nil
	case "int3":
		return Vector{Size: 3, Kind: ScalarInt}, nil
	case "int4":
		return Vector{Size: 4, Kind: ScalarInt}, nil
	case "float3x3":
		return Matrix{Size: 3}, nil
	case "float4x4":
		return Matrix{Size: 4}, nil
	case "string":
		return Opaque{Kind: OpaqueString}, nil
	case "texture2d":
		return Opaque{Kind: OpaqueTexture2D}, nil
	case "sampler":
		return Opaque{Kind: OpaqueSampler}, nil
	}
	if strings.HasSuffix(s, "[]") {
		elem, err := ParseTypeString(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return nil, err
		}
		return DynamicArray{Elem: elem}, nil
	}
	if strings.HasPrefix(s, "array<") && strings.HasSuffix(s, ">") {
		inner := s[len("array<") : len(s)-1]
		comma := strings.LastIndexByte(inner, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed array type %q", s)
		}
		elemStr := strings.TrimSpace(inner[:comma])
		sizeStr := strings.TrimSpace(inner[comma+1:])
		elem, err := ParseTypeString(elemStr)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(sizeStr)
		if err != nil {
			return nil, fmt.Errorf("malformed array size %q: %w", sizeStr, err)
		}
		return Array{Elem: elem, Size: n}, nil
	}
	if idPattern.MatchString(s) {
		return StructRef{ID: s}, nil
	}
	return nil, fmt.Errorf("unrecognized type %q", s)
}
