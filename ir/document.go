package ir

// Document is the canonical, fully-resolved form of an IR document
// (spec.md §3.2). It owns every identifier namespace; ids are unique
// within their namespace (inputs, resources, structs, functions; node
// ids within a function; local vars/outputs within a function).
//
// A Document is immutable once constructed (spec.md §5): validation
// and generation both take a *Document by value-semantics convention
// and never mutate it.
type Document struct {
	Version     string
	Meta        map[string]string
	EntryPoint  string
	Inputs      []GlobalInput
	Resources   []ResourceDef
	Structs     []StructDef
	Functions   []FunctionDef
}

// FunctionByID looks up a function by id.
func (d *Document) FunctionByID(id string) (*FunctionDef, bool) {
	for i := range d.Functions {
		if d.Functions[i].ID == id {
			return &d.Functions[i], true
		}
	}
	return nil, false
}

// ResourceByID looks up a resource by id.
func (d *Document) ResourceByID(id string) (*ResourceDef, bool) {
	for i := range d.Resources {
		if d.Resources[i].ID == id {
			return &d.Resources[i], true
		}
	}
	return nil, false
}

// StructByID looks up a struct definition by id.
func (d *Document) StructByID(id string) (*StructDef, bool) {
	for i := range d.Structs {
		if d.Structs[i].ID == id {
			return &d.Structs[i], true
		}
	}
	return nil, false
}

// InputByID looks up a global input by id.
func (d *Document) InputByID(id string) (*GlobalInput, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].ID == id {
			return &d.Inputs[i], true
		}
	}
	return nil, false
}

// GlobalInput is a document-scope uniform/parameter (spec.md §3.2).
type GlobalInput struct {
	ID      string
	Type    DataType
	Default LiteralValue // optional; nil if unset
	UIHint  map[string]string
}

// StructDef is a named composite type (spec.md §3.1/§3.2). Struct
// definitions must form a DAG; cycles are rejected by the validator.
type StructDef struct {
	ID      string
	Members []StructMember
}

// StructMember is one field of a StructDef.
type StructMember struct {
	Name string
	Type DataType
}

// ResourceKind is the closed set of resource flavors (spec.md §3.2).
type ResourceKind uint8

const (
	ResourceTexture2D ResourceKind = iota
	ResourceBuffer
	ResourceAtomicCounter
)

// ResourceSizeMode is the closed set of ResourceSize variants.
type ResourceSizeMode uint8

const (
	SizeFixed ResourceSizeMode = iota
	SizeViewport
	SizeReference
	SizeCPUDriven
)

// ResourceSize describes how a resource's extent is determined
// (spec.md §3.2).
type ResourceSize struct {
	Mode ResourceSizeMode

	// Fixed: either Count (buffers) or Width/Height (textures).
	Count         int
	Width, Height int

	// Viewport: optional scale factor, 1.0 if zero-valued and Mode==SizeViewport.
	Scale float64

	// Reference: the id of another resource this one tracks.
	Ref string
}

// Persistence governs a resource's cross-frame retention (spec.md §3.2).
type Persistence struct {
	Retain          bool // cross-frame retention
	ClearOnResize   bool
	ClearEveryFrame bool
	ClearValue      LiteralValue // optional
	CPUAccess       bool
}

// ResourceDef is a texture2d, buffer, or atomic_counter (spec.md §3.2).
type ResourceDef struct {
	ID          string
	Kind        ResourceKind
	DataType    DataType      // buffers and atomic_counter (must be int for the latter)
	Format      TextureFormat // textures
	Filter      FilterMode
	Wrap        WrapMode
	Size        ResourceSize
	Persistence Persistence
}

// FunctionTag distinguishes a cpu-tagged function from a shader one
// (spec.md §3.2).
type FunctionTag uint8

const (
	FunctionCPU FunctionTag = iota
	FunctionShader
)

// IOBinding carries the optional shader-stage-IO metadata a
// FunctionIO can declare (spec.md §3.2).
type IOBinding struct {
	Builtin  string // e.g. "position"; empty if unset
	Location *int
}

// FunctionIO is one function input or output.
type FunctionIO struct {
	Name    string
	Type    DataType
	Binding IOBinding
}

// LocalVar is a function-local variable. Only POD or array<T,N> types
// are legal (spec.md §3.2); DynamicArray is never legal here.
type LocalVar struct {
	Name    string
	Type    DataType
	Initial LiteralValue // optional
}

// FunctionDef is a cpu or shader function (spec.md §3.2).
type FunctionDef struct {
	ID        string
	Tag       FunctionTag
	Inputs    []FunctionIO
	Outputs   []FunctionIO
	LocalVars []LocalVar
	Nodes     []Node
}

// NodeByID looks up a node within this function by id.
func (f *FunctionDef) NodeByID(id string) (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// OpCode is the closed opcode vocabulary (spec.md §3.3, §6.2). Every
// member here is one of the enumerated opcodes; there is no escape
// hatch for an unrecognized string to become a valid OpCode past the
// wire adapter.
type OpCode string

const (
	// Pure: math.
	OpMathAdd   OpCode = "math_add"
	OpMathSub   OpCode = "math_sub"
	OpMathMul   OpCode = "math_mul"
	OpMathDiv   OpCode = "math_div"
	OpMathMod   OpCode = "math_mod"
	OpMathPow   OpCode = "math_pow"
	OpMathMin   OpCode = "math_min"
	OpMathMax   OpCode = "math_max"
	OpMathAtan2 OpCode = "math_atan2"
	OpMathGt    OpCode = "math_gt"
	OpMathLt    OpCode = "math_lt"
	OpMathGe    OpCode = "math_ge"
	OpMathLe    OpCode = "math_le"
	OpMathEq    OpCode = "math_eq"
	OpMathNeq   OpCode = "math_neq"
	OpMathAnd   OpCode = "math_and"
	OpMathOr    OpCode = "math_or"
	OpMathNot   OpCode = "math_not"
	OpMathXor   OpCode = "math_xor"
	OpMathNeg   OpCode = "math_neg"
	OpMathAbs   OpCode = "math_abs"
	OpMathSqrt  OpCode = "math_sqrt"
	OpMathSin   OpCode = "math_sin"
	OpMathCos   OpCode = "math_cos"
	OpMathTan   OpCode = "math_tan"
	OpMathFloor OpCode = "math_floor"
	OpMathCeil  OpCode = "math_ceil"
	OpMathFract OpCode = "math_fract"
	OpMathClamp OpCode = "math_clamp"
	OpMathMix   OpCode = "math_mix"
	OpMathStep  OpCode = "math_step"
	OpMathSmoothstep OpCode = "math_smoothstep"
	OpMathExp   OpCode = "math_exp"
	OpMathLog   OpCode = "math_log"
	OpMathPi    OpCode = "math_pi"
	OpMathE     OpCode = "math_e"

	// Pure: vector.
	OpVecConstruct  OpCode = "vec_construct" // float2|3|4 / int2|3|4 variadic constructors dispatch here
	OpVecSwizzle    OpCode = "vec_swizzle"
	OpVecGetElement OpCode = "vec_get_element"
	OpVecLength     OpCode = "vec_length"
	OpVecNormalize  OpCode = "vec_normalize"
	OpVecDot        OpCode = "vec_dot"
	OpVecCross      OpCode = "vec_cross"
	OpVecDistance   OpCode = "vec_distance"
	OpVecReflect    OpCode = "vec_reflect"

	// Pure: matrix.
	OpMatIdentity  OpCode = "mat_identity"
	OpMatTranspose OpCode = "mat_transpose"
	OpMatInverse   OpCode = "mat_inverse"
	OpMatMul       OpCode = "mat_mul"
	OpMatConstruct OpCode = "mat_construct"

	// Pure: quaternion.
	OpQuatMul    OpCode = "quat_mul"
	OpQuatRotate OpCode = "quat_rotate"
	OpQuatSlerp  OpCode = "quat_slerp"
	OpQuatToMat4 OpCode = "quat_to_mat4"

	// Pure: literals, variables, casts, builtins, resources, composites.
	OpLiteral         OpCode = "literal"
	OpVarGet          OpCode = "var_get"
	OpBufferLoad      OpCode = "buffer_load"
	OpTextureSample   OpCode = "texture_sample"
	OpTextureLoad     OpCode = "texture_load"
	OpResourceGetSize OpCode = "resource_get_size"
	OpResourceGetFormat OpCode = "resource_get_format"
	OpStructConstruct OpCode = "struct_construct"
	OpStructExtract   OpCode = "struct_extract"
	OpArrayConstruct  OpCode = "array_construct"
	OpArrayExtract    OpCode = "array_extract"
	OpArrayLength     OpCode = "array_length"
	OpStaticCastFloat  OpCode = "static_cast_float"
	OpStaticCastFloat2 OpCode = "static_cast_float2"
	OpStaticCastFloat3 OpCode = "static_cast_float3"
	OpStaticCastFloat4 OpCode = "static_cast_float4"
	OpStaticCastInt    OpCode = "static_cast_int"
	OpStaticCastInt2   OpCode = "static_cast_int2"
	OpStaticCastInt3   OpCode = "static_cast_int3"
	OpStaticCastInt4   OpCode = "static_cast_int4"
	OpBuiltinGet      OpCode = "builtin_get"
	OpLoopIndex       OpCode = "loop_index"
	OpConstGet        OpCode = "const_get"
	OpColorMix        OpCode = "color_mix"
	OpComment         OpCode = "comment"

	// Executable: variables, arrays, resources.
	OpVarSet       OpCode = "var_set"
	OpArraySet     OpCode = "array_set"
	OpBufferStore  OpCode = "buffer_store"
	OpTextureStore OpCode = "texture_store"

	// Executable: flow.
	OpFlowBranch OpCode = "flow_branch"
	OpFlowLoop   OpCode = "flow_loop"
	OpCallFunc   OpCode = "call_func"
	OpFuncReturn OpCode = "func_return"

	// Executable: atomics.
	OpAtomicLoad     OpCode = "atomic_load"
	OpAtomicStore    OpCode = "atomic_store"
	OpAtomicAdd      OpCode = "atomic_add"
	OpAtomicSub      OpCode = "atomic_sub"
	OpAtomicMin      OpCode = "atomic_min"
	OpAtomicMax      OpCode = "atomic_max"
	OpAtomicExchange OpCode = "atomic_exchange"

	// Executable: commands.
	OpCmdDispatch       OpCode = "cmd_dispatch"
	OpCmdResizeResource OpCode = "cmd_resize_resource"
	OpCmdDraw           OpCode = "cmd_draw"
	OpCmdSyncToCPU      OpCode = "cmd_sync_to_cpu"
	OpCmdWaitCPUSync    OpCode = "cmd_wait_cpu_sync"
	OpCmdCopyBuffer     OpCode = "cmd_copy_buffer"
	OpCmdCopyTexture    OpCode = "cmd_copy_texture"
)

// variadicVectorConstructOps maps the wire opcode spellings
// (float2, float3, float4, int2, int3, int4), which the schema
// treats as distinct overloaded opcodes with a "*" variadic arg group,
// onto the single canonical OpVecConstruct node kind. The concrete
// target vector type is carried in Node.Literal["type"].
var variadicVectorConstructOps = map[string]bool{
	"float2": true, "float3": true, "float4": true,
	"int2": true, "int3": true, "int4": true,
}

// ExecPorts names the fixed execution-port keys (spec.md §3.3).
const (
	PortExecIn        = "exec_in"
	PortExecOut       = "exec_out"
	PortExecTrue      = "exec_true"
	PortExecFalse     = "exec_false"
	PortExecBody      = "exec_body"
	PortExecCompleted = "exec_completed"
)

// Node is one node in a function's graph (spec.md §3.3). Connectivity
// is reconstructed from Args/Literal/exec fields by ReconstructEdges;
// Node itself carries no edge lists.
type Node struct {
	ID   string
	Op   OpCode
	Meta map[string]string

	// Args holds every schema-declared argument whose value resolves
	// to a data reference (a node/local/input/global, with optional
	// inline swizzle) or an embedded literal scalar/vector. This is
	// the canonical, already-resolved form of the wire format's
	// dotted-string properties and args.*/values.* bags (spec.md §6.1,
	// §9 redesign note) — populated once by the wire adapter.
	Args map[string]ValueRef

	// Literal holds schema-declared arguments that are pure static
	// configuration rather than data references: e.g. mat_identity's
	// size, vec_swizzle's channel mask, array_construct's length,
	// struct_construct's declared type, static_cast's target type,
	// cmd_draw's pipeline sub-object, loop bounds. There is no separate
	// per-op shape check of these values: inference, validation and
	// lowering type-assert the keys they read.
	Literal map[string]any

	// Execution ports, nil if unconnected. A pure node normally leaves
	// all six nil, except user-anchored pure nodes that have an
	// outgoing exec edge (spec.md §4.D.4).
	ExecIn        *string
	ExecOut       *string
	ExecTrue      *string
	ExecFalse     *string
	ExecBody      *string
	ExecCompleted *string
}

// ValueRefKind discriminates ValueRef's two forms.
type ValueRefKind uint8

const (
	RefNode ValueRefKind = iota
	RefLiteral
)

// ValueRef is a canonicalized data-argument value: either a reference
// to another node/local/input/global (optionally swizzled), or an
// inline literal (spec.md §4.C.2 step 1).
type ValueRef struct {
	Kind    ValueRefKind
	RefID   string // node id, local name, input name, or global name
	Swizzle string // optional ".xyz"-style suffix, without the leading dot
	Literal LiteralValue
}

// LiteralValue is the closed set of literal value kinds a ValueRef or
// Node.LocalVar/GlobalInput default can carry.
type LiteralValue interface {
	literalValue()
}

// LitFloat is a float64-valued literal (numeric literals are always
// typed float per spec.md §4.C.2 step 1(b), even when used as an
// integer index).
type LitFloat float64

func (LitFloat) literalValue() {}

// LitBool is a boolean literal.
type LitBool bool

func (LitBool) literalValue() {}

// LitString is a string literal (used for the host-only string type).
type LitString string

func (LitString) literalValue() {}

// LitVector is a component-array literal used to initialize a vector,
// matrix, or array (the "arrays keyed by length" case of §4.C.2
// step 1(b)).
type LitVector []float64

func (LitVector) literalValue() {}
