package ir

// schema.go is Component A (spec.md §4.A): the static declaration of
// argument names, identifier-vs-value argument classification, the
// primary-resource argument, cpuOnly opcodes, and every overloaded
// signature. Every other component (edge reconstruction, the
// validator, the MSL generator) reads this table and never
// special-cases an opcode's shape again on its own.

// SigTypeKind discriminates a concrete DataType from a protocol token
// or the variadic wildcard (spec.md §4.A).
type SigTypeKind uint8

const (
	SigConcrete SigTypeKind = iota
	SigProtocolStruct
	SigProtocolArray
	SigAny
)

// SigType is one input or output slot of a Signature.
type SigType struct {
	Kind     SigTypeKind
	Concrete DataType // valid iff Kind == SigConcrete
}

func concrete(t DataType) SigType { return SigType{Kind: SigConcrete, Concrete: t} }

var (
	tFloat  = concrete(Scalar{Kind: ScalarFloat})
	tInt    = concrete(Scalar{Kind: ScalarInt})
	tBool   = concrete(Scalar{Kind: ScalarBool})
	tFloat2 = concrete(Vector{Size: 2, Kind: ScalarFloat})
	tFloat3 = concrete(Vector{Size: 3, Kind: ScalarFloat})
	tFloat4 = concrete(Vector{Size: 4, Kind: ScalarFloat})
	tInt2   = concrete(Vector{Size: 2, Kind: ScalarInt})
	tInt3   = concrete(Vector{Size: 3, Kind: ScalarInt})
	tInt4   = concrete(Vector{Size: 4, Kind: ScalarInt})
	tMat3   = concrete(Matrix{Size: 3})
	tMat4   = concrete(Matrix{Size: 4})
	tAny    = SigType{Kind: SigAny}
	tStruct = SigType{Kind: SigProtocolStruct}
	tArray  = SigType{Kind: SigProtocolArray}
)

// Signature is one (inputs -> output) overload of a polymorphic
// opcode (spec.md §4.A "Overloaded signatures"; Glossary "Overload
// signature").
type Signature struct {
	Inputs   map[string]SigType
	Output   SigType
	Variadic bool // true iff Inputs contains the "*" wildcard key
}

// OpSchema is everything the rest of the compiler needs to know about
// one opcode's shape (spec.md §4.A).
type OpSchema struct {
	Op              OpCode
	ArgNames        []string
	IdentifierArgs  map[string]bool // args that are id references, not values
	LiteralArgs     map[string]bool // args that are always static config, never a data edge
	PrimaryResource string          // empty if the op has none
	CPUOnly         bool
	Signatures      []Signature
}

// numericPairSignatures builds the standard binary-numeric overload
// set shared by every arithmetic/comparison op: scalar and vectors 2-4,
// float and int, same-family only (the strict override in infer.go
// rejects cross-family vector pairs even though the coercion lattice
// would otherwise match them).
func numericPairSignatures(outKind func(in SigType) SigType) []Signature {
	bases := []SigType{tFloat, tInt, tFloat2, tInt2, tFloat3, tInt3, tFloat4, tInt4}
	sigs := make([]Signature, 0, len(bases))
	for _, b := range bases {
		sigs = append(sigs, Signature{
			Inputs: map[string]SigType{"a": b, "b": b},
			Output: outKind(b),
		})
	}
	return sigs
}

func sameOut(in SigType) SigType { return in }

func boolOut(in SigType) SigType {
	if v, ok := in.Concrete.(Vector); ok {
		return concrete(Vector{Size: v.Size, Kind: ScalarBool})
	}
	return tBool
}

func unarySignatures() []Signature {
	bases := []SigType{tFloat, tFloat2, tFloat3, tFloat4}
	sigs := make([]Signature, 0, len(bases))
	for _, b := range bases {
		sigs = append(sigs, Signature{Inputs: map[string]SigType{"x": b}, Output: b})
	}
	return sigs
}

// Schema is the closed op -> OpSchema table (spec.md §4.A, §6.2).
var Schema = buildSchema()

func buildSchema() map[OpCode]OpSchema {
	s := map[OpCode]OpSchema{}

	binaryMath := []OpCode{OpMathAdd, OpMathSub, OpMathMul, OpMathDiv, OpMathMod, OpMathPow, OpMathMin, OpMathMax, OpMathAtan2}
	for _, op := range binaryMath {
		s[op] = OpSchema{Op: op, ArgNames: []string{"a", "b"}, Signatures: numericPairSignatures(sameOut)}
	}
	cmpMath := []OpCode{OpMathGt, OpMathLt, OpMathGe, OpMathLe, OpMathEq, OpMathNeq}
	for _, op := range cmpMath {
		s[op] = OpSchema{Op: op, ArgNames: []string{"a", "b"}, Signatures: numericPairSignatures(boolOut)}
	}
	logicMath := []OpCode{OpMathAnd, OpMathOr, OpMathXor}
	for _, op := range logicMath {
		s[op] = OpSchema{Op: op, ArgNames: []string{"a", "b"}, Signatures: []Signature{
			{Inputs: map[string]SigType{"a": tBool, "b": tBool}, Output: tBool},
		}}
	}
	s[OpMathNot] = OpSchema{Op: OpMathNot, ArgNames: []string{"a"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tBool}, Output: tBool},
	}}

	unaryMath := []OpCode{OpMathNeg, OpMathAbs, OpMathSqrt, OpMathSin, OpMathCos, OpMathTan,
		OpMathFloor, OpMathCeil, OpMathFract, OpMathExp, OpMathLog}
	for _, op := range unaryMath {
		s[op] = OpSchema{Op: op, ArgNames: []string{"x"}, Signatures: unarySignatures()}
	}
	s[OpMathClamp] = OpSchema{Op: OpMathClamp, ArgNames: []string{"x", "min", "max"}, Signatures: clampLikeSignatures()}
	s[OpMathMix] = OpSchema{Op: OpMathMix, ArgNames: []string{"a", "b", "t"}, Signatures: mixSignatures()}
	s[OpMathStep] = OpSchema{Op: OpMathStep, ArgNames: []string{"edge", "x"}, Signatures: clampLikeSignatures()[:0:0]}
	stepSigs := numericPairSignatures(sameOut)
	for i := range stepSigs {
		b := stepSigs[i].Inputs["a"]
		stepSigs[i].Inputs = map[string]SigType{"edge": b, "x": b}
	}
	s[OpMathStep] = OpSchema{Op: OpMathStep, ArgNames: []string{"edge", "x"}, Signatures: stepSigs}
	smoothstepSigs := clampLikeSignatures()
	for i := range smoothstepSigs {
		b := smoothstepSigs[i].Inputs["x"]
		smoothstepSigs[i].Inputs = map[string]SigType{"edge0": b, "edge1": b, "x": b}
	}
	s[OpMathSmoothstep] = OpSchema{Op: OpMathSmoothstep, ArgNames: []string{"edge0", "edge1", "x"}, Signatures: smoothstepSigs}
	s[OpMathPi] = OpSchema{Op: OpMathPi, ArgNames: nil, Signatures: []Signature{{Inputs: map[string]SigType{}, Output: tFloat}}}
	s[OpMathE] = OpSchema{Op: OpMathE, ArgNames: nil, Signatures: []Signature{{Inputs: map[string]SigType{}, Output: tFloat}}}

	// Vector constructors: float2|3|4, int2|3|4 all map onto
	// OpVecConstruct; the concrete target lives in Node.Literal["type"].
	s[OpVecConstruct] = OpSchema{Op: OpVecConstruct, ArgNames: []string{"*"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"*": tAny}, Output: tAny, Variadic: true},
	}}
	s[OpVecSwizzle] = OpSchema{Op: OpVecSwizzle, ArgNames: []string{"vec", "channels"}, IdentifierArgs: map[string]bool{"vec": true}, LiteralArgs: map[string]bool{"channels": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"vec": tFloat2}, Output: tAny},
		{Inputs: map[string]SigType{"vec": tFloat3}, Output: tAny},
		{Inputs: map[string]SigType{"vec": tFloat4}, Output: tAny},
		{Inputs: map[string]SigType{"vec": tInt2}, Output: tAny},
		{Inputs: map[string]SigType{"vec": tInt3}, Output: tAny},
		{Inputs: map[string]SigType{"vec": tInt4}, Output: tAny},
	}}
	s[OpVecGetElement] = OpSchema{Op: OpVecGetElement, ArgNames: []string{"source", "index"}, IdentifierArgs: map[string]bool{"source": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"source": tFloat2, "index": tInt}, Output: tFloat},
		{Inputs: map[string]SigType{"source": tFloat3, "index": tInt}, Output: tFloat},
		{Inputs: map[string]SigType{"source": tFloat4, "index": tInt}, Output: tFloat},
		{Inputs: map[string]SigType{"source": tInt2, "index": tInt}, Output: tInt},
		{Inputs: map[string]SigType{"source": tInt3, "index": tInt}, Output: tInt},
		{Inputs: map[string]SigType{"source": tInt4, "index": tInt}, Output: tInt},
		{Inputs: map[string]SigType{"source": tMat3, "index": tInt}, Output: tFloat},
		{Inputs: map[string]SigType{"source": tMat4, "index": tInt}, Output: tFloat},
	}}
	s[OpVecLength] = OpSchema{Op: OpVecLength, ArgNames: []string{"v"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"v": tFloat2}, Output: tFloat},
		{Inputs: map[string]SigType{"v": tFloat3}, Output: tFloat},
		{Inputs: map[string]SigType{"v": tFloat4}, Output: tFloat},
	}}
	s[OpVecDistance] = OpSchema{Op: OpVecDistance, ArgNames: []string{"a", "b"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tFloat2, "b": tFloat2}, Output: tFloat},
		{Inputs: map[string]SigType{"a": tFloat3, "b": tFloat3}, Output: tFloat},
		{Inputs: map[string]SigType{"a": tFloat4, "b": tFloat4}, Output: tFloat},
	}}
	s[OpVecNormalize] = OpSchema{Op: OpVecNormalize, ArgNames: []string{"v"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"v": tFloat2}, Output: tFloat2},
		{Inputs: map[string]SigType{"v": tFloat3}, Output: tFloat3},
		{Inputs: map[string]SigType{"v": tFloat4}, Output: tFloat4},
	}}
	s[OpVecDot] = OpSchema{Op: OpVecDot, ArgNames: []string{"a", "b"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tFloat2, "b": tFloat2}, Output: tFloat},
		{Inputs: map[string]SigType{"a": tFloat3, "b": tFloat3}, Output: tFloat},
		{Inputs: map[string]SigType{"a": tFloat4, "b": tFloat4}, Output: tFloat},
	}}
	s[OpVecCross] = OpSchema{Op: OpVecCross, ArgNames: []string{"a", "b"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tFloat3, "b": tFloat3}, Output: tFloat3},
	}}
	s[OpVecReflect] = OpSchema{Op: OpVecReflect, ArgNames: []string{"i", "n"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"i": tFloat2, "n": tFloat2}, Output: tFloat2},
		{Inputs: map[string]SigType{"i": tFloat3, "n": tFloat3}, Output: tFloat3},
		{Inputs: map[string]SigType{"i": tFloat4, "n": tFloat4}, Output: tFloat4},
	}}

	s[OpMatIdentity] = OpSchema{Op: OpMatIdentity, ArgNames: []string{"size"}, LiteralArgs: map[string]bool{"size": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{}, Output: tAny},
	}}
	s[OpMatTranspose] = OpSchema{Op: OpMatTranspose, ArgNames: []string{"m"}, IdentifierArgs: map[string]bool{"m": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"m": tMat3}, Output: tMat3},
		{Inputs: map[string]SigType{"m": tMat4}, Output: tMat4},
	}}
	s[OpMatInverse] = OpSchema{Op: OpMatInverse, ArgNames: []string{"m"}, IdentifierArgs: map[string]bool{"m": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"m": tMat3}, Output: tMat3},
		{Inputs: map[string]SigType{"m": tMat4}, Output: tMat4},
	}}
	s[OpMatMul] = OpSchema{Op: OpMatMul, ArgNames: []string{"a", "b"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tMat3, "b": tMat3}, Output: tMat3},
		{Inputs: map[string]SigType{"a": tMat4, "b": tMat4}, Output: tMat4},
		{Inputs: map[string]SigType{"a": tMat3, "b": tFloat3}, Output: tFloat3},
		{Inputs: map[string]SigType{"a": tMat4, "b": tFloat4}, Output: tFloat4},
	}}
	s[OpMatConstruct] = OpSchema{Op: OpMatConstruct, ArgNames: []string{"*"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"*": tAny}, Output: tAny, Variadic: true},
	}}

	s[OpQuatMul] = OpSchema{Op: OpQuatMul, ArgNames: []string{"a", "b"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tFloat4, "b": tFloat4}, Output: tFloat4},
	}}
	s[OpQuatRotate] = OpSchema{Op: OpQuatRotate, ArgNames: []string{"q", "v"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"q": tFloat4, "v": tFloat3}, Output: tFloat3},
	}}
	s[OpQuatSlerp] = OpSchema{Op: OpQuatSlerp, ArgNames: []string{"a", "b", "t"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"a": tFloat4, "b": tFloat4, "t": tFloat}, Output: tFloat4},
	}}
	s[OpQuatToMat4] = OpSchema{Op: OpQuatToMat4, ArgNames: []string{"q"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"q": tFloat4}, Output: tMat4},
	}}

	s[OpLiteral] = OpSchema{Op: OpLiteral, ArgNames: []string{"value", "type"}, LiteralArgs: map[string]bool{"value": true, "type": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{}, Output: tAny},
	}}
	s[OpVarGet] = OpSchema{Op: OpVarGet, ArgNames: []string{"name"}, IdentifierArgs: map[string]bool{"name": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"name": tAny}, Output: tAny},
	}}
	s[OpConstGet] = OpSchema{Op: OpConstGet, ArgNames: []string{"name", "value", "type"}, LiteralArgs: map[string]bool{"name": true, "value": true, "type": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{}, Output: tAny},
	}}
	s[OpBuiltinGet] = OpSchema{Op: OpBuiltinGet, ArgNames: []string{"name"}, LiteralArgs: map[string]bool{"name": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{}, Output: tAny},
	}}
	s[OpLoopIndex] = OpSchema{Op: OpLoopIndex, ArgNames: []string{"loop"}, IdentifierArgs: map[string]bool{"loop": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"loop": tAny}, Output: tInt},
	}}
	s[OpColorMix] = OpSchema{Op: OpColorMix, ArgNames: []string{"base", "blend", "t"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"base": tFloat4, "blend": tFloat4, "t": tFloat}, Output: tFloat4},
	}}
	s[OpComment] = OpSchema{Op: OpComment, ArgNames: []string{"text"}, Signatures: nil}

	s[OpBufferLoad] = OpSchema{Op: OpBufferLoad, ArgNames: []string{"buffer", "index"}, IdentifierArgs: map[string]bool{"buffer": true}, PrimaryResource: "buffer", Signatures: []Signature{
		{Inputs: map[string]SigType{"buffer": tAny, "index": tInt}, Output: tAny},
	}}
	s[OpTextureSample] = OpSchema{Op: OpTextureSample, ArgNames: []string{"texture", "sampler", "uv"}, IdentifierArgs: map[string]bool{"texture": true, "sampler": true}, PrimaryResource: "texture", Signatures: []Signature{
		{Inputs: map[string]SigType{"texture": tAny, "sampler": tAny, "uv": tFloat2}, Output: tFloat4},
	}}
	s[OpTextureLoad] = OpSchema{Op: OpTextureLoad, ArgNames: []string{"texture", "coord"}, IdentifierArgs: map[string]bool{"texture": true}, PrimaryResource: "texture", Signatures: []Signature{
		{Inputs: map[string]SigType{"texture": tAny, "coord": tInt2}, Output: tFloat4},
	}}
	s[OpResourceGetSize] = OpSchema{Op: OpResourceGetSize, ArgNames: []string{"resource"}, IdentifierArgs: map[string]bool{"resource": true}, PrimaryResource: "resource", Signatures: []Signature{
		{Inputs: map[string]SigType{"resource": tAny}, Output: tFloat2},
	}}
	s[OpResourceGetFormat] = OpSchema{Op: OpResourceGetFormat, ArgNames: []string{"resource"}, IdentifierArgs: map[string]bool{"resource": true}, PrimaryResource: "resource", Signatures: []Signature{
		{Inputs: map[string]SigType{"resource": tAny}, Output: tInt},
	}}
	s[OpStructConstruct] = OpSchema{Op: OpStructConstruct, ArgNames: []string{"type", "*"}, LiteralArgs: map[string]bool{"type": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"*": tAny}, Output: tStruct, Variadic: true},
	}}
	s[OpStructExtract] = OpSchema{Op: OpStructExtract, ArgNames: []string{"source", "member"}, IdentifierArgs: map[string]bool{"source": true}, LiteralArgs: map[string]bool{"member": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"source": tStruct}, Output: tAny},
	}}
	s[OpArrayConstruct] = OpSchema{Op: OpArrayConstruct, ArgNames: []string{"length", "fill", "values"}, LiteralArgs: map[string]bool{"length": true, "fill": true, "values": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{}, Output: tArray},
	}}
	s[OpArrayExtract] = OpSchema{Op: OpArrayExtract, ArgNames: []string{"array", "index"}, IdentifierArgs: map[string]bool{"array": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"array": tArray, "index": tInt}, Output: tAny},
	}}
	s[OpArrayLength] = OpSchema{Op: OpArrayLength, ArgNames: []string{"array"}, IdentifierArgs: map[string]bool{"array": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"array": tArray}, Output: tInt},
	}}

	castOps := map[OpCode]SigType{
		OpStaticCastFloat: tFloat, OpStaticCastFloat2: tFloat2, OpStaticCastFloat3: tFloat3, OpStaticCastFloat4: tFloat4,
		OpStaticCastInt: tInt, OpStaticCastInt2: tInt2, OpStaticCastInt3: tInt3, OpStaticCastInt4: tInt4,
	}
	for op, out := range castOps {
		s[op] = OpSchema{Op: op, ArgNames: []string{"x"}, Signatures: []Signature{
			{Inputs: map[string]SigType{"x": tAny}, Output: out},
		}}
	}

	s[OpVarSet] = OpSchema{Op: OpVarSet, ArgNames: []string{"name", "val"}, IdentifierArgs: map[string]bool{"name": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"name": tAny, "val": tAny}, Output: tAny},
	}}
	s[OpArraySet] = OpSchema{Op: OpArraySet, ArgNames: []string{"array", "index", "value"}, IdentifierArgs: map[string]bool{"array": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"array": tArray, "index": tInt, "value": tAny}, Output: tAny},
	}}
	s[OpBufferStore] = OpSchema{Op: OpBufferStore, ArgNames: []string{"buffer", "index", "value"}, IdentifierArgs: map[string]bool{"buffer": true}, PrimaryResource: "buffer", Signatures: []Signature{
		{Inputs: map[string]SigType{"buffer": tAny, "index": tInt, "value": tAny}, Output: tAny},
	}}
	s[OpTextureStore] = OpSchema{Op: OpTextureStore, ArgNames: []string{"texture", "coord", "value"}, IdentifierArgs: map[string]bool{"texture": true}, PrimaryResource: "texture", Signatures: []Signature{
		{Inputs: map[string]SigType{"texture": tAny, "coord": tInt2, "value": tFloat4}, Output: tAny},
	}}

	s[OpFlowBranch] = OpSchema{Op: OpFlowBranch, ArgNames: []string{"cond"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"cond": tBool}, Output: tAny},
	}}
	s[OpFlowLoop] = OpSchema{Op: OpFlowLoop, ArgNames: []string{"start", "end", "count"}, LiteralArgs: map[string]bool{"start": true, "end": true, "count": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{}, Output: tAny},
	}}
	s[OpCallFunc] = OpSchema{Op: OpCallFunc, ArgNames: []string{"function", "*"}, IdentifierArgs: map[string]bool{"function": true}, Signatures: []Signature{
		{Inputs: map[string]SigType{"*": tAny}, Output: tAny, Variadic: true},
	}}
	s[OpFuncReturn] = OpSchema{Op: OpFuncReturn, ArgNames: []string{"val"}, Signatures: []Signature{
		{Inputs: map[string]SigType{"val": tAny}, Output: tAny},
	}}

	atomicOps := []OpCode{OpAtomicLoad, OpAtomicStore, OpAtomicAdd, OpAtomicSub, OpAtomicMin, OpAtomicMax, OpAtomicExchange}
	for _, op := range atomicOps {
		args := []string{"resource"}
		inputs := map[string]SigType{"resource": tAny}
		if op != OpAtomicLoad {
			args = append(args, "value")
			inputs["value"] = tInt
		}
		s[op] = OpSchema{Op: op, ArgNames: args, IdentifierArgs: map[string]bool{"resource": true}, PrimaryResource: "resource", Signatures: []Signature{
			{Inputs: inputs, Output: tInt},
		}}
	}

	s[OpCmdDispatch] = OpSchema{Op: OpCmdDispatch, ArgNames: []string{"function", "size"}, IdentifierArgs: map[string]bool{"function": true}, LiteralArgs: map[string]bool{"size": true}, CPUOnly: true, Signatures: nil}
	s[OpCmdResizeResource] = OpSchema{Op: OpCmdResizeResource, ArgNames: []string{"resource", "size"}, IdentifierArgs: map[string]bool{"resource": true}, LiteralArgs: map[string]bool{"size": true}, PrimaryResource: "resource", CPUOnly: true, Signatures: nil}
	s[OpCmdDraw] = OpSchema{Op: OpCmdDraw, ArgNames: []string{"pipeline", "target", "vertex_count"}, IdentifierArgs: map[string]bool{"target": true}, LiteralArgs: map[string]bool{"pipeline": true, "vertex_count": true}, PrimaryResource: "target", CPUOnly: true, Signatures: nil}
	s[OpCmdSyncToCPU] = OpSchema{Op: OpCmdSyncToCPU, ArgNames: []string{"resource"}, IdentifierArgs: map[string]bool{"resource": true}, PrimaryResource: "resource", CPUOnly: true, Signatures: nil}
	s[OpCmdWaitCPUSync] = OpSchema{Op: OpCmdWaitCPUSync, ArgNames: []string{"resource"}, IdentifierArgs: map[string]bool{"resource": true}, PrimaryResource: "resource", CPUOnly: true, Signatures: nil}
	s[OpCmdCopyBuffer] = OpSchema{Op: OpCmdCopyBuffer, ArgNames: []string{"src", "dst"}, IdentifierArgs: map[string]bool{"src": true, "dst": true}, CPUOnly: true, Signatures: nil}
	s[OpCmdCopyTexture] = OpSchema{Op: OpCmdCopyTexture, ArgNames: []string{"src", "dst"}, IdentifierArgs: map[string]bool{"src": true, "dst": true}, CPUOnly: true, Signatures: nil}

	return s
}

func clampLikeSignatures() []Signature {
	bases := []SigType{tFloat, tFloat2, tFloat3, tFloat4}
	sigs := make([]Signature, 0, len(bases))
	for _, b := range bases {
		sigs = append(sigs, Signature{Inputs: map[string]SigType{"x": b, "min": b, "max": b}, Output: b})
	}
	return sigs
}

func mixSignatures() []Signature {
	bases := []SigType{tFloat, tFloat2, tFloat3, tFloat4}
	sigs := make([]Signature, 0, len(bases))
	for _, b := range bases {
		sigs = append(sigs, Signature{Inputs: map[string]SigType{"a": b, "b": b, "t": tFloat}, Output: b})
	}
	return sigs
}

// PureOps is the closed set of side-effect-free opcodes (spec.md §3.3).
var PureOps = buildPureOps()

func buildPureOps() map[OpCode]bool {
	m := map[OpCode]bool{}
	for op := range Schema {
		m[op] = true
	}
	executable := []OpCode{
		OpVarSet, OpArraySet, OpBufferStore, OpTextureStore,
		OpFlowBranch, OpFlowLoop, OpCallFunc, OpFuncReturn,
		OpAtomicLoad, OpAtomicStore, OpAtomicAdd, OpAtomicSub, OpAtomicMin, OpAtomicMax, OpAtomicExchange,
		OpCmdDispatch, OpCmdResizeResource, OpCmdDraw, OpCmdSyncToCPU, OpCmdWaitCPUSync, OpCmdCopyBuffer, OpCmdCopyTexture,
	}
	for _, op := range executable {
		delete(m, op)
	}
	delete(m, OpComment) // comment is inert: neither pure-emitted nor executable
	return m
}

// IsPure reports whether op is a pure (lazily evaluated, side-effect
// free) node kind.
func IsPure(op OpCode) bool { return PureOps[op] }

// BuiltinTypes maps each builtin_get name to its produced type
// (spec.md §4.A, §6.4).
var BuiltinTypes = map[string]DataType{
	"global_invocation_id":            Vector{Size: 3, Kind: ScalarInt},
	"normalized_global_invocation_id": tFloat3.Concrete,
	"output_size":                     Vector{Size: 3, Kind: ScalarInt},
	"vertex_index":                    Scalar{Kind: ScalarInt},
	"frag_coord":                      tFloat4.Concrete,
	"front_facing":                    Scalar{Kind: ScalarBool},
	"num_workgroups":                  Vector{Size: 3, Kind: ScalarInt},
	"time":                            Scalar{Kind: ScalarFloat},
	"delta_time":                      Scalar{Kind: ScalarFloat},
	"bpm":                             Scalar{Kind: ScalarFloat},
	"beat_number":                     Scalar{Kind: ScalarFloat},
	"beat_delta":                      Scalar{Kind: ScalarFloat},
}

// BuiltinCPUAllowed is the subset of BuiltinTypes legal inside a cpu
// function (spec.md §4.A, §4.C.1); all are float.
var BuiltinCPUAllowed = map[string]bool{
	"time": true, "delta_time": true, "bpm": true, "beat_number": true, "beat_delta": true,
}
