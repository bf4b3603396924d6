package msl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nattos/shadergraph/ir"
)

// emitStatement lowers one executable (side-effecting) node as a
// standalone MSL statement.
func (w *Writer) emitStatement(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	switch node.Op {
	case ir.OpVarSet:
		return w.emitVarSet(fn, node, sc)
	case ir.OpArraySet:
		return w.emitArraySet(fn, node, sc)
	case ir.OpBufferStore:
		return w.emitBufferStore(fn, node, sc)
	case ir.OpTextureStore:
		return w.emitTextureStore(fn, node, sc)
	case ir.OpAtomicLoad, ir.OpAtomicStore, ir.OpAtomicAdd, ir.OpAtomicSub, ir.OpAtomicMin, ir.OpAtomicMax, ir.OpAtomicExchange:
		return w.emitAtomic(fn, node, sc)
	case ir.OpCallFunc:
		expr, err := w.lowerCallFunc(fn, node, sc)
		if err != nil {
			return err
		}
		w.writef("%s;", expr)
		return nil
	case ir.OpFuncReturn:
		return w.emitFuncReturn(fn, node, sc)
	case ir.OpCmdDispatch, ir.OpCmdResizeResource, ir.OpCmdDraw, ir.OpCmdSyncToCPU, ir.OpCmdWaitCPUSync, ir.OpCmdCopyBuffer, ir.OpCmdCopyTexture:
		// CPU-only command ops never reach a shader-stage writer; the
		// validator rejects a cpuOnly op inside a shader function, and
		// this backend only ever lowers shader-tagged entry points.
		return fmt.Errorf("msl: cpuOnly op %q reached the shader lowerer", node.Op)
	default:
		return fmt.Errorf("msl: unsupported executable op %q reached the lowerer", node.Op)
	}
}

func (w *Writer) emitVarSet(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	ref, ok := node.Args["name"]
	if !ok || ref.Kind != ir.RefNode {
		return fmt.Errorf("msl: var_set %q missing var target", node.ID)
	}
	val, err := w.lowerArg(fn, node, "val", sc)
	if err != nil {
		return err
	}
	name, err := w.targetVarName(fn, ref.RefID)
	if err != nil {
		return err
	}
	w.writef("%s = %s;", name, val)
	return nil
}

// targetVarName resolves a var_set/var_get target id to the MSL
// lvalue that backs it: a declared local, a function input, or an
// unpacked global input.
func (w *Writer) targetVarName(fn *ir.FunctionDef, id string) (string, error) {
	for _, lv := range fn.LocalVars {
		if lv.Name == id {
			return w.localVarName(fn, id), nil
		}
	}
	for _, in := range fn.Inputs {
		if in.Name == id {
			return w.sanitizeId(fn.ID + ".in." + id), nil
		}
	}
	return w.sanitizeId(id), nil
}

func (w *Writer) emitArraySet(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	arr, err := w.lowerArg(fn, node, "array", sc)
	if err != nil {
		return err
	}
	idx, err := w.lowerArg(fn, node, "index", sc)
	if err != nil {
		return err
	}
	val, err := w.lowerArg(fn, node, "value", sc)
	if err != nil {
		return err
	}
	w.writef("%s[%s] = %s;", arr, idx, val)
	return nil
}

func (w *Writer) emitBufferStore(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	bufRef := node.Args["buffer"]
	idx, err := w.lowerArg(fn, node, "index", sc)
	if err != nil {
		return err
	}
	val, err := w.lowerArg(fn, node, "value", sc)
	if err != nil {
		return err
	}
	w.writef("%s[%s] = %s;", w.sanitizeId(bufRef.RefID), idx, val)
	return nil
}

func (w *Writer) emitTextureStore(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	texRef := node.Args["texture"]
	coord, err := w.lowerArg(fn, node, "coord", sc)
	if err != nil {
		return err
	}
	val, err := w.lowerArg(fn, node, "value", sc)
	if err != nil {
		return err
	}
	w.writef("%s.write(%s, uint2(%s));", w.sanitizeId(texRef.RefID), val, coord)
	return nil
}

var atomicOps = map[ir.OpCode]string{
	ir.OpAtomicAdd:      "atomic_fetch_add_explicit",
	ir.OpAtomicSub:      "atomic_fetch_sub_explicit",
	ir.OpAtomicMin:      "atomic_fetch_min_explicit",
	ir.OpAtomicMax:      "atomic_fetch_max_explicit",
	ir.OpAtomicExchange: "atomic_exchange_explicit",
}

func (w *Writer) emitAtomic(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	resRef := node.Args["resource"]
	target := w.sanitizeId(resRef.RefID)
	switch node.Op {
	case ir.OpAtomicLoad:
		w.writef("%s = atomic_load_explicit(%s, memory_order_relaxed);", w.pureName(node.ID), target)
	case ir.OpAtomicStore:
		val, err := w.lowerArg(fn, node, "value", sc)
		if err != nil {
			return err
		}
		w.writef("atomic_store_explicit(%s, %s, memory_order_relaxed);", target, val)
	default:
		fnName, ok := atomicOps[node.Op]
		if !ok {
			return fmt.Errorf("msl: unsupported atomic op %q", node.Op)
		}
		val, err := w.lowerArg(fn, node, "value", sc)
		if err != nil {
			return err
		}
		w.writef("%s(%s, %s, memory_order_relaxed);", fnName, target, val)
	}
	return nil
}

func (w *Writer) emitFuncReturn(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	if _, ok := node.Args["val"]; !ok {
		w.writeLine("return;")
		return nil
	}
	val, err := w.lowerArg(fn, node, "val", sc)
	if err != nil {
		return err
	}
	w.writef("return %s;", val)
	return nil
}

// emitPure is idempotent per scope (spec.md §4.D.4): it emits nodeID's
// declaration at most once per scope, recursing into its data
// dependencies first.
func (w *Writer) emitPure(fn *ir.FunctionDef, nodeID string, sc *scope) error {
	if sc.emitted[nodeID] {
		return nil
	}
	sc.emitted[nodeID] = true
	node, ok := fn.NodeByID(nodeID)
	if !ok {
		return fmt.Errorf("msl: unknown node %q", nodeID)
	}

	switch node.Op {
	case ir.OpArrayConstruct:
		return w.emitArrayConstructDecl(fn, node, sc)
	case ir.OpStructConstruct:
		expr, err := w.lowerStructConstruct(fn, node, sc)
		if err != nil {
			return err
		}
		w.writef("auto %s = %s;", w.pureName(node.ID), expr)
		return nil
	case ir.OpComment, ir.OpLoopIndex:
		return nil
	default:
		expr, err := w.lowerExpr(fn, node, sc)
		if err != nil {
			return err
		}
		w.writef("auto %s = %s;", w.pureName(node.ID), expr)
		return nil
	}
}

func (w *Writer) emitArrayConstructDecl(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	values, _ := node.Literal["values"].([]any)
	elemType, err := w.arrayConstructElemType(fn, node, sc)
	if err != nil {
		return err
	}
	n := len(values)
	if lenLit, ok := node.Literal["length"]; ok {
		if f, ok := lenLit.(float64); ok {
			n = int(f)
		}
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(values) {
			expr, err := w.literalOrRefExpr(fn, values[i], sc)
			if err != nil {
				return err
			}
			parts = append(parts, expr)
			continue
		}
		if fill, ok := node.Literal["fill"]; ok {
			expr, err := w.literalOrRefExpr(fn, fill, sc)
			if err != nil {
				return err
			}
			parts = append(parts, expr)
			continue
		}
		parts = append(parts, w.zeroLiteral(elemType))
	}
	w.writef("array<%s, %d> %s = { %s };", w.typeName(elemType), n, w.pureName(node.ID), strings.Join(parts, ", "))
	return nil
}

func (w *Writer) arrayConstructElemType(fn *ir.FunctionDef, node *ir.Node, sc *scope) (ir.DataType, error) {
	if arr, ok := w.resultTypeHint(node).(ir.Array); ok {
		return arr.Elem, nil
	}
	return ir.Scalar{Kind: ir.ScalarFloat}, nil
}

func (w *Writer) literalOrRefExpr(fn *ir.FunctionDef, v any, sc *scope) (string, error) {
	switch x := v.(type) {
	case float64:
		return formatFloat(x), nil
	case string:
		if target, ok := fn.NodeByID(x); ok {
			if err := w.emitPure(fn, target.ID, sc); err != nil {
				return "", err
			}
			return w.pureName(target.ID), nil
		}
		return w.sanitizeId(x), nil
	default:
		return "", fmt.Errorf("msl: unsupported array element literal %T", v)
	}
}

// lowerArg resolves argName on node to its MSL expression text,
// emitting the referenced pure node's declaration first if needed.
func (w *Writer) lowerArg(fn *ir.FunctionDef, node *ir.Node, argName string, sc *scope) (string, error) {
	ref, ok := node.Args[argName]
	if !ok {
		return "", fmt.Errorf("msl: node %q missing arg %q", node.ID, argName)
	}
	return w.lowerRef(fn, ref, sc)
}

func (w *Writer) lowerRef(fn *ir.FunctionDef, ref ir.ValueRef, sc *scope) (string, error) {
	var base string
	switch ref.Kind {
	case ir.RefLiteral:
		base = w.literalValueExpr(ref.Literal)
	case ir.RefNode:
		if target, ok := fn.NodeByID(ref.RefID); ok {
			if target.Op == ir.OpLoopIndex {
				loopRef, ok := target.Args["loop"]
				if !ok {
					return "", fmt.Errorf("msl: loop_index %q missing loop arg", target.ID)
				}
				base = w.pureName(loopRef.RefID)
			} else {
				if err := w.emitPure(fn, target.ID, sc); err != nil {
					return "", err
				}
				base = w.pureName(target.ID)
			}
		} else {
			name, err := w.targetVarName(fn, ref.RefID)
			if err != nil {
				return "", err
			}
			base = name
		}
	}
	if ref.Swizzle != "" {
		return base + "." + ref.Swizzle, nil
	}
	return base, nil
}

func (w *Writer) literalValueExpr(lit ir.LiteralValue) string {
	switch v := lit.(type) {
	case ir.LitFloat:
		return formatFloat(float64(v))
	case ir.LitBool:
		if v {
			return "true"
		}
		return "false"
	case ir.LitString:
		return strconv.Quote(string(v))
	case ir.LitVector:
		parts := make([]string, len(v))
		for i, f := range v {
			parts[i] = formatFloat(f)
		}
		return fmt.Sprintf("float%d(%s)", len(v), strings.Join(parts, ", "))
	default:
		return "0.0"
	}
}

// literalExpr formats a LiteralValue coerced to t's MSL spelling,
// used for LocalVar.Initial (spec.md §3.2).
func (w *Writer) literalExpr(t ir.DataType, lit ir.LiteralValue) string {
	return w.literalValueExpr(lit)
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d.0", int64(f))
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

var binaryOperators = map[ir.OpCode]string{
	ir.OpMathAdd: "+", ir.OpMathSub: "-", ir.OpMathMul: "*",
}

var cmpHelpers = map[ir.OpCode]string{
	ir.OpMathGt: "cmp_gt", ir.OpMathLt: "cmp_lt", ir.OpMathGe: "cmp_ge",
	ir.OpMathLe: "cmp_le", ir.OpMathEq: "cmp_eq", ir.OpMathNeq: "cmp_neq",
}

var unaryFuncs = map[ir.OpCode]string{
	ir.OpMathAbs: "abs", ir.OpMathSqrt: "sqrt", ir.OpMathSin: "sin",
	ir.OpMathCos: "cos", ir.OpMathTan: "tan", ir.OpMathFloor: "floor",
	ir.OpMathCeil: "ceil", ir.OpMathFract: "fract", ir.OpMathExp: "exp",
	ir.OpMathLog: "log",
}

// Coercion modes for resolveCoercedArgs (spec.md §4.D.5).
const (
	coerceNone  = ""      // no wrapping; args lower verbatim (vector/quaternion ops)
	coerceFloat = "float" // int/intN/bool args always wrap to float/floatN
	coerceUnify = "unify" // int/intN/bool args wrap only if another arg in the group is float
)

// resolveCoercedArgs lowers node's keys arguments and applies the
// numeric coercion pass-2 validation already allows (spec.md §4.D.5,
// §9 pass-2 int<->float coercion): an overloaded intrinsic or helper
// that only has a float/floatN signature (cmp_gt, pow, mix, ...)
// needs every operand wrapped regardless of its declared type
// (mode==coerceFloat); one that is natively overloaded for both int
// and float (safe_div, safe_mod, min, max, the arithmetic operators)
// only needs wrapping when the group is mixed, so an all-int group
// still resolves against the int overload (mode==coerceUnify).
func (w *Writer) resolveCoercedArgs(fn *ir.FunctionDef, node *ir.Node, keys []string, sc *scope, mode string) ([]string, error) {
	exprs := make([]string, len(keys))
	types := make([]ir.DataType, len(keys))
	anyFloat := false
	for i, k := range keys {
		ref, ok := node.Args[k]
		if !ok {
			return nil, fmt.Errorf("msl: node %q missing arg %q", node.ID, k)
		}
		expr, err := w.lowerRef(fn, ref, sc)
		if err != nil {
			return nil, err
		}
		exprs[i] = expr
		t := w.refDataType(fn, ref)
		types[i] = t
		if isFloatKind(t) {
			anyFloat = true
		}
	}
	if mode == coerceNone || (mode == coerceUnify && !anyFloat) {
		return exprs, nil
	}
	for i, t := range types {
		if isIntKind(t) || isBoolKind(t) {
			exprs[i] = wrapToFloat(exprs[i], t)
		}
	}
	return exprs, nil
}

// refDataType is a best-effort type lookup for a ValueRef, used only
// to decide whether resolveCoercedArgs needs to wrap an operand; an
// unresolved type (nil) is treated as already float, the common case.
func (w *Writer) refDataType(fn *ir.FunctionDef, ref ir.ValueRef) ir.DataType {
	switch ref.Kind {
	case ir.RefLiteral:
		switch v := ref.Literal.(type) {
		case ir.LitFloat:
			return ir.Scalar{Kind: ir.ScalarFloat}
		case ir.LitBool:
			return ir.Scalar{Kind: ir.ScalarBool}
		case ir.LitVector:
			return ir.Vector{Size: uint8(len(v)), Kind: ir.ScalarFloat}
		}
		return nil
	case ir.RefNode:
		if target, ok := fn.NodeByID(ref.RefID); ok {
			return w.resultTypeHint(target)
		}
		for _, lv := range fn.LocalVars {
			if lv.Name == ref.RefID {
				return lv.Type
			}
		}
		for _, in := range fn.Inputs {
			if in.Name == ref.RefID {
				return in.Type
			}
		}
		for _, out := range fn.Outputs {
			if out.Name == ref.RefID {
				return out.Type
			}
		}
		for _, in := range w.doc.Inputs {
			if in.ID == ref.RefID {
				return in.Type
			}
		}
	}
	return nil
}

func isIntKind(t ir.DataType) bool {
	switch v := t.(type) {
	case ir.Scalar:
		return v.Kind == ir.ScalarInt
	case ir.Vector:
		return v.Kind == ir.ScalarInt
	}
	return false
}

func isFloatKind(t ir.DataType) bool {
	switch v := t.(type) {
	case ir.Scalar:
		return v.Kind == ir.ScalarFloat
	case ir.Vector:
		return v.Kind == ir.ScalarFloat
	}
	return false
}

func isBoolKind(t ir.DataType) bool {
	s, ok := t.(ir.Scalar)
	return ok && s.Kind == ir.ScalarBool
}

func wrapToFloat(expr string, t ir.DataType) string {
	if v, ok := t.(ir.Vector); ok {
		return fmt.Sprintf("float%d(%s)", v.Size, expr)
	}
	return fmt.Sprintf("float(%s)", expr)
}

// lowerExpr lowers a pure node's op into its MSL right-hand-side
// expression text (spec.md §4.D.5). Callers (emitPure/lowerArg) are
// responsible for binding it to a declaration or inlining it.
func (w *Writer) lowerExpr(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	arg := func(name string) (string, error) { return w.lowerArg(fn, node, name, sc) }

	switch node.Op {
	case ir.OpMathAdd, ir.OpMathSub, ir.OpMathMul:
		args, err := w.resolveCoercedArgs(fn, node, []string{"a", "b"}, sc, coerceUnify)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", args[0], binaryOperators[node.Op], args[1]), nil
	case ir.OpMathDiv:
		args, err := w.resolveCoercedArgs(fn, node, []string{"a", "b"}, sc, coerceUnify)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("safe_div(%s, %s)", args[0], args[1]), nil
	case ir.OpMathMod:
		args, err := w.resolveCoercedArgs(fn, node, []string{"a", "b"}, sc, coerceUnify)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("safe_mod(%s, %s)", args[0], args[1]), nil
	case ir.OpMathPow:
		return w.binaryFunc(fn, node, sc, "pow", coerceFloat)
	case ir.OpMathMin:
		return w.binaryFunc(fn, node, sc, "min", coerceUnify)
	case ir.OpMathMax:
		return w.binaryFunc(fn, node, sc, "max", coerceUnify)
	case ir.OpMathAtan2:
		return w.binaryFunc(fn, node, sc, "atan2", coerceFloat)
	case ir.OpMathGt, ir.OpMathLt, ir.OpMathGe, ir.OpMathLe, ir.OpMathEq, ir.OpMathNeq:
		return w.binaryFunc(fn, node, sc, cmpHelpers[node.Op], coerceFloat)
	case ir.OpMathAnd:
		return w.logicalPair(fn, node, sc, "&&")
	case ir.OpMathOr:
		return w.logicalPair(fn, node, sc, "||")
	case ir.OpMathXor:
		a, err := arg("a")
		if err != nil {
			return "", err
		}
		b, err := arg("b")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(((%s != 0.0) != (%s != 0.0)) ? 1.0 : 0.0)", a, b), nil
	case ir.OpMathNot:
		a, err := arg("a")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("((%s == 0.0) ? 1.0 : 0.0)", a), nil
	case ir.OpMathNeg:
		a, err := arg("x")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(-%s)", a), nil
	case ir.OpMathAbs, ir.OpMathSqrt, ir.OpMathSin, ir.OpMathCos, ir.OpMathTan, ir.OpMathFloor, ir.OpMathCeil, ir.OpMathFract, ir.OpMathExp, ir.OpMathLog:
		a, err := arg("x")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s(%s)", unaryFuncs[node.Op], a), nil
	case ir.OpMathClamp:
		return w.ternaryFunc(fn, node, sc, "clamp", "x", "min", "max", coerceUnify)
	case ir.OpMathMix:
		return w.ternaryFunc(fn, node, sc, "mix", "a", "b", "t", coerceFloat)
	case ir.OpMathStep:
		return w.binaryFuncNamed(fn, node, sc, "step", "edge", "x", coerceFloat)
	case ir.OpMathSmoothstep:
		return w.ternaryFunc(fn, node, sc, "smoothstep", "edge0", "edge1", "x", coerceFloat)
	case ir.OpMathPi:
		return "3.14159265358979323846", nil
	case ir.OpMathE:
		return "2.71828182845904523536", nil

	case ir.OpVecConstruct:
		return w.lowerVecConstruct(fn, node, sc)
	case ir.OpVecSwizzle:
		a, err := arg("vec")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s", a, node.Literal["channels"]), nil
	case ir.OpVecGetElement:
		return w.lowerVecGetElement(fn, node, sc)
	case ir.OpVecLength:
		a, err := arg("v")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("length(%s)", a), nil
	case ir.OpVecNormalize:
		a, err := arg("v")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("normalize(%s)", a), nil
	case ir.OpVecDot:
		return w.binaryFuncNamed(fn, node, sc, "dot", "a", "b", coerceNone)
	case ir.OpVecCross:
		return w.binaryFuncNamed(fn, node, sc, "cross", "a", "b", coerceNone)
	case ir.OpVecDistance:
		return w.binaryFuncNamed(fn, node, sc, "distance", "a", "b", coerceNone)
	case ir.OpVecReflect:
		return w.binaryFuncNamed(fn, node, sc, "reflect", "i", "n", coerceNone)

	case ir.OpMatIdentity:
		size := 4
		if f, ok := node.Literal["size"].(float64); ok {
			size = int(f)
		}
		return fmt.Sprintf("float%dx%d(1.0)", size, size), nil
	case ir.OpMatTranspose:
		a, err := arg("m")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("transpose(%s)", a), nil
	case ir.OpMatInverse:
		return w.lowerMatInverse(fn, node, sc)
	case ir.OpMatMul:
		a, err := arg("a")
		if err != nil {
			return "", err
		}
		b, err := arg("b")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s * %s)", a, b), nil
	case ir.OpMatConstruct:
		return w.lowerMatConstruct(fn, node, sc)

	case ir.OpQuatMul:
		return w.binaryFuncNamed(fn, node, sc, "quat_mul_impl", "a", "b", coerceNone)
	case ir.OpQuatRotate:
		return w.binaryFuncNamed(fn, node, sc, "quat_rotate_impl", "q", "v", coerceNone)
	case ir.OpQuatSlerp:
		return w.ternaryFunc(fn, node, sc, "quat_slerp_impl", "a", "b", "t", coerceNone)
	case ir.OpQuatToMat4:
		a, err := arg("q")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("quat_to_mat4_impl(%s)", a), nil

	case ir.OpLiteral, ir.OpConstGet:
		return w.lowerLiteralNode(node), nil
	case ir.OpVarGet:
		return w.lowerVarGet(fn, node)
	case ir.OpBufferLoad:
		return w.lowerBufferLoad(fn, node, sc)
	case ir.OpTextureSample:
		return w.lowerTextureSample(fn, node, sc)
	case ir.OpTextureLoad:
		return w.lowerTextureLoad(fn, node, sc)
	case ir.OpResourceGetSize:
		return w.lowerResourceGetSize(fn, node)
	case ir.OpResourceGetFormat:
		return w.lowerResourceGetFormat(fn, node)
	case ir.OpStructExtract:
		a, err := arg("source")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.%s", a, node.Literal["member"]), nil
	case ir.OpArrayExtract:
		a, err := arg("array")
		if err != nil {
			return "", err
		}
		idx, err := arg("index")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s[%s]", a, idx), nil
	case ir.OpArrayLength:
		return w.lowerArrayLength(fn, node)
	case ir.OpStaticCastFloat, ir.OpStaticCastFloat2, ir.OpStaticCastFloat3, ir.OpStaticCastFloat4:
		return w.lowerStaticCastFloat(fn, node, sc)
	case ir.OpStaticCastInt, ir.OpStaticCastInt2, ir.OpStaticCastInt3, ir.OpStaticCastInt4:
		return w.lowerStaticCastInt(fn, node, sc)
	case ir.OpBuiltinGet:
		return w.lowerBuiltinGet(node)
	case ir.OpColorMix:
		return w.ternaryFunc(fn, node, sc, "color_mix_impl", "base", "blend", "t", coerceFloat)
	case ir.OpCallFunc:
		return w.lowerCallFunc(fn, node, sc)
	}
	return "", fmt.Errorf("msl: unsupported op %q reached the lowerer", node.Op)
}

func (w *Writer) binaryFunc(fn *ir.FunctionDef, node *ir.Node, sc *scope, fname, mode string) (string, error) {
	return w.binaryFuncNamed(fn, node, sc, fname, "a", "b", mode)
}

func (w *Writer) binaryFuncNamed(fn *ir.FunctionDef, node *ir.Node, sc *scope, fname, argA, argB, mode string) (string, error) {
	args, err := w.resolveCoercedArgs(fn, node, []string{argA, argB}, sc, mode)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s, %s)", fname, args[0], args[1]), nil
}

func (w *Writer) ternaryFunc(fn *ir.FunctionDef, node *ir.Node, sc *scope, fname, n1, n2, n3, mode string) (string, error) {
	args, err := w.resolveCoercedArgs(fn, node, []string{n1, n2, n3}, sc, mode)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s(%s, %s, %s)", fname, args[0], args[1], args[2]), nil
}

func (w *Writer) logicalPair(fn *ir.FunctionDef, node *ir.Node, sc *scope, op string) (string, error) {
	a, err := w.lowerArg(fn, node, "a", sc)
	if err != nil {
		return "", err
	}
	b, err := w.lowerArg(fn, node, "b", sc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("(((%s != 0.0) %s (%s != 0.0)) ? 1.0 : 0.0)", a, op, b), nil
}

// vectorComponentGroupOrder lists the component-group keys of
// ir/infer.go's vectorComponentGroup in a fixed lookup order;
// lowerVecConstruct then sorts the found parts by start index, so a
// vec_construct's argument-name iteration order never affects the
// emitted argument order (spec.md §8 testable property 4,
// order-independence).
var vectorComponentGroupOrder = []string{"x", "y", "z", "w", "xy", "yz", "zw", "xyz", "yzw", "xyzw"}

// vecConstructPart pairs a vec_construct argument's lowered expression
// with the starting lane it fills, so the parts can be re-sorted into
// emission order after being collected in vectorComponentGroupOrder's
// lookup order.
type vecConstructPart struct {
	start int
	expr  string
}

func (w *Writer) lowerVecConstruct(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	typeName, _ := node.Literal["type"].(string)
	dt, err := ir.ParseTypeString(typeName)
	if err != nil {
		return "", err
	}
	var parts []vecConstructPart
	for _, key := range vectorComponentGroupOrder {
		ref, ok := node.Args[key]
		if !ok {
			continue
		}
		expr, err := w.lowerRef(fn, ref, sc)
		if err != nil {
			return "", err
		}
		start := strings.Index("xyzw", key[:1])
		parts = append(parts, vecConstructPart{start: start, expr: expr})
	}
	sortParts(parts)
	exprs := make([]string, len(parts))
	for i, p := range parts {
		exprs[i] = p.expr
	}
	return fmt.Sprintf("%s(%s)", w.typeName(dt), strings.Join(exprs, ", ")), nil
}

func sortParts(parts []vecConstructPart) {
	for i := 1; i < len(parts); i++ {
		for j := i; j > 0 && parts[j-1].start > parts[j].start; j-- {
			parts[j-1], parts[j] = parts[j], parts[j-1]
		}
	}
}

func (w *Writer) lowerVecGetElement(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	base, err := w.lowerArg(fn, node, "source", sc)
	if err != nil {
		return "", err
	}
	idx, err := w.lowerArg(fn, node, "index", sc)
	if err != nil {
		return "", err
	}
	// Matrix sources use [col][row] indexing derived from a flat index
	// (spec.md §4.D.5); vectors index directly.
	if ref, ok := node.Args["source"]; ok && ref.Kind == ir.RefNode {
		if target, ok := fn.NodeByID(ref.RefID); ok {
			if _, isMat := w.resultTypeHint(target).(ir.Matrix); isMat {
				return fmt.Sprintf("%s[(%s) / %d][(%s) %% %d]", base, idx, matSizeHint(w.resultTypeHint(target)), idx, matSizeHint(w.resultTypeHint(target))), nil
			}
		}
	}
	return fmt.Sprintf("%s[%s]", base, idx), nil
}

// resultTypeHint is a best-effort lookup of a node's inferred type in
// the inference results Compile computed for every reachable function
// (w.infer); it returns nil when no result holds the node id. It backs
// vector-vs-matrix indexing, mat_inverse's 3x3/4x4 choice,
// array_length, array_construct's element type, and refDataType.
func (w *Writer) resultTypeHint(node *ir.Node) ir.DataType {
	for _, res := range w.infer {
		if t, ok := res.Types[node.ID]; ok {
			return t
		}
	}
	return nil
}

func matSizeHint(t ir.DataType) int {
	if m, ok := t.(ir.Matrix); ok {
		return int(m.Size)
	}
	return 4
}

func (w *Writer) lowerMatInverse(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	a, err := w.lowerArg(fn, node, "m", sc)
	if err != nil {
		return "", err
	}
	if ref, ok := node.Args["m"]; ok && ref.Kind == ir.RefNode {
		if target, ok := fn.NodeByID(ref.RefID); ok {
			if m, ok := w.resultTypeHint(target).(ir.Matrix); ok && m.Size == 3 {
				return fmt.Sprintf("mat3_inverse_impl(%s)", a), nil
			}
		}
	}
	return fmt.Sprintf("mat_inverse_impl(%s)", a), nil
}

func (w *Writer) lowerMatConstruct(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	size := 4
	if f, ok := node.Literal["size"].(float64); ok {
		size = int(f)
	}
	cols := []string{"col0", "col1", "col2", "col3"}
	var exprs []string
	for i := 0; i < size; i++ {
		ref, ok := node.Args[cols[i]]
		if !ok {
			return "", fmt.Errorf("msl: mat_construct %q missing %s", node.ID, cols[i])
		}
		expr, err := w.lowerRef(fn, ref, sc)
		if err != nil {
			return "", err
		}
		exprs = append(exprs, expr)
	}
	return fmt.Sprintf("float%dx%d(%s)", size, size, strings.Join(exprs, ", ")), nil
}

func (w *Writer) lowerLiteralNode(node *ir.Node) string {
	switch v := node.Literal["value"].(type) {
	case float64:
		return formatFloat(v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return strconv.Quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			if f, ok := e.(float64); ok {
				parts[i] = formatFloat(f)
			}
		}
		return fmt.Sprintf("float%d(%s)", len(v), strings.Join(parts, ", "))
	default:
		return "0.0"
	}
}

func (w *Writer) lowerVarGet(fn *ir.FunctionDef, node *ir.Node) (string, error) {
	ref, ok := node.Args["name"]
	if !ok {
		if name, ok := node.Literal["name"].(string); ok {
			return w.targetVarName(fn, name)
		}
		return "", fmt.Errorf("msl: var_get %q missing var", node.ID)
	}
	return w.targetVarName(fn, ref.RefID)
}

func (w *Writer) lowerBufferLoad(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	bufRef := node.Args["buffer"]
	idx, err := w.lowerArg(fn, node, "index", sc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%s]", w.sanitizeId(bufRef.RefID), idx), nil
}

func (w *Writer) lowerTextureSample(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	texRef := node.Args["texture"]
	samplerRef, hasSampler := node.Args["sampler"]
	uv, err := w.lowerArg(fn, node, "uv", sc)
	if err != nil {
		return "", err
	}
	samplerName := "default_sampler"
	if hasSampler {
		samplerName = w.sanitizeId(samplerRef.RefID) + "_sampler"
	}
	return fmt.Sprintf("%s.sample(%s, %s)", w.sanitizeId(texRef.RefID), samplerName, uv), nil
}

func (w *Writer) lowerTextureLoad(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	texRef := node.Args["texture"]
	coord, err := w.lowerArg(fn, node, "coord", sc)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.read(uint2(%s))", w.sanitizeId(texRef.RefID), coord), nil
}

func (w *Writer) lowerResourceGetSize(fn *ir.FunctionDef, node *ir.Node) (string, error) {
	resRef := node.Args["resource"]
	name := w.sanitizeId(resRef.RefID)
	res, ok := w.doc.ResourceByID(resRef.RefID)
	if !ok {
		return "", fmt.Errorf("msl: resource_get_size: unknown resource %q", resRef.RefID)
	}
	if res.Kind == ir.ResourceTexture2D {
		return fmt.Sprintf("float2(%s.get_width(), %s.get_height())", name, name), nil
	}
	if w.layout.usedResourceSizes[resRef.RefID] {
		return fmt.Sprintf("v_res_size_%s", name), nil
	}
	return fmt.Sprintf("float2(%d, 0.0)", res.Size.Count), nil
}

func (w *Writer) lowerResourceGetFormat(fn *ir.FunctionDef, node *ir.Node) (string, error) {
	resRef := node.Args["resource"]
	res, ok := w.doc.ResourceByID(resRef.RefID)
	if !ok {
		return "", fmt.Errorf("msl: resource_get_format: unknown resource %q", resRef.RefID)
	}
	return fmt.Sprintf("%d", int(res.Format)), nil
}

func (w *Writer) lowerArrayLength(fn *ir.FunctionDef, node *ir.Node) (string, error) {
	ref, ok := node.Args["array"]
	if !ok {
		return "", fmt.Errorf("msl: array_length %q missing array arg", node.ID)
	}
	if target, ok := fn.NodeByID(ref.RefID); ok {
		if t, ok := w.resultTypeHint(target).(ir.Array); ok {
			return fmt.Sprintf("%d", t.Size), nil
		}
	}
	return fmt.Sprintf("%s_len", w.sanitizeId(ref.RefID)), nil
}

func (w *Writer) lowerStaticCastFloat(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	a, err := w.lowerArg(fn, node, "x", sc)
	if err != nil {
		return "", err
	}
	n := castTargetSize(node.Op)
	if n == 1 {
		return fmt.Sprintf("float(%s)", a), nil
	}
	return fmt.Sprintf("float%d(%s)", n, a), nil
}

func (w *Writer) lowerStaticCastInt(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	a, err := w.lowerArg(fn, node, "x", sc)
	if err != nil {
		return "", err
	}
	n := castTargetSize(node.Op)
	if n == 1 {
		return fmt.Sprintf("safe_cast_int(%s)", a), nil
	}
	return fmt.Sprintf("safe_cast_int(float%d(%s))", n, a), nil
}

func castTargetSize(op ir.OpCode) int {
	switch op {
	case ir.OpStaticCastFloat2, ir.OpStaticCastInt2:
		return 2
	case ir.OpStaticCastFloat3, ir.OpStaticCastInt3:
		return 3
	case ir.OpStaticCastFloat4, ir.OpStaticCastInt4:
		return 4
	default:
		return 1
	}
}

func (w *Writer) lowerBuiltinGet(node *ir.Node) (string, error) {
	name, _ := node.Literal["name"].(string)
	switch name {
	case "global_invocation_id":
		return "int3(gid)", nil
	case "normalized_global_invocation_id":
		return "(float3(gid) / float3(tpg))", nil
	case "output_size":
		return "v_output_size", nil
	case "vertex_index":
		return "int(vid)", nil
	case "frag_coord":
		return "in.position", nil
	case "front_facing":
		return "front_facing", nil
	case "num_workgroups":
		return "int3(tpg)", nil
	default:
		if ir.BuiltinCPUAllowed[name] {
			off, ok := w.layout.varMap[name]
			if !ok {
				return "", fmt.Errorf("msl: builtin %q not allocated in globals layout", name)
			}
			return fmt.Sprintf("inputs[%d]", off), nil
		}
		return "", fmt.Errorf("msl: unknown builtin %q", name)
	}
}

func (w *Writer) lowerStructConstruct(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	typeID, _ := node.Literal["type"].(string)
	sd, ok := w.doc.StructByID(typeID)
	if !ok {
		return "", fmt.Errorf("msl: struct_construct: unknown struct %q", typeID)
	}
	parts := make([]string, 0, len(sd.Members))
	for _, m := range sd.Members {
		if ref, ok := node.Args[m.Name]; ok {
			expr, err := w.lowerRef(fn, ref, sc)
			if err != nil {
				return "", err
			}
			parts = append(parts, expr)
			continue
		}
		parts = append(parts, w.zeroLiteral(m.Type))
	}
	return fmt.Sprintf("%s{%s}", w.structNames[typeID], strings.Join(parts, ", ")), nil
}

func (w *Writer) lowerCallFunc(fn *ir.FunctionDef, node *ir.Node, sc *scope) (string, error) {
	var calleeID string
	if ref, ok := node.Args["function"]; ok {
		calleeID = ref.RefID
	}
	callee, ok := w.doc.FunctionByID(calleeID)
	if !ok {
		return "", fmt.Errorf("msl: call_func: unknown function %q", calleeID)
	}
	args := []string{"b_globals"}
	for _, in := range callee.Inputs {
		if ref, ok := node.Args[in.Name]; ok {
			expr, err := w.lowerRef(fn, ref, sc)
			if err != nil {
				return "", err
			}
			args = append(args, expr)
			continue
		}
		args = append(args, "0.0f")
	}
	return fmt.Sprintf("%s(%s)", w.sanitizeId(calleeID), strings.Join(args, ", ")), nil
}
