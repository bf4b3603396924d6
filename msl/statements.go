package msl

import (
	"fmt"

	"github.com/nattos/shadergraph/ir"
)

// scope is a fresh emittedPure set per nested block (spec.md §4.D.4):
// the top level gets one, and each flow_branch arm / flow_loop body
// gets its own so loop-variant pure values re-evaluate every
// iteration instead of being hoisted out by a stale emitted-once flag.
type scope struct {
	emitted map[string]bool
}

func newScope() *scope { return &scope{emitted: map[string]bool{}} }

func (w *Writer) pureName(nodeID string) string {
	return "n_" + w.sanitizeId(nodeID)
}

// entryNodes finds the executable nodes with no incoming execution
// edge, plus any pure node with an outgoing execution edge
// (user-anchored; spec.md §4.D.4).
func entryNodes(fn *ir.FunctionDef) []string {
	_, exec := ir.ReconstructEdges(fn, ir.Schema)
	incoming := ir.IncomingExecEdges(exec)
	var out []string
	for _, n := range fn.Nodes {
		if ir.IsPure(n.Op) {
			if n.ExecOut != nil && *n.ExecOut != "" {
				out = append(out, n.ID)
			}
			continue
		}
		if len(incoming[n.ID]) == 0 {
			out = append(out, n.ID)
		}
	}
	return out
}

// writeFunctionBody linearizes and emits fn's statement body.
func (w *Writer) writeFunctionBody(fn *ir.FunctionDef) error {
	w.declareLocals(fn)
	sc := newScope()
	for _, id := range entryNodes(fn) {
		if err := w.emitChain(fn, id, sc); err != nil {
			return err
		}
	}
	w.writeLocalsEpilogue(fn)
	return nil
}

// declareLocals emits a zero- or default-initialized MSL local for
// every LocalVar, the variables var_get/var_set read and write during
// the body (spec.md §4.D.6 write-back happens against these at
// epilogue, not against b_globals directly).
func (w *Writer) declareLocals(fn *ir.FunctionDef) {
	for _, lv := range fn.LocalVars {
		init := w.zeroLiteral(lv.Type)
		if lv.Initial != nil {
			init = w.literalExpr(lv.Type, lv.Initial)
		}
		w.writef("%s %s = %s;", w.typeName(lv.Type), w.localVarName(fn, lv.Name), init)
	}
}

func (w *Writer) localVarName(fn *ir.FunctionDef, name string) string {
	return w.sanitizeId(fn.ID + ".local." + name)
}

// emitChain walks one execution chain starting at nodeID: emit data
// dependencies, emit the node, follow exec_out (or recurse into
// flow_branch/flow_loop's sub-chains).
func (w *Writer) emitChain(fn *ir.FunctionDef, nodeID string, sc *scope) error {
	node, ok := fn.NodeByID(nodeID)
	if !ok {
		return fmt.Errorf("msl: unknown node %q", nodeID)
	}

	switch node.Op {
	case ir.OpFlowBranch:
		return w.emitBranch(fn, node, sc)
	case ir.OpFlowLoop:
		return w.emitLoop(fn, node, sc)
	default:
		if ir.IsPure(node.Op) {
			if err := w.emitPure(fn, node.ID, sc); err != nil {
				return err
			}
		} else if err := w.emitStatement(fn, node, sc); err != nil {
			return err
		}
	}

	if node.ExecOut != nil && *node.ExecOut != "" {
		return w.emitChain(fn, *node.ExecOut, sc)
	}
	return nil
}

func (w *Writer) emitBranch(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	cond, err := w.lowerArg(fn, node, "cond", sc)
	if err != nil {
		return err
	}
	w.writef("if (%s != 0.0) {", cond)
	w.pushIndent()
	if node.ExecTrue != nil && *node.ExecTrue != "" {
		if err := w.emitChain(fn, *node.ExecTrue, newScope()); err != nil {
			return err
		}
	}
	w.popIndent()
	if node.ExecFalse != nil && *node.ExecFalse != "" {
		w.writeLine("} else {")
		w.pushIndent()
		if err := w.emitChain(fn, *node.ExecFalse, newScope()); err != nil {
			return err
		}
		w.popIndent()
	}
	w.writeLine("}")
	if node.ExecOut != nil && *node.ExecOut != "" {
		return w.emitChain(fn, *node.ExecOut, sc)
	}
	return nil
}

func (w *Writer) emitLoop(fn *ir.FunctionDef, node *ir.Node, sc *scope) error {
	// Preload pure dependencies reachable from exec_completed in the
	// enclosing scope before the loop opens, so they stay visible
	// after it closes (spec.md §4.D.4).
	if node.ExecCompleted != nil && *node.ExecCompleted != "" {
		if err := w.preloadChain(fn, *node.ExecCompleted, sc); err != nil {
			return err
		}
	}

	start, end, err := w.loopBounds(fn, node, sc)
	if err != nil {
		return err
	}
	if w.opts.ForceLoopBounding {
		end = fmt.Sprintf("min(%s, %s + %d)", end, start, w.opts.MaxLoopIterations)
	}
	idx := w.pureName(node.ID)
	w.writef("for (int %s = %s; %s < %s; %s++) {", idx, start, idx, end, idx)
	w.pushIndent()
	if node.ExecBody != nil && *node.ExecBody != "" {
		if err := w.emitChain(fn, *node.ExecBody, newScope()); err != nil {
			return err
		}
	}
	w.popIndent()
	w.writeLine("}")

	if node.ExecCompleted != nil && *node.ExecCompleted != "" {
		return w.emitChain(fn, *node.ExecCompleted, sc)
	}
	return nil
}

func (w *Writer) loopBounds(fn *ir.FunctionDef, node *ir.Node, sc *scope) (start, end string, err error) {
	if count, ok := node.Literal["count"]; ok {
		n, cerr := w.literalNumberExpr(count)
		if cerr != nil {
			return "", "", cerr
		}
		return "0", n, nil
	}
	if s, ok := node.Literal["start"]; ok {
		if e, ok2 := node.Literal["end"]; ok2 {
			sExpr, err1 := w.literalNumberExpr(s)
			eExpr, err2 := w.literalNumberExpr(e)
			if err1 != nil {
				return "", "", err1
			}
			if err2 != nil {
				return "", "", err2
			}
			return sExpr, eExpr, nil
		}
	}
	return "", "", fmt.Errorf("msl: flow_loop %q has no start/end or count", node.ID)
}

func (w *Writer) literalNumberExpr(v any) (string, error) {
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%d", int(x)), nil
	case string:
		return w.sanitizeId(x), nil
	default:
		return "", fmt.Errorf("msl: unsupported loop bound literal %T", v)
	}
}

// preloadChain emits the pure dependencies of everything reachable
// from startID without emitting the executable nodes themselves —
// used only for the loop-exit preload (spec.md §4.D.4).
func (w *Writer) preloadChain(fn *ir.FunctionDef, startID string, sc *scope) error {
	id := startID
	for id != "" {
		node, ok := fn.NodeByID(id)
		if !ok {
			return fmt.Errorf("msl: unknown node %q", id)
		}
		for _, argName := range ir.Schema[node.Op].ArgNames {
			if ref, ok := node.Args[argName]; ok && ref.Kind == ir.RefNode {
				if _, isNode := fn.NodeByID(ref.RefID); isNode {
					if err := w.emitPure(fn, ref.RefID, sc); err != nil {
						return err
					}
				}
			}
		}
		if node.ExecOut == nil || *node.ExecOut == "" {
			break
		}
		id = *node.ExecOut
	}
	return nil
}
