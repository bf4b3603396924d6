package ir

// edges.go is Component B (spec.md §4.B): a pure function deriving
// the data/execution edge multisets a function's nodes imply. It
// holds no state of its own and is safe to call repeatedly from both
// the validator and the generator without them agreeing on anything
// beyond the schema table.

// DataEdge is one inferred dataflow edge: SourceID produces a value
// consumed by TargetID on its Arg-named port, optionally narrowed by
// an inline swizzle mask.
type DataEdge struct {
	SourceID string
	TargetID string
	Arg      string
	Swizzle  string // without leading '.'; empty if none
}

// ExecEdge is one inferred control-flow edge: TargetID runs after
// SourceID via the named execution port (spec.md §3.3).
type ExecEdge struct {
	SourceID string
	TargetID string
	Port     string // one of the Port* constants
}

// ReconstructEdges derives the full edge set for one function (spec.md
// §4.B). Only RefNode-kind ValueRefs whose RefID resolves to another
// node in this function produce a DataEdge; a RefNode pointing at a
// local var, global input, or global name resolves to nothing here
// (the inferrer reads those directly) and is silently skipped.
func ReconstructEdges(fn *FunctionDef, schema map[OpCode]OpSchema) (data []DataEdge, exec []ExecEdge) {
	nodeIDs := make(map[string]bool, len(fn.Nodes))
	for _, n := range fn.Nodes {
		nodeIDs[n.ID] = true
	}

	for _, n := range fn.Nodes {
		for argName, ref := range n.Args {
			if ref.Kind != RefNode {
				continue
			}
			if !nodeIDs[ref.RefID] {
				continue
			}
			data = append(data, DataEdge{
				SourceID: ref.RefID,
				TargetID: n.ID,
				Arg:      argName,
				Swizzle:  ref.Swizzle,
			})
		}

		for port, target := range map[string]*string{
			PortExecOut:       n.ExecOut,
			PortExecTrue:      n.ExecTrue,
			PortExecFalse:     n.ExecFalse,
			PortExecBody:      n.ExecBody,
			PortExecCompleted: n.ExecCompleted,
		} {
			if target == nil || *target == "" {
				continue
			}
			if !nodeIDs[*target] {
				continue
			}
			exec = append(exec, ExecEdge{SourceID: n.ID, TargetID: *target, Port: port})
		}
	}
	return data, exec
}

// IncomingExecEdges indexes exec by TargetID for O(1) "does this node
// have an incoming exec edge" queries (spec.md §4.D.4 entry-node
// discovery).
func IncomingExecEdges(exec []ExecEdge) map[string][]ExecEdge {
	m := map[string][]ExecEdge{}
	for _, e := range exec {
		m[e.TargetID] = append(m[e.TargetID], e)
	}
	return m
}

// OutgoingExecEdges indexes exec by SourceID.
func OutgoingExecEdges(exec []ExecEdge) map[string][]ExecEdge {
	m := map[string][]ExecEdge{}
	for _, e := range exec {
		m[e.SourceID] = append(m[e.SourceID], e)
	}
	return m
}

// DataEdgesByTarget indexes data by TargetID then arg name, the shape
// the type inferrer and expression lowerer both want.
func DataEdgesByTarget(data []DataEdge) map[string]map[string]DataEdge {
	m := map[string]map[string]DataEdge{}
	for _, e := range data {
		byArg, ok := m[e.TargetID]
		if !ok {
			byArg = map[string]DataEdge{}
			m[e.TargetID] = byArg
		}
		byArg[e.Arg] = e
	}
	return m
}
