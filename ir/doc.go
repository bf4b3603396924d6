// Package ir defines the canonical intermediate representation for the
// shader-graph compiler.
//
// The IR is a node graph: a Document owns global inputs, resources,
// struct definitions, and functions; each function owns an ordered
// list of Nodes whose data/execution edges are reconstructed from
// schema-declared properties rather than stored explicitly (see
// package schema and ReconstructEdges). A thin JSON adapter (wire.go)
// normalizes the loose on-wire form (inline swizzle, args.*/values.*
// aliasing) into this canonical form exactly once, at load time; static
// per-op configuration stays in Node.Literal, which inference,
// validation and the generator read by key.
package ir
