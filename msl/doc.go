// Package msl implements the Metal Shading Language generator backend
// (spec.md §4.D): the one contractually-complete target the compiler
// core ships with. It consumes a validated *ir.Document and produces
// MSL source text plus the layout Manifest the host harness needs to
// bind resources and pack the globals buffer.
//
// The package is organized the way the teacher (gogpu-naga/msl) lays
// its own generator out: a namer for collision-free identifiers, a
// layout pass computing the flat-buffer ABI, a Writer that owns the
// output buffer and per-scope name bookkeeping, and separate files for
// statement linearization, expression lowering, and the fixed helper
// block every emitted shader carries.
package msl
