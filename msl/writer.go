package msl

import (
	"fmt"
	"strings"

	"github.com/nattos/shadergraph/ir"
)

// Writer owns the in-progress output buffer and every piece of
// per-document bookkeeping the generator's phases share: name
// registries, the computed layout, and per-function emission state.
// Mirrors the teacher's msl.Writer (gogpu-naga/msl/writer.go): a
// strings.Builder plus an indent stack plus name maps, grown here to
// carry this spec's layout/scope concerns instead of WGSL-IR handles.
type Writer struct {
	doc     *ir.Document
	opts    Options
	layout  *layout
	infer   map[string]*ir.InferenceResult
	reach   []ir.FunctionDef

	out    strings.Builder
	indent int

	namer       *namer
	idNames     map[string]string // node/local/input id -> MSL identifier
	structNames map[string]string // struct id -> MSL struct type name

	needsOutputSize bool
	needsTPG        bool
}

func newWriter(doc *ir.Document, opts Options, reach []ir.FunctionDef, infer map[string]*ir.InferenceResult, l *layout) *Writer {
	return &Writer{
		doc:         doc,
		opts:        opts,
		layout:      l,
		infer:       infer,
		reach:       reach,
		namer:       newNamer(),
		idNames:     map[string]string{},
		structNames: map[string]string{},
	}
}

// String returns the generated MSL source accumulated so far.
func (w *Writer) String() string { return w.out.String() }

func (w *Writer) writeLine(s string) {
	if s == "" {
		w.out.WriteString("\n")
		return
	}
	w.out.WriteString(strings.Repeat(" ", w.indent*w.opts.IndentWidth))
	w.out.WriteString(s)
	w.out.WriteString("\n")
}

func (w *Writer) writef(format string, args ...any) {
	w.writeLine(fmt.Sprintf(format, args...))
}

func (w *Writer) pushIndent() { w.indent++ }
func (w *Writer) popIndent()  { w.indent-- }

// writeModule runs every emission phase in order (spec.md §4.D.3).
func (w *Writer) writeModule() error {
	w.writeHeader()
	w.registerNames()
	w.writeStructs()
	w.computeHelperNeeds()
	w.writeHelperFunctions()

	for i := range w.reach {
		fn := &w.reach[i]
		if fn.ID == w.doc.EntryPoint {
			continue
		}
		if err := w.writeFunction(fn); err != nil {
			return fmt.Errorf("msl: function %q: %w", fn.ID, err)
		}
	}

	entry, ok := w.doc.FunctionByID(w.doc.EntryPoint)
	if !ok {
		return fmt.Errorf("msl: entry point %q not found", w.doc.EntryPoint)
	}
	if err := w.writeEntryPoint(entry); err != nil {
		return fmt.Errorf("msl: entry point %q: %w", entry.ID, err)
	}
	return nil
}

func (w *Writer) writeHeader() {
	w.writeLine("#include <metal_stdlib>")
	w.writeLine("#include <simd/simd.h>")
	w.writeLine("")
	w.writeLine("using namespace metal;")
	w.writeLine("")
}

// registerNames assigns a unique MSL identifier to every struct,
// global input, resource, local var, and node id up front (mirrors the
// teacher's registerNames single-pass convention). Function-scoped
// names (locals, function inputs) and struct members are composite
// keys that sanitizeId registers on first use during emission.
func (w *Writer) registerNames() {
	for _, s := range w.doc.Structs {
		w.structNames[s.ID] = "S_" + w.namer.call(s.ID)
	}
	for _, in := range w.doc.Inputs {
		w.sanitizeId(in.ID)
	}
	for _, r := range w.doc.Resources {
		w.sanitizeId(r.ID)
	}
	for _, fn := range w.reach {
		for _, lv := range fn.LocalVars {
			w.sanitizeId(lv.Name)
		}
		for _, n := range fn.Nodes {
			w.sanitizeId(n.ID)
		}
	}
}

func (w *Writer) writeStructs() {
	for _, s := range w.doc.Structs {
		w.writef("struct %s {", w.structNames[s.ID])
		w.pushIndent()
		for _, m := range s.Members {
			attr := ""
			if m.Name == "position" {
				attr = " [[position]]"
			}
			w.writef("%s %s%s;", w.typeName(m.Type), w.sanitizeId(s.ID+"."+m.Name), attr)
		}
		w.popIndent()
		w.writeLine("};")
		w.writeLine("")
	}
}

// computeHelperNeeds scans every reachable function's inference
// result for the two kernel-signature-affecting builtins; the helper
// block itself (writeHelperFunctions) is emitted unconditionally
// (spec.md §4.D.3), so this only tracks what changes the kernel
// parameter list.
func (w *Writer) computeHelperNeeds() {
	for _, fn := range w.reach {
		res := w.infer[fn.ID]
		if res == nil {
			continue
		}
		if res.UsedBuiltins["output_size"] {
			w.needsOutputSize = true
		}
		if res.UsedBuiltins["normalized_global_invocation_id"] {
			w.needsTPG = true
		}
	}
}
