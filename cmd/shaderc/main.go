// Command shaderc is the portable shader-graph compiler CLI.
//
// Usage:
//
//	shaderc [options] <input.json>
//
// Examples:
//
//	shaderc graph.json                  # Validate and print MSL to stdout
//	shaderc -o out.metal graph.json     # Write MSL to a file
//	shaderc -manifest out.json graph.json  # Also write the layout manifest
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/tebeka/atexit"

	"github.com/nattos/shadergraph/ir"
	"github.com/nattos/shadergraph/msl"
)

var (
	output       = flag.String("o", "", "output MSL file (default: stdout)")
	manifestPath = flag.String("manifest", "", "also write the layout manifest as JSON to this path")
	indentWidth  = flag.Int("indent", 0, "MSL indent width in spaces (default: 4)")
	boundLoops   = flag.Bool("bound-loops", false, "force a hard cap on unbounded flow_loop iteration counts")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}
	inputPath := args[0]

	data, err := os.ReadFile(inputPath)
	if err != nil {
		log.Fatalf("reading %s: %v", inputPath, err)
	}

	doc, err := ir.FromWire(data)
	if err != nil {
		log.Fatalf("parsing %s: %v", inputPath, err)
	}

	diags := ir.Validate(doc)
	if ir.HasErrors(diags) {
		printDiagnostics(diags)
		atexit.Exit(1)
	}
	if len(diags) > 0 {
		printDiagnostics(diags)
	}

	opts := msl.DefaultOptions()
	if *indentWidth > 0 {
		opts.IndentWidth = *indentWidth
	}
	opts.ForceLoopBounding = *boundLoops

	source, manifest, err := msl.Compile(doc, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation error: %v\n", err)
		atexit.Exit(1)
	}

	if *output != "" {
		if err := os.WriteFile(*output, []byte(source), 0o644); err != nil {
			log.Fatalf("writing %s: %v", *output, err)
		}
		atexit.Register(func() { fmt.Printf("Compiled %s -> %s (%d bytes)\n", inputPath, *output, len(source)) })
	} else {
		if _, err := os.Stdout.WriteString(source); err != nil {
			log.Fatalf("writing stdout: %v", err)
		}
	}

	if *manifestPath != "" {
		writeManifest(*manifestPath, manifest)
	}

	atexit.Exit(0)
}

func writeManifest(path string, manifest msl.Manifest) {
	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("creating %s: %v", path, err)
	}
	atexit.Register(func() { f.Close() })
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		log.Fatalf("writing manifest %s: %v", path, err)
	}
}

// printDiagnostics renders a validator diagnostic set as a table
// instead of one line per diagnostic, so a large document's errors
// stay scannable by function and node.
func printDiagnostics(diags []ir.Diagnostic) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.SetTitle("Validation diagnostics")
	t.AppendHeader(table.Row{"Severity", "Function", "Node", "Message"})
	for _, d := range diags {
		sev := "error"
		if d.Severity == ir.SeverityWarning {
			sev = "warning"
		}
		t.AppendRow(table.Row{sev, d.FunctionID, d.NodeID, d.Message})
	}
	t.Render()
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: shaderc [options] <input.json>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  shaderc graph.json                     Validate and print MSL to stdout\n")
	fmt.Fprintf(os.Stderr, "  shaderc -o out.metal graph.json        Write MSL to a file\n")
	fmt.Fprintf(os.Stderr, "  shaderc -manifest out.json graph.json  Also write the layout manifest\n")
}
