package msl

// Options configures MSL generation (spec.md §4.D.3). It mirrors the
// teacher's Options/DefaultOptions shape: zero-value-safe, with a
// constructor filling in the values that make zero a bad default.
type Options struct {
	// IndentWidth is the number of spaces per nesting level in the
	// emitted source. Defaults to 4 if zero.
	IndentWidth int

	// ForceLoopBounding caps flow_loop trip counts defensively even
	// when the IR's bounds are static, matching the teacher's
	// ForceLoopBounding knob for untrusted shaders.
	ForceLoopBounding bool

	// MaxLoopIterations is the cap ForceLoopBounding enforces.
	// Defaults to 1 << 20 if zero.
	MaxLoopIterations int
}

// DefaultOptions returns the generator's default configuration.
func DefaultOptions() Options {
	return Options{
		IndentWidth:       4,
		ForceLoopBounding: true,
		MaxLoopIterations: 1 << 20,
	}
}

func (o Options) resolved() Options {
	if o.IndentWidth == 0 {
		o.IndentWidth = 4
	}
	if o.MaxLoopIterations == 0 {
		o.MaxLoopIterations = 1 << 20
	}
	return o
}

// Manifest is the generator output manifest (spec.md §6.3) the
// harness uses to bind resources, size the host-side globals
// ArrayBuffer, pack inputs, and locate readback offsets.
type Manifest struct {
	ResourceBindings map[string]int
	GlobalBufferSize int
	VarMap           map[string]int
}
