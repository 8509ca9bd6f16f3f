package ffmpeg

import "strings"

// ---------------------------------------------------------------------------
// Typed filter graph
//
// The compositor consumes a single stringly-typed filter_complex expression,
// which is easy to get subtly wrong (dangling stream tags, missing brackets).
// Stages are kept as typed records and only serialized at the last step, so
// the serializer can be unit-tested away from any subprocess.
// ---------------------------------------------------------------------------

// Stage is one node of the filter graph: named input streams, a filter chain
// expression, and named output streams. Tags are stored without brackets.
type Stage struct {
	Inputs  []string
	Expr    string
	Outputs []string
}

// Graph is an ordered list of stages; order is the order they are emitted in
// the serialized filter_complex string.
type Graph struct {
	stages []Stage
}

func (g *Graph) Add(st Stage) {
	g.stages = append(g.stages, st)
}

// Stages returns the stage list for inspection in tests.
func (g *Graph) Stages() []Stage {
	return g.stages
}

// HasFilter reports whether any stage's expression contains the given
// filter name.
func (g *Graph) HasFilter(name string) bool {
	for _, st := range g.stages {
		if strings.Contains(st.Expr, name) {
			return true
		}
	}
	return false
}

// String serializes the graph to the compositor's filter_complex syntax:
// [in1][in2]expr[out1];[in3]expr2[out2]
func (g *Graph) String() string {
	var b strings.Builder
	for i, st := range g.stages {
		if i > 0 {
			b.WriteByte(';')
		}
		for _, in := range st.Inputs {
			b.WriteByte('[')
			b.WriteString(in)
			b.WriteByte(']')
		}
		b.WriteString(st.Expr)
		for _, out := range st.Outputs {
			b.WriteByte('[')
			b.WriteString(out)
			b.WriteByte(']')
		}
	}
	return b.String()
}

// escapeFilterPath escapes special characters in file paths for the
// compositor's filter syntax. Colons, backslashes, and single quotes are
// treated specially inside filter expressions.
func escapeFilterPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "\\\\")
	path = strings.ReplaceAll(path, ":", "\\:")
	path = strings.ReplaceAll(path, "'", "'\\''")
	return path
}
