package build

import "strings"

func write(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
}

func writeln(sb *strings.Builder, s ...string) {
	for _, str := range s {
		sb.WriteString(str)
	}
	sb.WriteByte('\n')
}

// Ninja renders the graph as a ninja build file: variables, rules, early
// edges, normal edges (with the before-depends set injected as implicit
// dependencies), the trailing version/link/debug edges and finally the
// self-regeneration edge.
func (g *Graph) Ninja() string {
	var sb strings.Builder

	for _, v := range g.Vars {
		writeln(&sb, v.Name, " = ", v.Value)
	}
	writeln(&sb)

	for _, r := range g.Rules {
		writeRule(&sb, r)
	}
	writeln(&sb)

	for _, e := range g.Early {
		writeEdge(&sb, e, nil)
	}
	for _, e := range g.Builds {
		writeEdge(&sb, e, g.BeforeDepends)
	}
	for _, e := range g.Final {
		writeEdge(&sb, e, nil)
	}

	writeln(&sb)
	writeEdge(&sb, g.Regen, nil)

	return sb.String()
}

func writeRule(sb *strings.Builder, r Rule) {
	writeln(sb, "rule ", r.Name)
	writeln(sb, "  command = ", r.Command)
	if r.Deps != "" {
		writeln(sb, "  deps = ", r.Deps)
	}
	if r.Depfile != "" {
		writeln(sb, "  depfile = ", r.Depfile)
	}
	if r.Generator {
		writeln(sb, "  generator = 1")
	}
}

// writeEdge writes one build line. extraDeps are prepended to the edge's own
// implicit dependencies.
func writeEdge(sb *strings.Builder, e Edge, extraDeps []string) {
	write(sb, "build ", e.Output)
	if len(e.ImplicitOutputs) > 0 {
		write(sb, " | ", strings.Join(e.ImplicitOutputs, " "))
	}
	write(sb, ": ", e.Rule)
	if len(e.Inputs) > 0 {
		write(sb, " ", strings.Join(e.Inputs, " "))
	}

	implicit := append(append([]string(nil), extraDeps...), e.ImplicitDeps...)
	if len(implicit) > 0 {
		write(sb, " | ", strings.Join(implicit, " "))
	}
	if len(e.OrderDeps) > 0 {
		write(sb, " || ", strings.Join(e.OrderDeps, " "))
	}
	writeln(sb)

	for _, v := range e.Vars {
		writeln(sb, "  ", v.Name, " = ", v.Value)
	}
}
