// Package build synthesizes the kernel build graph from the parsed
// configuration and file manifest and renders it as a ninja build file.
package build

// Var is one ninja variable binding, global or edge-local.
type Var struct {
	Name  string
	Value string
}

// Rule is one ninja rule declaration.
type Rule struct {
	Name    string
	Command string
	// Deps and Depfile enable compiler dependency-file tracking.
	Deps    string
	Depfile string
	// Generator marks the rule that regenerates the build file itself.
	Generator bool
}

// Edge is one build statement: an output produced from explicit inputs by a
// rule, with optional implicit outputs, implicit and order-only inputs, and
// edge-local variable overrides.
type Edge struct {
	Output          string
	ImplicitOutputs []string
	Rule            string
	Inputs          []string
	ImplicitDeps    []string
	OrderDeps       []string
	Vars            []Var
}

// Graph is the synthesized build graph. Early edges must be emitted, and be
// structurally available, before any normal edge; BeforeDepends lists the
// early outputs injected as implicit dependencies into every normal edge.
type Graph struct {
	Vars          []Var
	Rules         []Rule
	Early         []Edge
	Builds        []Edge
	Final         []Edge
	Regen         Edge
	BeforeDepends []string
}
