package build

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/jeamland/freebsd-build/internal/kernel"
)

// A RecipePattern pairs a regexp for a known legacy compile-with recipe
// with a builder that turns a matching manifest entry into a concrete edge.
type RecipePattern struct {
	re    *regexp.Regexp
	build func(f *kernel.File, groups []string, recipe string) (Edge, error)
}

// DefaultPatterns returns the recipe patterns in priority order. The list is
// constructed once at startup and handed to Synthesize; there is no global
// registry.
func DefaultPatterns() []RecipePattern {
	return []RecipePattern{
		{regexp.MustCompile(`\$\{AWK\} -f (\S+) (\S+) > (\S+)`), awkStdoutRule},
		{regexp.MustCompile(`\$\{AWK\} -f (\S+) (\S+)`), awkRule},
		{regexp.MustCompile(`\$\{NORMAL_S\}`), asRule},
		{regexp.MustCompile(`^\$\{NORMAL_C`), ccRule},
		{regexp.MustCompile(`^\$\{CC\}`), ccRule},
		{regexp.MustCompile(`.*(\$S/kern/genassym\.sh) (\S+)`), genassymRule},
	}
}

// awkStdoutRule: table-driven code generator piping to a file. The last
// capture is the output, the rest are inputs.
func awkStdoutRule(f *kernel.File, groups []string, recipe string) (Edge, error) {
	return Edge{
		Output: groups[len(groups)-1],
		Rule:   "awk_stdout",
		Inputs: groups[:len(groups)-1],
	}, nil
}

// awkRule: plain code-generator invocation writing the entry's own output.
func awkRule(f *kernel.File, groups []string, recipe string) (Edge, error) {
	return Edge{
		Output: f.Filename,
		Rule:   "awk",
		Inputs: groups,
	}, nil
}

// asRule: assembler invocation consuming pre-collected dependencies.
func asRule(f *kernel.File, groups []string, recipe string) (Edge, error) {
	if len(f.Dependencies) == 0 {
		return Edge{}, fmt.Errorf("NORMAL_S recipe for %s needs a dependency list", f.Filename)
	}
	return Edge{
		Output:       f.Filename,
		Rule:         "as",
		Inputs:       f.Dependencies[:1],
		ImplicitDeps: f.Dependencies[1:],
	}, nil
}

var (
	normalCArgs = regexp.MustCompile(`NORMAL_C:(.*?)\}`)
	ccArgs      = regexp.MustCompile(`CFLAGS:(.*?)\}`)
)

// ccRule: C compiler invocation with an optional per-file flag adjustment
// list. The NORMAL_C form compiles the entry's source into a same-named
// object and may append extra literal flags; the bare ${CC} form names its
// output directly and consumes the entry's dependency list.
func ccRule(f *kernel.File, groups []string, recipe string) (Edge, error) {
	cflags := append([]string(nil), kernCFLAGS...)

	var edge Edge
	var args []string

	if strings.Contains(recipe, "NORMAL_C") {
		if m := normalCArgs.FindStringSubmatch(recipe); m != nil {
			args = append(args, m[1])
		}
		obj := path.Base(f.Filename)
		edge = Edge{
			Output: obj[:len(obj)-1] + "o",
			Rule:   "cc",
			Inputs: []string{"$S/" + f.Filename},
		}
		// Tokens after the NORMAL_C reference are extra literal flags.
		cflags = append(cflags, strings.Fields(recipe)[1:]...)
	} else {
		if m := ccArgs.FindStringSubmatch(recipe); m != nil {
			args = append(args, m[1])
		}
		if len(f.Dependencies) == 0 {
			return Edge{}, fmt.Errorf("CC recipe for %s needs a dependency list", f.Filename)
		}
		edge = Edge{
			Output:       f.Filename,
			Rule:         "cc",
			Inputs:       f.Dependencies[:1],
			ImplicitDeps: f.Dependencies[1:],
		}
	}

	for _, a := range args {
		cflags = adjustFlags(cflags, a)
	}

	edge.Vars = []Var{{"CFLAGS", strings.Join(cflags, " ")}}
	return edge, nil
}

// genassymRule: assembly-constant generator shell pipeline.
func genassymRule(f *kernel.File, groups []string, recipe string) (Edge, error) {
	return Edge{
		Output: f.Filename,
		Rule:   "sh_stdout",
		Inputs: groups,
		Vars:   []Var{{"env", "NM='nm' NMFLAGS=''"}},
	}, nil
}
