package build

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/jeamland/freebsd-build/internal/kernel"
)

var (
	ErrUnrecognizedFileKind = errors.New("unrecognized file kind")
	ErrUnknownPlaceholder   = errors.New("unknown placeholder in compile-with recipe")
)

// builtinRules are declared first, in this order, in every generated file.
var builtinRules = []Rule{
	{Name: "as", Command: "cc -c $ASM_CFLAGS $in"},
	{Name: "awk", Command: "awk -f $in $args"},
	{Name: "awk_stdout", Command: "awk -f $in $args > $out"},
	{Name: "cc", Command: "$CC -c $CFLAGS $in", Deps: "gcc", Depfile: ".depend.$out"},
	{Name: "freebsd-config", Command: "freebsd-config -b . $in", Generator: true},
	{Name: "hack", Command: "touch hack.c && $CC -shared -nostdlib --target=x86_64-unknown-freebsd -fuse-ld=$LD hack.c -o $out && rm -f hack.c"},
	{Name: "ilink", Command: "ln -fhs $in $out"},
	{Name: "ld", Command: "$LD -Bdynamic -T $S/conf/ldscript.$MACHINE --no-warn-mismatch --warn-common --export-dynamic --dynamic-linker /red/herring -o $out -X $in"},
	{Name: "sh_stdout", Command: "$env sh $in > $out"},
	{Name: "extract_debug", Command: "$OBJCOPY --only-keep-debug $in $out"},
	{Name: "strip_debug", Command: "$OBJCOPY --strip-debug --add-gnu-debuglink=kernel.debug $in $out"},
}

// defaultVars are the overridable toolchain variables, in declaration order.
var defaultVars = []Var{
	{"ASM_CFLAGS", "-x assembler-with-cpp -DLOCORE $CFLAGS"},
	{"OBJCOPY", "objcopy"},
	{"NM", "nm"},
	{"CC", "cc"},
	{"LD", "ld.lld"},
}

// defaultEarlyBuilds exist in every kernel build: include-tree links, the
// vnode interface generators, the genassym pipeline and the placeholder
// shared object.
func defaultEarlyBuilds() []Edge {
	vnodeIf := []string{"$S/tools/vnode_if.awk", "$S/kern/vnode_if.src"}
	return []Edge{
		{Output: "machine", Rule: "ilink", Inputs: []string{"$S/$MACHINE/include"}},
		{Output: "x86", Rule: "ilink", Inputs: []string{"$S/x86/include"}},
		{Output: "vnode_if.h", Rule: "awk", Inputs: vnodeIf, Vars: []Var{{"args", "-h"}}},
		{Output: "vnode_if_newproto.h", Rule: "awk", Inputs: vnodeIf, Vars: []Var{{"args", "-p"}}},
		{Output: "vnode_if_typedef.h", Rule: "awk", Inputs: vnodeIf, Vars: []Var{{"args", "-q"}}},
		{Output: "vnode_if.c", Rule: "awk", Inputs: vnodeIf, Vars: []Var{{"args", "-c"}}},
		{Output: "genassym.o", Rule: "cc", Inputs: []string{"$S/$MACHINE/$MACHINE/genassym.c"}, Vars: []Var{{"CFLAGS", "$CFLAGS_GENASSYM"}}},
		{Output: "assym.s", Rule: "sh_stdout", Inputs: []string{"$S/kern/genassym.sh", "genassym.o"}, Vars: []Var{{"env", "NM='nm' NMFLAGS=''"}}},
		{Output: "hack.pico", Rule: "hack"},
	}
}

// defaultImplicitDeps seeds the before-depends set: headers generated by the
// default early builds that normal compiles may include.
var defaultImplicitDeps = []string{"vnode_if.h"}

// Options configures a synthesis run.
type Options struct {
	// SourceDir is the value of $S, the root of the kernel source tree.
	SourceDir string
	// Vars overrides default toolchain variables and appends new ones.
	Vars []Var
}

// ruleTable interns ad-hoc rules by exact command text so byte-identical
// custom recipes share one rule declaration.
type ruleTable struct {
	names map[string]string
	rules []Rule
}

func (t *ruleTable) intern(command string) string {
	if name, ok := t.names[command]; ok {
		return name
	}
	name := fmt.Sprintf("rule%d", len(t.rules))
	if t.names == nil {
		t.names = make(map[string]string)
	}
	t.names[command] = name
	t.rules = append(t.rules, Rule{Name: name, Command: command})
	return name
}

var placeholder = regexp.MustCompile(`\$\{([^}]*)\}`)
var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// rewriteRecipe rewrites make-style placeholders into ninja variable
// references. Supported placeholders are ${.IMPSRC}, ${.TARGET} and plain
// variable names; anything else (modifiers, empty names) is fatal rather
// than passed through.
func rewriteRecipe(recipe string) (string, error) {
	var badToken string
	out := placeholder.ReplaceAllStringFunc(recipe, func(tok string) string {
		name := tok[2 : len(tok)-1]
		switch {
		case name == ".IMPSRC":
			return "$in"
		case name == ".TARGET":
			return "$out"
		case identifier.MatchString(name):
			return "$" + name
		}
		if badToken == "" {
			badToken = tok
		}
		return tok
	})
	if badToken != "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownPlaceholder, badToken)
	}
	return out, nil
}

// Synthesize walks the manifest in order and produces the complete build
// graph for the configuration. It is deterministic: identical inputs yield
// an identical graph.
func Synthesize(files kernel.Files, cfg *kernel.Config, patterns []RecipePattern, opts Options) (*Graph, error) {
	g := &Graph{
		Early:         defaultEarlyBuilds(),
		BeforeDepends: append([]string(nil), defaultImplicitDeps...),
	}

	var adhoc ruleTable
	objs := []string{}

	place := func(f *kernel.File, edge Edge) {
		if f.BeforeDepend {
			g.BeforeDepends = append(g.BeforeDepends, edge.Output)
			g.Early = append(g.Early, edge)
		} else {
			g.Builds = append(g.Builds, edge)
		}
		if f.Obj {
			objs = append(objs, edge.Output)
		}
	}

	for _, f := range files {
		if !f.Optional.Matches(cfg) {
			continue
		}
		if f.Profiling {
			continue
		}

		if f.CompileWith == "" {
			if err := synthesizeImplicit(g, f, &objs); err != nil {
				return nil, err
			}
			continue
		}

		matched := false
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(f.CompileWith)
			if m == nil {
				continue
			}
			edge, err := p.build(f, m[1:], f.CompileWith)
			if err != nil {
				return nil, err
			}
			place(f, edge)
			matched = true
			break
		}
		if matched {
			continue
		}

		command, err := rewriteRecipe(f.CompileWith)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.Filename, err)
		}
		place(f, Edge{
			Output: f.Filename,
			Rule:   adhoc.intern(command),
			Inputs: f.Dependencies,
		})
	}

	// The bootstrap object and the placeholder shared object always link.
	objs = append(objs, "locore.o", "hack.pico")

	sourceDir := opts.SourceDir
	if sourceDir == "" {
		sourceDir = "../../.."
	}

	g.Vars = []Var{
		{"MACHINE", cfg.Machine},
		{"S", sourceDir},
		{"CFLAGS", strings.Join(kernCFLAGS, " ")},
		{"CFLAGS_GENASSYM", strings.Join(genassymCFLAGS(), " ")},
	}
	g.Vars = append(g.Vars, applyVarOverrides(defaultVars, opts.Vars)...)
	g.Vars = append(g.Vars, Var{"KERNEL_CONFIG", cfg.Filename})

	g.Rules = append(append([]Rule(nil), builtinRules...), Rule{
		Name:    "newvers",
		Command: "MAKE=./versmake.sh sh $S/conf/newvers.sh " + cfg.Ident,
	})
	g.Rules = append(g.Rules, adhoc.rules...)

	g.Final = []Edge{
		{Output: "vers.c", ImplicitOutputs: []string{"version"}, Rule: "newvers"},
		{Output: "kernel.full", Rule: "ld", Inputs: objs},
		{Output: "kernel.debug", Rule: "extract_debug", Inputs: []string{"kernel.full"}},
		{Output: "kernel", Rule: "strip_debug", Inputs: []string{"kernel.full"}, ImplicitDeps: []string{"kernel.debug"}},
	}
	g.Regen = Edge{Output: "build.ninja", Rule: "freebsd-config", Inputs: []string{"$KERNEL_CONFIG"}}

	return g, nil
}

// synthesizeImplicit dispatches an entry with no custom recipe on its file
// extension.
func synthesizeImplicit(g *Graph, f *kernel.File, objs *[]string) error {
	base := path.Base(f.Filename)
	dot := strings.LastIndexByte(base, '.')
	if dot == -1 || dot == len(base)-1 {
		return fmt.Errorf("%w: no idea what to do with %s", ErrUnrecognizedFileKind, f.Filename)
	}

	switch base[dot+1:] {
	case "c":
		obj := base[:dot] + ".o"
		src := f.Filename
		if !f.Local {
			src = "$S/" + src
		}
		g.Builds = append(g.Builds, Edge{Output: obj, Rule: "cc", Inputs: []string{src}})
		if f.Obj {
			*objs = append(*objs, obj)
		}
	case "m":
		cObj := base[:dot] + ".c"
		hObj := base[:dot] + ".h"
		obj := base[:dot] + ".o"
		inputs := []string{"$S/tools/makeobjops.awk", "$S/" + f.Filename}

		g.Builds = append(g.Builds,
			Edge{Output: cObj, Rule: "awk", Inputs: inputs, Vars: []Var{{"args", "-c"}}},
			Edge{Output: obj, Rule: "cc", Inputs: []string{cObj}},
		)

		// The generated header must exist before any normal compile that
		// might include it.
		g.BeforeDepends = append(g.BeforeDepends, hObj)
		g.Early = append(g.Early, Edge{Output: hObj, Rule: "awk", Inputs: inputs, Vars: []Var{{"args", "-h"}}})
		if f.Obj {
			*objs = append(*objs, obj)
		}
	case "S":
		obj := base[:dot] + ".o"
		g.Builds = append(g.Builds, Edge{Output: obj, Rule: "as", Inputs: []string{"$S/" + f.Filename}})
		if f.Obj {
			*objs = append(*objs, obj)
		}
	default:
		return fmt.Errorf("%w: no idea what to do with %s", ErrUnrecognizedFileKind, f.Filename)
	}

	return nil
}

// applyVarOverrides replaces default values in place order and appends any
// override that names a new variable, preserving the caller's order.
func applyVarOverrides(defaults, overrides []Var) []Var {
	out := append([]Var(nil), defaults...)
	for _, o := range overrides {
		replaced := false
		for i := range out {
			if out[i].Name == o.Name {
				out[i].Value = o.Value
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, o)
		}
	}
	return out
}
