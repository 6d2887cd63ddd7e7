package kernel

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeamland/freebsd-build/internal/msg"
)

var ErrMalformedCondition = errors.New("malformed optional spec")

// fileDirectives is the manifest directive vocabulary. Anything else on an
// entry line is either a tolerated legacy directive or a hard error.
var fileDirectives = map[string]bool{
	"standard":          true,
	"optional":          true,
	"profiling-routine": true,
	"no-obj":            true,
	"no-implicit-rule":  true,
	"compile-with":      true,
	"dependency":        true,
	"before-depend":     true,
	"clean":             true,
	"warning":           true,
	"obj-prefix":        true,
	"local":             true,
}

// legacyDirectives are obsolete directives still present in real manifests.
// They are consumed and discarded with a diagnostic instead of aborting.
var legacyDirectives = map[string]bool{
	"mandatory": true,
	"no-depend": true,
	"nowerror":  true,
}

// CondItem is one token of a conjunction: a configuration item name and the
// polarity it is expected to have.
type CondItem struct {
	Name    string
	Negated bool
}

// Condition is a disjunction of conjunctions. Empty means always included.
type Condition [][]CondItem

// Matches reports whether at least one conjunction is fully satisfied by
// the configuration. The empty condition is vacuously true.
func (c Condition) Matches(cfg *Config) bool {
	if len(c) == 0 {
		return true
	}

	for _, conjunction := range c {
		satisfied := true
		for _, item := range conjunction {
			if cfg.OptionSet(item.Name) == item.Negated {
				satisfied = false
				break
			}
		}
		if satisfied {
			return true
		}
	}

	return false
}

// File is one parsed manifest entry: a translatable source and its build
// policy. Entries are immutable once parsed.
type File struct {
	Filename     string
	Optional     Condition
	Dependencies []string
	CompileWith  string
	Clean        []string
	Warning      string
	ObjPrefix    string

	Obj          bool
	ImplicitRule bool
	Profiling    bool
	Local        bool
	BeforeDepend bool
}

func parseFile(line string) (*File, error) {
	tokens := strings.Fields(line)
	if len(tokens) < 2 {
		return nil, fmt.Errorf("missing directives for manifest entry: %s", line)
	}

	f := &File{
		Filename:     tokens[0],
		Obj:          true,
		ImplicitRule: true,
	}

	tokens = tokens[1:]
	for len(tokens) > 0 {
		directive := tokens[0]
		tokens = tokens[1:]

		if !fileDirectives[directive] {
			if legacyDirectives[directive] {
				var run []string
				run, tokens = collectNonDirectives(tokens)
				msg.Warn("skipping %s on %s (%d arguments discarded)",
					directive, f.Filename, len(run))
				continue
			}
			return nil, fmt.Errorf("%w for %s: %s", ErrUnknownDirective, f.Filename, directive)
		}

		var err error
		switch directive {
		case "standard":
		case "optional":
			var spec []string
			spec, tokens = collectNonDirectives(tokens)
			f.Optional, err = parseOptionalSpec(spec)
		case "compile-with":
			f.CompileWith, tokens = quotedString(tokens)
		case "clean":
			var targets []string
			targets, tokens = quotedList(tokens)
			for _, t := range targets {
				if t != f.Filename {
					f.Clean = append(f.Clean, t)
				}
			}
		case "dependency":
			var deps []string
			deps, tokens = quotedList(tokens)
			f.Dependencies = append(f.Dependencies, deps...)
		case "obj-prefix":
			f.ObjPrefix, tokens = quotedString(tokens)
		case "warning":
			f.Warning, tokens = quotedString(tokens)
		case "no-obj":
			f.Obj = false
		case "no-implicit-rule":
			f.ImplicitRule = false
		case "local":
			f.Local = true
		case "profiling-routine":
			f.Profiling = true
		case "before-depend":
			f.BeforeDepend = true
		}
		if err != nil {
			return nil, err
		}
	}

	// ia32_genassym.o must exist before dependency scanning even though the
	// manifest never says so.
	if strings.HasSuffix(f.Filename, "ia32_genassym.o") {
		f.BeforeDepend = true
	}

	return f, nil
}

// collectNonDirectives splits tokens at the first directive keyword.
func collectNonDirectives(tokens []string) (run, rest []string) {
	for i, tok := range tokens {
		if fileDirectives[tok] {
			return tokens[:i], tokens[i:]
		}
	}
	return tokens, nil
}

// quotedString joins an argument run with spaces and strips one layer of
// surrounding quotes if present.
func quotedString(tokens []string) (string, []string) {
	run, rest := collectNonDirectives(tokens)
	s := strings.Join(run, " ")
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') {
		s = s[1 : len(s)-1]
	}
	return s, rest
}

func quotedList(tokens []string) ([]string, []string) {
	run, rest := collectNonDirectives(tokens)
	list := make([]string, len(run))
	for i, e := range run {
		list[i] = strings.Trim(e, `"`)
	}
	return list, rest
}

func parseOptionalSpec(spec []string) (Condition, error) {
	var cond Condition
	var run []CondItem

	endRun := func() error {
		if len(run) == 0 {
			return fmt.Errorf("%w: empty conjunction in %q", ErrMalformedCondition, strings.Join(spec, " "))
		}
		cond = append(cond, run)
		run = nil
		return nil
	}

	for _, entry := range spec {
		if entry == "|" {
			if err := endRun(); err != nil {
				return nil, err
			}
			continue
		}

		item := CondItem{Name: entry}
		if strings.HasPrefix(entry, "!") {
			item.Negated = true
			item.Name = entry[1:]
		}
		if item.Name == "" {
			return nil, fmt.Errorf("%w: empty item in %q", ErrMalformedCondition, strings.Join(spec, " "))
		}
		run = append(run, item)
	}

	if err := endRun(); err != nil {
		return nil, err
	}

	return cond, nil
}

// Files is the ordered file manifest.
type Files []*File

// standardLocalFiles are the generated sources every kernel build has; they
// are appended after all manifest files have been read.
var standardLocalFiles = []string{
	"config.c standard local",
	"env.c standard local",
	"hints.c standard local",
	"vers.c standard local",
	"vnode_if.c standard local",
}

// ParseData parses one manifest file's text, joining backslash-continued
// lines first. A # only starts a comment at the beginning of a line or
// after a space or tab, so a # inside another token survives.
func (fs *Files) ParseData(data string) error {
	prev := ""

	for _, line := range strings.Split(data, "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if i := strings.Index(line, " #"); i != -1 {
			line = line[:i]
		} else if i := strings.Index(line, "\t#"); i != -1 {
			line = line[:i]
		}
		line = strings.TrimRight(line, " \t\r")
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, `\`) {
			prev += line[:len(line)-1]
			continue
		}

		line = prev + line
		prev = ""

		f, err := parseFile(line)
		if err != nil {
			return err
		}
		*fs = append(*fs, f)
	}

	return nil
}

// AppendStandardLocal appends the synthetic entries for generated sources.
func (fs *Files) AppendStandardLocal() error {
	for _, line := range standardLocalFiles {
		if err := fs.ParseData(line); err != nil {
			return err
		}
	}
	return nil
}
