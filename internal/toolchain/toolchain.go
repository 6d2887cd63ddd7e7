// Package toolchain loads optional toolchain settings for the generator:
// which compiler, linker and binutils to write into the build file, plus
// free-form extra variables. Values may embed {{...}} expressions evaluated
// against the host environment.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"

	"github.com/jeamland/freebsd-build/internal/build"
)

// Settings is the parsed toolchain file.
type Settings struct {
	CC      string `toml:"cc"`
	LD      string `toml:"ld"`
	Objcopy string `toml:"objcopy"`
	NM      string `toml:"nm"`

	// Vars holds additional variables emitted verbatim into the build file.
	Vars map[string]string `toml:"vars"`
}

// Env is the expression environment available to {{...}} values.
type Env struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
}

func NewEnv() Env {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return Env{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
	}
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string.
func evaluateString(s string, env Env) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var sb strings.Builder
	last := 0

	for _, idx := range matches {
		sb.WriteString(s[last:idx[0]])

		expression := strings.TrimSpace(s[idx[2]:idx[3]])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}
		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		fmt.Fprintf(&sb, "%v", result)
		last = idx[1]
	}

	sb.WriteString(s[last:])

	return sb.String(), nil
}

// Parse decodes toolchain settings and evaluates embedded expressions.
func Parse(data []byte, env Env) (*Settings, error) {
	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}

	var err error
	for _, field := range []*string{&s.CC, &s.LD, &s.Objcopy, &s.NM} {
		if *field, err = evaluateString(*field, env); err != nil {
			return nil, err
		}
	}
	for name, value := range s.Vars {
		if s.Vars[name], err = evaluateString(value, env); err != nil {
			return nil, err
		}
	}

	return &s, nil
}

// ParseFile loads a toolchain settings file. A missing file is not an
// error; it yields nil settings.
func ParseFile(path string, env Env) (*Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(data, env)
}

// BuildVars converts the settings into ordered variable overrides for the
// synthesizer. Extra variables are sorted by name so output stays stable.
func (s *Settings) BuildVars() []build.Var {
	if s == nil {
		return nil
	}

	var vars []build.Var
	for _, v := range []build.Var{
		{Name: "CC", Value: s.CC},
		{Name: "LD", Value: s.LD},
		{Name: "OBJCOPY", Value: s.Objcopy},
		{Name: "NM", Value: s.NM},
	} {
		if v.Value != "" {
			vars = append(vars, v)
		}
	}

	names := make([]string, 0, len(s.Vars))
	for name := range s.Vars {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		vars = append(vars, build.Var{Name: name, Value: s.Vars[name]})
	}

	return vars
}
