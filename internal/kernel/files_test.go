package kernel

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func parseOne(t *testing.T, line string) *File {
	t.Helper()
	var fs Files
	if err := fs.ParseData(line); err != nil {
		t.Fatal(err)
	}
	if len(fs) != 1 {
		t.Fatalf("parsed %d entries, want 1", len(fs))
	}
	return fs[0]
}

func TestFileStandard(t *testing.T) {
	f := parseOne(t, "kern/kern_exit.c standard\n")
	if f.Filename != "kern/kern_exit.c" {
		t.Errorf("filename = %q", f.Filename)
	}
	if !f.Obj || !f.ImplicitRule || f.Local || f.Profiling || f.BeforeDepend {
		t.Errorf("unexpected flags: %+v", f)
	}
	if len(f.Optional) != 0 {
		t.Errorf("standard entry has condition %v", f.Optional)
	}
}

func TestFileDirectives(t *testing.T) {
	f := parseOne(t, `dev/foo/foo.c optional foo no-obj local before-depend `+
		`compile-with "${AWK} -f $S/tools/foo.awk ${.IMPSRC} > ${.TARGET}" `+
		`dependency "$S/tools/foo.awk" "foo_if.src" clean "foo.c foo.h"`+"\n")

	if f.Obj {
		t.Error("no-obj not applied")
	}
	if !f.Local || !f.BeforeDepend {
		t.Error("local/before-depend not applied")
	}
	if want := "${AWK} -f $S/tools/foo.awk ${.IMPSRC} > ${.TARGET}"; f.CompileWith != want {
		t.Errorf("compile-with = %q, want %q", f.CompileWith, want)
	}
	if diff := cmp.Diff([]string{"$S/tools/foo.awk", "foo_if.src"}, f.Dependencies); diff != "" {
		t.Errorf("dependencies mismatch (-want +got):\n%s", diff)
	}
}

func TestFileCleanExcludesOwnOutput(t *testing.T) {
	f := parseOne(t, `foo.c standard clean "foo.c bar.h"`+"\n")
	if diff := cmp.Diff([]string{"bar.h"}, f.Clean); diff != "" {
		t.Errorf("clean mismatch (-want +got):\n%s", diff)
	}
}

func TestFileContinuation(t *testing.T) {
	f := parseOne(t, "dev/bar/bar.c optional bar \\\n\tcompile-with \"${NORMAL_C}\"\n")
	if f.Filename != "dev/bar/bar.c" {
		t.Errorf("filename = %q", f.Filename)
	}
	if f.CompileWith != "${NORMAL_C}" {
		t.Errorf("compile-with = %q", f.CompileWith)
	}
}

func TestFileCommentRules(t *testing.T) {
	var fs Files
	err := fs.ParseData(`# full line comment
foo.c standard # trailing comment
dev/isa#3.c standard
`)
	if err != nil {
		t.Fatal(err)
	}
	if len(fs) != 2 {
		t.Fatalf("parsed %d entries, want 2", len(fs))
	}
	// A # inside a token is not a comment starter.
	if fs[1].Filename != "dev/isa#3.c" {
		t.Errorf("filename = %q, want dev/isa#3.c", fs[1].Filename)
	}
}

func TestFileUnknownDirective(t *testing.T) {
	var fs Files
	err := fs.ParseData("foo.c standard frobnicate yes\n")
	if !errors.Is(err, ErrUnknownDirective) {
		t.Errorf("err = %v, want ErrUnknownDirective", err)
	}
}

func TestFileLegacyDirectiveTolerated(t *testing.T) {
	f := parseOne(t, "foo.c standard nowerror local\n")
	if !f.Local {
		t.Error("directive after legacy run not applied")
	}
}

func TestFileGenassymQuirk(t *testing.T) {
	f := parseOne(t, `ia32_genassym.o standard compile-with "${CC} ${CFLAGS:N-flto} -c ${.IMPSRC}" no-obj`+"\n")
	if !f.BeforeDepend {
		t.Error("ia32_genassym.o should force before-depend")
	}
}

func TestFileMalformedCondition(t *testing.T) {
	for _, line := range []string{
		"foo.c optional a | | b\n",
		"foo.c optional !\n",
		"foo.c optional a |\n",
	} {
		var fs Files
		err := fs.ParseData(line)
		if !errors.Is(err, ErrMalformedCondition) {
			t.Errorf("%q: err = %v, want ErrMalformedCondition", strings.TrimSpace(line), err)
		}
	}
}

func TestAppendStandardLocal(t *testing.T) {
	var fs Files
	if err := fs.AppendStandardLocal(); err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, f := range fs {
		names = append(names, f.Filename)
		if !f.Local {
			t.Errorf("%s: synthetic entry not local", f.Filename)
		}
	}
	want := []string{"config.c", "env.c", "hints.c", "vers.c", "vnode_if.c"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("synthetic entries mismatch (-want +got):\n%s", diff)
	}
}

func configWith(t *testing.T, data string) *Config {
	t.Helper()
	cfg := NewConfig()
	if err := cfg.ParseData(data); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestConditionMatches(t *testing.T) {
	cases := []struct {
		name   string
		spec   string
		config string
		want   bool
	}{
		{"empty is vacuously true", "", "", true},
		{"option present", "optional baz", "options BAZ\n", true},
		{"option absent", "optional baz", "", false},
		{"device satisfies", "optional baz", "device baz\n", true},
		{"negation satisfied", "optional !baz", "", true},
		{"negation violated", "optional !baz", "options BAZ\n", false},
		{"disjunction second wins", "optional a | !b", "", true},
		{"conjunction all required", "optional a b", "options A\n", false},
		{"conjunction satisfied", "optional a b", "options A\noptions B\n", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			line := "qux.c standard\n"
			if tc.spec != "" {
				line = "qux.c " + tc.spec + "\n"
			}
			f := parseOne(t, line)
			cfg := configWith(t, tc.config)
			if got := f.Optional.Matches(cfg); got != tc.want {
				t.Errorf("Matches = %v, want %v", got, tc.want)
			}
		})
	}
}
