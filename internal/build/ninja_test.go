package build

import (
	"strings"
	"testing"
)

func TestWriteEdgeFormats(t *testing.T) {
	cases := []struct {
		name  string
		edge  Edge
		extra []string
		want  string
	}{
		{
			name: "plain",
			edge: Edge{Output: "foo.o", Rule: "cc", Inputs: []string{"$S/foo.c"}},
			want: "build foo.o: cc $S/foo.c\n",
		},
		{
			name: "no inputs",
			edge: Edge{Output: "hack.pico", Rule: "hack"},
			want: "build hack.pico: hack\n",
		},
		{
			name: "implicit outputs",
			edge: Edge{Output: "vers.c", ImplicitOutputs: []string{"version"}, Rule: "newvers"},
			want: "build vers.c | version: newvers\n",
		},
		{
			name: "implicit and order deps",
			edge: Edge{
				Output:       "foo.o",
				Rule:         "cc",
				Inputs:       []string{"foo.c"},
				ImplicitDeps: []string{"foo.h"},
				OrderDeps:    []string{"machine"},
			},
			want: "build foo.o: cc foo.c | foo.h || machine\n",
		},
		{
			name:  "injected before-depends",
			edge:  Edge{Output: "foo.o", Rule: "cc", Inputs: []string{"foo.c"}, ImplicitDeps: []string{"foo.h"}},
			extra: []string{"vnode_if.h", "bus_if.h"},
			want:  "build foo.o: cc foo.c | vnode_if.h bus_if.h foo.h\n",
		},
		{
			name: "edge-local variables",
			edge: Edge{Output: "genassym.o", Rule: "cc", Inputs: []string{"genassym.c"}, Vars: []Var{{"CFLAGS", "$CFLAGS_GENASSYM"}}},
			want: "build genassym.o: cc genassym.c\n  CFLAGS = $CFLAGS_GENASSYM\n",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var sb strings.Builder
			writeEdge(&sb, tc.edge, tc.extra)
			if sb.String() != tc.want {
				t.Errorf("got %q, want %q", sb.String(), tc.want)
			}
		})
	}
}

func TestWriteRuleFormats(t *testing.T) {
	var sb strings.Builder
	writeRule(&sb, Rule{Name: "cc", Command: "$CC -c $CFLAGS $in", Deps: "gcc", Depfile: ".depend.$out"})
	want := "rule cc\n  command = $CC -c $CFLAGS $in\n  deps = gcc\n  depfile = .depend.$out\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}

	sb.Reset()
	writeRule(&sb, Rule{Name: "freebsd-config", Command: "freebsd-config -b . $in", Generator: true})
	want = "rule freebsd-config\n  command = freebsd-config -b . $in\n  generator = 1\n"
	if sb.String() != want {
		t.Errorf("got %q, want %q", sb.String(), want)
	}
}

func TestNinjaLayout(t *testing.T) {
	g := synth(t, "kern/foo.c standard\nkern/bus_if.m standard\n", "")
	out := g.Ninja()

	if !strings.HasPrefix(out, "MACHINE = amd64\n") {
		t.Error("output does not start with the MACHINE assignment")
	}

	// Rules are declared before any build line.
	firstBuild := strings.Index(out, "\nbuild ")
	lastRule := strings.LastIndex(out, "\nrule ")
	if firstBuild == -1 || lastRule == -1 || lastRule > firstBuild {
		t.Error("rule declarations not all before build lines")
	}

	// Every early edge precedes every normal edge.
	early := strings.Index(out, "build vnode_if.h:")
	normal := strings.Index(out, "build foo.o:")
	if early == -1 || normal == -1 || early > normal {
		t.Error("early edge does not precede normal edge")
	}

	// Normal edges carry the before-depends set as implicit deps.
	if !strings.Contains(out, "build foo.o: cc $S/kern/foo.c | vnode_if.h bus_if.h\n") {
		t.Errorf("foo.o edge missing injected before-depends:\n%s", out)
	}
	// Early edges do not.
	if !strings.Contains(out, "build bus_if.h: awk $S/tools/makeobjops.awk $S/kern/bus_if.m\n") {
		t.Errorf("bus_if.h early edge malformed:\n%s", out)
	}

	// The self-regeneration edge comes last.
	if !strings.HasSuffix(out, "\nbuild build.ninja: freebsd-config $KERNEL_CONFIG\n") {
		t.Errorf("output does not end with the regeneration edge:\n%s", out[len(out)-200:])
	}
}
