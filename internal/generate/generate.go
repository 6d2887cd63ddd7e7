// Package generate ties the whole pipeline together: locate the input files
// relative to the source tree, build the models, write the generated side
// artifacts and emit build.ninja.
package generate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sanity-io/litter"

	"github.com/jeamland/freebsd-build/internal/build"
	"github.com/jeamland/freebsd-build/internal/kernel"
	"github.com/jeamland/freebsd-build/internal/msg"
	"github.com/jeamland/freebsd-build/internal/toolchain"
)

// Params carries the CLI arguments for one generation run.
type Params struct {
	ConfigFile string
	Machine    string
	SrcPath    string
	BuildPath  string
	Toolchain  string
}

// paths are the resolved input locations for one run.
type paths struct {
	src      string
	sys      string
	machine  string
	defaults string
}

// resolvePaths locates the source tree around the configuration file. A
// config file living at src/sys/<machine>/conf/CONF implies everything;
// an explicit source path or machine name overrides the inference.
func resolvePaths(p Params) (paths, error) {
	var r paths
	r.machine = p.Machine

	if p.SrcPath == "" {
		confDir, err := filepath.Abs(filepath.Dir(p.ConfigFile))
		if err != nil {
			return r, err
		}
		machineDir := filepath.Dir(confDir)
		r.sys = filepath.Dir(machineDir)
		if r.machine == "" {
			r.machine = filepath.Base(machineDir)
		}
		r.src = filepath.Dir(r.sys)
	} else {
		r.src = p.SrcPath
		r.sys = filepath.Join(p.SrcPath, "sys")
	}

	if _, err := os.Stat(r.src); err != nil {
		return r, fmt.Errorf("bad src path: %s", r.src)
	}

	if p.Machine == "" && p.SrcPath != "" {
		r.defaults = filepath.Join(filepath.Dir(p.ConfigFile), "DEFAULTS")
	} else {
		r.defaults = filepath.Join(r.sys, r.machine, "conf", "DEFAULTS")
	}

	return r, nil
}

func parseInto(path string, parse func(string) error) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := parse(string(data)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Run performs one full generation. build.ninja is only written after the
// entire graph has been synthesized successfully.
func Run(p Params) error {
	if err := os.MkdirAll(p.BuildPath, 0o755); err != nil {
		return err
	}

	r, err := resolvePaths(p)
	if err != nil {
		return err
	}

	cfg := kernel.NewConfig()
	cfg.Filename = p.ConfigFile
	for _, f := range []string{r.defaults, p.ConfigFile} {
		if err := parseInto(f, cfg.ParseData); err != nil {
			return err
		}
	}

	options := kernel.NewOptionTable()
	for _, f := range []string{
		filepath.Join(r.sys, "conf", "options"),
		filepath.Join(r.sys, "conf", "options."+cfg.Machine),
	} {
		if err := parseInto(f, options.ParseData); err != nil {
			return err
		}
	}

	var files kernel.Files
	for _, f := range []string{
		filepath.Join(r.sys, "conf", "files"),
		filepath.Join(r.sys, "conf", "files."+cfg.Machine),
	} {
		if err := parseInto(f, files.ParseData); err != nil {
			return err
		}
	}
	if err := files.AppendStandardLocal(); err != nil {
		return err
	}

	msg.Info("machine %s ident %s (%d options, %d devices, %d files)",
		cfg.Machine, cfg.Ident, len(cfg.Options()), len(cfg.Devices), len(files))
	msg.Debug("%s", litter.Sdump(cfg))

	for _, f := range files {
		if f.Warning != "" && f.Optional.Matches(cfg) {
			msg.Warn("%s: %s", f.Filename, f.Warning)
		}
	}

	settings, err := toolchain.ParseFile(p.Toolchain, toolchain.NewEnv())
	if err != nil {
		return err
	}

	if err := options.WriteHeaders(p.BuildPath, cfg); err != nil {
		return err
	}
	if err := writeStubs(p.BuildPath); err != nil {
		return err
	}
	if err := writeConfigSource(p.BuildPath, cfg); err != nil {
		return err
	}

	graph, err := build.Synthesize(files, cfg, build.DefaultPatterns(), build.Options{
		SourceDir: r.sys,
		Vars:      settings.BuildVars(),
	})
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(p.BuildPath, "build.ninja"), []byte(graph.Ninja()), 0o644)
}
