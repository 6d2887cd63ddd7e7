package generate

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/jeamland/freebsd-build/internal/kernel"
)

// Placeholder environment and hints stubs. Static environments and hint
// directives are assumed unused; other machine types will need real
// contents here eventually.
const envSource = `#include <sys/types.h>
#include <sys/systm.h>

int envmode = 0;
char static_env[] = {
"\0"
};
`

const hintsSource = `#include <sys/types.h>
#include <sys/systm.h>

int hintmode = 0;
char static_hints[] = {
"\0"
};
`

const kernconfTemplate = `/*
 * This file acts as a template for config.c that will be generated in the
 * kernel build directory after config(8) has been successfully run.
 *
 * $FreeBSD$
 */
#include "opt_config.h"
#ifdef INCLUDE_CONFIG_FILE

/*
 * For !INCLUDE_CONFIG_FILE case, you should look at kern_mib.c. This is
 * where kernconfstring is defined then.
 */
const char kernconfstring[] __attribute__ ((section("kern_conf"))) =
"%%KERNCONFFILE%%";

#endif /* INCLUDE_CONFIG_FILE */
`

func writeStubs(buildPath string) error {
	if err := os.WriteFile(filepath.Join(buildPath, "env.c"), []byte(envSource), 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(buildPath, "hints.c"), []byte(hintsSource), 0o644)
}

// configSource renders config.c: the whole active configuration embedded as
// an escaped string literal, guarded by INCLUDE_CONFIG_FILE.
func configSource(cfg *kernel.Config) string {
	lines := []string{"options CONFIG_AUTOGENERATED"}
	lines = append(lines, "ident "+cfg.Ident)
	lines = append(lines, "machine "+cfg.Machine)
	for _, cpu := range cfg.CPU {
		lines = append(lines, "cpu "+cpu)
	}

	for _, makeopt := range cfg.MakeOptions {
		lines = append(lines, "makeoptions "+makeopt)
	}

	for _, opt := range cfg.Options() {
		if opt.Name == "MAXUSERS" && opt.Value == "0" {
			continue
		}
		if strings.HasPrefix(opt.Name, "DEV_") {
			continue
		}
		if !opt.HasValue || opt.Value == "1" {
			lines = append(lines, "options "+opt.Name)
		} else {
			lines = append(lines, "options "+opt.Name+"="+opt.Value)
		}
	}

	for _, device := range cfg.Devices {
		lines = append(lines, "device "+device)
	}

	confdata := strings.Join(lines, "\\n\\\n") + "\\n\\\n"
	return strings.Replace(kernconfTemplate, "%%KERNCONFFILE%%", confdata, 1)
}

func writeConfigSource(buildPath string, cfg *kernel.Config) error {
	return os.WriteFile(filepath.Join(buildPath, "config.c"), []byte(configSource(cfg)), 0o644)
}
