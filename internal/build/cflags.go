package build

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// kernCFLAGS is the baseline compiler flag set for kernel C sources. Recipe
// patterns adjust a copy of it per file.
var kernCFLAGS = strings.Fields("-O2 -pipe -fno-strict-aliasing -g -nostdinc" +
	" --target=x86_64-unknown-freebsd -I. -I$S -I$S/contrib/libfdt -D_KERNEL" +
	" -DHAVE_KERNEL_OPTION_HEADERS -include opt_global.h -fPIC -fno-common" +
	" -fno-omit-frame-pointer -mno-omit-leaf-frame-pointer -MD -MF.depend.$out" +
	" -MT$out -mcmodel=kernel -mno-red-zone -mno-mmx -mno-sse -msoft-float" +
	" -fno-asynchronous-unwind-tables -ffreestanding -fwrapv -fstack-protector" +
	" -gdwarf-2 -Wall -Wredundant-decls -Wnested-externs -Wstrict-prototypes" +
	" -Wmissing-prototypes -Wpointer-arith -Winline -Wcast-qual -Wundef" +
	" -Wno-pointer-sign -D__printf__=__freebsd_kprintf__ -Wmissing-include-dirs" +
	" -fdiagnostics-show-option -Wno-unknown-pragmas" +
	" -Wno-error-tautological-compare -Wno-error-empty-body" +
	" -Wno-error-parentheses-equality -Wno-error-unused-function" +
	" -Wno-error-pointer-sign -Wno-error-shift-negative-value" +
	" -Wno-error-address-of-packed-member -mno-aes -mno-avx -std=iso9899:1999")

// removeFlag drops every flag matching arg from the set. A glob pattern
// drops all matches, a plain string drops exact occurrences.
func removeFlag(flags []string, arg string) []string {
	out := flags[:0:0]
	glob := strings.Contains(arg, "*")
	for _, f := range flags {
		if glob {
			if ok, err := doublestar.Match(arg, f); err == nil && ok {
				continue
			}
		} else if f == arg {
			continue
		}
		out = append(out, f)
	}
	return out
}

// adjustFlags applies a colon-separated per-file adjustment list: Nxxx
// removes xxx (glob-aware) from the baseline, anything else is ignored.
func adjustFlags(flags []string, args string) []string {
	for _, arg := range strings.Split(args, ":") {
		if arg == "" {
			continue
		}
		if arg[0] == 'N' {
			flags = removeFlag(flags, arg[1:])
		}
	}
	return flags
}

// genassymCFLAGS is the baseline with the flags that break genassym's
// object parsing removed.
func genassymCFLAGS() []string {
	flags := append([]string(nil), kernCFLAGS...)
	flags = removeFlag(flags, "-flto")
	flags = removeFlag(flags, "-fno-common")
	return flags
}
