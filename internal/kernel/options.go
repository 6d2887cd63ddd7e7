package kernel

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// OptionTable routes option names to the generated header file that will
// carry their #define. Built from the global options table plus the
// machine-specific one, pre-seeded with the MAXUSERS pseudo-option.
type OptionTable struct {
	headers map[string]string
	// files keeps the header filenames in first-seen order so the set of
	// written headers is stable across runs.
	files []string
	seen  map[string]bool
}

func NewOptionTable() *OptionTable {
	t := &OptionTable{
		headers: make(map[string]string),
		seen:    make(map[string]bool),
	}
	t.add("MAXUSERS", "opt_maxusers.h")
	return t
}

func (t *OptionTable) add(option, header string) {
	t.headers[option] = header
	if !t.seen[header] {
		t.seen[header] = true
		t.files = append(t.files, header)
	}
}

// Header returns the routed header for option, if any.
func (t *OptionTable) Header(option string) (string, bool) {
	h, ok := t.headers[option]
	return h, ok
}

// ParseData reads one options table file: one entry per line, either
// "OPTION header.h" or a bare "OPTION" which derives opt_<option>.h.
func (t *OptionTable) ParseData(data string) error {
	for _, line := range strings.Split(data, "\n") {
		if i := strings.IndexByte(line, '#'); i != -1 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		option, header, ok := strings.Cut(line, " ")
		if !ok {
			option, header, _ = strings.Cut(line, "\t")
		}
		header = strings.TrimSpace(header)
		if header == "" {
			header = deriveHeader(option)
		}

		t.add(option, header)
	}

	return nil
}

func deriveHeader(option string) string {
	return "opt_" + strings.ToLower(option) + ".h"
}

// WriteHeaders writes every routed option header under path. Each configured
// option lands in its routed header; an unrouted DEV_-prefixed option is
// routed to the header derived from its device name. Headers with no active
// options are still written, empty, so stale defines never survive.
func (t *OptionTable) WriteHeaders(path string, cfg *Config) error {
	contents := make(map[string]*strings.Builder)
	files := append([]string(nil), t.files...)

	for _, f := range files {
		contents[f] = &strings.Builder{}
	}

	for _, opt := range cfg.Options() {
		header, ok := t.headers[opt.Name]
		if !ok {
			if !strings.HasPrefix(opt.Name, "DEV_") {
				return fmt.Errorf("no header known for option %s", opt.Name)
			}
			header = deriveHeader(strings.TrimPrefix(opt.Name, "DEV_"))
			if contents[header] == nil {
				contents[header] = &strings.Builder{}
				files = append(files, header)
			}
		}

		sb := contents[header]
		sb.WriteString("#define ")
		sb.WriteString(opt.Name)
		if opt.HasValue && opt.Value != "" {
			sb.WriteByte(' ')
			sb.WriteString(opt.Value)
		}
		sb.WriteByte('\n')
	}

	for _, f := range files {
		if err := os.WriteFile(filepath.Join(path, f), []byte(contents[f].String()), 0o644); err != nil {
			return err
		}
	}

	return nil
}
