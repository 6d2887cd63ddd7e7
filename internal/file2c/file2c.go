// Package file2c renders a byte stream as a C array initializer, one
// comma-separated value list wrapped to a line budget.
package file2c

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// Options controls formatting. MaxCount of zero wraps on line width instead
// of a fixed number of values per line.
type Options struct {
	MaxCount int
	Pretty   bool
	Hex      bool
	Prefix   string
	Suffix   string
}

// Format copies r to w as a C array body.
func Format(r io.Reader, w io.Writer, opts Options) error {
	bw := bufio.NewWriter(w)

	if opts.Prefix != "" {
		fmt.Fprintln(bw, opts.Prefix)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	count, linepos := 0, 0
	for _, b := range data {
		if count > 0 {
			bw.WriteByte(',')
			linepos++
		}

		if (opts.MaxCount == 0 && linepos > 70) || (opts.MaxCount > 0 && count >= opts.MaxCount) {
			bw.WriteByte('\n')
			count, linepos = 0, 0
		}

		if opts.Pretty {
			if count > 0 {
				bw.WriteByte(' ')
				linepos++
			} else {
				bw.WriteByte('\t')
				linepos += 8
			}
		}

		var s string
		if opts.Hex {
			s = fmt.Sprintf("0x%02x", b)
		} else {
			s = strconv.Itoa(int(b))
		}
		bw.WriteString(s)
		linepos += len(s)

		count++
	}

	bw.WriteByte('\n')
	if opts.Suffix != "" {
		fmt.Fprintln(bw, opts.Suffix)
	}

	return bw.Flush()
}
