package file2c

import (
	"bytes"
	"strings"
	"testing"
)

func format(t *testing.T, data []byte, opts Options) string {
	t.Helper()
	var out bytes.Buffer
	if err := Format(bytes.NewReader(data), &out, opts); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestFormatDecimal(t *testing.T) {
	got := format(t, []byte{1, 2, 3}, Options{})
	if got != "1,2,3\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatHex(t *testing.T) {
	got := format(t, []byte{0, 15, 255}, Options{Hex: true})
	if got != "0x00,0x0f,0xff\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatPrefixSuffix(t *testing.T) {
	got := format(t, []byte{7}, Options{
		Prefix: "const char data[] = {",
		Suffix: "};",
	})
	if got != "const char data[] = {\n7\n};\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatMaxCount(t *testing.T) {
	got := format(t, []byte{1, 2, 3, 4, 5}, Options{MaxCount: 2})
	if got != "1,2,\n3,4,\n5\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatPretty(t *testing.T) {
	got := format(t, []byte{1, 2, 3, 4}, Options{MaxCount: 2, Pretty: true})
	if got != "\t1, 2,\n\t3, 4\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatLineWrap(t *testing.T) {
	data := bytes.Repeat([]byte{200}, 40)
	got := format(t, data, Options{})
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) < 2 {
		t.Fatalf("expected wrapped output, got %q", got)
	}
	for _, line := range lines[:len(lines)-1] {
		if len(line) < 70 || len(line) > 76 {
			t.Errorf("line length %d outside expected wrap window: %q", len(line), line)
		}
	}
}

func TestFormatEmpty(t *testing.T) {
	got := format(t, nil, Options{})
	if got != "\n" {
		t.Errorf("got %q", got)
	}
}
