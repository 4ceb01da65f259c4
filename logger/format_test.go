package logger

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTemplate(t *testing.T) {
	fields := map[string]any{
		"name":  "Main",
		"n":     42,
		"pi":    3.14159,
		"neg":   -7,
		"ok":    true,
		"stack": Caller{File: "/src/app/main.go", Line: 12, Function: "main.run"},
		"fg":    map[string]any{"red": "<red>"},
		"list":  []string{"a", "b"},
	}

	cases := []struct {
		tmpl string
		args []any
		want string
	}{
		{"plain text", nil, "plain text"},
		{"{} and {}", []any{"a", "b"}, "a and b"},
		{"{1} before {0}", []any{"a", "b"}, "b before a"},
		{"{0}{0}", []any{"x"}, "xx"},
		{"{{literal}} {}", []any{1}, "{literal} 1"},
		{"{name}", nil, "Main"},
		{"{name:<8}|", nil, "Main    |"},
		{"{name:>8}|", nil, "    Main|"},
		{"{name:^8}|", nil, "  Main  |"},
		{"{name:*^9}|", nil, "**Main***|"},
		{"{name:.2}", nil, "Ma"},
		{"{name!r}", nil, `"Main"`},
		{"{n:5}", nil, "   42"},
		{"{n:<5}|", nil, "42   |"},
		{"{n:05d}", nil, "00042"},
		{"{neg:05d}", nil, "-0007"},
		{"{n:+d}", nil, "+42"},
		{"{n:x} {n:X} {n:o} {n:b}", nil, "2a 2A 52 101010"},
		{"{n:,}", []any{}, "42"},
		{"{0:,}", []any{1234567}, "1,234,567"},
		{"{0:_d}", []any{1234567}, "1_234_567"},
		{"{pi:.2f}", nil, "3.14"},
		{"{pi:8.3f}|", nil, "   3.142|"},
		{"{pi:e}", nil, "3.141590e+00"},
		{"{0:.1%}", []any{0.256}, "25.6%"},
		{"{n:.2f}", nil, "42.00"},
		{"{pi}", nil, "3.14159"},
		{"{ok} {ok:d}", nil, "true 1"},
		{"{stack.basename}:{stack.lineno} {stack.function}", nil, "main.go:12 main.run"},
		{"{stack.lineno:04d}", nil, "0012"},
		{"{fg.red}x", nil, "<red>x"},
		{"{fg[red]}x", nil, "<red>x"},
		{"{list[1]}", nil, "b"},
		{"{0:04s}", []any{"1234"}, "1234"},
		{"{0:06s}", []any{"ab"}, "ab0000"},
		{"{0:>6}", []any{"\x1b[31mab\x1b[0m"}, "    \x1b[31mab\x1b[0m"},
		{"{0:<4}|", []any{"日本"}, "日本|"},
		{"{0:x}", []any{uint64(1 << 63)}, "8000000000000000"},
		{"{0:,}", []any{uint64(math.MaxUint64)}, "18,446,744,073,709,551,615"},
		{"{0:b}", []any{uint64(1 << 63)}, "1" + strings.Repeat("0", 63)},
		{"{0:>6d}|", []any{uint8(200)}, "   200|"},
		{"{0:.1f}", []any{uint64(math.MaxUint32)}, "4294967295.0"},
		{"{0}", []any{int64(math.MinInt64)}, "-9223372036854775808"},
		{"{0:x}", []any{int64(math.MinInt64)}, "-8000000000000000"},
	}
	for _, tc := range cases {
		got, err := formatTemplate(tc.tmpl, tc.args, fields)
		require.NoError(t, err, tc.tmpl)
		assert.Equal(t, tc.want, got, tc.tmpl)
	}
}

func TestFormatTemplate_Errors(t *testing.T) {
	fields := map[string]any{
		"name":  "Main",
		"n":     42,
		"stack": Caller{},
	}

	cases := []struct {
		tmpl string
		args []any
	}{
		{"{}", nil},
		{"{} {}", []any{1}},
		{"{3}", []any{1}},
		{"{} {0}", []any{1}},
		{"{0} {}", []any{1}},
		{"{missing}", nil},
		{"{stack.nothing}", nil},
		{"{name.field}", nil},
		{"open {", nil},
		{"close }", nil},
		{"{n!z}", nil},
		{"{n:q}", nil},
		{"{n:.2d}", nil},
		{"{name:d}", nil},
		{"{name:+}", nil},
		{"{name:=5}", nil},
		{"{n:.}", nil},
		{"{n:5xx}", nil},
		{"{name[0}", nil},
	}
	for _, tc := range cases {
		_, err := formatTemplate(tc.tmpl, tc.args, fields)
		require.Error(t, err, tc.tmpl)
		assert.ErrorIs(t, err, ErrFormatter, tc.tmpl)

		var ferr *FormatterError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, tc.tmpl, ferr.Template)
	}
}

func TestDisplayWidth(t *testing.T) {
	assert.Equal(t, 4, DisplayWidth("INFO"))
	assert.Equal(t, 4, DisplayWidth("\x1b[96mINFO\x1b[0m"))
	assert.Equal(t, 4, DisplayWidth("日本"))
	assert.Equal(t, 0, DisplayWidth(""))
}

func TestStripANSI(t *testing.T) {
	assert.Equal(t, "plain", StripANSI("plain"))
	assert.Equal(t, "red and bold", StripANSI("\x1b[31mred\x1b[0m and \x1b[101;30mbold\x1b[0m"))
}
