package logger

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
)

// formatTemplate expands a brace template against positional and named values.
//
// Supported replacement fields:
//
//	{}            next positional value
//	{0}           positional value by index
//	{name}        named value
//	{name.field}  field of a named value (maps, Caller)
//	{name[key]}   map key or slice index
//	{x!r}         quoted representation (also !s and !a)
//	{x:<18}       format spec: [[fill]align][sign][0][width][,][.precision][type]
//	{{ and }}     literal braces
//
// Any field that cannot be resolved fails with *FormatterError.
func formatTemplate(tmpl string, args []any, fields map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl) + 32)

	auto := 0
	manual := false
	fail := func(reason string) (string, error) {
		return "", &FormatterError{Template: tmpl, Reason: reason}
	}

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		switch c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return fail("single '{' encountered")
			}
			field := tmpl[i+1 : i+1+end]
			if strings.IndexByte(field, '{') >= 0 {
				return fail("nested replacement fields are not supported")
			}
			i += end + 1

			name, conv, spec := splitField(field)
			if conv == "invalid" {
				return fail("invalid conversion in {" + field + "}")
			}

			root, rest := splitFieldName(name)
			var v any
			switch {
			case root == "":
				if manual {
					return fail("cannot switch from manual field numbering to automatic")
				}
				if auto >= len(args) {
					return fail(fmt.Sprintf("positional index %d out of range (%d values)", auto, len(args)))
				}
				v = args[auto]
				auto++
			case isDigits(root):
				if auto > 0 {
					return fail("cannot switch from automatic field numbering to manual")
				}
				manual = true
				idx, _ := strconv.Atoi(root)
				if idx >= len(args) {
					return fail(fmt.Sprintf("positional index %d out of range (%d values)", idx, len(args)))
				}
				v = args[idx]
			default:
				var ok bool
				v, ok = fields[root]
				if !ok {
					return fail("unknown field " + strconv.Quote(root))
				}
			}

			v, err := resolveAccessors(v, rest)
			if err != nil {
				return fail(err.Error())
			}
			v = convertValue(v, conv)

			s, err := formatValue(v, spec)
			if err != nil {
				return fail(err.Error())
			}
			b.WriteString(s)
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return fail("single '}' encountered")
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// splitField separates "name!conv:spec".
func splitField(field string) (name, conv, spec string) {
	name = field
	if i := strings.IndexAny(field, "!:"); i >= 0 {
		name = field[:i]
		rest := field[i:]
		if rest[0] == '!' {
			if len(rest) < 2 || (len(rest) > 2 && rest[2] != ':') {
				return name, "invalid", ""
			}
			conv = rest[1:2]
			rest = rest[2:]
		}
		if strings.HasPrefix(rest, ":") {
			spec = rest[1:]
		}
	}
	if conv != "" && conv != "r" && conv != "s" && conv != "a" {
		conv = "invalid"
	}
	return name, conv, spec
}

// splitFieldName splits "stack.lineno" into "stack" and ".lineno".
func splitFieldName(name string) (root, rest string) {
	if i := strings.IndexAny(name, ".["); i >= 0 {
		return name[:i], name[i:]
	}
	return name, ""
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// fieldResolver is implemented by values exposing named fields to templates.
type fieldResolver interface {
	templateField(name string) (any, bool)
}

func resolveAccessors(v any, rest string) (any, error) {
	for rest != "" {
		var key string
		switch rest[0] {
		case '.':
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			key, rest = rest[:end], rest[end:]
		case '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return nil, errors.New("missing ']' in field")
			}
			key, rest = rest[1:end], rest[end+1:]
			if isDigits(key) {
				rv := reflect.ValueOf(v)
				if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
					idx, _ := strconv.Atoi(key)
					if idx >= rv.Len() {
						return nil, errors.Errorf("index %d out of range", idx)
					}
					v = rv.Index(idx).Interface()
					continue
				}
			}
		default:
			return nil, errors.Errorf("unexpected %q in field name", rest[0])
		}
		if key == "" {
			return nil, errors.New("empty attribute in field name")
		}

		switch t := v.(type) {
		case map[string]any:
			next, ok := t[key]
			if !ok {
				return nil, errors.Errorf("unknown field %q", key)
			}
			v = next
		case fieldResolver:
			next, ok := t.templateField(key)
			if !ok {
				return nil, errors.Errorf("unknown field %q", key)
			}
			v = next
		default:
			return nil, errors.Errorf("value of type %T has no field %q", v, key)
		}
	}
	return v, nil
}

func convertValue(v any, conv string) any {
	switch conv {
	case "s":
		return fmt.Sprint(v)
	case "r":
		if s, ok := v.(string); ok {
			return strconv.Quote(s)
		}
		return fmt.Sprintf("%#v", v)
	case "a":
		if s, ok := v.(string); ok {
			return strconv.QuoteToASCII(s)
		}
		return strconv.QuoteToASCII(fmt.Sprintf("%#v", v))
	}
	return v
}

type formatSpec struct {
	fill      rune
	align     byte
	sign      byte
	zero      bool
	width     int
	grouping  byte
	precision int
	verb      byte
}

func parseSpec(spec string) (formatSpec, error) {
	fs := formatSpec{precision: -1}
	if spec == "" {
		return fs, nil
	}

	isAlign := func(c byte) bool { return c == '<' || c == '>' || c == '^' || c == '=' }
	r, size := utf8.DecodeRuneInString(spec)
	if size < len(spec) && isAlign(spec[size]) {
		fs.fill, fs.align = r, spec[size]
		spec = spec[size+1:]
	} else if isAlign(spec[0]) {
		fs.align = spec[0]
		spec = spec[1:]
	}

	if spec != "" && (spec[0] == '+' || spec[0] == '-' || spec[0] == ' ') {
		fs.sign = spec[0]
		spec = spec[1:]
	}
	if spec != "" && spec[0] == '#' {
		spec = spec[1:]
	}
	if spec != "" && spec[0] == '0' {
		fs.zero = true
		spec = spec[1:]
	}

	n := 0
	for n < len(spec) && spec[n] >= '0' && spec[n] <= '9' {
		n++
	}
	if n > 0 {
		fs.width, _ = strconv.Atoi(spec[:n])
		spec = spec[n:]
	}
	if spec != "" && (spec[0] == ',' || spec[0] == '_') {
		fs.grouping = spec[0]
		spec = spec[1:]
	}
	if spec != "" && spec[0] == '.' {
		n = 1
		for n < len(spec) && spec[n] >= '0' && spec[n] <= '9' {
			n++
		}
		if n == 1 {
			return fs, errors.New("format specifier missing precision")
		}
		fs.precision, _ = strconv.Atoi(spec[1:n])
		spec = spec[n:]
	}
	if len(spec) == 1 {
		fs.verb = spec[0]
	} else if len(spec) > 1 {
		return fs, errors.Errorf("invalid format specifier %q", spec)
	}
	return fs, nil
}

// formatValue applies a format spec to a single value.
func formatValue(v any, spec string) (string, error) {
	fs, err := parseSpec(spec)
	if err != nil {
		return "", err
	}

	var (
		body    string
		sign    string
		numeric bool
	)

	switch x := v.(type) {
	case bool:
		if fs.verb == 0 || fs.verb == 's' {
			body = strconv.FormatBool(x)
			break
		}
		n := int64(0)
		if x {
			n = 1
		}
		numeric = true
		body, sign, err = formatInt(n, fs)
	case int, int8, int16, int32, int64:
		numeric = true
		body, sign, err = formatInt(reflect.ValueOf(x).Int(), fs)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		numeric = true
		body, sign, err = formatUint(reflect.ValueOf(x).Uint(), false, fs)
	case float32:
		numeric = true
		body, sign, err = formatFloat(float64(x), fs)
	case float64:
		numeric = true
		body, sign, err = formatFloat(x, fs)
	case string:
		body, err = formatString(x, fs)
	default:
		body, err = formatString(fmt.Sprint(x), fs)
	}
	if err != nil {
		return "", err
	}

	return pad(sign, body, fs, numeric), nil
}

func signOf(negative bool, fs formatSpec) string {
	switch {
	case negative:
		return "-"
	case fs.sign == '+':
		return "+"
	case fs.sign == ' ':
		return " "
	}
	return ""
}

func formatInt(n int64, fs formatSpec) (body, sign string, err error) {
	if n < 0 {
		return formatUint(uint64(-n), true, fs)
	}
	return formatUint(uint64(n), false, fs)
}

// formatUint formats the magnitude u of an integer, negative when neg is set.
func formatUint(u uint64, neg bool, fs formatSpec) (body, sign string, err error) {
	switch fs.verb {
	case 'f', 'F', 'e', 'E', 'g', 'G', '%':
		f := float64(u)
		if neg {
			f = -f
		}
		return formatFloat(f, fs)
	}
	if fs.precision >= 0 {
		return "", "", errors.New("precision not allowed in integer format specifier")
	}

	switch fs.verb {
	case 0, 'd', 'n':
		body = strconv.FormatUint(u, 10)
		if fs.grouping != 0 {
			body = groupDigits(body, fs.grouping)
		}
	case 'x':
		body = strconv.FormatUint(u, 16)
	case 'X':
		body = strings.ToUpper(strconv.FormatUint(u, 16))
	case 'o':
		body = strconv.FormatUint(u, 8)
	case 'b':
		body = strconv.FormatUint(u, 2)
	case 'c':
		body = string(rune(u))
	default:
		return "", "", errors.Errorf("unknown format code '%c' for integer", fs.verb)
	}
	return body, signOf(neg, fs), nil
}

func formatFloat(f float64, fs formatSpec) (body, sign string, err error) {
	neg := f < 0
	if neg {
		f = -f
	}
	prec := fs.precision
	switch fs.verb {
	case 'f', 'F':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f, 'f', prec, 64)
	case 'e', 'E':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f, fs.verb, prec, 64)
	case 'g', 'G':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f, fs.verb, prec, 64)
	case '%':
		if prec < 0 {
			prec = 6
		}
		body = strconv.FormatFloat(f*100, 'f', prec, 64) + "%"
	case 0:
		if prec >= 0 {
			body = strconv.FormatFloat(f, 'g', prec, 64)
		} else {
			body = strconv.FormatFloat(f, 'g', -1, 64)
		}
	default:
		return "", "", errors.Errorf("unknown format code '%c' for float", fs.verb)
	}
	if fs.grouping != 0 && fs.verb != 'e' && fs.verb != 'E' {
		intPart, frac, hasFrac := strings.Cut(body, ".")
		body = groupDigits(intPart, fs.grouping)
		if hasFrac {
			body += "." + frac
		}
	}
	return body, signOf(neg, fs), nil
}

func formatString(s string, fs formatSpec) (string, error) {
	if fs.verb != 0 && fs.verb != 's' {
		return "", errors.Errorf("unknown format code '%c' for string", fs.verb)
	}
	if fs.sign != 0 {
		return "", errors.New("sign not allowed in string format specifier")
	}
	if fs.align == '=' {
		return "", errors.New("'=' alignment not allowed in string format specifier")
	}
	if fs.precision >= 0 && utf8.RuneCountInString(s) > fs.precision {
		s = string([]rune(s)[:fs.precision])
	}
	return s, nil
}

func groupDigits(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// pad applies fill, alignment and width. Width is measured in terminal cells
// with escape sequences ignored, so colored and plain renderings line up.
func pad(sign, body string, fs formatSpec, numeric bool) string {
	fill, align := fs.fill, fs.align
	if fs.zero && fill == 0 {
		fill = '0'
		if align == 0 {
			if numeric {
				align = '='
			} else {
				align = '<'
			}
		}
	}
	if fill == 0 {
		fill = ' '
	}
	if align == 0 {
		if numeric {
			align = '>'
		} else {
			align = '<'
		}
	}

	n := fs.width - DisplayWidth(sign+body)
	if n <= 0 {
		return sign + body
	}
	fillStr := func(k int) string { return strings.Repeat(string(fill), k) }
	switch align {
	case '<':
		return sign + body + fillStr(n)
	case '^':
		left := n / 2
		return fillStr(left) + sign + body + fillStr(n-left)
	case '=':
		return sign + fillStr(n) + body
	default:
		return fillStr(n) + sign + body
	}
}

// DisplayWidth returns the number of terminal cells s occupies, ignoring ANSI
// escape sequences.
func DisplayWidth(s string) int {
	return runewidth.StringWidth(StripANSI(s))
}

// StripANSI removes ANSI color sequences like \033[36m and \033[0m.
func StripANSI(s string) string {
	if strings.IndexByte(s, '\033') < 0 {
		return s
	}
	var result strings.Builder
	result.Grow(len(s))
	inEscape := false
	for i := 0; i < len(s); i++ {
		if s[i] == '\033' && i+1 < len(s) && s[i+1] == '[' {
			inEscape = true
			i++
			continue
		}
		if inEscape {
			if s[i] == 'm' {
				inEscape = false
			}
			continue
		}
		result.WriteByte(s[i])
	}
	return result.String()
}
