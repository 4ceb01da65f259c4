package logger

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
)

// ColorCode is a raw ANSI escape sequence. The empty code means "no color".
type ColorCode string

// Code builds the escape sequence selecting the given attributes.
func Code(attrs ...color.Attribute) ColorCode {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = strconv.Itoa(int(a))
	}
	return ColorCode("\x1b[" + strings.Join(parts, ";") + "m")
}

// Reset clears every color and style attribute.
var Reset = Code(color.Reset)

// criticalHighlight is wrapped around the message of CRITICAL records in colored output.
var criticalHighlight = Code(color.BgHiRed, color.FgBlack)

// Wrap returns s surrounded by c and Reset. An empty code returns s unchanged.
func (c ColorCode) Wrap(s string) string {
	if c == "" {
		return s
	}
	return string(c) + s + string(Reset)
}

// Category classifies an argument for coloring.
type Category string

// Value categories. CategoryException and CategoryAll are literal tags: the first
// colors attached error traces, the second is the fallback and is never returned
// by CategoryOf.
const (
	CategoryInt       Category = "int"
	CategoryFloat     Category = "float"
	CategoryBool      Category = "bool"
	CategoryString    Category = "string"
	CategoryBytes     Category = "bytes"
	CategoryList      Category = "list"
	CategoryTuple     Category = "tuple"
	CategoryMap       Category = "map"
	CategoryError     Category = "error"
	CategoryException Category = "exception"
	CategoryAll       Category = "all"
)

// CategoryOf returns the category of v. Values outside the known kinds are
// categorized by their Go type name (for example "time.Time"), which resolves to
// the fallback color unless a color set maps that name.
func CategoryOf(v any) Category {
	switch v.(type) {
	case nil:
		return "nil"
	case error:
		return CategoryError
	case []byte:
		return CategoryBytes
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return CategoryInt
	case reflect.Float32, reflect.Float64:
		return CategoryFloat
	case reflect.Bool:
		return CategoryBool
	case reflect.String:
		return CategoryString
	case reflect.Slice:
		return CategoryList
	case reflect.Array:
		return CategoryTuple
	case reflect.Map:
		return CategoryMap
	default:
		return Category(reflect.TypeOf(v).String())
	}
}

// ColorSet maps levels and value categories to colors.
// The Types map must contain CategoryAll.
type ColorSet struct {
	Levels map[Level]ColorCode
	Types  map[Category]ColorCode
}

// NewColorSet returns a color set owning copies of the given maps.
// It fails with ErrMissingFallbackColor when types has no CategoryAll entry.
func NewColorSet(levels map[Level]ColorCode, types map[Category]ColorCode) (*ColorSet, error) {
	if _, ok := types[CategoryAll]; !ok {
		return nil, ErrMissingFallbackColor
	}
	cs := &ColorSet{Levels: make(map[Level]ColorCode, len(levels)), Types: make(map[Category]ColorCode, len(types))}
	for k, v := range levels {
		cs.Levels[k] = v
	}
	for k, v := range types {
		cs.Types[k] = v
	}
	return cs, nil
}

// DefaultColorSet returns a fresh copy of the default colors.
func DefaultColorSet() *ColorSet {
	return &ColorSet{
		Levels: map[Level]ColorCode{
			LevelDebug:     Code(color.FgHiWhite),
			LevelException: Code(color.FgHiYellow),
			LevelInfo:      Code(color.FgHiCyan),
			LevelWarning:   Code(color.FgYellow),
			LevelError:     Code(color.FgHiRed),
			LevelCritical:  Code(color.FgRed),
		},
		Types: map[Category]ColorCode{
			CategoryInt:       Code(color.FgHiCyan, color.Bold),
			CategoryFloat:     Code(color.FgHiCyan),
			CategoryBool:      Code(color.FgYellow),
			CategoryString:    Code(color.FgHiMagenta, color.Bold),
			CategoryBytes:     Code(color.FgHiMagenta),
			CategoryList:      Code(color.FgHiYellow, color.Bold),
			CategoryTuple:     Code(color.FgMagenta),
			CategoryError:     Code(color.FgHiRed),
			CategoryException: Code(color.FgHiRed),
			CategoryAll:       Code(color.FgHiGreen, color.Bold),
		},
	}
}

// Clone returns a deep copy of c.
func (c *ColorSet) Clone() *ColorSet {
	out := &ColorSet{Levels: make(map[Level]ColorCode, len(c.Levels)), Types: make(map[Category]ColorCode, len(c.Types))}
	for k, v := range c.Levels {
		out.Levels[k] = v
	}
	for k, v := range c.Types {
		out.Types[k] = v
	}
	return out
}

// ForLevel returns the color of level, or "" when the set has none for it.
func (c *ColorSet) ForLevel(level Level) ColorCode {
	return c.Levels[level]
}

// ForCategory returns the color of cat, falling back to the CategoryAll color.
func (c *ColorSet) ForCategory(cat Category) ColorCode {
	if code, ok := c.Types[cat]; ok {
		return code
	}
	return c.Types[CategoryAll]
}

// ForValue returns the color for v. An entry keyed by the exact Go type name
// wins over the kind category.
func (c *ColorSet) ForValue(v any) ColorCode {
	if v != nil {
		if code, ok := c.Types[Category(reflect.TypeOf(v).String())]; ok {
			return code
		}
	}
	return c.ForCategory(CategoryOf(v))
}

// Color tokens available to templates as {fg.red}, {bg.hiblue}, {style.bold} and {reset}.
var (
	foregroundTokens = map[string]color.Attribute{
		"black": color.FgBlack, "red": color.FgRed, "green": color.FgGreen, "yellow": color.FgYellow,
		"blue": color.FgBlue, "magenta": color.FgMagenta, "cyan": color.FgCyan, "white": color.FgWhite,
		"hiblack": color.FgHiBlack, "hired": color.FgHiRed, "higreen": color.FgHiGreen, "hiyellow": color.FgHiYellow,
		"hiblue": color.FgHiBlue, "himagenta": color.FgHiMagenta, "hicyan": color.FgHiCyan, "hiwhite": color.FgHiWhite,
	}
	backgroundTokens = map[string]color.Attribute{
		"black": color.BgBlack, "red": color.BgRed, "green": color.BgGreen, "yellow": color.BgYellow,
		"blue": color.BgBlue, "magenta": color.BgMagenta, "cyan": color.BgCyan, "white": color.BgWhite,
		"hiblack": color.BgHiBlack, "hired": color.BgHiRed, "higreen": color.BgHiGreen, "hiyellow": color.BgHiYellow,
		"hiblue": color.BgHiBlue, "himagenta": color.BgHiMagenta, "hicyan": color.BgHiCyan, "hiwhite": color.BgHiWhite,
	}
	styleTokens = map[string]color.Attribute{
		"bold": color.Bold, "faint": color.Faint, "italic": color.Italic, "underline": color.Underline,
		"blink": color.BlinkSlow, "reverse": color.ReverseVideo, "concealed": color.Concealed, "crossed": color.CrossedOut,
	}
)

var (
	coloredTokens = buildColorTokens(true)
	plainTokens   = buildColorTokens(false)
)

// colorTokens returns the template fields for color control. In plain output
// every token is the empty string. The maps are shared and must not be modified.
func colorTokens(colored bool) map[string]any {
	if colored {
		return coloredTokens
	}
	return plainTokens
}

func buildColorTokens(colored bool) map[string]any {
	build := func(src map[string]color.Attribute) map[string]any {
		m := make(map[string]any, len(src))
		for name, attr := range src {
			if colored {
				m[name] = string(Code(attr))
			} else {
				m[name] = ""
			}
		}
		return m
	}
	reset := ""
	if colored {
		reset = string(Reset)
	}
	return map[string]any{
		"fg":    build(foregroundTokens),
		"bg":    build(backgroundTokens),
		"style": build(styleTokens),
		"reset": reset,
	}
}

// ParseColor builds a code from space separated tokens such as "fg.hicyan style.bold".
// It is used for colors written in configuration files.
func ParseColor(s string) (ColorCode, error) {
	var attrs []color.Attribute
	for _, tok := range strings.Fields(s) {
		kind, name, ok := strings.Cut(strings.ToLower(tok), ".")
		var table map[string]color.Attribute
		switch kind {
		case "fg":
			table = foregroundTokens
		case "bg":
			table = backgroundTokens
		case "style":
			table = styleTokens
		}
		attr, found := table[name]
		if !ok || !found {
			return "", errors.Errorf("unknown color token %q", tok)
		}
		attrs = append(attrs, attr)
	}
	return Code(attrs...), nil
}
