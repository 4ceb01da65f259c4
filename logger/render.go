package logger

import (
	"fmt"
	"time"
)

// DefaultFormatter is the record template used when none is configured.
const DefaultFormatter = "{time} | {level:<18} | {group_name:<18} -> {name:<18} — {message} — ln:{stack.lineno} fn:{stack.function}"

// DefaultTimeFormatter is the time template used when none is configured.
const DefaultTimeFormatter = "{year:04d}.{month:02d}.{day:02d} {hour:02d}:{minute:02d}:{second:02d}.{microsecond:04s}"

// Record is a single logging event. It lives for the duration of one log call.
type Record struct {
	Level     Level
	Message   string
	Args      []any
	Err       error
	Time      time.Time
	Caller    Caller
	Name      string
	GroupName string
}

// Rendering holds the two renderings of a record, without line terminator.
type Rendering struct {
	Plain   string
	Colored string
}

// Metadata is the per-record information available to templates besides the message.
type Metadata struct {
	Time      string
	Level     string
	Name      string
	GroupName string
	Caller    Caller
}

// Formatter renders records with a record template, a time template and a color set.
type Formatter struct {
	Template     string
	TimeTemplate string
	Colors       *ColorSet
	Levels       *LevelRegistry
}

// Render produces the plain and colored lines for r.
// The colored line always ends with Reset.
func (f Formatter) Render(r Record) (Rendering, error) {
	levels := f.Levels
	if levels == nil {
		levels = DefaultLevels
	}
	colors := f.Colors
	if colors == nil {
		colors = DefaultColorSet()
	}

	timeStr, err := RenderTime(r.Time, f.TimeTemplate)
	if err != nil {
		return Rendering{}, err
	}

	plainArgs, coloredArgs := RenderArgs(r.Args, colors)
	levelName := levels.Name(r.Level)

	meta := Metadata{
		Time:      timeStr,
		Level:     levelName,
		Name:      r.Name,
		GroupName: r.GroupName,
		Caller:    r.Caller,
	}
	plain, err := RenderMessage(f.Template, r.Message, plainArgs, meta, false)
	if err != nil {
		return Rendering{}, err
	}

	message := r.Message
	if r.Level == LevelCritical {
		message = criticalHighlight.Wrap(message)
	}
	meta.Level = colors.ForLevel(r.Level).Wrap(levelName)
	colored, err := RenderMessage(f.Template, message, coloredArgs, meta, true)
	if err != nil {
		return Rendering{}, err
	}

	return Rendering{Plain: plain, Colored: colored + string(Reset)}, nil
}

// RenderArgs stringifies each argument. The colored variant wraps every string
// in the color of the argument's category.
func RenderArgs(args []any, colors *ColorSet) (plain, colored []string) {
	plain = make([]string, len(args))
	colored = make([]string, len(args))
	for i, arg := range args {
		s := fmt.Sprint(arg)
		plain[i] = s
		colored[i] = colors.ForValue(arg).Wrap(s)
	}
	return plain, colored
}

// RenderTime expands a time template. Available fields are year, month, day,
// hour, minute and second as integers, and microsecond as a four character
// string (the zero padded microseconds truncated to tenths of a millisecond).
// The microseconds are padded to six digits before truncation, so 45000µs
// renders as "0450" rather than "4500": the fragment always reads as a
// fraction of the second.
func RenderTime(t time.Time, template string) (string, error) {
	return formatTemplate(template, nil, map[string]any{
		"year":        t.Year(),
		"month":       int(t.Month()),
		"day":         t.Day(),
		"hour":        t.Hour(),
		"minute":      t.Minute(),
		"second":      t.Second(),
		"microsecond": fmt.Sprintf("%06d", t.Nanosecond()/int(time.Microsecond))[:4],
	})
}

// RenderMessage interpolates message with args and metadata, then interpolates
// template with the result as {message} and the same metadata.
// Color tokens expand to escape sequences only when colored is true.
func RenderMessage(template, message string, args []string, meta Metadata, colored bool) (string, error) {
	tokens := colorTokens(colored)
	fields := map[string]any{
		"time":       meta.Time,
		"name":       meta.Name,
		"group_name": meta.GroupName,
		"level":      meta.Level,
		"stack":      meta.Caller,
		"fg":         tokens["fg"],
		"bg":         tokens["bg"],
		"style":      tokens["style"],
		"reset":      tokens["reset"],
	}

	positional := make([]any, len(args))
	for i, a := range args {
		positional[i] = a
	}
	msg, err := formatTemplate(message, positional, fields)
	if err != nil {
		return "", err
	}

	fields["message"] = msg
	return formatTemplate(template, nil, fields)
}
