package logger

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// StandaloneGroupName is reported as {group_name} by loggers not bound to a group.
const StandaloneGroupName = "grouplog"

// fallbackTimeLayout formats the time of a record whose templates failed.
const fallbackTimeLayout = "2006.01.02 15:04:05.0000"

// LoggerConfig defines a logger. A logger either carries its own formatter,
// time formatter, colors and sinks, or is bound to a group and copies the
// group's at bind time.
type LoggerConfig struct {
	// Name is reported as {name}. Required; need not be unique.
	Name string

	// Formatter is the record template. Default: DefaultFormatter.
	Formatter string
	// TimeFormatter is the time template. Default: DefaultTimeFormatter.
	TimeFormatter string
	// Colors is copied on creation. Default: DefaultColorSet().
	Colors *ColorSet
	// Sinks receive the records. Default: none.
	Sinks []Sink

	// Group binds the logger to a group. Formatter, TimeFormatter, Colors and
	// Sinks must then be left empty.
	Group *Group
	// GroupName binds the logger to the group registered under this name in
	// Groups. It is ignored when Group is set.
	GroupName string
	// Groups resolves GroupName and BindName. Default: DefaultGroups.
	Groups *GroupRegistry

	// Levels names the levels. Default: DefaultLevels.
	Levels *LevelRegistry
	// Now is the clock. Default: time.Now.
	Now func() time.Time
	// ErrorHandler receives formatter and sink failures of the leveled methods.
	// Default: print to standard error.
	ErrorHandler func(error)
}

// Logger formats records and fans them out to sinks.
// Safe for concurrent use; Bind may be called while other goroutines log.
type Logger struct {
	name    string
	groups  *GroupRegistry
	levels  *LevelRegistry
	now     func() time.Time
	onError func(error)
	funcs   []LevelFunc

	state atomic.Pointer[loggerState]
}

// loggerState is the configuration snapshot used by a log call.
type loggerState struct {
	formatter Formatter
	sinks     []Sink
	group     *Group
	groupPath string
}

// New creates a logger. A bad GroupName fails with *GroupNotFoundError.
func New(cfg LoggerConfig) (*Logger, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyName
	}

	l := &Logger{
		name:    cfg.Name,
		groups:  cfg.Groups,
		levels:  cfg.Levels,
		now:     cfg.Now,
		onError: cfg.ErrorHandler,
	}
	if l.groups == nil {
		l.groups = DefaultGroups
	}
	if l.levels == nil {
		l.levels = DefaultLevels
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.onError == nil {
		l.onError = printError
	}

	bound := cfg.Group != nil || cfg.GroupName != ""
	if bound && (cfg.Formatter != "" || cfg.TimeFormatter != "" || cfg.Colors != nil || cfg.Sinks != nil) {
		return nil, errors.Wrapf(ErrGroupOverride, "logger %q", cfg.Name)
	}

	switch {
	case cfg.Group != nil:
		l.Bind(cfg.Group)
	case cfg.GroupName != "":
		if err := l.BindName(cfg.GroupName); err != nil {
			return nil, err
		}
	default:
		colors := DefaultColorSet()
		if cfg.Colors != nil {
			if _, ok := cfg.Colors.Types[CategoryAll]; !ok {
				return nil, errors.Wrapf(ErrMissingFallbackColor, "logger %q", cfg.Name)
			}
			colors = cfg.Colors.Clone()
		}
		l.state.Store(&loggerState{
			formatter: Formatter{
				Template:     stringOr(cfg.Formatter, DefaultFormatter),
				TimeTemplate: stringOr(cfg.TimeFormatter, DefaultTimeFormatter),
				Colors:       colors,
				Levels:       l.levels,
			},
			sinks:     append([]Sink(nil), cfg.Sinks...),
			groupPath: StandaloneGroupName,
		})
	}

	l.funcs = l.buildFuncs()
	return l, nil
}

// MustNew is like New but panics on error.
func MustNew(cfg LoggerConfig) *Logger {
	l, err := New(cfg)
	if err != nil {
		panic("grouplog: " + err.Error())
	}
	return l
}

// Bind copies the configuration of g into the logger. Later changes to the
// group tree do not affect the logger until it is bound again. Bind(nil) is a
// no-op.
func (l *Logger) Bind(g *Group) {
	if g == nil {
		return
	}
	l.state.Store(&loggerState{
		formatter: Formatter{
			Template:     g.formatter,
			TimeTemplate: g.timeFormatter,
			Colors:       g.colors,
			Levels:       l.levels,
		},
		sinks:     g.sinks,
		group:     g,
		groupPath: g.path,
	})
}

// BindName binds the logger to the group registered under name.
func (l *Logger) BindName(name string) error {
	g, err := l.groups.Lookup(name)
	if err != nil {
		return err
	}
	l.Bind(g)
	return nil
}

// Name returns the logger name.
func (l *Logger) Name() string { return l.name }

// Group returns the bound group, or nil for a standalone logger.
func (l *Logger) Group() *Group { return l.state.Load().group }

// GroupPath returns the value reported as {group_name}.
func (l *Logger) GroupPath() string { return l.state.Load().groupPath }

// Record logs message at level with an optional attached error and returns
// every formatter or sink failure, joined. The ErrorHandler is not called.
//
// A formatter failure does not drop the record: sinks receive a fallback line
// carrying the raw message and arguments.
func (l *Logger) Record(level Level, err error, message string, args ...any) error {
	return l.output(2, level, err, message, args)
}

// output renders and writes one record. depth is the number of frames between
// output and the user's call site.
func (l *Logger) output(depth int, level Level, attached error, message string, args []any) error {
	st := l.state.Load()
	rec := Record{
		Level:     level,
		Message:   message,
		Args:      args,
		Err:       attached,
		Time:      l.now(),
		Caller:    callerAt(depth),
		Name:      l.name,
		GroupName: st.groupPath,
	}

	var errs []error
	rendering, err := st.formatter.Render(rec)
	if err != nil {
		errs = append(errs, err)
		rendering = l.fallback(rec, err)
	}

	var trace string
	if attached != nil {
		trace = Trace(attached)
	}

	for _, sink := range st.sinks {
		if !Admits(sink.Level(), level) {
			continue
		}
		line := rendering.Plain
		if sink.Colors() {
			line = rendering.Colored
		}
		if err := writeTo(sink, level, line+"\n"); err != nil {
			errs = append(errs, err)
			continue
		}
		if attached == nil || !sink.Exceptions() {
			continue
		}
		text := trace
		if sink.Colors() {
			text = st.formatter.Colors.ForCategory(CategoryException).Wrap(trace)
		}
		if err := writeTo(sink, level, text+"\n"); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

func writeTo(sink Sink, level Level, text string) error {
	if lw, ok := sink.(LevelWriter); ok {
		return lw.WriteLevel(level, text)
	}
	return sink.Write(text)
}

// fallback builds the line written when the templates cannot be rendered.
func (l *Logger) fallback(rec Record, cause error) Rendering {
	var b strings.Builder
	b.WriteString(rec.Time.Format(fallbackTimeLayout))
	b.WriteString(" | ")
	b.WriteString(l.levels.Name(rec.Level))
	b.WriteString(" | ")
	b.WriteString(rec.GroupName)
	b.WriteString(" -> ")
	b.WriteString(rec.Name)
	b.WriteString(" — ")
	b.WriteString(rec.Message)
	for _, arg := range rec.Args {
		b.WriteByte(' ')
		b.WriteString(fmt.Sprint(arg))
	}
	b.WriteString(" (format error: ")
	b.WriteString(cause.Error())
	b.WriteString(")")
	return Rendering{Plain: b.String(), Colored: b.String()}
}

func (l *Logger) report(err error) {
	if err != nil {
		l.onError(err)
	}
}

func printError(err error) {
	fmt.Fprintf(outStderr, "grouplog: %v\n", err)
}

// Trace returns the text written for an attached error. Errors created or
// wrapped with github.com/pkg/errors include their stack trace.
func Trace(err error) string {
	return strings.TrimRight(fmt.Sprintf("%+v", err), "\n")
}

// --- Leveled logging methods ---

// Debug logs message at DEBUG. Arguments fill the {} placeholders of message.
// Thread-safe for concurrent use.
func (l *Logger) Debug(message string, args ...any) {
	l.report(l.output(2, LevelDebug, nil, message, args))
}

// Exception logs message at EXCEPTION.
// Thread-safe for concurrent use.
func (l *Logger) Exception(message string, args ...any) {
	l.report(l.output(2, LevelException, nil, message, args))
}

// Info logs message at INFO.
// Thread-safe for concurrent use.
func (l *Logger) Info(message string, args ...any) {
	l.report(l.output(2, LevelInfo, nil, message, args))
}

// Warning logs message at WARNING.
// Thread-safe for concurrent use.
func (l *Logger) Warning(message string, args ...any) {
	l.report(l.output(2, LevelWarning, nil, message, args))
}

// Error logs message at ERROR.
// Thread-safe for concurrent use.
func (l *Logger) Error(message string, args ...any) {
	l.report(l.output(2, LevelError, nil, message, args))
}

// Critical logs message at CRITICAL. Colored output highlights the message.
// Thread-safe for concurrent use.
func (l *Logger) Critical(message string, args ...any) {
	l.report(l.output(2, LevelCritical, nil, message, args))
}

// Notset logs message at NOTSET. Only NOTSET sinks accept it.
func (l *Logger) Notset(message string, args ...any) {
	l.report(l.output(2, LevelNotSet, nil, message, args))
}

// Log logs message at any level, including custom ones.
// Thread-safe for concurrent use.
func (l *Logger) Log(level Level, message string, args ...any) {
	l.report(l.output(2, level, nil, message, args))
}

// LogName logs message at the level registered under name.
// An unknown name is returned as *UnknownLevelNameError and nothing is logged.
func (l *Logger) LogName(name string, message string, args ...any) error {
	level, err := l.levels.Value(name)
	if err != nil {
		return err
	}
	l.report(l.output(2, level, nil, message, args))
	return nil
}

// WithError returns an Entry whose log calls attach err. Sinks with
// exceptions enabled write its trace after the record line.
func (l *Logger) WithError(err error) Entry {
	return Entry{l: l, err: err}
}

// Entry logs through its logger with an attached error.
type Entry struct {
	l   *Logger
	err error
}

// Debug logs message at DEBUG with the attached error.
func (e Entry) Debug(message string, args ...any) {
	e.l.report(e.l.output(2, LevelDebug, e.err, message, args))
}

// Exception logs message at EXCEPTION with the attached error.
func (e Entry) Exception(message string, args ...any) {
	e.l.report(e.l.output(2, LevelException, e.err, message, args))
}

// Info logs message at INFO with the attached error.
func (e Entry) Info(message string, args ...any) {
	e.l.report(e.l.output(2, LevelInfo, e.err, message, args))
}

// Warning logs message at WARNING with the attached error.
func (e Entry) Warning(message string, args ...any) {
	e.l.report(e.l.output(2, LevelWarning, e.err, message, args))
}

// Error logs message at ERROR with the attached error.
func (e Entry) Error(message string, args ...any) {
	e.l.report(e.l.output(2, LevelError, e.err, message, args))
}

// Critical logs message at CRITICAL with the attached error.
func (e Entry) Critical(message string, args ...any) {
	e.l.report(e.l.output(2, LevelCritical, e.err, message, args))
}

// Log logs message at level with the attached error.
func (e Entry) Log(level Level, message string, args ...any) {
	e.l.report(e.l.output(2, level, e.err, message, args))
}

// --- Level dispatch table ---

// LevelFunc is one row of a logger's dispatch table.
type LevelFunc struct {
	Level Level
	Name  string
	// Log logs at Level, reporting the caller of Log as the call site.
	Log func(message string, args ...any)
}

func (l *Logger) buildFuncs() []LevelFunc {
	levels := l.levels.Levels()
	funcs := make([]LevelFunc, 0, len(levels))
	for _, level := range levels {
		level := level
		funcs = append(funcs, LevelFunc{
			Level: level,
			Name:  l.levels.Name(level),
			Log: func(message string, args ...any) {
				l.report(l.output(2, level, nil, message, args))
			},
		})
	}
	return funcs
}

// Funcs returns the dispatch table, ordered by ascending level. It is built
// from the levels registered when the logger was created; use Log or LogName
// for levels registered later.
func (l *Logger) Funcs() []LevelFunc {
	return append([]LevelFunc(nil), l.funcs...)
}

// Func returns the log function for level, or nil when the level was not
// registered when the logger was created.
func (l *Logger) Func(level Level) func(message string, args ...any) {
	for _, f := range l.funcs {
		if f.Level == level {
			return f.Log
		}
	}
	return nil
}
