package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
)

// Sink is a leveled, optionally colorized destination for rendered records.
//
// Write appends text verbatim (the caller supplies the line terminator) and
// must not buffer it. Implementations must be safe for concurrent use.
type Sink interface {
	// Level is the minimum severity the sink accepts.
	Level() Level
	// Colors reports whether the sink receives the colored rendering.
	Colors() bool
	// Exceptions reports whether attached error traces are written.
	Exceptions() bool
	// Write appends text. It fails with *SinkWriteError.
	Write(text string) error
}

// LevelWriter is implemented by sinks whose output depends on the level of the
// record being written. The logger calls WriteLevel instead of Write when
// available.
type LevelWriter interface {
	WriteLevel(level Level, text string) error
}

// Admits reports whether a sink with the given threshold accepts a record at level.
// A NOTSET threshold accepts every record. A record at NOTSET is only accepted by
// NOTSET sinks, since NOTSET is a threshold sentinel rather than a real severity.
func Admits(threshold, level Level) bool {
	if threshold == LevelNotSet {
		return true
	}
	if level == LevelNotSet {
		return false
	}
	return threshold <= level
}

// Dependency injection points for testing console sinks.
var (
	outStdout io.Writer = colorable.NewColorableStdout()
	outStderr io.Writer = colorable.NewColorableStderr()
)

// WriterSink writes records to an io.Writer, serializing writers with a mutex.
type WriterSink struct {
	mu         sync.Mutex
	w          io.Writer
	closer     io.Closer
	closed     bool
	level      Level
	colors     bool
	exceptions bool
	syslog     bool
}

// SinkOption configures a sink.
type SinkOption func(*sinkOptions)

type sinkOptions struct {
	level      Level
	levelName  string
	levelSet   bool
	levels     *LevelRegistry
	colors     *bool
	exceptions bool
	append     bool
	syslog     *bool
}

// WithLevel sets the minimum level of the sink.
// Default: NOTSET (every record), or LOGGER_LEVEL for console sinks.
func WithLevel(level Level) SinkOption {
	return func(o *sinkOptions) {
		o.level, o.levelName, o.levelSet = level, "", true
	}
}

// WithLevelName sets the minimum level by name, for example "debug".
// The name is resolved when the sink is created; an unknown name fails with
// *UnknownLevelNameError.
func WithLevelName(name string) SinkOption {
	return func(o *sinkOptions) {
		o.levelName, o.levelSet = name, true
	}
}

// WithLevelRegistry sets the registry used to resolve WithLevelName.
// Default: DefaultLevels.
func WithLevelRegistry(r *LevelRegistry) SinkOption {
	return func(o *sinkOptions) { o.levels = r }
}

// WithColors enables or disables the colored rendering.
// Default: on for terminals (respecting NO_COLOR), off for files and other writers.
func WithColors(enabled bool) SinkOption {
	return func(o *sinkOptions) { o.colors = &enabled }
}

// WithExceptions enables or disables writing attached error traces.
// Default: true.
func WithExceptions(enabled bool) SinkOption {
	return func(o *sinkOptions) { o.exceptions = enabled }
}

// WithAppend makes file sinks append instead of truncating.
// Default: false.
func WithAppend(enabled bool) SinkOption {
	return func(o *sinkOptions) { o.append = enabled }
}

// WithSyslogPrefix prefixes every line with the syslog priority of the record
// level ("<3>" for ERROR), so journald assigns the right priority.
// Default: on for console sinks when JOURNAL_STREAM is set, off otherwise.
func WithSyslogPrefix(enabled bool) SinkOption {
	return func(o *sinkOptions) { o.syslog = &enabled }
}

func resolveSinkOptions(opts []SinkOption) (sinkOptions, error) {
	o := sinkOptions{level: LevelNotSet, exceptions: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.levels == nil {
		o.levels = DefaultLevels
	}
	if o.levelName != "" {
		level, err := o.levels.Value(o.levelName)
		if err != nil {
			return o, err
		}
		o.level = level
	}
	return o, nil
}

// NewWriterSink returns a sink writing to w. Colors are off unless enabled.
func NewWriterSink(w io.Writer, opts ...SinkOption) (*WriterSink, error) {
	o, err := resolveSinkOptions(opts)
	if err != nil {
		return nil, err
	}
	return newWriterSink(w, nil, o, false), nil
}

func newWriterSink(w io.Writer, closer io.Closer, o sinkOptions, defaultColors bool) *WriterSink {
	colors := defaultColors
	if o.colors != nil {
		colors = *o.colors
	}
	syslog := false
	if o.syslog != nil {
		syslog = *o.syslog
	}
	return &WriterSink{
		w:          w,
		closer:     closer,
		level:      o.level,
		colors:     colors,
		exceptions: o.exceptions,
		syslog:     syslog,
	}
}

// NewStdoutSink returns a console sink on standard output.
// Closing it does not close standard output.
func NewStdoutSink(opts ...SinkOption) (*WriterSink, error) {
	o, err := consoleOptions(opts)
	if err != nil {
		return nil, err
	}
	return newWriterSink(outStdout, nil, o, !color.NoColor), nil
}

// NewStderrSink returns a console sink on standard error.
// Closing it does not close standard error.
func NewStderrSink(opts ...SinkOption) (*WriterSink, error) {
	o, err := consoleOptions(opts)
	if err != nil {
		return nil, err
	}
	fd := os.Stderr.Fd()
	tty := (isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)) && os.Getenv("NO_COLOR") == ""
	return newWriterSink(outStderr, nil, o, tty), nil
}

// consoleOptions applies LOGGER_LEVEL as the default level of console sinks and
// enables syslog prefixes when the output is connected to journald.
func consoleOptions(opts []SinkOption) (sinkOptions, error) {
	o, err := resolveSinkOptions(opts)
	if err != nil {
		return o, err
	}
	if o.syslog == nil {
		journal := os.Getenv("JOURNAL_STREAM") != ""
		o.syslog = &journal
	}
	if env := os.Getenv("LOGGER_LEVEL"); env != "" && !o.levelSet {
		level, err := o.levels.Parse(env)
		if err != nil {
			return o, errors.Wrap(err, "LOGGER_LEVEL")
		}
		o.level = level
	}
	return o, nil
}

// NewFileSink opens path for writing, truncating it unless WithAppend is given.
// File sinks are plain unless WithColors(true) is given.
func NewFileSink(path string, opts ...SinkOption) (*WriterSink, error) {
	o, err := resolveSinkOptions(opts)
	if err != nil {
		return nil, err
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if o.append {
		flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "open log file %s", path)
	}
	return newWriterSink(f, f, o, false), nil
}

// Level returns the minimum level of the sink.
func (s *WriterSink) Level() Level { return s.level }

// Colors reports whether the sink receives colored output.
func (s *WriterSink) Colors() bool { return s.colors }

// Exceptions reports whether attached error traces are written.
func (s *WriterSink) Exceptions() bool { return s.exceptions }

// SyslogPrefix reports whether lines carry a syslog priority prefix.
func (s *WriterSink) SyslogPrefix() bool { return s.syslog }

// Write appends text and flushes the writer if it buffers.
// Thread-safe for concurrent use.
func (s *WriterSink) Write(text string) error {
	return s.WriteLevel(LevelNotSet, text)
}

// WriteLevel is Write for a record at level. With syslog prefixes enabled every
// line of text starts with the priority of level.
// Thread-safe for concurrent use.
func (s *WriterSink) WriteLevel(level Level, text string) error {
	if s.syslog {
		text = prefixLines(syslogPriority(level), text)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return &SinkWriteError{Err: ErrSinkClosed}
	}
	if _, err := io.WriteString(s.w, text); err != nil {
		return &SinkWriteError{Err: errors.Wrap(err, "write")}
	}
	if f, ok := s.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return &SinkWriteError{Err: errors.Wrap(err, "flush")}
		}
	}
	return nil
}

// Close closes the underlying file, if the sink owns one. Later writes fail
// with ErrSinkClosed. Closing twice is a no-op.
func (s *WriterSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

// syslogPriority maps a level to the sd-daemon priority prefix. Levels between
// the built-ins take the priority of the built-in below them, except that
// anything above INFO and below WARNING is a notice.
func syslogPriority(level Level) string {
	switch {
	case level == LevelNotSet:
		return ""
	case level >= LevelCritical:
		return "<2>"
	case level >= LevelError:
		return "<3>"
	case level >= LevelWarning:
		return "<4>"
	case level > LevelInfo:
		return "<5>"
	case level == LevelInfo:
		return "<6>"
	default:
		return "<7>"
	}
}

// prefixLines prepends prefix to each line of text. A trailing newline does not
// start a new line.
func prefixLines(prefix, text string) string {
	if prefix == "" || text == "" {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + len(prefix))
	b.WriteString(prefix)
	for i := 0; i < len(text); i++ {
		b.WriteByte(text[i])
		if text[i] == '\n' && i != len(text)-1 {
			b.WriteString(prefix)
		}
	}
	return b.String()
}
