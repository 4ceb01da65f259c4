// Package logger provides leveled, colorized logging with configuration shared
// through a tree of named groups.
//
// # Records
//
// A log call captures the time and the caller's location, renders the record
// twice (plain and colored) and writes it to every sink whose level admits it.
// Messages use brace templates; arguments fill the {} placeholders and are
// colored by their kind (int, float, bool, string, bytes, list, ...):
//
//	log.Info("user {} logged in after {} attempts", name, 3)
//	log.WithError(err).Exception("could not open {}", path)
//
// # Sinks
//
// A sink has its own minimum level, color flag and exception flag:
//
//	console, _ := logger.NewStdoutSink(logger.WithLevelName("info"))
//	file, _ := logger.NewFileSink("app.log", logger.WithLevel(logger.LevelDebug))
//	defer file.Close()
//
// Console sinks are colored when attached to a terminal and NO_COLOR is unset;
// LOGGER_LEVEL sets their default level. File sinks are plain.
//
// # Groups
//
// Groups carry a formatter, time formatter, color set and sink list. A child
// group copies its parent's configuration when created and extends its path:
//
//	root, _ := logger.NewGroup(logger.GroupConfig{Name: "Example", Sinks: []logger.Sink{console, file}})
//	child, _ := logger.NewGroup(logger.GroupConfig{Name: "Groups", Parent: root})
//	log := logger.MustNew(logger.LoggerConfig{Name: "Main", Group: child})
//	log.Info("hello") // group_name is "Example.Groups"
//
// # Templates
//
// The record template may use {time}, {level}, {name}, {group_name}, {message},
// {stack.filename}, {stack.lineno}, {stack.function} and the color tokens
// {fg.<color>}, {bg.<color>}, {style.<style>} and {reset}. Format specs follow
// the familiar [[fill]align][0][width][.precision][type] form, with widths
// measured in terminal cells so colored and plain lines align. See
// DefaultFormatter and DefaultTimeFormatter.
//
// # Custom levels
//
//	logger.RegisterLevel(7, "NOTICE")
//	log.LogName("notice", "disk at {}%", 91)
//
// # Configuration files
//
// LoadConfig reads a YAML description of levels, sinks and groups; Config.Build
// creates them.
package logger
