package logger

import (
	"path/filepath"
	"runtime"
	"strings"
)

// Caller is the source location of a log call. Templates reach it as
// {stack.filename}, {stack.lineno} and {stack.function}.
type Caller struct {
	// File is the full path of the source file.
	File string
	// Line is the line number of the call.
	Line int
	// Function is the calling function in "package.Function" form.
	Function string
}

func (c Caller) templateField(name string) (any, bool) {
	switch name {
	case "filename":
		return c.File, true
	case "basename":
		return filepath.Base(c.File), true
	case "lineno":
		return c.Line, true
	case "function":
		return c.Function, true
	}
	return nil, false
}

// callerAt returns the caller at the given stack depth, where depth 0 is the
// caller of callerAt.
// CallersFrames resolves inlined frames.
func callerAt(depth int) Caller {
	var pcs [1]uintptr
	if runtime.Callers(depth+2, pcs[:]) == 0 {
		return Caller{File: "unknown", Function: "unknown"}
	}
	frame, _ := runtime.CallersFrames(pcs[:]).Next()
	c := Caller{File: frame.File, Line: frame.Line, Function: "unknown"}
	if frame.Function != "" {
		c.Function = shortFuncName(frame.Function)
	}
	return c
}

// shortFuncName strips the package path, keeping "package.Function".
func shortFuncName(full string) string {
	if lastSlash := strings.LastIndex(full, "/"); lastSlash >= 0 && lastSlash+1 < len(full) {
		return full[lastSlash+1:]
	}
	return full
}
