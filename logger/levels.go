package logger

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Level is the numeric severity of a record. Higher is more severe.
type Level int

// Built-in levels.
const (
	// LevelDebug is for diagnostics useful during development.
	LevelDebug Level = 1
	// LevelException is for handled errors reported together with their trace.
	LevelException Level = 2
	// LevelInfo is for normal operational messages.
	LevelInfo Level = 5
	// LevelWarning is for conditions worth attention that do not stop work.
	LevelWarning Level = 10
	// LevelError is for failed operations.
	LevelError Level = 15
	// LevelCritical is for failures that threaten the whole process.
	LevelCritical Level = 20
	// LevelNotSet is a threshold sentinel: a sink at NOTSET admits every record.
	LevelNotSet Level = 9999
)

// String returns the level name registered in DefaultLevels, or "" when unregistered.
func (l Level) String() string {
	return DefaultLevels.Name(l)
}

// LevelRegistry maps severities to display names.
// It is safe for concurrent use.
type LevelRegistry struct {
	mu     sync.RWMutex
	names  map[Level]string
	values map[string]Level
}

// DefaultLevels holds the built-in levels and any level registered with RegisterLevel.
var DefaultLevels = NewLevelRegistry()

// NewLevelRegistry returns a registry preloaded with the built-in levels.
func NewLevelRegistry() *LevelRegistry {
	r := &LevelRegistry{
		names:  make(map[Level]string),
		values: make(map[string]Level),
	}
	for _, b := range []struct {
		level Level
		name  string
	}{
		{LevelDebug, "DEBUG"},
		{LevelException, "EXCEPTION"},
		{LevelInfo, "INFO"},
		{LevelWarning, "WARNING"},
		{LevelError, "ERROR"},
		{LevelCritical, "CRITICAL"},
		{LevelNotSet, "NOTSET"},
	} {
		r.names[b.level] = b.name
		r.values[b.name] = b.level
	}
	return r
}

// RegisterLevel adds a level to DefaultLevels.
func RegisterLevel(level Level, name string) error {
	return DefaultLevels.Register(level, name)
}

// Register adds or overwrites the name of a level. Names are stored upper-cased.
// The last registration for a level wins; the name it replaces stops resolving.
func (r *LevelRegistry) Register(level Level, name string) error {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.names[level]; ok && r.values[old] == level {
		delete(r.values, old)
	}
	r.names[level] = name
	r.values[name] = level
	return nil
}

// Name returns the name of level, or "" when it is not registered.
func (r *LevelRegistry) Name(level Level) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[level]
}

// Value resolves a level name case-insensitively.
// It fails with *UnknownLevelNameError when the name is not registered.
func (r *LevelRegistry) Value(name string) (Level, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if level, ok := r.values[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return level, nil
	}
	return 0, &UnknownLevelNameError{Name: name}
}

// Parse resolves a level written either as a registered name or as a number.
// It is used for levels coming from configuration files and the environment.
func (r *LevelRegistry) Parse(s string) (Level, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return Level(n), nil
	}
	return r.Value(s)
}

// clone returns an independent copy of the registry.
func (r *LevelRegistry) clone() *LevelRegistry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := &LevelRegistry{
		names:  make(map[Level]string, len(r.names)),
		values: make(map[string]Level, len(r.values)),
	}
	for k, v := range r.names {
		out.names[k] = v
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Levels returns the registered levels in ascending order.
func (r *LevelRegistry) Levels() []Level {
	r.mu.RLock()
	levels := make([]Level, 0, len(r.names))
	for l := range r.names {
		levels = append(levels, l)
	}
	r.mu.RUnlock()

	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels
}
