package logger

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrency_MultipleLevels verifies that the sink mutex prevents garbled
// output when multiple goroutines log simultaneously at different levels.
func TestConcurrency_MultipleLevels(t *testing.T) {
	sink, buf := newBufferSink(t, WithColors(true))
	log := newTestLogger(t, "[{level}] {message}", sink)

	const numGoroutines = 200
	const messagesPerGoroutine = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < messagesPerGoroutine; j++ {
				log.Debug("goroutine-{}-debug-{}", id, j)
				log.Info("goroutine-{}-info-{}", id, j)
				log.Warning("goroutine-{}-warn-{}", id, j)
				log.Error("goroutine-{}-error-{}", id, j)
			}
		}(i)
	}
	wg.Wait()

	output := lines(buf)
	require.Len(t, output, numGoroutines*messagesPerGoroutine*4)

	seen := make(map[string]bool, len(output))
	for i, line := range output {
		plain := StripANSI(line)
		hasLevelTag := strings.HasPrefix(plain, "[DEBUG] ") ||
			strings.HasPrefix(plain, "[INFO] ") ||
			strings.HasPrefix(plain, "[WARNING] ") ||
			strings.HasPrefix(plain, "[ERROR] ")
		require.True(t, hasLevelTag, "line %d appears garbled (missing level tag): %q", i, line)
		require.True(t, strings.HasSuffix(line, string(Reset)), "line %d appears garbled (missing reset): %q", i, line)
		seen[plain] = true
	}
	assert.True(t, seen["[INFO] goroutine-0-info-0"])
	assert.True(t, seen[fmt.Sprintf("[ERROR] goroutine-%d-error-%d", numGoroutines-1, messagesPerGoroutine-1)])
}

// TestConcurrency_SharedGroupSinks verifies that loggers bound to different
// groups of one tree can share sinks safely.
func TestConcurrency_SharedGroupSinks(t *testing.T) {
	sink, buf := newBufferSink(t)
	groups := NewGroupRegistry()
	root, err := groups.NewGroup(GroupConfig{Name: "Root", Formatter: "{group_name} {name} {message}", Sinks: []Sink{sink}})
	require.NoError(t, err)

	const numLoggers = 50
	loggers := make([]*Logger, numLoggers)
	for i := range loggers {
		child, err := groups.NewGroup(GroupConfig{Name: fmt.Sprintf("Child%d", i), Parent: root})
		require.NoError(t, err)
		loggers[i] = MustNew(LoggerConfig{Name: fmt.Sprintf("L%d", i), Group: child})
	}

	var wg sync.WaitGroup
	wg.Add(numLoggers)
	for i, l := range loggers {
		go func(id int, l *Logger) {
			defer wg.Done()
			l.Info("message from {}", id)
		}(i, l)
	}
	wg.Wait()

	output := lines(buf)
	require.Len(t, output, numLoggers)
	for _, line := range output {
		assert.True(t, strings.HasPrefix(line, "Root.Child"), "unexpected line %q", line)
	}
}

// TestConcurrency_BindWhileLogging verifies that rebinding a logger does not
// race with log calls; every record goes to one group or the other.
func TestConcurrency_BindWhileLogging(t *testing.T) {
	sinkA, bufA := newBufferSink(t)
	sinkB, bufB := newBufferSink(t)
	groups := NewGroupRegistry()
	a, err := groups.NewGroup(GroupConfig{Name: "A", Formatter: "{message}", Sinks: []Sink{sinkA}})
	require.NoError(t, err)
	b, err := groups.NewGroup(GroupConfig{Name: "B", Formatter: "{message}", Sinks: []Sink{sinkB}})
	require.NoError(t, err)

	log := MustNew(LoggerConfig{Name: "Main", Group: a})

	const numMessages = 1000
	var logged atomic.Int64
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < numMessages; i++ {
			log.Info("tick")
			logged.Add(1)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			if i%2 == 0 {
				log.Bind(b)
			} else {
				log.Bind(a)
			}
		}
	}()
	wg.Wait()

	total := len(lines(bufA)) + len(lines(bufB))
	assert.Equal(t, int(logged.Load()), total)
	assert.Equal(t, numMessages, total)
}
