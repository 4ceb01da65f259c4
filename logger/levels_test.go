package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelRegistry_BuiltinRoundTrip(t *testing.T) {
	r := NewLevelRegistry()
	for _, level := range []Level{LevelDebug, LevelException, LevelInfo, LevelWarning, LevelError, LevelCritical, LevelNotSet} {
		got, err := r.Value(r.Name(level))
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}
	assert.Equal(t, []Level{1, 2, 5, 10, 15, 20, 9999}, r.Levels())
}

func TestLevelRegistry_CaseInsensitive(t *testing.T) {
	r := NewLevelRegistry()
	for _, name := range []string{"warning", "WARNING", "Warning", " warning "} {
		got, err := r.Value(name)
		require.NoError(t, err, name)
		assert.Equal(t, LevelWarning, got)
	}
}

func TestLevelRegistry_UnknownName(t *testing.T) {
	_, err := NewLevelRegistry().Value("verbose")
	assert.ErrorIs(t, err, ErrUnknownLevelName)
	var lerr *UnknownLevelNameError
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, "verbose", lerr.Name)
	assert.Equal(t, `unknown level name "verbose"`, err.Error())
}

func TestLevelRegistry_Register(t *testing.T) {
	r := NewLevelRegistry()

	require.NoError(t, r.Register(7, "notice"))
	assert.Equal(t, "NOTICE", r.Name(7))
	got, err := r.Value("Notice")
	require.NoError(t, err)
	assert.Equal(t, Level(7), got)

	// Renaming a level retires its old name.
	require.NoError(t, r.Register(7, "heads-up"))
	assert.Equal(t, "HEADS-UP", r.Name(7))
	_, err = r.Value("notice")
	assert.ErrorIs(t, err, ErrUnknownLevelName)

	assert.ErrorIs(t, r.Register(8, "  "), ErrEmptyName)
	assert.Equal(t, "", r.Name(8))

	// Registries are independent.
	assert.Equal(t, "", NewLevelRegistry().Name(7))
}

func TestLevelRegistry_Parse(t *testing.T) {
	r := NewLevelRegistry()

	got, err := r.Parse("info")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, got)

	got, err = r.Parse(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, Level(12), got)

	_, err = r.Parse("loud")
	assert.ErrorIs(t, err, ErrUnknownLevelName)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "CRITICAL", LevelCritical.String())
	assert.Equal(t, "NOTSET", LevelNotSet.String())
}

func TestLevelRegistry_Concurrent(t *testing.T) {
	r := NewLevelRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		i := i
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = r.Register(Level(100+i), "custom")
		}()
		go func() {
			defer wg.Done()
			_, _ = r.Value("info")
			_ = r.Levels()
		}()
	}
	wg.Wait()

	got, err := r.Value("custom")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, int(got), 100)
}
