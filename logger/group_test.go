package logger

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroup_RootDefaults(t *testing.T) {
	groups := NewGroupRegistry()
	g, err := groups.NewGroup(GroupConfig{Name: "Example"})
	require.NoError(t, err)

	assert.Equal(t, "Example", g.Name())
	assert.Equal(t, "Example", g.Path())
	assert.Nil(t, g.Parent())
	assert.Equal(t, DefaultFormatter, g.Formatter())
	assert.Equal(t, DefaultTimeFormatter, g.TimeFormatter())
	assert.Equal(t, DefaultColorSet(), g.Colors())
	assert.Empty(t, g.Sinks())
}

func TestGroup_ChildInheritsAndExtendsPath(t *testing.T) {
	groups := NewGroupRegistry()
	debugSink, debugBuf := newBufferSink(t, WithLevel(LevelDebug))
	warnSink, warnBuf := newBufferSink(t, WithLevel(LevelWarning))

	example, err := groups.NewGroup(GroupConfig{
		Name:      "Example",
		Formatter: "{level} {group_name} -> {name} {message}",
		Sinks:     []Sink{debugSink, warnSink},
	})
	require.NoError(t, err)
	child, err := groups.NewGroup(GroupConfig{Name: "Groups", Parent: example})
	require.NoError(t, err)
	grandchild, err := groups.NewGroup(GroupConfig{Name: "Deep", ParentName: "Groups"})
	require.NoError(t, err)

	assert.Equal(t, "Example.Groups", child.Path())
	assert.Equal(t, "Example.Groups.Deep", grandchild.Path())
	assert.Same(t, example, child.Parent())
	assert.Same(t, child, grandchild.Parent())
	assert.Equal(t, example.Formatter(), grandchild.Formatter())
	assert.Len(t, grandchild.Sinks(), 2)

	log := MustNew(LoggerConfig{Name: "Main", Group: child, Now: fixedClock})
	assert.Equal(t, "Example.Groups", log.GroupPath())
	assert.Same(t, child, log.Group())

	log.Info("hello")
	assert.Equal(t, "INFO Example.Groups -> Main hello\n", debugBuf.String())
	assert.Empty(t, warnBuf.String())
}

func TestGroup_CopiedAtConstruction(t *testing.T) {
	groups := NewGroupRegistry()
	sink, buf := newBufferSink(t)
	root, err := groups.NewGroup(GroupConfig{Name: "Root", Formatter: "before {message}", Sinks: []Sink{sink}})
	require.NoError(t, err)
	child, err := groups.NewGroup(GroupConfig{Name: "Child", Parent: root})
	require.NoError(t, err)

	root.formatter = "after {message}"
	root.colors.Levels[LevelInfo] = Code(color.FgBlack)

	assert.Equal(t, "before {message}", child.Formatter())
	assert.Equal(t, Code(color.FgHiCyan), child.Colors().ForLevel(LevelInfo))

	MustNew(LoggerConfig{Name: "Main", Group: child}).Info("x")
	assert.Equal(t, "before x\n", buf.String())
}

func TestGroup_ColorsAreCopied(t *testing.T) {
	groups := NewGroupRegistry()
	cs := DefaultColorSet()
	g, err := groups.NewGroup(GroupConfig{Name: "Root", Colors: cs})
	require.NoError(t, err)

	cs.Levels[LevelInfo] = Code(color.FgBlack)
	g.Colors().Levels[LevelInfo] = Code(color.FgBlack)
	assert.Equal(t, Code(color.FgHiCyan), g.Colors().ForLevel(LevelInfo))
}

func TestGroup_Errors(t *testing.T) {
	groups := NewGroupRegistry()
	root, err := groups.NewGroup(GroupConfig{Name: "Root"})
	require.NoError(t, err)

	_, err = groups.NewGroup(GroupConfig{})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = groups.NewGroup(GroupConfig{Name: "Orphan", ParentName: "Nobody"})
	assert.ErrorIs(t, err, ErrGroupNotFound)
	assert.EqualError(t, err, `unknown group "Nobody"`)

	sink, _ := newBufferSink(t)
	for _, cfg := range []GroupConfig{
		{Name: "C", Parent: root, Formatter: "{message}"},
		{Name: "C", Parent: root, TimeFormatter: "{year}"},
		{Name: "C", Parent: root, Colors: DefaultColorSet()},
		{Name: "C", Parent: root, Sinks: []Sink{sink}},
		{Name: "C", ParentName: "Root", Sinks: []Sink{}},
	} {
		_, err := groups.NewGroup(cfg)
		assert.ErrorIs(t, err, ErrGroupOverride)
	}
	_, err = groups.Lookup("C")
	assert.ErrorIs(t, err, ErrGroupNotFound)

	_, err = groups.NewGroup(GroupConfig{Name: "Bad", Colors: &ColorSet{Types: map[Category]ColorCode{}}})
	assert.ErrorIs(t, err, ErrMissingFallbackColor)
}

func TestGroup_BindsLoggers(t *testing.T) {
	groups := NewGroupRegistry()
	sink, buf := newBufferSink(t)

	a := MustNew(LoggerConfig{Name: "A", Groups: groups})
	b := MustNew(LoggerConfig{Name: "B", Groups: groups})
	assert.Equal(t, StandaloneGroupName, a.GroupPath())
	assert.Nil(t, a.Group())

	g, err := groups.NewGroup(GroupConfig{
		Name:      "Svc",
		Formatter: "{group_name}/{name}: {message}",
		Sinks:     []Sink{sink},
		Loggers:   []*Logger{a, b},
	})
	require.NoError(t, err)
	assert.Same(t, g, a.Group())

	a.Info("one")
	b.Info("two")
	assert.Equal(t, "Svc/A: one\nSvc/B: two\n", buf.String())
}

func TestGroup_SkipsNilLoggers(t *testing.T) {
	groups := NewGroupRegistry()
	a := MustNew(LoggerConfig{Name: "A", Groups: groups})

	var g *Group
	require.NotPanics(t, func() {
		var err error
		g, err = groups.NewGroup(GroupConfig{Name: "Svc", Loggers: []*Logger{nil, a}})
		require.NoError(t, err)
	})
	assert.Same(t, g, a.Group())
}

func TestGroupRegistry_LookupAndNames(t *testing.T) {
	groups := NewGroupRegistry()
	first, err := groups.NewGroup(GroupConfig{Name: "Svc"})
	require.NoError(t, err)
	_, err = groups.NewGroup(GroupConfig{Name: "Api"})
	require.NoError(t, err)

	got, err := groups.Lookup("Svc")
	require.NoError(t, err)
	assert.Same(t, first, got)
	assert.Equal(t, []string{"Api", "Svc"}, groups.Names())

	replacement, err := groups.NewGroup(GroupConfig{Name: "Svc", Formatter: "{message}"})
	require.NoError(t, err)
	got, err = groups.Lookup("Svc")
	require.NoError(t, err)
	assert.Same(t, replacement, got)

	// A logger bound by name keeps the group it resolved.
	l := MustNew(LoggerConfig{Name: "L", GroupName: "Api", Groups: groups})
	require.NoError(t, l.BindName("Svc"))
	assert.Equal(t, "Svc", l.GroupPath())
	assert.ErrorIs(t, l.BindName("Nope"), ErrGroupNotFound)
	assert.Equal(t, "Svc", l.GroupPath())
}
