package logger

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Group is a named bundle of logging configuration shared by loggers.
//
// A root group defines its formatter, time formatter, colors and sinks (each
// defaulted when omitted). A child group copies them from its parent when it is
// created; later changes to the parent are not seen by the child. The path of a
// group joins the names from the root with dots, for example "Example.Groups".
//
// Groups are immutable after creation.
type Group struct {
	name          string
	path          string
	parent        *Group
	formatter     string
	timeFormatter string
	colors        *ColorSet
	sinks         []Sink
}

// GroupConfig describes a group to create.
type GroupConfig struct {
	// Name identifies the group in its registry. Required.
	Name string

	// Parent makes the group a child of an existing group.
	Parent *Group
	// ParentName makes the group a child of the registered group with this name.
	// It is ignored when Parent is set.
	ParentName string

	// Formatter is the record template of a root group. Default: DefaultFormatter.
	Formatter string
	// TimeFormatter is the time template of a root group. Default: DefaultTimeFormatter.
	TimeFormatter string
	// Colors is the color set of a root group, copied on creation. Default: DefaultColorSet().
	Colors *ColorSet
	// Sinks receive the records of a root group. Default: none.
	Sinks []Sink

	// Loggers are bound to the group as soon as it is created. Nil entries are skipped.
	Loggers []*Logger
}

// GroupRegistry maps group names to groups. Registration is append-only and a
// group registered under an existing name replaces the previous one.
// It is safe for concurrent use.
type GroupRegistry struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// DefaultGroups is the registry used by NewGroup and by loggers that do not
// configure their own.
var DefaultGroups = NewGroupRegistry()

// NewGroupRegistry returns an empty registry.
func NewGroupRegistry() *GroupRegistry {
	return &GroupRegistry{groups: make(map[string]*Group)}
}

// NewGroup creates a group in DefaultGroups.
func NewGroup(cfg GroupConfig) (*Group, error) {
	return DefaultGroups.NewGroup(cfg)
}

// NewGroup creates a group and registers it under cfg.Name.
//
// A child group given its own Formatter, TimeFormatter, Colors or Sinks fails
// with ErrGroupOverride: configuration flows only from the root. An unknown
// ParentName fails with *GroupNotFoundError.
func (r *GroupRegistry) NewGroup(cfg GroupConfig) (*Group, error) {
	if cfg.Name == "" {
		return nil, ErrEmptyName
	}

	parent := cfg.Parent
	if parent == nil && cfg.ParentName != "" {
		p, err := r.Lookup(cfg.ParentName)
		if err != nil {
			return nil, err
		}
		parent = p
	}

	g := &Group{name: cfg.Name}
	if parent == nil {
		g.path = cfg.Name
		g.formatter = stringOr(cfg.Formatter, DefaultFormatter)
		g.timeFormatter = stringOr(cfg.TimeFormatter, DefaultTimeFormatter)
		if cfg.Colors != nil {
			if _, ok := cfg.Colors.Types[CategoryAll]; !ok {
				return nil, errors.Wrapf(ErrMissingFallbackColor, "group %q", cfg.Name)
			}
			g.colors = cfg.Colors.Clone()
		} else {
			g.colors = DefaultColorSet()
		}
		g.sinks = append([]Sink(nil), cfg.Sinks...)
	} else {
		if cfg.Formatter != "" || cfg.TimeFormatter != "" || cfg.Colors != nil || cfg.Sinks != nil {
			return nil, errors.Wrapf(ErrGroupOverride, "group %q has parent %q", cfg.Name, parent.name)
		}
		g.parent = parent
		g.path = parent.path + "." + cfg.Name
		g.formatter = parent.formatter
		g.timeFormatter = parent.timeFormatter
		g.colors = parent.colors.Clone()
		g.sinks = parent.sinks
	}

	r.register(g)

	for _, l := range cfg.Loggers {
		if l != nil {
			l.Bind(g)
		}
	}
	return g, nil
}

func (r *GroupRegistry) register(g *Group) {
	r.mu.Lock()
	r.groups[g.name] = g
	r.mu.Unlock()
}

// Lookup returns the group registered under name.
func (r *GroupRegistry) Lookup(name string) (*Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if g, ok := r.groups[name]; ok {
		return g, nil
	}
	return nil, &GroupNotFoundError{Name: name}
}

// Names returns the registered group names in sorted order.
func (r *GroupRegistry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.groups))
	for name := range r.groups {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Name returns the group's own name.
func (g *Group) Name() string { return g.name }

// Path returns the dotted path from the root group.
func (g *Group) Path() string { return g.path }

// Parent returns the parent group, or nil for a root group.
func (g *Group) Parent() *Group { return g.parent }

// Formatter returns the record template.
func (g *Group) Formatter() string { return g.formatter }

// TimeFormatter returns the time template.
func (g *Group) TimeFormatter() string { return g.timeFormatter }

// Colors returns a copy of the group's color set.
func (g *Group) Colors() *ColorSet { return g.colors.Clone() }

// Sinks returns a copy of the group's sink list. The sinks themselves are shared.
func (g *Group) Sinks() []Sink { return append([]Sink(nil), g.sinks...) }

func stringOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
