package logger

import (
	stderrors "errors"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the file form of a logging setup:
//
//	levels:
//	  - value: 7
//	    name: NOTICE
//	    color: fg.hiblue style.bold
//	sinks:
//	  console: {type: stdout, level: info}
//	  file:    {type: file, path: app.log, level: debug}
//	groups:
//	  - name: Example
//	    sinks: [console, file]
//	  - name: Groups
//	    parent: Example
type Config struct {
	Levels []LevelConfig         `yaml:"levels"`
	Sinks  map[string]SinkConfig `yaml:"sinks"`
	Groups []GroupFileConfig     `yaml:"groups"`
}

// LevelConfig registers a custom level.
type LevelConfig struct {
	Value int    `yaml:"value"`
	Name  string `yaml:"name"`
	// Color is a list of color tokens, for example "fg.hiblue style.bold".
	Color string `yaml:"color"`
}

// SinkConfig describes a sink. Type is one of stdout, stderr or file.
type SinkConfig struct {
	Type       string `yaml:"type"`
	Path       string `yaml:"path"`
	Level      string `yaml:"level"`
	Colors     *bool  `yaml:"colors"`
	Exceptions *bool  `yaml:"exceptions"`
	Append     bool   `yaml:"append"`
	Syslog     *bool  `yaml:"syslog"`
}

// GroupFileConfig describes a group. Parent, when set, names a group declared
// earlier in the file or already registered. Child groups inherit everything
// else and must leave it empty.
type GroupFileConfig struct {
	Name          string       `yaml:"name"`
	Parent        string       `yaml:"parent"`
	Formatter     string       `yaml:"formatter"`
	TimeFormatter string       `yaml:"time_formatter"`
	Sinks         []string     `yaml:"sinks"`
	Colors        *ColorConfig `yaml:"colors"`
}

// ColorConfig overrides entries of the default color set. Level keys are level
// names; type keys are categories such as "int" or Go type names.
type ColorConfig struct {
	Levels map[string]string `yaml:"levels"`
	Types  map[string]string `yaml:"types"`
}

// Setup owns what Config.Build created.
type Setup struct {
	Sinks  map[string]*WriterSink
	Groups map[string]*Group
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read logging config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load logging config %s", path)
	}
	return cfg, nil
}

// ParseConfig parses YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse yaml")
	}
	return &cfg, nil
}

// Build registers the configured levels in levels, opens the sinks and creates
// the groups in groups. Unknown level names fail with *UnknownLevelNameError and
// unknown parents with *GroupNotFoundError.
//
// Everything is resolved before levels and groups are modified: on failure both
// registries are left unchanged and every sink opened so far is closed.
func (c *Config) Build(levels *LevelRegistry, groups *GroupRegistry) (*Setup, error) {
	if levels == nil {
		levels = DefaultLevels
	}
	if groups == nil {
		groups = DefaultGroups
	}

	setup := &Setup{Sinks: make(map[string]*WriterSink), Groups: make(map[string]*Group)}
	built := false
	defer func() {
		if !built {
			_ = setup.Close()
		}
	}()

	staged := levels.clone()
	base := DefaultColorSet()
	for _, lc := range c.Levels {
		if err := staged.Register(Level(lc.Value), lc.Name); err != nil {
			return nil, errors.Wrapf(err, "level %d", lc.Value)
		}
		if lc.Color != "" {
			code, err := ParseColor(lc.Color)
			if err != nil {
				return nil, errors.Wrapf(err, "level %s", lc.Name)
			}
			base.Levels[Level(lc.Value)] = code
		}
	}

	names := make([]string, 0, len(c.Sinks))
	for name := range c.Sinks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sink, err := c.Sinks[name].open(staged)
		if err != nil {
			return nil, errors.Wrapf(err, "sink %q", name)
		}
		setup.Sinks[name] = sink
	}

	// Groups are created in a scratch registry. Parents resolve to groups declared
	// earlier in the file first, then to groups already registered.
	scratch := NewGroupRegistry()
	created := make([]*Group, 0, len(c.Groups))
	for _, gc := range c.Groups {
		cfg := GroupConfig{Name: gc.Name}
		if gc.Parent == "" {
			cfg.Formatter = gc.Formatter
			cfg.TimeFormatter = gc.TimeFormatter
			colors, err := gc.Colors.apply(base, staged)
			if err != nil {
				return nil, errors.Wrapf(err, "group %q", gc.Name)
			}
			cfg.Colors = colors
			for _, sinkName := range gc.Sinks {
				sink, ok := setup.Sinks[sinkName]
				if !ok {
					return nil, errors.Errorf("group %q: unknown sink %q", gc.Name, sinkName)
				}
				cfg.Sinks = append(cfg.Sinks, sink)
			}
		} else {
			if gc.Formatter != "" || gc.TimeFormatter != "" || gc.Colors != nil || gc.Sinks != nil {
				return nil, errors.Wrapf(ErrGroupOverride, "group %q has parent %q", gc.Name, gc.Parent)
			}
			parent, ok := setup.Groups[gc.Parent]
			if !ok {
				var err error
				if parent, err = groups.Lookup(gc.Parent); err != nil {
					return nil, errors.Wrapf(err, "group %q", gc.Name)
				}
			}
			cfg.Parent = parent
		}

		g, err := scratch.NewGroup(cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "group %q", gc.Name)
		}
		setup.Groups[gc.Name] = g
		created = append(created, g)
	}

	for _, lc := range c.Levels {
		_ = levels.Register(Level(lc.Value), lc.Name)
	}
	for _, g := range created {
		groups.register(g)
	}
	built = true
	return setup, nil
}

func (sc SinkConfig) open(levels *LevelRegistry) (*WriterSink, error) {
	opts := []SinkOption{WithLevelRegistry(levels)}
	if sc.Level != "" {
		level, err := levels.Parse(sc.Level)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLevel(level))
	}
	if sc.Colors != nil {
		opts = append(opts, WithColors(*sc.Colors))
	}
	if sc.Exceptions != nil {
		opts = append(opts, WithExceptions(*sc.Exceptions))
	}
	if sc.Syslog != nil {
		opts = append(opts, WithSyslogPrefix(*sc.Syslog))
	}
	opts = append(opts, WithAppend(sc.Append))

	switch sc.Type {
	case "stdout", "":
		return NewStdoutSink(opts...)
	case "stderr":
		return NewStderrSink(opts...)
	case "file":
		if sc.Path == "" {
			return nil, errors.New("file sink needs a path")
		}
		return NewFileSink(sc.Path, opts...)
	default:
		return nil, errors.Errorf("unknown sink type %q", sc.Type)
	}
}

// apply returns base with the overrides of cc, or base itself when cc is nil.
func (cc *ColorConfig) apply(base *ColorSet, levels *LevelRegistry) (*ColorSet, error) {
	if cc == nil {
		return base, nil
	}
	cs := base.Clone()
	for name, tokens := range cc.Levels {
		level, err := levels.Parse(name)
		if err != nil {
			return nil, err
		}
		code, err := ParseColor(tokens)
		if err != nil {
			return nil, err
		}
		cs.Levels[level] = code
	}
	for cat, tokens := range cc.Types {
		code, err := ParseColor(tokens)
		if err != nil {
			return nil, err
		}
		cs.Types[Category(cat)] = code
	}
	return cs, nil
}

// Close closes every sink of the setup.
func (s *Setup) Close() error {
	var errs []error
	for _, sink := range s.Sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
