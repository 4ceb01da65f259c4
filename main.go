package main

import (
	"fmt"
	"math"
	"os"

	"github.com/mordilloSan/grouplog/logger"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logFile    string
	noColor    bool
)

var rootCmd = &cobra.Command{
	Use:   "grouplog",
	Short: "Demonstrate grouped, colorized logging",
	Long: `grouplog logs a record at every level through a Main logger bound to the
group tree Example.Groups. Console output is colored, file output is plain.

With --config the sinks and groups come from a YAML file instead, and the
Main logger is bound to the last group it declares.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML logging configuration")
	rootCmd.Flags().StringVarP(&logFile, "log-file", "f", "", "also write records to this file (plain text)")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored console output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(_ *cobra.Command, _ []string) error {
	var (
		group   *logger.Group
		cleanup func() error
		err     error
	)
	if configPath != "" {
		group, cleanup, err = groupsFromConfig(configPath)
	} else {
		group, cleanup, err = defaultGroups()
	}
	if err != nil {
		return err
	}
	defer cleanup()

	log, err := logger.New(logger.LoggerConfig{Name: "Main", Group: group})
	if err != nil {
		return err
	}

	// Every built-in level.
	log.Debug("This is {} message", "debug")
	log.Exception("This is {} message", "exception")
	log.Info("This is {} message", "info")
	log.Warning("This is {} message", "warning")
	log.Error("This is {} message", "error")
	log.Critical("This is critical message")

	// Arguments are colored by kind.
	log.Debug("Int: {} List: {} Map: {}", 13, []int{1, 2, 3}, map[string]string{"hello": "world"})
	log.Exception("Tuple: {} Bool: {} Bytes: {}", [2]string{"hello", "world"}, true, []byte("whois?"))
	log.Info("Float: {}", math.Pi)
	log.Warning("Error (color): {}", errors.New("name 'abc' is not defined"))

	// Format specs.
	log.Info("{:<20}--{:>19}", "pi is", fmt.Sprintf("%.2f", math.Pi))

	// Attached errors are followed by their stack trace.
	if err := openMissing(); err != nil {
		log.WithError(err).Exception("Exception example")
	}

	for _, f := range log.Funcs() {
		if f.Level == logger.LevelNotSet {
			continue
		}
		f.Log("dispatched through {!r}", f.Name)
	}

	log.Info("It is continue work")
	return nil
}

func openMissing() error {
	_, err := os.Open("does-not-exist.txt")
	return errors.Wrap(err, "open settings")
}

func sinkOptions(level logger.Level) []logger.SinkOption {
	opts := []logger.SinkOption{logger.WithLevel(level)}
	if noColor {
		opts = append(opts, logger.WithColors(false))
	}
	return opts
}

// defaultGroups builds Example -> Groups with a console sink at DEBUG and,
// when requested, a file sink at DEBUG.
func defaultGroups() (*logger.Group, func() error, error) {
	console, err := logger.NewStdoutSink(sinkOptions(logger.LevelDebug)...)
	if err != nil {
		return nil, nil, err
	}
	sinks := []logger.Sink{console}
	cleanup := func() error { return nil }

	if logFile != "" {
		file, err := logger.NewFileSink(logFile, logger.WithLevel(logger.LevelDebug))
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, file)
		cleanup = file.Close
	}

	example, err := logger.NewGroup(logger.GroupConfig{Name: "Example", Sinks: sinks})
	if err != nil {
		return nil, nil, err
	}
	groups, err := logger.NewGroup(logger.GroupConfig{Name: "Groups", Parent: example})
	if err != nil {
		return nil, nil, err
	}
	return groups, cleanup, nil
}

func groupsFromConfig(path string) (*logger.Group, func() error, error) {
	cfg, err := logger.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	if len(cfg.Groups) == 0 {
		return nil, nil, errors.Errorf("%s declares no groups", path)
	}
	if noColor {
		off := false
		for name, sc := range cfg.Sinks {
			sc.Colors = &off
			cfg.Sinks[name] = sc
		}
	}
	setup, err := cfg.Build(nil, nil)
	if err != nil {
		return nil, nil, err
	}
	last := cfg.Groups[len(cfg.Groups)-1].Name
	return setup.Groups[last], setup.Close, nil
}
