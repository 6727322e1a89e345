// Package logger provides logger configuration options for the FinDex platform.
package logger

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/findex-io/findex/pkg/log"
)

// Options contains logger configuration.
type Options struct {
	// Level is the minimum log level (debug|info|warn|error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log encoding (json|console).
	Format string `json:"format" mapstructure:"format"`

	// OutputPaths are the log output sinks.
	OutputPaths []string `json:"output-paths" mapstructure:"output-paths"`

	// Development enables development mode.
	Development bool `json:"development" mapstructure:"development"`

	// DisableCaller stops annotating logs with the calling function.
	DisableCaller bool `json:"disable-caller" mapstructure:"disable-caller"`

	// DisableStacktrace disables automatic stacktrace capture.
	DisableStacktrace bool `json:"disable-stacktrace" mapstructure:"disable-stacktrace"`

	initialFields map[string]any
}

// NewOptions creates new Options with defaults.
func NewOptions() *Options {
	return &Options{
		Level:       "info",
		Format:      "console",
		OutputPaths: []string{"stdout"},
	}
}

// AddFlags adds flags for logger options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Level, "log.level", o.Level, "Log level (debug|info|warn|error)")
	fs.StringVar(&o.Format, "log.format", o.Format, "Log format (json|console)")
	fs.StringSliceVar(&o.OutputPaths, "log.output-paths", o.OutputPaths, "Output paths for logs")
	fs.BoolVar(&o.Development, "log.development", o.Development, "Enable development mode")
	fs.BoolVar(&o.DisableCaller, "log.disable-caller", o.DisableCaller, "Disable caller detection")
	fs.BoolVar(&o.DisableStacktrace, "log.disable-stacktrace", o.DisableStacktrace, "Disable stacktrace capture")
}

// AddInitialField attaches a field to every log entry produced by the logger.
func (o *Options) AddInitialField(key string, value any) {
	if o.initialFields == nil {
		o.initialFields = make(map[string]any)
	}
	o.initialFields[key] = value
}

// Validate validates the logger options.
func (o *Options) Validate() error {
	switch o.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", o.Format)
	}
	return nil
}

// Complete completes the logger options with defaults.
func (o *Options) Complete() error {
	return nil
}

// Init initializes the global logger with the options.
func (o *Options) Init() error {
	return log.Init(&log.Config{
		Level:             o.Level,
		Format:            o.Format,
		OutputPaths:       o.OutputPaths,
		Development:       o.Development,
		DisableCaller:     o.DisableCaller,
		DisableStacktrace: o.DisableStacktrace,
		InitialFields:     o.initialFields,
	})
}
