package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/redgyro/internal/gcsv"
	"github.com/roman-kulish/redgyro/internal/motion"
	"github.com/roman-kulish/redgyro/internal/redline"
)

const (
	// BatchPattern selects the clips converted by --all, matched case-sensitively
	// in the working directory
	BatchPattern = "*.R3D"

	defaultLogLevel = "info"
)

// Config represents the converter configuration
type Config struct {
	Settings Settings      `yaml:"settings" json:"settings"`
	Redline  RedlineConfig `yaml:"redline" json:"redline"`
	Output   OutputConfig  `yaml:"output" json:"output"`
	Journal  JournalConfig `yaml:"journal" json:"journal"`
	Preview  PreviewConfig `yaml:"preview" json:"preview"`

	// Set from the command line
	Target string `yaml:"-" json:"target,omitempty"` // Single clip to convert
	All    bool   `yaml:"-" json:"all"`              // Convert every clip matching BatchPattern
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel" json:"logLevel"`
}

// RedlineConfig tells where to find the REDline binary
type RedlineConfig struct {
	Path       string   `yaml:"path" json:"path"`             // Tried before the candidates
	AutoDetect *bool    `yaml:"autoDetect" json:"autoDetect"` // Use Path as is when false (default: true)
	Candidates []string `yaml:"candidates" json:"candidates"` // Replaces the built-in lookup list
}

// OutputConfig controls the content of written logs
type OutputConfig struct {
	Orientation string          `yaml:"orientation" json:"orientation"`
	Note        string          `yaml:"note" json:"note"`
	Trim        motion.TrimMode `yaml:"trim" json:"trim"`
}

// JournalConfig represents the conversion journal settings
type JournalConfig struct {
	Path string `yaml:"path" json:"path"` // SQLite file, journal disabled when empty
}

// PreviewConfig represents the motion preview settings
type PreviewConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
	Width   int  `yaml:"width" json:"width"`
	Height  int  `yaml:"height" json:"height"`
}

// NewConfig returns a configuration with defaults
func NewConfig() *Config {
	return &Config{
		Settings: Settings{
			LogLevel: defaultLogLevel,
		},
		Output: OutputConfig{
			Orientation: gcsv.DefaultOrientation,
			Note:        gcsv.DefaultNote,
			Trim:        motion.TrimLiteral,
		},
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults. An empty
// path returns the defaults.
func LoadConfig(path string) (*Config, error) {
	c := NewConfig()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return c, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}

	if err := c.Output.Trim.Validate(); err != nil {
		return fmt.Errorf("app.Config: %w", err)
	}

	if strings.TrimSpace(c.Output.Orientation) == "" {
		return fmt.Errorf("app.Config: orientation must not be empty")
	}
	if strings.ContainsAny(c.Output.Orientation+c.Output.Note, ",\n") {
		return fmt.Errorf("app.Config: orientation and note must not contain commas or line breaks")
	}

	if !c.autoDetect() && c.Redline.Path == "" {
		return fmt.Errorf("app.Config: redline path is required when auto detection is disabled")
	}

	if c.Preview.Width < 0 || c.Preview.Height < 0 {
		return fmt.Errorf("app.Config: invalid preview size: %dx%d", c.Preview.Width, c.Preview.Height)
	}

	if c.Target != "" && c.All {
		return fmt.Errorf("app.Config: a file and --all cannot be combined")
	}

	return nil
}

// Level returns the configured log level
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Settings.LogLevel)); err != nil {
		return level, fmt.Errorf("app.Config: invalid log level %q: %w", c.Settings.LogLevel, err)
	}
	return level, nil
}

// Mode returns the invocation mode recorded in the journal
func (c *Config) Mode() string {
	if c.All {
		return "all"
	}
	return "single"
}

// Candidates returns the REDline lookup list
func (c *Config) Candidates() []string {
	defaults := redline.DefaultCandidates
	if len(c.Redline.Candidates) > 0 {
		defaults = c.Redline.Candidates
	}
	return redline.Candidates(c.Redline.Path, defaults)
}

func (c *Config) autoDetect() bool {
	return c.Redline.AutoDetect == nil || *c.Redline.AutoDetect
}
