// Package config holds runtime settings for the converter and the upload
// server. Values start from Default, then CALLREPORT_* environment variables,
// then an optional YAML file, then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/jalad-shrimali/callreport/calllog"
	"github.com/jalad-shrimali/callreport/exclusion"
)

// EnvPrefix is the environment variable prefix.
const EnvPrefix = "CALLREPORT"

// Config represents the complete application configuration
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
}

// PipelineConfig carries the processing constants.
type PipelineConfig struct {
	TimeOffset     time.Duration `yaml:"time_offset" envconfig:"TIME_OFFSET" validate:"gte=0"`
	DelayThreshold time.Duration `yaml:"delay_threshold" envconfig:"DELAY_THRESHOLD" validate:"gt=0"`
	NumberLength   int           `yaml:"number_length" envconfig:"NUMBER_LENGTH" validate:"min=1,max=15"`

	// MissedCount selects how Missed Calls is counted.
	MissedCount string `yaml:"missed_count" envconfig:"MISSED_COUNT" validate:"oneof=total-minus-answered incoming-unanswered"`

	// DateLayouts replaces the built-in Date/Time layouts when set, e.g.
	// "2/1/2006 15:04:05" for day-first exports.
	DateLayouts []string `yaml:"date_layouts" envconfig:"DATE_LAYOUTS" validate:"omitempty,dive,required"`
	// Location is the IANA zone the export's timestamps are read in.
	Location string `yaml:"location" envconfig:"LOCATION" validate:"required"`

	ExclusionTable  string `yaml:"exclusion_table" envconfig:"EXCLUSION_TABLE" validate:"required"`
	ExclusionColumn string `yaml:"exclusion_column" envconfig:"EXCLUSION_COLUMN" validate:"required"`
}

// PathsConfig contains file system locations.
type PathsConfig struct {
	Exclusions string `yaml:"exclusions" envconfig:"EXCLUSIONS"`
	UploadDir  string `yaml:"upload_dir" envconfig:"UPLOAD_DIR" validate:"required"`
	OutputDir  string `yaml:"output_dir" envconfig:"OUTPUT_DIR" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Addr            string        `yaml:"addr" envconfig:"ADDR" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" validate:"gt=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" validate:"gt=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" envconfig:"MAX_UPLOAD_BYTES" validate:"gt=0"`
}

// Default returns default configuration. It is the single source of
// defaults; Load applies the environment and the file over it.
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			TimeOffset:      time.Hour,
			DelayThreshold:  40 * time.Minute,
			NumberLength:    9,
			MissedCount:     string(calllog.MissedTotalMinusAnswered),
			Location:        "UTC",
			ExclusionTable:  "excluded_numbers",
			ExclusionColumn: "number",
		},
		Paths: PathsConfig{
			UploadDir: "uploads",
			OutputDir: "filtered",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: "logs/callreport.log",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
			MaxUploadBytes:  32 << 20,
		},
	}
}

// Load starts from Default, applies the environment and then, when file is
// not empty, overlays the YAML file on top. Keys absent from the file keep
// their environment value. The result is validated.
func Load(file string) (*Config, error) {
	cfg := Default()
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if file != "" {
		if err := loadFromFile(file, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

var validate = validator.New()

// Validate checks every field rule and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if _, lerr := time.LoadLocation(c.Pipeline.Location); lerr != nil {
			return fmt.Errorf("config validation failed: Config.Pipeline.Location: %w", lerr)
		}
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config validation failed: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: must satisfy %s (got %v)", fe.Namespace(), ruleText(fe), fe.Value()))
	}
	return fmt.Errorf("config validation failed: %s", strings.Join(msgs, "; "))
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// PipelineOptions converts the pipeline section for calllog.Run. An empty
// DateLayouts keeps calllog.DefaultDateLayouts.
func (c *Config) PipelineOptions() calllog.Options {
	opts := calllog.DefaultOptions()
	opts.TimeOffset = c.Pipeline.TimeOffset
	opts.DelayThreshold = c.Pipeline.DelayThreshold
	opts.NumberLength = c.Pipeline.NumberLength
	opts.MissedCount = calllog.MissedCountPolicy(c.Pipeline.MissedCount)
	if len(c.Pipeline.DateLayouts) > 0 {
		opts.DateLayouts = c.Pipeline.DateLayouts
	}
	if loc, err := time.LoadLocation(c.Pipeline.Location); err == nil {
		opts.Location = loc
	}
	return opts
}

// ExclusionOptions converts the pipeline section for exclusion.Load.
func (c *Config) ExclusionOptions() exclusion.Options {
	return exclusion.Options{
		NumberLength: c.Pipeline.NumberLength,
		Table:        c.Pipeline.ExclusionTable,
		Column:       c.Pipeline.ExclusionColumn,
	}
}
