package types

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// Defaults applied by Config.WithDefaults.
const (
	DefaultDBFile         = "projectsteps.db"
	DefaultLogLevel       = "info"
	DefaultSlowQueryMS    = 100
	attachmentsSubdir     = "attachmentSources"
	attachmentsImagesLeaf = "images"
)

// ErrInvalidConfig is returned by Validate for any malformed setting.
var ErrInvalidConfig = errors.New("invalid config")

// LogConfig controls the process logger.
type LogConfig struct {
	Level     string `json:"level" yaml:"level" mapstructure:"level"`
	File      string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"`
	MaxSizeMB int    `json:"max_size_mb,omitempty" yaml:"max_size_mb,omitempty" mapstructure:"max_size_mb"`
	MaxFiles  int    `json:"max_files,omitempty" yaml:"max_files,omitempty" mapstructure:"max_files"`
}

// Config locates the store file and attachment directory and tunes logging.
type Config struct {
	DataDir        string    `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	DBFile         string    `json:"db_file" yaml:"db_file" mapstructure:"db_file"`
	AttachmentsDir string    `json:"attachments_dir,omitempty" yaml:"attachments_dir,omitempty" mapstructure:"attachments_dir"`
	SlowQueryMS    int       `json:"slow_query_ms" yaml:"slow_query_ms" mapstructure:"slow_query_ms"`
	Log            LogConfig `json:"log" yaml:"log" mapstructure:"log"`
}

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// WithDefaults returns a copy of c with empty optional fields filled in.
func (c Config) WithDefaults() Config {
	if c.DBFile == "" {
		c.DBFile = DefaultDBFile
	}
	if c.SlowQueryMS == 0 {
		c.SlowQueryMS = DefaultSlowQueryMS
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	return c
}

// Validate checks that the Config is well-formed. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data_dir must not be empty", ErrInvalidConfig)
	}
	if c.DBFile == "" {
		return fmt.Errorf("%w: db_file must not be empty", ErrInvalidConfig)
	}
	if filepath.Base(c.DBFile) != c.DBFile {
		return fmt.Errorf("%w: db_file %q must be a file name, not a path", ErrInvalidConfig, c.DBFile)
	}
	if c.SlowQueryMS < 0 {
		return fmt.Errorf("%w: slow_query_ms must not be negative", ErrInvalidConfig)
	}
	if !knownLogLevels[c.Log.Level] {
		return fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, c.Log.Level)
	}
	return nil
}

// DBPath is the store file location.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, c.DBFile)
}

// ImagesDir is where uploaded image files are written.
func (c Config) ImagesDir() string {
	if c.AttachmentsDir != "" {
		return c.AttachmentsDir
	}
	return filepath.Join(c.DataDir, attachmentsSubdir, attachmentsImagesLeaf)
}

// SlowQueryThreshold converts SlowQueryMS to a duration.
func (c Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMS) * time.Millisecond
}
