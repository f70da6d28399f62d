package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/projectsteps/internal/paths"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix        = "PROJECTSTEPS"
	envConfigDirHint = paths.EnvConfigDir

	// The CLI is quiet unless asked otherwise.
	cliDefaultLogLevel = "warn"
)

// loadConfig reads config.yaml from configDir with Viper. A missing file is
// not an error; defaults and PROJECTSTEPS_* environment variables apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault("db_file", types.DefaultDBFile)
	v.SetDefault("data_dir", "")
	v.SetDefault("attachments_dir", "")
	v.SetDefault("slow_query_ms", types.DefaultSlowQueryMS)
	v.SetDefault("log.level", cliDefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 0)
	v.SetDefault("log.max_files", 0)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", types.ErrInvalidConfig, filepath.Join(configDir, configFileExt), err)
	}
	return v, nil
}

// settings resolves directories and loads the effective configuration.
func (e *env) settings() (types.Config, error) {
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return types.Config{}, err
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("%w: %v", types.ErrInvalidConfig, err)
	}

	dirs, err := paths.Resolve(e.flags.configDir, e.flags.dataDir, cfg.DataDir)
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg.DataDir = dirs.Data

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with the given values if the
// file does not exist. An existing file is left alone.
func writeConfigIfMissing(path string, cfg types.Config) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# projectsteps configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}

func newConfigCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := e.settings()
			if err != nil {
				return err
			}
			if e.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), cfg)
			}
			out, err := yaml.Marshal(&cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
