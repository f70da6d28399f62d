// Package paths resolves the configuration and data directories.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user platform directories.
const appName = "projectsteps"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "PROJECTSTEPS_CONFIG_DIR"
	EnvDataDir   = "PROJECTSTEPS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// Dirs is a resolved pair of directories.
type Dirs struct {
	Config string
	Data   string
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/projectsteps (fallback ~/.config/projectsteps)
// Others:  os.UserConfigDir()/projectsteps
func DefaultConfigDir() (string, error) {
	return xdgOrUserDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the platform-specific default data directory. The
// store file and the attachment tree live here.
//
// Linux:   $XDG_DATA_HOME/projectsteps (fallback ~/.local/share/projectsteps)
// Others:  same as the config directory
func DefaultDataDir() (string, error) {
	return xdgOrUserDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgOrUserDir(xdgVar, homeRel string) (string, error) {
	if platformDir.goos != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > PROJECTSTEPS_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir := firstNonEmpty(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the data directory following the precedence chain:
// flag > config value > PROJECTSTEPS_DATA_DIR > DefaultDataDir().
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := firstNonEmpty(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultDataDir()
}

// Resolve resolves both directories. configValue is the data_dir read from
// the config file, if any.
func Resolve(configFlag, dataFlag, configValue string) (Dirs, error) {
	cfg, err := ResolveConfigDir(configFlag)
	if err != nil {
		return Dirs{}, err
	}
	data, err := ResolveDataDir(dataFlag, configValue)
	if err != nil {
		return Dirs{}, err
	}
	return Dirs{Config: cfg, Data: data}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
