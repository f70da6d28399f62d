package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/internal/paths"
)

func newInitCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration, data directory and store",
		Long: "Create the configuration directory and a default config.yaml if missing,\n" +
			"then open the store so it is created or upgraded to the latest schema.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, e)
		},
	}
}

func runInit(cmd *cobra.Command, e *env) error {
	configDir, err := paths.ResolveConfigDir(e.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	cfg, err := e.settings()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	configPath := filepath.Join(configDir, configFileExt)
	wrote, err := writeConfigIfMissing(configPath, cfg)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	var version int
	err = e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
		v, err := svc.SchemaVersion(ctx)
		version = v
		return err
	})
	if err != nil {
		return err
	}

	result := struct {
		ConfigFile    string `json:"config_file"`
		ConfigWritten bool   `json:"config_written"`
		Store         string `json:"store"`
		Generation    int    `json:"generation"`
	}{configPath, wrote, cfg.DBPath(), version}

	return e.output(cmd, result, func(w *tableWriter) {
		w.row("config", configPath)
		w.row("store", cfg.DBPath())
		w.row("generation", version)
	})
}
