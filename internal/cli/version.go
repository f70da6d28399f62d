package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/pkg/sqlite"
)

const modulePath = "github.com/mesh-intelligence/projectsteps"

// Version is set at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the projectsteps version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "projectsteps %s\nmodule: %s\nschema generation: %d\n",
				Version, modulePath, sqlite.LatestGeneration())
			return nil
		},
	}
}

func newSchemaCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the store's schema generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				current, err := svc.SchemaVersion(ctx)
				if err != nil {
					return err
				}
				info := struct {
					Current int `json:"current"`
					Latest  int `json:"latest"`
				}{current, sqlite.LatestGeneration()}
				return e.output(cmd, info, func(w *tableWriter) {
					w.row("current", info.Current)
					w.row("latest", info.Latest)
				})
			})
		},
	}
}
