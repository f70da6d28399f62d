// Package cli implements the projectsteps command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/internal/attachments"
	"github.com/mesh-intelligence/projectsteps/internal/logging"
	"github.com/mesh-intelligence/projectsteps/pkg/sqlite"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
}

// env is shared by every command of one root command instance.
type env struct {
	flags rootFlags
}

// NewRootCmd creates the top-level "projectsteps" command with global
// flags and all subcommands registered.
func NewRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:   "projectsteps",
		Short: "Track projects, their ordered steps, notes and image attachments",
		Long: "projectsteps keeps projects, ordered steps, notes and image attachments\n" +
			"in a single SQLite file that upgrades itself on open.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&e.flags.configDir, "config-dir", "", "configuration directory (env "+envConfigDirHint+")")
	root.PersistentFlags().StringVar(&e.flags.dataDir, "data-dir", "", "data directory holding the store and attachments")
	root.PersistentFlags().BoolVar(&e.flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(e),
		newConfigCmd(e),
		newSchemaCmd(e),
		newProjectCmd(e),
		newStepCmd(e),
		newNoteCmd(e),
		newImageCmd(e),
	)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{msg: err.Error()}
	})
	markArgErrors(root)
	return root
}

// markArgErrors makes positional-argument failures of cmd and its
// subcommands report as usage errors.
func markArgErrors(cmd *cobra.Command) {
	if validate := cmd.Args; validate != nil {
		cmd.Args = func(c *cobra.Command, args []string) error {
			if err := validate(c, args); err != nil {
				return usageError{msg: err.Error()}
			}
			return nil
		}
	}
	for _, sub := range cmd.Commands() {
		markArgErrors(sub)
	}
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	return run(NewRootCmd(), os.Args[1:], os.Stderr)
}

func run(root *cobra.Command, args []string, stderr io.Writer) int {
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		msg := app.Message(err)
		var usage usageError
		if errors.As(err, &usage) {
			msg = usage.msg
		}
		fmt.Fprintln(stderr, "error:", msg)
		return exitCode(err)
	}
	return exitSuccess
}

// exitCode separates caller mistakes from storage or system failures.
func exitCode(err error) int {
	var usage usageError
	switch {
	case errors.As(err, &usage),
		errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidOwnerKind),
		errors.Is(err, types.ErrInvalidConfig):
		return exitUserError
	default:
		return exitSysError
	}
}

// usageError marks a bad command line.
type usageError struct{ msg string }

func (u usageError) Error() string { return u.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// withService opens the store described by the resolved configuration,
// runs fn, and closes everything again.
func (e *env) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	cfg, err := e.settings()
	if err != nil {
		return err
	}

	log, closer, err := logging.NewWithConsole(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer closer.Close()
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := sqlite.OpenConfig(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := app.NewService(store, attachments.NewOSFileStore(cfg.ImagesDir()), log)
	return fn(ctx, svc)
}
