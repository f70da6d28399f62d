package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func newProjectCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"projects"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectListCmd(e),
		newProjectGetCmd(e),
		newProjectCreateCmd(e),
		newProjectUpdateCmd(e),
		newProjectDeleteCmd(e),
		newProjectCurrentCmd(e),
	)
	return cmd
}

func newProjectListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				projects, err := svc.ListProjects(ctx)
				if err != nil {
					return err
				}
				return e.output(cmd, projects, func(w *tableWriter) { projectRows(w, projects...) })
			})
		},
	}
}

func newProjectGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				p, err := svc.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return e.output(cmd, p, func(w *tableWriter) { projectRows(w, p) })
			})
		},
	}
}

type projectFlags struct {
	name        string
	description string
	gradient    string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "project name")
	cmd.Flags().StringVar(&f.description, "description", "", "rich-text description")
	cmd.Flags().StringVar(&f.gradient, "gradient", "", "display gradient token")
}

func newProjectCreateCmd(e *env) *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "create --name <name>",
		Short: "Create a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.name == "" {
				return usagef("--name is required")
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				p, err := svc.CreateProject(ctx, types.Project{
					Name:        f.name,
					Description: f.description,
					Gradient:    f.gradient,
				})
				if err != nil {
					return err
				}
				return e.output(cmd, p, func(w *tableWriter) { projectRows(w, p) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newProjectUpdateCmd(e *env) *cobra.Command {
	var f projectFlags
	cmd := &cobra.Command{
		Use:   "update <project-id>",
		Short: "Change a project's name, description or gradient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				p, err := svc.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("name") {
					p.Name = f.name
				}
				if cmd.Flags().Changed("description") {
					p.Description = f.description
				}
				if cmd.Flags().Changed("gradient") {
					p.Gradient = f.gradient
				}
				p, err = svc.UpdateProject(ctx, p)
				if err != nil {
					return err
				}
				return e.output(cmd, p, func(w *tableWriter) { projectRows(w, p) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newProjectDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project with its steps, notes and attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				return svc.DeleteProject(ctx, args[0])
			})
		},
	}
}

func newProjectCurrentCmd(e *env) *cobra.Command {
	var clearIt bool
	cmd := &cobra.Command{
		Use:   "current <project-id> [step-id]",
		Short: "Show, set or clear a project's current step",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearIt && len(args) == 2 {
				return usagef("--clear does not take a step id")
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				switch {
				case clearIt:
					if err := svc.SetCurrentStep(ctx, args[0], nil); err != nil {
						return err
					}
				case len(args) == 2:
					if err := svc.SetCurrentStep(ctx, args[0], types.StringPtr(args[1])); err != nil {
						return err
					}
				}
				p, err := svc.GetProject(ctx, args[0])
				if err != nil {
					return err
				}
				return e.output(cmd, p, func(w *tableWriter) { w.row(optional(p.CurrentStepID)) })
			})
		},
	}
	cmd.Flags().BoolVar(&clearIt, "clear", false, "clear the current step")
	return cmd
}
