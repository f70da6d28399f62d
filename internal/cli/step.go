package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func newStepCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "step",
		Aliases: []string{"steps"},
		Short:   "Manage a project's ordered steps",
	}
	cmd.AddCommand(
		newStepListCmd(e),
		newStepGetCmd(e),
		newStepCreateCmd(e),
		newStepUpdateCmd(e),
		newStepDeleteCmd(e),
		newStepReorderCmd(e),
	)
	return cmd
}

func newStepListCmd(e *env) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "list [--project <id>]",
		Short: "List steps in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				steps, err := svc.ListSteps(ctx, project)
				if err != nil {
					return err
				}
				return e.output(cmd, steps, func(w *tableWriter) { stepRows(w, steps...) })
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "only steps of this project")
	return cmd
}

func newStepGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <step-id>",
		Short: "Show one step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				s, err := svc.GetStep(ctx, args[0])
				if err != nil {
					return err
				}
				return e.output(cmd, s, func(w *tableWriter) { stepRows(w, s) })
			})
		},
	}
}

type stepFlags struct {
	title       string
	description string
	plainText   string
	order       int
	completed   bool
}

func (f *stepFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "step title")
	cmd.Flags().StringVar(&f.description, "description", "", "rich-text description")
	cmd.Flags().StringVar(&f.plainText, "plain-text", "", "plain rendering of the description")
	cmd.Flags().IntVar(&f.order, "order", 0, "order index within the project")
	cmd.Flags().BoolVar(&f.completed, "completed", false, "mark the step completed")
}

// apply copies the flags the user set onto s.
func (f *stepFlags) apply(cmd *cobra.Command, s *types.Step) {
	if cmd.Flags().Changed("title") {
		s.Title = f.title
	}
	if cmd.Flags().Changed("description") {
		s.Description = f.description
	}
	if cmd.Flags().Changed("plain-text") {
		s.PlainText = types.StringPtr(f.plainText)
		if f.plainText == "" {
			s.PlainText = nil
		}
	}
	if cmd.Flags().Changed("order") {
		s.OrderIndex = f.order
	}
	if cmd.Flags().Changed("completed") {
		s.Completed = f.completed
	}
}

func newStepCreateCmd(e *env) *cobra.Command {
	var (
		f       stepFlags
		project string
	)
	cmd := &cobra.Command{
		Use:   "create --project <id> --title <title>",
		Short: "Add a step to a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" || f.title == "" {
				return usagef("--project and --title are required")
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				order := f.order
				if !cmd.Flags().Changed("order") {
					existing, err := svc.ListSteps(ctx, project)
					if err != nil {
						return err
					}
					order = nextOrderIndex(existing)
				}
				s := types.Step{ProjectID: project, OrderIndex: order}
				f.apply(cmd, &s)
				s, err := svc.CreateStep(ctx, s)
				if err != nil {
					return err
				}
				return e.output(cmd, s, func(w *tableWriter) { stepRows(w, s) })
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&project, "project", "", "owning project id")
	return cmd
}

// nextOrderIndex places a new step after the existing ones.
func nextOrderIndex(steps []types.Step) int {
	next := 0
	for _, s := range steps {
		if s.OrderIndex >= next {
			next = s.OrderIndex + 1
		}
	}
	return next
}

func newStepUpdateCmd(e *env) *cobra.Command {
	var f stepFlags
	cmd := &cobra.Command{
		Use:   "update <step-id>",
		Short: "Change a step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				s, err := svc.GetStep(ctx, args[0])
				if err != nil {
					return err
				}
				f.apply(cmd, &s)
				s, err = svc.UpdateStep(ctx, s)
				if err != nil {
					return err
				}
				return e.output(cmd, s, func(w *tableWriter) { stepRows(w, s) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newStepDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <step-id>",
		Short: "Delete a step and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				return svc.DeleteStep(ctx, args[0])
			})
		},
	}
}

func newStepReorderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <project-id> <step-id>...",
		Short: "Reorder a project's steps in one atomic batch",
		Long: "Assign order indexes 0..n-1 to the given steps in the given order.\n" +
			"Either every step is updated or none is.",
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				steps, err := svc.ReorderSteps(ctx, args[0], args[1:])
				if err != nil {
					return err
				}
				return e.output(cmd, steps, func(w *tableWriter) { stepRows(w, steps...) })
			})
		},
	}
}
