package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func newNoteCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "note",
		Aliases: []string{"notes"},
		Short:   "Manage project notes",
	}
	cmd.AddCommand(
		newNoteListCmd(e),
		newNoteGetCmd(e),
		newNoteCreateCmd(e),
		newNoteUpdateCmd(e),
		newNoteDeleteCmd(e),
		newNoteImportantCmd(e),
	)
	return cmd
}

func newNoteListCmd(e *env) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "list [--project <id>]",
		Short: "List notes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				notes, err := svc.ListNotes(ctx, project)
				if err != nil {
					return err
				}
				return e.output(cmd, notes, func(w *tableWriter) { noteRows(w, notes...) })
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "only notes of this project")
	return cmd
}

func newNoteGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <note-id>",
		Short: "Show one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				n, err := svc.GetNote(ctx, args[0])
				if err != nil {
					return err
				}
				return e.output(cmd, n, func(w *tableWriter) {
					noteRows(w, n)
					w.row("")
					w.row(n.PlainText)
				})
			})
		},
	}
}

type noteFlags struct {
	title     string
	content   string
	plainText string
}

func (f *noteFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "note title")
	cmd.Flags().StringVar(&f.content, "content", "", "rich content")
	cmd.Flags().StringVar(&f.plainText, "plain-text", "", "plain rendering of the content (defaults to --content)")
}

func (f *noteFlags) apply(cmd *cobra.Command, n *types.Note) {
	if cmd.Flags().Changed("title") {
		n.Title = f.title
	}
	if cmd.Flags().Changed("content") {
		n.Content = f.content
		if !cmd.Flags().Changed("plain-text") {
			n.PlainText = f.content
		}
	}
	if cmd.Flags().Changed("plain-text") {
		n.PlainText = f.plainText
	}
}

func newNoteCreateCmd(e *env) *cobra.Command {
	var (
		f       noteFlags
		project string
	)
	cmd := &cobra.Command{
		Use:   "create --project <id> --title <title>",
		Short: "Add a note to a project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if project == "" || f.title == "" {
				return usagef("--project and --title are required")
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				n := types.Note{ProjectID: project}
				f.apply(cmd, &n)
				n, err := svc.CreateNote(ctx, n)
				if err != nil {
					return err
				}
				return e.output(cmd, n, func(w *tableWriter) { noteRows(w, n) })
			})
		},
	}
	f.register(cmd)
	cmd.Flags().StringVar(&project, "project", "", "owning project id")
	return cmd
}

func newNoteUpdateCmd(e *env) *cobra.Command {
	var f noteFlags
	cmd := &cobra.Command{
		Use:   "update <note-id>",
		Short: "Change a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				n, err := svc.GetNote(ctx, args[0])
				if err != nil {
					return err
				}
				f.apply(cmd, &n)
				n, err = svc.UpdateNote(ctx, n)
				if err != nil {
					return err
				}
				return e.output(cmd, n, func(w *tableWriter) { noteRows(w, n) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newNoteDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <note-id>",
		Short: "Delete a note and its attachments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				return svc.DeleteNote(ctx, args[0])
			})
		},
	}
}

func newNoteImportantCmd(e *env) *cobra.Command {
	var clearIt bool
	cmd := &cobra.Command{
		Use:   "important <project-id> [note-id]",
		Short: "Show, set or clear a project's important note",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if clearIt && len(args) == 2 {
				return usagef("--clear does not take a note id")
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				switch {
				case clearIt:
					if err := svc.SetImportantNote(ctx, args[0], ""); err != nil {
						return err
					}
				case len(args) == 2:
					if err := svc.SetImportantNote(ctx, args[0], args[1]); err != nil {
						return err
					}
				}
				n, err := svc.ImportantNote(ctx, args[0])
				if err != nil {
					return err
				}
				return e.output(cmd, n, func(w *tableWriter) {
					if n == nil {
						w.row("-")
						return
					}
					noteRows(w, *n)
				})
			})
		},
	}
	cmd.Flags().BoolVar(&clearIt, "clear", false, "clear the important note")
	return cmd
}
