package cli

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/internal/app"
	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

func newImageCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "image",
		Aliases: []string{"images"},
		Short:   "Manage image attachments of steps, notes and project descriptions",
		Long: fmt.Sprintf("Owners are addressed as <kind> <id>, where kind is one of %v.",
			types.OwnerKinds()),
	}
	cmd.AddCommand(
		newImageAttachCmd(e),
		newImageListCmd(e),
		newImageDeleteCmd(e),
		newImageExportCmd(e),
	)
	return cmd
}

func parseOwner(kind, id string) (types.Owner, error) {
	k, err := types.ParseOwnerKind(kind)
	if err != nil {
		return types.Owner{}, err
	}
	owner := types.Owner{ContentID: id, Kind: k}
	return owner, owner.Validate()
}

// detectContentType prefers the file extension and falls back to sniffing.
func detectContentType(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func newImageAttachCmd(e *env) *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "attach <kind> <owner-id> <file>",
		Short: "Copy an image into the attachment store and attach it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, err := parseOwner(args[0], args[1])
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[2])
			if err != nil {
				return usagef("read %s: %v", args[2], err)
			}
			if contentType == "" {
				contentType = detectContentType(args[2], data)
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				a, err := svc.UploadImage(ctx, app.UploadRequest{
					Data:        data,
					Filename:    filepath.Base(args[2]),
					ContentType: contentType,
					Owner:       owner,
				})
				if err != nil {
					return err
				}
				return e.output(cmd, a, func(w *tableWriter) { imageRows(w, a) })
			})
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "MIME type (detected when empty)")
	return cmd
}

func newImageListCmd(e *env) *cobra.Command {
	var project string
	cmd := &cobra.Command{
		Use:   "list (<kind> <owner-id> | --project <id>)",
		Short: "List attachments in upload order",
		Args:  cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var owner types.Owner
			switch {
			case project != "" && len(args) == 0:
			case project == "" && len(args) == 2:
				var err error
				if owner, err = parseOwner(args[0], args[1]); err != nil {
					return err
				}
			default:
				return usagef("give either <kind> <owner-id> or --project")
			}
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				var (
					images []types.ImageAttachment
					err    error
				)
				if project != "" {
					images, err = svc.ListProjectImages(ctx, project)
				} else {
					images, err = svc.ListImages(ctx, owner)
				}
				if err != nil {
					return err
				}
				return e.output(cmd, images, func(w *tableWriter) { imageRows(w, images...) })
			})
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "every attachment of this project")
	return cmd
}

func newImageDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <attachment-id>",
		Short: "Delete an attachment and its file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				return svc.DeleteImage(ctx, args[0])
			})
		},
	}
}

func newImageExportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "export <attachment-id> <dest>",
		Short: "Write an attachment's bytes to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withService(cmd, func(ctx context.Context, svc *app.Service) error {
				a, data, err := svc.ImageData(ctx, args[0])
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[1], data, 0o644); err != nil {
					return fmt.Errorf("write %s: %w", args[1], err)
				}
				return e.output(cmd, a, func(w *tableWriter) { w.row(args[1], len(data), a.ContentType) })
			})
		},
	}
}
