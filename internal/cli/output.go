package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/projectsteps/pkg/types"
)

// tableWriter prints aligned, tab-separated rows.
type tableWriter struct {
	tw *tabwriter.Writer
}

func (w *tableWriter) row(cols ...any) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(w.tw, strings.Join(parts, "\t"))
}

// output writes v as JSON in --json mode, otherwise calls text.
func (e *env) output(cmd *cobra.Command, v any, text func(w *tableWriter)) error {
	if e.flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	w := &tableWriter{tw: tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)}
	text(w)
	return w.tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func optional(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func projectRows(w *tableWriter, projects ...types.Project) {
	w.row("ID", "NAME", "CURRENT STEP", "CREATED")
	for _, p := range projects {
		w.row(p.ID, p.Name, optional(p.CurrentStepID), p.CreatedAt)
	}
}

func stepRows(w *tableWriter, steps ...types.Step) {
	w.row("ID", "PROJECT", "ORDER", "DONE", "TITLE")
	for _, s := range steps {
		w.row(s.ID, s.ProjectID, s.OrderIndex, checkbox(s.Completed), s.Title)
	}
}

func noteRows(w *tableWriter, notes ...types.Note) {
	w.row("ID", "PROJECT", "CREATED", "TITLE")
	for _, n := range notes {
		w.row(n.ID, n.ProjectID, n.CreatedAt, n.Title)
	}
}

func imageRows(w *tableWriter, images ...types.ImageAttachment) {
	w.row("ID", "OWNER", "TYPE", "FILE")
	for _, a := range images {
		w.row(a.ID, a.Owner, a.ContentType, a.FilePath)
	}
}
