package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/lotas/brisk/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		format  string
		outPath string
		render  bool
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export bookmarks, history and sessions as markdown or JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			acc, err := login(cmd)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			data := export.Data{User: acc.user}
			if data.Bookmarks, err = acc.client.ListBookmarks(ctx, acc.user); err != nil {
				return err
			}
			if data.History, err = acc.client.ListHistory(ctx, acc.user, limit); err != nil {
				return err
			}
			if data.Sessions, err = acc.client.ListSessions(ctx, acc.user); err != nil {
				return err
			}

			out, err := export.Render(data, f, time.Now())
			if err != nil {
				return err
			}

			if outPath != "" {
				if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported to %s\n", outPath)
				return nil
			}
			if render && f == export.FormatMarkdown {
				r, err := glamour.NewTermRenderer(
					glamour.WithStylePath("dark"),
					glamour.WithWordWrap(100),
				)
				if err == nil {
					if rendered, err := r.Render(out); err == nil {
						out = rendered
					}
				}
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or json")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&render, "render", false, "render markdown for the terminal")
	cmd.Flags().IntVar(&limit, "history-limit", 100, "maximum number of history entries")
	return cmd
}
