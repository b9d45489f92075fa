package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/lotas/brisk/internal/analyzer"
	"github.com/lotas/brisk/internal/api"
	"github.com/lotas/brisk/internal/config"
	"github.com/lotas/brisk/internal/pagemeta"
	"github.com/lotas/brisk/internal/resolve"
	"github.com/lotas/brisk/internal/types"
)

// account is a logged-in API client for the CLI commands.
type account struct {
	cfg    config.Config
	client *api.Client
	user   string
}

// login loads the config for cmd and logs in as the configured user.
func login(cmd *cobra.Command) (*account, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("no user: pass --user or set user in the config file: %w", types.ErrValidation)
	}
	client := api.New(cfg.APIURL, cfg.RequestTimeout)
	user, err := client.Login(cmd.Context(), cfg.User)
	if err != nil {
		return nil, err
	}
	return &account{cfg: cfg, client: client, user: user}, nil
}

const timeLayout = "2006-01-02 15:04"

func newBookmarksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookmarks",
		Short: "Manage bookmarks",
	}
	cmd.AddCommand(newBookmarksListCmd())
	cmd.AddCommand(newBookmarksAddCmd())
	cmd.AddCommand(newBookmarksRemoveCmd())
	cmd.AddCommand(newBookmarksCheckCmd())
	return cmd
}

func newBookmarksListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bookmarks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			list, err := acc.client.ListBookmarks(cmd.Context(), acc.user)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No bookmarks.")
				return nil
			}
			for _, b := range list {
				fmt.Fprintf(out, "%s  %s  %s\n    %s\n", b.ID, b.CreatedAt.Local().Format(timeLayout), b.Title, b.URL)
			}
			return nil
		},
	}
}

func newBookmarksAddCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "add <address>",
		Short: "Bookmark an address; the title is fetched from the page unless given",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			url := resolve.Resolve(args[0])
			if title == "" {
				title = pageTitle(cmd.Context(), acc.cfg.RequestTimeout, url)
			}
			favicon, _ := resolve.FaviconURL(url)
			b, err := acc.client.AddBookmark(cmd.Context(), acc.user, types.Bookmark{URL: url, Title: title, Favicon: favicon})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bookmarked %q (%s)\n", b.Title, b.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "bookmark title")
	return cmd
}

func pageTitle(ctx context.Context, timeout time.Duration, url string) string {
	return pagemeta.NewFetcher(timeout).Title(ctx, url)
}

func newBookmarksRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a bookmark",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			if err := acc.client.DeleteBookmark(cmd.Context(), acc.user, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted bookmark %s\n", args[0])
			return nil
		},
	}
}

func newBookmarksCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report dead and duplicate bookmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			list, err := acc.client.ListBookmarks(cmd.Context(), acc.user)
			if err != nil {
				return err
			}
			urls := make([]string, len(list))
			for i, b := range list {
				urls[i] = b.URL
			}

			out := cmd.OutOrStdout()
			problems := 0
			for _, r := range analyzer.CheckLinks(cmd.Context(), analyzer.NewClient(acc.cfg.RequestTimeout), urls) {
				if !r.Dead {
					continue
				}
				problems++
				b := list[r.Index]
				fmt.Fprintf(out, "dead (%s)  %s  %s\n", r.Reason, b.ID, b.URL)
			}
			for _, group := range analyzer.Duplicates(urls) {
				problems++
				fmt.Fprintf(out, "duplicate  %s\n", list[group[0]].URL)
				for _, i := range group {
					fmt.Fprintf(out, "    %s  %s\n", list[i].ID, list[i].Title)
				}
			}
			if problems == 0 {
				fmt.Fprintf(out, "All %d bookmarks look fine.\n", len(list))
			}
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show or clear browsing history",
	}
	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryClearCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visited pages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			list, err := acc.client.ListHistory(cmd.Context(), acc.user, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, "No history.")
				return nil
			}
			for _, h := range list {
				fmt.Fprintf(out, "%s  %-24s %s\n", h.VisitTime.Local().Format(timeLayout), h.Title, h.URL)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "maximum number of entries")
	return cmd
}

func newHistoryClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			if err := acc.client.ClearHistory(cmd.Context(), acc.user); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "History cleared.")
			return nil
		},
	}
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage saved sessions",
	}
	cmd.AddCommand(newSessionsListCmd())
	cmd.AddCommand(newSessionsRemoveCmd())
	return cmd
}

func newSessionsListCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			list, err := acc.client.ListSessions(cmd.Context(), acc.user)
			if err != nil {
				return err
			}
			printSessions(cmd.OutOrStdout(), list, verbose)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "also list each session's tabs")
	return cmd
}

func printSessions(w io.Writer, list []types.Session, verbose bool) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No sessions.")
		return
	}
	for _, s := range list {
		fmt.Fprintf(w, "%s  %s  %s (%d tabs)\n", s.ID, s.CreatedAt.Local().Format(timeLayout), s.Name, len(s.Tabs))
		if !verbose {
			continue
		}
		for _, t := range s.Tabs {
			fmt.Fprintf(w, "    %s  %s\n", t.Title, t.URL)
		}
	}
}

func newSessionsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a saved session",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			if err := acc.client.DeleteSession(cmd.Context(), acc.user, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s\n", args[0])
			return nil
		},
	}
}
