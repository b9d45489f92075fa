package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lotas/brisk/internal/analyzer"
	"github.com/lotas/brisk/internal/firefox"
	"github.com/lotas/brisk/internal/types"
)

func newProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List Firefox profiles that can be imported",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := firefox.DiscoverProfiles()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				fmt.Fprintln(out, "No Firefox profiles found.")
				return nil
			}
			for _, p := range profiles {
				suffix := ""
				if p.IsDefault {
					suffix = " [default]"
				}
				fmt.Fprintf(out, "%s (%s)%s\n", p.Name, p.Path, suffix)
			}
			return nil
		},
	}
}

func newImportFirefoxCmd() *cobra.Command {
	var profileName, name string
	var dryRun, dedupe bool
	cmd := &cobra.Command{
		Use:   "import-firefox",
		Short: "Save the open tabs of a Firefox profile as a session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := firefox.DiscoverProfiles()
			if err != nil {
				return err
			}
			p, ok := firefox.FindProfile(profiles, profileName)
			if !ok {
				return fmt.Errorf("profile %q: %w", profileName, types.ErrNotFound)
			}
			tabs, err := firefox.ReadSessionFile(p.Path)
			if err != nil {
				return err
			}
			if dedupe {
				tabs = dedupeTabs(tabs)
			}
			if name == "" {
				name = fmt.Sprintf("Firefox %s %s", p.Name, time.Now().Format("2006-01-02"))
			}
			s := types.Session{Name: name, Tabs: tabs}

			if dryRun {
				printSessions(cmd.OutOrStdout(), []types.Session{s}, true)
				return nil
			}
			acc, err := login(cmd)
			if err != nil {
				return err
			}
			saved, err := acc.client.CreateSession(cmd.Context(), acc.user, s)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tabs from %s as %q (%s)\n", len(saved.Tabs), p.Name, saved.Name, saved.ID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&profileName, "profile", "p", "", "Firefox profile name (default profile when empty)")
	cmd.Flags().StringVarP(&name, "name", "n", "", "session name")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the tabs without saving")
	cmd.Flags().BoolVar(&dedupe, "dedupe", false, "skip tabs that duplicate an earlier one")
	return cmd
}

func dedupeTabs(tabs []types.SessionTab) []types.SessionTab {
	urls := make([]string, len(tabs))
	for i, t := range tabs {
		urls[i] = t.URL
	}
	keep := analyzer.Dedupe(urls)
	out := make([]types.SessionTab, 0, len(keep))
	for _, i := range keep {
		out = append(out, tabs[i])
	}
	return out
}
