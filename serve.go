package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/backend"
	"github.com/lotas/brisk/internal/storage"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bookmarks, history, preferences and sessions API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applog.SetOutput(cmd.ErrOrStderr())
			defer applog.Close()

			db, err := storage.OpenDB(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.ErrOrStderr(), "Serving http://%s/api (database %s)\n", cfg.Addr, cfg.DBPath)
			return backend.New(db, cfg.CORSOrigins).ListenAndServe(cmd.Context(), cfg.Addr)
		},
	}
}
