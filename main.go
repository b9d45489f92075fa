package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lotas/brisk/internal/api"
	"github.com/lotas/brisk/internal/applog"
	"github.com/lotas/brisk/internal/config"
	"github.com/lotas/brisk/internal/server"
	"github.com/lotas/brisk/internal/surface"
	"github.com/lotas/brisk/internal/tui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// cfgPath is the --config flag shared by every command.
var cfgPath string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "brisk",
		Short:         "A tabbed terminal browser shell",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runBrowser(cmd.Context(), cfg)
		},
	}

	defaults := config.DefaultConfig()
	pf := root.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "path to config file (default ~/.config/brisk/config.yaml)")
	pf.String("api-url", defaults.APIURL, "base URL of the brisk API")
	pf.StringP("user", "u", "", "log in as this user on start")
	pf.String("home-url", defaults.HomeURL, "home page for new tabs")
	pf.String("theme", defaults.Theme, "color theme")
	pf.Duration("loading-delay", defaults.LoadingDelay, "how long a tab shows as loading")
	pf.Duration("request-timeout", defaults.RequestTimeout, "timeout for API requests")
	pf.String("surface", defaults.Surface, "where pages are displayed: none, extension or chrome")
	pf.Int("port", defaults.Port, "WebSocket port for the extension surface")
	pf.Bool("chrome-headless", defaults.ChromeHeadless, "run Chrome without a window")
	pf.String("log-dir", defaults.LogDir, "directory for brisk.log")
	pf.String("db-path", defaults.DBPath, "SQLite database used by serve")
	pf.String("addr", defaults.Addr, "listen address used by serve")
	pf.StringSlice("cors-origins", defaults.CORSOrigins, "origins allowed by serve")
	pf.StringSlice("features", nil, "features to enable (pomodoro, metrics)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newBookmarksCmd())
	root.AddCommand(newHistoryCmd())
	root.AddCommand(newSessionsCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newImportFirefoxCmd())
	root.AddCommand(newProfilesCmd())
	root.AddCommand(newConfigCmd())

	return root
}

// loadConfig resolves the effective configuration for cmd, including the
// root flags it inherits.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(cfgPath, cmd.Flags())
}

func runBrowser(ctx context.Context, cfg config.Config) error {
	if err := applog.Init(cfg.LogDir); err != nil {
		return fmt.Errorf("init log: %w", err)
	}
	defer applog.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	surf, closeSurface, err := openSurface(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSurface()

	model := tui.NewModel(tui.Options{
		Backend:        api.New(cfg.APIURL, cfg.RequestTimeout),
		Surface:        surf,
		User:           cfg.User,
		HomeURL:        cfg.HomeURL,
		Theme:          cfg.Theme,
		LoadingDelay:   cfg.LoadingDelay,
		RequestTimeout: cfg.RequestTimeout,
		Features:       cfg.FeatureSet(),
	})
	applog.Info("app.start", "surface", cfg.Surface, "api", cfg.APIURL)
	start := time.Now()

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	applog.Info("app.exit", "uptime", time.Since(start).Round(time.Second))
	return nil
}

// openSurface starts the display surface selected in cfg. The returned func
// releases it.
func openSurface(ctx context.Context, cfg config.Config) (surface.Surface, func(), error) {
	switch cfg.Surface {
	case config.SurfaceExtension:
		srv := server.New(cfg.Port)
		go func() {
			if err := srv.ListenAndServe(ctx); err != nil {
				applog.Error("server.listen", err, "port", cfg.Port)
			}
		}()
		return surface.NewExtension(ctx, srv), func() {}, nil
	case config.SurfaceChrome:
		c, err := surface.NewChrome(ctx, cfg.ChromeHeadless)
		if err != nil {
			return nil, nil, fmt.Errorf("start chrome: %w", err)
		}
		return c, c.Shutdown, nil
	}
	return surface.None{}, func() {}, nil
}
