// Package cli holds the healthkit-demo command tree.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"healthkit-bridge/internal/bridge"
	"healthkit-bridge/internal/common/config"
	"healthkit-bridge/internal/common/database"
	"healthkit-bridge/internal/common/logger"
	"healthkit-bridge/internal/screens"
	"healthkit-bridge/pkg/registry"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	metricsAddr string
}

// New creates the root command.
func New(version string) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "healthkit-demo",
		Short:         "Drive the health SDK demo screens against the in-process simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml)")
	root.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	root.AddCommand(newVersionCmd(version))
	root.AddCommand(newScreensCmd())
	root.AddCommand(newOperationsCmd())
	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newRegistryCmd())
	root.AddCommand(newEventsCmd(opts))

	return root
}

func loadConfig(opts *rootOptions) (*config.Config, error) {
	if opts.configPath != "" {
		return config.LoadFromFile(opts.configPath)
	}
	return config.Load()
}

// withApp builds the App for one command and closes it afterwards.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(*App) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	app, err := NewApp(cmd.Context(), cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer app.Close()

	addr := opts.metricsAddr
	if addr == "" && cfg.Metrics.Enabled {
		addr = cfg.Metrics.Address
	}
	if addr != "" {
		app.ServeMetrics(addr)
	}
	return fn(app)
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", version)
		},
	}
}

func newScreensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "screens",
		Short: "List screens and their actions",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := screens.NewRegistry(screens.Deps{})
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range reg.Names() {
				s, err := reg.Get(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s\t\n", name, s.Title())
				for _, a := range s.Actions() {
					fmt.Fprintf(w, "  %s\t%s\t\n", a.Name, a.Description)
				}
			}
			return w.Flush()
		},
	}
}

func newOperationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations",
		Short: "List facade operations from the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.Default()
			if err != nil {
				return err
			}
			return printOperations(cmd.OutOrStdout(), reg)
		},
	}
}

func printOperations(out io.Writer, reg *registry.Registry) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "CONTROLLER\tOPERATION\tEVENTS\tDESCRIPTION\n")
	for _, op := range reg.Operations() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", op.Controller, op.ID, strings.Join(op.Events, ","), op.Description)
	}
	return w.Flush()
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "run <screen> [action...]",
		Short: "Mount a screen, run actions in order (all when none given), then unmount",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(app *App) error {
				wait := settle
				if !cmd.Flags().Changed("settle") {
					wait = time.Duration(app.Config.Bridge.SettleMS) * time.Millisecond
				}
				return runScreen(cmd.Context(), app, args[0], args[1:], wait)
			})
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", 500*time.Millisecond, "time to wait for pushed events before unmounting")
	return cmd
}

// runScreen keeps going after a failed action; failures are already surfaced.
func runScreen(ctx context.Context, app *App, name string, names []string, settle time.Duration) error {
	screen, err := app.Screens.Get(name)
	if err != nil {
		return err
	}
	actions, err := pick(screen, names)
	if err != nil {
		return err
	}

	if err := screen.Mount(ctx); err != nil {
		screen.Unmount()
		return fmt.Errorf("mount %s: %w", name, err)
	}
	defer screen.Unmount()

	failed := 0
	for _, a := range actions {
		if err := a.Run(ctx); err != nil {
			failed++
			app.Logger.Debug("action failed", map[string]interface{}{
				"screen": name,
				"action": a.Name,
				"error":  err.Error(),
			})
		}
	}

	if settle > 0 {
		select {
		case <-time.After(settle):
		case <-ctx.Done():
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d actions on %s failed", failed, len(actions), name)
	}
	return nil
}

func pick(s screens.Screen, names []string) ([]screens.Action, error) {
	all := s.Actions()
	if len(names) == 0 {
		return all, nil
	}
	byName := make(map[string]screens.Action, len(all))
	for _, a := range all {
		byName[a.Name] = a
	}
	out := make([]screens.Action, 0, len(names))
	for _, n := range names {
		a, ok := byName[n]
		if !ok {
			return nil, fmt.Errorf("screen %s has no action %q", s.Name(), n)
		}
		out = append(out, a)
	}
	return out, nil
}

func newRegistryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Operation registry tools",
	}

	var path string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Check that a registry file parses and its schemas compile",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				reg *registry.Registry
				err error
			)
			if path == "" {
				reg, err = registry.Default()
			} else {
				reg, err = registry.LoadRegistry(path)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry %s: %d operations valid\n", reg.Version(), len(reg.Operations()))
			return nil
		},
	}
	validate.Flags().StringVar(&path, "path", "", "registry file (default: bundled registry)")
	cmd.AddCommand(validate)
	return cmd
}

func newEventsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Push SDK events through the Redis feed",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "publish <event> <json>",
		Short: "Publish one event for a running demo to relay",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := json.RawMessage(args[1])
			if !json.Valid(payload) {
				return fmt.Errorf("payload is not valid JSON")
			}
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			rdb := database.NewRedis(cfg.Database.Redis)
			defer rdb.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			feed := bridge.NewRedisFeed(rdb, cfg.Bridge.RedisFeed.ChannelPrefix, nil, logger.NewNoOpLogger())
			if err := feed.Publish(ctx, args[0], payload); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s on %s\n", args[0], feed.Channel(args[0]))
			return nil
		},
	})
	return cmd
}
