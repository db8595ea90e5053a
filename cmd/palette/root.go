package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bastiangx/palette/internal/cli"
	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/bastiangx/palette/pkg/prefs"
	"github.com/bastiangx/palette/pkg/server"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	config string
	debug  bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           AppName,
		Short:         "Fast command and pipeline search for command palettes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.debug {
				log.SetLevel(log.DebugLevel)
				log.SetReportTimestamp(true)
			} else {
				log.SetLevel(log.WarnLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
	root.PersistentFlags().StringVar(&flags.config, "config", "", "Path to a config.toml")
	root.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "Toggle debug mode")

	root.AddCommand(
		newServeCmd(flags),
		newCliCmd(flags),
		newAliasCmd(flags),
		newRecentCmd(flags),
		newVersionCmd(),
	)
	return root
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the msgpack IPC server on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags)
		},
	}
}

func runServe(cmd *cobra.Command, flags *rootFlags) error {
	a, err := loadApp(flags.config)
	if err != nil {
		return reportErr(err)
	}
	ctx := cmd.Context()
	if err := a.withSearch(ctx); err != nil {
		return reportErr(err)
	}

	srv := server.NewServer(a.svc, a.prefs, a.cfg.Server.MaxQueryLen, logger.New("server"))
	showStartupInfo(a)
	if err := srv.Start(ctx); err != nil {
		return reportErr(fmt.Errorf("server: %w", err))
	}
	return nil
}

func newCliCmd(flags *rootFlags) *cobra.Command {
	var limit int
	var noFilter bool

	cmd := &cobra.Command{
		Use:   "cli",
		Short: "Interactive debug loop over the search service",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags.config)
			if err != nil {
				return reportErr(err)
			}
			if err := a.withSearch(cmd.Context()); err != nil {
				return reportErr(err)
			}
			if limit <= 0 {
				limit = a.cfg.Search.DefaultLimit
			}

			log.SetReportTimestamp(false)
			log.Debug("Input info:", "limit", limit, "noFilter", noFilter)
			h := cli.NewInputHandler(a.svc, a.prefs.Recent, limit, a.cfg.Server.MaxQueryLen, noFilter, log.Default())
			if err := h.Start(cmd.Context(), os.Stdin); err != nil {
				return reportErr(fmt.Errorf("cli: %w", err))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of results to show (default from config)")
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, "Disable input filtering (DBG only)")
	return cmd
}

func newAliasCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alias",
		Short: "Manage command aliases",
	}

	var params, description string
	add := &cobra.Command{
		Use:   "add <name> <command-id>",
		Short: "Add an alias for a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags.config)
			if err != nil {
				return reportErr(err)
			}
			saved, err := a.prefs.SaveAlias(command.Alias{
				Name:        args[0],
				CommandID:   args[1],
				Params:      params,
				Description: description,
			})
			if errors.Is(err, prefs.ErrAliasExists) {
				return reportErr(fmt.Errorf("alias %q already exists, remove it first", args[0]))
			}
			if err != nil {
				return reportErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "/%s -> %s (%s)\n", saved.Name, saved.CommandID, saved.ID)
			return nil
		},
	}
	add.Flags().StringVar(&params, "params", "", "Default input passed when the alias is used alone")
	add.Flags().StringVar(&description, "description", "", "Description matched by search")

	list := &cobra.Command{
		Use:   "list",
		Short: "List aliases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags.config)
			if err != nil {
				return reportErr(err)
			}
			aliases, err := a.prefs.Aliases(cmd.Context())
			if err != nil {
				return reportErr(err)
			}
			if len(aliases) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no aliases")
				return nil
			}
			for _, al := range aliases {
				line := fmt.Sprintf("/%-16s -> %s", al.Name, al.CommandID)
				if al.Params != "" {
					line += " " + al.Params
				}
				if u, ok := a.prefs.Usage(al.CommandID); ok {
					line += fmt.Sprintf("  (used %s, last %s)", humanize.Comma(int64(u.Count)), humanize.Time(u.LastUsed))
				}
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <name-or-id>",
		Short: "Remove an alias",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags.config)
			if err != nil {
				return reportErr(err)
			}
			if err := a.prefs.RemoveAlias(args[0]); err != nil {
				return reportErr(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

func newRecentCmd(flags *rootFlags) *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "recent",
		Short: "Show recent searches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(flags.config)
			if err != nil {
				return reportErr(err)
			}
			if clearAll {
				return reportErr(a.prefs.ClearRecent())
			}
			recent := a.prefs.Recent()
			if len(recent) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recent searches")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(recent, "\n"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Forget all recent searches")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			showVersion()
		},
	}
}

// reportErr logs err and hands it back to cobra, which only sets the exit code.
func reportErr(err error) error {
	if err != nil {
		log.Error(err)
	}
	return err
}

func showVersion() {
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"}).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ Palette ] Finds your commands before you finish typing!")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(a *app) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("commands: %s", humanize.Comma(int64(a.registry.Len())))
	if a.configPath != "" {
		log.Infof("config: ( %s )", a.configPath)
	}
	log.Info("status: ready")
}
