package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/bastiangx/palette/internal/logger"
	"github.com/bastiangx/palette/internal/utils"
	"github.com/bastiangx/palette/pkg/command"
	"github.com/bastiangx/palette/pkg/config"
	"github.com/bastiangx/palette/pkg/pipeline"
	"github.com/bastiangx/palette/pkg/prefs"
	"github.com/bastiangx/palette/pkg/search"
	"github.com/charmbracelet/log"
)

// app bundles everything a subcommand needs.
type app struct {
	cfg        *config.Config
	configPath string
	paths      *utils.PathResolver
	prefs      *prefs.Store
	registry   *command.Registry
	pipelines  *pipeline.Provider
	svc        *search.Service
}

// loadApp resolves paths, loads config and the preference store. The
// search stack is only built by withSearch.
func loadApp(configFlag string) (*app, error) {
	paths, err := utils.NewPathResolver()
	if err != nil {
		return nil, fmt.Errorf("resolve paths: %w", err)
	}
	cfg, cfgPath, err := config.LoadConfigWithPriority(configFlag, paths)
	if err != nil {
		return nil, err
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(cfgPath))

	prefsPath := cfg.Prefs.File
	if !filepath.IsAbs(prefsPath) {
		prefsPath = filepath.Join(paths.ConfigDir(), prefsPath)
	}
	store := prefs.Open(prefsPath,
		prefs.WithMaxRecent(cfg.Prefs.MaxRecent),
		prefs.WithLogger(logger.New("prefs")),
	)

	return &app{cfg: cfg, configPath: cfgPath, paths: paths, prefs: store}, nil
}

// withSearch builds the registry, pipeline provider and search service.
func (a *app) withSearch(ctx context.Context) error {
	reg, err := command.NewRegistry(a.builtins()...)
	if err != nil {
		return err
	}
	if path := a.paths.ResolveDataFile(a.cfg.Sources.Commands); path != "" {
		cmds, err := command.LoadFile(path)
		if err != nil {
			log.Warnf("Failed to load commands from %s: %v", path, err)
		}
		for _, c := range cmds {
			if err := reg.Register(c); err != nil {
				log.Warnf("Skipping command: %v", err)
			}
		}
		log.Debugf("Loaded %d commands from %s", len(cmds), path)
	} else {
		log.Debugf("No commands file found for %q, using builtins", a.cfg.Sources.Commands)
	}
	a.registry = reg

	var source pipeline.Source
	if path := a.paths.ResolveDataFile(a.cfg.Sources.Pipelines); path != "" {
		source = pipeline.FileSource{Path: path}
	}
	a.pipelines = pipeline.NewProvider(source, logger.New("pipeline"))

	a.svc = search.New(search.Deps{
		Registry:  reg,
		Aliases:   a.prefs,
		Pipelines: a.pipelines,
		Prefs:     a.prefs,
		Logger:    logger.New("search"),
	}, search.OptionsFromConfig(a.cfg))

	if err := a.svc.RefreshAliases(ctx); err != nil {
		log.Warnf("Aliases unavailable: %v", err)
	}
	return nil
}

// builtins are the commands every palette has, independent of the
// commands file.
func (a *app) builtins() []*command.Command {
	return []*command.Command{
		{
			ID:          "refresh-pipelines",
			Name:        "Refresh Pipelines",
			Description: "refetch the pipeline list",
			Keywords:    []string{"reload", "sync"},
			Action: func(ctx context.Context, _ string) error {
				return a.pipelines.Refresh(ctx)
			},
		},
		{
			ID:          "clear-recent",
			Name:        "Clear Recent Searches",
			Description: "forget the recent search history",
			Keywords:    []string{"history"},
			Action: func(context.Context, string) error {
				return a.prefs.ClearRecent()
			},
		},
	}
}
