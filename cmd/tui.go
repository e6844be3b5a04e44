package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"research-terminal/internal/api"
	"research-terminal/internal/cache"
	"research-terminal/internal/config"
	"research-terminal/internal/logging"
	"research-terminal/internal/ui"
)

// runTUI wires config, logging, the backend client and the cache, then runs
// the program until the user quits.
func runTUI(parent context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configDir, err := config.GetConfigDir()
	if err != nil {
		return err
	}
	if err := logging.InitLogger(configDir, logging.ParseLevel(cfg.Log.Level)); err != nil {
		return err
	}
	defer logging.Close()

	store, err := cache.Open(cfg.Cache.Dir, cfg.Cache.KeywordTTL)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer store.Close()

	client := api.NewClient(cfg.BackendURL, api.Options{
		Timeout:         cfg.RequestTimeout,
		RateLimit:       cfg.HTTP.RateLimit,
		Burst:           cfg.HTTP.Burst,
		BreakerFailures: cfg.HTTP.BreakerFailures,
		BreakerTimeout:  cfg.HTTP.BreakerTimeout,
		StreamProtocol:  cfg.Chat.StreamProtocol,
	})
	svc := cache.NewService(client, store)

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	logging.Info("Starting TUI against %s", cfg.BackendURL)

	app := ui.NewAppModel(ctx, svc, ui.PageOptions{
		PollInterval: cfg.References.PollInterval,
		MaxTags:      cfg.TagCloud.MaxTags,
	})

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}
	return nil
}
