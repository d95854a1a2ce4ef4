package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/entrhq/tabrotate/pkg/browser"
	"github.com/entrhq/tabrotate/pkg/config"
	"github.com/entrhq/tabrotate/pkg/logging"
	"github.com/entrhq/tabrotate/pkg/rotation"
	"github.com/entrhq/tabrotate/pkg/statusui"
	"github.com/entrhq/tabrotate/pkg/types"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("main")
	if err != nil {
		debugLog.Warnf("Failed to initialize main logger, using stderr fallback: %v", err)
	}
}

// run executes the main application logic
func run(ctx context.Context, cfg *Config) error {
	// The status view owns the terminal
	if cfg.Verbose && !cfg.TUI {
		logging.SetConsole(os.Stderr)
	}

	settingsPath := cfg.ConfigPath
	if settingsPath == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return err
		}
		settingsPath = defaultPath
	}

	if err := config.Initialize(settingsPath); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}
	provider := config.NewSettingsProvider(config.Global())

	if len(cfg.Sets) > 0 {
		return runSet(provider, cfg.Sets)
	}

	browserSettings, err := resolveBrowserSettings(cfg, config.GetBrowser().Snapshot())
	if err != nil {
		return err
	}

	return runDaemon(ctx, cfg, settingsPath, provider, browserSettings)
}

// runSet writes settings edits and exits. A running daemon picks them up
// through its settings watcher.
func runSet(provider *config.SettingsProvider, pairs []string) error {
	changes, err := parseSetArgs(pairs)
	if err != nil {
		return err
	}

	if err := provider.Apply(changes); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	debugLog.Infof("Saved settings: %v", changes)
	fmt.Printf("Saved %d setting(s)\n", len(changes))
	return nil
}

// resolveBrowserSettings layers the browser profile file and command line
// flags over the stored browser section.
func resolveBrowserSettings(cfg *Config, base config.BrowserSettings) (config.BrowserSettings, error) {
	settings := base

	if cfg.BrowserConfig != "" {
		profile, err := config.LoadBrowserProfile(cfg.BrowserConfig, settings)
		if err != nil {
			return config.BrowserSettings{}, err
		}
		settings = profile
	}

	if cfg.HeadlessSet {
		settings.Headless = cfg.Headless
	}
	if len(cfg.URLs) > 0 {
		settings.StartURLs = append([]string(nil), cfg.URLs...)
	}

	return settings, nil
}

func runDaemon(ctx context.Context, cfg *Config, settingsPath string, provider *config.SettingsProvider, browserSettings config.BrowserSettings) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sessions := browser.NewSessionManager()
	if err := sessions.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := sessions.Shutdown(); err != nil {
			debugLog.Warnf("Browser shutdown failed: %v", err)
		}
	}()

	tabs, err := sessions.Launch(browser.SessionOptions{
		Headless: browserSettings.Headless,
		Viewport: &browser.Viewport{
			Width:  browserSettings.ViewportWidth,
			Height: browserSettings.ViewportHeight,
		},
		UserDataDir: browserSettings.UserDataDir,
		StartURLs:   browserSettings.StartURLs,
	})
	if err != nil {
		return err
	}

	scheduler := rotation.NewScheduler(provider, tabs, tabs)
	tabs.SetListener(scheduler)

	watcher, err := config.NewWatcher(settingsPath, config.DefaultDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()
	watcher.OnChange(scheduler.NotifySettingsChanged)
	go watcher.Run(ctx)

	schedulerDone := make(chan error, 1)
	go func() {
		schedulerDone <- scheduler.Run(ctx)
	}()

	scheduler.Startup()
	debugLog.Infof("tabrotate v%s running, settings at %s", version, settingsPath)
	if path := debugLog.Path(); path != "" && !cfg.TUI {
		fmt.Fprintf(os.Stderr, "Logging to %s\n", path)
	}

	if cfg.TUI {
		if err := statusui.Run(ctx, scheduler.Events(), provider); err != nil {
			cancel()
			<-schedulerDone
			return err
		}
		cancel()
	} else {
		logEvents(ctx, scheduler.Events())
	}

	if err := <-schedulerDone; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logEvents records scheduler events until ctx is cancelled.
func logEvents(ctx context.Context, events <-chan *types.RotationEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			logEvent(ev)
		}
	}
}

func logEvent(ev *types.RotationEvent) {
	if ev == nil {
		return
	}

	switch ev.Type {
	case types.EventTypeStarted:
		debugLog.Infof("Rotation started")
	case types.EventTypeStopped:
		debugLog.Infof("Rotation stopped")
	case types.EventTypeSwitched:
		debugLog.Infof("Switched to %s", ev.Tab.URL)
	case types.EventTypeReloaded:
		debugLog.Infof("Reloaded %s", ev.Tab.URL)
	case types.EventTypeIdle:
		debugLog.Infof("No eligible tabs")
	case types.EventTypeCycleError:
		debugLog.Errorf("Rotation error: %v", ev.Error)
	default:
		debugLog.Debugf("Rotation event: %s", ev.Type)
	}
}
