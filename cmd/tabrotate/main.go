// Package main provides the tabrotate daemon. It opens a Chromium window,
// cycles through its tabs on a timer and optionally reloads each tab as it
// comes to the front, driven by the settings file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/entrhq/tabrotate/pkg/config"
)

const version = "0.1.0" // Version of tabrotate

// Config holds the command line configuration
type Config struct {
	ConfigPath    string
	BrowserConfig string
	Headless      bool
	HeadlessSet   bool
	URLs          stringList
	Sets          stringList
	TUI           bool
	Verbose       bool
	ShowVersion   bool
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func main() {
	cfg, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.ShowVersion {
		fmt.Printf("tabrotate v%s\n", version)
		return
	}

	// Create context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nShutting down gracefully...")
		cancel()
	}()

	if runErr := run(ctx, cfg); runErr != nil {
		cancel()
		log.Fatalf("Application error: %v", runErr)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags(args []string, output io.Writer) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("tabrotate", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cfg.ConfigPath, "config", "", "Path to the settings file (default: ~/.tabrotate/settings.json)")
	fs.StringVar(&cfg.BrowserConfig, "browser-config", "", "Path to a browser profile file (YAML)")
	fs.BoolVar(&cfg.Headless, "headless", false, "Run Chromium without a window")
	fs.Var(&cfg.URLs, "url", "Open this URL at launch (repeatable, replaces configured start URLs)")
	fs.Var(&cfg.Sets, "set", "Write a rotation setting as key=value and exit (repeatable)")
	fs.BoolVar(&cfg.TUI, "tui", false, "Show the interactive status view")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Mirror log output to stderr")
	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(output, "tabrotate - rotate through browser tabs on a timer\n\n")
		fmt.Fprintf(output, "Usage: tabrotate [options]\n\n")
		fmt.Fprintf(output, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(output, "\nSettings keys for -set:\n")
		fmt.Fprintf(output, "  %s\n", strings.Join(settingKeys(), ", "))
		fmt.Fprintf(output, "\nExamples:\n")
		fmt.Fprintf(output, "  tabrotate -url https://grafana.example.com -url https://status.example.com\n")
		fmt.Fprintf(output, "  tabrotate -tui -browser-config wall.yaml\n")
		fmt.Fprintf(output, "  tabrotate -set enableSwitching=true -set stayTime=30\n")
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "headless" {
			cfg.HeadlessSet = true
		}
	})

	return cfg, nil
}

var knownSettingKeys = map[string]bool{
	config.KeyStayTime:        true,
	config.KeyEnableSwitching: true,
	config.KeyShouldRefresh:   true,
	config.KeyNoSwitchURLs:    true,
	config.KeyNoRefreshURLs:   true,
	config.KeyCustomShortcut:  true,
}

func settingKeys() []string {
	keys := make([]string, 0, len(knownSettingKeys))
	for k := range knownSettingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseSetArgs turns key=value pairs into a settings change set. Pattern
// lists take literal "\n" as the separator, so several patterns fit in one
// argument.
func parseSetArgs(pairs []string) (map[string]interface{}, error) {
	changes := make(map[string]interface{}, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid setting %q: expected key=value", pair)
		}

		key = strings.TrimSpace(key)
		if !knownSettingKeys[key] {
			return nil, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(settingKeys(), ", "))
		}

		if key == config.KeyNoSwitchURLs || key == config.KeyNoRefreshURLs {
			value = strings.ReplaceAll(value, `\n`, "\n")
		}

		changes[key] = value
	}

	return changes, nil
}
