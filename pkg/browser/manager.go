package browser

import (
	"fmt"
	"io"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/tabrotate/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("browser")
	if err != nil {
		debugLog.Warnf("Failed to initialize browser logger, using stderr fallback: %v", err)
	}
}

// SessionManager owns the Playwright driver and the one browser whose tabs
// are rotated.
type SessionManager struct {
	mu          sync.Mutex
	playwright  *playwright.Playwright
	browser     playwright.Browser
	context     playwright.BrowserContext
	tabs        *Tabs
	initialized bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

// Initialize installs the Playwright driver and Chromium if needed and
// starts the driver. It must be called before Launch.
func (m *SessionManager) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.initialized {
		return nil
	}

	// Keep driver output off the terminal; the status view owns it
	opts := &playwright.RunOptions{
		Browsers: []string{"chromium"},
		Verbose:  false,
		Stdout:   io.Discard,
		Stderr:   io.Discard,
	}

	if err := playwright.Install(opts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(opts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	m.playwright = pw
	m.initialized = true
	debugLog.Infof("Playwright driver started")
	return nil
}

// Launch starts Chromium, opens the start URLs and returns the registry of
// its tabs. Only one browser may be running at a time.
func (m *SessionManager) Launch(opts SessionOptions) (*Tabs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		return nil, fmt.Errorf("session manager not initialized")
	}
	if m.context != nil {
		return nil, fmt.Errorf("browser already launched")
	}

	opts = withDefaults(opts)
	viewport := &playwright.Size{
		Width:  opts.Viewport.Width,
		Height: opts.Viewport.Height,
	}

	var (
		browser playwright.Browser
		bc      playwright.BrowserContext
		err     error
	)

	if opts.UserDataDir != "" {
		bc, err = m.playwright.Chromium.LaunchPersistentContext(opts.UserDataDir, playwright.BrowserTypeLaunchPersistentContextOptions{
			Headless: &opts.Headless,
			Viewport: viewport,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser with profile %s: %w", opts.UserDataDir, err)
		}
	} else {
		browser, err = m.playwright.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
			Headless: &opts.Headless,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}

		bc, err = browser.NewContext(playwright.BrowserNewContextOptions{
			Viewport: viewport,
		})
		if err != nil {
			browser.Close()
			return nil, fmt.Errorf("failed to create context: %w", err)
		}
	}

	bc.SetDefaultTimeout(opts.Timeout)

	tabs := NewTabs()
	tabs.Attach(bc)

	if err := openStartURLs(bc, opts.StartURLs); err != nil {
		bc.Close()
		if browser != nil {
			browser.Close()
		}
		return nil, err
	}

	m.browser = browser
	m.context = bc
	m.tabs = tabs

	debugLog.Infof("Browser launched (headless=%v, %d tabs)", opts.Headless, tabs.Len())
	return tabs, nil
}

// openStartURLs opens one tab per URL. A blank page left by a persistent
// profile is reused for the first URL.
func openStartURLs(bc playwright.BrowserContext, urls []string) error {
	pages := bc.Pages()

	for i, url := range urls {
		var (
			page playwright.Page
			err  error
		)
		if i == 0 && len(pages) == 1 && pages[0].URL() == "about:blank" {
			page = pages[0]
		} else {
			page, err = bc.NewPage()
			if err != nil {
				return fmt.Errorf("failed to open tab: %w", err)
			}
		}

		if _, err := page.Goto(url); err != nil {
			// A dead start URL should not keep the rest from opening
			debugLog.Warnf("Failed to open %s: %v", url, err)
		}
	}

	if len(urls) == 0 && len(bc.Pages()) == 0 {
		if _, err := bc.NewPage(); err != nil {
			return fmt.Errorf("failed to open tab: %w", err)
		}
	}

	return nil
}

func withDefaults(opts SessionOptions) SessionOptions {
	if opts.Viewport == nil || opts.Viewport.Width <= 0 || opts.Viewport.Height <= 0 {
		opts.Viewport = &Viewport{
			Width:  DefaultViewportWidth,
			Height: DefaultViewportHeight,
		}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return opts
}

// Tabs returns the registry of the launched browser, or nil before Launch.
func (m *SessionManager) Tabs() *Tabs {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabs
}

// Shutdown closes the browser and stops Playwright.
func (m *SessionManager) Shutdown() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.context != nil {
		_ = m.context.Close() // Ignore errors, continue cleanup
		m.context = nil
	}
	if m.browser != nil {
		_ = m.browser.Close() // Ignore errors, continue cleanup
		m.browser = nil
	}
	m.tabs = nil

	if m.initialized && m.playwright != nil {
		if err := m.playwright.Stop(); err != nil {
			return fmt.Errorf("failed to stop playwright: %w", err)
		}
		m.initialized = false
	}

	debugLog.Infof("Browser shut down")
	return nil
}
