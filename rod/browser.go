package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/mangadl"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxTabs is the number of tabs a Chrome process serves before a
// fresh one takes over.
const DefaultMaxTabs = 100

// Browser leases tabs of a headless Chrome to concurrent fetches. Chrome
// grows with every tab it renders, so after maxTabs tabs new leases go to a
// freshly launched process. The old process is retired and killed once its
// last tab is released, so fetches in flight are never cut off.
type Browser struct {
	bin     string
	maxTabs int

	mu      sync.Mutex
	current *chrome
	closed  bool
}

// chrome is one launched Chrome process and its tab accounting.
type chrome struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	leased   int
	open     int
	retired  bool
}

// BrowserOption configures a Browser.
type BrowserOption func(*Browser)

// WithMaxTabs sets how many tabs one Chrome process serves.
func WithMaxTabs(n int) BrowserOption {
	return func(b *Browser) {
		b.maxTabs = n
	}
}

// WithBin runs the Chrome binary at path instead of the one the launcher
// finds or downloads.
func WithBin(path string) BrowserOption {
	return func(b *Browser) {
		b.bin = path
	}
}

// Launch starts headless Chrome. Close must be called to kill it.
func Launch(opts ...BrowserOption) (*Browser, error) {
	b := &Browser{maxTabs: DefaultMaxTabs}
	for _, opt := range opts {
		opt(b)
	}

	c, err := launch(b.bin)
	if err != nil {
		return nil, err
	}
	b.current = c
	return b, nil
}

// Tab opens a blank tab. The returned release func closes the tab and must
// be called exactly once; further calls are no-ops.
func (b *Browser) Tab() (*rod.Page, func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, nil, mangadl.Errorf(mangadl.EUNAVAILABLE, "browser closed")
	}
	if b.current.leased >= b.maxTabs {
		// Keep serving from the old process if a new one cannot start.
		if next, err := launch(b.bin); err == nil {
			b.current.retire()
			b.current = next
		}
	}

	c := b.current
	page, err := c.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, nil, mangadl.Errorf(mangadl.EUNAVAILABLE, "browser: %v", err)
	}
	c.leased++
	c.open++

	var once sync.Once
	release := func() {
		once.Do(func() {
			_ = page.Close()
			b.release(c)
		})
	}
	return page, release, nil
}

func (b *Browser) release(c *chrome) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c.open--
	if c.retired && c.open == 0 {
		_ = c.kill()
	}
}

// Close kills Chrome. Tabs still leased stop working. Close is safe to call
// more than once.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.current.kill()
}

func launch(bin string) (*chrome, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Leakless(true).
		Headless(true)
	if bin != "" {
		l = l.Bin(bin)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chrome: %w", err)
	}
	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to chrome: %w", err)
	}
	return &chrome{browser: browser, launcher: l}, nil
}

// retire stops new leases; the process dies with its last open tab.
func (c *chrome) retire() {
	c.retired = true
	if c.open == 0 {
		_ = c.kill()
	}
}

func (c *chrome) kill() error {
	err := c.browser.Close()
	c.launcher.Kill()
	return err
}
