package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// ChromeOptions configures the browser allocation
type ChromeOptions struct {
	Headless     bool
	DisableGPU   bool
	NoSandbox    bool
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	// RemoteURL attaches to an already running browser (DevTools websocket URL)
	// instead of launching a local one
	RemoteURL string
	// ActionTimeout bounds every single browser round-trip; zero means no bound
	ActionTimeout time.Duration
}

// Chrome is a Session backed by chromedp. It implements CookieJar and Snapshotter.
type Chrome struct {
	ctx     context.Context
	cancels []context.CancelFunc
	opts    ChromeOptions
	logger  arbor.ILogger
	mu      sync.Mutex
	closed  bool
}

// NewChrome allocates a browser and opens a tab.
// The browser lives until Close; parent only provides values, its cancellation is not tracked.
func NewChrome(parent context.Context, opts ChromeOptions, logger arbor.ILogger) (*Chrome, error) {
	startTime := time.Now()
	base := context.WithoutCancel(parent)

	var allocCtx context.Context
	var cancelAlloc context.CancelFunc
	if opts.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(base, opts.RemoteURL)
	} else {
		allocatorOpts := append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", opts.DisableGPU),
			chromedp.Flag("no-sandbox", opts.NoSandbox),
		)
		if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
			allocatorOpts = append(allocatorOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
		}
		if opts.UserAgent != "" {
			allocatorOpts = append(allocatorOpts, chromedp.UserAgent(opts.UserAgent))
		}
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(base, allocatorOpts...)
	}

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// Start the browser now so allocation errors surface here rather than on the first step
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	logger.Info().
		Bool("headless", opts.Headless).
		Str("remote_url", opts.RemoteURL).
		Str("duration", time.Since(startTime).String()).
		Msg("Browser session started")

	return &Chrome{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelAlloc, cancelBrowser},
		opts:    opts,
		logger:  logger,
	}, nil
}

// Close shuts the tab and the browser down
func (c *Chrome) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	err := chromedp.Cancel(c.ctx)
	// Release in reverse order: tab first, allocator last
	for i := len(c.cancels) - 1; i >= 0; i-- {
		c.cancels[i]()
	}
	if err != nil {
		return fmt.Errorf("failed to close browser: %w", err)
	}
	return nil
}

// run executes actions on the tab, bounded by ctx and the action timeout
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()
	if c.opts.ActionTimeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, c.opts.ActionTimeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func queryOption(sel Selector) chromedp.QueryOption {
	if sel.Kind == KindXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQueryAll
}

func (c *Chrome) Visit(ctx context.Context, url string) error {
	if err := c.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var location string
	if err := c.run(ctx, chromedp.Location(&location)); err != nil {
		return "", fmt.Errorf("failed to read current url: %w", err)
	}
	return location, nil
}

func (c *Chrome) Find(ctx context.Context, sel Selector) (Element, error) {
	elements, err := c.FindAll(ctx, sel)
	if err != nil || len(elements) == 0 {
		return nil, err
	}
	return elements[0], nil
}

func (c *Chrome) FindAll(ctx context.Context, sel Selector) ([]Element, error) {
	var nodes []*cdp.Node
	if err := c.run(ctx, chromedp.Nodes(sel.Value, &nodes, queryOption(sel), chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", sel, err)
	}

	elements := make([]Element, 0, len(nodes))
	for _, node := range nodes {
		// performSearch also returns text and attribute nodes for some expressions
		if node.NodeType != cdp.NodeTypeElement {
			continue
		}
		elements = append(elements, &chromeElement{session: c, node: node})
	}
	return elements, nil
}

func (c *Chrome) Content(ctx context.Context) (string, error) {
	var html string
	if err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	return html, nil
}

func (c *Chrome) Execute(ctx context.Context, script string) error {
	if err := c.run(ctx, chromedp.Evaluate(script, nil)); err != nil {
		return fmt.Errorf("failed to execute script: %w", err)
	}
	return nil
}

func (c *Chrome) Evaluate(ctx context.Context, script string, res any) error {
	if err := c.run(ctx, chromedp.Evaluate(script, res)); err != nil {
		return fmt.Errorf("failed to evaluate script: %w", err)
	}
	return nil
}

func (c *Chrome) MaximizeWindow(ctx context.Context) error {
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(windowID, &browser.Bounds{WindowState: browser.WindowStateMaximized}).Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to maximize window: %w", err)
	}
	return nil
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := c.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	return buf, nil
}

// Cookies returns the cookies visible to the current page
func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		networkCookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for _, nc := range networkCookies {
			cookies = append(cookies, Cookie{
				Name:     nc.Name,
				Value:    nc.Value,
				Domain:   nc.Domain,
				Path:     nc.Path,
				Expires:  nc.Expires,
				HTTPOnly: nc.HTTPOnly,
				Secure:   nc.Secure,
				SameSite: nc.SameSite.String(),
			})
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	return cookies, nil
}

func (c *Chrome) SetCookie(ctx context.Context, cookie Cookie) error {
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := network.SetCookie(cookie.Name, cookie.Value).
			WithDomain(strings.TrimPrefix(cookie.Domain, ".")).
			WithPath(cookie.Path).
			WithSecure(cookie.Secure).
			WithHTTPOnly(cookie.HTTPOnly)

		switch strings.ToLower(cookie.SameSite) {
		case "strict":
			params = params.WithSameSite(network.CookieSameSiteStrict)
		case "lax":
			params = params.WithSameSite(network.CookieSameSiteLax)
		case "none":
			params = params.WithSameSite(network.CookieSameSiteNone)
		}

		// Only set expiration if it's in the future
		if cookie.Expires > 0 {
			expiresTime := time.Unix(int64(cookie.Expires), 0)
			if expiresTime.After(time.Now()) {
				timestamp := cdp.TimeSinceEpoch(expiresTime)
				params = params.WithExpires(&timestamp)
			}
		}

		return params.Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to set cookie %s: %w", cookie.Name, err)
	}
	return nil
}

func (c *Chrome) DeleteAllCookies(ctx context.Context) error {
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.ClearBrowserCookies().Do(ctx)
	}))
	if err != nil {
		return fmt.Errorf("failed to delete cookies: %w", err)
	}
	return nil
}
