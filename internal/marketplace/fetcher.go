package marketplace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"
)

// ChartScriptXPath selects the inline script holding an item's chart data
const ChartScriptXPath = `//script[contains(text(), 'var data = ')]`

var (
	// ErrChartNotFound is returned when an item page shows no chart script in time
	ErrChartNotFound = errors.New("chart script not found")
	// ErrSessionNotCreated is returned when the browser session cannot be started
	ErrSessionNotCreated = errors.New("browser session not created")
)

// Fetcher returns the chart script of an item page
type Fetcher interface {
	FetchItemScript(ctx context.Context, sku string) (string, error)
}

// Options configures the browser fetcher
type Options struct {
	Domain            string        // Marketplace host, e.g. "marketplace.tf"
	CookieName        string        // Session cookie name
	Cookie            string        // Session cookie value
	ChromePath        string        // Optional browser executable
	Headless          bool          // Run without a window
	PageWait          time.Duration // How long to wait for the chart script
	RequestsPerSecond float64       // Page loads per second across all workers
	Burst             int
}

// DefaultOptions returns the fetcher defaults
func DefaultOptions() Options {
	return Options{
		CookieName:        "mptf",
		Headless:          true,
		PageWait:          2 * time.Second,
		RequestsPerSecond: 1,
		Burst:             1,
	}
}

// Validate checks the options
func (o Options) Validate() error {
	if strings.TrimSpace(o.Domain) == "" {
		return errors.New("marketplace domain is required")
	}
	if strings.Contains(o.Domain, "/") {
		return fmt.Errorf("marketplace domain %q must be a bare host", o.Domain)
	}
	if o.PageWait <= 0 {
		return fmt.Errorf("page wait must be positive, got %s", o.PageWait)
	}
	if o.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive, got %v", o.RequestsPerSecond)
	}
	return nil
}

// BaseURL returns the marketplace home page
func BaseURL(domain string) string {
	return "https://" + domain + "/"
}

// ItemURL returns the chart page of an item. SKUs keep their ";" separators.
func ItemURL(domain, sku string) string {
	return "https://" + domain + "/items/tf2/" + sku
}

// CookieDomain returns the domain the session cookie is scoped to, covering subdomains
func CookieDomain(domain string) string {
	return "." + strings.TrimPrefix(domain, ".")
}

// ChromeFetcher loads item pages in a shared headless browser. Each fetch
// opens its own tab so workers can fetch concurrently; the limiter paces page
// loads across all of them.
type ChromeFetcher struct {
	opts    Options
	limiter *rate.Limiter
	logger  *slog.Logger

	mu            sync.Mutex
	browserCtx    context.Context
	cancelBrowser context.CancelFunc
	cancelAlloc   context.CancelFunc
}

// NewChromeFetcher starts the browser and opens an authenticated session
func NewChromeFetcher(ctx context.Context, opts Options, logger *slog.Logger) (*ChromeFetcher, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	f := &ChromeFetcher{
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst),
		logger:  logger.With(slog.String("component", "chrome_fetcher")),
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	f.browserCtx, f.cancelBrowser, f.cancelAlloc = browserCtx, cancelBrowser, cancelAlloc

	start := time.Now()
	if err := chromedp.Run(browserCtx, sessionTasks(opts)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrSessionNotCreated, err)
	}

	f.logger.InfoContext(ctx, "Browser session ready",
		slog.String("domain", opts.Domain),
		slog.Bool("headless", opts.Headless),
		slog.Bool("cookie_set", opts.Cookie != ""),
		slog.Duration("duration", time.Since(start)),
	)
	return f, nil
}

// FetchItemScript loads the item page and returns the chart script. A page
// without the script within PageWait yields ErrChartNotFound.
func (f *ChromeFetcher) FetchItemScript(ctx context.Context, sku string) (string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return "", err
	}

	f.mu.Lock()
	browserCtx := f.browserCtx
	f.mu.Unlock()
	if browserCtx == nil {
		return "", errors.New("fetcher is closed")
	}

	tabCtx, cancelTab := chromedp.NewContext(browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	url := ItemURL(f.opts.Domain, sku)
	start := time.Now()
	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("navigate to %s: %w", url, err)
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, f.opts.PageWait)
	defer cancelWait()

	var script string
	err := chromedp.Run(waitCtx, chromedp.InnerHTML(ChartScriptXPath, &script, chromedp.BySearch))
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, context.DeadlineExceeded) || waitCtx.Err() != nil:
		return "", fmt.Errorf("%s after %s: %w", sku, f.opts.PageWait, ErrChartNotFound)
	default:
		return "", fmt.Errorf("read chart script of %s: %w", sku, err)
	}

	f.logger.DebugContext(ctx, "Item page fetched",
		slog.String("sku", sku),
		slog.Int("script_bytes", len(script)),
		slog.Duration("duration", time.Since(start)),
	)
	return script, nil
}

// Close shuts the browser down
func (f *ChromeFetcher) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelBrowser != nil {
		f.cancelBrowser()
	}
	if f.cancelAlloc != nil {
		f.cancelAlloc()
	}
	f.browserCtx, f.cancelBrowser, f.cancelAlloc = nil, nil, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	options := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	options = append(options,
		chromedp.Flag("headless", opts.Headless),
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.ChromePath != "" {
		options = append(options, chromedp.ExecPath(opts.ChromePath))
	}
	return options
}

// sessionTasks opens the home page, sets the session cookie and reloads so
// the cookie is in effect for every following page load
func sessionTasks(opts Options) chromedp.Tasks {
	tasks := chromedp.Tasks{chromedp.Navigate(BaseURL(opts.Domain))}
	if opts.Cookie == "" {
		return tasks
	}
	return append(tasks,
		chromedp.ActionFunc(func(ctx context.Context) error {
			return sessionCookie(opts).Do(ctx)
		}),
		chromedp.Reload(),
	)
}

func sessionCookie(opts Options) *network.SetCookieParams {
	return network.SetCookie(opts.CookieName, opts.Cookie).
		WithDomain(CookieDomain(opts.Domain)).
		WithPath("/").
		WithSecure(true)
}
