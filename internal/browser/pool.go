// Package browser manages a bounded pool of headless Chromium instances.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("browser pool is closed")

// Handle is a checked-out browser tab context. It is owned exclusively by
// the holder until returned with Release.
type Handle struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the chromedp context for driving this browser.
func (h *Handle) Context() context.Context {
	return h.ctx
}

// Pool maintains a fixed set of browser instances behind a counting gate.
// All instances launch together on the first Acquire to amortize startup
// cost. No ordering guarantee is made among blocked acquirers.
type Pool struct {
	size         int
	chromiumPath string
	userAgent    string
	logger       *zap.Logger

	allocator   context.Context
	allocCancel context.CancelFunc

	handles chan *Handle

	launchOnce sync.Once
	launchErr  error

	closeOnce sync.Once
	closed    chan struct{}
}

// NewPool creates a pool of size browser instances. Browsers are not
// launched until the first Acquire.
func NewPool(size int, chromiumPath, userAgent string, logger *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{
		size:         size,
		chromiumPath: chromiumPath,
		userAgent:    userAgent,
		logger:       logger,
		handles:      make(chan *Handle, size),
		closed:       make(chan struct{}),
	}
}

// launch starts the allocator and all browser instances.
func (p *Pool) launch() {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-backgrounding-occluded-windows", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(p.userAgent),
	)
	if p.chromiumPath != "" {
		opts = append(opts, chromedp.ExecPath(p.chromiumPath))
	}

	p.allocator, p.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)

	for i := 0; i < p.size; i++ {
		ctx, cancel := chromedp.NewContext(p.allocator)

		// An empty run forces the browser process to start now rather than
		// on the first navigation.
		if err := chromedp.Run(ctx); err != nil {
			cancel()
			p.launchErr = fmt.Errorf("failed to launch browser %d/%d: %w", i+1, p.size, err)
			p.logger.Error("browser launch failed", zap.Int("instance", i+1), zap.Error(err))
			p.drainAndCancel()
			p.allocCancel()
			return
		}

		p.handles <- &Handle{ctx: ctx, cancel: cancel}
		p.logger.Debug("browser launched", zap.Int("instance", i+1), zap.Int("pool_size", p.size))
	}
}

// Acquire blocks until a browser instance is free or ctx is done. The
// caller must guarantee Release on every exit path.
func (p *Pool) Acquire(ctx context.Context) (*Handle, error) {
	select {
	case <-p.closed:
		return nil, ErrPoolClosed
	default:
	}

	p.launchOnce.Do(p.launch)
	if p.launchErr != nil {
		return nil, p.launchErr
	}

	select {
	case h := <-p.handles:
		return h, nil
	case <-p.closed:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a handle to the pool. Releasing into a closed pool
// terminates the instance instead.
func (p *Pool) Release(h *Handle) {
	if h == nil {
		return
	}
	select {
	case <-p.closed:
		h.cancel()
	default:
		select {
		case p.handles <- h:
		default:
			// Double release; drop the handle rather than block.
			h.cancel()
		}
	}
}

// Close terminates every browser instance. Safe to call more than once.
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.drainAndCancel()
		if p.allocCancel != nil {
			p.allocCancel()
		}
		p.logger.Debug("browser pool closed")
	})
	return nil
}

// drainAndCancel cancels every idle handle currently in the channel.
func (p *Pool) drainAndCancel() {
	for {
		select {
		case h := <-p.handles:
			h.cancel()
		default:
			return
		}
	}
}
