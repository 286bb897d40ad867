package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mideind/straeto/internal/logging"
)

const (
	DefaultRefreshInterval = 24 * time.Hour
	DefaultRetryDelay      = 5 * time.Second
	DefaultMaxRetryDelay   = 5 * time.Minute
)

type RefresherConfig struct {
	// Source is a file path or an http(s) URL of a zipped feed.
	Source string
	// CachePath, when set, keeps a copy of the last downloaded feed that is
	// used when the source cannot be fetched.
	CachePath string
	Interval  time.Duration
	Timeout   time.Duration
	// RetryDelay is the first wait between attempts while no feed has been
	// loaded. It doubles after each failure up to MaxRetryDelay.
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// Refresher loads the feed into an engine and keeps it fresh.
type Refresher struct {
	engine      *Engine
	config      RefresherConfig
	isLocalFile bool
	client      *http.Client
	logger      *slog.Logger

	mu         sync.Mutex
	lastLoaded time.Time

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	startOnce    sync.Once
	shutdownOnce sync.Once
}

func NewRefresher(e *Engine, config RefresherConfig, client *http.Client) *Refresher {
	if config.Interval <= 0 {
		config.Interval = DefaultRefreshInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = DefaultRetryDelay
	}
	if config.MaxRetryDelay <= 0 {
		config.MaxRetryDelay = DefaultMaxRetryDelay
	}
	config.MaxRetryDelay = max(min(config.MaxRetryDelay, config.Interval), config.RetryDelay)
	if client == nil {
		client = http.DefaultClient
	}
	return &Refresher{
		engine:       e,
		config:       config,
		isLocalFile:  !strings.HasPrefix(config.Source, "http://") && !strings.HasPrefix(config.Source, "https://"),
		client:       client,
		logger:       e.logger.With(slog.String("component", "feed_refresher")),
		shutdownChan: make(chan struct{}),
	}
}

// LastLoaded is when a snapshot was last installed by this refresher.
func (r *Refresher) LastLoaded() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastLoaded
}

// Refresh fetches the feed and reloads the engine.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshLocked(ctx)
}

// RefreshIfOlderThan refreshes only when the last load is older than
// maxAge. It reports whether a reload happened.
func (r *Refresher) RefreshIfOlderThan(ctx context.Context, maxAge time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lastLoaded.IsZero() && r.engine.clock().Sub(r.lastLoaded) < maxAge {
		return false, nil
	}
	if err := r.refreshLocked(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Refresher) refreshLocked(ctx context.Context) error {
	b, source, err := r.fetch(ctx)
	if err != nil {
		return err
	}
	if err := r.engine.ReloadSource(ctx, b, source); err != nil {
		return err
	}
	r.lastLoaded = r.engine.clock()
	return nil
}

func (r *Refresher) fetch(ctx context.Context) ([]byte, string, error) {
	if r.isLocalFile {
		b, err := os.ReadFile(r.config.Source)
		if err != nil {
			return nil, "", fmt.Errorf("error reading local feed file: %w", err)
		}
		return b, r.config.Source, nil
	}

	b, err := r.download(ctx)
	if err == nil {
		r.writeCache(b)
		return b, r.config.Source, nil
	}
	if r.config.CachePath == "" {
		return nil, "", err
	}
	cached, cacheErr := os.ReadFile(r.config.CachePath)
	if cacheErr != nil {
		return nil, "", errors.Join(err, fmt.Errorf("reading feed cache: %w", cacheErr))
	}
	logging.LogError(r.logger, "feed download failed, using cached copy", err,
		slog.String("cache", r.config.CachePath))
	return cached, r.config.CachePath, nil
}

func (r *Refresher) download(ctx context.Context) (_ []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.Source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error downloading feed: %w", err)
	}
	defer logging.HandleDeferredError(&err, resp.Body.Close, r.logger, "close_feed_response")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("error downloading feed: unexpected status %d", resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading feed: %w", err)
	}
	return b, nil
}

// writeCache replaces the cache file through a rename so a reader never
// sees a partial copy.
func (r *Refresher) writeCache(b []byte) {
	if r.config.CachePath == "" {
		return
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.config.CachePath), ".feed-*.zip")
	if err != nil {
		logging.LogError(r.logger, "failed to create feed cache", err)
		return
	}
	_, werr := tmp.Write(b)
	cerr := tmp.Close()
	if err = errors.Join(werr, cerr); err == nil {
		err = os.Rename(tmp.Name(), r.config.CachePath)
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		logging.LogError(r.logger, "failed to write feed cache", err,
			slog.String("cache", r.config.CachePath))
	}
}

// Start reloads the feed every interval until Shutdown. Until a first load
// succeeds it retries with a growing delay instead. A local file is not
// polled once it has loaded.
func (r *Refresher) Start() {
	r.startOnce.Do(func() {
		if r.isLocalFile && !r.LastLoaded().IsZero() {
			logging.LogOperation(r.logger, "feed_source_is_local_file_skipping_periodic_updates",
				slog.String("source", r.config.Source))
			return
		}
		r.wg.Add(1)
		go r.run()
	})
}

func (r *Refresher) run() {
	defer r.wg.Done()

	if r.LastLoaded().IsZero() && !r.retryUntilLoaded() {
		return
	}
	if r.isLocalFile {
		return
	}

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.LogOperation(r.logger, "updating_feed")
			if err := r.refreshWithTimeout(); err != nil {
				logging.LogError(r.logger, "error updating feed", err,
					slog.String("source", r.config.Source))
			}
		case <-r.shutdownChan:
			logging.LogOperation(r.logger, "shutting_down_feed_updates")
			return
		}
	}
}

// retryUntilLoaded tries at once and then with exponential backoff until a
// feed is installed. It returns false when shut down first.
func (r *Refresher) retryUntilLoaded() bool {
	delay := r.config.RetryDelay
	for {
		err := r.refreshWithTimeout()
		if err == nil {
			return true
		}
		logging.LogError(r.logger, "feed not loaded yet, retrying", err,
			slog.String("source", r.config.Source),
			slog.Duration("retry_in", delay))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-r.shutdownChan:
			timer.Stop()
			logging.LogOperation(r.logger, "shutting_down_feed_updates")
			return false
		}
		delay = min(delay*2, r.config.MaxRetryDelay)
	}
}

func (r *Refresher) refreshWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()
	return r.Refresh(logging.WithLogger(ctx, r.logger))
}

func (r *Refresher) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.shutdownChan)
		r.wg.Wait()
	})
}
