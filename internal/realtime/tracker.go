package realtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/mideind/straeto/internal/logging"
)

const DefaultInterval = 60 * time.Second

type Config struct {
	VehiclePositionsURL string
	AuthHeaderKey       string
	AuthHeaderValue     string
	Interval            time.Duration
	// OnUpdate, if set, receives the vehicle count after each successful fetch.
	OnUpdate func(vehicles int)
}

func (c Config) Enabled() bool {
	return c.VehiclePositionsURL != ""
}

// Tracker polls a vehicle positions feed and keeps the latest result.
type Tracker struct {
	config Config
	client *http.Client
	logger *slog.Logger

	mu        sync.RWMutex
	vehicles  []Vehicle
	updatedAt time.Time

	shutdownChan chan struct{}
	wg           sync.WaitGroup
	startOnce    sync.Once
	shutdownOnce sync.Once
}

func NewTracker(config Config, client *http.Client, logger *slog.Logger) *Tracker {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		config:       config,
		client:       client,
		logger:       logger.With(slog.String("component", "realtime_tracker")),
		shutdownChan: make(chan struct{}),
	}
}

// Vehicles returns the vehicles of the latest successful fetch.
func (t *Tracker) Vehicles() []Vehicle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]Vehicle(nil), t.vehicles...)
}

// OnRoute returns the vehicles currently running a trip of routeID.
func (t *Tracker) OnRoute(routeID string) []Vehicle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Vehicle
	for _, v := range t.vehicles {
		if v.RouteID == routeID {
			out = append(out, v)
		}
	}
	return out
}

func (t *Tracker) UpdatedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.updatedAt
}

// Refresh fetches the feed once. On failure the previous vehicles are kept.
func (t *Tracker) Refresh(ctx context.Context) error {
	b, err := t.fetch(ctx)
	if err != nil {
		return err
	}
	now := time.Now()
	vehicles, err := Decode(b, now)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.vehicles = vehicles
	t.updatedAt = now
	t.mu.Unlock()

	logging.LogOperation(t.logger, "vehicle_positions_updated",
		slog.Int("vehicles", len(vehicles)))
	if t.config.OnUpdate != nil {
		t.config.OnUpdate(len(vehicles))
	}
	return nil
}

func (t *Tracker) fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.config.VehiclePositionsURL, nil)
	if err != nil {
		return nil, err
	}
	if t.config.AuthHeaderKey != "" && t.config.AuthHeaderValue != "" {
		req.Header.Add(t.config.AuthHeaderKey, t.config.AuthHeaderValue)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching vehicle positions: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, t.logger, "http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching vehicle positions: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Start fetches once and then polls every interval until Shutdown.
func (t *Tracker) Start() {
	t.startOnce.Do(func() {
		t.wg.Add(1)
		go t.run()
	})
}

func (t *Tracker) run() {
	defer t.wg.Done()

	t.refreshWithTimeout()

	ticker := time.NewTicker(t.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.refreshWithTimeout()
		case <-t.shutdownChan:
			logging.LogOperation(t.logger, "shutting_down_realtime_updates")
			return
		}
	}
}

func (t *Tracker) refreshWithTimeout() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	ctx = logging.WithLogger(ctx, t.logger)

	if err := t.Refresh(ctx); err != nil {
		logging.LogError(t.logger, "Error loading GTFS-RT vehicle positions", err,
			slog.String("url", t.config.VehiclePositionsURL))
	}
}

// Shutdown stops polling and waits for the poller to exit.
func (t *Tracker) Shutdown() {
	t.shutdownOnce.Do(func() {
		close(t.shutdownChan)
		t.wg.Wait()
	})
}
