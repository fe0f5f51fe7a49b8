package location

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"googlemaps.github.io/maps"
)

// geolocateTimeout bounds a single Geolocation API round trip.
const geolocateTimeout = 10 * time.Second

// NetworkGeolocationWatcher streams position fixes from the Google Maps
// Geolocation API. It is the approximate source: nearby WiFi access points and
// cell towers are scanned locally and resolved to a coordinate by the API at a
// fixed poll interval.
type NetworkGeolocationWatcher struct {
	client       *maps.Client
	pollInterval time.Duration
	modemIndex   int
	logger       zerolog.Logger
}

// NewNetworkGeolocationWatcher creates a watcher backed by the Geolocation
// API. An empty API key leaves the watcher disabled rather than failing, so a
// GPS-only deployment needs no key.
func NewNetworkGeolocationWatcher(apiKey string, pollInterval time.Duration, modemIndex int, logger zerolog.Logger) (*NetworkGeolocationWatcher, error) {
	w := &NetworkGeolocationWatcher{
		pollInterval: pollInterval,
		modemIndex:   modemIndex,
		logger:       logger,
	}
	if apiKey == "" {
		return w, nil
	}

	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	w.client = c
	return w, nil
}

// IsEnabled reports whether an API client is configured.
func (n *NetworkGeolocationWatcher) IsEnabled() bool {
	return n.client != nil
}

// Source returns SourceApproximate.
func (n *NetworkGeolocationWatcher) Source() Source {
	return SourceApproximate
}

// Subscribe starts a polling goroutine that resolves the device's position
// once immediately and then at every poll interval until cancelled.
func (n *NetworkGeolocationWatcher) Subscribe(onFix func(Fix), onError func(error)) (Subscription, error) {
	if n.client == nil {
		return nil, ErrWatcherDisabled
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &networkSubscription{cancel: cancel}

	go func() {
		n.poll(ctx, onFix, onError)

		ticker := time.NewTicker(n.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				n.poll(ctx, onFix, onError)
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub, nil
}

// poll performs one geolocation round trip and delivers the result.
func (n *NetworkGeolocationWatcher) poll(ctx context.Context, onFix func(Fix), onError func(error)) {
	reqCtx, cancel := context.WithTimeout(ctx, geolocateTimeout)
	defer cancel()

	// Radio scans are best effort: the API can still resolve a coarse
	// position from the caller's IP when neither scan yields anything.
	wifiAPs := scanWiFiAccessPoints(reqCtx, n.logger)
	cellTowers := scanCellTowers(reqCtx, n.modemIndex, n.logger)

	req := &maps.GeolocationRequest{
		ConsiderIP:       true,
		WiFiAccessPoints: wifiAPs,
		CellTowers:       cellTowers,
	}

	resp, err := n.client.Geolocate(reqCtx, req)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		n.logger.Error().Err(err).Msg("Network geolocation request failed")
		onError(err)
		return
	}

	fix := Fix{
		Latitude:   resp.Location.Lat,
		Longitude:  resp.Location.Lng,
		Source:     SourceApproximate,
		CapturedAt: time.Now().UTC(),
	}
	if resp.Accuracy > 0 {
		fix.Accuracy = resp.Accuracy
		fix.HasAccuracy = true
	}

	if ctx.Err() != nil {
		return
	}
	onFix(fix)
}

// networkSubscription cancels the polling goroutine.
type networkSubscription struct {
	cancel context.CancelFunc
	once   sync.Once
}

func (s *networkSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
