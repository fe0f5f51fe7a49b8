// Package arbiter races the device's positioning sources against a deadline
// and returns the single best fix for an on-demand position request.
package arbiter

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/waypost/waypost/pkg/access"
	"github.com/waypost/waypost/pkg/location"
)

var (
	// ErrPermissionDenied means the user has not allowed position access.
	ErrPermissionDenied = errors.New("position access permission denied")
	// ErrSourceUnavailable means no positioning source is enabled.
	ErrSourceUnavailable = errors.New("no positioning source is available")
	// ErrTimeout means the deadline passed without a single fix arriving.
	ErrTimeout = errors.New("no position fix arrived before the deadline")
)

// Config holds the arbitration parameters. All values must be positive.
type Config struct {
	// Deadline is the hard limit for the whole session.
	Deadline time.Duration
	// GraceDelay is how long the precise source runs alone before the
	// approximate source is also engaged.
	GraceDelay time.Duration
	// PreciseGoodAccuracy is the accuracy (meters, inclusive) at which a
	// precise fix resolves the session immediately.
	PreciseGoodAccuracy float64
	// ApproxAcceptableAccuracy is the accuracy (meters, inclusive) at which an
	// approximate fix resolves the session once the grace delay has elapsed.
	ApproxAcceptableAccuracy float64
}

// DefaultConfig returns the arbitration parameters the agent ships with.
func DefaultConfig() Config {
	return Config{
		Deadline:                 15 * time.Second,
		GraceDelay:               5 * time.Second,
		PreciseGoodAccuracy:      20,
		ApproxAcceptableAccuracy: 50,
	}
}

// Arbiter acquires a single position by racing a precise and an approximate
// source. It holds no per-request state: every Acquire call runs its own
// session, so concurrent calls do not interfere.
type Arbiter struct {
	precise location.Watcher
	approx  location.Watcher
	access  access.Controller
	cfg     Config
	logger  zerolog.Logger
}

// New creates an Arbiter over the given sources and permission gate.
func New(precise, approx location.Watcher, accessCtl access.Controller, cfg Config, logger zerolog.Logger) *Arbiter {
	return &Arbiter{
		precise: precise,
		approx:  approx,
		access:  accessCtl,
		cfg:     cfg,
		logger:  logger,
	}
}

// Acquire runs one arbitration session and returns the best fix.
//
// The precise source is subscribed immediately; the approximate source joins
// only after the grace delay, and only if the session is still unresolved. A
// precise fix at or under PreciseGoodAccuracy resolves at once. An approximate
// fix resolves only after the grace delay has elapsed and only at or under
// ApproxAcceptableAccuracy. At the deadline the best fix seen so far is
// returned, or ErrTimeout if none ever arrived. Failures are never retried
// here; retrying is the caller's decision.
func (a *Arbiter) Acquire(ctx context.Context) (location.Fix, error) {
	if !a.access.HasPermission() && !a.access.RequestPermission() {
		a.logger.Warn().Msg("Position acquisition rejected: permission denied")
		return location.Fix{}, ErrPermissionDenied
	}

	if !a.precise.IsEnabled() && !a.approx.IsEnabled() {
		a.logger.Warn().Msg("Position acquisition rejected: no source enabled")
		return location.Fix{}, ErrSourceUnavailable
	}

	id := uuid.NewString()
	s := &session{
		cfg:     a.cfg,
		precise: a.precise,
		approx:  a.approx,
		logger:  a.logger.With().Str("session_id", id).Logger(),
		events:  make(chan sourceEvent, 16),
	}
	return s.run(ctx)
}

// sourceEvent is a fix or error delivered by a source callback into the
// session's event loop.
type sourceEvent struct {
	fix   location.Fix
	err   error
	isFix bool
}

// session owns all mutable state of one arbitration. Source callbacks only
// funnel events into the events channel; the run loop is the sole goroutine
// that touches best-fix tracking and resolution, so none of it needs locking.
type session struct {
	cfg     Config
	precise location.Watcher
	approx  location.Watcher
	logger  zerolog.Logger

	events   chan sourceEvent
	resolved atomic.Bool
	subs     []location.Subscription

	best    location.Fix
	hasBest bool
}

func (s *session) run(ctx context.Context) (location.Fix, error) {
	started := time.Now()
	s.logger.Info().
		Dur("deadline", s.cfg.Deadline).
		Dur("grace_delay", s.cfg.GraceDelay).
		Msg("Starting position arbitration")

	s.subscribe(s.precise)
	if len(s.subs) == 0 && !s.approx.IsEnabled() {
		s.teardown()
		return location.Fix{}, ErrSourceUnavailable
	}

	graceTimer := time.NewTimer(s.cfg.GraceDelay)
	defer graceTimer.Stop()
	deadlineTimer := time.NewTimer(s.cfg.Deadline)
	defer deadlineTimer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.teardown()
			s.logger.Info().Msg("Position arbitration cancelled")
			return location.Fix{}, ctx.Err()

		case <-graceTimer.C:
			// The loop only reaches here while unresolved, which is exactly
			// the condition for the deferred approximate subscription.
			s.subscribe(s.approx)
			if len(s.subs) == 0 && !s.hasBest {
				s.teardown()
				s.logger.Warn().Msg("All positioning sources failed to subscribe")
				return location.Fix{}, ErrSourceUnavailable
			}

		case <-deadlineTimer.C:
			s.teardown()
			if s.hasBest {
				s.logger.Info().
					Stringer("source", s.best.Source).
					Float64("accuracy_m", s.best.Accuracy).
					Msg("Deadline reached, returning best fix seen")
				return s.best, nil
			}
			s.logger.Warn().Msg("Deadline reached with no fix")
			return location.Fix{}, ErrTimeout

		case ev := <-s.events:
			if !ev.isFix {
				s.logger.Warn().Err(ev.err).Msg("Positioning source error")
				continue
			}

			fix := ev.fix
			s.observe(fix)

			if fix.Source == location.SourcePrecise &&
				fix.HasAccuracy && fix.Accuracy <= s.cfg.PreciseGoodAccuracy {
				s.teardown()
				s.logger.Info().
					Float64("accuracy_m", fix.Accuracy).
					Msg("Precise fix good enough, resolving")
				return fix, nil
			}

			// An approximate fix that slips in before its scheduled
			// activation never resolves the session.
			if fix.Source == location.SourceApproximate &&
				time.Since(started) > s.cfg.GraceDelay &&
				fix.HasAccuracy && fix.Accuracy <= s.cfg.ApproxAcceptableAccuracy {
				s.teardown()
				s.logger.Info().
					Float64("accuracy_m", fix.Accuracy).
					Msg("Approximate fix acceptable, resolving")
				return fix, nil
			}
		}
	}
}

// observe updates the best-fix-so-far. A smaller known accuracy always wins;
// a fix without accuracy is strictly worse than any fix with one, but still
// seeds an empty best slot.
func (s *session) observe(fix location.Fix) {
	s.logger.Debug().
		Stringer("source", fix.Source).
		Float64("accuracy_m", fix.Accuracy).
		Bool("has_accuracy", fix.HasAccuracy).
		Msg("Fix received")

	if !s.hasBest {
		s.best = fix
		s.hasBest = true
		return
	}
	if !fix.HasAccuracy {
		return
	}
	if !s.best.HasAccuracy || fix.Accuracy < s.best.Accuracy {
		s.best = fix
	}
}

// subscribe attaches the session to a watcher if it is enabled. Subscribe
// failures are logged and tolerated; the deadline still bounds the session.
func (s *session) subscribe(w location.Watcher) {
	if !w.IsEnabled() {
		return
	}

	sub, err := w.Subscribe(s.onFix, s.onError)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("source", w.Source()).Msg("Failed to subscribe to positioning source")
		return
	}
	s.subs = append(s.subs, sub)
	s.logger.Debug().Stringer("source", w.Source()).Msg("Subscribed to positioning source")
}

// teardown marks the session resolved and stops all active subscriptions.
// Subscriptions are idempotent, so teardown may run on any resolution path.
func (s *session) teardown() {
	s.resolved.Store(true)
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *session) onFix(fix location.Fix) {
	if s.resolved.Load() {
		return
	}
	select {
	case s.events <- sourceEvent{fix: fix, isFix: true}:
	default:
		// Resolution is imminent when the buffer is full; dropping is safe
		// because nothing reads the channel after the loop returns.
	}
}

func (s *session) onError(err error) {
	if s.resolved.Load() {
		return
	}
	select {
	case s.events <- sourceEvent{err: err}:
	default:
	}
}
