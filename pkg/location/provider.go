package location

// Subscription is a handle to an active fix stream.
type Subscription interface {
	// Unsubscribe stops fix delivery. It is idempotent: unsubscribing an
	// already-stopped subscription is a no-op, not an error.
	Unsubscribe()
}

// Watcher is a positioning source that streams fixes to a subscriber.
type Watcher interface {
	// Subscribe starts fix delivery. onFix is invoked for every fix the source
	// produces and onError for transient source errors; both are called from
	// the watcher's own goroutine. Delivery stops promptly after Unsubscribe.
	Subscribe(onFix func(Fix), onError func(error)) (Subscription, error)

	// IsEnabled reports whether the source is configured and usable.
	IsEnabled() bool

	// Source identifies the kind of source this watcher represents.
	Source() Source
}
