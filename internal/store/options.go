package store

import "time"

// Clock returns the current time.
type Clock func() time.Time

type options struct {
	now      Clock
	generate TrackingGenerator
}

// Option customizes a repository.
type Option func(*options)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now Clock) Option {
	return func(o *options) { o.now = now }
}

// WithTrackingGenerator replaces the random tracking number source.
func WithTrackingGenerator(generate TrackingGenerator) Option {
	return func(o *options) { o.generate = generate }
}

func newOptions(opts []Option) options {
	o := options{now: time.Now, generate: RandomTrackingNumber}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const timestampStep = time.Millisecond

func (o options) timestamp() time.Time {
	return o.now().UTC().Truncate(time.Millisecond)
}
