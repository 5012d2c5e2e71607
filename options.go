package metascan

import "golang.org/x/time/rate"

type options struct {
	logger *Logger
	pacer  *rate.Limiter
}

// Option configures DB behavior.
type Option func(*options)

// WithLogger configures structured logging for query execution.
//
// If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithPacer throttles internal scan iterations with the given limiter.
//
// Since-scans and hash-bucket scans are filtered forward scans: a caller
// naming the full inode space can legally drive one call through an
// arbitrarily long key range. By default the engine accepts long
// single-threaded scans and runs each call to completion. Hosts that need
// preemption can install a pacer; the scan then waits on the limiter
// between index probes and surfaces the limiter's error (e.g. an expired
// context) alongside any partial result.
func WithPacer(l *rate.Limiter) Option {
	return func(o *options) {
		o.pacer = l
	}
}
