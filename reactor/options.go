package reactor

import "github.com/lam2003/netreactor/internal/xlog"

// config holds the resolved configuration for a Reactor, built from a
// slice of Option values.
//
// Mirrors the teacher's loopOptions/LoopOption/resolveLoopOptions trio
// (_teacher_ref/options.go): a private config struct, a public functional
// option interface, and a resolver that starts from defaults and applies
// each option in order, skipping nils gracefully.
type config struct {
	maxEvents  int
	logger     xlog.Logger
	queueName  string
}

// Option configures a Reactor at construction time.
type Option interface {
	apply(*config)
}

type optionFunc func(*config)

func (f optionFunc) apply(c *config) { f(c) }

// WithMaxEvents overrides the epoll_wait event buffer size (default 256).
func WithMaxEvents(n int) Option {
	return optionFunc(func(c *config) {
		if n > 0 {
			c.maxEvents = n
		}
	})
}

// WithLogger overrides the Reactor's logger (default xlog.Default()).
func WithLogger(l xlog.Logger) Option {
	return optionFunc(func(c *config) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithName tags the Reactor for log lines and diagnostics.
func WithName(name string) Option {
	return optionFunc(func(c *config) {
		c.queueName = name
	})
}

func resolveOptions(opts []Option) *config {
	c := &config{
		maxEvents: 256,
		logger:    xlog.Default(),
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(c)
	}
	return c
}
