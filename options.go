// Copyright 2025 Joseph Cumines
//
// Permission to use, copy, modify, and distribute this software for any
// purpose with or without fee is hereby granted, provided that this copyright
// notice appears in all copies.

package lwp

// runtimeOptions holds configuration resolved from a caller's Option list
// before a Runtime is built in Start.
type runtimeOptions struct {
	scheduler Scheduler
	logger    Logger
	metrics   *Metrics
	stackSize int
}

// Option configures a Runtime at Start.
type Option interface {
	applyRuntime(*runtimeOptions) error
}

// optionImpl implements Option.
type optionImpl struct {
	applyFunc func(*runtimeOptions) error
}

func (o *optionImpl) applyRuntime(opts *runtimeOptions) error {
	return o.applyFunc(opts)
}

// WithScheduler installs s as the initial Scheduler, in place of the
// built-in round-robin default.
func WithScheduler(s Scheduler) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if s == nil {
			return ConfigError("scheduler", "must not be nil")
		}
		opts.scheduler = s
		return nil
	}}
}

// WithLogger installs a structured Logger. The default is a no-op logger.
func WithLogger(l Logger) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if l == nil {
			return ConfigError("logger", "must not be nil")
		}
		opts.logger = l
		return nil
	}}
}

// WithStackSize sets the default per-thread stack size used by Create,
// rounded up to the page size. A value <= 0 restores defaultStackSize.
func WithStackSize(bytes int) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		opts.stackSize = bytes
		return nil
	}}
}

// WithMetricsEnabled turns on P²-quantile switch-latency, switch-rate and
// exit-count tracking. Disabled by default; enabling it adds a small amount
// of bookkeeping to every switchAway call.
func WithMetricsEnabled(enabled bool) Option {
	return &optionImpl{func(opts *runtimeOptions) error {
		if enabled {
			opts.metrics = newMetrics()
		} else {
			opts.metrics = disabledMetrics()
		}
		return nil
	}}
}

// resolveOptions applies Option instances over sane defaults.
func resolveOptions(opts []Option) *runtimeOptions {
	cfg := &runtimeOptions{
		scheduler: NewRoundRobin(),
		logger:    NopLogger(),
		metrics:   disabledMetrics(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt.applyRuntime(cfg); err != nil {
			// Option constructors validate eagerly; a failure here means a
			// caller built an Option by hand incorrectly. Falling back to
			// the default for that field keeps Start total rather than
			// adding an error return this library's original API (a
			// simple lwp_start(fn, arg)) never had.
			continue
		}
	}
	return cfg
}
