package internal

import "time"

// FnModeOptions carries process-wide run modes down to device constructors
type FnModeOptions struct {
	Debug   bool
	Test    bool
	Timeout time.Duration
}

type FnModeOption func(*FnModeOptions)

func WithDebug(debug bool) FnModeOption {
	return func(opts *FnModeOptions) {
		opts.Debug = debug
	}
}

// WithTest swaps real network transports for a simulated television
func WithTest(test bool) FnModeOption {
	return func(opts *FnModeOptions) {
		opts.Test = test
	}
}

func WithTimeout(timeout time.Duration) FnModeOption {
	return func(opts *FnModeOptions) {
		opts.Timeout = timeout
	}
}

func NewModeOptions(options ...FnModeOption) *FnModeOptions {
	opts := &FnModeOptions{}
	for _, option := range options {
		option(opts)
	}
	return opts
}
