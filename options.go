package pollfsm

import (
	"github.com/armon/go-metrics"
	"go.uber.org/zap"
)

// Option applies configuration to Machine via functional options pattern.
type Option func(*Machine)

// WithInitialState sets the state entered by Start. Defaults to 0.
func WithInitialState(s StateID) Option {
	return func(m *Machine) {
		m.initial = s
	}
}

// WithStateNames names states by index for logs and exports.
func WithStateNames(names ...string) Option {
	return func(m *Machine) {
		m.names = append([]string(nil), names...)
	}
}

// WithQueueSize sets the EventQueue capacity.
func WithQueueSize(size int) Option {
	return func(m *Machine) {
		m.queueSize = size
	}
}

// WithStoppedPolicy selects how events are handled while stopped.
func WithStoppedPolicy(p StoppedPolicy) Option {
	return func(m *Machine) {
		m.stoppedPolicy = p
	}
}

// WithExitOnStop makes Stop fire the current state's exit action.
func WithExitOnStop(enabled bool) Option {
	return func(m *Machine) {
		m.exitOnStop = enabled
	}
}

// WithMaxChainedSteps bounds events injected from callbacks per ProcessEvent.
func WithMaxChainedSteps(n int) Option {
	return func(m *Machine) {
		if n > 0 {
			m.maxChain = n
		}
	}
}

// WithLogger sets the logger for the machine.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics reports event and transition counters to a go-metrics instance.
func WithMetrics(sink *metrics.Metrics) Option {
	return func(m *Machine) {
		m.metrics = sink
	}
}

// WithObserver sets a callback invoked after each completed transition.
func WithObserver(fn func(Transition)) Option {
	return func(m *Machine) {
		m.observer = fn
	}
}
