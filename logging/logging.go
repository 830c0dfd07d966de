// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package logging provides the trace plumbing shared by all capauth packages:
// a single verbosity level, an hclog logger honoring it, and listeners which
// receive every emitted message.
//
// The process wide Tracer returned by Default may be re-leveled at any time
// with SetLevel; SetLevel is safe for concurrent use and the new level is
// propagated to the logger and every registered Listener before it returns.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-hclog"
)

// DefaultName is the name of the root logger.
const DefaultName = "capauth"

// Listener receives emitted messages and level changes.
type Listener interface {
	// Log is called for every message allowed by the current level.
	Log(level Level, name, msg string, args ...interface{})

	// LevelChanged is called when the listener is registered and every time
	// the level changes afterwards.
	LevelChanged(level Level)
}

// ListenerFunc adapts a function into a Listener which ignores level changes.
type ListenerFunc func(level Level, name, msg string, args ...interface{})

// Log implements Listener.
func (f ListenerFunc) Log(level Level, name, msg string, args ...interface{}) {
	f(level, name, msg, args...)
}

// LevelChanged implements Listener.
func (f ListenerFunc) LevelChanged(Level) {}

// Tracer owns a verbosity level, an hclog.InterceptLogger and the set of
// registered listeners.
type Tracer struct {
	level  atomic.Int32
	logger hclog.InterceptLogger

	mu    sync.Mutex
	sinks []*listenerSink
}

// New creates a Tracer.
//
// Supported options:
//   - WithLevel
//   - WithOutput
//   - WithName
func New(opt ...Option) *Tracer {
	opts := getTracerOpts(opt...)
	t := &Tracer{}
	t.level.Store(int32(opts.withLevel))
	t.logger = hclog.NewInterceptLogger(&hclog.LoggerOptions{
		Name:   opts.withName,
		Level:  opts.withLevel.hclogLevel(),
		Output: opts.withOutput,
	})
	return t
}

// Logger returns the root logger.  Sub-loggers created with Named or With
// share the level and the listeners of the Tracer.
func (t *Tracer) Logger() hclog.Logger {
	return t.logger
}

// Level returns the current level.
func (t *Tracer) Level() Level {
	return Level(t.level.Load())
}

// SetLevel changes the level and propagates it to the logger and listeners.
func (t *Tracer) SetLevel(l Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.level.Store(int32(l))
	t.logger.SetLevel(l.hclogLevel())
	for _, s := range t.sinks {
		s.listener.LevelChanged(l)
	}
}

// RegisterListener adds a listener.  The returned func unregisters it.
func (t *Tracer) RegisterListener(l Listener) (func(), error) {
	const op = "Tracer.RegisterListener"
	if l == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNilListener)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	s := &listenerSink{tracer: t, listener: l}
	t.sinks = append(t.sinks, s)
	t.logger.RegisterSink(s)
	l.LevelChanged(t.Level())
	return func() { t.unregister(s) }, nil
}

func (t *Tracer) unregister(s *listenerSink) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, existing := range t.sinks {
		if existing == s {
			t.logger.DeregisterSink(s)
			t.sinks = append(t.sinks[:i], t.sinks[i+1:]...)
			return
		}
	}
}

// listenerSink adapts a Listener to an hclog.SinkAdapter.
type listenerSink struct {
	tracer   *Tracer
	listener Listener
}

func (s *listenerSink) Accept(name string, level hclog.Level, msg string, args ...interface{}) {
	l := fromHclog(level)
	if !s.tracer.Level().Allows(l) {
		return
	}
	s.listener.Log(l, name, msg, args...)
}

var (
	defaultOnce   sync.Once
	defaultTracer *Tracer
)

// Default returns the process wide Tracer.  It starts at the Warning level
// writing to stderr.
func Default() *Tracer {
	defaultOnce.Do(func() {
		defaultTracer = New()
	})
	return defaultTracer
}

// SetLevel sets the level of the process wide Tracer.
func SetLevel(l Level) {
	Default().SetLevel(l)
}

// Named returns a sub-logger of the process wide Tracer.
func Named(name string) hclog.Logger {
	return Default().Logger().Named(name)
}

// tracerOptions is the set of available options for New.
type tracerOptions struct {
	withLevel  Level
	withOutput io.Writer
	withName   string
}

func tracerDefaults() tracerOptions {
	return tracerOptions{
		withLevel:  Warning,
		withOutput: os.Stderr,
		withName:   DefaultName,
	}
}

func getTracerOpts(opt ...Option) tracerOptions {
	opts := tracerDefaults()
	ApplyOpts(&opts, opt...)
	return opts
}
