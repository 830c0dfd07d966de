// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	level Level
	name  string
	msg   string
}

type testListener struct {
	mu      sync.Mutex
	entries []testEntry
	levels  []Level
}

func (l *testListener) Log(level Level, name, msg string, _ ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, testEntry{level: level, name: name, msg: msg})
}

func (l *testListener) LevelChanged(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.levels = append(l.levels, level)
}

func TestLevel_Allows(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		configured Level
		msg        Level
		want       bool
	}{
		{name: "none-blocks-all", configured: None, msg: Critical, want: false},
		{name: "warning-allows-error", configured: Warning, msg: Error, want: true},
		{name: "warning-blocks-info", configured: Warning, msg: Informational, want: false},
		{name: "verbose-allows-verbose", configured: Verbose, msg: Verbose, want: true},
		{name: "logalways-allows-verbose", configured: LogAlways, msg: Verbose, want: true},
		{name: "none-message", configured: LogAlways, msg: None, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.configured.Allows(tt.msg))
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "none", want: None},
		{in: "Critical", want: Critical},
		{in: "error", want: Error},
		{in: "warn", want: Warning},
		{in: "info", want: Informational},
		{in: "VERBOSE", want: Verbose},
		{in: "debug", want: Verbose},
		{in: " logalways ", want: LogAlways},
		{in: "loud", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknownLevel)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.String())
		})
	}
	assert.Equal(t, "level(42)", Level(42).String())
}

func TestTracer_SetLevelPropagates(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	var buf bytes.Buffer
	tr := New(WithOutput(&buf), WithLevel(Warning), WithName("test"))
	l := &testListener{}
	unregister, err := tr.RegisterListener(l)
	require.NoError(err)

	logger := tr.Logger().Named("flow")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(buf.String(), "hidden")
	assert.Contains(buf.String(), "shown")

	tr.SetLevel(Verbose)
	assert.Equal(Verbose, tr.Level())
	assert.True(logger.IsDebug())
	logger.Debug("now visible")
	assert.Contains(buf.String(), "now visible")

	tr.SetLevel(None)
	logger.Error("suppressed")
	assert.NotContains(buf.String(), "suppressed")

	l.mu.Lock()
	assert.Equal([]Level{Warning, Verbose, None}, l.levels)
	require.Len(l.entries, 2)
	assert.Equal(testEntry{level: Warning, name: "test.flow", msg: "shown"}, l.entries[0])
	assert.Equal(testEntry{level: Verbose, name: "test.flow", msg: "now visible"}, l.entries[1])
	l.mu.Unlock()

	unregister()
	tr.SetLevel(LogAlways)
	logger.Info("after unregister")
	l.mu.Lock()
	assert.Len(l.entries, 2)
	assert.Len(l.levels, 3)
	l.mu.Unlock()
}

func TestTracer_CriticalMatchesListeners(t *testing.T) {
	t.Parallel()
	assert, require := assert.New(t), require.New(t)
	var buf bytes.Buffer
	tr := New(WithOutput(&buf), WithLevel(Critical))
	l := &testListener{}
	_, err := tr.RegisterListener(l)
	require.NoError(err)

	tr.Logger().Error("not critical")
	assert.Empty(buf.String())
	l.mu.Lock()
	assert.Empty(l.entries)
	l.mu.Unlock()

	tr.SetLevel(Error)
	tr.Logger().Error("shown")
	assert.Contains(buf.String(), "shown")
	l.mu.Lock()
	assert.Len(l.entries, 1)
	l.mu.Unlock()
}

func TestTracer_RegisterListener(t *testing.T) {
	t.Parallel()
	tr := New(WithOutput(&bytes.Buffer{}))
	_, err := tr.RegisterListener(nil)
	require.ErrorIs(t, err, ErrNilListener)

	var got []string
	fn := ListenerFunc(func(_ Level, _, msg string, _ ...interface{}) {
		got = append(got, msg)
	})
	unregister, err := tr.RegisterListener(fn)
	require.NoError(t, err)
	defer unregister()
	tr.Logger().Error("boom")
	assert.Equal(t, []string{"boom"}, got)
}

func TestDefault(t *testing.T) {
	t.Parallel()
	assert.Same(t, Default(), Default())
	assert.NotNil(t, Named("x"))
}
