// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package logging

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Level is a trace verbosity level.  Levels are ordered from None (nothing is
// emitted) to LogAlways (everything is emitted).
//
// hclog has no critical level and nothing logged through it is Critical, so
// at Critical both the logger output and the listeners stay silent, as at None.
type Level int32

const (
	None Level = iota
	Critical
	Error
	Warning
	Informational
	Verbose
	LogAlways
)

var levelNames = map[Level]string{
	None:          "none",
	Critical:      "critical",
	Error:         "error",
	Warning:       "warning",
	Informational: "informational",
	Verbose:       "verbose",
	LogAlways:     "logalways",
}

// String returns the lower case name of the level.
func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// ParseLevel parses a level name, case insensitive.  "info" and "debug" are
// accepted as aliases for informational and verbose.
func ParseLevel(s string) (Level, error) {
	const op = "logging.ParseLevel"
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		return Informational, nil
	case "debug":
		return Verbose, nil
	case "warn":
		return Warning, nil
	}
	for l, name := range levelNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return l, nil
		}
	}
	return None, fmt.Errorf("%s: %w: %q", op, ErrUnknownLevel, s)
}

// Allows reports whether a message at msg level is emitted when l is the
// configured level.
func (l Level) Allows(msg Level) bool {
	switch {
	case l == None || msg == None:
		return false
	case l == LogAlways:
		return true
	default:
		return msg <= l
	}
}

// hclogLevel maps the level onto the hclog level used by the logger.
func (l Level) hclogLevel() hclog.Level {
	switch l {
	case None, Critical:
		return hclog.Off
	case Error:
		return hclog.Error
	case Warning:
		return hclog.Warn
	case Informational:
		return hclog.Info
	case Verbose:
		return hclog.Debug
	default:
		return hclog.Trace
	}
}

// fromHclog maps the level of a logged message back onto a Level.
func fromHclog(l hclog.Level) Level {
	switch l {
	case hclog.Error:
		return Error
	case hclog.Warn:
		return Warning
	case hclog.Info:
		return Informational
	case hclog.Debug, hclog.Trace:
		return Verbose
	default:
		return None
	}
}
