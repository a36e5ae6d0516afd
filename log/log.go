// Copyright © 2017 The virtual-kubelet authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package log is the logging facade of the event core.
//
// Loggers travel in a context.Context: producers, the dispatcher and
// subscriber callbacks all log through `log.G(ctx)`, which picks up the
// fields (event ID, callback ID, object UUID) attached further up the call
// chain. When the context carries no logger, the package default `L` is used.
package log

import (
	"context"
)

var (
	// G is an alias for GetLogger.
	G = GetLogger

	// L is the logger used when a context does not carry one. It discards
	// everything until a backend such as log/logrus is installed.
	L Logger = nopLogger{}
)

type loggerKey struct{}

// Logger is the set of logging calls used across the module.
type Logger interface {
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})
	Fatal(...interface{})
	Fatalf(string, ...interface{})

	WithField(string, interface{}) Logger
	WithFields(Fields) Logger
	WithError(error) Logger
}

// Fields sets several structured fields at once.
type Fields map[string]interface{}

// WithLogger returns a child context carrying logger.
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger returns the logger stored in ctx, or L.
func GetLogger(ctx context.Context) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok && logger != nil {
		return logger
	}
	if L == nil {
		panic("default logger not initialized")
	}
	return L
}
