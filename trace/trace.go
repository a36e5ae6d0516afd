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

// Package trace is the tracing facade of the event core.
//
// A dispatch cycle and each event delivered in it are traced as spans. Span
// loggers are shared with the log package so fields set on a span show up
// both in traces and in log lines.
package trace

import (
	"context"

	"github.com/cbosdo/libvirt/log"
)

// Tracer creates spans.
type Tracer interface {
	// StartSpan starts a new span. The span details are embedded into the
	// returned context.
	StartSpan(context.Context, string) (context.Context, Span)
}

var (
	// T is the Tracer used when the context does not carry one.
	T Tracer = nopTracer{}
)

type tracerKey struct{}

// WithTracer sets the Tracer used by StartSpan for ctx and its children.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	return context.WithValue(ctx, tracerKey{}, t)
}

// StartSpan starts a span from the context tracer, or T.
func StartSpan(ctx context.Context, name string) (context.Context, Span) {
	tracer, ok := ctx.Value(tracerKey{}).(Tracer)
	if !ok {
		tracer = T
	}

	ctx, span := tracer.StartSpan(ctx, name)
	if l := span.Logger(); l != nil {
		ctx = log.WithLogger(ctx, l)
	}
	return ctx, span
}

// Span is a single traced operation.
type Span interface {
	End()

	// SetStatus sets the final status of the span. Errors should be
	// classified with the errdefs package; nil marks the span successful.
	SetStatus(err error)

	// WithField and WithFields add attributes to the whole span and return
	// a context whose logger carries them too.
	WithField(context.Context, string, interface{}) context.Context
	WithFields(context.Context, log.Fields) context.Context

	// Logger logs individual entries against the span. Fields added on the
	// returned logger only apply to those entries.
	Logger() log.Logger
}
