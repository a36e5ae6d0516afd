// Package opencensus implements trace.Tracer on top of go.opencensus.io.
//
// Use this by setting `trace.T = opencensus.Adapter{}`. Exporters are chosen
// by name through Configure.
package opencensus

import (
	"context"
	"fmt"
	"sync"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/log"
	"github.com/cbosdo/libvirt/trace"
	octrace "go.opencensus.io/trace"
)

const (
	lDebug = "DEBUG"
	lInfo  = "INFO"
	lWarn  = "WARN"
	lErr   = "ERROR"
	lFatal = "FATAL"
)

// Adapter implements the trace.Tracer interface for OpenCensus
type Adapter struct{}

// StartSpan creates a new opencensus span named name.
func (Adapter) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	ctx, ocs := octrace.StartSpan(ctx, name)
	l := log.G(ctx).WithField("method", name)

	s := &span{s: ocs, l: l}
	ctx = log.WithLogger(ctx, s.Logger())

	return ctx, s
}

type span struct {
	mu sync.Mutex
	s  *octrace.Span
	l  log.Logger
}

func (s *span) End() {
	s.s.End()
}

func (s *span) SetStatus(err error) {
	if !s.s.IsRecordingEvents() {
		return
	}

	s.s.SetStatus(statusFor(err))
}

func statusFor(err error) octrace.Status {
	if err == nil {
		return octrace.Status{Code: octrace.StatusCodeOK}
	}

	var status octrace.Status
	switch {
	case errdefs.IsNotFound(err):
		status.Code = octrace.StatusCodeNotFound
	case errdefs.IsInvalidInput(err):
		status.Code = octrace.StatusCodeInvalidArgument
	case errdefs.IsConflict(err):
		status.Code = octrace.StatusCodeAlreadyExists
	case errdefs.IsUnavailable(err):
		status.Code = octrace.StatusCodeUnavailable
	case errdefs.IsUnsupported(err):
		status.Code = octrace.StatusCodeUnimplemented
	default:
		status.Code = octrace.StatusCodeUnknown
	}
	status.Message = err.Error()
	return status
}

func (s *span) WithField(ctx context.Context, key string, val interface{}) context.Context {
	s.mu.Lock()
	s.l = s.l.WithField(key, val)
	ctx = log.WithLogger(ctx, &logger{s: s.s, l: s.l})
	s.mu.Unlock()

	if s.s.IsRecordingEvents() {
		s.s.AddAttributes(makeAttribute(key, val))
	}

	return ctx
}

func (s *span) WithFields(ctx context.Context, f log.Fields) context.Context {
	s.mu.Lock()
	s.l = s.l.WithFields(f)
	ctx = log.WithLogger(ctx, &logger{s: s.s, l: s.l})
	s.mu.Unlock()

	if s.s.IsRecordingEvents() {
		attrs := make([]octrace.Attribute, 0, len(f))
		for k, v := range f {
			attrs = append(attrs, makeAttribute(k, v))
		}
		s.s.AddAttributes(attrs...)
	}

	return ctx
}

func (s *span) Logger() log.Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &logger{s: s.s, l: s.l}
}

// logger mirrors every entry into a span annotation while the span records.
type logger struct {
	s *octrace.Span
	l log.Logger
	a []octrace.Attribute
}

func (l *logger) annotate(level, msg string) {
	if l.s.IsRecordingEvents() {
		l.s.Annotate(withLevel(level, l.a), msg)
	}
}

func (l *logger) Debug(args ...interface{}) {
	msg := fmt.Sprint(args...)
	l.l.Debug(msg)
	l.annotate(lDebug, msg)
}

func (l *logger) Debugf(f string, args ...interface{}) {
	msg := fmt.Sprintf(f, args...)
	l.l.Debug(msg)
	l.annotate(lDebug, msg)
}

func (l *logger) Info(args ...interface{}) {
	msg := fmt.Sprint(args...)
	l.l.Info(msg)
	l.annotate(lInfo, msg)
}

func (l *logger) Infof(f string, args ...interface{}) {
	msg := fmt.Sprintf(f, args...)
	l.l.Info(msg)
	l.annotate(lInfo, msg)
}

func (l *logger) Warn(args ...interface{}) {
	msg := fmt.Sprint(args...)
	l.l.Warn(msg)
	l.annotate(lWarn, msg)
}

func (l *logger) Warnf(f string, args ...interface{}) {
	msg := fmt.Sprintf(f, args...)
	l.l.Warn(msg)
	l.annotate(lWarn, msg)
}

func (l *logger) Error(args ...interface{}) {
	msg := fmt.Sprint(args...)
	l.l.Error(msg)
	l.annotate(lErr, msg)
}

func (l *logger) Errorf(f string, args ...interface{}) {
	msg := fmt.Sprintf(f, args...)
	l.l.Error(msg)
	l.annotate(lErr, msg)
}

// Fatal annotates before logging since the backend exits the process.
func (l *logger) Fatal(args ...interface{}) {
	msg := fmt.Sprint(args...)
	l.annotate(lFatal, msg)
	l.l.Fatal(msg)
}

func (l *logger) Fatalf(f string, args ...interface{}) {
	msg := fmt.Sprintf(f, args...)
	l.annotate(lFatal, msg)
	l.l.Fatal(msg)
}

func (l *logger) with(next log.Logger, attrs ...octrace.Attribute) log.Logger {
	var a []octrace.Attribute
	if l.s.IsRecordingEvents() {
		a = make([]octrace.Attribute, len(l.a), len(l.a)+len(attrs))
		copy(a, l.a)
		a = append(a, attrs...)
	}
	return &logger{s: l.s, l: next, a: a}
}

func (l *logger) WithError(err error) log.Logger {
	return l.with(l.l.WithError(err), makeAttribute("err", err))
}

func (l *logger) WithField(k string, value interface{}) log.Logger {
	return l.with(l.l.WithField(k, value), makeAttribute(k, value))
}

func (l *logger) WithFields(fields log.Fields) log.Logger {
	attrs := make([]octrace.Attribute, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, makeAttribute(k, v))
	}
	return l.with(l.l.WithFields(fields), attrs...)
}

func makeAttribute(key string, val interface{}) octrace.Attribute {
	switch v := val.(type) {
	case string:
		return octrace.StringAttribute(key, v)
	case int:
		return octrace.Int64Attribute(key, int64(v))
	case int64:
		return octrace.Int64Attribute(key, v)
	case bool:
		return octrace.BoolAttribute(key, v)
	case error:
		return octrace.StringAttribute(key, v.Error())
	case fmt.Stringer:
		return octrace.StringAttribute(key, v.String())
	default:
		return octrace.StringAttribute(key, fmt.Sprintf("%+v", val))
	}
}

func withLevel(l string, attrs []octrace.Attribute) []octrace.Attribute {
	return append(attrs, octrace.StringAttribute("level", l))
}
