// Package logrus backs the log.Logger facade with github.com/sirupsen/logrus.
//
// Install it as the default with:
//
//	log.L = logrus.FromLogrus(logrus.NewEntry(logrus.StandardLogger()))
package logrus

import (
	"github.com/cbosdo/libvirt/log"
	"github.com/sirupsen/logrus"
)

// Adapter implements log.Logger on top of a logrus entry.
type Adapter struct {
	*logrus.Entry
}

// FromLogrus wraps entry as a log.Logger.
func FromLogrus(entry *logrus.Entry) log.Logger {
	return &Adapter{entry}
}

// WithField adds a field to the log entry.
func (l *Adapter) WithField(key string, val interface{}) log.Logger {
	return FromLogrus(l.Entry.WithField(key, val))
}

// WithFields adds multiple fields to a log entry.
func (l *Adapter) WithFields(f log.Fields) log.Logger {
	return FromLogrus(l.Entry.WithFields(logrus.Fields(f)))
}

// WithError adds an error to the log entry
func (l *Adapter) WithError(err error) log.Logger {
	return FromLogrus(l.Entry.WithError(err))
}
