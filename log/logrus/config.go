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

package logrus

import (
	"github.com/cbosdo/libvirt/errdefs"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
)

// Config holds the command line settings of the logrus backend.
type Config struct {
	LogLevel  string
	LogFormat string
}

// FlagSet returns the flags which fill c.
func (c *Config) FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("logrus", pflag.ContinueOnError)
	flags.StringVar(&c.LogLevel, "log-level", c.LogLevel, `set the log level, e.g. "debug", "info", "warn", "error"`)
	flags.StringVar(&c.LogFormat, "log-format", c.LogFormat, `set the log format, "text" or "json"`)
	return flags
}

// Configure applies c to logger, or to the logrus standard logger when nil.
func Configure(c *Config, logger *logrus.Logger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	if c.LogLevel != "" {
		lvl, err := logrus.ParseLevel(c.LogLevel)
		if err != nil {
			return errdefs.AsInvalidInput(errors.Wrap(err, "error parsing log level"))
		}
		logger.SetLevel(lvl)
	}

	switch c.LogFormat {
	case "", "text":
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return errdefs.InvalidInputf("unsupported log format %q", c.LogFormat)
	}

	return nil
}
