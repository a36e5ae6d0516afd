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

package opencensus

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/log"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	octrace "go.opencensus.io/trace"
	"go.opencensus.io/zpages"
)

// ZpagesExporter is the pseudo exporter serving in-process trace pages.
const ZpagesExporter = "zpages"

// Config selects and configures trace exporters.
type Config struct {
	SampleRate  string
	ServiceName string
	Tags        map[string]string
	Exporters   []string
	ZpagesAddr  string
}

// FromEnv returns a config seeded from the environment.
func FromEnv() *Config {
	return &Config{
		ServiceName: "virteventd",
		ZpagesAddr:  os.Getenv("ZPAGES_ADDR"),
	}
}

// FlagSet creates a new flag set based on the current config
func (c *Config) FlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("opencensus", pflag.ContinueOnError)

	flags.StringSliceVar(&c.Exporters, "trace-exporter", c.Exporters, fmt.Sprintf("sets the tracing exporter to use, available exporters: %s", AvailableTracingExporters()))
	flags.StringVar(&c.ServiceName, "trace-service-name", c.ServiceName, "sets the name of the service used to register with the trace exporter")
	flags.StringToStringVar(&c.Tags, "trace-tag", c.Tags, "add tags to include with traces in key=value form")
	flags.StringVar(&c.SampleRate, "trace-sample-rate", c.SampleRate, "set probability of tracing samples (always, never or a percentage)")
	flags.StringVar(&c.ZpagesAddr, "trace-zpages-addr", c.ZpagesAddr, "set the listen address to use for zpages")

	return flags
}

// TracingExporterInitFunc builds an exporter from the config.
type TracingExporterInitFunc func(*Config) (octrace.Exporter, error)

var (
	exportersMu sync.Mutex
	exporters   = map[string]TracingExporterInitFunc{}
)

// RegisterTracingExporter makes an exporter selectable by name.
func RegisterTracingExporter(name string, f TracingExporterInitFunc) {
	exportersMu.Lock()
	exporters[name] = f
	exportersMu.Unlock()
}

// GetTracingExporter returns the init func registered under name.
func GetTracingExporter(name string) (TracingExporterInitFunc, error) {
	exportersMu.Lock()
	defer exportersMu.Unlock()

	f, ok := exporters[name]
	if !ok {
		return nil, errdefs.NotFoundf("tracing exporter %q not found", name)
	}
	return f, nil
}

// AvailableTracingExporters lists registered exporter names, sorted.
func AvailableTracingExporters() []string {
	exportersMu.Lock()
	out := make([]string, 0, len(exporters)+1)
	for name := range exporters {
		out = append(out, name)
	}
	exportersMu.Unlock()

	out = append(out, ZpagesExporter)
	sort.Strings(out)
	return out
}

// Configure registers the selected exporters and applies the sample rate.
func Configure(ctx context.Context, c *Config) error {
	for _, e := range c.Exporters {
		if e == ZpagesExporter {
			if c.ZpagesAddr == "" {
				log.G(ctx).Warn("Zpages trace exporter requested but listen address was not set, skipping")
				continue
			}
			setupZpages(ctx, c.ZpagesAddr)
			continue
		}

		init, err := GetTracingExporter(e)
		if err != nil {
			return err
		}
		exporter, err := init(c)
		if err != nil {
			return errors.Wrapf(err, "error initializing tracing exporter %q", e)
		}
		octrace.RegisterExporter(exporter)
	}

	if len(c.Exporters) == 0 {
		return nil
	}

	s, err := parseSampleRate(c.SampleRate)
	if err != nil {
		return err
	}
	if s != nil {
		octrace.ApplyConfig(octrace.Config{DefaultSampler: s})
	}
	return nil
}

func parseSampleRate(rate string) (octrace.Sampler, error) {
	switch strings.ToLower(rate) {
	case "":
		return nil, nil
	case "always":
		return octrace.AlwaysSample(), nil
	case "never":
		return octrace.NeverSample(), nil
	}

	r, err := strconv.Atoi(rate)
	if err != nil {
		return nil, errdefs.AsInvalidInput(errors.Wrap(err, "unsupported trace sample rate"))
	}
	if r < 0 || r > 100 {
		return nil, errdefs.InvalidInputf("trace sample rate must be between 0 and 100, got %d", r)
	}
	return octrace.ProbabilitySampler(float64(r) / 100), nil
}

func setupZpages(ctx context.Context, addr string) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.G(ctx).WithError(err).Errorf("Could not bind to specified zpages addr: %s", addr)
		return
	}

	mux := http.NewServeMux()
	zpages.Handle(mux, "/debug")

	go func() {
		// Serve only returns on error.
		e := http.Serve(listener, mux)
		if e == http.ErrServerClosed {
			return
		}
		log.G(ctx).WithError(e).Error("Zpages server exited")
	}()
}
