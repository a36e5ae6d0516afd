// +build !no_jaeger_exporter

package opencensus

import (
	"os"

	"contrib.go.opencensus.io/exporter/jaeger"
	"github.com/cbosdo/libvirt/errdefs"
	octrace "go.opencensus.io/trace"
)

func init() {
	RegisterTracingExporter("jaeger", NewJaegerExporter)
}

// NewJaegerExporter creates a new opencensus tracing exporter.
func NewJaegerExporter(c *Config) (octrace.Exporter, error) {
	jOpts := jaeger.Options{
		CollectorEndpoint: os.Getenv("JAEGER_ENDPOINT"),
		AgentEndpoint:     os.Getenv("JAEGER_AGENT_ENDPOINT"),
		Username:          os.Getenv("JAEGER_USER"),
		Password:          os.Getenv("JAEGER_PASSWORD"),
		Process: jaeger.Process{
			ServiceName: c.ServiceName,
		},
	}

	if jOpts.CollectorEndpoint == "" && jOpts.AgentEndpoint == "" {
		return nil, errdefs.InvalidInput("must specify either JAEGER_ENDPOINT or JAEGER_AGENT_ENDPOINT")
	}

	for k, v := range c.Tags {
		jOpts.Process.Tags = append(jOpts.Process.Tags, jaeger.StringTag(k, v))
	}
	return jaeger.NewExporter(jOpts)
}
