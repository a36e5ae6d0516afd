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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbosdo/libvirt/cmd/virteventd/commands/kinds"
	"github.com/cbosdo/libvirt/cmd/virteventd/commands/root"
	"github.com/cbosdo/libvirt/cmd/virteventd/commands/run"
	cmdversion "github.com/cbosdo/libvirt/cmd/virteventd/commands/version"
	"github.com/cbosdo/libvirt/log"
	logruslogger "github.com/cbosdo/libvirt/log/logrus"
	"github.com/cbosdo/libvirt/trace"
	"github.com/cbosdo/libvirt/trace/opencensus"
	"github.com/cbosdo/libvirt/version"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	logger := logrus.StandardLogger()
	log.L = logruslogger.FromLogrus(logrus.NewEntry(logger))
	logConfig := &logruslogger.Config{LogLevel: "info"}

	trace.T = opencensus.Adapter{}
	traceConfig := opencensus.FromEnv()

	var o root.Opts
	if err := root.SetDefaultOpts(&o); err != nil {
		log.G(ctx).Fatal(err)
	}

	rootCmd := root.NewCommand(ctx, "virteventd", &o,
		root.WithPersistentFlags(logConfig.FlagSet()),
		root.WithPersistentFlags(traceConfig.FlagSet()),
		root.WithPreRun(func() error {
			return logruslogger.Configure(logConfig, logger)
		}),
		root.WithPreRun(func() error {
			return opencensus.Configure(ctx, traceConfig)
		}),
	)
	rootCmd.AddCommand(
		run.NewCommand(ctx, &o),
		kinds.NewCommand(),
		cmdversion.NewCommand(version.Version, version.BuildTime),
	)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.G(ctx).Fatal(err)
	}
}
