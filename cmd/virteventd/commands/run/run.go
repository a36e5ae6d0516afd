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

package run

import (
	"context"

	"github.com/cbosdo/libvirt/cmd/virteventd/commands/root"
	"github.com/cbosdo/libvirt/errdefs"
	"github.com/cbosdo/libvirt/event"
	"github.com/cbosdo/libvirt/internal/replay"
	"github.com/cbosdo/libvirt/log"
	"github.com/cbosdo/libvirt/state"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"
)

// NewCommand creates the run subcommand: it watches every event kind and
// optionally replays an event script.
func NewCommand(ctx context.Context, c *root.Opts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch and log events, replaying an event script",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(ctx, c, clock.RealClock{})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&c.EventsPath, "events", c.EventsPath, "YAML event script to replay")
	flags.BoolVar(&c.ExitAfterReplay, "exit-after-replay", c.ExitAfterReplay, "exit once the event script is replayed and delivered")
	return cmd
}

func runEvents(ctx context.Context, c *root.Opts, clk clock.WithTicker) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if c.ExitAfterReplay && c.EventsPath == "" {
		return errdefs.InvalidInput("--exit-after-replay requires --events")
	}

	var filter *event.Meta
	if c.FilterUUID != "" {
		u, err := uuid.Parse(c.FilterUUID)
		if err != nil {
			return errdefs.AsInvalidInput(errors.Wrap(err, "invalid filter UUID"))
		}
		filter = &event.Meta{UUID: u}
	}

	var script *replay.Script
	if c.EventsPath != "" {
		var err error
		if script, err = replay.Load(c.EventsPath); err != nil {
			return err
		}
	}

	if err := state.RegisterViews(); err != nil {
		return errors.Wrap(err, "error registering metric views")
	}

	st := state.New(
		state.WithScheduler(state.NewTickerScheduler(clk, c.TickInterval)),
		state.WithContext(ctx),
	)
	defer st.Close(ctx)

	conn := &watchConn{uri: c.URI}
	ids, err := watchWithRetry(ctx, st, conn, filter, defaultBackOff())
	if err != nil {
		return err
	}
	log.G(ctx).WithFields(log.Fields{
		"uri":       conn.URI(),
		"callbacks": len(ids),
	}).Info("Watching events")

	g, gctx := errgroup.WithContext(ctx)
	if script != nil {
		g.Go(func() error {
			if err := script.Play(gctx, clk, st); err != nil {
				return err
			}
			log.G(gctx).WithField("events", len(script.Events)).Info("Event script replayed")
			if !c.ExitAfterReplay {
				return nil
			}
			if err := st.Drain(gctx); err != nil {
				return err
			}
			cancel()
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil && errors.Cause(err) != context.Canceled {
		return err
	}
	return nil
}
