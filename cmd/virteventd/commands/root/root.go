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

package root

import (
	"context"

	"github.com/cbosdo/libvirt/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Option customizes the root command.
type Option func(*settings)

type settings struct {
	flags  []*pflag.FlagSet
	preRun []func() error
}

// WithPersistentFlags adds flags shared by every subcommand.
func WithPersistentFlags(flags *pflag.FlagSet) Option {
	return func(s *settings) {
		s.flags = append(s.flags, flags)
	}
}

// WithPreRun adds a callback run once flags, environment and config file
// are resolved, before any subcommand.
func WithPreRun(f func() error) Option {
	return func(s *settings) {
		s.preRun = append(s.preRun, f)
	}
}

// NewCommand creates the root command. Settings are resolved in order:
// command line flags, VIRTEVENTD_* environment variables, the config file,
// then the defaults in c.
func NewCommand(ctx context.Context, name string, c *Opts, opts ...Option) *cobra.Command {
	var s settings
	for _, o := range opts {
		o(&s)
	}

	cmd := &cobra.Command{
		Use:   name,
		Short: name + " delivers virtualization object events to subscribers.",
		Long: name + ` queues events about domains and networks and delivers them,
in order, to every callback registered for their kind.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if err := applyEnv(flags, DefaultEnvPrefix); err != nil {
				return err
			}
			configFlag := flags.Lookup("config")
			if err := applyConfigFile(flags, c.ConfigPath, configFlag != nil && configFlag.Changed); err != nil {
				return err
			}
			for _, f := range s.preRun {
				if err := f(); err != nil {
					return err
				}
			}
			log.G(ctx).WithField("config", c.ConfigPath).Debug("Settings resolved")
			return nil
		},
	}

	installFlags(cmd.PersistentFlags(), c)
	for _, fs := range s.flags {
		cmd.PersistentFlags().AddFlagSet(fs)
	}
	return cmd
}
