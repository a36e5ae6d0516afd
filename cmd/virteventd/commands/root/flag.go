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
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/cbosdo/libvirt/errdefs"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func installFlags(flags *pflag.FlagSet, c *Opts) {
	flags.StringVar(&c.ConfigPath, "config", c.ConfigPath, "config file, keys are flag names")
	flags.StringVar(&c.URI, "uri", c.URI, "connection URI the watcher registers with")
	flags.StringVar(&c.FilterUUID, "filter-uuid", c.FilterUUID, "only watch events about the object with this UUID")
	flags.DurationVar(&c.TickInterval, "tick-interval", c.TickInterval, "how often the dispatcher runs when not woken up by new events, 0 to only run on new events")
}

// applyEnv sets every flag not given on the command line from its
// environment variable: --tick-interval is read from VIRTEVENTD_TICK_INTERVAL.
func applyEnv(flags *pflag.FlagSet, prefix string) error {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || f.Name == "help" {
			return
		}
		if !v.IsSet(f.Name) {
			return
		}
		if e := flags.Set(f.Name, v.GetString(f.Name)); e != nil {
			err = errdefs.AsInvalidInput(errors.Wrapf(e, "invalid value for %s_%s", prefix, strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))))
		}
	})
	return err
}

// applyConfigFile sets every flag still unset from the TOML file at path.
// A missing file is not an error unless required is set.
func applyConfigFile(flags *pflag.FlagSet, path string, required bool) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return errors.Wrap(err, "error opening config file")
	}
	defer f.Close()

	values := make(map[string]interface{})
	if _, err := toml.NewDecoder(f).Decode(&values); err != nil {
		return errdefs.AsInvalidInput(errors.Wrapf(err, "error decoding config file %s", path))
	}

	for key, raw := range values {
		flag := flags.Lookup(key)
		if flag == nil {
			return errdefs.InvalidInputf("unknown setting %q in config file %s", key, path)
		}
		if flag.Changed {
			continue
		}
		if err := flags.Set(key, configValue(raw)); err != nil {
			return errdefs.AsInvalidInput(errors.Wrapf(err, "invalid value for %q in config file %s", key, path))
		}
	}
	return nil
}

func configValue(raw interface{}) string {
	switch v := raw.(type) {
	case []interface{}:
		parts := make([]string, 0, len(v))
		for _, p := range v {
			parts = append(parts, fmt.Sprint(p))
		}
		return strings.Join(parts, ",")
	case map[string]interface{}:
		parts := make([]string, 0, len(v))
		for k, p := range v {
			parts = append(parts, fmt.Sprintf("%s=%v", k, p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
